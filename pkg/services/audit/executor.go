package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/shahul3595/SFCAudit/pkg/models/domain"
)

// Executor sequences rule evaluation over a loaded dataset:
// collect -> group -> per-cohort bound -> evaluate -> build findings.
// Failures degrade: a broken cohort, rule, or entity contributes nothing and
// the run continues.
type Executor struct {
	source    Source
	collector *Collector
}

func NewExecutor(source Source) *Executor {
	return &Executor{
		source:    source,
		collector: NewCollector(source),
	}
}

// Evaluate runs a single rule and returns its findings plus degradation
// counters. It never returns an error: anything that would be one becomes a
// skip with a reason.
func (e *Executor) Evaluate(ctx context.Context, rule domain.Rule) domain.RuleResult {
	logger := zerolog.Ctx(ctx).With().Str("rule", rule.ID).Logger()

	if !e.source.HasTable(rule.PrimaryTable) {
		logger.Warn().Str("table", rule.PrimaryTable).Msg("rule skipped: partition not loaded")
		return domain.RuleResult{
			RuleID: rule.ID,
			Skipped: &domain.SkippedRule{
				RuleID: rule.ID,
				Reason: domain.SkipNoData,
				Detail: fmt.Sprintf("partition %q not loaded", rule.PrimaryTable),
			},
		}
	}

	if rule.Type.Statistical() {
		return e.evaluateStatistical(logger, rule)
	}
	return e.evaluateChecks(logger, rule)
}

func (e *Executor) evaluateStatistical(logger zerolog.Logger, rule domain.Rule) domain.RuleResult {
	res := domain.RuleResult{RuleID: rule.ID}

	metrics := e.collector.Collect(rule)
	for _, m := range metrics {
		if !m.Defined {
			res.MissingInputs++
		}
	}

	cohorts, err := GroupPeers(rule, metrics, e.source.Entities())
	if err != nil {
		logger.Error().Err(err).Msg("rule skipped: invalid peer grouping")
		res.Skipped = &domain.SkippedRule{
			RuleID: rule.ID,
			Reason: domain.SkipInvalidConfig,
			Detail: err.Error(),
		}
		return res
	}

	// Deterministic cohort order; evaluation order never affects output but
	// it keeps findings stable for diffing.
	names := make([]string, 0, len(cohorts))
	for name := range cohorts {
		names = append(names, name)
	}
	sort.Strings(names)

	viable := 0
	for _, name := range names {
		ids := cohorts[name]

		values := make([]float64, 0, len(ids))
		for _, id := range ids {
			if m := metrics[id]; m.Defined {
				values = append(values, m.Value)
			}
		}

		var bounds domain.Bounds
		var boundErr error
		if rule.Type == domain.RuleOutlierIQR {
			bounds, boundErr = IQRBounds(values, rule.Param)
		} else {
			bounds, boundErr = ZScoreBounds(values, rule.Param)
		}
		if boundErr != nil {
			if errors.Is(boundErr, ErrInsufficientSample) {
				res.CohortsSkipped++
				continue
			}
			logger.Warn().Err(boundErr).Str("cohort", name).Msg("could not compute bounds")
			res.CohortsSkipped++
			continue
		}
		viable++

		for _, f := range evaluateCohort(ids, metrics, bounds) {
			entity, ok := e.source.Entity(f.entityID)
			if !ok {
				continue
			}
			res.Findings = append(res.Findings, buildFinding(entity, rule, f, bounds, name, bounds.N))
		}
	}

	if res.CohortsSkipped > 0 {
		logger.Info().
			Int("skipped_cohorts", res.CohortsSkipped).
			Msg("cohorts below minimum sample size were skipped")
	}
	if viable == 0 {
		res.Skipped = &domain.SkippedRule{
			RuleID: rule.ID,
			Reason: domain.SkipNoViableCohort,
			Detail: fmt.Sprintf("%d cohorts, none met the minimum sample size", len(cohorts)),
		}
		logger.Info().Str("reason", string(res.Skipped.Reason)).Msg("rule produced no viable cohorts")
		return res
	}

	logger.Info().Int("findings", len(res.Findings)).Msg("statistical rule evaluated")
	return res
}

func (e *Executor) evaluateChecks(logger zerolog.Logger, rule domain.Rule) domain.RuleResult {
	res := domain.RuleResult{RuleID: rule.ID}

	for _, entity := range e.source.Entities() {
		var finding *domain.Finding
		var missing bool

		switch rule.Type {
		case domain.RuleThreshold:
			finding, missing = e.collector.evaluateThresholdRule(rule, entity)
		case domain.RuleConsistency:
			finding, missing = e.collector.evaluateConsistencyRule(rule, entity)
		case domain.RuleCompleteness:
			finding, missing = e.collector.evaluateCompletenessRule(rule, entity)
		case domain.RuleCrossTable:
			finding, missing = e.collector.evaluateCrossTableRule(rule, entity)
		default:
			logger.Error().Str("type", rule.Type.String()).Msg("rule skipped: unrecognized check type")
			res.Skipped = &domain.SkippedRule{
				RuleID: rule.ID,
				Reason: domain.SkipInvalidConfig,
				Detail: "unrecognized check type " + rule.Type.String(),
			}
			return res
		}

		if missing {
			res.MissingInputs++
		}
		if finding != nil {
			res.Findings = append(res.Findings, *finding)
		}
	}

	logger.Info().Int("findings", len(res.Findings)).Msg("check rule evaluated")
	return res
}

// Run evaluates every rule with bounded parallelism and merges the per-rule
// results in rule order, so the merged output does not depend on scheduling.
func (e *Executor) Run(ctx context.Context, rules []domain.Rule, workers int) (*domain.RunResult, error) {
	if workers < 1 {
		workers = 1
	}

	run := &domain.RunResult{
		StartedAt:   time.Now(),
		EntityCount: len(e.source.Entities()),
	}

	results := make([]domain.RuleResult, len(rules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rule := range rules {
		i, rule := i, rule
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Evaluate(gctx, rule)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("audit run aborted: %w", err)
	}

	for _, res := range results {
		run.Merge(res)
	}
	run.FinishedAt = time.Now()

	zerolog.Ctx(ctx).Info().
		Int("rules_attempted", run.RulesAttempted).
		Int("rules_with_findings", run.RulesWithFindings).
		Int("rules_skipped", len(run.Skipped)).
		Int("findings", len(run.Findings)).
		Msg("audit run complete")
	return run, nil
}
