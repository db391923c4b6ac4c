package audit

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"github.com/shahul3595/SFCAudit/pkg/adapters"
	"github.com/shahul3595/SFCAudit/pkg/models/api"
	"github.com/shahul3595/SFCAudit/pkg/models/domain"
	auditsvc "github.com/shahul3595/SFCAudit/pkg/services/audit"
)

const defaultWorkers = 4

// Handler exposes the audit engine over HTTP. The dataset and rules are
// loaded once at startup; runs are executed on demand.
type Handler struct {
	executor *auditsvc.Executor
	rules    []domain.Rule

	mu      sync.RWMutex
	lastRun *domain.RunResult
}

func NewHandler(executor *auditsvc.Executor, rules []domain.Rule) *Handler {
	return &Handler{executor: executor, rules: rules}
}

// ListRules returns the resolved rule definitions the server evaluates.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	response := make([]api.Rule, 0, len(h.rules))
	for _, rule := range h.rules {
		response = append(response, adapters.MapRuleDomainToApi(rule))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode rules")
	}
}

// RunAudit executes all rules and returns the merged result. The optional
// ?workers= query bounds rule-level parallelism.
func (h *Handler) RunAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	workers := defaultWorkers
	if raw := r.URL.Query().Get("workers"); raw != "" {
		if n, err := cast.ToIntE(raw); err == nil && n > 0 {
			workers = n
		}
	}

	run, err := h.executor.Run(ctx, h.rules, workers)
	if err != nil {
		logger.Error().Err(err).Msg("audit run failed")
		http.Error(w, "audit run failed", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.lastRun = run
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(adapters.MapRunResultDomainToApi(run)); err != nil {
		logger.Error().Err(err).Msg("failed to encode run result")
	}
}

// LastRun returns the most recent run result, if any.
func (h *Handler) LastRun(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	h.mu.RLock()
	run := h.lastRun
	h.mu.RUnlock()

	if run == nil {
		http.Error(w, "no audit run recorded yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(adapters.MapRunResultDomainToApi(run)); err != nil {
		logger.Error().Err(err).Msg("failed to encode run result")
	}
}
