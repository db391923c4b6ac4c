package audit

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/shahul3595/SFCAudit/pkg/models/domain"
	"github.com/shahul3595/SFCAudit/pkg/store/dataset"
)

// Source provides the materialized dataset an audit runs over: the entity
// registry plus per-entity partition rows. *dataset.Store satisfies it.
type Source interface {
	Entities() []domain.Entity
	EntityIDs() []string
	Entity(id string) (domain.Entity, bool)
	Rows(id, table string) []dataset.Row
	HasTable(table string) bool
}

// Collector computes per-entity metric values for a rule. It only reads
// already-loaded partitions; an input problem makes the metric undefined,
// it never fails the rule.
type Collector struct {
	source Source
}

func NewCollector(source Source) *Collector {
	return &Collector{source: source}
}

// Collect resolves the rule's metric for every registry entity. The result
// has one entry per entity; undefined entries carry the reason.
func (c *Collector) Collect(rule domain.Rule) map[string]domain.Metric {
	metrics := make(map[string]domain.Metric, len(c.source.EntityIDs()))
	for _, id := range c.source.EntityIDs() {
		metrics[id] = c.metricFor(rule, id)
	}
	return metrics
}

func (c *Collector) metricFor(rule domain.Rule, id string) domain.Metric {
	primary := c.source.Rows(id, rule.PrimaryTable)
	if len(primary) == 0 {
		return domain.UndefinedMetric(fmt.Sprintf("no rows in partition %q", rule.PrimaryTable))
	}

	// A reference partition joins a second set of rows via the entity ID.
	var reference []dataset.Row
	if rule.ReferenceTable != "" {
		reference = c.source.Rows(id, rule.ReferenceTable)
		if len(reference) == 0 {
			return domain.UndefinedMetric(fmt.Sprintf("join failed: no rows in partition %q", rule.ReferenceTable))
		}
	}

	resolve := func(spec string) (float64, error) {
		v, err := columnValue(spec, primary)
		if err != nil && len(reference) > 0 {
			if rv, refErr := columnValue(spec, reference); refErr == nil {
				return rv, nil
			}
		}
		return v, err
	}

	switch rule.Calc {
	case domain.CalcRatio, domain.CalcPercentage, domain.CalcDifference, domain.CalcGrowthRate:
		if len(rule.Columns) < 2 {
			return domain.UndefinedMetric("two columns required")
		}
		v1, err := resolve(rule.Columns[0])
		if err != nil {
			return domain.UndefinedMetric("numerator: " + err.Error())
		}
		v2, err := resolve(rule.Columns[1])
		if err != nil {
			return domain.UndefinedMetric("denominator: " + err.Error())
		}
		switch rule.Calc {
		case domain.CalcRatio:
			if v2 == 0 {
				return domain.UndefinedMetric("division by zero")
			}
			return domain.DefinedMetric(v1 / v2)
		case domain.CalcPercentage:
			if v2 == 0 {
				return domain.UndefinedMetric("division by zero")
			}
			return domain.DefinedMetric(v1 / v2 * 100)
		case domain.CalcDifference:
			return domain.DefinedMetric(v1 - v2)
		default: // growth rate, relative to the initial value
			if v2 == 0 {
				return domain.UndefinedMetric("initial value is zero")
			}
			return domain.DefinedMetric((v1 - v2) / v2 * 100)
		}

	case domain.CalcSum:
		var total float64
		var used int
		for _, spec := range rule.Columns {
			if strings.TrimSpace(spec) == "" {
				continue
			}
			v, err := resolve(spec)
			if err != nil {
				return domain.UndefinedMetric(err.Error())
			}
			total += v
			used++
		}
		if used == 0 {
			return domain.UndefinedMetric("no columns configured for sum")
		}
		return domain.DefinedMetric(total)

	default: // direct
		if len(rule.Columns) == 0 {
			return domain.UndefinedMetric("no column configured")
		}
		v, err := resolve(rule.Columns[0])
		if err != nil {
			return domain.UndefinedMetric(err.Error())
		}
		return domain.DefinedMetric(v)
	}
}

// columnValue resolves a column spec against a set of rows. A spec may be a
// numeric constant, a single column name, or a comma-separated list of
// columns; column values are summed across rows, as partitions may carry
// several records per entity.
func columnValue(spec string, rows []dataset.Row) (float64, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, fmt.Errorf("column specification is missing")
	}

	// Constants are allowed wherever a column is.
	if v, err := cast.ToFloat64E(spec); err == nil {
		return v, nil
	}

	cols := []string{spec}
	if strings.Contains(spec, ",") {
		cols = cols[:0]
		for _, c := range strings.Split(spec, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
	}

	var total float64
	for _, col := range cols {
		v, err := sumColumn(col, rows)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

func sumColumn(col string, rows []dataset.Row) (float64, error) {
	var total float64
	var parsed, nonEmpty int
	found := false
	for _, row := range rows {
		raw, ok := row[col]
		if !ok {
			continue
		}
		found = true
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		nonEmpty++
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			continue
		}
		total += v
		parsed++
	}

	if !found {
		return 0, fmt.Errorf("column %q not found", col)
	}
	if nonEmpty == 0 {
		return 0, fmt.Errorf("column %q has only null values", col)
	}
	if parsed == 0 {
		return 0, fmt.Errorf("column %q contains non-numeric data", col)
	}
	return total, nil
}
