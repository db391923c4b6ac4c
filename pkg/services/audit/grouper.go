package audit

import (
	"fmt"

	"github.com/shahul3595/SFCAudit/pkg/models/domain"
)

// StatewideCohort names the single cohort used when a rule has no peer
// criterion.
const StatewideCohort = "statewide"

// GroupPeers partitions entities into cohorts for one rule. Only entities
// with a defined metric are eligible; an entity lacking the attribute the
// active mode needs (population, district, name) is excluded rather than
// assigned a default cohort. Cohorts are disjoint by construction. Returns
// an error only for an unrecognized mode, which invalidates the whole rule.
func GroupPeers(rule domain.Rule, metrics map[string]domain.Metric, entities []domain.Entity) (map[string][]string, error) {
	defined := func(id string) bool { return metrics[id].Defined }

	switch rule.Grouping.Mode {
	case domain.GroupStatewide:
		var ids []string
		for _, e := range entities {
			if defined(e.ID) {
				ids = append(ids, e.ID)
			}
		}
		return map[string][]string{StatewideCohort: ids}, nil

	case domain.GroupPopulation:
		min, max := rule.Grouping.PopMin, rule.Grouping.PopMax
		name := fmt.Sprintf("pop_%dk-%dk", int(min/1000), int(max/1000))
		var ids []string
		for _, e := range entities {
			if !defined(e.ID) || e.Population == nil {
				continue
			}
			if p := *e.Population; p >= min && p <= max {
				ids = append(ids, e.ID)
			}
		}
		// Out-of-bracket entities are invisible for this rule: no cohort,
		// no finding, not counted in N.
		return map[string][]string{name: ids}, nil

	case domain.GroupDistrict:
		groups := make(map[string][]string)
		for _, e := range entities {
			if !defined(e.ID) || e.District == "" {
				continue
			}
			groups[e.District] = append(groups[e.District], e.ID)
		}
		return groups, nil

	case domain.GroupGrade:
		groups := make(map[string][]string)
		for _, e := range entities {
			if !defined(e.ID) || e.Name == "" {
				continue
			}
			grade := ExtractGrade(e.Name)
			groups[grade] = append(groups[grade], e.ID)
		}
		return groups, nil

	default:
		return nil, fmt.Errorf("unrecognized peer group mode %d", int(rule.Grouping.Mode))
	}
}
