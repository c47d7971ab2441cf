package filters

import (
	"fmt"

	"github.com/bcnelson/spark/pkg/models"
)

// Engine ANDs a fixed chain of rules. It is immutable once built and safe for
// concurrent use.
type Engine struct {
	rules []Rule
}

// NewEngine validates the configuration and builds the standard rule chain.
func NewEngine(config Config) (*Engine, error) {
	config, err := normalize(config)
	if err != nil {
		return nil, err
	}

	return &Engine{rules: buildRules(config)}, nil
}

func buildRules(config Config) []Rule {
	return []Rule{
		NewSearchFilter(config.SearchQuery),
		NewDistanceFilter(config.Distance),
		NewCategoryFilter(config.Categories),
		NewDurationFilter(config.Duration),
		NewStatusRule(config.Status),
	}
}

// Includes reports whether the activity passes every predicate of config.
func Includes(activity models.Activity, config Config) (bool, error) {
	engine, err := NewEngine(config)
	if err != nil {
		return false, err
	}
	visible, _, err := engine.evaluate(activity)
	return visible, err
}

// Filter returns the visible activities in their original order. A rule error
// aborts the whole call.
func (e *Engine) Filter(activities []models.Activity) ([]models.Activity, error) {
	visible := make([]models.Activity, 0, len(activities))
	for _, activity := range activities {
		ok, _, err := e.evaluate(activity)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, activity)
		}
	}
	return visible, nil
}

func (e *Engine) evaluate(activity models.Activity) (bool, []Result, error) {
	results := make([]Result, 0, len(e.rules))
	overall := true

	for _, rule := range e.rules {
		visible, reason, err := rule.Apply(activity)
		if err != nil {
			return false, results, fmt.Errorf("filter %s: %w", rule.Name(), err)
		}
		results = append(results, Result{
			ActivityID: activity.ID,
			Visible:    visible,
			Reason:     reason,
			FilterName: rule.Name(),
		})
		if !visible {
			overall = false
		}
	}

	return overall, results, nil
}

// Explain evaluates every rule and reports each outcome. A rule that fails to
// evaluate marks the activity hidden and records the error.
func (e *Engine) Explain(activity models.Activity) Explanation {
	explanation := Explanation{
		ActivityID:    activity.ID,
		ActivityTitle: activity.Title,
		IsVisible:     true,
		FilterResults: []RuleExplanation{},
	}

	for _, rule := range e.rules {
		visible, reason, err := rule.Apply(activity)
		if err != nil {
			visible = false
			reason = err.Error()
			explanation.Error = err.Error()
		}
		explanation.FilterResults = append(explanation.FilterResults, RuleExplanation{
			FilterName: rule.Name(),
			Passed:     visible,
			Reason:     reason,
		})
		if !visible {
			explanation.IsVisible = false
		}
	}

	return explanation
}

type Stats struct {
	Total         int                  `json:"total"`
	Visible       int                  `json:"visible"`
	Errors        int                  `json:"errors"`
	FilterResults map[string]RuleStats `json:"filter_results"`
}

type RuleStats struct {
	Name    string `json:"name"`
	Visible int    `json:"visible"`
	Hidden  int    `json:"hidden"`
}

// Stats counts, per rule, how many activities each predicate lets through.
func (e *Engine) Stats(activities []models.Activity) Stats {
	stats := Stats{
		Total:         len(activities),
		FilterResults: make(map[string]RuleStats, len(e.rules)),
	}

	for _, rule := range e.rules {
		ruleStats := RuleStats{Name: rule.Name()}
		for _, activity := range activities {
			visible, _, err := rule.Apply(activity)
			if err == nil && visible {
				ruleStats.Visible++
			} else {
				ruleStats.Hidden++
			}
		}
		stats.FilterResults[rule.Name()] = ruleStats
	}

	for _, activity := range activities {
		visible, _, err := e.evaluate(activity)
		if err != nil {
			stats.Errors++
			continue
		}
		if visible {
			stats.Visible++
		}
	}

	return stats
}
