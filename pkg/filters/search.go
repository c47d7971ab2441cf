package filters

import (
	"fmt"
	"strings"

	"github.com/bcnelson/spark/pkg/models"
)

// SearchFilter matches the query case-insensitively against title,
// description and location name.
type SearchFilter struct {
	query string
}

func NewSearchFilter(query string) *SearchFilter {
	return &SearchFilter{query: strings.ToLower(query)}
}

func (f *SearchFilter) Name() string {
	return "search"
}

func (f *SearchFilter) Apply(activity models.Activity) (bool, string, error) {
	if f.query == "" {
		return true, "no search query", nil
	}

	fields := []struct {
		name  string
		value string
	}{
		{"title", activity.Title},
		{"description", activity.Description},
		{"location", activity.Location},
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field.value), f.query) {
			return true, fmt.Sprintf("%s matches %q", field.name, f.query), nil
		}
	}

	return false, fmt.Sprintf("no match for %q", f.query), nil
}
