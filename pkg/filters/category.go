package filters

import (
	"fmt"

	"github.com/bcnelson/spark/pkg/models"
)

type CategoryFilter struct {
	allowed map[models.Category]bool
}

func NewCategoryFilter(categories []models.Category) *CategoryFilter {
	allowed := make(map[models.Category]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}
	return &CategoryFilter{allowed: allowed}
}

func (f *CategoryFilter) Name() string {
	return "category"
}

func (f *CategoryFilter) Apply(activity models.Activity) (bool, string, error) {
	if len(f.allowed) == 0 {
		return true, "no category restriction", nil
	}
	if f.allowed[activity.Category] {
		return true, fmt.Sprintf("category %s selected", activity.Category), nil
	}
	return false, fmt.Sprintf("category %s not selected", activity.Category), nil
}
