package filters

import (
	"fmt"

	"github.com/bcnelson/spark/pkg/models"
)

type StatusRule struct {
	status StatusFilter
}

func NewStatusRule(status StatusFilter) *StatusRule {
	return &StatusRule{status: status}
}

func (f *StatusRule) Name() string {
	return "status"
}

func (f *StatusRule) Apply(activity models.Activity) (bool, string, error) {
	if f.status == StatusAll || f.status == "" {
		return true, "any status", nil
	}
	if activity.Status == models.ActivityStatus(f.status) {
		return true, fmt.Sprintf("status is %s", f.status), nil
	}
	return false, fmt.Sprintf("status %q is not %s", activity.Status, f.status), nil
}
