package filters

import (
	"fmt"

	"github.com/bcnelson/spark/pkg/models"
)

type DurationFilter struct {
	bucket DurationBucket
}

func NewDurationFilter(bucket DurationBucket) *DurationFilter {
	return &DurationFilter{bucket: bucket}
}

func (f *DurationFilter) Name() string {
	return "duration"
}

// Apply only parses the duration when a bucket is selected, so malformed
// durations are harmless under DurationAll.
func (f *DurationFilter) Apply(activity models.Activity) (bool, string, error) {
	if f.bucket == DurationAll || f.bucket == "" {
		return true, "no duration limit", nil
	}

	minutes, err := activity.DurationMinutes()
	if err != nil {
		return false, "", fmt.Errorf("activity %d: %w", activity.ID, err)
	}

	if f.bucket.Contains(minutes) {
		return true, fmt.Sprintf("%d min is %s", minutes, f.bucket), nil
	}
	return false, fmt.Sprintf("%d min is not %s", minutes, f.bucket), nil
}
