package filters

import (
	"fmt"

	"github.com/bcnelson/spark/pkg/models"
)

type DistanceFilter struct {
	bucket DistanceBucket
}

func NewDistanceFilter(bucket DistanceBucket) *DistanceFilter {
	return &DistanceFilter{bucket: bucket}
}

func (f *DistanceFilter) Name() string {
	return "distance"
}

func (f *DistanceFilter) Apply(activity models.Activity) (bool, string, error) {
	ceiling, limited := f.bucket.Ceiling()
	if !limited {
		return true, "no distance limit", nil
	}

	if activity.IsAtHome() {
		return true, "at-home activity", nil
	}

	if activity.Distance <= ceiling {
		return true, fmt.Sprintf("%.1f km is within %s range (%.0f km)", activity.Distance, f.bucket, ceiling), nil
	}

	return false, fmt.Sprintf("%.1f km exceeds %s range (%.0f km)", activity.Distance, f.bucket, ceiling), nil
}
