package filters

import (
	"github.com/bcnelson/spark/pkg/models"
)

// Rule is a single predicate over an activity. A rule that cannot evaluate an
// activity returns an error instead of guessing.
type Rule interface {
	Apply(activity models.Activity) (visible bool, reason string, err error)
	Name() string
}

type DistanceBucket string

const (
	DistanceAll     DistanceBucket = "all"
	DistanceNearby  DistanceBucket = "nearby"
	DistanceWalking DistanceBucket = "walking"
	DistanceTransit DistanceBucket = "transit"
)

// Ceiling returns the maximum distance in km for the bucket; ok is false for
// DistanceAll.
func (b DistanceBucket) Ceiling() (km float64, ok bool) {
	switch b {
	case DistanceNearby:
		return 1, true
	case DistanceWalking:
		return 2, true
	case DistanceTransit:
		return 5, true
	}
	return 0, false
}

type DurationBucket string

const (
	DurationAll    DurationBucket = "all"
	DurationShort  DurationBucket = "short"
	DurationMedium DurationBucket = "medium"
	DurationLong   DurationBucket = "long"
)

const (
	shortMaxMinutes  = 30
	mediumMaxMinutes = 60
)

// Contains reports whether a minute count falls in the bucket:
// short <= 30 < medium <= 60 < long.
func (b DurationBucket) Contains(minutes int) bool {
	switch b {
	case DurationShort:
		return minutes <= shortMaxMinutes
	case DurationMedium:
		return minutes > shortMaxMinutes && minutes <= mediumMaxMinutes
	case DurationLong:
		return minutes > mediumMaxMinutes
	}
	return true
}

type StatusFilter string

const (
	StatusAll        StatusFilter = "all"
	StatusPlanned    StatusFilter = StatusFilter(models.StatusPlanned)
	StatusInProgress StatusFilter = StatusFilter(models.StatusInProgress)
	StatusCompleted  StatusFilter = StatusFilter(models.StatusCompleted)
)

// Config is the full filter selection of a view. The zero value, like
// DefaultConfig, includes everything.
type Config struct {
	SearchQuery string            `json:"search_query"`
	Distance    DistanceBucket    `json:"distance"`
	Categories  []models.Category `json:"categories"`
	Duration    DurationBucket    `json:"duration"`
	Status      StatusFilter      `json:"status"`
}

var DefaultConfig = Config{
	Distance: DistanceAll,
	Duration: DurationAll,
	Status:   StatusAll,
}

type Result struct {
	ActivityID int64  `json:"activity_id"`
	Visible    bool   `json:"visible"`
	Reason     string `json:"reason"`
	FilterName string `json:"filter_name"`
}

type Explanation struct {
	ActivityID    int64             `json:"activity_id"`
	ActivityTitle string            `json:"activity_title"`
	IsVisible     bool              `json:"is_visible"`
	Error         string            `json:"error,omitempty"`
	FilterResults []RuleExplanation `json:"filter_results"`
}

type RuleExplanation struct {
	FilterName string `json:"filter_name"`
	Passed     bool   `json:"passed"`
	Reason     string `json:"reason"`
}
