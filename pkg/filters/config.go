package filters

import (
	"net/url"
	"strings"

	"github.com/bcnelson/spark/pkg/models"
)

func ParseDistanceBucket(s string) (DistanceBucket, error) {
	switch DistanceBucket(s) {
	case "", DistanceAll:
		return DistanceAll, nil
	case DistanceNearby, DistanceWalking, DistanceTransit:
		return DistanceBucket(s), nil
	}
	return "", models.Invalid("unknown distance filter: %q", s)
}

func ParseDurationBucket(s string) (DurationBucket, error) {
	switch DurationBucket(s) {
	case "", DurationAll:
		return DurationAll, nil
	case DurationShort, DurationMedium, DurationLong:
		return DurationBucket(s), nil
	}
	return "", models.Invalid("unknown duration filter: %q", s)
}

func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusPlanned, StatusInProgress, StatusCompleted:
		return StatusFilter(s), nil
	}
	return "", models.Invalid("unknown status filter: %q", s)
}

// ParseConfig reads q, distance, duration, status and category (repeatable or
// comma separated) from query values.
func ParseConfig(values url.Values) (Config, error) {
	config := DefaultConfig
	config.SearchQuery = values.Get("q")

	var err error
	if config.Distance, err = ParseDistanceBucket(values.Get("distance")); err != nil {
		return Config{}, err
	}
	if config.Duration, err = ParseDurationBucket(values.Get("duration")); err != nil {
		return Config{}, err
	}
	if config.Status, err = ParseStatusFilter(values.Get("status")); err != nil {
		return Config{}, err
	}

	for _, raw := range values["category"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			category, err := models.ParseCategory(part)
			if err != nil {
				return Config{}, err
			}
			config.Categories = append(config.Categories, category)
		}
	}

	return config, nil
}

// FromPreferences seeds a config with the user's selected categories. Selecting
// every category is the same as no restriction.
func FromPreferences(prefs models.UserPreferences) Config {
	config := DefaultConfig
	selected := prefs.SelectedCategories()
	if len(selected) < len(models.Categories) {
		config.Categories = selected
	}
	return config
}

func normalize(config Config) (Config, error) {
	var err error
	if config.Distance, err = ParseDistanceBucket(string(config.Distance)); err != nil {
		return Config{}, err
	}
	if config.Duration, err = ParseDurationBucket(string(config.Duration)); err != nil {
		return Config{}, err
	}
	if config.Status, err = ParseStatusFilter(string(config.Status)); err != nil {
		return Config{}, err
	}
	for _, c := range config.Categories {
		if !c.Valid() {
			return Config{}, models.Invalid("unknown category: %q", c)
		}
	}
	return config, nil
}
