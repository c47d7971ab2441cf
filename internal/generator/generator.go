// Package generator produces activity candidates from a language model and
// screens them before they reach the store.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/bcnelson/spark/pkg/models"
)

// DefaultBatchSize is how many candidates a request asks for when Count is unset.
const DefaultBatchSize = 5

type Request struct {
	EnergyLevel int
	Location    string
	Count       int
}

// Generator produces raw candidates for a request. Implementations make a
// single attempt; callers decide what a failure means.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Candidate, error)
}

// Coordinates mirrors models.Coordinates with optional members.
type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Candidate is an activity as returned by the model. Every field is optional
// so that missing values can be told apart from zero values.
type Candidate struct {
	Title       *string      `json:"title"`
	Category    *string      `json:"category"`
	Description *string      `json:"description"`
	Location    *string      `json:"location"`
	Address     *string      `json:"address"`
	Coordinates *Coordinates `json:"coordinates"`
	Distance    *float64     `json:"distance"`
	Duration    *string      `json:"duration"`
	Why         *string      `json:"why"`
	Tasks       []string     `json:"tasks"`

	// Malformed holds the decode error of an item that did not fit the schema.
	Malformed string `json:"-"`
}

// Verdict is the outcome of screening one candidate. Exactly one of Activity
// and Reason is set.
type Verdict struct {
	Activity *models.Activity
	Reason   string
}

func (v Verdict) Accepted() bool {
	return v.Activity != nil
}

func reject(format string, args ...interface{}) Verdict {
	return Verdict{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a candidate against the activity schema and converts it.
// The returned activity is unswiped and has no ID.
func Validate(c Candidate) Verdict {
	if c.Malformed != "" {
		return reject("malformed item: %s", c.Malformed)
	}

	required := []struct {
		name  string
		value *string
	}{
		{"title", c.Title},
		{"category", c.Category},
		{"description", c.Description},
		{"location", c.Location},
		{"address", c.Address},
		{"duration", c.Duration},
		{"why", c.Why},
	}
	for _, field := range required {
		if field.value == nil || strings.TrimSpace(*field.value) == "" {
			return reject("missing %s", field.name)
		}
	}
	if c.Distance == nil {
		return reject("missing distance")
	}
	if *c.Distance < 0 {
		return reject("negative distance %.2f", *c.Distance)
	}

	category, err := models.ParseCategory(*c.Category)
	if err != nil {
		return reject("unknown category %q", *c.Category)
	}
	if _, err := models.ParseDurationMinutes(*c.Duration); err != nil {
		return reject("malformed duration %q", *c.Duration)
	}

	activity := &models.Activity{
		Title:       strings.TrimSpace(*c.Title),
		Category:    category,
		Description: *c.Description,
		Location:    *c.Location,
		Address:     *c.Address,
		Distance:    *c.Distance,
		Duration:    strings.TrimSpace(*c.Duration),
		Why:         *c.Why,
		SwipeStatus: models.SwipeUnswiped,
		Tasks:       models.NewTasks(c.Tasks),
	}

	if c.Coordinates != nil {
		if c.Coordinates.Lat == nil || c.Coordinates.Lng == nil {
			return reject("incomplete coordinates")
		}
		activity.Coordinates = &models.Coordinates{Lat: *c.Coordinates.Lat, Lng: *c.Coordinates.Lng}
	}

	if err := activity.Validate(); err != nil {
		return reject("%v", err)
	}
	return Verdict{Activity: activity}
}

// CandidateFrom renders an activity as a fully populated candidate.
func CandidateFrom(a models.Activity) Candidate {
	c := Candidate{
		Title:       ptr(a.Title),
		Category:    ptr(string(a.Category)),
		Description: ptr(a.Description),
		Location:    ptr(a.Location),
		Address:     ptr(a.Address),
		Distance:    ptr(a.Distance),
		Duration:    ptr(a.Duration),
		Why:         ptr(a.Why),
	}
	if a.Coordinates != nil {
		c.Coordinates = &Coordinates{Lat: ptr(a.Coordinates.Lat), Lng: ptr(a.Coordinates.Lng)}
	}
	for _, task := range a.Tasks {
		c.Tasks = append(c.Tasks, task.Text)
	}
	return c
}

func ptr[T any](v T) *T {
	return &v
}
