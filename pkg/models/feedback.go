package models

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackKind string

const (
	// FeedbackActivity is given right after finishing an activity.
	FeedbackActivity FeedbackKind = "activity"
	// FeedbackMorning is the next-morning recap.
	FeedbackMorning FeedbackKind = "morning"
)

func ParseFeedbackKind(s string) (FeedbackKind, error) {
	switch FeedbackKind(s) {
	case "":
		return FeedbackActivity, nil
	case FeedbackActivity, FeedbackMorning:
		return FeedbackKind(s), nil
	}
	return "", Invalid("unknown feedback kind: %q", s)
}

type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// ParsePolarity also accepts the "like"/"dislike" wording used by the swipe UI.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "positive", "like":
		return PolarityPositive, nil
	case "negative", "dislike":
		return PolarityNegative, nil
	}
	return "", Invalid("unknown feedback polarity: %q", s)
}

const (
	MinEnjoyment = 1
	MaxEnjoyment = 5

	maxReflectionLength = 2000
)

type Feedback struct {
	ID          string       `db:"id" json:"id"`
	ActivityID  int64        `db:"activity_id" json:"activity_id"`
	Kind        FeedbackKind `db:"kind" json:"kind"`
	Polarity    Polarity     `db:"polarity" json:"polarity"`
	Enjoyment   *int         `db:"enjoyment" json:"enjoyment,omitempty"`
	Reflection  string       `db:"reflection" json:"reflection"`
	Submitted   bool         `db:"submitted" json:"submitted"`
	SubmittedAt time.Time    `db:"submitted_at" json:"submitted_at"`
}

func NewFeedback(activityID int64, kind FeedbackKind, polarity Polarity, enjoyment *int, reflection string, now time.Time) (*Feedback, error) {
	fb := &Feedback{
		ID:          uuid.New().String(),
		ActivityID:  activityID,
		Kind:        kind,
		Polarity:    polarity,
		Enjoyment:   enjoyment,
		Reflection:  reflection,
		Submitted:   true,
		SubmittedAt: now,
	}
	if err := fb.Validate(); err != nil {
		return nil, err
	}
	return fb, nil
}

func (f *Feedback) Validate() error {
	if f.ActivityID <= 0 {
		return Invalid("activity id is required")
	}
	if f.Kind != FeedbackActivity && f.Kind != FeedbackMorning {
		return Invalid("unknown feedback kind: %q", f.Kind)
	}
	if f.Polarity != PolarityPositive && f.Polarity != PolarityNegative {
		return Invalid("unknown feedback polarity: %q", f.Polarity)
	}
	if f.Enjoyment != nil {
		if f.Kind == FeedbackMorning {
			return Invalid("enjoyment rating is only accepted for activity feedback")
		}
		if *f.Enjoyment < MinEnjoyment || *f.Enjoyment > MaxEnjoyment {
			return Invalid("enjoyment must be between %d and %d, got %d", MinEnjoyment, MaxEnjoyment, *f.Enjoyment)
		}
	}
	if len(f.Reflection) > maxReflectionLength {
		return Invalid("reflection must not exceed %d characters", maxReflectionLength)
	}
	return nil
}
