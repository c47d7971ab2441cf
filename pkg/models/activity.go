package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Category is one of the fixed activity categories, stored by label.
type Category string

const (
	CategoryMicroEscape  Category = "Micro-escape"
	CategoryBodyReboot   Category = "Body reboot"
	CategoryCityLens     Category = "City-lens"
	CategoryCraftBurst   Category = "Craft burst"
	CategoryLearningBite Category = "Learning bite"
)

// Categories lists the closed category set in catalog order.
var Categories = []Category{
	CategoryMicroEscape,
	CategoryBodyReboot,
	CategoryCityLens,
	CategoryCraftBurst,
	CategoryLearningBite,
}

// ID returns the catalog id for the category, e.g. "body-reboot".
func (c Category) ID() string {
	return strings.ReplaceAll(strings.ToLower(string(c)), " ", "-")
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts either a label ("City-lens") or a catalog id
// ("city-lens"), ignoring case and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if needle == strings.ToLower(string(c)) || needle == c.ID() {
			return c, nil
		}
	}
	return "", Invalid("unknown category: %q", s)
}

// SwipeStatus records the user's swipe decision on an activity.
type SwipeStatus string

const (
	SwipeUnswiped SwipeStatus = "unswiped"
	SwipeLiked    SwipeStatus = "liked"
	SwipeDisliked SwipeStatus = "disliked"
)

func (s SwipeStatus) Valid() bool {
	switch s {
	case SwipeUnswiped, SwipeLiked, SwipeDisliked:
		return true
	}
	return false
}

// ActivityStatus tracks progress of a liked activity. Empty until liked.
type ActivityStatus string

const (
	StatusNone       ActivityStatus = ""
	StatusPlanned    ActivityStatus = "planned"
	StatusInProgress ActivityStatus = "in-progress"
	StatusCompleted  ActivityStatus = "completed"
)

func ParseActivityStatus(s string) (ActivityStatus, error) {
	switch ActivityStatus(s) {
	case StatusPlanned, StatusInProgress, StatusCompleted:
		return ActivityStatus(s), nil
	}
	return StatusNone, Invalid("unknown activity status: %q", s)
}

// LifecycleState is the explicit lifecycle position of an activity, combining
// the swipe status and the status columns.
type LifecycleState string

const (
	StateUnswiped   LifecycleState = "unswiped"
	StateDisliked   LifecycleState = "disliked"
	StatePlanned    LifecycleState = "planned"
	StateInProgress LifecycleState = "in-progress"
	StateCompleted  LifecycleState = "completed"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinates) Validate() error {
	if err := validateCoordinates(c.Lat, c.Lng); err != nil {
		return Invalid("%v", err)
	}
	return nil
}

type Activity struct {
	ID          int64          `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Category    Category       `db:"category" json:"category"`
	Description string         `db:"description" json:"description"`
	Image       string         `db:"image" json:"image"`
	Location    string         `db:"location" json:"location"`
	Address     string         `db:"address" json:"address"`
	Coordinates *Coordinates   `json:"coordinates"`
	Distance    float64        `db:"distance" json:"distance"`
	Duration    string         `db:"duration" json:"duration"`
	Why         string         `db:"why" json:"why"`
	SwipeStatus SwipeStatus    `db:"swipe_status" json:"swipe_status"`
	Status      ActivityStatus `db:"status" json:"status,omitempty"`
	IsGenerated bool           `db:"is_generated" json:"is_generated"`
	GeneratedAt *time.Time     `db:"generated_at" json:"generated_at,omitempty"`
	SelectedAt  *time.Time     `db:"selected_at" json:"selected_at,omitempty"`
	SwipedAt    *time.Time     `db:"swiped_at" json:"swiped_at,omitempty"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
	Tasks       []Task         `json:"tasks"`
}

// State derives the lifecycle position. A liked activity without a status is
// treated as planned.
func (a *Activity) State() LifecycleState {
	switch a.SwipeStatus {
	case SwipeDisliked:
		return StateDisliked
	case SwipeLiked:
		switch a.Status {
		case StatusInProgress:
			return StateInProgress
		case StatusCompleted:
			return StateCompleted
		default:
			return StatePlanned
		}
	default:
		return StateUnswiped
	}
}

func (a *Activity) HasDirections() bool {
	return a.Coordinates != nil
}

func (a *Activity) IsAtHome() bool {
	return a.Distance == 0
}

// DurationMinutes parses the leading integer token of Duration ("45 min" -> 45).
func (a *Activity) DurationMinutes() (int, error) {
	return ParseDurationMinutes(a.Duration)
}

func ParseDurationMinutes(duration string) (int, error) {
	s := strings.TrimSpace(duration)
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0, Invalid("malformed duration %q: no leading minute count", duration)
	}
	minutes, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, Invalid("malformed duration %q: %v", duration, err)
	}
	return minutes, nil
}

// Like records a right swipe. It reports whether anything changed; liking an
// already liked activity is a no-op. A previously disliked activity is
// re-opened as planned.
func (a *Activity) Like(now time.Time) bool {
	if a.SwipeStatus == SwipeLiked {
		return false
	}
	a.SwipeStatus = SwipeLiked
	a.Status = StatusPlanned
	a.SelectedAt = &now
	a.SwipedAt = &now
	a.CompletedAt = nil
	a.UpdatedAt = now
	return true
}

// Dislike records a left swipe. Switching from liked retracts the planned
// assignment along with any progress made on it.
func (a *Activity) Dislike(now time.Time) bool {
	if a.SwipeStatus == SwipeDisliked {
		return false
	}
	a.SwipeStatus = SwipeDisliked
	a.Status = StatusNone
	a.SelectedAt = nil
	a.CompletedAt = nil
	a.SwipedAt = &now
	a.UpdatedAt = now
	return true
}

func (a *Activity) Swipe(liked bool, now time.Time) bool {
	if liked {
		return a.Like(now)
	}
	return a.Dislike(now)
}

func (a *Activity) Start(now time.Time) (bool, error) {
	switch a.State() {
	case StateInProgress:
		return false, nil
	case StatePlanned:
		a.Status = StatusInProgress
		a.UpdatedAt = now
		return true, nil
	default:
		return false, a.transitionError(StatusInProgress)
	}
}

// Complete marks the activity completed. The first completion wins: a second
// call leaves CompletedAt untouched.
func (a *Activity) Complete(now time.Time) (bool, error) {
	switch a.State() {
	case StateCompleted:
		return false, nil
	case StatePlanned, StateInProgress:
		a.Status = StatusCompleted
		a.CompletedAt = &now
		a.UpdatedAt = now
		return true, nil
	default:
		return false, a.transitionError(StatusCompleted)
	}
}

// Transition applies a target status through Start or Complete. Planned is
// only reachable by liking.
func (a *Activity) Transition(status ActivityStatus, now time.Time) (bool, error) {
	switch status {
	case StatusInProgress:
		return a.Start(now)
	case StatusCompleted:
		return a.Complete(now)
	case StatusPlanned:
		if a.State() == StatePlanned {
			return false, nil
		}
		return false, a.transitionError(StatusPlanned)
	default:
		return false, Invalid("unknown activity status: %q", status)
	}
}

func (a *Activity) transitionError(target ActivityStatus) error {
	return NewError(KindInvalidTransition, "cannot move activity %d from %s to %s", a.ID, a.State(), target)
}

func (a *Activity) Validate() error {
	if err := validateTitle(a.Title); err != nil {
		return Invalid("%v", err)
	}
	if !a.Category.Valid() {
		return Invalid("unknown category: %q", a.Category)
	}
	if a.Distance < 0 {
		return Invalid("distance cannot be negative")
	}
	if a.Coordinates != nil {
		if err := a.Coordinates.Validate(); err != nil {
			return err
		}
	}
	if !a.SwipeStatus.Valid() {
		return Invalid("invalid swipe status: %q", a.SwipeStatus)
	}
	if a.Status != StatusNone {
		if _, err := ParseActivityStatus(string(a.Status)); err != nil {
			return err
		}
		if a.SwipeStatus != SwipeLiked {
			return Invalid("status %q requires a liked activity", a.Status)
		}
	}
	if (a.CompletedAt != nil) != (a.Status == StatusCompleted) {
		return Invalid("completed_at must be set exactly when status is completed")
	}
	return validateTasks(a.Tasks)
}

func validateTitle(title string) error {
	if len(strings.TrimSpace(title)) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(title) > 200 {
		return fmt.Errorf("title must not exceed 200 characters")
	}
	return nil
}
