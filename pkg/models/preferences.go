package models

import (
	"time"
)

type Interest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var Interests = []Interest{
	{ID: "arts", Name: "Arts & Culture"},
	{ID: "fitness", Name: "Fitness & Sports"},
	{ID: "reading", Name: "Reading & Writing"},
	{ID: "photography", Name: "Photography"},
	{ID: "music", Name: "Music & Concerts"},
	{ID: "cafes", Name: "Cafes & Tea Houses"},
	{ID: "food", Name: "Food & Cuisine"},
	{ID: "outdoors", Name: "Outdoors & Nature"},
	{ID: "exploration", Name: "Urban Exploration"},
	{ID: "wellness", Name: "Wellness & Mindfulness"},
	{ID: "gaming", Name: "Gaming & Entertainment"},
	{ID: "crafts", Name: "Crafts & DIY"},
	{ID: "cycling", Name: "Cycling & Biking"},
}

const (
	MaxPreferredDistanceKm = 50.0
	MaxEnergy              = 100
)

type UserPreferences struct {
	MaxDistance             float64   `db:"max_distance" json:"max_distance"`
	EnergyPreference        int       `db:"energy_preference" json:"energy_preference"`
	TimePreference          int       `db:"time_preference" json:"time_preference"`
	NotificationsEnabled    bool      `db:"notifications_enabled" json:"notifications_enabled"`
	LocationTrackingEnabled bool      `db:"location_tracking_enabled" json:"location_tracking_enabled"`
	Interests               []string  `db:"interests" json:"interests"`
	Categories              []string  `db:"categories" json:"categories"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

func DefaultPreferences() UserPreferences {
	categories := make([]string, 0, len(Categories))
	for _, c := range Categories {
		categories = append(categories, c.ID())
	}
	return UserPreferences{
		MaxDistance:             5,
		EnergyPreference:        50,
		TimePreference:          45,
		NotificationsEnabled:    true,
		LocationTrackingEnabled: true,
		Interests:               []string{},
		Categories:              categories,
	}
}

// PreferencesUpdate carries a partial update; nil fields are left unchanged.
type PreferencesUpdate struct {
	MaxDistance             *float64  `json:"max_distance"`
	EnergyPreference        *int      `json:"energy_preference"`
	TimePreference          *int      `json:"time_preference"`
	NotificationsEnabled    *bool     `json:"notifications_enabled"`
	LocationTrackingEnabled *bool     `json:"location_tracking_enabled"`
	Interests               *[]string `json:"interests"`
	Categories              *[]string `json:"categories"`
}

func (p UserPreferences) Apply(u PreferencesUpdate) UserPreferences {
	if u.MaxDistance != nil {
		p.MaxDistance = *u.MaxDistance
	}
	if u.EnergyPreference != nil {
		p.EnergyPreference = *u.EnergyPreference
	}
	if u.TimePreference != nil {
		p.TimePreference = *u.TimePreference
	}
	if u.NotificationsEnabled != nil {
		p.NotificationsEnabled = *u.NotificationsEnabled
	}
	if u.LocationTrackingEnabled != nil {
		p.LocationTrackingEnabled = *u.LocationTrackingEnabled
	}
	if u.Interests != nil {
		p.Interests = dedupe(*u.Interests)
	}
	if u.Categories != nil {
		p.Categories = dedupe(*u.Categories)
	}
	return p
}

func (p UserPreferences) Validate() error {
	if p.MaxDistance < 0 || p.MaxDistance > MaxPreferredDistanceKm {
		return Invalid("max distance must be between 0 and %.0f km", MaxPreferredDistanceKm)
	}
	if p.EnergyPreference < 0 || p.EnergyPreference > MaxEnergy {
		return Invalid("energy preference must be between 0 and %d", MaxEnergy)
	}
	if p.TimePreference <= 0 {
		return Invalid("time preference must be positive")
	}
	for _, id := range p.Interests {
		if !isInterestID(id) {
			return Invalid("unknown interest: %q", id)
		}
	}
	for _, id := range p.Categories {
		if _, err := ParseCategory(id); err != nil {
			return err
		}
	}
	return nil
}

// SelectedCategories resolves the stored category ids to labels.
func (p UserPreferences) SelectedCategories() []Category {
	selected := make([]Category, 0, len(p.Categories))
	for _, id := range p.Categories {
		if c, err := ParseCategory(id); err == nil {
			selected = append(selected, c)
		}
	}
	return selected
}

type UserStats struct {
	ActivitiesCompleted int    `json:"activities_completed"`
	Planned             int    `json:"planned"`
	InProgress          int    `json:"in_progress"`
	Liked               int    `json:"liked"`
	Disliked            int    `json:"disliked"`
	FavoriteCategory    string `json:"favorite_category"`
	TotalMinutes        int    `json:"total_minutes"`
}

func isInterestID(id string) bool {
	for _, interest := range Interests {
		if interest.ID == id {
			return true
		}
	}
	return false
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
