package generator

import (
	"context"
	"sync"

	"github.com/bcnelson/spark/pkg/models"
)

// StaticGenerator serves a fixed candidate list. It backs offline development
// and tests.
type StaticGenerator struct {
	Candidates []Candidate
	Err        error

	mu    sync.Mutex
	calls int
}

func NewStaticGenerator(candidates ...Candidate) *StaticGenerator {
	if len(candidates) == 0 {
		candidates = defaultCandidates()
	}
	return &StaticGenerator{Candidates: candidates}
}

func (g *StaticGenerator) Generate(ctx context.Context, req Request) ([]Candidate, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	if g.Err != nil {
		return nil, g.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Candidate, len(g.Candidates))
	copy(out, g.Candidates)
	return out, nil
}

// Calls reports how many times Generate has been invoked.
func (g *StaticGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func defaultCandidates() []Candidate {
	activities := []models.Activity{
		{
			Title:       "Ten-minute stair sprint",
			Category:    models.CategoryBodyReboot,
			Description: "Find the nearest public staircase and run it five times.",
			Location:    "Nearest stairwell",
			Address:     "Wherever you are",
			Distance:    0,
			Duration:    "10 min",
			Why:         "A short burst resets your energy fast.",
			Tasks:       models.NewTasks([]string{"Put on trainers", "Warm up for two minutes", "Run five flights"}),
		},
		{
			Title:       "Window-light portrait",
			Category:    models.CategoryCraftBurst,
			Description: "Take a single portrait using only window light.",
			Location:    "Home",
			Address:     "Home",
			Distance:    0,
			Duration:    "20 min",
			Why:         "Constraints make a small creative win likely.",
			Tasks:       models.NewTasks([]string{"Pick a window", "Choose a subject", "Shoot ten frames"}),
		},
		{
			Title:       "Corner cafe people-watching",
			Category:    models.CategoryCityLens,
			Description: "Sit by the window of a cafe you have never tried and sketch the street.",
			Location:    "Corner cafe",
			Address:     "Nearest high street",
			Coordinates: &models.Coordinates{Lat: 51.5074, Lng: -0.1278},
			Distance:    0.7,
			Duration:    "45 min",
			Why:         "New places sharpen attention.",
			Tasks:       models.NewTasks([]string{"Walk to the cafe", "Order something new", "Sketch one scene"}),
		},
		{
			Title:       "Park loop without a phone",
			Category:    models.CategoryMicroEscape,
			Description: "Leave the phone at home and walk one loop of the closest park.",
			Location:    "Closest park",
			Address:     "Local park entrance",
			Coordinates: &models.Coordinates{Lat: 51.5033, Lng: -0.1196},
			Distance:    1.8,
			Duration:    "35 min",
			Why:         "A screen-free walk is the quickest way out of your head.",
			Tasks:       models.NewTasks([]string{"Leave the phone", "Walk the loop", "Note one new thing"}),
		},
		{
			Title:       "Library shelf roulette",
			Category:    models.CategoryLearningBite,
			Description: "Pick a random shelf at the library and read the first chapter of whatever you land on.",
			Location:    "Public library",
			Address:     "Library on the main road",
			Coordinates: &models.Coordinates{Lat: 51.5290, Lng: -0.1270},
			Distance:    3.2,
			Duration:    "75 min",
			Why:         "Random input breaks routine thinking.",
			Tasks:       models.NewTasks([]string{"Walk to the library", "Pick a random shelf", "Read one chapter"}),
		},
	}

	candidates := make([]Candidate, 0, len(activities))
	for _, a := range activities {
		candidates = append(candidates, CandidateFrom(a))
	}
	return candidates
}
