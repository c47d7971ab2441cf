package generator

import (
	"fmt"
	"strings"

	"github.com/bcnelson/spark/pkg/models"
)

const systemPrompt = `You suggest short, spontaneous activities a person can start right now.
Respond with a single JSON object of the form {"activities": [...]} and nothing else.
Each activity has: title, category, description, location, address,
coordinates {lat, lng}, distance (kilometres from the user, 0 for at-home),
duration (minutes, e.g. "45 min"), why (one sentence on why it fits), and
tasks (three to five short checklist steps).`

// buildPrompt renders the user message for a generation request.
func buildPrompt(req Request) string {
	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = "anywhere"
	}

	return fmt.Sprintf(`Generate %d fun and engaging activity recommendations based on the following criteria:
- Energy Level: %d/100
- Location: %s
- Category: one of %s`, req.Count, req.EnergyLevel, location, strings.Join(categoryLabels(), ", "))
}

func categoryLabels() []string {
	labels := make([]string, 0, len(models.Categories))
	for _, c := range models.Categories {
		labels = append(labels, string(c))
	}
	return labels
}
