package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bcnelson/spark/internal/storage"
	"github.com/bcnelson/spark/pkg/filters"
	"github.com/bcnelson/spark/pkg/models"
	"golang.org/x/term"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
)

type Formatter interface {
	FormatActivities(activities []models.Activity) string
	FormatActivity(activity models.Activity) string
	FormatExplanation(explanation filters.Explanation) string
	FormatFeedback(feedback models.Feedback) string
	FormatPreferences(prefs models.UserPreferences) string
	FormatStats(stats models.UserStats) string
	FormatMigrations(statuses []storage.MigrationStatus) string
	FormatError(err error) string
	FormatSuccess(message string) string
	FormatInfo(message string) string
}

func NewFormatter(format string) Formatter {
	switch format {
	case "json":
		return &JSONFormatter{}
	case "table":
		return &TableFormatter{}
	default:
		return &HumanFormatter{color: useColor(os.Stdout)}
	}
}

// useColor reports whether ANSI colors should be written to f.
func useColor(f *os.File) bool {
	if globalConfig.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// JSON Formatter
type JSONFormatter struct{}

func (f *JSONFormatter) marshal(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return f.FormatError(err)
	}
	return string(data) + "\n"
}

func (f *JSONFormatter) FormatActivities(activities []models.Activity) string {
	if activities == nil {
		activities = []models.Activity{}
	}
	return f.marshal(activities)
}

func (f *JSONFormatter) FormatActivity(activity models.Activity) string {
	return f.marshal(activity)
}

func (f *JSONFormatter) FormatExplanation(explanation filters.Explanation) string {
	return f.marshal(explanation)
}

func (f *JSONFormatter) FormatFeedback(feedback models.Feedback) string {
	return f.marshal(feedback)
}

func (f *JSONFormatter) FormatPreferences(prefs models.UserPreferences) string {
	return f.marshal(prefs)
}

func (f *JSONFormatter) FormatStats(stats models.UserStats) string {
	return f.marshal(stats)
}

func (f *JSONFormatter) FormatMigrations(statuses []storage.MigrationStatus) string {
	return f.marshal(statuses)
}

func (f *JSONFormatter) FormatError(err error) string {
	result := map[string]interface{}{
		"error": err.Error(),
		"type":  "error",
	}
	if kind := models.KindOf(err); kind != "" {
		result["code"] = kind
	}
	data, _ := json.MarshalIndent(result, "", "  ")
	return string(data) + "\n"
}

func (f *JSONFormatter) FormatSuccess(message string) string {
	data, _ := json.MarshalIndent(map[string]string{"message": message, "type": "success"}, "", "  ")
	return string(data) + "\n"
}

func (f *JSONFormatter) FormatInfo(message string) string {
	data, _ := json.MarshalIndent(map[string]string{"message": message, "type": "info"}, "", "  ")
	return string(data) + "\n"
}

// Table Formatter
type TableFormatter struct{}

func (f *TableFormatter) table(write func(w io.Writer)) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	write(w)
	w.Flush()
	return sb.String()
}

func (f *TableFormatter) FormatActivities(activities []models.Activity) string {
	if len(activities) == 0 {
		return "No activities found.\n"
	}

	return f.table(func(w io.Writer) {
		fmt.Fprintf(w, "ID\tTitle\tCategory\tState\tDistance\tDuration\tTasks\n")
		fmt.Fprintf(w, "--\t-----\t--------\t-----\t--------\t--------\t-----\n")
		for i := range activities {
			a := &activities[i]
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f km\t%s\t%d/%d\n",
				a.ID, truncateString(a.Title, 30), a.Category, a.State(),
				a.Distance, a.Duration, a.CompletedTaskCount(), len(a.Tasks))
		}
	})
}

func (f *TableFormatter) FormatActivity(a models.Activity) string {
	return f.table(func(w io.Writer) {
		fmt.Fprintf(w, "Field\tValue\n")
		fmt.Fprintf(w, "-----\t-----\n")
		fmt.Fprintf(w, "ID\t%d\n", a.ID)
		fmt.Fprintf(w, "Title\t%s\n", a.Title)
		fmt.Fprintf(w, "Category\t%s\n", a.Category)
		fmt.Fprintf(w, "State\t%s\n", a.State())
		fmt.Fprintf(w, "Location\t%s\n", a.Location)
		fmt.Fprintf(w, "Address\t%s\n", a.Address)
		fmt.Fprintf(w, "Distance\t%.1f km\n", a.Distance)
		fmt.Fprintf(w, "Duration\t%s\n", a.Duration)
		for _, task := range a.Tasks {
			fmt.Fprintf(w, "Task %d\t%s\t%s\n", task.ID, checkbox(task.Completed), task.Text)
		}
		if a.CompletedAt != nil {
			fmt.Fprintf(w, "Completed\t%s\n", a.CompletedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(w, "Created\t%s\n", a.CreatedAt.Format("2006-01-02 15:04"))
	})
}

func (f *TableFormatter) FormatExplanation(explanation filters.Explanation) string {
	return f.table(func(w io.Writer) {
		fmt.Fprintf(w, "Filter\tPassed\tReason\n")
		fmt.Fprintf(w, "------\t------\t------\n")
		for _, r := range explanation.FilterResults {
			fmt.Fprintf(w, "%s\t%t\t%s\n", r.FilterName, r.Passed, r.Reason)
		}
		fmt.Fprintf(w, "visible\t%t\t%s\n", explanation.IsVisible, explanation.Error)
	})
}

func (f *TableFormatter) FormatFeedback(fb models.Feedback) string {
	return f.table(func(w io.Writer) {
		fmt.Fprintf(w, "Activity\tKind\tPolarity\tEnjoyment\tReflection\n")
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", fb.ActivityID, fb.Kind, fb.Polarity, enjoymentString(fb.Enjoyment), truncateString(fb.Reflection, 40))
	})
}

func (f *TableFormatter) FormatPreferences(p models.UserPreferences) string {
	return f.table(func(w io.Writer) {
		fmt.Fprintf(w, "Setting\tValue\n")
		fmt.Fprintf(w, "-------\t-----\n")
		fmt.Fprintf(w, "max_distance\t%.1f\n", p.MaxDistance)
		fmt.Fprintf(w, "energy\t%d\n", p.EnergyPreference)
		fmt.Fprintf(w, "time\t%d\n", p.TimePreference)
		fmt.Fprintf(w, "notifications\t%t\n", p.NotificationsEnabled)
		fmt.Fprintf(w, "location_tracking\t%t\n", p.LocationTrackingEnabled)
		fmt.Fprintf(w, "interests\t%s\n", strings.Join(p.Interests, ","))
		fmt.Fprintf(w, "categories\t%s\n", strings.Join(p.Categories, ","))
	})
}

func (f *TableFormatter) FormatStats(s models.UserStats) string {
	return f.table(func(w io.Writer) {
		fmt.Fprintf(w, "Metric\tValue\n")
		fmt.Fprintf(w, "------\t-----\n")
		fmt.Fprintf(w, "completed\t%d\n", s.ActivitiesCompleted)
		fmt.Fprintf(w, "planned\t%d\n", s.Planned)
		fmt.Fprintf(w, "in_progress\t%d\n", s.InProgress)
		fmt.Fprintf(w, "liked\t%d\n", s.Liked)
		fmt.Fprintf(w, "disliked\t%d\n", s.Disliked)
		fmt.Fprintf(w, "favorite_category\t%s\n", s.FavoriteCategory)
		fmt.Fprintf(w, "total_minutes\t%d\n", s.TotalMinutes)
	})
}

func (f *TableFormatter) FormatMigrations(statuses []storage.MigrationStatus) string {
	return f.table(func(w io.Writer) {
		fmt.Fprintf(w, "ID\tName\tApplied\n")
		fmt.Fprintf(w, "--\t----\t-------\n")
		for _, s := range statuses {
			applied := "pending"
			if s.AppliedAt != nil {
				applied = s.AppliedAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%03d\t%s\t%s\n", s.ID, s.Name, applied)
		}
	})
}

func (f *TableFormatter) FormatError(err error) string {
	return fmt.Sprintf("ERROR: %s\n", err.Error())
}

func (f *TableFormatter) FormatSuccess(message string) string {
	return fmt.Sprintf("SUCCESS: %s\n", message)
}

func (f *TableFormatter) FormatInfo(message string) string {
	return fmt.Sprintf("INFO: %s\n", message)
}

// Human-Readable Formatter
type HumanFormatter struct {
	color bool
}

func (f *HumanFormatter) FormatActivities(activities []models.Activity) string {
	if len(activities) == 0 {
		return f.colorize(ColorDim, "No activities found.\n")
	}

	var sb strings.Builder
	sb.WriteString(f.colorize(ColorBold, fmt.Sprintf("Found %d activit%s:\n\n", len(activities), plural(len(activities), "y", "ies"))))
	for i := range activities {
		sb.WriteString(f.formatActivitySummary(&activities[i]))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *HumanFormatter) FormatActivity(a models.Activity) string {
	var sb strings.Builder

	sb.WriteString(f.colorize(ColorBold, a.Title))
	sb.WriteString(f.colorize(ColorDim, fmt.Sprintf("  #%d\n", a.ID)))
	sb.WriteString(fmt.Sprintf("%s · %s\n", a.Category, f.stateLabel(a.State())))

	if a.Description != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", a.Description))
	}
	if a.Why != "" {
		sb.WriteString(f.colorize(ColorCyan, fmt.Sprintf("Why: %s\n", a.Why)))
	}

	sb.WriteString(fmt.Sprintf("\nWhere: %s", a.Location))
	if a.Address != "" && a.Address != a.Location {
		sb.WriteString(fmt.Sprintf(" (%s)", a.Address))
	}
	sb.WriteString("\n")
	if a.IsAtHome() {
		sb.WriteString("Distance: at home\n")
	} else {
		sb.WriteString(fmt.Sprintf("Distance: %.1f km\n", a.Distance))
	}
	sb.WriteString(fmt.Sprintf("Duration: %s\n", a.Duration))
	if a.HasDirections() {
		sb.WriteString(f.colorize(ColorDim, fmt.Sprintf("Directions: %.5f, %.5f\n", a.Coordinates.Lat, a.Coordinates.Lng)))
	}

	if len(a.Tasks) > 0 {
		sb.WriteString(fmt.Sprintf("\nSteps (%d/%d):\n", a.CompletedTaskCount(), len(a.Tasks)))
		for _, task := range a.Tasks {
			line := fmt.Sprintf("  %s %d. %s\n", checkbox(task.Completed), task.ID, task.Text)
			if task.Completed {
				line = f.colorize(ColorDim, line)
			}
			sb.WriteString(line)
		}
	}

	if a.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("\nCompleted: %s\n", a.CompletedAt.Local().Format("Monday, January 2, 2006 at 3:04 PM")))
	}
	return sb.String()
}

func (f *HumanFormatter) FormatExplanation(explanation filters.Explanation) string {
	var sb strings.Builder
	sb.WriteString(f.colorize(ColorBold, fmt.Sprintf("Filter check for %q\n\n", explanation.ActivityTitle)))
	for _, r := range explanation.FilterResults {
		mark := f.colorize(ColorGreen, "pass")
		if !r.Passed {
			mark = f.colorize(ColorRed, "hide")
		}
		sb.WriteString(fmt.Sprintf("  %-9s %s  %s\n", r.FilterName, mark, r.Reason))
	}
	if explanation.Error != "" {
		sb.WriteString(f.colorize(ColorRed, fmt.Sprintf("\nError: %s\n", explanation.Error)))
	}
	if explanation.IsVisible {
		sb.WriteString(f.colorize(ColorGreen, "\nVisible with these filters.\n"))
	} else {
		sb.WriteString(f.colorize(ColorYellow, "\nHidden with these filters.\n"))
	}
	return sb.String()
}

func (f *HumanFormatter) FormatFeedback(fb models.Feedback) string {
	var sb strings.Builder
	sb.WriteString(f.colorize(ColorBold, fmt.Sprintf("%s feedback for activity #%d\n", capitalize(string(fb.Kind)), fb.ActivityID)))
	color := ColorGreen
	if fb.Polarity == models.PolarityNegative {
		color = ColorRed
	}
	sb.WriteString(fmt.Sprintf("Polarity: %s\n", f.colorize(color, string(fb.Polarity))))
	if fb.Enjoyment != nil {
		sb.WriteString(fmt.Sprintf("Enjoyment: %s\n", strings.Repeat("★", *fb.Enjoyment)+strings.Repeat("☆", models.MaxEnjoyment-*fb.Enjoyment)))
	}
	if fb.Reflection != "" {
		sb.WriteString(fmt.Sprintf("Reflection: %s\n", fb.Reflection))
	}
	return sb.String()
}

func (f *HumanFormatter) FormatPreferences(p models.UserPreferences) string {
	var sb strings.Builder
	sb.WriteString(f.colorize(ColorBold, "Preferences\n\n"))
	sb.WriteString(fmt.Sprintf("Max distance:      %.1f km\n", p.MaxDistance))
	sb.WriteString(fmt.Sprintf("Energy:            %s\n", f.energyIndicator(p.EnergyPreference)))
	sb.WriteString(fmt.Sprintf("Time available:    %d min\n", p.TimePreference))
	sb.WriteString(fmt.Sprintf("Notifications:     %s\n", onOff(p.NotificationsEnabled)))
	sb.WriteString(fmt.Sprintf("Location tracking: %s\n", onOff(p.LocationTrackingEnabled)))
	if len(p.Interests) > 0 {
		sb.WriteString(fmt.Sprintf("Interests:         %s\n", strings.Join(p.Interests, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Categories:        %s\n", strings.Join(p.Categories, ", ")))
	return sb.String()
}

func (f *HumanFormatter) FormatStats(s models.UserStats) string {
	var sb strings.Builder
	sb.WriteString(f.colorize(ColorBold, "Your Spark so far\n\n"))
	sb.WriteString(fmt.Sprintf("Completed:   %s\n", f.colorize(ColorGreen, fmt.Sprint(s.ActivitiesCompleted))))
	sb.WriteString(fmt.Sprintf("In progress: %d\n", s.InProgress))
	sb.WriteString(fmt.Sprintf("Planned:     %d\n", s.Planned))
	sb.WriteString(fmt.Sprintf("Liked:       %d\n", s.Liked))
	sb.WriteString(fmt.Sprintf("Disliked:    %d\n", s.Disliked))
	sb.WriteString(fmt.Sprintf("Time spent:  %d min\n", s.TotalMinutes))
	if s.FavoriteCategory != "" {
		sb.WriteString(fmt.Sprintf("Favorite:    %s\n", s.FavoriteCategory))
	}
	return sb.String()
}

func (f *HumanFormatter) FormatMigrations(statuses []storage.MigrationStatus) string {
	if len(statuses) == 0 {
		return f.colorize(ColorDim, "No migrations found.\n")
	}

	var sb strings.Builder
	for _, s := range statuses {
		if s.Applied {
			sb.WriteString(f.colorize(ColorGreen, "✓"))
			sb.WriteString(fmt.Sprintf(" %03d %s", s.ID, s.Name))
			if s.AppliedAt != nil {
				sb.WriteString(f.colorize(ColorDim, fmt.Sprintf("  (%s)", s.AppliedAt.Local().Format("2006-01-02 15:04"))))
			}
		} else {
			sb.WriteString(f.colorize(ColorYellow, "○"))
			sb.WriteString(fmt.Sprintf(" %03d %s  pending", s.ID, s.Name))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *HumanFormatter) FormatError(err error) string {
	return f.colorize(ColorRed, fmt.Sprintf("Error: %s\n", err.Error()))
}

func (f *HumanFormatter) FormatSuccess(message string) string {
	return f.colorize(ColorGreen, fmt.Sprintf("✓ %s\n", message))
}

func (f *HumanFormatter) FormatInfo(message string) string {
	return f.colorize(ColorBlue, fmt.Sprintf("%s\n", message))
}

func (f *HumanFormatter) colorize(color, text string) string {
	if !f.color {
		return text
	}
	return color + text + ColorReset
}

func (f *HumanFormatter) formatActivitySummary(a *models.Activity) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("#%d %s", a.ID, f.colorize(ColorBold, a.Title)))
	sb.WriteString(fmt.Sprintf(" %s\n", f.stateLabel(a.State())))
	sb.WriteString(f.colorize(ColorDim, fmt.Sprintf("   %s · %s · %.1f km", a.Category, a.Duration, a.Distance)))
	if len(a.Tasks) > 0 {
		sb.WriteString(f.colorize(ColorDim, fmt.Sprintf(" · %d/%d steps", a.CompletedTaskCount(), len(a.Tasks))))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (f *HumanFormatter) stateLabel(state models.LifecycleState) string {
	switch state {
	case models.StateCompleted:
		return f.colorize(ColorGreen, "[completed]")
	case models.StateInProgress:
		return f.colorize(ColorBlue, "[in progress]")
	case models.StatePlanned:
		return f.colorize(ColorYellow, "[planned]")
	case models.StateDisliked:
		return f.colorize(ColorRed, "[disliked]")
	}
	return f.colorize(ColorDim, "[new]")
}

func (f *HumanFormatter) energyIndicator(level int) string {
	filled := level / 10
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
	return fmt.Sprintf("%s %d/100", f.colorize(ColorYellow, bar), level)
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func enjoymentString(enjoyment *int) string {
	if enjoyment == nil {
		return "-"
	}
	return fmt.Sprintf("%d/%d", *enjoyment, models.MaxEnjoyment)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Output writes data to stdout using the formatter; errors go to stderr.
func Output(formatter Formatter, data interface{}) {
	var output string

	switch v := data.(type) {
	case []models.Activity:
		output = formatter.FormatActivities(v)
	case models.Activity:
		output = formatter.FormatActivity(v)
	case *models.Activity:
		output = formatter.FormatActivity(*v)
	case *filters.Explanation:
		output = formatter.FormatExplanation(*v)
	case *models.Feedback:
		output = formatter.FormatFeedback(*v)
	case models.UserPreferences:
		output = formatter.FormatPreferences(v)
	case models.UserStats:
		output = formatter.FormatStats(v)
	case []storage.MigrationStatus:
		output = formatter.FormatMigrations(v)
	case error:
		fmt.Fprint(os.Stderr, formatter.FormatError(v))
		return
	case string:
		output = formatter.FormatInfo(v)
	default:
		if data, err := json.MarshalIndent(v, "", "  "); err == nil {
			output = string(data) + "\n"
		} else {
			output = formatter.FormatError(fmt.Errorf("unable to format data: %v", v))
		}
	}

	fmt.Print(output)
}

// fail prints err in the active format and exits.
func fail(err error) {
	Output(NewFormatter(globalConfig.Format), err)
	os.Exit(1)
}
