package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/bcnelson/spark/pkg/filters"
	"github.com/bcnelson/spark/pkg/models"
	"github.com/bcnelson/spark/pkg/spark"
)

func handleActivityCommand(args []string) {
	if len(args) == 0 {
		fmt.Println("Error: activity requires a subcommand")
		fmt.Println("Run 'spark activity --help' for usage")
		os.Exit(1)
	}

	if isHelp(args) {
		fmt.Printf(`Activity Commands

USAGE:
    spark activity <SUBCOMMAND> [OPTIONS]

SUBCOMMANDS:
    list                         List liked activities
    show <id>                    Show activity details
    explain <id>                 Show why an activity passes or fails the filters
    like <id>                    Swipe right
    dislike <id>                 Swipe left
    start <id>                   Start a planned activity
    complete <id>                Mark an activity completed
    toggle <id> <step>           Tick or untick a checklist step
    delete <id>                  Delete an activity

LIST OPTIONS:
    --status <s>                 all, planned, in-progress, completed
    --search, -q <text>          Match title, description or location
    --distance <bucket>          all, nearby, walking, transit
    --duration <bucket>          all, short, medium, long
    --category <ids>             Comma-separated category ids

EXAMPLES:
    spark activity list --status planned --distance nearby
    spark activity like 4
    spark activity toggle 4 2
    spark activity explain 4 --duration short
`)
		return
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "list":
		executeActivityList(subArgs)
	case "show":
		executeActivityShow(subArgs)
	case "explain":
		executeActivityExplain(subArgs)
	case "like", "dislike":
		executeActivitySwipe(subArgs, subcommand == "like")
	case "start":
		executeActivityTransition(subArgs, subcommand, models.StatusInProgress)
	case "complete":
		executeActivityTransition(subArgs, subcommand, models.StatusCompleted)
	case "toggle":
		executeActivityToggle(subArgs)
	case "delete":
		executeActivityDelete(subArgs)
	default:
		fmt.Printf("Unknown activity subcommand: %s\n", subcommand)
		fmt.Println("Run 'spark activity --help' for usage")
		os.Exit(1)
	}
}

// parseFilterFlags maps list flags onto the query keys the filter config
// understands, so the CLI and the HTTP API parse filters the same way.
func parseFilterFlags(args []string) (filters.Config, []string, error) {
	values := url.Values{}
	var rest []string

	flags := map[string]string{
		"--status":   "status",
		"--search":   "q",
		"-q":         "q",
		"--distance": "distance",
		"--duration": "duration",
		"--category": "category",
	}

	for i := 0; i < len(args); i++ {
		key, ok := flags[args[i]]
		if !ok {
			rest = append(rest, args[i])
			continue
		}
		if i+1 >= len(args) {
			return filters.Config{}, nil, fmt.Errorf("%s requires a value", args[i])
		}
		values.Add(key, args[i+1])
		i++
	}

	config, err := filters.ParseConfig(values)
	return config, rest, err
}

func parseActivityID(args []string, usage string) int64 {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Error: activity id required\n")
		fmt.Printf("Usage: %s\n", usage)
		os.Exit(1)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		fail(models.Invalid("invalid activity id: %q", args[0]))
	}
	return id
}

func executeActivityList(args []string) {
	config, _, err := parseFilterFlags(args)
	if err != nil {
		fail(err)
	}

	a := mustApp()
	defer a.Close()

	ctx := context.Background()
	if config, err = a.preferences.ApplyDefaults(ctx, config); err != nil {
		fail(err)
	}

	list, err := a.activities.List(ctx, config)
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), list.Activities)
}

func executeActivityShow(args []string) {
	id := parseActivityID(args, "spark activity show <id>")

	a := mustApp()
	defer a.Close()

	activity, err := a.activities.Get(context.Background(), id)
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), activity)
}

func executeActivityExplain(args []string) {
	id := parseActivityID(args, "spark activity explain <id> [FILTER OPTIONS]")
	config, _, err := parseFilterFlags(args[1:])
	if err != nil {
		fail(err)
	}

	a := mustApp()
	defer a.Close()

	ctx := context.Background()
	if config, err = a.preferences.ApplyDefaults(ctx, config); err != nil {
		fail(err)
	}

	explanation, err := a.activities.Explain(ctx, id, config)
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), explanation)
}

func executeActivitySwipe(args []string, liked bool) {
	id := parseActivityID(args, "spark activity like|dislike <id>")

	a := mustApp()
	defer a.Close()

	activity, err := a.ledger.RecordSwipe(context.Background(), id, liked)
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), activity)
}

func executeActivityTransition(args []string, verb string, status models.ActivityStatus) {
	id := parseActivityID(args, fmt.Sprintf("spark activity %s <id>", verb))

	a := mustApp()
	defer a.Close()

	activity, err := a.activities.Transition(context.Background(), id, status)
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), activity)
}

func executeActivityToggle(args []string) {
	id := parseActivityID(args, "spark activity toggle <id> <step>")
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Error: step number required\n")
		os.Exit(1)
	}
	taskID, err := strconv.Atoi(args[1])
	if err != nil {
		fail(models.Invalid("invalid step number: %q", args[1]))
	}

	a := mustApp()
	defer a.Close()

	activity, err := a.activities.ToggleTask(context.Background(), id, taskID)
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), activity)
}

func executeActivityDelete(args []string) {
	id := parseActivityID(args, "spark activity delete <id>")

	a := mustApp()
	defer a.Close()

	if err := a.activities.Delete(context.Background(), id); err != nil {
		fail(err)
	}

	fmt.Print(NewFormatter(globalConfig.Format).FormatSuccess(fmt.Sprintf("Activity %d deleted", id)))
}

func handleRecommendCommand(args []string) {
	if isHelp(args) {
		fmt.Printf(`Fetch the next swipe deck

USAGE:
    spark recommend [OPTIONS]

DESCRIPTION:
    Shows the activities still waiting for a swipe. When none are left a new
    batch is generated for the given energy level and location.

OPTIONS:
    --energy <0-100>     Current energy level (default: from preferences)
    --location <text>    Where you are (default: anywhere)
    --help, -h           Show this help

EXAMPLES:
    spark recommend --energy 70 --location "Rotterdam"
`)
		return
	}

	energy := -1
	location := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--energy":
			if i+1 < len(args) {
				e, err := strconv.Atoi(args[i+1])
				if err != nil {
					fail(models.Invalid("invalid energy level: %q", args[i+1]))
				}
				energy = e
				i++
			}
		case "--location":
			if i+1 < len(args) {
				location = args[i+1]
				i++
			}
		}
	}

	a := mustApp()
	defer a.Close()
	ctx := context.Background()

	if energy < 0 {
		prefs, err := a.preferences.Get(ctx)
		if err != nil {
			fail(err)
		}
		energy = prefs.EnergyPreference
	}

	activities, err := a.recommender.FetchBatch(ctx, energy, location)
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), activities)
}

func handleFeedbackCommand(args []string) {
	if isHelp(args) || len(args) == 0 {
		fmt.Printf(`Record feedback for an activity

USAGE:
    spark feedback <id> --polarity <positive|negative> [OPTIONS]
    spark feedback show <id> [--kind activity|morning]

OPTIONS:
    --polarity <p>       positive or negative (like/dislike also accepted)
    --kind <k>           activity (default) or morning
    --enjoyment <1-5>    How much you enjoyed it (activity feedback only)
    --reflection <text>  A few words on how it went
    --help, -h           Show this help

EXAMPLES:
    spark feedback 4 --polarity positive --enjoyment 5 --reflection "More of this"
    spark feedback 4 --kind morning --polarity negative
    spark feedback show 4
`)
		return
	}

	if args[0] == "show" {
		executeFeedbackShow(args[1:])
		return
	}

	id := parseActivityID(args, "spark feedback <id> --polarity <p>")
	input := spark.FeedbackInput{ActivityID: id}

	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		if i+1 >= len(rest) {
			break
		}
		value := rest[i+1]
		var err error
		switch rest[i] {
		case "--polarity":
			input.Polarity, err = models.ParsePolarity(value)
		case "--kind":
			input.Kind, err = models.ParseFeedbackKind(value)
		case "--enjoyment":
			var n int
			n, err = strconv.Atoi(value)
			if err != nil {
				err = models.Invalid("invalid enjoyment: %q", value)
			}
			input.Enjoyment = &n
		case "--reflection":
			input.Reflection = value
		default:
			continue
		}
		if err != nil {
			fail(err)
		}
		i++
	}

	if input.Polarity == "" {
		fail(models.Invalid("--polarity is required"))
	}

	a := mustApp()
	defer a.Close()

	feedback, err := a.ledger.SubmitFeedback(context.Background(), input)
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), feedback)
}

func executeFeedbackShow(args []string) {
	id := parseActivityID(args, "spark feedback show <id> [--kind activity|morning]")
	kind := models.FeedbackActivity
	for i := 1; i+1 < len(args); i++ {
		if args[i] == "--kind" {
			k, err := models.ParseFeedbackKind(args[i+1])
			if err != nil {
				fail(err)
			}
			kind = k
		}
	}

	a := mustApp()
	defer a.Close()

	feedback, err := a.ledger.GetFeedback(context.Background(), id, kind)
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), feedback)
}
