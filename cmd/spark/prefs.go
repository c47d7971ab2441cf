package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bcnelson/spark/pkg/models"
)

func handlePrefsCommand(args []string) {
	if len(args) == 0 || isHelp(args) {
		fmt.Printf(`Preference Commands

USAGE:
    spark prefs show
    spark prefs set [OPTIONS]

SET OPTIONS:
    --max-distance <km>          Preferred maximum distance (0-50)
    --energy <0-100>             Default energy level for recommendations
    --time <minutes>             Typical time available
    --notifications <on|off>
    --location-tracking <on|off>
    --interests <ids>            Comma-separated interest ids
    --categories <ids>           Comma-separated category ids

EXAMPLES:
    spark prefs set --energy 40 --time 30
    spark prefs set --categories city-lens,craft-burst
`)
		return
	}

	switch args[0] {
	case "show":
		executePrefsShow()
	case "set":
		executePrefsSet(args[1:])
	default:
		fmt.Printf("Unknown prefs subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func executePrefsShow() {
	a := mustApp()
	defer a.Close()

	prefs, err := a.preferences.Get(context.Background())
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), prefs)
}

// parsePrefsFlags builds a partial update from the set flags; flags that are
// not given stay nil and leave the stored value alone.
func parsePrefsFlags(args []string) (models.PreferencesUpdate, error) {
	var update models.PreferencesUpdate

	for i := 0; i < len(args); i++ {
		if i+1 >= len(args) {
			return update, models.Invalid("%s requires a value", args[i])
		}
		flag, value := args[i], args[i+1]
		i++

		switch flag {
		case "--max-distance":
			km, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return update, models.Invalid("invalid max distance: %q", value)
			}
			update.MaxDistance = &km
		case "--energy":
			n, err := strconv.Atoi(value)
			if err != nil {
				return update, models.Invalid("invalid energy: %q", value)
			}
			update.EnergyPreference = &n
		case "--time":
			n, err := strconv.Atoi(value)
			if err != nil {
				return update, models.Invalid("invalid time: %q", value)
			}
			update.TimePreference = &n
		case "--notifications":
			b, err := parseSwitch(value)
			if err != nil {
				return update, err
			}
			update.NotificationsEnabled = &b
		case "--location-tracking":
			b, err := parseSwitch(value)
			if err != nil {
				return update, err
			}
			update.LocationTrackingEnabled = &b
		case "--interests":
			ids := splitList(value)
			update.Interests = &ids
		case "--categories":
			ids := splitList(value)
			update.Categories = &ids
		default:
			return update, models.Invalid("unknown option: %s", flag)
		}
	}

	return update, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, models.Invalid("expected on or off, got %q", s)
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func executePrefsSet(args []string) {
	update, err := parsePrefsFlags(args)
	if err != nil {
		fail(err)
	}

	a := mustApp()
	defer a.Close()

	prefs, err := a.preferences.Update(context.Background(), update)
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), prefs)
}

func handleStatsCommand(args []string) {
	if isHelp(args) {
		fmt.Printf(`Show activity statistics

USAGE:
    spark stats

DESCRIPTION:
    Counts activities by lifecycle state, sums the minutes spent on completed
    activities and names the most-completed category.
`)
		return
	}

	a := mustApp()
	defer a.Close()

	stats, err := a.preferences.Stats(context.Background())
	if err != nil {
		fail(err)
	}

	Output(NewFormatter(globalConfig.Format), stats)
}
