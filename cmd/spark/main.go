package main

import (
	"fmt"
	"os"
	"strings"
)

const Version = "0.1.0"

type GlobalConfig struct {
	Format     string // json, table, human
	ConfigPath string
	Verbose    bool
	NoColor    bool
}

var globalConfig GlobalConfig

func main() {
	if len(os.Args) < 2 {
		showHelp()
		return
	}

	args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(args) == 0 {
		showHelp()
		return
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "help", "--help", "-h":
		showHelp()
	case "version", "--version":
		showVersion()
	case "init":
		handleInit(commandArgs)
	case "serve":
		handleServeCommand(commandArgs)
	case "migrate":
		handleMigrateCommand(commandArgs)
	case "activity":
		handleActivityCommand(commandArgs)
	case "recommend":
		handleRecommendCommand(commandArgs)
	case "feedback":
		handleFeedbackCommand(commandArgs)
	case "prefs":
		handlePrefsCommand(commandArgs)
	case "stats":
		handleStatsCommand(commandArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		fmt.Fprintf(os.Stderr, "Run 'spark help' for usage information.\n")
		os.Exit(1)
	}
}

// parseGlobalFlags pulls the global options out of args wherever they appear
// and returns the rest. Unknown --flags are left for the subcommand.
func parseGlobalFlags(args []string) ([]string, error) {
	remainingArgs := []string{}
	globalConfig.Format = "human"

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--format" && i+1 < len(args):
			if err := setFormat(args[i+1]); err != nil {
				return nil, err
			}
			i++
		case strings.HasPrefix(arg, "--format="):
			if err := setFormat(strings.TrimPrefix(arg, "--format=")); err != nil {
				return nil, err
			}
		case arg == "--config" && i+1 < len(args):
			globalConfig.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			globalConfig.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--verbose" || arg == "-v":
			globalConfig.Verbose = true
		case arg == "--no-color":
			globalConfig.NoColor = true
		default:
			remainingArgs = append(remainingArgs, arg)
		}
	}

	return remainingArgs, nil
}

func setFormat(format string) error {
	if format != "json" && format != "table" && format != "human" {
		return fmt.Errorf("invalid format: %s (must be json, table, or human)", format)
	}
	globalConfig.Format = format
	return nil
}

func showHelp() {
	fmt.Printf(`Spark - Swipe-driven activity recommendations

USAGE:
    spark [GLOBAL OPTIONS] <COMMAND> [OPTIONS]

VERSION:
    %s

GLOBAL OPTIONS:
    --format <format>    Output format: json, table, human (default: human)
    --config <path>      Config file path (default: ~/.spark/config.yaml)
    --verbose, -v        Enable debug logging
    --no-color           Disable colored output
    --help, -h           Show help
    --version            Show version

COMMANDS:
    init                 Create configuration and database
    serve                Start the API server
    migrate              Run database migrations

    recommend            Fetch the next swipe deck
    activity             Swipe, start, complete and inspect activities
    feedback             Record how an activity went
    prefs                Show or change preferences
    stats                Show activity statistics

EXAMPLES:
    # Initialize the system
    spark init

    # Get a deck for a low-energy evening
    spark recommend --energy 30 --location "Utrecht"

    # Like an activity and start it
    spark activity like 3
    spark activity start 3

    # List planned activities within walking distance
    spark activity list --status planned --distance walking

    # Start the server
    spark serve --port 9090

Use 'spark <command> --help' for more information about a specific command.
`, Version)
}

func showVersion() {
	fmt.Printf("spark version %s\n", Version)
}

func isHelp(args []string) bool {
	return len(args) > 0 && (args[0] == "--help" || args[0] == "-h")
}

func handleInit(args []string) {
	if isHelp(args) {
		fmt.Printf(`Initialize Spark

USAGE:
    spark init [OPTIONS]

DESCRIPTION:
    Creates the configuration file and database, then applies migrations.
    This should be run once after installation.

OPTIONS:
    --force              Overwrite an existing configuration
    --db-path <path>     Custom SQLite database path
    --help, -h           Show this help

EXAMPLES:
    spark init
    spark init --force
    spark init --db-path ./spark.db
`)
		return
	}

	executeInit(args)
}

func handleMigrateCommand(args []string) {
	if isHelp(args) {
		fmt.Printf(`Database Migration Management

USAGE:
    spark migrate <SUBCOMMAND>

SUBCOMMANDS:
    up                  Apply pending migrations
    down                Roll back the last applied migration
    status              Show migration status

EXAMPLES:
    spark migrate up
    spark migrate status
`)
		return
	}

	executeMigrate(args)
}
