package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bcnelson/spark/internal/storage"
)

func executeInit(args []string) {
	force := false
	dbPath := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--force":
			force = true
		case "--db-path":
			if i+1 < len(args) {
				dbPath = args[i+1]
				i++
			}
		}
	}

	configPath := getConfigPath()
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Already initialized at %s\n", configPath)
			fmt.Println("Use --force to reinitialize")
			return
		}
	}

	config, err := LoadConfig()
	if err != nil {
		fail(fmt.Errorf("failed to load config: %w", err))
	}

	if dbPath != "" {
		config.Database.Path = expandPath(dbPath)
	}
	if config.Logging.Path == "" {
		config.Logging.Path = filepath.Join(filepath.Dir(configPath), "logs", "spark.log")
	}

	if err := SaveConfig(config); err != nil {
		fail(err)
	}

	a, err := newApp(context.Background(), config, nil)
	if err != nil {
		fail(err)
	}
	defer a.Close()

	formatter := NewFormatter(globalConfig.Format)
	fmt.Print(formatter.FormatSuccess(fmt.Sprintf("Configuration created: %s", configPath)))
	location := "postgres"
	if a.db.Driver() == storage.DriverSQLite {
		location = a.db.Path()
	}
	if version, err := a.db.GetVersion(context.Background()); err == nil {
		location = fmt.Sprintf("%s (%s)", location, version)
	}
	fmt.Print(formatter.FormatSuccess(fmt.Sprintf("Database ready: %s", location)))
	fmt.Println("\nNext steps:")
	fmt.Println("1. Set OPENAI_API_KEY (or add it to .env) to generate fresh activities")
	fmt.Println("2. Get your first deck: spark recommend --energy 60")
	fmt.Println("3. Start the server: spark serve")
}

func executeMigrate(args []string) {
	if len(args) == 0 {
		fmt.Println("Error: migrate requires a subcommand")
		fmt.Println("Run 'spark migrate --help' for usage")
		os.Exit(1)
	}

	config, err := LoadConfig()
	if err != nil {
		fail(fmt.Errorf("failed to load config: %w", err))
	}
	if err := ValidateConfig(config); err != nil {
		fail(err)
	}

	db, err := storage.NewDB(config.Database.storageConfig())
	if err != nil {
		fail(err)
	}
	defer db.Close()

	ctx := context.Background()
	migrator := storage.NewMigrator(db)
	formatter := NewFormatter(globalConfig.Format)

	switch args[0] {
	case "up":
		pending, err := migrator.Pending(ctx)
		if err != nil {
			fail(err)
		}
		if pending == 0 {
			fmt.Print(formatter.FormatInfo("Database is up to date"))
			return
		}
		fmt.Print(formatter.FormatInfo(fmt.Sprintf("Applying %d %s", pending, plural(pending, "migration", "migrations"))))

		applied, err := migrator.Up(ctx)
		if err != nil {
			fail(fmt.Errorf("migration failed: %w", err))
		}
		for _, m := range applied {
			fmt.Print(formatter.FormatSuccess(fmt.Sprintf("Applied %03d %s", m.ID, m.Name)))
		}
	case "down":
		rolledBack, err := migrator.Down(ctx)
		if err != nil {
			fail(err)
		}
		fmt.Print(formatter.FormatSuccess(fmt.Sprintf("Rolled back %03d %s", rolledBack.ID, rolledBack.Name)))
	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			fail(err)
		}
		Output(formatter, statuses)
	default:
		fmt.Printf("Unknown migrate subcommand: %s\n", args[0])
		os.Exit(1)
	}
}
