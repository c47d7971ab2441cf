package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bcnelson/spark/internal/generator"
	"github.com/bcnelson/spark/internal/logging"
	"github.com/bcnelson/spark/internal/storage"
	"github.com/bcnelson/spark/pkg/spark"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server          ServerConfig            `yaml:"server"`
	Database        DatabaseConfig          `yaml:"database"`
	Logging         logging.Config          `yaml:"logging"`
	Generator       generator.Config        `yaml:"generator"`
	Recommendations spark.RecommenderConfig `yaml:"recommendations"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

func getConfigPath() string {
	if globalConfig.ConfigPath != "" {
		return globalConfig.ConfigPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".spark/config.yaml"
	}

	return filepath.Join(homeDir, ".spark", "config.yaml")
}

// LoadConfig reads the YAML config over the defaults, then applies .env and
// environment overrides.
func LoadConfig() (*Config, error) {
	return loadConfigFrom(getConfigPath())
}

func loadConfigFrom(configPath string) (*Config, error) {
	// A missing .env is normal; existing variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := GetDefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	config.Database.Path = expandPath(config.Database.Path)
	config.Logging.Path = expandPath(config.Logging.Path)

	return config, nil
}

func applyEnv(config *Config) error {
	if v := os.Getenv("SPARK_DB_DRIVER"); v != "" {
		config.Database.Driver = v
	}
	if v := os.Getenv("SPARK_DB_DSN"); v != "" {
		config.Database.DSN = v
	}
	if v := os.Getenv("SPARK_DB_PATH"); v != "" {
		config.Database.Path = v
	}
	if v := os.Getenv("SPARK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SPARK_PORT: %q", v)
		}
		config.Server.Port = port
	}
	if v := os.Getenv("SPARK_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		config.Generator.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		config.Generator.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		config.Generator.Model = v
	}
	return nil
}

// SaveConfig writes the config without the API key, which belongs in the
// environment.
func SaveConfig(config *Config) error {
	configPath := getConfigPath()
	configDir := filepath.Dir(configPath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *config
	out.Generator.APIKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func GetDefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	baseDir := filepath.Join(homeDir, ".spark")

	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver: string(storage.DriverSQLite),
			Path:   filepath.Join(baseDir, "spark.db"),
		},
		Logging:   logging.DefaultConfig(),
		Generator: generator.DefaultConfig(),
		Recommendations: spark.RecommenderConfig{
			BatchSize: generator.DefaultBatchSize,
		},
	}
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if len(path) == 1 {
			return homeDir
		}
		return filepath.Join(homeDir, path[1:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		return absPath
	}

	return path
}

func ValidateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	driver, err := storage.ParseDriver(config.Database.Driver)
	if err != nil {
		return err
	}
	if driver == storage.DriverPostgres && config.Database.DSN == "" {
		return fmt.Errorf("database dsn is required for postgres")
	}
	if driver == storage.DriverSQLite && config.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if _, err := logging.ParseLevel(config.Logging.Level); err != nil {
		return err
	}

	if config.Recommendations.BatchSize <= 0 {
		return fmt.Errorf("recommendations batch size must be positive: %d", config.Recommendations.BatchSize)
	}

	return nil
}

func (c DatabaseConfig) storageConfig() storage.Config {
	return storage.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}
}
