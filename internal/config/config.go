// Package config loads the run configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/aristath/qtomo/internal/tomography"
)

// Config holds application configuration: where the persisted stores live,
// how to log, and the fixed optimizer hyperparameters.
type Config struct {
	ProjectorDBPath   string
	MeasurementDBPath string
	LogLevel          string
	Pretty            bool

	// Labels is the ordered measurement-setting list, comma separated in the
	// environment.
	Labels []string
	Shots  int

	Optimizer tomography.Config
}

// Load reads configuration from environment variables, applying defaults,
// and validates the optimizer block before returning.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		ProjectorDBPath:   getEnv("PROJECTOR_DB_PATH", "./data/projectors.db"),
		MeasurementDBPath: getEnv("MEASUREMENT_DB_PATH", "./data/measurements.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Pretty:            getEnvAsBool("LOG_PRETTY", false),
		Shots:             getEnvAsInt("SHOTS", 1024),
		Optimizer: tomography.Config{
			Qubits:        getEnvAsInt("QUBIT_COUNT", 2),
			Rank:          getEnvAsInt("TARGET_RANK", 1),
			StepSize:      getEnvAsFloat("STEP_SIZE", 0.01),
			Momentum:      getEnvAsFloat("MOMENTUM", 0.0),
			MaxIterations: getEnvAsInt("MAX_ITERATIONS", 1000),
			Tolerance:     getEnvAsFloat("TOLERANCE", 0),
			Initializer:   getEnv("INITIALIZER", tomography.InitSpectral),
			Seed:          uint64(getEnvAsInt("SEED", 1)),
			Workers:       getEnvAsInt("WORKERS", 1),
			RunID:         getEnv("RUN_ID", ""),
		},
	}

	if raw := getEnv("LABELS", ""); raw != "" {
		cfg.Labels = splitLabels(raw)
	}

	if err := cfg.Optimizer.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitLabels splits a comma-separated label list, skipping empty segments.
func splitLabels(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
