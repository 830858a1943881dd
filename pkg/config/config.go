// Package config loads the runtime configuration from the environment and
// the YAML schema/hyperparameter documents, and derives the immutable
// per-run settings every pipeline component receives.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the process-level configuration read from the environment.
type Config struct {
	// Document source
	MongoURI       string
	DatabaseName   string
	CollectionName string

	// Object store
	ModelBucket        string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	RemoteModelKey     string

	// Local state
	ArtifactDir  string
	RegistryPath string

	// Documents
	SchemaPath      string
	ModelConfigPath string

	// Pipeline
	PipelineName string
	TestFraction float64
	SplitSeed    int64

	// Serving
	HTTPAddr         string
	RetrainSchedule  string
	RemoveLocalModel bool

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables and validates the
// values the pipeline cannot run without.
func Load() (*Config, error) {
	cfg := &Config{
		MongoURI:           getEnv("MONGODB_URI", ""),
		DatabaseName:       getEnv("VT_DATABASE_NAME", "Versich-Treue"),
		CollectionName:     getEnv("VT_COLLECTION_NAME", "Versich-Treue-Data"),
		ModelBucket:        getEnv("MODEL_BUCKET_NAME", ""),
		AWSRegion:          getEnv("AWS_REGION", "eu-central-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		RemoteModelKey:     getEnv("VT_REMOTE_MODEL_KEY", "model-registry/model.gob"),
		ArtifactDir:        getEnv("VT_ARTIFACT_DIR", "artifacts"),
		RegistryPath:       getEnv("VT_REGISTRY_PATH", "vtml.db"),
		SchemaPath:         getEnv("VT_SCHEMA_PATH", "configs/schema.yaml"),
		ModelConfigPath:    getEnv("VT_MODEL_CONFIG_PATH", "configs/model.yaml"),
		PipelineName:       getEnv("VT_PIPELINE_NAME", "versich-treue"),
		TestFraction:       getEnvAsFloat("VT_TEST_FRACTION", 0.2),
		SplitSeed:          int64(getEnvAsInt("VT_SPLIT_SEED", 42)),
		HTTPAddr:           getEnv("VT_HTTP_ADDR", ":8080"),
		RetrainSchedule:    getEnv("VT_RETRAIN_SCHEDULE", ""),
		RemoveLocalModel:   getEnvAsBool("VT_REMOVE_LOCAL_MODEL", true),
		LogLevel:           getEnv("VT_LOG_LEVEL", "info"),
		LogFormat:          getEnv("VT_LOG_FORMAT", "text"),
	}

	// Validate required configuration
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.ModelBucket == "" {
		return nil, fmt.Errorf("MODEL_BUCKET_NAME is required")
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		return nil, fmt.Errorf("VT_TEST_FRACTION must be in (0,1), got %v", cfg.TestFraction)
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool retrieves an environment variable as a bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
