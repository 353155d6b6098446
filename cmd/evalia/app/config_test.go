package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadConfig verifies defaults.
func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.DatabaseDriver != "memory" {
		t.Errorf("DatabaseDriver = %q, want memory", config.DatabaseDriver)
	}
	if !config.Seed {
		t.Error("Seed should default to true")
	}
	if config.ArtifactsBackend != "local" {
		t.Errorf("ArtifactsBackend = %q, want local", config.ArtifactsBackend)
	}
	if config.QueueBackend != "memory" {
		t.Errorf("QueueBackend = %q, want memory", config.QueueBackend)
	}
	if config.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", config.TokenTTL)
	}
	if config.AutoProvision {
		t.Error("AutoProvision should default to false")
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
}

// TestConfig_EnvironmentVariables verifies EVALIA_ variables are read.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("EVALIA_DATABASE_DRIVER", "Postgres")
	t.Setenv("EVALIA_DATABASE_DSN", "postgres://evalia@localhost/evalia?sslmode=disable")
	t.Setenv("EVALIA_QUEUE_BACKEND", "redis")
	t.Setenv("EVALIA_REDIS_ADDR", "redis:6379")
	t.Setenv("EVALIA_REDIS_DB", "3")
	t.Setenv("EVALIA_TOKEN_TTL", "2h")
	t.Setenv("EVALIA_EVALUATION_WORKERS", "8")
	t.Setenv("EVALIA_SEED", "false")
	t.Setenv("EVALIA_FORMAT", "json")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.DatabaseDriver != "postgres" {
		t.Errorf("DatabaseDriver = %q, want postgres", config.DatabaseDriver)
	}
	if config.DatabaseDSN == "" {
		t.Error("DatabaseDSN not loaded")
	}
	if config.QueueBackend != "redis" || config.RedisAddr != "redis:6379" || config.RedisDB != 3 {
		t.Errorf("redis settings = %q %q %d", config.QueueBackend, config.RedisAddr, config.RedisDB)
	}
	if config.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", config.TokenTTL)
	}
	if config.EvaluationWorkers != 8 {
		t.Errorf("EvaluationWorkers = %d, want 8", config.EvaluationWorkers)
	}
	if config.Seed {
		t.Error("EVALIA_SEED=false not applied")
	}
	if config.Format != "json" {
		t.Errorf("Format = %q, want json", config.Format)
	}
}

// TestConfig_File verifies values from an explicit config file.
func TestConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evalia.yaml")
	content := []byte("database_driver: sqlite\ndatabase_dsn: /var/lib/evalia/evalia.db\nartifacts_backend: s3\ns3_bucket: evalia-models\ndiscord_channel_id: \"123\"\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() failed: %v", err)
	}

	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", config.ConfigFile, path)
	}
	if config.DatabaseDriver != "sqlite" {
		t.Errorf("DatabaseDriver = %q, want sqlite", config.DatabaseDriver)
	}
	if config.ArtifactsBackend != "s3" || config.S3Bucket != "evalia-models" {
		t.Errorf("artifacts = %q %q", config.ArtifactsBackend, config.S3Bucket)
	}
	if config.DiscordChannelID != "123" {
		t.Errorf("DiscordChannelID = %q, want 123", config.DiscordChannelID)
	}
}

// TestConfig_EnvBeatsFile verifies environment precedence over the file.
func TestConfig_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evalia.yaml")
	if err := os.WriteFile(path, []byte("evaluation_workers: 4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EVALIA_EVALUATION_WORKERS", "6")

	config, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() failed: %v", err)
	}
	if config.EvaluationWorkers != 6 {
		t.Errorf("EvaluationWorkers = %d, want 6", config.EvaluationWorkers)
	}
}

// TestConfig_MissingFile verifies an explicit file must exist.
func TestConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfigFile() should fail for a missing file")
	}
}

// TestConfig_LoggingOptions verifies logging configuration.
func TestConfig_LoggingOptions(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_OUTPUT", "stdout")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", config.LogLevel)
	}
	if config.LogFormat != "json" {
		t.Errorf("LogFormat = %s, want json", config.LogFormat)
	}
	if config.LogOutput != "stdout" {
		t.Errorf("LogOutput = %s, want stdout", config.LogOutput)
	}
}

// TestConfig_UpdateFromFlags verifies flag values override loaded ones.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "info"}

	config.UpdateFromFlags(true, false, true, "", "")
	if !config.Verbose || !config.NoColor {
		t.Error("boolean flags not applied")
	}
	if config.Format != "yaml" || config.LogLevel != "info" {
		t.Error("empty flags must not clear loaded values")
	}

	config.UpdateFromFlags(false, false, false, "json", "trace")
	if config.Format != "json" || config.LogLevel != "trace" {
		t.Errorf("Format/LogLevel = %q/%q", config.Format, config.LogLevel)
	}
	if !config.NoColor {
		t.Error("NoColor from the environment must stick")
	}
}
