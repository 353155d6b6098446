package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read through viper.
const EnvPrefix = "EVALIA"

// Config holds the application configuration loaded from flags, the
// environment, .env files and ~/.evalia.yaml.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Persistence
	DatabaseDriver string
	DatabaseDSN    string
	Seed           bool

	// Artifacts
	ArtifactsBackend string
	ArtifactsDir     string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3Prefix         string

	// Evaluation queue
	QueueBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisQueueKey string

	// Auth
	TokenSecret   string
	TokenTTL      time.Duration
	AutoProvision bool

	// Evaluation
	EvaluationWorkers int
	EvaluationDelay   time.Duration

	// Notifications
	DiscordToken     string
	DiscordChannelID string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (EVALIA_*)
// 3. .env files
// 4. Config file (~/.evalia.yaml or ./.evalia.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig(viper.New(), "")
}

// LoadConfigFile is LoadConfig with an explicit config file.
func LoadConfigFile(path string) (*Config, error) {
	return loadConfig(viper.New(), path)
}

func loadConfig(v *viper.Viper, configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".evalia")
		// Read config file (ignore error if not found)
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		DatabaseDriver: strings.ToLower(v.GetString("database_driver")),
		DatabaseDSN:    v.GetString("database_dsn"),
		Seed:           v.GetBool("seed"),

		ArtifactsBackend: strings.ToLower(v.GetString("artifacts_backend")),
		ArtifactsDir:     v.GetString("artifacts_dir"),
		S3Bucket:         v.GetString("s3_bucket"),
		S3Region:         v.GetString("s3_region"),
		S3Endpoint:       v.GetString("s3_endpoint"),
		S3Prefix:         v.GetString("s3_prefix"),

		QueueBackend:  strings.ToLower(v.GetString("queue_backend")),
		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),
		RedisQueueKey: v.GetString("redis_queue_key"),

		TokenSecret:   v.GetString("token_secret"),
		TokenTTL:      v.GetDuration("token_ttl"),
		AutoProvision: v.GetBool("auto_provision"),

		EvaluationWorkers: v.GetInt("evaluation_workers"),
		EvaluationDelay:   v.GetDuration("evaluation_delay"),

		DiscordToken:     v.GetString("discord_token"),
		DiscordChannelID: v.GetString("discord_channel_id"),

		// Logging keeps the unprefixed names shared with other tools.
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database_driver", "memory")
	v.SetDefault("seed", true)
	v.SetDefault("artifacts_backend", "local")
	v.SetDefault("artifacts_dir", "data/submissions")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("queue_backend", "memory")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_queue_key", "evalia:evaluations")
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("auto_provision", false)
	v.SetDefault("evaluation_workers", 2)
	v.SetDefault("evaluation_delay", 2*time.Second)
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment win.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
