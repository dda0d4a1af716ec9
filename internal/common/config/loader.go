// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like EMBEDDING_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent.
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations (binary may run from cmd/ or tests).
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Expand ${VAR} placeholders left in string config values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Embedding.APIKey == "" {
		if val := os.Getenv("EMBEDDING_API_KEY"); val != "" {
			cfg.Embedding.APIKey = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Notifications.AWS.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Notifications.AWS.Region = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Elasticsearch URL fallback
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "knowledge_chunks"
	}

	// Embedding defaults
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 10000
	}

	// Retrieval defaults
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.ScoreThreshold == 0 {
		cfg.Retrieval.ScoreThreshold = 0.3
	}
	if cfg.Retrieval.MaxChunkChars == 0 {
		cfg.Retrieval.MaxChunkChars = 1200
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 50
	}
	if cfg.Retrieval.AnswerCacheTTL == 0 {
		cfg.Retrieval.AnswerCacheTTL = 900
	}

	// Session defaults
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 1800
	}
	if cfg.Session.SweepInterval == 0 {
		cfg.Session.SweepInterval = 60
	}
	if cfg.Session.MaxHistory == 0 {
		cfg.Session.MaxHistory = 20
	}

	// Appointment defaults
	if cfg.Appointment.OpenHour == 0 {
		cfg.Appointment.OpenHour = 9
	}
	if cfg.Appointment.CloseHour == 0 {
		cfg.Appointment.CloseHour = 18
	}
	if len(cfg.Appointment.SlotMinutes) == 0 {
		cfg.Appointment.SlotMinutes = []int{0, 30}
	}
	if len(cfg.Appointment.Weekdays) == 0 {
		cfg.Appointment.Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	}
	if len(cfg.Appointment.ServiceTypes) == 0 {
		cfg.Appointment.ServiceTypes = []string{"consultation", "support", "installation", "maintenance", "training"}
	}
	if cfg.Appointment.MaxDaysAhead == 0 {
		cfg.Appointment.MaxDaysAhead = 60
	}

	// Escalation defaults
	if cfg.Escalation.FrustrationThreshold == 0 {
		cfg.Escalation.FrustrationThreshold = 0.7
	}
	if cfg.Escalation.FailureLimit == 0 {
		cfg.Escalation.FailureLimit = 3
	}
	if cfg.Escalation.FailureWindow == 0 {
		cfg.Escalation.FailureWindow = 1800
	}

	// Knowledge defaults
	if cfg.Knowledge.DocsPath == "" {
		cfg.Knowledge.DocsPath = "./knowledge"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Appointment.OpenHour < 0 || cfg.Appointment.OpenHour > 23 {
		return fmt.Errorf("appointment.open_hour must be between 0 and 23")
	}
	if cfg.Appointment.CloseHour <= cfg.Appointment.OpenHour {
		return fmt.Errorf("appointment.close_hour must be after open_hour")
	}
	for _, m := range cfg.Appointment.SlotMinutes {
		if m < 0 || m > 59 {
			return fmt.Errorf("appointment.slot_minutes values must be between 0 and 59")
		}
	}

	if cfg.Retrieval.ScoreThreshold < 0 || cfg.Retrieval.ScoreThreshold > 1 {
		return fmt.Errorf("retrieval.score_threshold must be between 0 and 1")
	}

	if cfg.Escalation.FrustrationThreshold <= 0 || cfg.Escalation.FrustrationThreshold > 1 {
		return fmt.Errorf("escalation.frustration_threshold must be between 0 and 1")
	}

	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.FromEmail == "" {
		return fmt.Errorf("notifications.email.from_email is required when email is enabled")
	}
	if cfg.Notifications.Alerts.Enabled && cfg.Notifications.Alerts.TopicARN == "" {
		return fmt.Errorf("notifications.alerts.topic_arn is required when alerts are enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// Seconds converts a seconds count from config to time.Duration.
func Seconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}
