// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Embedding     EmbeddingConfig    `mapstructure:"embedding"`
	Retrieval     RetrievalConfig    `mapstructure:"retrieval"`
	Session       SessionConfig      `mapstructure:"session"`
	Appointment   AppointmentConfig  `mapstructure:"appointment"`
	Escalation    EscalationConfig   `mapstructure:"escalation"`
	Knowledge     KnowledgeConfig    `mapstructure:"knowledge"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	Index      string   `mapstructure:"index"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Domain Configuration Sections ---

// EmbeddingConfig holds settings for the embedding API client.
type EmbeddingConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
}

// RetrievalConfig tunes the knowledge retrieval pipeline.
type RetrievalConfig struct {
	TopK               int     `mapstructure:"top_k"`
	ScoreThreshold     float64 `mapstructure:"score_threshold"`
	MaxChunkChars      int     `mapstructure:"max_chunk_chars"`
	ChunkOverlap       int     `mapstructure:"chunk_overlap"` // characters
	AnswerCacheTTL     int     `mapstructure:"answer_cache_ttl"` // seconds
	AnswerCacheEnabled bool    `mapstructure:"answer_cache_enabled"`
}

// SessionConfig governs conversation state lifetime.
type SessionConfig struct {
	TTL           int `mapstructure:"ttl"`            // seconds
	SweepInterval int `mapstructure:"sweep_interval"` // seconds
	MaxHistory    int `mapstructure:"max_history"`
}

// AppointmentConfig holds booking business rules.
type AppointmentConfig struct {
	OpenHour     int      `mapstructure:"open_hour"`
	CloseHour    int      `mapstructure:"close_hour"`
	SlotMinutes  []int    `mapstructure:"slot_minutes"`
	Weekdays     []string `mapstructure:"weekdays"`
	ServiceTypes []string `mapstructure:"service_types"`
	MaxDaysAhead int      `mapstructure:"max_days_ahead"`
}

// EscalationConfig holds handoff thresholds.
type EscalationConfig struct {
	FrustrationThreshold float64 `mapstructure:"frustration_threshold"`
	FailureLimit         int     `mapstructure:"failure_limit"`
	FailureWindow        int     `mapstructure:"failure_window"` // seconds
}

// KnowledgeConfig locates the knowledge base documents.
type KnowledgeConfig struct {
	DocsPath   string `mapstructure:"docs_path"`
	SchemaPath string `mapstructure:"schema_path"`
}

// NotificationConfig holds settings for confirmation emails and handoff alerts.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	Alerts struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"alerts"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
