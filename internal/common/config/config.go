// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Store     StoreConfig             `mapstructure:"store"`
	Detection DetectionConfig         `mapstructure:"detection"`
	Judge     JudgeConfig             `mapstructure:"judge"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Metrics   MetricsConfig           `mapstructure:"metrics"`
	Registry  RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
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
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
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

// Store backends.
const (
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
	BackendMemory        = "memory"
)

// StoreConfig selects the posting history backend.
type StoreConfig struct {
	Backend  string      `mapstructure:"backend"`
	Table    string      `mapstructure:"table"`
	Index    string      `mapstructure:"index"`
	PageSize int         `mapstructure:"page_size"`
	Cache    CacheConfig `mapstructure:"cache"`
}

// CacheConfig controls the Redis read-through cache in front of the store.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	TTL     int  `mapstructure:"ttl"` // milliseconds
}

// DetectionConfig tunes the posting pattern analysis.
type DetectionConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	RecentWindowDays    int     `mapstructure:"recent_window_days"`
}

// JudgeConfig configures the Gemini authenticity judge.
type JudgeConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	Temperature       float32 `mapstructure:"temperature"`
	Timeout           int     `mapstructure:"timeout"` // milliseconds
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
	Burst             int     `mapstructure:"burst"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
	CacheTTL      int  `mapstructure:"cache_ttl"`   // milliseconds, 0 disables
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the health/metrics listener settings.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// RegistryConfig points at the activity catalog.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}
