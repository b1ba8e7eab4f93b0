// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Reminder  ReminderConfig  `mapstructure:"reminder"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
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

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Enabled turns on the distributed run lock. Single-node deployments can
	// run with the in-process guard alone.
	Enabled bool `mapstructure:"enabled"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Enabled   bool     `mapstructure:"enabled"`
}

// --- Reminder Pipeline Config ---

// ReminderConfig holds the eligibility window, rate caps and blacklist policy.
type ReminderConfig struct {
	ExpiryWindowDays   int           `mapstructure:"expiry_window_days"`
	MaxEmailsPerDay    int           `mapstructure:"max_emails_per_day"`
	MaxEmailsPerBatch  int           `mapstructure:"max_emails_per_batch"`
	PacingDelay        time.Duration `mapstructure:"pacing_delay"`
	BlacklistThreshold int           `mapstructure:"blacklist_threshold"`
	RunTimeout         time.Duration `mapstructure:"run_timeout"`
	DefaultSubject     string        `mapstructure:"default_subject"`
	DefaultBody        string        `mapstructure:"default_body"`
}

// ProvidersConfig configures the ordered transport provider chain.
type ProvidersConfig struct {
	Order          []string      `mapstructure:"order"`
	VerifyTimeout  time.Duration `mapstructure:"verify_timeout"`
	SendTimeout    time.Duration `mapstructure:"send_timeout"`
	RetrySweeps    int           `mapstructure:"retry_sweeps"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	SES            SESConfig     `mapstructure:"ses"`
	SMTP           SMTPConfig    `mapstructure:"smtp"`
}

type SESConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	UseSSL   bool   `mapstructure:"use_ssl"`
}

// AlertsConfig configures the operator-facing monitor.
type AlertsConfig struct {
	Enabled              bool    `mapstructure:"enabled"`
	SNSTopicARN          string  `mapstructure:"sns_topic_arn"`
	Region               string  `mapstructure:"region"`
	FailureRateThreshold float64 `mapstructure:"failure_rate_threshold"`
	BlacklistSizeWarning int     `mapstructure:"blacklist_size_warning"`
	BacklogWarning       int     `mapstructure:"backlog_warning"`
}

type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Hour is the local hour of day (0-23) at which the daily run fires.
	Hour int `mapstructure:"hour"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
