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

	// Enable ENV override like SMTP_PASSWORD
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

	// Environment-specific overrides, e.g. config.production.yaml
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // ignore error if not found

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

// loadEnvFile loads .env from the working directory or any ancestor holding go.mod.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
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

// findProjectRoot walks up directories looking for go.mod.
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

// expandEnvVars resolves ${VAR} placeholders inside string config values.
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

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "reminder-engine"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8085"
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Reminder.ExpiryWindowDays == 0 {
		cfg.Reminder.ExpiryWindowDays = 3
	}
	if cfg.Reminder.MaxEmailsPerDay == 0 {
		cfg.Reminder.MaxEmailsPerDay = 100
	}
	if cfg.Reminder.MaxEmailsPerBatch == 0 {
		cfg.Reminder.MaxEmailsPerBatch = 25
	}
	if cfg.Reminder.PacingDelay == 0 {
		cfg.Reminder.PacingDelay = 300 * time.Millisecond
	}
	if cfg.Reminder.BlacklistThreshold == 0 {
		cfg.Reminder.BlacklistThreshold = 3
	}
	if cfg.Reminder.RunTimeout == 0 {
		cfg.Reminder.RunTimeout = 15 * time.Minute
	}
	if cfg.Providers.VerifyTimeout == 0 {
		cfg.Providers.VerifyTimeout = 5 * time.Second
	}
	if cfg.Providers.SendTimeout == 0 {
		cfg.Providers.SendTimeout = 30 * time.Second
	}
	if cfg.Providers.RetrySweeps == 0 {
		cfg.Providers.RetrySweeps = 3
	}
	if cfg.Providers.RetryBaseDelay == 0 {
		cfg.Providers.RetryBaseDelay = 2 * time.Second
	}
	if len(cfg.Providers.Order) == 0 {
		cfg.Providers.Order = []string{"ses", "smtp"}
	}
	if cfg.Alerts.FailureRateThreshold == 0 {
		cfg.Alerts.FailureRateThreshold = 0.25
	}
	if cfg.Alerts.BlacklistSizeWarning == 0 {
		cfg.Alerts.BlacklistSizeWarning = 50
	}
	if cfg.Alerts.BacklogWarning == 0 {
		cfg.Alerts.BacklogWarning = 10
	}
	if cfg.Scheduler.Hour == 0 {
		cfg.Scheduler.Hour = 9
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// overrideEmptyConfig fills credentials from bare environment variables when
// the YAML left them empty. Secrets never live in the config files.
func overrideEmptyConfig(cfg *Config) {
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
	if cfg.Providers.SMTP.Username == "" {
		if val := os.Getenv("SMTP_USERNAME"); val != "" {
			cfg.Providers.SMTP.Username = val
		}
	}
	if cfg.Providers.SMTP.Password == "" {
		if val := os.Getenv("SMTP_PASSWORD"); val != "" {
			cfg.Providers.SMTP.Password = val
		}
	}
	if cfg.Alerts.SNSTopicARN == "" {
		if val := os.Getenv("ALERTS_SNS_TOPIC_ARN"); val != "" {
			cfg.Alerts.SNSTopicARN = val
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Reminder.MaxEmailsPerBatch > cfg.Reminder.MaxEmailsPerDay {
		return fmt.Errorf("reminder.max_emails_per_batch cannot exceed reminder.max_emails_per_day")
	}
	if cfg.Scheduler.Hour < 0 || cfg.Scheduler.Hour > 23 {
		return fmt.Errorf("scheduler.hour must be between 0 and 23")
	}
	for _, name := range cfg.Providers.Order {
		switch name {
		case "ses", "smtp":
		default:
			return fmt.Errorf("unknown provider %q in providers.order", name)
		}
	}
	if cfg.Providers.SES.Enabled && cfg.Providers.SES.FromEmail == "" {
		return fmt.Errorf("providers.ses.from_email is required when SES is enabled")
	}
	if cfg.Providers.SMTP.Enabled && cfg.Providers.SMTP.Host == "" {
		return fmt.Errorf("providers.smtp.host is required when SMTP is enabled")
	}
	return nil
}
