package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	AI        AIConfig        `mapstructure:"ai"`
	Webhooks  WebhooksConfig  `mapstructure:"webhooks"`
	Email     EmailConfig     `mapstructure:"email"`
	Billing   BillingConfig   `mapstructure:"billing"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	APIReadPerMinute  int  `mapstructure:"api_read_per_minute"`
	APIWritePerMinute int  `mapstructure:"api_write_per_minute"`
}

type ScoringConfig struct {
	Strategy string `mapstructure:"strategy"` // heuristic, ai
}

type AIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WebhooksConfig struct {
	WorkerCount   int           `mapstructure:"worker_count"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	Timeout       time.Duration `mapstructure:"timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	Retention     time.Duration `mapstructure:"retention"`
}

type EmailConfig struct {
	Provider    string         `mapstructure:"provider"` // sendgrid, smtp, noop
	FromAddress string         `mapstructure:"from_address"`
	FromName    string         `mapstructure:"from_name"`
	SendGrid    SendGridConfig `mapstructure:"sendgrid"`
	SMTP        SMTPConfig     `mapstructure:"smtp"`
}

type SendGridConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type BillingConfig struct {
	TrialDays int `mapstructure:"trial_days"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
