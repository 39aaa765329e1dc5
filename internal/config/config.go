package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Mail     MailConfig     `json:"mail"`
	Storage  StorageConfig  `json:"storage"`
	Reports  ReportsConfig  `json:"reports"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
	AutoMigrate    bool          `json:"auto_migrate"`
}

// MailConfig selects the outbound mail transport. An empty transport
// disables email delivery.
type MailConfig struct {
	Transport   string     `json:"transport"` // smtp, ses
	FromAddress string     `json:"from_address"`
	FromName    string     `json:"from_name"`
	SMTP        SMTPConfig `json:"smtp"`
}

// SMTPConfig
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// StorageConfig covers AWS access and the report archive
type StorageConfig struct {
	AWSRegion       string `json:"aws_region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	ArchiveBucket   string `json:"archive_bucket"`
	ArchivePrefix   string `json:"archive_prefix"`
	ArchiveTable    string `json:"archive_table"`
}

// ReportsConfig
type ReportsConfig struct {
	Title              string        `json:"title"`
	TitleOnEveryPage   bool          `json:"title_on_every_page"`
	IncludePageNumbers bool          `json:"include_page_numbers"`
	Schedule           string        `json:"schedule"` // cron expression, empty disables
	ScheduleTimezone   string        `json:"schedule_timezone"`
	ScheduleRecipients []string      `json:"schedule_recipients"`
	NotifyTopicARN     string        `json:"notify_topic_arn"`
	CacheTTL           time.Duration `json:"cache_ttl"` // 0 disables
}

// LoggingConfig
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json, console
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "employee_portal",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    5 * time.Minute,
			AutoMigrate:    true,
		},
		Mail: MailConfig{
			FromName: "Employee Portal",
			SMTP:     SMTPConfig{Port: 587},
		},
		Storage: StorageConfig{
			ArchivePrefix: "reports",
		},
		Reports: ReportsConfig{
			Title:            "Employees Report",
			ScheduleTimezone: "UTC",
			CacheTTL:         time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from defaults, an optional JSON file, an
// optional .env file and environment variables, in that order.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Variables already set in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	overrideWithEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func overrideWithEnv(config *Config) {
	setString(&config.Server.Host, "SERVER_HOST")
	setInt(&config.Server.Port, "SERVER_PORT")

	setString(&config.Database.Host, "DATABASE_HOST")
	setInt(&config.Database.Port, "DATABASE_PORT")
	setString(&config.Database.User, "DATABASE_USER")
	setString(&config.Database.Password, "DATABASE_PASSWORD")
	setString(&config.Database.DBName, "DATABASE_DBNAME")
	setString(&config.Database.SSLMode, "DATABASE_SSLMODE")
	setBool(&config.Database.AutoMigrate, "DATABASE_AUTO_MIGRATE")

	setString(&config.Mail.Transport, "MAIL_TRANSPORT")
	setString(&config.Mail.FromAddress, "MAIL_FROM_ADDRESS")
	setString(&config.Mail.FromName, "MAIL_FROM_NAME")
	setString(&config.Mail.SMTP.Host, "SMTP_HOST")
	setInt(&config.Mail.SMTP.Port, "SMTP_PORT")
	setString(&config.Mail.SMTP.Username, "SMTP_USERNAME")
	setString(&config.Mail.SMTP.Password, "SMTP_PASSWORD")

	setString(&config.Storage.AWSRegion, "STORAGE_AWS_REGION")
	setString(&config.Storage.AccessKeyID, "STORAGE_ACCESS_KEY_ID")
	setString(&config.Storage.SecretAccessKey, "STORAGE_SECRET_ACCESS_KEY")
	setString(&config.Storage.ArchiveBucket, "STORAGE_ARCHIVE_BUCKET")
	setString(&config.Storage.ArchivePrefix, "STORAGE_ARCHIVE_PREFIX")
	setString(&config.Storage.ArchiveTable, "STORAGE_ARCHIVE_TABLE")

	setString(&config.Reports.Title, "REPORTS_TITLE")
	setBool(&config.Reports.TitleOnEveryPage, "REPORTS_TITLE_ON_EVERY_PAGE")
	setBool(&config.Reports.IncludePageNumbers, "REPORTS_INCLUDE_PAGE_NUMBERS")
	setString(&config.Reports.Schedule, "REPORTS_SCHEDULE")
	setString(&config.Reports.ScheduleTimezone, "REPORTS_SCHEDULE_TIMEZONE")
	if v := os.Getenv("REPORTS_SCHEDULE_RECIPIENTS"); v != "" {
		config.Reports.ScheduleRecipients = splitList(v)
	}
	setString(&config.Reports.NotifyTopicARN, "REPORTS_NOTIFY_TOPIC_ARN")
	setDuration(&config.Reports.CacheTTL, "REPORTS_CACHE_TTL")

	setString(&config.Logging.Level, "LOG_LEVEL")
	setString(&config.Logging.Format, "LOG_FORMAT")
}

// Validate checks values that would otherwise fail late at startup
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Mail.Transport {
	case "":
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			return fmt.Errorf("smtp transport requires SMTP_HOST")
		}
		fallthrough
	case "ses":
		if c.Mail.FromAddress == "" {
			return fmt.Errorf("mail transport %s requires MAIL_FROM_ADDRESS", c.Mail.Transport)
		}
	default:
		return fmt.Errorf("unknown mail transport %q", c.Mail.Transport)
	}
	if c.Reports.Schedule != "" {
		if c.Mail.Transport == "" {
			return fmt.Errorf("report schedule requires a mail transport")
		}
		if len(c.Reports.ScheduleRecipients) == 0 {
			return fmt.Errorf("report schedule requires REPORTS_SCHEDULE_RECIPIENTS")
		}
	}
	return nil
}

// UsesAWS reports whether any configured component talks to AWS
func (c *Config) UsesAWS() bool {
	return c.Mail.Transport == "ses" || c.Storage.ArchiveBucket != "" || c.Reports.NotifyTopicARN != ""
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewLogger builds a zap logger for the configured level and format
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level

	return zc.Build()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
