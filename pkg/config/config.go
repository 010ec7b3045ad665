// Package config reads the Lambda environment shared by every command
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/joho/godotenv"
)

// Environment variable names
const (
	RDSHost               = "RDS_HOST"
	RDSPort               = "RDS_PORT"
	RDSUsername           = "RDS_USERNAME"
	RDSDBName             = "RDS_DB_NAME"
	RDSPassword           = "RDS_PASSWORD"
	SNSTopicARN           = "SNS_TOPIC_ARN"
	TwilioAccountSID      = "TWILIO_ACCOUNT_SID"
	TwilioAuthToken       = "TWILIO_AUTH_TOKEN"
	GatewayEndpoint       = "GW_ENDPOINT"
	DefaultLanguage       = "DEFAULT_LANGUAGE"
	ExpiredRetentionHours = "EXPIRED_RETENTION_HOURS"
	LogLevel              = "LOG_LEVEL"
	defaultRDSPort        = 5432
	defaultRetentionHours = 24
)

// Config is the environment of one Lambda
type Config struct {
	RDSHost          string
	RDSPort          int
	RDSUsername      string
	RDSDBName        string
	RDSPassword      string
	SNSTopicARN      string
	TwilioAccountSID string
	TwilioAuthToken  string
	GatewayEndpoint  string
	DefaultLanguage  string
	ExpiredRetention time.Duration
}

// Load reads a local .env file when there is one, then the environment. Every
// variable named in required must be set.
func Load(required ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	var missing []string
	for _, key := range required {
		if _, err := MustEnv(key); err != nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return &Config{
		RDSHost:          os.Getenv(RDSHost),
		RDSPort:          EnvInt(RDSPort, defaultRDSPort),
		RDSUsername:      os.Getenv(RDSUsername),
		RDSDBName:        os.Getenv(RDSDBName),
		RDSPassword:      os.Getenv(RDSPassword),
		SNSTopicARN:      os.Getenv(SNSTopicARN),
		TwilioAccountSID: os.Getenv(TwilioAccountSID),
		TwilioAuthToken:  os.Getenv(TwilioAuthToken),
		GatewayEndpoint:  os.Getenv(GatewayEndpoint),
		DefaultLanguage:  os.Getenv(DefaultLanguage),
		ExpiredRetention: time.Duration(EnvInt(ExpiredRetentionHours, defaultRetentionHours)) * time.Hour,
	}, nil
}

// MustEnv returns the value of a variable that has to be set
func MustEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("environment variable %s is not set", key)
	}
	return value, nil
}

// EnvInt returns an integer variable, or def when it is unset or not a number
func EnvInt(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer environment variable", "key", key, "value", value)
		return def
	}
	return n
}

// DSN is the postgres connection string for gorm
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s password=%s",
		c.RDSHost,
		c.RDSPort,
		c.RDSUsername,
		c.RDSDBName,
		c.RDSPassword,
	)
}

// OpenDB connects to the postgres database
func (c *Config) OpenDB() (*gorm.DB, error) {
	db, err := gorm.Open("postgres", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// InitLogger installs a JSON slog logger at the level named by LOG_LEVEL
func InitLogger() *slog.Logger {
	level := slog.LevelInfo
	if value := os.Getenv(LogLevel); value != "" {
		if err := level.UnmarshalText([]byte(value)); err != nil {
			slog.Warn("invalid log level", "value", value)
		}
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
