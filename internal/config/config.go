package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	// HTTP server
	Port string
	Env  string

	// Batch endpoint auth. Required in production.
	CronSecret string

	// Database
	SQLiteDBPath string

	// AMQP event publishing (optional: empty URL disables it)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Recurring worker
	ProcessInterval time.Duration

	// Engine defaults, used when a profile row is missing
	DefaultSalaryDay int
	DefaultBreakDay  int
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8081"),
		Env:          getEnv("ENV", EnvDevelopment),
		CronSecret:   getEnv("CRON_SECRET", ""),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bilancio.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bilancio"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		ProcessInterval: getEnvDuration("PROCESS_INTERVAL", 24*time.Hour),

		DefaultSalaryDay: getEnvInt("DEFAULT_SALARY_DAY", 25),
		DefaultBreakDay:  getEnvInt("DEFAULT_BREAK_DAY", 15),
	}
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.Env != EnvProduction && c.Env != EnvDevelopment {
		errs = append(errs, fmt.Sprintf("invalid env '%s': must be '%s' or '%s'", c.Env, EnvProduction, EnvDevelopment))
	}

	if c.Env == EnvProduction && c.CronSecret == "" {
		errs = append(errs, "CRON_SECRET is required in production")
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ProcessInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid process interval %v: must be at least 1 minute", c.ProcessInterval))
	} else if c.ProcessInterval > 7*24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid process interval %v: must be at most 7 days", c.ProcessInterval))
	}

	if c.DefaultSalaryDay < 1 || c.DefaultSalaryDay > 31 {
		errs = append(errs, fmt.Sprintf("invalid default salary day %d: must be between 1 and 31", c.DefaultSalaryDay))
	}
	if c.DefaultBreakDay < 1 || c.DefaultBreakDay > 28 {
		errs = append(errs, fmt.Sprintf("invalid default break day %d: must be between 1 and 28", c.DefaultBreakDay))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
