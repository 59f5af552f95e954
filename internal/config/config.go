package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"recuento/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataDir      string
	BaselinePath string
	ReportsDir   string

	// Amount parsing: "auto", "comma" or "dot"
	AmountSeparator string

	// Extraction backend: "mock" or "gemini"
	ExtractorBackend string
	GeminiModel      string

	// AMQP (optional; empty URL disables ledger events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataDir:      getEnv("DATA_DIR", "./data"),
		BaselinePath: getEnv("BASELINE_PATH", "./data/baseline.xlsx"),
		ReportsDir:   getEnv("REPORTS_DIR", "./data/reports"),

		AmountSeparator: getEnv("AMOUNT_SEPARATOR", string(core.SeparatorAuto)),

		ExtractorBackend: getEnv("EXTRACTOR_BACKEND", "mock"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "recuento"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_appended"),
	}
}

// SeparatorStyle returns the configured amount separator convention.
func (c *Config) SeparatorStyle() core.SeparatorStyle {
	return core.SeparatorStyle(c.AmountSeparator)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty")
	}
	if c.BaselinePath == "" {
		errors = append(errors, "baseline path cannot be empty")
	}
	if c.ReportsDir == "" {
		errors = append(errors, "reports directory cannot be empty")
	}

	if !c.SeparatorStyle().IsValid() {
		errors = append(errors, fmt.Sprintf("invalid amount separator '%s': must be one of auto, comma, dot", c.AmountSeparator))
	}

	switch c.ExtractorBackend {
	case "mock", "gemini":
	default:
		errors = append(errors, fmt.Sprintf("invalid extractor backend '%s': must be 'mock' or 'gemini'", c.ExtractorBackend))
	}
	if c.ExtractorBackend == "gemini" && c.GeminiModel == "" {
		errors = append(errors, "Gemini model cannot be empty when using the gemini extractor")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
