package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"uapush/service/payload"
)

type Config struct {
	AppKey       string
	MasterSecret string

	Variant      payload.Variant
	BaseURL      string
	BroadcastURL string
	UnicastURL   string

	RetryAttempts int
	RetryDelay    time.Duration
	HTTPTimeout   time.Duration

	VerboseLogging bool

	Port         int
	RateLimit    int
	RecentPushes int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppKey:       os.Getenv("UA_APP_KEY"),
		MasterSecret: os.Getenv("UA_MASTER_SECRET"),

		BaseURL:      getEnvString("UA_BASE_URL", "https://go.urbanairship.com"),
		BroadcastURL: os.Getenv("UA_BROADCAST_URL"),
		UnicastURL:   os.Getenv("UA_UNICAST_URL"),

		RetryAttempts: getEnvInt("UA_RETRY_ATTEMPTS", 3),
		RetryDelay:    getEnvMillis("UA_RETRY_DELAY_MS", 3000),
		HTTPTimeout:   getEnvMillis("UA_HTTP_TIMEOUT_MS", 30000),

		VerboseLogging: getEnvBool("VERBOSE_LOGGING", false),

		Port:         getEnvInt("PORT", 8080),
		RateLimit:    getEnvInt("RATE_LIMIT", 0),
		RecentPushes: getEnvInt("RECENT_PUSHES", 100),
	}

	version, ok := payload.ParseAPIVersion(getEnvString("UA_API_VERSION", "v3"))
	if !ok {
		return nil, fmt.Errorf("UA_API_VERSION must be legacy or v3")
	}
	kind, ok := payload.ParseMessageKind(getEnvString("UA_MESSAGE_KIND", "plain"))
	if !ok {
		return nil, fmt.Errorf("UA_MESSAGE_KIND must be plain or rich")
	}
	cfg.Variant = payload.Variant{Version: version, Kind: kind}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.AppKey == "" {
		return fmt.Errorf("UA_APP_KEY environment variable is required")
	}
	if c.MasterSecret == "" {
		return fmt.Errorf("UA_MASTER_SECRET environment variable is required")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("UA_RETRY_ATTEMPTS must be at least 1")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("UA_RETRY_DELAY_MS must not be negative")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMillis)) * time.Millisecond
}
