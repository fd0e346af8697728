package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"safetravel/pkg/logger"
)

type Config struct {
	App       *AppConfig       `yaml:"app"`
	Logger    *LoggerConfig    `yaml:"logger"`
	Store     *StoreConfig     `yaml:"store"`
	SMS       *SMSConfig       `yaml:"sms"`
	Push      *PushConfig      `yaml:"push"`
	Storage   *StorageConfig   `yaml:"storage"`
	Maps      *MapsConfig      `yaml:"maps"`
	Emergency *EmergencyConfig `yaml:"emergency"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	Timezone    string `yaml:"timezone"`
	Language    string `yaml:"language"`
	OwnerName   string `yaml:"owner_name"`
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	TimeFormat string `yaml:"time_format"`
	Caller     bool   `yaml:"caller"`
	Colors     bool   `yaml:"colors"`
}

func Load() (*Config, error) {
	config := fromEnv()

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFile loads the environment configuration and overlays the YAML file at
// path on top of it. Keys absent from the file keep their env-derived value.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse overlays YAML bytes on the environment configuration.
func Parse(data []byte) (*Config, error) {
	config := fromEnv()

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func fromEnv() *Config {
	return &Config{
		App:       loadAppConfig(),
		Logger:    loadLoggerConfig(),
		Store:     loadStoreConfig(),
		SMS:       loadSMSConfig(),
		Push:      loadPushConfig(),
		Storage:   loadStorageConfig(),
		Maps:      loadMapsConfig(),
		Emergency: loadEmergencyConfig(),
	}
}

// LoggerConfig converts the logging section into the logger package's form.
func (c *Config) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      logger.LogLevel(c.Logger.Level),
		Format:     c.Logger.Format,
		Output:     c.Logger.Output,
		TimeFormat: c.Logger.TimeFormat,
		Caller:     c.Logger.Caller,
		Colors:     c.Logger.Colors,
		AppName:    c.App.Name,
		Version:    c.App.Version,
	}
}

func (c *Config) validate() error {
	var errs []string

	switch c.Store.Driver {
	case "memory", "file", "redis", "mongodb":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of memory, file, redis, mongodb", c.Store.Driver))
	}
	if c.Store.Driver == "file" && c.Store.FileDir == "" {
		errs = append(errs, "store.file_dir is required for the file driver")
	}

	switch c.SMS.Provider {
	case "", "none", "twilio", "aws":
	default:
		errs = append(errs, fmt.Sprintf("sms.provider %q is not one of twilio, aws, none", c.SMS.Provider))
	}

	switch c.Storage.Provider {
	case "", "none", "local", "aws", "gcp":
	default:
		errs = append(errs, fmt.Sprintf("storage.provider %q is not one of local, aws, gcp, none", c.Storage.Provider))
	}

	e := c.Emergency
	if e.AccessCodeLength < 1 {
		errs = append(errs, "emergency.access_code_length must be positive")
	}
	if e.PrivateCodeLength < 1 {
		errs = append(errs, "emergency.private_code_length must be positive")
	}
	if e.LocationTimeout <= 0 {
		errs = append(errs, "emergency.location_timeout must be positive")
	}
	if e.CleanupSchedule == "" {
		errs = append(errs, "emergency.cleanup_schedule is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "SafeTravel"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "development"),
		Timezone:    getEnv("APP_TIMEZONE", "UTC"),
		Language:    getEnv("APP_LANGUAGE", "en"),
		OwnerName:   getEnv("APP_OWNER_NAME", ""),
	}
}

func loadLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Format:     getEnv("LOG_FORMAT", "text"),
		Output:     getEnv("LOG_OUTPUT", "stderr"),
		TimeFormat: getEnv("LOG_TIME_FORMAT", ""),
		Caller:     getEnvAsBool("LOG_CALLER", false),
		Colors:     getEnvAsBool("LOG_COLORS", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func IsProduction() bool {
	return getEnv("APP_ENV", "development") == "production"
}

func IsDevelopment() bool {
	return getEnv("APP_ENV", "development") == "development"
}
