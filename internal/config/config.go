package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MappingFilePath  string
	StockFilePath    string
	TemplateFilePath string
	OutputPath       string
	MissingItemsPath string
	ReportPath       string
	ProfilePath      string

	BatchSize int

	ImageTimeoutMs     int
	ImageQuality       int
	ImageMaxWidth      int
	ImageMaxHeight     int
	ImageWorkers       int
	ImageFetchAttempts int

	ImageRequestsPerSecond int

	LogLevel string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		MappingFilePath:  getEnv("MAPPING_FILE_PATH", "mapping-file.xlsx"),
		StockFilePath:    getEnv("STOCK_FILE_PATH", "stock.xlsx"),
		TemplateFilePath: getEnv("TEMPLATE_FILE_PATH", "template-generator.pptx"),
		OutputPath:       getEnv("OUTPUT_PATH", "generated_presentation.pptx"),
		MissingItemsPath: getEnv("MISSING_ITEMS_PATH", "missing_items.txt"),
		ReportPath:       getEnv("REPORT_PATH", ""),
		ProfilePath:      getEnv("DECK_PROFILE_PATH", ""),

		BatchSize: getEnvInt("BATCH_SIZE", 10),

		ImageTimeoutMs:     getEnvInt("IMAGE_TIMEOUT_MS", 30000),
		ImageQuality:       getEnvInt("IMAGE_QUALITY", 70),
		ImageMaxWidth:      getEnvInt("IMAGE_MAX_WIDTH", 1200),
		ImageMaxHeight:     getEnvInt("IMAGE_MAX_HEIGHT", 1200),
		ImageWorkers:       getEnvInt("IMAGE_WORKERS", 5),
		ImageFetchAttempts: getEnvInt("IMAGE_FETCH_ATTEMPTS", 1),

		ImageRequestsPerSecond: getEnvInt("IMAGE_REQUESTS_PER_SECOND", 0),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		return fmt.Errorf("IMAGE_QUALITY must be within 1..100, got %d", c.ImageQuality)
	}
	if c.ImageMaxWidth <= 0 || c.ImageMaxHeight <= 0 {
		return fmt.Errorf("IMAGE_MAX_WIDTH/IMAGE_MAX_HEIGHT must be positive")
	}
	if c.ImageRequestsPerSecond < 0 {
		return fmt.Errorf("IMAGE_REQUESTS_PER_SECOND must not be negative, got %d", c.ImageRequestsPerSecond)
	}
	if c.ImageWorkers <= 0 {
		return fmt.Errorf("IMAGE_WORKERS must be positive, got %d", c.ImageWorkers)
	}
	return nil
}

func (c Config) ImageTimeout() time.Duration {
	return time.Duration(c.ImageTimeoutMs) * time.Millisecond
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required setting: %s", name)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level; unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
