package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	OCR      OCRConfig
	Match    MatchConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN         string
	DialTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftoppm    string
	Pdftotext   string
	Tesseract   string
	TessdataDir string
	Lang        string
	DPI         int
	Preprocess  bool
}

// MatchConfig holds the empirically tuned matcher thresholds. They were tuned
// against one language/layout family and must be re-tuned for others.
type MatchConfig struct {
	Threshold     float64
	CoverageFloor float64
}

// PipelineConfig holds orchestration tunables.
type PipelineConfig struct {
	MinTextLen  int
	Concurrency int
	ForceOCR    bool
	Verbose     bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:         getEnv("DB_URL", "fleetscan.db"),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Pdftotext:   getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Lang:        getEnv("TESSERACT_LANG", "deu"),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			Preprocess:  getEnvAsBool("OCR_PREPROCESS", true),
		},
		Match: MatchConfig{
			Threshold:     getEnvAsFloat64("MATCH_THRESHOLD", 65),
			CoverageFloor: getEnvAsFloat64("MATCH_COVERAGE_FLOOR", 0.5),
		},
		Pipeline: PipelineConfig{
			MinTextLen:  getEnvAsInt("MIN_TEXT_LEN", 40),
			Concurrency: getEnvAsInt("BATCH_CONCURRENCY", 2),
			ForceOCR:    getEnvAsBool("FORCE_OCR", false),
			Verbose:     getEnvAsBool("VERBOSE", false),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Match.Threshold <= 0 || c.Match.Threshold > 100 {
		return NewAppError("CONFIG_ERROR", "MATCH_THRESHOLD must be in (0,100]", ErrInvalidInput)
	}
	if c.Match.CoverageFloor < 0 || c.Match.CoverageFloor > 1 {
		return NewAppError("CONFIG_ERROR", "MATCH_COVERAGE_FLOOR must be in [0,1]", ErrInvalidInput)
	}
	return nil
}
