// Package config loads runtime settings from a .env file and the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every setting the CLI and the server read.
type Config struct {
	Port         string
	DatabasePath string
	LogLevel     string
	LogFormat    string
	RulesPath    string

	MaxUploadSizeBytes int64
	ExtractTimeout     time.Duration
	ExtractCacheTTL    time.Duration
	OCRLanguage        string
	// StaticDir holds the web client served at /. Empty serves the API only.
	StaticDir string

	// FiscalYear resolves M/D statement dates. Zero means the current year.
	FiscalYear int
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:               "8080",
		DatabasePath:       "./budget.db",
		LogLevel:           "info",
		LogFormat:          "console",
		MaxUploadSizeBytes: 10 << 20,
		ExtractTimeout:     2 * time.Minute,
		ExtractCacheTTL:    15 * time.Minute,
		OCRLanguage:        "eng",
	}
}

// Load reads the given .env files (".env" when none are named), then the
// environment. Missing .env files are not an error; variables already set in
// the environment win over file values.
func Load(log zerolog.Logger, files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Debug().Str("file", f).Msg("no .env file, using environment")
				continue
			}
			return Config{}, err
		}
		log.Debug().Str("file", f).Msg("loaded .env file")
	}

	d := Default()
	cfg := Config{
		Port:               getEnv("PORT", d.Port),
		DatabasePath:       getEnv("DATABASE_PATH", d.DatabasePath),
		LogLevel:           getEnv("LOG_LEVEL", d.LogLevel),
		LogFormat:          getEnv("LOG_FORMAT", d.LogFormat),
		RulesPath:          getEnv("RULES_PATH", d.RulesPath),
		MaxUploadSizeBytes: getEnvAsInt64(log, "MAX_UPLOAD_SIZE_BYTES", d.MaxUploadSizeBytes),
		ExtractTimeout:     getEnvAsDuration(log, "EXTRACT_TIMEOUT", d.ExtractTimeout),
		ExtractCacheTTL:    getEnvAsDuration(log, "EXTRACT_CACHE_TTL", d.ExtractCacheTTL),
		OCRLanguage:        getEnv("OCR_LANGUAGE", d.OCRLanguage),
		StaticDir:          getEnv("STATIC_DIR", d.StaticDir),
		FiscalYear:         int(getEnvAsInt64(log, "FISCAL_YEAR", 0)),
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvAsInt64(log zerolog.Logger, key string, fallback int64) int64 {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		log.Warn().Str("key", key).Str("value", s).Int64("default", fallback).Msg("invalid integer, using default")
		return fallback
	}
	return v
}

func getEnvAsDuration(log zerolog.Logger, key string, fallback time.Duration) time.Duration {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	v, err := time.ParseDuration(s)
	if err != nil || v <= 0 {
		log.Warn().Str("key", key).Str("value", s).Dur("default", fallback).Msg("invalid duration, using default")
		return fallback
	}
	return v
}
