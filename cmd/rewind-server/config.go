package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/theimaginaryfoundation/rewind-o-bot/rewind"
)

type Config struct {
	Port           int
	LogLevel       string
	LogFile        string
	MaxUploadBytes int64
	MaxReports     int
	Year           int
}

func loadConfig() Config {
	return Config{
		Port:           envInt("REWIND_PORT", 8080),
		LogLevel:       envStr("REWIND_LOG_LEVEL", "info"),
		LogFile:        envStr("REWIND_LOG_FILE", ""),
		MaxUploadBytes: int64(envInt("REWIND_MAX_UPLOAD_BYTES", 512<<20)),
		MaxReports:     envInt("REWIND_MAX_REPORTS", 100),
		Year:           envInt("REWIND_YEAR", rewind.DefaultYear),
	}
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid REWIND_PORT %d", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("REWIND_MAX_UPLOAD_BYTES must be > 0")
	}
	if c.MaxReports < 0 {
		return errors.New("REWIND_MAX_REPORTS must be >= 0")
	}
	if c.Year < 1 || c.Year > 9999 {
		return fmt.Errorf("invalid REWIND_YEAR %d", c.Year)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
