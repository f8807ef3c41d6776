package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theimaginaryfoundation/rewind-o-bot/rewind"
)

type Config struct {
	InPath     string
	OutPath    string
	Model      string
	APIKey     string
	PromptFile string
	Year       int
	Pretty     bool
	Overwrite  bool

	MaxOutputTokens int
	MaxInputChars   int

	LogFile  string
	LogLevel string
}

func (c Config) Validate() error {
	if c.InPath == "" {
		return errors.New("missing -in")
	}
	if c.OutPath == "" {
		return errors.New("missing -out")
	}
	if c.InPath == c.OutPath {
		return errors.New("-out must differ from -in")
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.Year < 1 || c.Year > 9999 {
		return fmt.Errorf("invalid -year %d", c.Year)
	}
	if c.MaxOutputTokens <= 0 {
		return errors.New("max-output-tokens must be > 0")
	}
	if c.MaxInputChars < 0 {
		return errors.New("max-input-chars must be >= 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InPath:          filepath.FromSlash("docs/rewind/stats.json"),
		OutPath:         filepath.FromSlash("docs/rewind/narrative.json"),
		Model:           "gpt-5-mini",
		Year:            rewind.DefaultYear,
		MaxOutputTokens: 2500,
		MaxInputChars:   40_000,
		LogLevel:        "info",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InPath, "in", cfg.InPath, "Stats report JSON written by rewind-stats")
	fs.StringVar(&cfg.OutPath, "out", cfg.OutPath, "Where to write the narrative JSON")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model name")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (defaults to OPENAI_API_KEY)")
	fs.StringVar(&cfg.PromptFile, "prompt-file", "", "Optional file whose contents replace the narrator prompt header")
	fs.IntVar(&cfg.Year, "year", cfg.Year, "Year the report covers")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print the narrative JSON")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite an existing narrative")
	fs.IntVar(&cfg.MaxOutputTokens, "max-output-tokens", cfg.MaxOutputTokens, "Upper bound on model output tokens")
	fs.IntVar(&cfg.MaxInputChars, "max-input-chars", cfg.MaxInputChars, "Truncate the stats digest sent to the model (0 = no limit)")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Also append JSON logs to this file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  OPENAI_API_KEY=... go run ./cmd/rewind-narrator -pretty")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/rewind-narrator -in docs/rewind/stats.json -out docs/rewind/narrative.json -model gpt-5-mini")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.InPath = filepath.Clean(cfg.InPath)
	cfg.OutPath = filepath.Clean(cfg.OutPath)
	return cfg, nil
}
