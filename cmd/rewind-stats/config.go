package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theimaginaryfoundation/rewind-o-bot/rewind"
)

const stdoutPath = "-"

type Config struct {
	InputPath  string
	OutputPath string
	StoryPath  string
	ArrayField string
	Format     string
	Year       int
	Pretty     bool
	Overwrite  bool
	Charts     bool
	Schema     bool

	LogFile  string
	LogLevel string
}

func (c Config) Validate() error {
	if c.Schema {
		return nil
	}
	if c.InputPath == "" {
		return errors.New("missing -in")
	}
	if c.OutputPath == "" {
		return errors.New("missing -out")
	}
	if c.Format != "json" && c.Format != "yaml" {
		return fmt.Errorf("invalid -format %q (want json or yaml)", c.Format)
	}
	if c.Year < 1 || c.Year > 9999 {
		return fmt.Errorf("invalid -year %d", c.Year)
	}
	if c.StoryPath != "" && c.StoryPath == c.OutputPath {
		return errors.New("-story must differ from -out")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputPath:  filepath.FromSlash("docs/rewind/conversations.json"),
		OutputPath: filepath.FromSlash("docs/rewind/stats.json"),
		Format:     "json",
		Year:       rewind.DefaultYear,
		LogLevel:   "info",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Path to conversations.json (OpenAI export)")
	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "Where to write the stats report (- for stdout)")
	fs.StringVar(&cfg.StoryPath, "story", "", "Optional path for the markdown story")
	fs.StringVar(&cfg.ArrayField, "array-field", "", "If top-level JSON is an object, name of field containing conversations array (e.g. conversations)")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Report format: json or yaml")
	fs.IntVar(&cfg.Year, "year", cfg.Year, "UTC calendar year to report on")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print JSON output")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing output files")
	fs.BoolVar(&cfg.Charts, "charts", false, "Append weekday/hour tables to the story")
	fs.BoolVar(&cfg.Schema, "schema", false, "Print the JSON Schema of the stats report and exit")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Also append JSON logs to this file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/rewind-stats -pretty -overwrite")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/rewind-stats -in conversations.json -out - -format yaml -year 2024")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/rewind-stats -story docs/rewind/story.md -charts")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.InputPath = filepath.Clean(cfg.InputPath)
	if cfg.OutputPath != stdoutPath {
		cfg.OutputPath = filepath.Clean(cfg.OutputPath)
	}
	if cfg.StoryPath != "" {
		cfg.StoryPath = filepath.Clean(cfg.StoryPath)
	}
	return cfg, nil
}
