package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theimaginaryfoundation/rewind-o-bot/rewind"
)

var allStages = []string{"stats", "narrate", "publish"}

type Config struct {
	ConversationsPath string
	BaseDir           string
	PublishDir        string

	Year  int
	Model string

	FromStage string
	OnlyStage string

	Pretty    bool
	Overwrite bool
	Charts    bool

	PromptFile string
	LogLevel   string
}

func (c Config) Validate() error {
	if c.ConversationsPath == "" {
		return errors.New("missing -conversations")
	}
	if c.BaseDir == "" {
		return errors.New("missing -base-dir")
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.Year < 1 || c.Year > 9999 {
		return fmt.Errorf("invalid -year %d", c.Year)
	}
	if c.OnlyStage != "" && c.FromStage != "" {
		return errors.New("use only one of -only-stage or -from-stage")
	}
	for _, s := range []string{c.OnlyStage, c.FromStage} {
		if s != "" && !isStage(s) {
			return fmt.Errorf("unknown stage %q", s)
		}
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		ConversationsPath: filepath.FromSlash("docs/rewind/conversations.json"),
		BaseDir:           filepath.FromSlash("docs/rewind"),
		Year:              rewind.DefaultYear,
		Model:             "gpt-5-mini",
		LogLevel:          "info",
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.ConversationsPath, "conversations", cfg.ConversationsPath, "Path to conversations.json")
	fs.StringVar(&cfg.BaseDir, "base-dir", cfg.BaseDir, "Base output directory for stats, story and narrative")
	fs.StringVar(&cfg.PublishDir, "publish-dir", "", "Copy the finished artifacts here (publish stage; empty skips it)")
	fs.IntVar(&cfg.Year, "year", cfg.Year, "UTC calendar year to report on")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model for the narrate stage (uses OPENAI_API_KEY)")
	fs.StringVar(&cfg.FromStage, "from-stage", "", "Start at stage: stats|narrate|publish")
	fs.StringVar(&cfg.OnlyStage, "only-stage", "", "Run only one stage: stats|narrate|publish")
	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "Pretty-print JSON outputs")
	fs.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Overwrite existing outputs")
	fs.BoolVar(&cfg.Charts, "charts", cfg.Charts, "Include weekday/hour tables in the story")
	fs.StringVar(&cfg.PromptFile, "prompt-file", "", "Optional narrator prompt header file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level passed to every stage")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.ConversationsPath = filepath.Clean(cfg.ConversationsPath)
	cfg.BaseDir = filepath.Clean(cfg.BaseDir)
	if cfg.PublishDir != "" {
		cfg.PublishDir = filepath.Clean(cfg.PublishDir)
	}
	if cfg.PromptFile != "" {
		cfg.PromptFile = filepath.Clean(cfg.PromptFile)
	}
	return cfg, nil
}

func isStage(s string) bool {
	for _, st := range allStages {
		if st == s {
			return true
		}
	}
	return false
}
