package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/theimaginaryfoundation/rewind-o-bot/rewind"
	"github.com/theimaginaryfoundation/rewind-o-bot/rewind/fileutils"
	"github.com/theimaginaryfoundation/rewind-o-bot/rewind/logging"
	"github.com/theimaginaryfoundation/rewind-o-bot/rewind/provider"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	logger, closeLog := logging.Setup(cfg.LogFile, level)
	defer func() { _ = closeLog() }()

	if cfg.Schema {
		if err := writeSchema(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := run(ctx, cfg, os.Stdout, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		_ = closeLog()
		os.Exit(1)
	}

	summary := os.Stdout
	if cfg.OutputPath == stdoutPath {
		summary = os.Stderr
	}
	fmt.Fprintf(summary, "conversations_read=%d eligible_conversations=%d prompts=%d active_days=%d bytes_read=%d out=%s\n",
		res.Read.Conversations, res.Stats.TotalConversations, res.Stats.TotalPrompts, res.Stats.ActiveDays, res.Read.Bytes, cfg.OutputPath)
}

type runResult struct {
	Stats rewind.Stats
	Read  rewind.ReadResult
}

// run aggregates the export and writes the report, plus the story when one is requested.
func run(ctx context.Context, cfg Config, stdout io.Writer, logger *slog.Logger) (runResult, error) {
	if cfg.OutputPath != stdoutPath && !cfg.Overwrite && fileutils.FileExists(cfg.OutputPath) {
		return runResult{}, fmt.Errorf("run: output exists (use -overwrite): %s", cfg.OutputPath)
	}

	f, err := os.Open(cfg.InputPath)
	if err != nil {
		return runResult{}, fmt.Errorf("run: open input: %w", err)
	}
	defer f.Close()

	stats, read, err := rewind.AggregateArchive(ctx, f, rewind.ArchiveOptions{
		Options: rewind.Options{Year: cfg.Year},
		Read:    rewind.ReadOptions{ArrayField: cfg.ArrayField},
		Logger:  logger,
	})
	if err != nil {
		if errors.Is(err, rewind.ErrInvalidArchive) {
			return runResult{}, fmt.Errorf("run: %s: %w", cfg.InputPath, err)
		}
		return runResult{}, err
	}

	if err := writeReport(cfg, stats, stdout); err != nil {
		return runResult{}, err
	}
	logger.Info("stats written", "out", cfg.OutputPath, "format", cfg.Format, "prompts", stats.TotalPrompts)

	if cfg.StoryPath != "" {
		if err := rewind.WriteStory(cfg.StoryPath, stats, rewind.StoryOptions{Year: cfg.Year, IncludeCharts: cfg.Charts}, cfg.Overwrite); err != nil {
			return runResult{}, fmt.Errorf("run: %w", err)
		}
		logger.Info("story written", "out", cfg.StoryPath)
	}

	return runResult{Stats: stats, Read: read}, nil
}

func writeReport(cfg Config, stats rewind.Stats, stdout io.Writer) error {
	if cfg.OutputPath == stdoutPath {
		var b []byte
		var err error
		if cfg.Format == "yaml" {
			b, err = fileutils.MarshalYAML(stats)
		} else {
			b, err = fileutils.MarshalJSON(stats, cfg.Pretty)
		}
		if err != nil {
			return fmt.Errorf("writeReport: encode: %w", err)
		}
		if len(b) > 0 && b[len(b)-1] != '\n' {
			b = append(b, '\n')
		}
		if _, err := stdout.Write(b); err != nil {
			return fmt.Errorf("writeReport: write stdout: %w", err)
		}
		return nil
	}

	var err error
	if cfg.Format == "yaml" {
		err = fileutils.WriteYAMLFileAtomic(cfg.OutputPath, stats)
	} else {
		err = fileutils.WriteJSONFileAtomic(cfg.OutputPath, stats, cfg.Pretty)
	}
	if err != nil {
		return fmt.Errorf("writeReport: %w", err)
	}
	return nil
}

func writeSchema(w io.Writer) error {
	b, err := json.MarshalIndent(provider.Reflect(rewind.Stats{}), "", "  ")
	if err != nil {
		return fmt.Errorf("writeSchema: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
