package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/theimaginaryfoundation/rewind-o-bot/rewind/fileutils"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths := artifactPaths(cfg.BaseDir)
	for _, stage := range selectStages(cfg) {
		switch stage {
		case "stats", "narrate":
			if !cfg.Overwrite && stageDone(stage, paths) {
				fmt.Fprintln(os.Stdout, "skip "+stage+": output already exists")
				continue
			}
			if err := runGo(ctx, stageArgs(stage, cfg, paths)...); err != nil {
				stop()
				os.Exit(1)
			}
		case "publish":
			if cfg.PublishDir == "" {
				fmt.Fprintln(os.Stdout, "skip publish: no -publish-dir")
				continue
			}
			n, err := publish(paths, cfg.PublishDir, cfg.Overwrite)
			if err != nil {
				fmt.Fprintln(os.Stderr, "publish failed:", err.Error())
				stop()
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "published=%d dir=%s\n", n, cfg.PublishDir)
		}
	}
}

type artifacts struct {
	Stats     string
	Story     string
	Narrative string
}

func artifactPaths(base string) artifacts {
	return artifacts{
		Stats:     filepath.Join(base, "stats.json"),
		Story:     filepath.Join(base, "story.md"),
		Narrative: filepath.Join(base, "narrative.json"),
	}
}

func selectStages(cfg Config) []string {
	if cfg.OnlyStage != "" {
		return []string{cfg.OnlyStage}
	}
	if cfg.FromStage != "" {
		return stagesFrom(allStages, cfg.FromStage)
	}
	return allStages
}

func stageDone(stage string, p artifacts) bool {
	switch stage {
	case "stats":
		return fileutils.FileExists(p.Stats) && fileutils.FileExists(p.Story)
	case "narrate":
		return fileutils.FileExists(p.Narrative)
	}
	return false
}

// stageArgs builds the `go run` argument list for a command-backed stage.
func stageArgs(stage string, cfg Config, p artifacts) []string {
	var args []string
	switch stage {
	case "stats":
		args = []string{
			"run", "./cmd/rewind-stats",
			"-in", cfg.ConversationsPath,
			"-out", p.Stats,
			"-story", p.Story,
			"-year", fmt.Sprintf("%d", cfg.Year),
		}
		if cfg.Charts {
			args = append(args, "-charts")
		}
	case "narrate":
		args = []string{
			"run", "./cmd/rewind-narrator",
			"-in", p.Stats,
			"-out", p.Narrative,
			"-model", cfg.Model,
			"-year", fmt.Sprintf("%d", cfg.Year),
		}
		if cfg.PromptFile != "" {
			args = append(args, "-prompt-file", cfg.PromptFile)
		}
	default:
		return nil
	}
	if cfg.Pretty {
		args = append(args, "-pretty")
	}
	if cfg.Overwrite {
		args = append(args, "-overwrite")
	}
	if cfg.LogLevel != "" {
		args = append(args, "-log-level", cfg.LogLevel)
	}
	return args
}

// publish copies whichever artifacts exist into dir and returns how many were copied.
func publish(p artifacts, dir string, overwrite bool) (int, error) {
	n := 0
	for _, src := range []string{p.Stats, p.Story, p.Narrative} {
		copied, err := fileutils.CopyFileIfExists(src, filepath.Join(dir, filepath.Base(src)), overwrite)
		if err != nil {
			return n, fmt.Errorf("publish %s: %w", src, err)
		}
		if copied {
			n++
		}
	}
	return n, nil
}

func runGo(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "command failed:", "go "+strings.Join(args, " "))
		fmt.Fprintln(os.Stderr, "error:", err.Error())
		return err
	}
	fmt.Fprintln(os.Stdout, "ok:", "go "+strings.Join(args, " "), "(", time.Since(start).Round(time.Millisecond).String()+")")
	return nil
}

func stagesFrom(stages []string, from string) []string {
	from = strings.ToLower(strings.TrimSpace(from))
	for i, s := range stages {
		if s == from {
			return stages[i:]
		}
	}
	return stages
}
