package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/theimaginaryfoundation/rewind-o-bot/rewind/api"
	"github.com/theimaginaryfoundation/rewind-o-bot/rewind/logging"
)

func main() {
	cfg := loadConfig()
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
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	logger.Info("rewind-server starting", "port", cfg.Port, "year", cfg.Year, "max_reports", cfg.MaxReports)
	srv := api.NewServer(api.Config{
		Port:           cfg.Port,
		MaxUploadBytes: cfg.MaxUploadBytes,
		MaxReports:     cfg.MaxReports,
		Year:           cfg.Year,
	}, logger)

	err = srv.Start(ctx)
	stop()
	if err != nil {
		logger.Error("server stopped", "error", err)
		_ = closeLog()
		os.Exit(1)
	}
	logger.Info("rewind-server stopped")
	_ = closeLog()
}
