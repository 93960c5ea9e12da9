package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/zyntracker/internal/cli"
	"github.com/dmitrijs2005/zyntracker/internal/logging"
)

func main() {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := logging.NewSlogLogger(slog.New(h))

	os.Exit(cli.Execute(context.Background(), os.Args[1:], cli.WithLogger(logger)))
}
