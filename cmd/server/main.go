package main

import (
	"context"
	"log/slog"
	"os"

	"twin-dashboard/internal/app"
)

func main() {
	ctx := context.Background()

	application, err := app.New(ctx)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
