// Package main is the entry point for the backend API server.
package main

import (
	"context"
	"fmt"
	"os"

	"backend/bootstrap"
	"backend/cmd"
)

// run initializes and starts the backend server.
func run(configFile string) error {
	ctx := context.Background()

	// Create and initialize application
	app, err := bootstrap.NewApp(ctx, configFile)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	// Start the connection attempt and the listeners
	if err := app.Start(ctx); err != nil {
		app.Sugar.Errorw("Failed to start server", "error", err)
		app.Shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	// Wait for shutdown signal
	app.WaitForShutdown()

	// Graceful shutdown
	app.Shutdown()

	return nil
}

// main is the entry point.
func main() {
	if err := cmd.NewRootCmd(run).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
