// Package main provides the entry point for the voice enhancement service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/Raikerian/go-voice-enhancer/internal/app"
	"github.com/Raikerian/go-voice-enhancer/internal/infrastructure"
)

func main() {
	configPath := "config.yaml"
	if p := os.Getenv("ENHANCER_CONFIG"); p != "" {
		configPath = p
	}

	application := app.New(
		app.Modules(),

		// Supply the config path
		fx.Supply(configPath),

		// Configure Fx to use our Zap logger for its own internal logging
		fx.WithLogger(infrastructure.NewFxLogger),
	)
	if err := application.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build application: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go application.Run()

	sig := <-sigCh
	fmt.Printf("Received signal: %s, initiating shutdown.\n", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := application.Stop(shutdownCtx)
	cancel()

	if err != nil {
		fmt.Printf("Error during shutdown: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Application has shut down gracefully.")
}
