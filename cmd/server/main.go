package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ocstat/internal/app"
	"ocstat/internal/shared/configs"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "./configs/configs.yml", "path to the yaml config file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	// Environment overrides (OCSTAT_*) may live in a dotenv file next to the binary.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := configs.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize application
	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	// Start server in goroutine
	startErr := make(chan error, 1)
	go func() {
		if err := application.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			startErr <- err
		}
	}()

	fmt.Println("Server started")

	// Wait for interrupt signal or a failed start
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	exitCode := 0
	select {
	case <-quit:
	case err := <-startErr:
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		exitCode = 1
	}

	// Graceful shutdown, including the final checkpoint
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server forced to shutdown: %v\n", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}
