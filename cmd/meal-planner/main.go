// Package main implements the meal-planner binary: an HTTP server over the
// household meal planning core, plus a seed command for first-run data.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"household-meal-planner/internal/config"
	"household-meal-planner/internal/database"
	"household-meal-planner/internal/logging"
	"household-meal-planner/internal/server"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "meal-planner",
	Short: "Household meal planning and shopping list server",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed meal types, shopping categories, and stores",
	Long: `Seed the database with starter meal types, shopping categories, and
stores with per-store category orders. Safe to run repeatedly: existing rows
are left untouched.`,
	RunE: runSeed,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	srv := server.NewServer(db, logger, server.Config{Host: cfg.HTTP.Host, Port: cfg.HTTP.Port})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := seed(cmd.Context(), db); err != nil {
		return err
	}
	fmt.Println("Seeded initial data.")
	return nil
}
