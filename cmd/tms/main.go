package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"tms/internal/api"
	"tms/internal/bootstrap"
	"tms/internal/config"
	"tms/internal/db"
	"tms/internal/logging"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:          "tms",
		Short:        "Task management HTTP API",
		SilenceUsage: true,
		Run: func(*cobra.Command, []string) {
			os.Exit(serve(configPath))
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the config file")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(configPath string) int {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("Failed to set up logging: %v", err)
	}
	log.Info("Starting task management service...")

	ctx := context.Background()

	if cfg.Database.AutoCreate {
		res, err := bootstrap.Check(ctx, cfg.Database, log)
		if err != nil {
			log.Fatalf("Database check failed: %v", err)
		}
		log.WithField("database", cfg.Database.DBName).Infof("Database check: %s", res)
	}

	// Initialize database
	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	handler := api.NewHandler(database, database, log)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, cfg.Server.Mode),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for a shutdown signal, then stop the server before the pool
	wait := gfshutdown.GracefulShutdown(ctx, cfg.Server.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			log.Info("Shutdown signal received")
			err := srv.Shutdown(ctx)
			database.Close()
			return err
		},
	})

	code := <-wait
	log.WithField("code", code).Info("Application shutdown complete")
	return code
}
