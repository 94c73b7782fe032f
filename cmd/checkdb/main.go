package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tms/internal/bootstrap"
	"tms/internal/config"
	"tms/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "checkdb",
		Short:         "Check if the database exists. If not, create it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the config file")
	return cmd
}

func run(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(out, "Error loading .env file: %v\n", err)
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(out, "Failed to load config: %v\n", err)
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(out, "Failed to set up logging: %v\n", err)
		return err
	}

	res, err := bootstrap.Check(context.Background(), cfg.Database, log)
	if err != nil {
		var cerr *bootstrap.ConnectionError
		if errors.As(err, &cerr) {
			fmt.Fprintf(out, "Database %q is not reachable: %v\n", cfg.Database.DBName, cerr.Err)
		} else {
			fmt.Fprintf(out, "Failed to create database: %v\n", err)
		}
		return err
	}

	switch res {
	case bootstrap.Created:
		fmt.Fprintf(out, "Database %q created successfully.\n", cfg.Database.DBName)
	default:
		fmt.Fprintf(out, "Database %q exists and is reachable.\n", cfg.Database.DBName)
	}
	return nil
}
