// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Parent Portal client.
// Each subcommand lives in its own file and builds its dependencies through
// internal/app from the loaded configuration.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"parentportal/cli/internal/app"
	"parentportal/cli/internal/config"
)

var (
	configPath string
	baseURL    string
	verbose    bool

	cfg config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "portal",
	Short:         "Parent Portal client",
	Long:          `portal signs you in to the Parent Portal and serves it locally with protected routes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if baseURL != "" {
			c.BaseURL = baseURL
		}
		if verbose {
			c.LogLevel = "debug"
		}
		cfg = c
		return nil
	},
}

// Execute runs the CLI application. SIGINT and SIGTERM cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/parentportal/config.json)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Override the Parent Portal API base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// openApp builds the dependencies for one command run.
func openApp(cmd *cobra.Command, jsonLogs bool) (*app.App, error) {
	return app.New(cmd.Context(), app.Options{
		Config:    cfg,
		LogWriter: cmd.ErrOrStderr(),
		JSONLogs:  jsonLogs,
	})
}
