// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show client and backend versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.Timeout())
		defer cancel()
		backendVersion, err := a.API.GetVersion(ctx)
		if err != nil || backendVersion == "" {
			backendVersion = "unknown"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "portal %s\nbackend %s\n", Version, backendVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
