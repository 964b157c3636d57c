// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// logoutCmd clears the stored session. The backend is notified on a
// best-effort basis; the local session is removed even when it is unreachable.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.Tokens.HasToken() {
			pterm.Info.Println("You are not logged in.")
			return nil
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.Timeout())
		defer cancel()
		a.Auth.Logout(ctx)
		pterm.Success.Println("Logged out. Your session token has been removed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
