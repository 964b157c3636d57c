package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"parentportal/cli/internal/auth"
)

// whoamiCmd verifies the stored session and shows who it belongs to.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Long: `The whoami command verifies the stored session with the Parent Portal and
shows the account it belongs to. A session the portal no longer accepts is
removed, and you are asked to log in again.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		var snap auth.Snapshot
		withSpinner("Verifying session", func() {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.Timeout())
			defer cancel()
			snap = a.Auth.Bootstrap(ctx)
		})

		if !snap.IsAuthenticated {
			pterm.Info.Println("You're not logged in.")
			pterm.Println("  Run 'portal login' to get started.")
			return nil
		}

		u := snap.User
		rows := [][]string{{"User", u.DisplayName()}, {"ID", u.ID}}
		if u.Email != "" {
			rows = append(rows, []string{"Email", u.Email})
		}
		if len(u.Roles) > 0 {
			rows = append(rows, []string{"Roles", strings.Join(u.Roles, ", ")})
		}
		if tok, ok := a.Tokens.Token(); ok {
			if c, ok := auth.ParseClaims(tok); ok && !c.ExpiresAt.IsZero() {
				rows = append(rows, []string{"Session expires", fmt.Sprintf("%s (in %s)",
					c.ExpiresAt.Local().Format(time.RFC1123), time.Until(c.ExpiresAt).Round(time.Minute))})
			}
		}
		return pterm.DefaultTable.WithData(rows).Render()
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
