package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"parentportal/cli/internal/backend"
	perrors "parentportal/cli/internal/errors"
	"parentportal/cli/internal/httperrors"
)

// listCmd prints one of the portal's data lists.
var listCmd = &cobra.Command{
	Use:       "list <resource>",
	Short:     "List service requests, contracts or customers",
	Args:      cobra.ExactArgs(1),
	ValidArgs: backend.Resources,
	RunE: func(cmd *cobra.Command, args []string) error {
		resource := args[0]
		if !backend.IsResource(resource) {
			return fmt.Errorf("unknown resource %q (want one of %s)", resource, strings.Join(backend.Resources, ", "))
		}

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		var items []map[string]any
		withSpinner("Loading "+resource, func() {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.Timeout())
			defer cancel()
			if snap := a.Auth.Bootstrap(ctx); !snap.IsAuthenticated {
				err = perrors.New(perrors.AuthRejected, "not logged in")
				return
			}
			items, err = a.API.List(ctx, resource)
		})
		if err != nil {
			httperrors.Print(err, "loading "+resource, a.Config.BaseURL)
			return fmt.Errorf("list %s failed", resource)
		}

		if len(items) == 0 {
			pterm.Info.Println("Nothing here yet.")
			return nil
		}
		cols, rows := backend.Tabulate(items)
		return pterm.DefaultTable.WithHasHeader().WithData(append([][]string{cols}, rows...)).Render()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
