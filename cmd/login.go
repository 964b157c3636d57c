// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"errors"
	"os"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"parentportal/cli/internal/auth"
	"parentportal/cli/internal/backend"
	perrors "parentportal/cli/internal/errors"
	"parentportal/cli/internal/httperrors"
	"parentportal/cli/internal/terminal"
)

var loginEmail string

// loginCmd signs in with email and password and stores the session token.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the Parent Portal",
	Long: `The login command asks for your email and password and signs you in.
The session token is kept in the configured storage (the OS keychain by default)
so later commands and 'portal serve' reuse it.

If a stored session is still valid, login says so and does nothing.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		var snap auth.Snapshot
		withSpinner("Checking saved session", func() {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.Timeout())
			defer cancel()
			snap = a.Auth.Bootstrap(ctx)
		})
		if snap.IsAuthenticated {
			pterm.Info.Printf("Already logged in as %s\n", snap.User.DisplayName())
			return nil
		}

		in := bufio.NewReader(os.Stdin)
		out := cmd.OutOrStdout()
		email := loginEmail
		if email == "" {
			prompt := "Email: "
			if email, err = terminal.PromptLine(in, out, prompt); err != nil {
				return err
			}
			terminal.ClearPreviousLines(out, len(prompt)+len(email))
		}
		password, err := terminal.PromptSecret(in, out, "Password: ")
		if err != nil {
			return err
		}
		terminal.ClearPreviousLines(out, len("Password: "))

		var user *backend.UserProfile
		withSpinner("Signing in", func() {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.Timeout())
			defer cancel()
			user, err = a.Auth.Login(ctx, backend.Credentials{Email: email, Password: password})
		})
		if err != nil {
			return reportLoginError(err, a.Config.BaseURL)
		}

		pterm.Success.Printf("Welcome, %s!\n", user.DisplayName())
		if a.Tokens.Degraded() {
			pterm.Warning.Println("Your session could not be saved and will end when this process exits.")
		}
		return nil
	},
}

func reportLoginError(err error, baseURL string) error {
	switch {
	case perrors.Is(err, perrors.ValidationError):
		fields := perrors.FieldsOf(err)
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			pterm.Error.Printf("%s: %s\n", name, fields[name])
		}
	case perrors.Is(err, perrors.AuthRejected):
		pterm.Error.Println("Email or password is incorrect.")
	case errors.Is(err, auth.ErrBusy), errors.Is(err, auth.ErrAlreadyAuthenticated):
		pterm.Error.Println(err.Error())
	default:
		httperrors.Print(err, "signing in", baseURL)
	}
	return errors.New("login failed")
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email address (prompted when omitted)")
}
