// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"parentportal/cli/internal/config"
	"parentportal/cli/internal/portal"
)

var (
	listenAddr string
	jsonLogs   bool
)

// serveCmd runs the local web portal.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Parent Portal locally",
	Long: `The serve command runs the Parent Portal web client on a local address.
A stored session is verified in the background; until that finishes, protected
pages show a loading screen. Requests under /api are forwarded to the remote
portal with your session attached.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, jsonLogs)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := listenAddr
		if addr == "" {
			addr = a.Config.Listen
		}
		baseURL := a.Config.BaseURL
		if a.Config.Transport != config.TransportHTTP {
			baseURL = ""
		}
		srv, err := portal.New(portal.Options{
			Service:   a.Auth,
			Backend:   a.API,
			BaseURL:   baseURL,
			Transport: a.HTTPClient.Transport,
			Language:  a.Config.LanguageTag().String(),
			Logger:    a.Log,
			Listen:    addr,
		})
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		go a.Auth.Bootstrap(ctx)

		pterm.Info.Printf("Parent Portal running at http://%s\n", addr)
		a.Log.Info("portal listening", a.Log.Args("addr", addr, "backend", a.Config.BaseURL, "transport", a.Config.Transport))
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (default from config, 127.0.0.1:8787)")
	serveCmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON lines")
}
