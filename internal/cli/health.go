// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-fileprotect.
//
// go-fileprotect is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// healthCmd checks the server's health endpoint.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Long:  `Health queries the server's /health endpoint.`,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newClient()
		if err != nil {
			handleError(err)
		}
		defer func() { _ = c.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), getConfig().Timeout)
		defer cancel()

		resp, err := c.Health(ctx)
		if err != nil {
			handleError(err)
		}

		printer := NewPrinter(getConfig().OutputFormat, os.Stdout)
		if err := printer.PrintHealth(resp); err != nil {
			handleError(err)
		}
	},
}
