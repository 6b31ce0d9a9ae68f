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

	"github.com/jeremyhahn/go-fileprotect/pkg/engine"
)

var inspectAppID string

// inspectCmd reports the protection state of a file.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Inspect the protection state of a file",
	Long: `Inspect asks the server whether the given file is protected.

Example:
  fileprotect inspect /data/report.docx --application-id app-1`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newClient()
		if err != nil {
			handleError(err)
		}
		defer func() { _ = c.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), getConfig().Timeout)
		defer cancel()

		printVerbose("inspecting %s", args[0])
		result, err := c.InspectFile(ctx, engine.FileDescriptor{
			File:          args[0],
			ApplicationID: inspectAppID,
		})
		if err != nil {
			handleError(err)
		}

		printer := NewPrinter(getConfig().OutputFormat, os.Stdout)
		if err := printer.PrintResult(result); err != nil {
			handleError(err)
		}
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectAppID, "application-id", "", "calling application identifier (required)")
	_ = inspectCmd.MarkFlagRequired("application-id")
}
