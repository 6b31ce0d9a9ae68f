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

var (
	unprotectAppID    string
	unprotectSCCToken string
)

// unprotectCmd removes protection from a file.
var unprotectCmd = &cobra.Command{
	Use:   "unprotect <file>",
	Short: "Remove protection from a file",
	Long: `Unprotect decrypts the given file in place through the native
protection engine.

Example:
  fileprotect unprotect /data/report.docx.pfile \
    --application-id app-1 \
    --scc-token "$TOKEN"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newClient()
		if err != nil {
			handleError(err)
		}
		defer func() { _ = c.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), getConfig().Timeout)
		defer cancel()

		printVerbose("unprotecting %s", args[0])
		result, err := c.UnprotectFile(ctx, engine.UnprotectRequest{
			FileDescriptor: engine.FileDescriptor{
				File:          args[0],
				ApplicationID: unprotectAppID,
			},
			SCCToken: unprotectSCCToken,
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
	unprotectCmd.Flags().StringVar(&unprotectAppID, "application-id", "", "calling application identifier (required)")
	unprotectCmd.Flags().StringVar(&unprotectSCCToken, "scc-token", "", "authorization token (required)")
	_ = unprotectCmd.MarkFlagRequired("application-id")
	_ = unprotectCmd.MarkFlagRequired("scc-token")
}
