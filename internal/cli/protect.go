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
	protectAppID    string
	protectSCCToken string
	protectUser     string
	protectOutFile  string
)

// protectCmd applies protection to a file.
var protectCmd = &cobra.Command{
	Use:   "protect <file>",
	Short: "Apply protection to a file",
	Long: `Protect encrypts the given file through the native protection
engine, writing the protected copy to the output path.

Example:
  fileprotect protect /data/plain.docx \
    --application-id app-1 \
    --scc-token "$TOKEN" \
    --user alice@example.com \
    --out /data/plain.docx.pfile`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := newClient()
		if err != nil {
			handleError(err)
		}
		defer func() { _ = c.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), getConfig().Timeout)
		defer cancel()

		printVerbose("protecting %s for %s", args[0], protectUser)
		result, err := c.ProtectFile(ctx, engine.ProtectRequest{
			UnprotectRequest: engine.UnprotectRequest{
				FileDescriptor: engine.FileDescriptor{
					File:          args[0],
					ApplicationID: protectAppID,
				},
				SCCToken: protectSCCToken,
			},
			User:          protectUser,
			EncryptedFile: protectOutFile,
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
	protectCmd.Flags().StringVar(&protectAppID, "application-id", "", "calling application identifier (required)")
	protectCmd.Flags().StringVar(&protectSCCToken, "scc-token", "", "authorization token (required)")
	protectCmd.Flags().StringVar(&protectUser, "user", "", "identity the protection is applied for (required)")
	protectCmd.Flags().StringVar(&protectOutFile, "out", "", "destination path for the protected file (required)")
	_ = protectCmd.MarkFlagRequired("application-id")
	_ = protectCmd.MarkFlagRequired("scc-token")
	_ = protectCmd.MarkFlagRequired("user")
	_ = protectCmd.MarkFlagRequired("out")
}
