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
	"encoding/json"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-fileprotect/pkg/client"
	"github.com/jeremyhahn/go-fileprotect/pkg/engine"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintResult prints an engine result.
func (p *Printer) PrintResult(result engine.Result) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(result)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Path:   %s\n", result.Path)
		fmt.Fprintf(p.writer, "Status: %t\n", result.Status)
		if result.Error != "" {
			fmt.Fprintf(p.writer, "Error:  %s\n", result.Error)
		}
		if len(result.Raw) > 0 {
			fmt.Fprintf(p.writer, "Raw:    %s\n", string(result.Raw))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintHealth prints a server health reply.
func (p *Printer) PrintHealth(resp *client.HealthResponse) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(resp)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Status:  %s\n", resp.Status)
		if resp.Version != "" {
			fmt.Fprintf(p.writer, "Version: %s\n", resp.Version)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error.
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"error": err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

// printJSON marshals v with indentation.
func (p *Printer) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(p.writer, string(data))
	return nil
}
