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

package engine

// Result is the normalized shape of every engine reply. When the engine's
// output buffer cannot be decoded, the adapter synthesizes a Result with
// Status=false, Path set to the input file, Error describing the decode
// failure, and Raw holding the undecoded buffer bytes.
type Result struct {
	Status bool   `json:"status"`
	Path   string `json:"path"`
	Error  string `json:"error"`
	Raw    []byte `json:"raw,omitempty"`
}
