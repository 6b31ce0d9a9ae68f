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

// Package engine adapts typed file-protection requests to the calling
// convention of the native protection engine. The engine is an opaque
// shared library exporting three functions that take positional C string
// arguments and fill a caller-supplied output buffer with a JSON-encoded
// reply. The adapter normalizes every reply, including malformed ones,
// into a Result.
package engine

import "errors"

// BufferSize is the fixed capacity of the engine's output buffer. The
// engine does not bounds-check or guarantee NUL termination within this
// buffer; callers must treat the contents after a call as an untrusted
// byte string.
const BufferSize = 8192

// Common errors
var (
	// ErrMissingField marks a request field that failed presence validation.
	ErrMissingField = errors.New("missing required field")

	// ErrNotCompiled is returned by NewNativeBinding when the binary was
	// built without native engine support (use -tags mip).
	ErrNotCompiled = errors.New("native engine support not compiled in")

	// ErrNilBinding is returned by NewAdapter when no binding is supplied.
	ErrNilBinding = errors.New("engine binding is required")
)

// Binding mirrors the native engine's ABI. Each call writes the engine's
// JSON reply into out, which must have capacity BufferSize, and returns
// the engine's integer return code. The argument order is fixed by the
// engine and must not be changed.
type Binding interface {
	// GetFileStatus inspects a file's protection state.
	GetFileStatus(file, applicationID string, out []byte) (int, error)

	// UnprotectFile removes protection from a file.
	UnprotectFile(sccToken, file, applicationID string, out []byte) (int, error)

	// ProtectFile applies protection to a file.
	ProtectFile(sccToken, file, encryptedFile, user, applicationID string, out []byte) (int, error)
}

// unavailableBinding fails every call with the error that prevented the
// native library from loading. It lets the service start degraded: probe
// and metrics endpoints stay observable while readiness reports the
// engine down.
type unavailableBinding struct {
	err error
}

// NewUnavailableBinding returns a binding that fails every call with err.
func NewUnavailableBinding(err error) Binding {
	if err == nil {
		err = ErrNotCompiled
	}
	return &unavailableBinding{err: err}
}

func (u *unavailableBinding) GetFileStatus(file, applicationID string, out []byte) (int, error) {
	return 0, u.err
}

func (u *unavailableBinding) UnprotectFile(sccToken, file, applicationID string, out []byte) (int, error) {
	return 0, u.err
}

func (u *unavailableBinding) ProtectFile(sccToken, file, encryptedFile, user, applicationID string, out []byte) (int, error) {
	return 0, u.err
}
