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

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"unicode/utf8"

	"github.com/jeremyhahn/go-fileprotect/pkg/logging"
)

// Engine is the typed surface request handlers invoke. Adapter is the
// production implementation; instrumentation wrappers and test fakes
// implement the same interface.
type Engine interface {
	GetFileStatus(ctx context.Context, req FileDescriptor) (Result, error)
	UnprotectFile(ctx context.Context, req UnprotectRequest) (Result, error)
	ProtectFile(ctx context.Context, req ProtectRequest) (Result, error)
}

// Adapter translates typed requests into the native engine's calling
// convention and normalizes the reply buffer into a Result.
//
// Thread Safety:
// The native library is a single-entry-point resource and is not proven
// safe for concurrent invocation, so the adapter serializes every call
// into it behind a mutex. Request handling above the adapter remains
// concurrent; the adapter is the sole serialization point by design.
//
// The adapter never retries. A context is accepted for signature
// consistency with the rest of the service, but a call cannot be
// interrupted once the engine has been entered.
type Adapter struct {
	binding Binding
	logger  *logging.Logger
	mu      sync.Mutex
}

// NewAdapter creates an engine adapter over the given binding.
func NewAdapter(binding Binding, logger *logging.Logger) (*Adapter, error) {
	if binding == nil {
		return nil, ErrNilBinding
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Adapter{
		binding: binding,
		logger:  logger,
	}, nil
}

// GetFileStatus inspects the protection state of a file. Inspection is a
// pure read; identical inputs against a fixed engine state yield
// identical results.
func (a *Adapter) GetFileStatus(ctx context.Context, req FileDescriptor) (Result, error) {
	buf := make([]byte, BufferSize)

	a.mu.Lock()
	code, err := a.binding.GetFileStatus(req.File, req.ApplicationID, buf)
	a.mu.Unlock()
	if err != nil {
		return Result{}, err
	}

	a.logger.Debug("engine getFileStatus returned", "code", code, "file", req.File)
	return a.decode(req.File, buf), nil
}

// UnprotectFile removes protection from a file.
func (a *Adapter) UnprotectFile(ctx context.Context, req UnprotectRequest) (Result, error) {
	buf := make([]byte, BufferSize)

	a.mu.Lock()
	code, err := a.binding.UnprotectFile(req.SCCToken, req.File, req.ApplicationID, buf)
	a.mu.Unlock()
	if err != nil {
		return Result{}, err
	}

	a.logger.Info("engine unprotectFile returned", "code", code, "file", req.File)
	return a.decode(req.File, buf), nil
}

// ProtectFile applies protection to a file.
func (a *Adapter) ProtectFile(ctx context.Context, req ProtectRequest) (Result, error) {
	buf := make([]byte, BufferSize)

	a.mu.Lock()
	code, err := a.binding.ProtectFile(req.SCCToken, req.File, req.EncryptedFile, req.User, req.ApplicationID, buf)
	a.mu.Unlock()
	if err != nil {
		return Result{}, err
	}

	a.logger.Debug("engine protectFile returned", "code", code, "file", req.File)
	return a.decode(req.File, buf), nil
}

// decode parses the engine's output buffer into a Result. The buffer is
// treated as a C string: content runs to the first NUL byte. Decode or
// parse failures never surface as errors; they degrade to a diagnostic
// Result carrying the undecoded bytes.
//
// The engine's integer return code is deliberately not consulted here;
// the JSON payload is authoritative.
func (a *Adapter) decode(path string, buf []byte) Result {
	raw := buf
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		raw = buf[:i]
	}

	if !utf8.Valid(raw) {
		a.logger.Warn("engine reply is not valid UTF-8", "file", path, "bytes", len(raw))
		return Result{
			Status: false,
			Path:   path,
			Error:  "engine reply is not valid UTF-8",
			Raw:    append([]byte(nil), raw...),
		}
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		a.logger.Warn("failed to parse engine reply", "file", path, "error", err.Error())
		return Result{
			Status: false,
			Path:   path,
			Error:  err.Error(),
			Raw:    append([]byte(nil), raw...),
		}
	}
	return res
}
