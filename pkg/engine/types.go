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

import "fmt"

// FileDescriptor identifies the file a request operates on. Every
// operation requires both fields; there is no lifecycle beyond a single
// request.
type FileDescriptor struct {
	File          string `json:"file"`
	ApplicationID string `json:"application_id"`
}

// Validate checks that all required fields are present.
func (d FileDescriptor) Validate() error {
	if d.File == "" {
		return fmt.Errorf("%w: file", ErrMissingField)
	}
	if d.ApplicationID == "" {
		return fmt.Errorf("%w: application_id", ErrMissingField)
	}
	return nil
}

// UnprotectRequest extends FileDescriptor with the bearer credential the
// engine requires to remove protection.
type UnprotectRequest struct {
	FileDescriptor
	SCCToken string `json:"scc_token"`
}

// Validate checks required fields, including those inherited from
// FileDescriptor.
func (r UnprotectRequest) Validate() error {
	if err := r.FileDescriptor.Validate(); err != nil {
		return err
	}
	if r.SCCToken == "" {
		return fmt.Errorf("%w: scc_token", ErrMissingField)
	}
	return nil
}

// ProtectRequest extends UnprotectRequest with the protecting user and a
// reference to the payload being protected.
type ProtectRequest struct {
	UnprotectRequest
	User          string `json:"user"`
	EncryptedFile string `json:"encrypted_file"`
}

// Validate checks required fields, including those inherited from
// UnprotectRequest and FileDescriptor.
func (r ProtectRequest) Validate() error {
	if err := r.UnprotectRequest.Validate(); err != nil {
		return err
	}
	if r.User == "" {
		return fmt.Errorf("%w: user", ErrMissingField)
	}
	if r.EncryptedFile == "" {
		return fmt.Errorf("%w: encrypted_file", ErrMissingField)
	}
	return nil
}
