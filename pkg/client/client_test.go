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

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jeremyhahn/go-fileprotect/pkg/engine"
)

func TestNewRequiresAddress(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("Expected error for nil config")
	}
	if _, err := New(&Config{}); err == nil {
		t.Error("Expected error for empty address")
	}
}

func TestInspectFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/inspect_file" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Unexpected method: %s", r.Method)
		}

		var req engine.FileDescriptor
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}

		writeResult(w, engine.Result{Status: true, Path: req.File})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	result, err := c.InspectFile(context.Background(), engine.FileDescriptor{
		File:          "/data/report.docx",
		ApplicationID: "app-1",
	})
	if err != nil {
		t.Fatalf("InspectFile failed: %v", err)
	}
	if !result.Status {
		t.Error("Expected status true")
	}
	if result.Path != "/data/report.docx" {
		t.Errorf("Expected path echoed, got %s", result.Path)
	}
}

func TestProtectFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/protect_file" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}

		var req engine.ProtectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.SCCToken != "token-1" || req.User != "alice@example.com" {
			t.Errorf("Request fields not transmitted: %+v", req)
		}

		writeResult(w, engine.Result{Status: true, Path: req.EncryptedFile})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	result, err := c.ProtectFile(context.Background(), engine.ProtectRequest{
		UnprotectRequest: engine.UnprotectRequest{
			FileDescriptor: engine.FileDescriptor{
				File:          "/data/plain.docx",
				ApplicationID: "app-1",
			},
			SCCToken: "token-1",
		},
		User:          "alice@example.com",
		EncryptedFile: "/data/plain.docx.pfile",
	})
	if err != nil {
		t.Fatalf("ProtectFile failed: %v", err)
	}
	if result.Path != "/data/plain.docx.pfile" {
		t.Errorf("Unexpected result path: %s", result.Path)
	}
}

func TestUnprotectFileNegativeResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, engine.Result{Status: false, Error: "file is not protected"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	result, err := c.UnprotectFile(context.Background(), engine.UnprotectRequest{
		FileDescriptor: engine.FileDescriptor{File: "/data/plain.txt", ApplicationID: "app-1"},
		SCCToken:       "token-1",
	})
	if err != nil {
		t.Fatalf("A 200 with status=false must not be a client error, got: %v", err)
	}
	if result.Status {
		t.Error("Expected status false")
	}
	if result.Error != "file is not protected" {
		t.Errorf("Expected engine error passed through, got %q", result.Error)
	}
}

func TestValidationErrorMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": "missing required field: application_id",
			"code":  400,
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.InspectFile(context.Background(), engine.FileDescriptor{File: "/data/a"})
	if !errors.Is(err, ErrRequestRejected) {
		t.Errorf("Expected ErrRequestRejected, got %v", err)
	}
}

func TestServerFaultMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "disk unavailable", "code": 500}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.InspectFile(context.Background(), engine.FileDescriptor{
		File:          "/data/a",
		ApplicationID: "app-1",
	})
	if !errors.Is(err, ErrServerFault) {
		t.Errorf("Expected ErrServerFault, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy", Version: "test"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", resp.Status)
	}
}

func TestConnectionRefused(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")

	_, err := c.Health(context.Background())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Expected ErrConnectionFailed, got %v", err)
	}
}

func newTestClient(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := New(&Config{Address: addr})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeResult(w http.ResponseWriter, result engine.Result) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
