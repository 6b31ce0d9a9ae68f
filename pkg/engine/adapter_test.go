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
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jeremyhahn/go-fileprotect/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinding copies a canned reply into the output buffer and tracks
// invocation counts and concurrency.
type fakeBinding struct {
	mu        sync.Mutex
	reply     []byte
	code      int
	err       error
	delay     time.Duration
	calls     int
	active    int
	maxActive int
}

func (f *fakeBinding) invoke(out []byte) (int, error) {
	f.mu.Lock()
	f.calls++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	reply, code, err, delay := f.reply, f.code, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if err != nil {
		return 0, err
	}
	copy(out, reply)
	return code, nil
}

func (f *fakeBinding) GetFileStatus(file, applicationID string, out []byte) (int, error) {
	return f.invoke(out)
}

func (f *fakeBinding) UnprotectFile(sccToken, file, applicationID string, out []byte) (int, error) {
	return f.invoke(out)
}

func (f *fakeBinding) ProtectFile(sccToken, file, encryptedFile, user, applicationID string, out []byte) (int, error) {
	return f.invoke(out)
}

func newTestAdapter(t *testing.T, binding Binding) *Adapter {
	t.Helper()
	adapter, err := NewAdapter(binding, logging.NewLogger(false))
	require.NoError(t, err)
	return adapter
}

func TestNewAdapterRequiresBinding(t *testing.T) {
	_, err := NewAdapter(nil, nil)
	assert.ErrorIs(t, err, ErrNilBinding)
}

func TestGetFileStatusDecodesWellFormedReply(t *testing.T) {
	binding := &fakeBinding{reply: []byte(`{"status": true, "path": "/docs/a.docx", "error": ""}`)}
	adapter := newTestAdapter(t, binding)

	result, err := adapter.GetFileStatus(context.Background(), FileDescriptor{
		File:          "/docs/a.docx",
		ApplicationID: "app-1",
	})
	require.NoError(t, err)

	assert.True(t, result.Status)
	assert.Equal(t, "/docs/a.docx", result.Path)
	assert.Empty(t, result.Error)
	assert.Nil(t, result.Raw)
}

func TestGetFileStatusSynthesizesResultOnMalformedReply(t *testing.T) {
	binding := &fakeBinding{reply: []byte("not json at all")}
	adapter := newTestAdapter(t, binding)

	result, err := adapter.GetFileStatus(context.Background(), FileDescriptor{
		File:          "/docs/a.docx",
		ApplicationID: "app-1",
	})
	require.NoError(t, err, "malformed engine output must not surface as an error")

	assert.False(t, result.Status)
	assert.Equal(t, "/docs/a.docx", result.Path)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, []byte("not json at all"), result.Raw)
}

func TestGetFileStatusSynthesizesResultOnEmptyBuffer(t *testing.T) {
	binding := &fakeBinding{reply: nil}
	adapter := newTestAdapter(t, binding)

	result, err := adapter.GetFileStatus(context.Background(), FileDescriptor{
		File:          "/docs/empty.docx",
		ApplicationID: "app-1",
	})
	require.NoError(t, err)

	assert.False(t, result.Status)
	assert.Equal(t, "/docs/empty.docx", result.Path)
	assert.NotEmpty(t, result.Error)
}

func TestGetFileStatusSynthesizesResultOnInvalidUTF8(t *testing.T) {
	binding := &fakeBinding{reply: []byte{0xff, 0xfe, 0xfd}}
	adapter := newTestAdapter(t, binding)

	result, err := adapter.GetFileStatus(context.Background(), FileDescriptor{
		File:          "/docs/a.docx",
		ApplicationID: "app-1",
	})
	require.NoError(t, err)

	assert.False(t, result.Status)
	assert.Equal(t, "/docs/a.docx", result.Path)
	assert.Equal(t, []byte{0xff, 0xfe, 0xfd}, result.Raw)
}

func TestDecodeStopsAtFirstNUL(t *testing.T) {
	// The engine may leave stale bytes past the NUL terminator; they must
	// not reach the JSON parser.
	reply := append([]byte(`{"status": true, "path": "/x", "error": ""}`), 0)
	reply = append(reply, []byte("stale garbage from previous call")...)
	binding := &fakeBinding{reply: reply}
	adapter := newTestAdapter(t, binding)

	result, err := adapter.GetFileStatus(context.Background(), FileDescriptor{
		File:          "/x",
		ApplicationID: "app-1",
	})
	require.NoError(t, err)

	assert.True(t, result.Status)
	assert.Equal(t, "/x", result.Path)
}

func TestBindingErrorPropagates(t *testing.T) {
	bindingErr := errors.New("disk unavailable")
	binding := &fakeBinding{err: bindingErr}
	adapter := newTestAdapter(t, binding)

	_, err := adapter.ProtectFile(context.Background(), ProtectRequest{
		UnprotectRequest: UnprotectRequest{
			FileDescriptor: FileDescriptor{File: "/docs/a.docx", ApplicationID: "app-1"},
			SCCToken:       "token",
		},
		User:          "alice",
		EncryptedFile: "blob-1",
	})
	assert.ErrorIs(t, err, bindingErr)
}

func TestAdapterDoesNotRetry(t *testing.T) {
	binding := &fakeBinding{err: errors.New("transient")}
	adapter := newTestAdapter(t, binding)

	_, err := adapter.UnprotectFile(context.Background(), UnprotectRequest{
		FileDescriptor: FileDescriptor{File: "/f", ApplicationID: "a"},
		SCCToken:       "t",
	})
	require.Error(t, err)
	assert.Equal(t, 1, binding.calls, "a single invocation per call, retries are the caller's responsibility")
}

func TestGetFileStatusIsIdempotent(t *testing.T) {
	binding := &fakeBinding{reply: []byte(`{"status": false, "path": "/docs/a.docx", "error": "not protected"}`)}
	adapter := newTestAdapter(t, binding)

	req := FileDescriptor{File: "/docs/a.docx", ApplicationID: "app-1"}

	first, err := adapter.GetFileStatus(context.Background(), req)
	require.NoError(t, err)
	second, err := adapter.GetFileStatus(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAdapterSerializesEngineCalls(t *testing.T) {
	binding := &fakeBinding{
		reply: []byte(`{"status": true, "path": "/f", "error": ""}`),
		delay: 5 * time.Millisecond,
	}
	adapter := newTestAdapter(t, binding)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := adapter.GetFileStatus(context.Background(), FileDescriptor{
				File:          "/f",
				ApplicationID: "a",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, binding.calls)
	assert.Equal(t, 1, binding.maxActive, "engine calls must never overlap")
}
