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

//go:build mip

package engine

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef int (*get_file_status_fn)(const char*, const char*, char*);
typedef int (*unprotect_file_fn)(const char*, const char*, const char*, char*);
typedef int (*protect_file_fn)(const char*, const char*, const char*, const char*, const char*, char*);

static int call_get_file_status(void *fn, const char *file, const char *app, char *out) {
	return ((get_file_status_fn)fn)(file, app, out);
}

static int call_unprotect_file(void *fn, const char *token, const char *file, const char *app, char *out) {
	return ((unprotect_file_fn)fn)(token, file, app, out);
}

static int call_protect_file(void *fn, const char *token, const char *file, const char *enc, const char *user, const char *app, char *out) {
	return ((protect_file_fn)fn)(token, file, enc, user, app, out);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// nativeBinding loads the protection engine shared library at runtime and
// resolves its three exported functions. The handle is process-wide and
// is never released; the engine does not support re-initialization.
type nativeBinding struct {
	handle        unsafe.Pointer
	getFileStatus unsafe.Pointer
	unprotectFile unsafe.Pointer
	protectFile   unsafe.Pointer
}

// NewNativeBinding opens the engine shared library at the given path and
// resolves the getFileStatus, unprotectFile, and protectFile symbols.
func NewNativeBinding(library string) (Binding, error) {
	cpath := C.CString(library)
	defer C.free(unsafe.Pointer(cpath))

	handle := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_LOCAL)
	if handle == nil {
		return nil, fmt.Errorf("failed to load engine library %s: %s", library, C.GoString(C.dlerror()))
	}

	b := &nativeBinding{handle: handle}

	symbols := []struct {
		name   string
		target *unsafe.Pointer
	}{
		{"getFileStatus", &b.getFileStatus},
		{"unprotectFile", &b.unprotectFile},
		{"protectFile", &b.protectFile},
	}
	for _, sym := range symbols {
		cname := C.CString(sym.name)
		ptr := C.dlsym(handle, cname)
		C.free(unsafe.Pointer(cname))
		if ptr == nil {
			C.dlclose(handle)
			return nil, fmt.Errorf("engine library %s does not export %s: %s",
				library, sym.name, C.GoString(C.dlerror()))
		}
		*sym.target = ptr
	}

	return b, nil
}

func (b *nativeBinding) GetFileStatus(file, applicationID string, out []byte) (int, error) {
	if len(out) < BufferSize {
		return 0, fmt.Errorf("output buffer must have capacity %d, got %d", BufferSize, len(out))
	}

	cfile := C.CString(file)
	capp := C.CString(applicationID)
	defer C.free(unsafe.Pointer(cfile))
	defer C.free(unsafe.Pointer(capp))

	code := C.call_get_file_status(b.getFileStatus, cfile, capp, (*C.char)(unsafe.Pointer(&out[0])))
	return int(code), nil
}

func (b *nativeBinding) UnprotectFile(sccToken, file, applicationID string, out []byte) (int, error) {
	if len(out) < BufferSize {
		return 0, fmt.Errorf("output buffer must have capacity %d, got %d", BufferSize, len(out))
	}

	ctoken := C.CString(sccToken)
	cfile := C.CString(file)
	capp := C.CString(applicationID)
	defer C.free(unsafe.Pointer(ctoken))
	defer C.free(unsafe.Pointer(cfile))
	defer C.free(unsafe.Pointer(capp))

	code := C.call_unprotect_file(b.unprotectFile, ctoken, cfile, capp, (*C.char)(unsafe.Pointer(&out[0])))
	return int(code), nil
}

func (b *nativeBinding) ProtectFile(sccToken, file, encryptedFile, user, applicationID string, out []byte) (int, error) {
	if len(out) < BufferSize {
		return 0, fmt.Errorf("output buffer must have capacity %d, got %d", BufferSize, len(out))
	}

	ctoken := C.CString(sccToken)
	cfile := C.CString(file)
	cenc := C.CString(encryptedFile)
	cuser := C.CString(user)
	capp := C.CString(applicationID)
	defer C.free(unsafe.Pointer(ctoken))
	defer C.free(unsafe.Pointer(cfile))
	defer C.free(unsafe.Pointer(cenc))
	defer C.free(unsafe.Pointer(cuser))
	defer C.free(unsafe.Pointer(capp))

	code := C.call_protect_file(b.protectFile, ctoken, cfile, cenc, cuser, capp, (*C.char)(unsafe.Pointer(&out[0])))
	return int(code), nil
}
