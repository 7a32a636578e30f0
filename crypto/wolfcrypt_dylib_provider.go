//go:build wolfcrypt_dylib

package crypto

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

// Incremental SHA-512 ABI: the shim owns a 256-byte opaque context blob
// sized generously above any real wolfCrypt Sha512 struct so this header
// never needs to track the vendor's internal layout.
#define DIRECTOR_WC_SHA512_CTX_BYTES 256

typedef int32_t (*director_sha512_init_fn)(uint8_t* ctx);
typedef int32_t (*director_sha512_update_fn)(uint8_t* ctx, const uint8_t*, size_t);
typedef int32_t (*director_sha512_final_fn)(uint8_t* ctx, uint8_t* out64);
typedef int32_t (*director_verify_ed25519_fn)(const uint8_t* pk32, const uint8_t* sig64, const uint8_t* digest64);

typedef struct {
	void* handle;
	director_sha512_init_fn sha512_init;
	director_sha512_update_fn sha512_update;
	director_sha512_final_fn sha512_final;
	director_verify_ed25519_fn verify_ed25519;
} director_wc_provider_t;

static int director_wc_load(director_wc_provider_t* p, const char* path) {
	p->handle = dlopen(path, RTLD_LAZY);
	if (!p->handle) return -1;

	p->sha512_init = (director_sha512_init_fn)dlsym(p->handle, "director_wc_sha512_init");
	p->sha512_update = (director_sha512_update_fn)dlsym(p->handle, "director_wc_sha512_update");
	p->sha512_final = (director_sha512_final_fn)dlsym(p->handle, "director_wc_sha512_final");
	p->verify_ed25519 = (director_verify_ed25519_fn)dlsym(p->handle, "director_wc_verify_ed25519");

	if (!p->sha512_init || !p->sha512_update || !p->sha512_final || !p->verify_ed25519) {
		dlclose(p->handle);
		p->handle = NULL;
		return -2;
	}
	return 0;
}

static int32_t director_wc_sha512_init_call(director_wc_provider_t* p, uint8_t* ctx) {
	if (!p || !p->sha512_init) return -1;
	return p->sha512_init(ctx);
}

static int32_t director_wc_sha512_update_call(director_wc_provider_t* p, uint8_t* ctx, const uint8_t* in, size_t len) {
	if (!p || !p->sha512_update) return -1;
	return p->sha512_update(ctx, in, len);
}

static int32_t director_wc_sha512_final_call(director_wc_provider_t* p, uint8_t* ctx, uint8_t* out64) {
	if (!p || !p->sha512_final) return -1;
	return p->sha512_final(ctx, out64);
}

static int32_t director_wc_verify_ed25519_call(
	director_wc_provider_t* p,
	const uint8_t* pk32,
	const uint8_t* sig64,
	const uint8_t* digest64
) {
	if (!p || !p->verify_ed25519) return -1;
	return p->verify_ed25519(pk32, sig64, digest64);
}

static void director_wc_close(director_wc_provider_t* p) {
	if (p->handle) {
		dlclose(p->handle);
		p->handle = NULL;
	}
}
*/
import "C"

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"runtime"
	"strings"
	"unsafe"

	"golang.org/x/crypto/sha3"
)

// WolfcryptDylibProvider loads a local shim dylib exposing the stable
// DIRECTOR wolfCrypt ABI (incremental SHA-512 plus Ed25519 verify over
// a 64-byte digest). The shim is expected to be provided by the
// compliance build pipeline and linked against a secure element's
// wolfCrypt port.
type WolfcryptDylibProvider struct {
	p C.director_wc_provider_t
}

// LoadWolfcryptDylibProviderFromEnv loads the shim from DIRECTOR_WOLFCRYPT_SHIM_PATH.
func LoadWolfcryptDylibProviderFromEnv() (*WolfcryptDylibProvider, error) {
	path, ok := os.LookupEnv("DIRECTOR_WOLFCRYPT_SHIM_PATH")
	if !ok || path == "" {
		return nil, errors.New("DIRECTOR_WOLFCRYPT_SHIM_PATH is not set")
	}
	strict := func() bool {
		v := os.Getenv("DIRECTOR_WOLFCRYPT_STRICT")
		return v == "1" || strings.EqualFold(v, "true")
	}()

	if expected := os.Getenv("DIRECTOR_WOLFCRYPT_SHIM_SHA3_256"); expected != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		h := sha3.New256()
		if _, err := io.Copy(h, f); err != nil {
			return nil, err
		}
		sum := h.Sum(nil)
		actual := hex.EncodeToString(sum)
		if actual != strings.ToLower(expected) {
			return nil, errors.New("wolfcrypt shim hash mismatch (DIRECTOR_WOLFCRYPT_SHIM_SHA3_256)")
		}
	} else if strict {
		return nil, errors.New("DIRECTOR_WOLFCRYPT_SHIM_SHA3_256 required when DIRECTOR_WOLFCRYPT_STRICT=1")
	}
	return LoadWolfcryptDylibProvider(path)
}

func LoadWolfcryptDylibProvider(path string) (*WolfcryptDylibProvider, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var p C.director_wc_provider_t
	rc := C.director_wc_load(&p, cpath)
	if rc != 0 {
		return nil, errors.New("failed to load wolfcrypt shim dylib")
	}

	prov := &WolfcryptDylibProvider{p: p}
	runtime.SetFinalizer(prov, func(x *WolfcryptDylibProvider) { C.director_wc_close(&x.p) })
	return prov, nil
}

func (w *WolfcryptDylibProvider) SupportsMethod(method string) bool {
	return method == "ed25519"
}

// NewDigest returns a hash.Hash backed by the shim's incremental
// SHA-512 context. Writes are forwarded to the dylib as they arrive,
// so the full signed subobject is never buffered in Go memory.
func (w *WolfcryptDylibProvider) NewDigest() hash.Hash {
	d := &wolfcryptDigest{p: &w.p}
	d.reset()
	return d
}

func (w *WolfcryptDylibProvider) Verify(method string, pubkey, sig, digest []byte) (bool, error) {
	if method != "ed25519" {
		return false, nil
	}
	if len(pubkey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize || len(digest) != 64 {
		return false, nil
	}
	rc := C.int32_t(C.director_wc_verify_ed25519_call(
		&w.p,
		(*C.uint8_t)(unsafe.Pointer(&pubkey[0])),
		(*C.uint8_t)(unsafe.Pointer(&sig[0])),
		(*C.uint8_t)(unsafe.Pointer(&digest[0])),
	))
	switch rc {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("wolfcrypt shim error: director_wc_verify_ed25519 rc=%d", rc)
	}
}

// wolfcryptDigest adapts the shim's init/update/final SHA-512 ABI to
// Go's hash.Hash interface. ctx is an opaque 256-byte blob the shim
// owns entirely; Go never interprets its contents.
type wolfcryptDigest struct {
	p   *C.director_wc_provider_t
	ctx [256]byte
}

func (d *wolfcryptDigest) reset() {
	rc := C.director_wc_sha512_init_call(d.p, (*C.uint8_t)(unsafe.Pointer(&d.ctx[0])))
	if rc != 1 {
		panic(fmt.Sprintf("wolfcrypt shim error: director_wc_sha512_init rc=%d", rc))
	}
}

func (d *wolfcryptDigest) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	rc := C.director_wc_sha512_update_call(d.p, (*C.uint8_t)(unsafe.Pointer(&d.ctx[0])), (*C.uint8_t)(unsafe.Pointer(&p[0])), C.size_t(len(p)))
	if rc != 1 {
		panic(fmt.Sprintf("wolfcrypt shim error: director_wc_sha512_update rc=%d", rc))
	}
	return len(p), nil
}

func (d *wolfcryptDigest) Sum(b []byte) []byte {
	// Finalizing consumes the shim's context; snapshot first so Sum
	// remains callable more than once, matching hash.Hash semantics.
	snapshot := d.ctx
	var out [64]byte
	rc := C.director_wc_sha512_final_call(d.p, (*C.uint8_t)(unsafe.Pointer(&d.ctx[0])), (*C.uint8_t)(unsafe.Pointer(&out[0])))
	d.ctx = snapshot
	if rc != 1 {
		panic(fmt.Sprintf("wolfcrypt shim error: director_wc_sha512_final rc=%d", rc))
	}
	return append(b, out[:]...)
}

func (d *wolfcryptDigest) Reset()         { d.reset() }
func (d *wolfcryptDigest) Size() int      { return 64 }
func (d *wolfcryptDigest) BlockSize() int { return 128 }
