// Package crypto provides the narrow CryptoProvider interface the
// director/verify package treats as an opaque external collaborator,
// plus the concrete backends an ECU may wire in: a software
// Ed25519/SHA-512 implementation, and (behind the wolfcrypt_dylib
// build tag) a secure-element-backed implementation with health
// monitoring and failover.
package crypto

import "hash"

// Provider is the narrow crypto interface used by director/verify.
// Implementations may be software, HSM, or secure-element backed.
type Provider interface {
	// SupportsMethod reports whether method names a signature
	// algorithm this provider can verify (spec: crypto_keytype_supported).
	SupportsMethod(method string) bool
	// NewDigest returns a fresh incremental hasher used as a live
	// signature slot's verify-ctx; the Grammar Walker feeds it every
	// tee-forwarded byte of the signed subobject and finalises it once,
	// at document close, via Sum.
	NewDigest() hash.Hash
	// Verify checks sig against digest under pubkey using the named
	// method. digest is the output of a NewDigest() hasher fed the
	// full signed subobject.
	Verify(method string, pubkey, sig, digest []byte) (bool, error)
}
