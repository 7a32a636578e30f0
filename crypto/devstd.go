package crypto

import (
	"crypto/ed25519"
	"crypto/sha512"
	"hash"
)

// SoftwareProvider is a pure-Go Provider: SHA-512 digests, Ed25519
// signatures. It needs no secure element and is what an ECU falls
// back to in dev/test builds, or in production when the HSM path is
// degraded and the deployment does not mandate strict HSM-only mode.
type SoftwareProvider struct{}

func (SoftwareProvider) SupportsMethod(method string) bool {
	return method == "ed25519"
}

func (SoftwareProvider) NewDigest() hash.Hash {
	return sha512.New()
}

func (SoftwareProvider) Verify(method string, pubkey, sig, digest []byte) (bool, error) {
	if method != "ed25519" {
		return false, nil
	}
	if len(pubkey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(ed25519.PublicKey(pubkey), digest, sig), nil
}
