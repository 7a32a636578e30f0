package crypto

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/hex"
	"testing"
)

func TestSoftwareProviderSHA512_KnownVector(t *testing.T) {
	p := SoftwareProvider{}
	h := p.NewDigest()
	h.Write([]byte("abc"))
	sum := h.Sum(nil)
	// SHA-512("abc")
	const want = "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49"
	got := hex.EncodeToString(sum)
	if got != want {
		t.Fatalf("digest mismatch: got=%s want=%s", got, want)
	}
	if len(sum) != sha512.Size {
		t.Fatalf("digest length = %d, want %d", len(sum), sha512.Size)
	}
}

func TestSoftwareProviderVerify_RoundTrip(t *testing.T) {
	p := SoftwareProvider{}
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	h := p.NewDigest()
	h.Write([]byte("the signed bytes"))
	digest := h.Sum(nil)
	sig := ed25519.Sign(priv, digest)

	ok, err := p.Verify("ed25519", pub, sig, digest)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected valid signature to verify")
	}

	sig[0] ^= 0xFF
	ok, err = p.Verify("ed25519", pub, sig, digest)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected mutated signature to fail verification")
	}
}

func TestSoftwareProviderSupportsMethod(t *testing.T) {
	p := SoftwareProvider{}
	if !p.SupportsMethod("ed25519") {
		t.Fatalf("expected ed25519 to be supported")
	}
	if p.SupportsMethod("rsassa-pss-sha256") {
		t.Fatalf("expected unsupported method to be rejected")
	}
}
