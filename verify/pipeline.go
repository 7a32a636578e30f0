package verify

import (
	"bytes"
	"hash"

	"uptane.dev/director/crypto"
)

// Key is an opaque (to this package) trusted Targets-role key. KeyID
// is fixed-width and compared byte-exact against the document's
// "keyid" field; Pubkey is passed through to the CryptoProvider at
// finalisation time.
type Key struct {
	KeyID     []byte
	Algorithm string
	Pubkey    []byte
}

// sigSlot is one entry of trusted_keys[], paired with whatever the
// document contributed for that key. A slot becomes "live" the
// moment its present flag is set and stays live until Process
// returns; every signed-subobject byte consumed after that point is
// fed to hasher exactly once.
type sigSlot struct {
	key      Key
	sigBytes []byte
	hasher   hash.Hash
	present  bool
}

func findKeySlot(slots []sigSlot, keyID []byte) int {
	for i := range slots {
		if bytes.Equal(slots[i].key.KeyID, keyID) {
			return i
		}
	}
	return -1
}

// finalizePipeline finalises every live slot and returns the count of
// verdicts that the provider accepted. There is no early abort: every
// live slot is finalised regardless of earlier verdicts, so a
// partial-coverage attack (one valid signature, one spoofed) is still
// measured against the threshold in full.
func finalizePipeline(provider crypto.Provider, slots []sigSlot) (valid int, err error) {
	for i := range slots {
		if !slots[i].present {
			continue
		}
		digest := slots[i].hasher.Sum(nil)
		ok, verr := provider.Verify(slots[i].key.Algorithm, slots[i].key.Pubkey, slots[i].sigBytes, digest)
		if verr != nil {
			return valid, errf(NoMemory, "verify-ctx finalize: "+verr.Error())
		}
		if ok {
			valid++
		}
	}
	return valid, nil
}
