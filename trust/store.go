// Package trust persists the state a Director Targets Verifier needs
// across ECU reboots but that spec.md's Verifier Context treats as
// pure constructor input: the last-accepted version per (ecu_id,
// hardware_id), and a tamper-evident cache of the trusted Targets-role
// key bundle.
package trust

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"uptane.dev/director/crypto"
	"uptane.dev/director/verify"
)

var (
	bucketVersionPrev  = []byte("version_prev_by_ecu")
	bucketTrustAnchors = []byte("trust_anchors_by_ecu")
)

// Store is a bbolt-backed, bucket-per-concern KV store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt file at filepath.Join(dataDir, "trust.db").
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("trust: data_dir required")
	}
	path := filepath.Join(dataDir, "trust.db")
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("trust: open bbolt: %w", err)
	}
	s := &Store{db: db}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketVersionPrev, bucketTrustAnchors} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("trust: create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ecuKey(ecuID, hardwareID []byte) []byte {
	key := make([]byte, 0, len(ecuID)+len(hardwareID)+1)
	key = append(key, ecuID...)
	key = append(key, 0x00)
	key = append(key, hardwareID...)
	return key
}

// VersionPrev returns the last accepted version for (ecuID, hardwareID),
// or 0 if none has ever been recorded.
func (s *Store) VersionPrev(ecuID, hardwareID []byte) (uint32, error) {
	var v uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketVersionPrev).Get(ecuKey(ecuID, hardwareID))
		if raw == nil {
			return nil
		}
		if len(raw) != 4 {
			return fmt.Errorf("trust: corrupt version_prev record")
		}
		v = binary.LittleEndian.Uint32(raw)
		return nil
	})
	return v, err
}

// SetVersionPrev records the version extracted from an accepted
// document so a later boot rejects any downgrade relative to it.
func (s *Store) SetVersionPrev(ecuID, hardwareID []byte, v uint32) error {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], v)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVersionPrev).Put(ecuKey(ecuID, hardwareID), raw[:])
	})
}

// encodeKeys serialises a trusted-key bundle as:
// u16 count, then per key: u16 len+bytes for keyid, algorithm, pubkey.
func encodeKeys(keys []verify.Key) []byte {
	size := 2
	for _, k := range keys {
		size += 2 + len(k.KeyID) + 2 + len(k.Algorithm) + 2 + len(k.Pubkey)
	}
	out := make([]byte, size)
	off := 0
	binary.LittleEndian.PutUint16(out[off:], uint16(len(keys)))
	off += 2
	putField := func(b []byte) {
		binary.LittleEndian.PutUint16(out[off:], uint16(len(b)))
		off += 2
		copy(out[off:], b)
		off += len(b)
	}
	for _, k := range keys {
		putField(k.KeyID)
		putField([]byte(k.Algorithm))
		putField(k.Pubkey)
	}
	return out
}

func decodeKeys(b []byte) ([]verify.Key, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("trust: truncated key bundle")
	}
	count := int(binary.LittleEndian.Uint16(b))
	off := 2
	readField := func() ([]byte, error) {
		if off+2 > len(b) {
			return nil, fmt.Errorf("trust: truncated key bundle field length")
		}
		n := int(binary.LittleEndian.Uint16(b[off:]))
		off += 2
		if off+n > len(b) {
			return nil, fmt.Errorf("trust: truncated key bundle field value")
		}
		v := append([]byte(nil), b[off:off+n]...)
		off += n
		return v, nil
	}
	keys := make([]verify.Key, 0, count)
	for i := 0; i < count; i++ {
		keyID, err := readField()
		if err != nil {
			return nil, err
		}
		alg, err := readField()
		if err != nil {
			return nil, err
		}
		pub, err := readField()
		if err != nil {
			return nil, err
		}
		keys = append(keys, verify.Key{KeyID: keyID, Algorithm: string(alg), Pubkey: pub})
	}
	return keys, nil
}

// TrustAnchors returns the cached, AES-KW-unwrapped trusted key bundle
// for ecuID, or (nil, nil) if none is cached. kek is the device key
// wrapping key (typically sourced from the secure element) used to
// verify the bundle has not been tampered with since it was cached.
func (s *Store) TrustAnchors(ecuID []byte, kek []byte) ([]verify.Key, error) {
	var wrapped []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketTrustAnchors).Get(ecuID)
		if v == nil {
			return nil
		}
		wrapped = append([]byte(nil), v...)
		return nil
	})
	if err != nil || wrapped == nil {
		return nil, err
	}
	plain, err := crypto.AESKeyUnwrapRFC3394(kek, wrapped)
	if err != nil {
		return nil, fmt.Errorf("trust: trust-anchor bundle integrity check failed: %w", err)
	}
	return decodeKeys(plain)
}

// SetTrustAnchors caches keys for ecuID, tamper-evidenced by AES-KW
// under kek. A device that only ever verifies documents with a
// baked-in trusted_keys[] never needs this path; it exists for ECUs
// that refresh their trust anchors from a provisioning service and
// must detect tampering with the cached copy across reboots.
func (s *Store) SetTrustAnchors(ecuID []byte, keys []verify.Key, kek []byte) error {
	plain := encodeKeys(keys)
	// AES-KW requires a multiple-of-8 length input; pad with a
	// length-prefixed scheme already guarantees round-trip decoding,
	// so pad to the next multiple of 8 with zero bytes and record the
	// true length inside plain itself (encodeKeys is self-delimiting).
	if rem := len(plain) % 8; rem != 0 {
		plain = append(plain, make([]byte, 8-rem)...)
	}
	if len(plain) < 16 {
		plain = append(plain, make([]byte, 16-len(plain))...)
	}
	wrapped, err := crypto.AESKeyWrapRFC3394(kek, plain)
	if err != nil {
		return fmt.Errorf("trust: wrap key bundle: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTrustAnchors).Put(ecuID, wrapped)
	})
}
