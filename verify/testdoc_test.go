package verify

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"sort"
	"strconv"
	"strings"
)

// memSource is a fixed in-memory ByteSource used to drive Context.Process
// in tests without any real I/O.
type memSource struct {
	buf []byte
	off int
}

func newMemSource(buf []byte) *memSource { return &memSource{buf: buf} }

func (m *memSource) Read(buf []byte) error {
	if m.off+len(buf) > len(m.buf) {
		return io.ErrUnexpectedEOF
	}
	copy(buf, m.buf[m.off:m.off+len(buf)])
	m.off += len(buf)
	return nil
}

func (m *memSource) Peek() (byte, error) {
	if m.off >= len(m.buf) {
		return 0, io.EOF
	}
	return m.buf[m.off], nil
}

type testTarget struct {
	path           string
	ecuID          string
	hardwareID     string
	releaseCounter uint32
	hashes         map[string]string // algorithm name -> hex digest
	length         uint32
}

// buildSignedJSON renders the canonical, whitespace-free "signed" value
// the Grammar Walker expects, with hash entries in sorted-name order so
// test output is deterministic.
func buildSignedJSON(typ, expires string, targets []testTarget, version uint32) string {
	var sb strings.Builder
	sb.WriteString(`{"_type":"`)
	sb.WriteString(typ)
	sb.WriteString(`","expires":"`)
	sb.WriteString(expires)
	sb.WriteString(`","targets":{`)
	for i, tg := range targets {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`"`)
		sb.WriteString(tg.path)
		sb.WriteString(`":{"custom":{"ecu_identifier":"`)
		sb.WriteString(tg.ecuID)
		sb.WriteString(`","hardware_identifier":"`)
		sb.WriteString(tg.hardwareID)
		sb.WriteString(`","release_counter":`)
		sb.WriteString(strconv.FormatUint(uint64(tg.releaseCounter), 10))
		sb.WriteString(`},"hashes":{`)
		names := make([]string, 0, len(tg.hashes))
		for name := range tg.hashes {
			names = append(names, name)
		}
		sort.Strings(names)
		for j, name := range names {
			if j > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(`"`)
			sb.WriteString(name)
			sb.WriteString(`":"`)
			sb.WriteString(tg.hashes[name])
			sb.WriteString(`"`)
		}
		sb.WriteString(`},"length":`)
		sb.WriteString(strconv.FormatUint(uint64(tg.length), 10))
		sb.WriteString(`}`)
	}
	sb.WriteString(`},"version":`)
	sb.WriteString(strconv.FormatUint(uint64(version), 10))
	sb.WriteString(`}`)
	return sb.String()
}

type testSig struct {
	keyIDHex string
	method   string
	sigHex   string
}

// buildDocument wraps a "signed" value with a signatures[] array into
// the full document the Grammar Walker parses from byte zero.
func buildDocument(sigs []testSig, signedJSON string) []byte {
	var sb strings.Builder
	sb.WriteString(`{"signatures":[`)
	for i, s := range sigs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"keyid":"`)
		sb.WriteString(s.keyIDHex)
		sb.WriteString(`","method":"`)
		sb.WriteString(s.method)
		sb.WriteString(`","sig":"`)
		sb.WriteString(s.sigHex)
		sb.WriteString(`"}`)
	}
	sb.WriteString(`],"signed":`)
	sb.WriteString(signedJSON)
	sb.WriteString(`}`)
	return []byte(sb.String())
}

// signSignedJSON reproduces what finalizePipeline verifies: an Ed25519
// signature over the SHA-512 digest of the signed object's exact bytes
// (hash-then-sign, not a raw Ed25519 signature over the message).
func signSignedJSON(priv ed25519.PrivateKey, signedJSON string) []byte {
	digest := sha512.Sum512([]byte(signedJSON))
	return ed25519.Sign(priv, digest[:])
}

func hexOf(b []byte) string { return hex.EncodeToString(b) }
