// Command director-verify-cli is a JSON request/response conformance
// harness over the Director Targets Verifier. One JSON object on
// stdin, one JSON object on stdout; no interactive protocol.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"uptane.dev/director/ecuconf"
	"uptane.dev/director/trust"
	"uptane.dev/director/verify"
)

type KeyJSON struct {
	KeyIDHex  string `json:"keyid_hex"`
	Algorithm string `json:"algorithm"`
	PubkeyHex string `json:"pubkey_hex"`
}

type Request struct {
	Op string `json:"op"`

	ECUID      string `json:"ecu_id,omitempty"`
	HardwareID string `json:"hardware_id,omitempty"`
	DataDir    string `json:"data_dir,omitempty"`

	DocumentHex string    `json:"document_hex,omitempty"`
	Now         string    `json:"now,omitempty"` // RFC 3339; defaults to current time if empty
	TrustedKeys []KeyJSON `json:"trusted_keys,omitempty"`
	Threshold   uint      `json:"threshold,omitempty"`
	PoolSize    int       `json:"pool_size,omitempty"`

	// Used by set-version-prev; and as a fallback version_prev for
	// verify when data_dir is empty (stateless, no persistence).
	Version uint32 `json:"version,omitempty"`
}

type Response struct {
	Ok         bool   `json:"ok"`
	Err        string `json:"err,omitempty"`
	Result     string `json:"result,omitempty"`
	Version    uint32 `json:"version,omitempty"`
	SHA512Hex  string `json:"sha512_hex,omitempty"`
	Length     uint32 `json:"length,omitempty"`
	VersionGet uint32 `json:"version_prev,omitempty"`
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: fmt.Sprintf("bad request: %v", err)})
		return
	}

	switch req.Op {
	case "verify":
		doVerify(req)
		return
	case "get-version-prev":
		doGetVersionPrev(req)
		return
	case "set-version-prev":
		doSetVersionPrev(req)
		return
	default:
		writeResp(os.Stdout, Response{Ok: false, Err: "unknown op"})
		return
	}
}

func parseKeys(in []KeyJSON) ([]verify.Key, error) {
	out := make([]verify.Key, 0, len(in))
	for _, k := range in {
		keyID, err := hex.DecodeString(k.KeyIDHex)
		if err != nil {
			return nil, fmt.Errorf("bad keyid_hex: %w", err)
		}
		pubkey, err := hex.DecodeString(k.PubkeyHex)
		if err != nil {
			return nil, fmt.Errorf("bad pubkey_hex: %w", err)
		}
		out = append(out, verify.Key{KeyID: keyID, Algorithm: k.Algorithm, Pubkey: pubkey})
	}
	return out, nil
}

func doVerify(req Request) {
	docBytes, err := hex.DecodeString(req.DocumentHex)
	if err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: "bad document_hex"})
		return
	}

	keys, err := parseKeys(req.TrustedKeys)
	if err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: err.Error()})
		return
	}

	now := time.Now().UTC()
	if req.Now != "" {
		parsed, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: "bad now: " + err.Error()})
			return
		}
		now = parsed.UTC()
	}

	cfg := ecuconf.DefaultConfig()
	cfg.ECUID = req.ECUID
	cfg.HardwareID = req.HardwareID
	cfg.PoolSize = req.PoolSize
	if req.Threshold > 0 {
		cfg.Threshold = req.Threshold
	}
	if req.DataDir != "" {
		cfg.DataDir = req.DataDir
	}
	if err := ecuconf.ValidateConfig(cfg); err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: "bad config: " + err.Error()})
		return
	}

	var store *trust.Store
	versionPrev := req.Version
	if req.DataDir != "" {
		store, err = trust.Open(req.DataDir)
		if err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: "open trust store: " + err.Error()})
			return
		}
		defer store.Close()
		versionPrev, err = store.VersionPrev([]byte(req.ECUID), []byte(req.HardwareID))
		if err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: "read version_prev: " + err.Error()})
			return
		}
	}

	provider, err := loadCryptoProvider()
	if err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: "load crypto provider: " + err.Error()})
		return
	}

	alloc := cfg.Allocator()
	ctx, err := verify.NewContext(
		alloc,
		newSliceSource(docBytes),
		provider,
		versionPrev,
		verify.CivilTimeFromTime(now),
		[]byte(req.ECUID),
		[]byte(req.HardwareID),
		keys,
		cfg.Threshold,
	)
	if err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: err.Error()})
		return
	}
	defer alloc.Free(ctx)

	result, err := ctx.Process()
	if err != nil {
		if verr, ok := err.(*verify.Error); ok {
			writeResp(os.Stdout, Response{Ok: false, Err: string(verr.Code)})
			return
		}
		writeResp(os.Stdout, Response{Ok: false, Err: err.Error()})
		return
	}

	resp := Response{Ok: true, Result: string(result)}
	switch result {
	case verify.ResultOKUpdate:
		sha512 := ctx.SHA512()
		resp.SHA512Hex = hex.EncodeToString(sha512[:])
		resp.Length = ctx.Length()
		resp.Version = ctx.Version()
	case verify.ResultOKNoUpdate:
		resp.Version = ctx.Version()
	}

	if store != nil && (result == verify.ResultOKUpdate || result == verify.ResultOKNoUpdate) {
		if err := store.SetVersionPrev([]byte(req.ECUID), []byte(req.HardwareID), ctx.Version()); err != nil {
			writeResp(os.Stdout, Response{Ok: false, Err: "persist version_prev: " + err.Error()})
			return
		}
	}

	writeResp(os.Stdout, resp)
}

func doGetVersionPrev(req Request) {
	if req.DataDir == "" {
		writeResp(os.Stdout, Response{Ok: false, Err: "data_dir required"})
		return
	}
	store, err := trust.Open(req.DataDir)
	if err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: err.Error()})
		return
	}
	defer store.Close()

	v, err := store.VersionPrev([]byte(req.ECUID), []byte(req.HardwareID))
	if err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: err.Error()})
		return
	}
	writeResp(os.Stdout, Response{Ok: true, VersionGet: v})
}

func doSetVersionPrev(req Request) {
	if req.DataDir == "" {
		writeResp(os.Stdout, Response{Ok: false, Err: "data_dir required"})
		return
	}
	store, err := trust.Open(req.DataDir)
	if err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: err.Error()})
		return
	}
	defer store.Close()

	if err := store.SetVersionPrev([]byte(req.ECUID), []byte(req.HardwareID), req.Version); err != nil {
		writeResp(os.Stdout, Response{Ok: false, Err: err.Error()})
		return
	}
	writeResp(os.Stdout, Response{Ok: true})
}
