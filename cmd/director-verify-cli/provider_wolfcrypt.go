//go:build wolfcrypt_dylib

package main

import (
	"errors"
	"log/slog"
	"os"

	"uptane.dev/director/crypto"
)

// loadCryptoProvider prefers the secure-element-backed provider and
// falls back to software only when DIRECTOR_HSM_STRICT does not forbid
// it. This one-shot CLI never runs crypto.HSMMonitor's ticker loop —
// that loop is for a long-running ECU main process to detect the
// secure element going away mid-flight, which doesn't apply to a
// process that loads a provider once and exits.
func loadCryptoProvider() (crypto.Provider, error) {
	hsmCfg := crypto.HSMConfigFromEnv()

	prov, err := crypto.LoadWolfcryptDylibProviderFromEnv()
	if err == nil {
		return prov, nil
	}
	if hsmCfg.Strict {
		return nil, errors.New("wolfcrypt shim unavailable and DIRECTOR_HSM_STRICT forbids software fallback: " + err.Error())
	}
	if _, set := os.LookupEnv("DIRECTOR_WOLFCRYPT_SHIM_PATH"); set {
		slog.Warn("wolfcrypt shim load failed, falling back to software provider", "error", err)
	}
	return crypto.SoftwareProvider{}, nil
}
