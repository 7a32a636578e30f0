//go:build !wolfcrypt_dylib

package main

import "uptane.dev/director/crypto"

func loadCryptoProvider() (crypto.Provider, error) {
	return crypto.SoftwareProvider{}, nil
}
