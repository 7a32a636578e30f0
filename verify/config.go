package verify

// Build-time configuration constants. Maximum steady-state memory is
// bounded by MaxSigs*(signature bytes + verify-ctx) plus one parse
// scratch buffer sized BufSize, plus the context record itself — no
// dynamic growth beyond these bounds.
const (
	// MaxSigs bounds both trusted_keys[] and the signatures array; any
	// signature entry past this many is a grammar error.
	MaxSigs = 8

	// BufSize bounds every text/hex field read into a caller buffer:
	// keyid, method, algorithm name, ecu/hardware identifiers. It must
	// be at least as large as the longest such field.
	BufSize = 128

	// KeyIDBytes is the fixed width of a decoded keyid, inherited from
	// the crypto library's key-identifier convention.
	KeyIDBytes = 32

	// PubkeyBytes and SigBytes are Ed25519's fixed widths.
	PubkeyBytes = 32
	SigBytes    = 64

	// HashBytes is the width of a decoded sha512 digest.
	HashBytes = 64

	// SupportedHashAlgorithm is the only hash algorithm name this core
	// recognises inside a target's hashes{} object; any other name is
	// parsed (for grammar) and discarded.
	SupportedHashAlgorithm = "sha512"

	// SupportedSigMethod is the only signature algorithm this core's
	// default software provider accepts.
	SupportedSigMethod = "ed25519"
)
