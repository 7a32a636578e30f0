package verify

import "uptane.dev/director/crypto"

// Result is a success variant of Process. Failure is always signalled
// by a non-nil *Error instead.
type Result string

const (
	ResultOKUpdate   Result = "OK_UPDATE"
	ResultOKNoUpdate Result = "OK_NO_UPDATE"
	ResultOKNoImage  Result = "OK_NO_IMAGE"
)

type contextOutput struct {
	sha512  [HashBytes]byte
	length  uint32
	version uint32
}

// Context is the single stateful entity of one verification pass:
// constructed (via an Allocator), initialised with inputs, driven once
// through Process, inspected, then freed. Not reusable across
// documents — a freed Context must be re-initialised before reuse.
type Context struct {
	tee *teeReader

	provider crypto.Provider

	versionPrev uint32
	now         CivilTime
	ecuID       []byte
	hardwareID  []byte
	threshold   uint
	sigSlots    []sigSlot

	out contextOutput

	gotImage   bool
	gotHash    bool
	dupPending bool
}

// NewContext obtains a Context from alloc and initialises it for one
// Process call. trustedKeys and the identifiers passed in must outlive
// the returned Context; they are not copied.
func NewContext(
	alloc Allocator,
	src ByteSource,
	provider crypto.Provider,
	versionPrev uint32,
	now CivilTime,
	ecuID, hardwareID []byte,
	trustedKeys []Key,
	threshold uint,
) (*Context, error) {
	if len(trustedKeys) == 0 || len(trustedKeys) > MaxSigs {
		return nil, errf(NoMemory, "trusted_keys: must hold 1..MaxSigs entries")
	}
	if threshold < 1 || int(threshold) > len(trustedKeys) {
		return nil, errf(NoMemory, "threshold: must be 1..num_keys")
	}

	c := alloc.New()
	if c == nil {
		return nil, errf(NoMemory, "allocator exhausted")
	}

	c.tee = newTeeReader(src)
	c.provider = provider
	c.versionPrev = versionPrev
	c.now = now
	c.ecuID = ecuID
	c.hardwareID = hardwareID
	c.threshold = threshold

	c.sigSlots = make([]sigSlot, len(trustedKeys))
	for i, k := range trustedKeys {
		c.sigSlots[i].key = k
	}
	c.tee.slots = c.sigSlots

	return c, nil
}

func (c *Context) reset() {
	c.tee = nil
	c.provider = nil
	c.versionPrev = 0
	c.now = CivilTime{}
	c.ecuID = nil
	c.hardwareID = nil
	c.threshold = 0
	c.sigSlots = nil
	c.out = contextOutput{}
	c.gotImage = false
	c.gotHash = false
	c.dupPending = false
}

// Version returns the document's extracted version. Defined for
// ResultOKUpdate and ResultOKNoUpdate only.
func (c *Context) Version() uint32 { return c.out.version }

// SHA512 returns the extracted firmware digest. Defined for
// ResultOKUpdate only.
func (c *Context) SHA512() [HashBytes]byte { return c.out.sha512 }

// Length returns the extracted firmware byte length. Defined for
// ResultOKUpdate only.
func (c *Context) Length() uint32 { return c.out.length }

// Process drives the Grammar Walker across exactly one document and
// returns a success Result, or a non-nil *Error classifying why it did
// not succeed. It consumes exactly the bytes of one complete document
// on success and never peeks beyond the final '}'.
func (c *Context) Process() (Result, error) {
	if err := c.parseSignatures(); err != nil {
		return "", err
	}

	c.tee.inSigned = true
	if err := c.tee.literal("{"); err != nil {
		return "", err
	}
	if err := c.parseSignedFields(); err != nil {
		return "", err
	}
	c.tee.inSigned = false

	if err := c.tee.literal("}"); err != nil {
		return "", err
	}

	valid, err := finalizePipeline(c.provider, c.sigSlots)
	if err != nil {
		return "", err
	}
	if uint(valid) < c.threshold {
		return "", errf(SigFail, "valid signatures below threshold")
	}

	switch {
	case !c.gotImage:
		return ResultOKNoImage, nil
	case !c.gotHash:
		return "", errf(NoHash, "matching target carries no sha512 hash")
	case c.out.version == c.versionPrev:
		return ResultOKNoUpdate, nil
	default:
		return ResultOKUpdate, nil
	}
}
