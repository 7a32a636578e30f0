package verify

import "bytes"

// Grammar Walker: a hand-written recursive-descent parser for the
// fixed document shape. No field reordering is tolerated — each fixed
// delimiter is matched with literal, each variable slot with the
// matching primitive. The document is whitespace-free.
//
//	{"signatures":[
//	  {"keyid":"<hex>","method":"<name>","sig":"<hex>"}
//	  (,{"keyid":…,"method":…,"sig":…})*
//	],
//	"signed":{
//	  "_type":"Targets",
//	  "expires":"YYYY-MM-DDTHH:MM:SSZ",
//	  "targets":{
//	    "<path>":{
//	      "custom":{"ecu_identifier":"<id>","hardware_identifier":"<id>","release_counter":<uint>},
//	      "hashes":{"<alg>":"<hex>" (,"<alg>":"<hex>")*},
//	      "length":<uint>
//	    }
//	    (,"<path>":{…})*
//	  },
//	  "version":<uint>
//	}}

// parseSignatures consumes the document up through ",\"signed\":" —
// everything up to but not including the signed value's opening '{',
// since that brace is the first tee-forwarded byte.
func (c *Context) parseSignatures() error {
	if err := c.tee.literal(`{"signatures":[`); err != nil {
		return err
	}
	count := 0
	first := true
	for {
		b, err := c.tee.peek()
		if err != nil {
			return err
		}
		if b == ']' {
			if _, err := c.tee.consumeByte(); err != nil {
				return err
			}
			break
		}
		if !first {
			if err := c.tee.literal(","); err != nil {
				return err
			}
		}
		if count >= MaxSigs {
			return errf(JSONError, "signatures: more than MaxSigs entries")
		}
		if err := c.parseSignatureEntry(); err != nil {
			return err
		}
		count++
		first = false
	}
	return c.tee.literal(`,"signed":`)
}

// parseSignatureEntry reads one {"keyid":...,"method":...,"sig":...}
// entry. An entry whose keyid doesn't match a trusted slot, or whose
// method isn't supported, is ignored: its sig is discarded with
// skipText rather than validated as hex.
func (c *Context) parseSignatureEntry() error {
	if err := c.tee.literal(`{"keyid":`); err != nil {
		return err
	}
	keyID, err := c.tee.hexDecode(BufSize)
	if err != nil {
		return err
	}
	if err := c.tee.literal(`,"method":`); err != nil {
		return err
	}
	method, err := c.tee.text(BufSize)
	if err != nil {
		return err
	}
	if err := c.tee.literal(`,"sig":`); err != nil {
		return err
	}

	slot := findKeySlot(c.sigSlots, keyID)
	supported := slot >= 0 && c.provider != nil && c.provider.SupportsMethod(string(method))
	if !supported {
		if err := c.tee.skipText(); err != nil {
			return err
		}
	} else {
		sigBytes, err := c.tee.hexDecode(SigBytes)
		if err != nil {
			return err
		}
		c.sigSlots[slot].sigBytes = sigBytes
		c.sigSlots[slot].hasher = c.provider.NewDigest()
		c.sigSlots[slot].present = true
	}
	return c.tee.literal(`}`)
}

// parseSignedFields drives the fixed-order fields of the signed
// subobject and consumes its matching closing '}'. The predicate order
// here — wrong type, expiry, downgrade, ECU duplicate — must not
// change: each presupposes the ones before it.
func (c *Context) parseSignedFields() error {
	if err := c.tee.literal(`"_type":`); err != nil {
		return err
	}
	typ, err := c.tee.text(BufSize)
	if err != nil {
		return err
	}
	if string(typ) != "Targets" {
		return errf(WrongType, "signed._type is not \"Targets\"")
	}

	if err := c.tee.literal(`,"expires":`); err != nil {
		return err
	}
	expires, err := c.tee.timeDecode()
	if err != nil {
		return err
	}
	if c.now.After(expires) {
		return errf(Expired, "now is after expires")
	}

	if err := c.tee.literal(`,"targets":{`); err != nil {
		return err
	}
	if err := c.parseTargets(); err != nil {
		return err
	}

	if err := c.tee.literal(`,"version":`); err != nil {
		return err
	}
	version, err := c.tee.uintDecode()
	if err != nil {
		return err
	}
	if version < c.versionPrev {
		return errf(Downgrade, "version below version_prev")
	}
	c.out.version = version

	// Duplicates are detected while walking targets, which precedes
	// version in document order, but downgrade must still be checked
	// first: defer the verdict until version has cleared.
	if c.dupPending {
		return errf(ECUDuplicate, "more than one target matches this ECU")
	}

	return c.tee.literal(`}`)
}

// parseTargets iterates "<path>":{...} entries separated by ',' until
// the object's closing '}', which it consumes.
func (c *Context) parseTargets() error {
	first := true
	for {
		b, err := c.tee.peek()
		if err != nil {
			return err
		}
		if b == '}' {
			if _, err := c.tee.consumeByte(); err != nil {
				return err
			}
			return nil
		}
		if !first {
			if err := c.tee.literal(","); err != nil {
				return err
			}
		}
		if err := c.parseTargetEntry(); err != nil {
			return err
		}
		first = false
	}
}

// parseTargetEntry reads one "<path>":{value} entry. The path key is
// an arbitrary string and is skipped.
func (c *Context) parseTargetEntry() error {
	if err := c.tee.skipText(); err != nil {
		return err
	}
	if err := c.tee.literal(`:{`); err != nil {
		return err
	}
	matched, err := c.parseTargetValue()
	if err != nil {
		return err
	}
	if matched {
		if c.gotImage {
			c.dupPending = true
		} else {
			c.gotImage = true
		}
	}
	return nil
}

// parseTargetValue parses custom{...}, hashes{...}, and length for one
// target entry, and reports whether it matches this ECU and hardware.
// Fields are always parsed in full for grammar validity regardless of
// match; output is only ever committed when matched is true.
func (c *Context) parseTargetValue() (matched bool, err error) {
	if err := c.tee.literal(`"custom":{"ecu_identifier":`); err != nil {
		return false, err
	}
	ecuID, err := c.tee.text(BufSize)
	if err != nil {
		return false, err
	}
	if err := c.tee.literal(`,"hardware_identifier":`); err != nil {
		return false, err
	}
	hwID, err := c.tee.text(BufSize)
	if err != nil {
		return false, err
	}
	if err := c.tee.literal(`,"release_counter":`); err != nil {
		return false, err
	}
	if _, err := c.tee.uintDecode(); err != nil { // parsed and discarded
		return false, err
	}
	if err := c.tee.literal(`},"hashes":{`); err != nil {
		return false, err
	}

	matched = bytes.Equal(ecuID, c.ecuID) && bytes.Equal(hwID, c.hardwareID)

	var gotHashLocal bool
	var sha512Local [HashBytes]byte
	if err := c.parseHashes(&gotHashLocal, &sha512Local); err != nil {
		return false, err
	}

	if err := c.tee.literal(`,"length":`); err != nil {
		return false, err
	}
	length, err := c.tee.uintDecode()
	if err != nil {
		return false, err
	}
	if err := c.tee.literal(`}`); err != nil {
		return false, err
	}

	if matched {
		c.out.length = length
		if gotHashLocal {
			c.out.sha512 = sha512Local
			c.gotHash = true
		}
	}
	return matched, nil
}

// parseHashes iterates (algorithm-name, hex-string) pairs until the
// object's closing '}', which it consumes. Only SupportedHashAlgorithm
// is decoded; every other algorithm name's hex body is skipped as
// text. gotHash/out are scoped to this single target entry — the
// caller commits them to the Context only for a matching entry, so a
// later non-matching entry can never overwrite a previously committed
// hash. A second matching entry does commit its own values, but that
// document always ends in ECUDuplicate.
func (c *Context) parseHashes(gotHash *bool, sha512Out *[HashBytes]byte) error {
	first := true
	for {
		b, err := c.tee.peek()
		if err != nil {
			return err
		}
		if b == '}' {
			if _, err := c.tee.consumeByte(); err != nil {
				return err
			}
			return nil
		}
		if !first {
			if err := c.tee.literal(","); err != nil {
				return err
			}
		}
		alg, err := c.tee.text(BufSize)
		if err != nil {
			return err
		}
		if err := c.tee.literal(":"); err != nil {
			return err
		}
		if string(alg) == SupportedHashAlgorithm {
			digest, err := c.tee.hexDecode(HashBytes)
			if err != nil {
				return err
			}
			if len(digest) != HashBytes {
				return errf(JSONError, "hashes: sha512 digest must be 64 bytes")
			}
			copy(sha512Out[:], digest)
			*gotHash = true
		} else {
			if err := c.tee.skipText(); err != nil {
				return err
			}
		}
		first = false
	}
}
