package verify

// Primitive readers for the Grammar Walker. Every one of these funnels
// through teeReader.consume/peek; none may touch a ByteSource directly.
//
// None of these tolerate whitespace, field reordering, or escape
// sequences — the document is assumed canonical, per the grammar in
// this package's callers.

// literal requires the next len(s) bytes to equal s exactly.
func (t *teeReader) literal(s string) error {
	buf := make([]byte, len(s))
	if err := t.consume(buf); err != nil {
		return err
	}
	if string(buf) != s {
		return errf(JSONError, "literal mismatch: want "+s)
	}
	return nil
}

// text requires an opening '"', then copies bytes into a freshly
// allocated slice (bounded by max) until the closing '"'. Failing to
// find the closing quote within max bytes is a grammar error. There is
// no escape processing: a '\' is an ordinary byte.
func (t *teeReader) text(max int) ([]byte, error) {
	if err := t.literal(`"`); err != nil {
		return nil, err
	}
	out := make([]byte, 0, max)
	for {
		b, err := t.consumeByte()
		if err != nil {
			return nil, err
		}
		if b == '"' {
			return out, nil
		}
		if len(out) >= max {
			return nil, errf(JSONError, "text: exceeded max length")
		}
		out = append(out, b)
	}
}

// skipText is text with an unbounded cap and no destination buffer —
// used for fields whose content this core never inspects (target path
// keys, an ignored signature's hex body).
func (t *teeReader) skipText() error {
	if err := t.literal(`"`); err != nil {
		return err
	}
	for {
		b, err := t.consumeByte()
		if err != nil {
			return err
		}
		if b == '"' {
			return nil
		}
	}
}

func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

// hexDecode requires an opening '"', then pairs of [0-9A-Fa-f] nibbles
// composed MSB-first — (hi<<4)|lo — into a byte slice bounded by
// maxBytes, terminated by the closing '"'. An odd number of hex digits
// or a non-hex character is a grammar error.
func (t *teeReader) hexDecode(maxBytes int) ([]byte, error) {
	if err := t.literal(`"`); err != nil {
		return nil, err
	}
	out := make([]byte, 0, maxBytes)
	for {
		b, err := t.peek()
		if err != nil {
			return nil, err
		}
		if b == '"' {
			if _, err := t.consumeByte(); err != nil {
				return nil, err
			}
			return out, nil
		}
		hi, ok := hexNibble(b)
		if !ok {
			return nil, errf(JSONError, "hex: non-hex digit")
		}
		if _, err := t.consumeByte(); err != nil {
			return nil, err
		}
		loByte, err := t.consumeByte()
		if err != nil {
			return nil, err
		}
		lo, ok := hexNibble(loByte)
		if !ok {
			return nil, errf(JSONError, "hex: odd-length or non-hex digit")
		}
		if len(out) >= maxBytes {
			return nil, errf(JSONError, "hex: exceeded max length")
		}
		out = append(out, (hi<<4)|lo)
	}
}

// uintDecode reads one or more [0-9] digits directly from the stream
// (unquoted) and accumulates v = v*10 + d in unsigned 32-bit
// arithmetic. At least one digit is required. The first non-digit byte
// is left unconsumed for the next primitive to see via peek.
func (t *teeReader) uintDecode() (uint32, error) {
	var v uint32
	digits := 0
	for {
		b, err := t.peek()
		if err != nil {
			return 0, err
		}
		if b < '0' || b > '9' {
			break
		}
		if _, err := t.consumeByte(); err != nil {
			return 0, err
		}
		v = v*10 + uint32(b-'0')
		digits++
	}
	if digits == 0 {
		return 0, errf(JSONError, "uint: expected at least one digit")
	}
	return v, nil
}

// readFixedDigits reads exactly n digit bytes and returns their value.
func (t *teeReader) readFixedDigits(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		b, err := t.consumeByte()
		if err != nil {
			return 0, err
		}
		if b < '0' || b > '9' {
			return 0, errf(JSONError, "time: expected digit")
		}
		v = v*10 + uint32(b-'0')
	}
	return v, nil
}

// timeDecode matches the literal format "YYYY-MM-DDTHH:MM:SSZ" with
// component upper bounds year<=65535, month<=12, day<=31, hour<=23,
// minute/second<=59. The closing quote is matched together with the
// trailing 'Z' as the single literal token `Z"`, removing the
// ambiguity of whether a neighbouring literal absorbs it.
func (t *teeReader) timeDecode() (CivilTime, error) {
	var ct CivilTime
	if err := t.literal(`"`); err != nil {
		return ct, err
	}
	year, err := t.readFixedDigits(4)
	if err != nil {
		return ct, err
	}
	if err := t.literal("-"); err != nil {
		return ct, err
	}
	month, err := t.readFixedDigits(2)
	if err != nil {
		return ct, err
	}
	if month > 12 {
		return ct, errf(JSONError, "time: month out of range")
	}
	if err := t.literal("-"); err != nil {
		return ct, err
	}
	day, err := t.readFixedDigits(2)
	if err != nil {
		return ct, err
	}
	if day > 31 {
		return ct, errf(JSONError, "time: day out of range")
	}
	if err := t.literal("T"); err != nil {
		return ct, err
	}
	hour, err := t.readFixedDigits(2)
	if err != nil {
		return ct, err
	}
	if hour > 23 {
		return ct, errf(JSONError, "time: hour out of range")
	}
	if err := t.literal(":"); err != nil {
		return ct, err
	}
	minute, err := t.readFixedDigits(2)
	if err != nil {
		return ct, err
	}
	if minute > 59 {
		return ct, errf(JSONError, "time: minute out of range")
	}
	if err := t.literal(":"); err != nil {
		return ct, err
	}
	sec, err := t.readFixedDigits(2)
	if err != nil {
		return ct, err
	}
	if sec > 59 {
		return ct, errf(JSONError, "time: second out of range")
	}
	if err := t.literal(`Z"`); err != nil {
		return ct, err
	}
	ct = CivilTime{
		Year:   uint16(year),
		Month:  uint8(month),
		Day:    uint8(day),
		Hour:   uint8(hour),
		Minute: uint8(minute),
		Sec:    uint8(sec),
	}
	return ct, nil
}
