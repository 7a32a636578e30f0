package verify

// teeReader is the single choke point between the Grammar Walker and
// the ByteSource. While inSigned holds, every consumed byte is
// forwarded to each live signature slot's hasher, in document order,
// exactly once. Peeked bytes are never forwarded — they are forwarded
// only once a later consume actually reads them.
//
// No primitive in this package may read from src directly; all of
// them funnel through consume/peek below.
type teeReader struct {
	src      ByteSource
	slots    []sigSlot
	inSigned bool
}

func newTeeReader(src ByteSource) *teeReader {
	return &teeReader{src: src}
}

// peek returns the next byte without consuming it and without feeding
// any live slot.
func (t *teeReader) peek() (byte, error) {
	b, err := t.src.Peek()
	if err != nil {
		return 0, errf(JSONError, "peek: "+err.Error())
	}
	return b, nil
}

// consume reads exactly len(buf) bytes and, while inSigned holds,
// forwards them to every present signature slot's hasher.
func (t *teeReader) consume(buf []byte) error {
	if err := t.src.Read(buf); err != nil {
		return errf(JSONError, "read: "+err.Error())
	}
	if t.inSigned {
		for i := range t.slots {
			if t.slots[i].present {
				t.slots[i].hasher.Write(buf)
			}
		}
	}
	return nil
}

// consumeByte reads and, if applicable, forwards a single byte.
func (t *teeReader) consumeByte() (byte, error) {
	var b [1]byte
	if err := t.consume(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}
