// Package indexkey implements the content-addressed key used to bucket
// entities inside a secondary Index by property value. A Key is a
// structural-equality fingerprint, not a cryptographic digest: two
// distinct values whose serialized byte streams happen to coincide are
// treated as equal. Callers that index a property whose value type can
// produce colliding serializations accept that as a property of the
// value type, not a bug in Key.
package indexkey

import "fmt"

// inlineSize is the number of bytes a Key stores inline before falling
// back to a variable-length representation.
const inlineSize = 16

// Key is a comparable fingerprint of a property value, suitable for use
// directly as a Go map key. Values whose serialized form is at most
// inlineSize bytes are packed into short, zero-padded on the high end
// (the little-endian convention: the first byte written is the least
// significant). Longer values fall back to long, a Go string — itself
// comparable and hashable, so Key needs no custom hash function.
type Key struct {
	short   [inlineSize]byte
	isShort bool
	long    string
}

// hasher is the byte-accumulating hasher described by the indexing
// design: it has no notion of digests or rounds, it simply appends
// every byte it is fed.
type hasher struct {
	buf []byte
}

func (h *hasher) Write(p []byte) (int, error) {
	h.buf = append(h.buf, p...)
	return len(p), nil
}

// Of computes the Key for v. v is serialized via its Go-syntax
// representation (fmt's %#v verb), which is deterministic for any
// comparable value made of plain data — the only kind of value this
// package expects to index.
func Of(v any) Key {
	h := &hasher{}
	fmt.Fprintf(h, "%#v", v)
	return fromBytes(h.buf)
}

func fromBytes(data []byte) Key {
	if len(data) <= inlineSize {
		var short [inlineSize]byte
		copy(short[:], data)
		return Key{short: short, isShort: true}
	}
	return Key{long: string(data)}
}

// Bytes returns the serialized byte stream the Key was built from,
// primarily useful for debugging and tests.
func (k Key) Bytes() []byte {
	if k.isShort {
		n := inlineSize
		for n > 0 && k.short[n-1] == 0 {
			n--
		}
		out := make([]byte, n)
		copy(out, k.short[:n])
		return out
	}
	return []byte(k.long)
}
