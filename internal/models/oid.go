package models

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ParseError reports a two-character chunk that is not a hex octet.
type ParseError struct {
	Chunk string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%q cannot be parsed as an octet", e.Chunk)
}

// Oid identifies a commit. The zero value is the empty identifier.
// Oids are comparable and can be used as map keys.
type Oid struct {
	raw string // raw bytes, not hex
}

// ParseOid decodes a hex identifier, two characters per byte
func ParseOid(s string) (Oid, error) {
	var b strings.Builder
	b.Grow(len(s) / 2)

	for i := 0; i < len(s); i += 2 {
		if i+1 >= len(s) {
			return Oid{}, &ParseError{Chunk: s[i:]}
		}
		chunk := s[i : i+2]
		octet, ok := decodeOctet(chunk)
		if !ok {
			return Oid{}, &ParseError{Chunk: chunk}
		}
		b.WriteByte(octet)
	}

	return Oid{raw: b.String()}, nil
}

// MustParseOid is like ParseOid but panics on malformed input. Intended for tests.
func MustParseOid(s string) Oid {
	id, err := ParseOid(s)
	if err != nil {
		panic(err)
	}
	return id
}

// OidFromBytes copies b into a new Oid
func OidFromBytes(b []byte) Oid {
	return Oid{raw: string(b)}
}

func decodeOctet(chunk string) (byte, bool) {
	hi, ok := hexValue(chunk[0])
	if !ok {
		return 0, false
	}
	lo, ok := hexValue(chunk[1])
	if !ok {
		return 0, false
	}
	return hi<<4 | lo, true
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// String returns the canonical lowercase hex form.
func (o Oid) String() string {
	return hex.EncodeToString([]byte(o.raw))
}

// GoString makes %#v print Oid(<hex>).
func (o Oid) GoString() string {
	return "Oid(" + o.String() + ")"
}

// Bytes returns a copy of the raw identifier bytes.
func (o Oid) Bytes() []byte {
	return []byte(o.raw)
}

// Len returns the number of raw bytes.
func (o Oid) Len() int {
	return len(o.raw)
}

// Compare orders Oids byte-lexicographically.
func (o Oid) Compare(other Oid) int {
	return strings.Compare(o.raw, other.raw)
}

// OidSet is a set of commit identifiers.
type OidSet map[Oid]struct{}

// NewOidSet returns a set holding ids.
func NewOidSet(ids ...Oid) OidSet {
	s := make(OidSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s OidSet) Add(id Oid) {
	s[id] = struct{}{}
}

func (s OidSet) Has(id Oid) bool {
	_, ok := s[id]
	return ok
}

func (s OidSet) Remove(id Oid) {
	delete(s, id)
}

func (s OidSet) Len() int {
	return len(s)
}

// Clone returns an independent copy of s.
func (s OidSet) Clone() OidSet {
	c := make(OidSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Intersect returns the members of s that are also in other.
func (s OidSet) Intersect(other OidSet) OidSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := OidSet{}
	for id := range small {
		if large.Has(id) {
			out.Add(id)
		}
	}
	return out
}

// Sorted returns the members in ascending Oid order.
func (s OidSet) Sorted() []Oid {
	ids := make([]Oid, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
	return ids
}

// Strings returns the canonical hex forms in ascending Oid order.
func (s OidSet) Strings() []string {
	ids := s.Sorted()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
