// Package id160 provides 160-bit identifiers and the cryptographically
// strong, worker-confined random generator used to mint them.
package id160

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

// Size is the identifier width in bytes.
const Size = 20

var ErrBadIdLength = errors.New("id160 must be 20 bytes")

// Id160 is a 160-bit identifier stored big-endian. The zero value is the
// all-zero identifier.
type Id160 [Size]byte

// Zero is the smallest identifier.
var Zero Id160

// FromBytes builds an identifier from exactly 20 bytes.
func FromBytes(b []byte) (Id160, error) {
	if len(b) != Size {
		return Id160{}, fmt.Errorf("%w: have %d", ErrBadIdLength, len(b))
	}
	var id Id160
	copy(id[:], b)
	return id, nil
}

// Parse decodes the 40-character hex form produced by String.
func Parse(s string) (Id160, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Id160{}, fmt.Errorf("%w: %v", ErrBadIdLength, err)
	}
	return FromBytes(b)
}

// String returns the identifier as 40 lowercase hex characters.
func (id Id160) String() string { return hex.EncodeToString(id[:]) }

// IsZero reports whether the identifier is all zero.
func (id Id160) IsZero() bool { return id == Zero }

// Compare orders identifiers as unsigned big-endian integers, returning
// -1, 0 or 1.
func (id Id160) Compare(other Id160) int {
	return bytes.Compare(id[:], other[:])
}

// sub returns id - other, assuming id >= other.
func (id Id160) sub(other Id160) Id160 {
	var out Id160
	var borrow int
	for i := Size - 1; i >= 0; i-- {
		d := int(id[i]) - int(other[i]) - borrow
		if d < 0 {
			d += 256
			borrow = 1
		} else {
			borrow = 0
		}
		out[i] = byte(d)
	}
	return out
}

// add returns id + other, discarding overflow beyond 160 bits.
func (id Id160) add(other Id160) Id160 {
	var out Id160
	var carry int
	for i := Size - 1; i >= 0; i-- {
		s := int(id[i]) + int(other[i]) + carry
		out[i] = byte(s)
		carry = s >> 8
	}
	return out
}

// bitLen returns the number of significant bits in the identifier.
func (id Id160) bitLen() int {
	for i := 0; i < Size; i++ {
		if id[i] != 0 {
			n := (Size - 1 - i) * 8
			for v := id[i]; v != 0; v >>= 1 {
				n++
			}
			return n
		}
	}
	return 0
}
