// Package codec defines the read/write contract consumed by entities that
// are carried on the relay wire. Fields are identified by a (numeric tag,
// name) pair so that the encoded form can evolve without breaking older
// readers. The production codec engine is an external collaborator; this
// package only fixes the contract and ships an in-memory implementation
// used by tests and tooling.
package codec

import (
	"errors"
	"fmt"
)

// ErrDecode is the root of all decode failures. A failed decode never
// yields a partially constructed entity.
var ErrDecode = errors.New("codec: decode error")

// Writer writes tagged fields of a single message.
type Writer interface {
	WriteDouble(tag int, name string, v float64) error
	WriteInt64(tag int, name string, v int64) error
	WriteInt(tag int, name string, v int) error
	WriteString(tag int, name string, v string) error
	// WriteMessage writes a nested message under the given tag. The
	// callback receives a Writer scoped to the nested message.
	WriteMessage(tag int, name string, write func(Writer) error) error
	// WriteList writes n nested messages under the given tag. The callback
	// is invoked once per element with a Writer scoped to that element.
	WriteList(tag int, name string, n int, write func(i int, w Writer) error) error
}

// Reader reads tagged fields of a single message. Reads consume fields in
// the order they were written; IsNext peeks without consuming.
type Reader interface {
	// IsNext reports whether the next unread field carries the given tag.
	// It never consumes the field.
	IsNext(tag int, name string) bool
	ReadDouble(tag int, name string) (float64, error)
	// ReadInt64 returns def when the field is absent at the current
	// position, matching optional-field semantics of the wire format.
	ReadInt64(tag int, name string, def int64) (int64, error)
	ReadInt(tag int, name string) (int, error)
	ReadString(tag int, name string) (string, error)
	ReadMessage(tag int, name string) (Reader, error)
	ReadList(tag int, name string) ([]Reader, error)
}

// Message is implemented by entities that can write themselves to a codec.
// The matching read side is a package-level function per entity type.
type Message interface {
	WriteTo(w Writer) error
}

func decodeErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}
