// Package fault defines the closed set of error kinds returned by the decoding core.
package fault

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// Kind classifies a decoding failure.
type Kind uint8

// error kinds.
const (
	OutOfBounds Kind = iota + 1
	UninitializedRead
	DecodeOverflow
	InvalidBackReference
	UnexpectedRecordType
	MalformedDescriptor
)

var kindNames = map[Kind]string{
	OutOfBounds:          "out of bounds",
	UninitializedRead:    "uninitialized read",
	DecodeOverflow:       "decode overflow",
	InvalidBackReference: "invalid back reference",
	UnexpectedRecordType: "unexpected record type",
	MalformedDescriptor:  "malformed descriptor",
}

// String returns the kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Sentinels usable with errors.Is, every Error matches the sentinel of its kind.
var (
	ErrOutOfBounds          = &Error{Kind: OutOfBounds}
	ErrUninitializedRead    = &Error{Kind: UninitializedRead}
	ErrDecodeOverflow       = &Error{Kind: DecodeOverflow}
	ErrInvalidBackReference = &Error{Kind: InvalidBackReference}
	ErrUnexpectedRecordType = &Error{Kind: UnexpectedRecordType}
	ErrMalformedDescriptor  = &Error{Kind: MalformedDescriptor}
)

// Error is a tagged decoding error carrying the context it happened in.
// Context fields that do not apply to an operation are left at their zero value
// and the matching Has flag stays false.
type Error struct {
	Kind Kind
	Op   string // operation that failed, for example "read" or "unpack"

	Address    uint32
	HasAddress bool
	Size       uint32
	Offset     int
	HasOffset  bool
	Index      int
	HasIndex   bool
	Rect       image.Rectangle
	HasRect    bool

	Detail string
	Err    error
}

// New returns an error of the given kind for an operation.
func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

// WithAddress attaches an emulated memory address and access size.
func (e *Error) WithAddress(address, size uint32) *Error {
	e.Address = address
	e.Size = size
	e.HasAddress = true
	return e
}

// WithOffset attaches a byte offset inside a buffer.
func (e *Error) WithOffset(offset int) *Error {
	e.Offset = offset
	e.HasOffset = true
	return e
}

// WithIndex attaches a record index.
func (e *Error) WithIndex(index int) *Error {
	e.Index = index
	e.HasIndex = true
	return e
}

// WithRect attaches a framebuffer rectangle.
func (e *Error) WithRect(rect image.Rectangle) *Error {
	e.Rect = rect
	e.HasRect = true
	return e
}

// WithDetail attaches a free form detail message.
func (e *Error) WithDetail(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())

	var fields []string
	if e.HasAddress {
		fields = append(fields, fmt.Sprintf("address 0x%08x size 0x%x", e.Address, e.Size))
	}
	if e.HasOffset {
		fields = append(fields, fmt.Sprintf("offset 0x%x", e.Offset))
	}
	if e.HasIndex {
		fields = append(fields, fmt.Sprintf("index %d", e.Index))
	}
	if e.HasRect {
		r := e.Rect
		fields = append(fields, fmt.Sprintf("rect (%d, %d)(%d, %d)", r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1))
	}
	if len(fields) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(fields, ", "))
		sb.WriteString(")")
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first Error found in the chain of err, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
