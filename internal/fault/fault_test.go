package fault

import (
	"errors"
	"fmt"
	"image"
	"io"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestErrorString(t *testing.T) {
	err := New(OutOfBounds, "read").WithAddress(0x80010000, 4)
	assert.Equal(t, "read: out of bounds (address 0x80010000 size 0x4)", err.Error())

	err = New(UninitializedRead, "read texture").WithRect(image.Rect(0, 0, 2, 1))
	assert.Equal(t, "read texture: uninitialized read (rect (0, 0)(1, 0))", err.Error())

	err = New(MalformedDescriptor, "chain").WithOffset(0x10).WithIndex(2).WithDetail("type %d", 7)
	assert.Equal(t, "chain: malformed descriptor (offset 0x10, index 2): type 7", err.Error())

	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("loading: %w", New(DecodeOverflow, "unpack").Wrap(io.ErrUnexpectedEOF))

	assert.ErrorIs(t, err, ErrDecodeOverflow)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.False(t, errors.Is(err, ErrInvalidBackReference))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, UnexpectedRecordType, KindOf(fmt.Errorf("variant 2: %w", New(UnexpectedRecordType, "chain"))))
	assert.Equal(t, Kind(0), KindOf(errors.New("disc read failed")))
	assert.Equal(t, Kind(0), KindOf(nil))
}
