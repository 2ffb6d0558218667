package doublearray

import (
	"errors"
)

// ErrTooLargeOffset reports a layout that needs a base beyond the 29-bit
// encodable range. It aborts the build; no image is produced.
var ErrTooLargeOffset = errors.New("too large offset")

// Unit is one 32-bit element of the packed double array.
//
// Bit 31 flags a value unit whose low 31 bits hold the value. Bit 8 is the
// has-leaf flag, bit 9 selects the offset encoding, bits 10..31 carry the
// offset payload and bits 0..7 the incoming edge label.
type Unit uint32

func (u Unit) HasLeaf() bool { return (u>>8)&1 == 1 }

func (u Unit) Value() int32 { return int32(u & ((1 << 31) - 1)) }

// Label includes bit 31 in the mask so a value unit can never compare equal
// to a key byte.
func (u Unit) Label() uint32 { return uint32(u) & ((1 << 31) | 0xFF) }

// Offset decodes the child base: the payload as-is, or shifted left by 8
// when bit 9 is set.
func (u Unit) Offset() uint32 { return (uint32(u) >> 10) << ((uint32(u) & (1 << 9)) >> 6) }

// builderUnit is the mutable spelling of Unit used during layout. The bit
// layout is identical; build converts the finished slice unit by unit.
type builderUnit uint32

func (u *builderUnit) setHasLeaf(hasLeaf bool) {
	if hasLeaf {
		*u |= 1 << 8
	} else {
		*u &^= 1 << 8
	}
}

func (u *builderUnit) setValue(value int32) {
	*u = builderUnit(uint32(value) | 1<<31)
}

func (u *builderUnit) setLabel(label byte) {
	*u = (*u &^ 0xFF) | builderUnit(label)
}

func (u *builderUnit) setOffset(offset uint32) error {
	if offset >= 1<<29 {
		return ErrTooLargeOffset
	}
	*u &= (1 << 31) | (1 << 8) | 0xFF
	if offset < 1<<21 {
		*u |= builderUnit(offset << 10)
	} else {
		*u |= builderUnit(offset<<2) | 1<<9
	}
	return nil
}
