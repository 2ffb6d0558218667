package doublearray

import (
	"fmt"

	"github.com/amitdo/darts-clone/dawg"
	"github.com/amitdo/darts-clone/errutil"
)

const (
	blockSize      = 256
	numExtraBlocks = 16
	numExtras      = blockSize * numExtraBlocks

	upperMask = 0xFF << 21
	lowerMask = 0xFF
)

// extra is the per-slot layout metadata. Only the most recent numExtras
// slots keep extras; older blocks are frozen and their slots recycled
// through the ring.
type extra struct {
	prev    uint32
	next    uint32
	isFixed bool
	isUsed  bool
}

// builder converts a finished DAWG into the flat unit array. Every sibling
// group gets a single base such that the child on label c lands on the free
// slot base XOR c.
type builder struct {
	units      []builderUnit
	extras     []extra
	labels     []byte
	table      []uint32
	extrasHead uint32
}

func (b *builder) numBlocks() uint32 { return uint32(len(b.units)) / blockSize }

func (b *builder) extra(id uint32) *extra { return &b.extras[id%numExtras] }

// build lays out the whole graph and returns the packed units.
func (b *builder) build(g *dawg.Graph) ([]Unit, error) {
	numUnits := 1
	for numUnits < g.Size() {
		numUnits <<= 1
	}
	b.units = make([]builderUnit, 0, numUnits)

	b.table = make([]uint32, g.NumIntersections())
	b.extras = make([]extra, numExtras)

	b.reserveID(0)
	b.extra(0).isUsed = true
	if err := b.units[0].setOffset(1); err != nil {
		return nil, err
	}
	b.units[0].setLabel(0)

	if g.Child(g.Root()) != 0 {
		if err := b.buildDoubleArray(g, g.Root(), 0); err != nil {
			return nil, err
		}
	}

	b.fixAllBlocks()

	b.extras = nil
	b.labels = nil
	b.table = nil

	out := make([]Unit, len(b.units))
	for i, u := range b.units {
		out[i] = Unit(u)
	}
	b.units = nil
	return out, nil
}

func (b *builder) buildDoubleArray(g *dawg.Graph, dawgID, dicID uint32) error {
	if g.IsLeaf(dawgID) {
		return nil
	}

	dawgChildID := g.Child(dawgID)
	if g.IsIntersection(dawgChildID) {
		// A shared sibling group may already have a home; reuse it when the
		// relative offset still fits one of the two encodings.
		intersectionID := g.IntersectionID(dawgChildID)
		offset := b.table[intersectionID]
		if offset != 0 {
			offset ^= dicID
			if offset&upperMask == 0 || offset&lowerMask == 0 {
				if g.IsLeaf(dawgChildID) {
					b.units[dicID].setHasLeaf(true)
				}
				return b.units[dicID].setOffset(offset)
			}
		}
	}

	offset, err := b.arrangeChildren(g, dawgID, dicID)
	if err != nil {
		return fmt.Errorf("arrange children of unit %d: %w", dicID, err)
	}

	if g.IsIntersection(dawgChildID) {
		b.table[g.IntersectionID(dawgChildID)] = offset
	}

	for {
		dicChildID := offset ^ uint32(g.Label(dawgChildID))
		if err := b.buildDoubleArray(g, dawgChildID, dicChildID); err != nil {
			return err
		}
		dawgChildID = g.Sibling(dawgChildID)
		if dawgChildID == 0 {
			return nil
		}
	}
}

// arrangeChildren picks a base for dawgID's sibling group, reserves every
// child slot and writes the child units.
func (b *builder) arrangeChildren(g *dawg.Graph, dawgID, dicID uint32) (uint32, error) {
	b.labels = b.labels[:0]
	for id := g.Child(dawgID); id != 0; id = g.Sibling(id) {
		b.labels = append(b.labels, g.Label(id))
	}

	offset := b.findValidOffset(dicID)
	if err := b.units[dicID].setOffset(dicID ^ offset); err != nil {
		return 0, err
	}

	dawgChildID := g.Child(dawgID)
	for _, label := range b.labels {
		dicChildID := offset ^ uint32(label)
		b.reserveID(dicChildID)

		if g.IsLeaf(dawgChildID) {
			b.units[dicID].setHasLeaf(true)
			b.units[dicChildID].setValue(g.Value(dawgChildID))
		} else {
			b.units[dicChildID].setLabel(label)
		}

		dawgChildID = g.Sibling(dawgChildID)
	}
	b.extra(offset).isUsed = true

	return offset, nil
}

// findValidOffset walks the free-list ring for a base satisfying the
// XOR-addressing invariant. Failing that it allocates past the end of the
// array; the low-byte disjunction keeps the synthetic offset encodable.
func (b *builder) findValidOffset(id uint32) uint32 {
	if b.extrasHead >= uint32(len(b.units)) {
		return uint32(len(b.units)) | (id & lowerMask)
	}

	unfixedID := b.extrasHead
	for {
		offset := unfixedID ^ uint32(b.labels[0])
		if b.isValidOffset(id, offset) {
			return offset
		}
		unfixedID = b.extra(unfixedID).next
		if unfixedID == b.extrasHead {
			break
		}
	}

	return uint32(len(b.units)) | (id & lowerMask)
}

func (b *builder) isValidOffset(id, offset uint32) bool {
	if b.extra(offset).isUsed {
		return false
	}

	relOffset := id ^ offset
	if relOffset&lowerMask != 0 && relOffset&upperMask != 0 {
		return false
	}

	for _, label := range b.labels[1:] {
		if b.extra(offset ^ uint32(label)).isFixed {
			return false
		}
	}

	return true
}

// reserveID unlinks a slot from the free list, growing the array first when
// the slot lies past the end.
func (b *builder) reserveID(id uint32) {
	if id >= uint32(len(b.units)) {
		b.expandUnits()
	}
	errutil.BugOn(b.extra(id).isFixed, "slot %d reserved twice", id)

	if id == b.extrasHead {
		b.extrasHead = b.extra(id).next
		if b.extrasHead == id {
			b.extrasHead = uint32(len(b.units))
		}
	}
	b.extra(b.extra(id).prev).next = b.extra(id).next
	b.extra(b.extra(id).next).prev = b.extra(id).prev
	b.extra(id).isFixed = true
}

// expandUnits appends one block, threads its slots into the circular free
// list and freezes the block falling out of the live window.
func (b *builder) expandUnits() {
	srcNumUnits := uint32(len(b.units))
	srcNumBlocks := b.numBlocks()

	destNumUnits := srcNumUnits + blockSize
	destNumBlocks := srcNumBlocks + 1

	if destNumBlocks > numExtraBlocks {
		b.fixBlock(srcNumBlocks - numExtraBlocks)
	}

	b.units = append(b.units, make([]builderUnit, blockSize)...)

	if destNumBlocks > numExtraBlocks {
		for id := srcNumUnits; id < destNumUnits; id++ {
			b.extra(id).isUsed = false
			b.extra(id).isFixed = false
		}
	}

	for i := srcNumUnits + 1; i < destNumUnits; i++ {
		b.extra(i - 1).next = i
		b.extra(i).prev = i - 1
	}

	b.extra(srcNumUnits).prev = destNumUnits - 1
	b.extra(destNumUnits - 1).next = srcNumUnits

	b.extra(srcNumUnits).prev = b.extra(b.extrasHead).prev
	b.extra(destNumUnits - 1).next = b.extrasHead

	b.extra(b.extra(b.extrasHead).prev).next = srcNumUnits
	b.extra(b.extrasHead).prev = destNumUnits - 1
}

func (b *builder) fixAllBlocks() {
	var begin uint32
	if b.numBlocks() > numExtraBlocks {
		begin = b.numBlocks() - numExtraBlocks
	}
	end := b.numBlocks()

	for blockID := begin; blockID != end; blockID++ {
		b.fixBlock(blockID)
	}
}

// fixBlock settles every open slot of a block. Empty cells get the label
// (slot XOR unusedOffset) & 0xFF, which can never match a real edge probed
// from a parent with that base.
func (b *builder) fixBlock(blockID uint32) {
	begin := blockID * blockSize
	end := begin + blockSize

	var unusedOffset uint32
	for offset := begin; offset != end; offset++ {
		if !b.extra(offset).isUsed {
			unusedOffset = offset
			break
		}
	}

	for id := begin; id != end; id++ {
		if !b.extra(id).isFixed {
			b.reserveID(id)
			b.units[id].setLabel(byte(id ^ unusedOffset))
		}
	}
}
