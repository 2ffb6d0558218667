// Package dawg builds a minimized directed acyclic word graph from keys
// supplied in strict lexicographic order. Completed subtrees are merged on
// the fly by hash-consing whole sibling chains, so the graph never holds
// more than the unique states plus the path currently being extended.
package dawg

import (
	"errors"

	"github.com/amitdo/darts-clone/bitvec"
	"github.com/amitdo/darts-clone/errutil"
)

var (
	ErrNegativeValue = errors.New("negative value")
	ErrZeroLengthKey = errors.New("zero-length key")
	ErrWrongKeyOrder = errors.New("wrong key order")
	ErrDuplicateKey  = errors.New("duplicate key")
)

const initialTableSize = 1 << 10

// Builder accumulates sorted keys into a minimized DAWG. Call NewBuilder,
// Insert every key in order, then Finish. A Builder is single-use and must
// not be shared between goroutines during construction.
type Builder struct {
	nodes         []node
	units         []Unit
	labels        []byte
	intersections bitvec.Vector
	table         []uint32
	nodeStack     []uint32
	recycleBin    []uint32
	numStates     int
}

func NewBuilder() *Builder {
	b := &Builder{
		table: make([]uint32, initialTableSize),
	}
	b.appendNode()
	b.appendUnit()
	b.numStates = 1

	// The root's label is nonzero, so the finished graph never reads the
	// root as a terminal (label 0) unit.
	b.nodes[0].label = 0xFF
	b.nodeStack = append(b.nodeStack, 0)
	return b
}

// Insert adds a key with a non-negative value. Keys must arrive in strict
// lexicographic order; out-of-order and repeated keys are rejected.
func (b *Builder) Insert(key []byte, value int32) error {
	if value < 0 {
		return ErrNegativeValue
	}
	length := len(key)
	if length == 0 {
		return ErrZeroLengthKey
	}

	// Descend along the current rightmost path. Position length stands for
	// the terminal label 0x00.
	id := uint32(0)
	keyPos := 0
	for ; keyPos <= length; keyPos++ {
		childID := b.nodes[id].child
		if childID == 0 {
			break
		}

		var keyLabel byte
		if keyPos < length {
			keyLabel = key[keyPos]
		}
		unitLabel := b.nodes[childID].label

		if keyLabel < unitLabel {
			return ErrWrongKeyOrder
		}
		if keyLabel > unitLabel {
			// Everything below the branching point is final now and can be
			// merged into the dense image.
			b.nodes[childID].hasSibling = true
			b.flush(childID)
			break
		}

		id = childID
	}

	if keyPos > length {
		return ErrDuplicateKey
	}

	for ; keyPos <= length; keyPos++ {
		var keyLabel byte
		if keyPos < length {
			keyLabel = key[keyPos]
		}
		childID := b.appendNode()

		if b.nodes[id].child == 0 {
			b.nodes[childID].isState = true
		}
		b.nodes[childID].sibling = b.nodes[id].child
		b.nodes[childID].label = keyLabel
		b.nodes[id].child = childID
		b.nodeStack = append(b.nodeStack, childID)

		id = childID
	}
	b.nodes[id].setValue(value)
	return nil
}

// Finish flushes the remaining path, seals the root unit and returns the
// finished graph. The builder's transient state is released; the Builder
// must not be used afterwards.
func (b *Builder) Finish() *Graph {
	b.flush(0)

	b.units[0] = Unit(b.nodes[0].unit())
	b.labels[0] = b.nodes[0].label

	b.nodes = nil
	b.table = nil
	b.nodeStack = nil
	b.recycleBin = nil

	b.intersections.Build()

	g := &Graph{
		units:         b.units,
		labels:        b.labels,
		intersections: &b.intersections,
	}
	b.units = nil
	b.labels = nil
	return g
}

// flush pops finished nodes down to (but not including) boundary, merging
// each sibling chain with an identical registered chain or appending it to
// the dense arrays in reverse sibling order.
func (b *Builder) flush(boundary uint32) {
	for b.nodeStack[len(b.nodeStack)-1] != boundary {
		nodeID := b.nodeStack[len(b.nodeStack)-1]
		b.nodeStack = b.nodeStack[:len(b.nodeStack)-1]

		if b.numStates >= len(b.table)-(len(b.table)>>2) {
			b.expandTable()
		}

		numSiblings := 0
		for i := nodeID; i != 0; i = b.nodes[i].sibling {
			numSiblings++
		}

		matchID, hashID := b.findNode(nodeID)
		if matchID != 0 {
			b.intersections.Set(int(matchID), true)
		} else {
			var unitID uint32
			for i := 0; i < numSiblings; i++ {
				unitID = b.appendUnit()
			}
			for i := nodeID; i != 0; i = b.nodes[i].sibling {
				b.units[unitID] = Unit(b.nodes[i].unit())
				b.labels[unitID] = b.nodes[i].label
				unitID--
			}
			matchID = unitID + 1
			b.table[hashID] = matchID
			b.numStates++
		}

		for i, next := nodeID, uint32(0); i != 0; i = next {
			next = b.nodes[i].sibling
			b.freeNode(i)
		}

		b.nodes[b.nodeStack[len(b.nodeStack)-1]].child = matchID
	}
	b.nodeStack = b.nodeStack[:len(b.nodeStack)-1]
}

func (b *Builder) expandTable() {
	b.table = make([]uint32, len(b.table)<<1)

	for i := 1; i < len(b.units); i++ {
		id := uint32(i)
		if b.labels[id] == 0 || b.units[id].IsState() {
			hashID := b.findUnit(id)
			b.table[hashID] = id
		}
	}
}

// findUnit locates the probe slot for a registered unit. During rehashing
// every registered head is a distinct chain, so the first empty slot is the
// unit's slot; no equality check is needed.
func (b *Builder) findUnit(id uint32) uint32 {
	hashID := b.hashUnit(id) % uint32(len(b.table))
	for ; ; hashID = (hashID + 1) % uint32(len(b.table)) {
		if b.table[hashID] == 0 {
			break
		}
	}
	return hashID
}

// findNode probes for a registered sibling chain equal to the one headed by
// nodeID. It returns the matching unit id (0 if none) and the probe slot
// where a new registration belongs.
func (b *Builder) findNode(nodeID uint32) (uint32, uint32) {
	hashID := b.hashNode(nodeID) % uint32(len(b.table))
	for ; ; hashID = (hashID + 1) % uint32(len(b.table)) {
		unitID := b.table[hashID]
		if unitID == 0 {
			break
		}
		if b.areEqual(nodeID, unitID) {
			return unitID, hashID
		}
	}
	return 0, hashID
}

func (b *Builder) areEqual(nodeID, unitID uint32) bool {
	// Match chain lengths first: the unit chain must run exactly as far as
	// the node chain does.
	for i := b.nodes[nodeID].sibling; i != 0; i = b.nodes[i].sibling {
		if !b.units[unitID].HasSibling() {
			return false
		}
		unitID++
	}
	if b.units[unitID].HasSibling() {
		return false
	}

	for i := nodeID; i != 0; i = b.nodes[i].sibling {
		if b.nodes[i].unit() != uint32(b.units[unitID]) ||
			b.nodes[i].label != b.labels[unitID] {
			return false
		}
		unitID--
	}
	return true
}

func (b *Builder) hashUnit(id uint32) uint32 {
	var hashValue uint32
	for ; id != 0; id++ {
		unit := uint32(b.units[id])
		label := b.labels[id]
		hashValue ^= hash(uint32(label)<<24 ^ unit)

		if !b.units[id].HasSibling() {
			break
		}
	}
	return hashValue
}

func (b *Builder) hashNode(id uint32) uint32 {
	var hashValue uint32
	for ; id != 0; id = b.nodes[id].sibling {
		unit := b.nodes[id].unit()
		label := b.nodes[id].label
		hashValue ^= hash(uint32(label)<<24 ^ unit)
	}
	return hashValue
}

func (b *Builder) appendUnit() uint32 {
	b.intersections.Append()
	b.units = append(b.units, 0)
	b.labels = append(b.labels, 0)
	return uint32(b.intersections.Size() - 1)
}

func (b *Builder) appendNode() uint32 {
	if len(b.recycleBin) == 0 {
		id := uint32(len(b.nodes))
		b.nodes = append(b.nodes, node{})
		return id
	}
	id := b.recycleBin[len(b.recycleBin)-1]
	b.recycleBin = b.recycleBin[:len(b.recycleBin)-1]
	b.nodes[id] = node{}
	return id
}

func (b *Builder) freeNode(id uint32) {
	errutil.BugOn(id == 0, "freeing the root node")
	b.recycleBin = append(b.recycleBin, id)
}

// hash is the Thomas Wang 32-bit mix. The hash-cons table keys on it, so
// changing it changes every layout the double-array stage produces.
func hash(key uint32) uint32 {
	key = ^key + (key << 15)
	key ^= key >> 12
	key += key << 2
	key ^= key >> 4
	key *= 2057
	key ^= key >> 16
	return key
}
