// Package doublearray implements a static dictionary mapping byte-string
// keys to non-negative 31-bit values. The dictionary is compiled from a
// minimized DAWG into a flat array of 32-bit units addressed by XOR: the
// child of node i on label c lives at i XOR base(i) XOR c.
//
// A finished unit array is immutable and safe to share between any number
// of readers; the query loops never allocate and never recurse.
package doublearray

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/amitdo/darts-clone/dawg"
)

// Lookup misses are reported as distinguished negative values.
const (
	// NotFound means no value is stored at the key.
	NotFound int32 = -1
	// Diverged means Traverse hit a byte with no matching edge.
	Diverged int32 = -2
)

var (
	ErrValueCountMismatch = errors.New("values do not match keys")
	ErrKeyContainsNul     = errors.New("key contains a NUL byte")
)

// ProgressFunc is called after each key insertion and once more when the
// image is complete, as progress(done, total).
type ProgressFunc func(done, total int)

// ResultPair is a lookup result carrying the matched length in bytes.
type ResultPair struct {
	Value  int32
	Length int
}

// DoubleArray is the dictionary handle. The zero value is empty; fill it
// with Build, Open or SetArray.
type DoubleArray struct {
	units []Unit
}

// Build compiles the dictionary from keys in strict lexicographic order.
// values[i] is stored for keys[i]; a nil values slice stores each key's
// input index. The previous contents of d are discarded on success.
func (d *DoubleArray) Build(keys [][]byte, values []int32, progress ProgressFunc) error {
	if values != nil && len(values) != len(keys) {
		return fmt.Errorf("build: %d values for %d keys: %w",
			len(values), len(keys), ErrValueCountMismatch)
	}

	db := dawg.NewBuilder()
	for i, key := range keys {
		if bytes.IndexByte(key, 0) >= 0 {
			return fmt.Errorf("build: key %d: %w", i, ErrKeyContainsNul)
		}
		value := int32(i)
		if values != nil {
			value = values[i]
		}
		if err := db.Insert(key, value); err != nil {
			return fmt.Errorf("build: key %d: %w", i, err)
		}
		if progress != nil {
			progress(i+1, len(keys)+1)
		}
	}
	graph := db.Finish()

	var b builder
	units, err := b.build(graph)
	graph.Clear()
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	d.units = units
	if progress != nil {
		progress(len(keys)+1, len(keys)+1)
	}
	return nil
}

// ExactMatchSearch returns the value stored for key, or NotFound. nodePos
// is the start node; pass 0 to search from the root.
func (d *DoubleArray) ExactMatchSearch(key []byte, nodePos uint32) int32 {
	unit := d.units[nodePos]
	for _, c := range key {
		nodePos ^= unit.Offset() ^ uint32(c)
		unit = d.units[nodePos]
		if unit.Label() != uint32(c) {
			return NotFound
		}
	}

	if !unit.HasLeaf() {
		return NotFound
	}
	return d.units[nodePos^unit.Offset()].Value()
}

// ExactMatchSearchPair is ExactMatchSearch returning the matched length as
// well: the full key length on a hit, zero on a miss.
func (d *DoubleArray) ExactMatchSearchPair(key []byte, nodePos uint32) ResultPair {
	if value := d.ExactMatchSearch(key, nodePos); value != NotFound {
		return ResultPair{Value: value, Length: len(key)}
	}
	return ResultPair{Value: NotFound}
}

// CommonPrefixSearch records every dictionary key that is a prefix of key,
// in ascending length order, into results. The return value is the true
// number of matches even when results is too short to hold them all.
func (d *DoubleArray) CommonPrefixSearch(key []byte, results []ResultPair, nodePos uint32) int {
	numResults := 0

	unit := d.units[nodePos]
	nodePos ^= unit.Offset()
	for i, c := range key {
		nodePos ^= uint32(c)
		unit = d.units[nodePos]
		if unit.Label() != uint32(c) {
			return numResults
		}

		nodePos ^= unit.Offset()
		if unit.HasLeaf() {
			if numResults < len(results) {
				results[numResults] = ResultPair{
					Value:  d.units[nodePos].Value(),
					Length: i + 1,
				}
			}
			numResults++
		}
	}

	return numResults
}

// Traverse walks key from the state in *nodePos/*keyPos, updating both in
// place. It returns the key's value when the walk ends on a stored key,
// NotFound when the walk stays inside the trie without a value, and
// Diverged when key[*keyPos] has no edge; in that case *nodePos holds the
// last matching node. Successive calls compose: traversing a key in pieces
// ends in the same state as traversing it at once.
func (d *DoubleArray) Traverse(key []byte, nodePos *uint32, keyPos *int) int32 {
	id := *nodePos
	unit := d.units[id]

	for ; *keyPos < len(key); *keyPos++ {
		id ^= unit.Offset() ^ uint32(key[*keyPos])
		unit = d.units[id]
		if unit.Label() != uint32(key[*keyPos]) {
			return Diverged
		}
		*nodePos = id
	}

	if !unit.HasLeaf() {
		return NotFound
	}
	return d.units[id^unit.Offset()].Value()
}

// Size returns the number of units in the image.
func (d *DoubleArray) Size() int { return len(d.units) }

// UnitSize returns the byte width of one unit.
func (d *DoubleArray) UnitSize() int { return 4 }

// TotalBytes returns the image size in bytes.
func (d *DoubleArray) TotalBytes() int { return 4 * len(d.units) }

// Array returns the raw unit slice backing the dictionary.
func (d *DoubleArray) Array() []Unit { return d.units }

// SetArray points the dictionary at an externally owned unit slice, e.g. a
// memory-mapped image. The caller keeps the slice alive and unmodified for
// the lifetime of the reader.
func (d *DoubleArray) SetArray(units []Unit) { d.units = units }

// Clear detaches the dictionary from its units.
func (d *DoubleArray) Clear() { d.units = nil }
