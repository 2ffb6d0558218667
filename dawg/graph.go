package dawg

import (
	"github.com/amitdo/darts-clone/bitvec"
)

// Graph is a finished, immutable DAWG. Units are stored in sibling-group
// order: each group is a contiguous run terminated by the unit whose
// HasSibling flag is clear, and siblings read forward in original order.
type Graph struct {
	units         []Unit
	labels        []byte
	intersections *bitvec.Vector
}

// Root returns the id of the root unit.
func (g *Graph) Root() uint32 { return 0 }

func (g *Graph) Child(id uint32) uint32 { return g.units[id].Child() }

// Sibling returns the next unit of the group, or 0 at the end of the chain.
func (g *Graph) Sibling(id uint32) uint32 {
	if g.units[id].HasSibling() {
		return id + 1
	}
	return 0
}

func (g *Graph) Value(id uint32) int32 { return g.units[id].Value() }

func (g *Graph) IsLeaf(id uint32) bool { return g.Label(id) == 0 }

func (g *Graph) Label(id uint32) byte { return g.labels[id] }

// IsIntersection reports whether the unit heads a sibling group reachable
// from more than one parent.
func (g *Graph) IsIntersection(id uint32) bool { return g.intersections.Get(int(id)) }

// IntersectionID maps an intersection unit to its dense index.
func (g *Graph) IntersectionID(id uint32) uint32 {
	return uint32(g.intersections.Rank(int(id)) - 1)
}

func (g *Graph) NumIntersections() int { return g.intersections.NumOnes() }

// Size returns the number of units.
func (g *Graph) Size() int { return len(g.units) }

// Clear releases the graph's storage. The double-array stage calls this as
// soon as layout completes.
func (g *Graph) Clear() {
	g.units = nil
	g.labels = nil
	g.intersections.Clear()
}
