package vm

import (
	"github.com/kindelia-network/gkind/core/types"
)

// Ptr is an index into a reduction heap. Indices substitute for pointers so
// that cells can alias freely without the garbage collector being involved.
type Ptr uint32

// Cell is one allocated node of the reduction graph. Cells are
// bump-allocated and never freed mid-reduction; the whole arena is
// discarded when the reduction ends.
type Cell struct {
	Kind types.TermKind
	Name types.Name
	Num  types.U120
	Oper types.Oper
	Args []Ptr
	norm bool // set once the cell is in normal form
}

// Heap is the arena one reduction call owns. It is not safe for concurrent
// use and is never shared between reductions.
type Heap struct {
	cells []Cell
}

func (h *Heap) alloc(c Cell) Ptr {
	h.cells = append(h.cells, c)
	return Ptr(len(h.cells) - 1)
}

// cell returns the cell at p. The pointer is invalidated by the next
// allocation; callers must not hold it across alloc.
func (h *Heap) cell(p Ptr) *Cell {
	return &h.cells[p]
}

// Size returns the number of allocated cells.
func (h *Heap) Size() int { return len(h.cells) }
