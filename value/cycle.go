package value

import (
	"fmt"
	"sort"

	"github.com/dhamidi/eslif/recognizer"
)

// components partitions the OR-nodes reachable from the root into strongly
// connected components. Only OR-nodes sharing a component can lie on a
// cycle through each other.
type components struct {
	forest *recognizer.Forest
	id     map[int]int
	size   []int

	index   map[int]int
	low     map[int]int
	stack   []int
	onStack map[int]bool
	next    int
}

func newComponents(f *recognizer.Forest) *components {
	c := &components{
		forest:  f,
		id:      make(map[int]int),
		index:   make(map[int]int),
		low:     make(map[int]int),
		onStack: make(map[int]bool),
	}
	c.visit(f.Root())
	c.index, c.low, c.onStack, c.stack = nil, nil, nil, nil
	return c
}

// visit is Tarjan's algorithm over OR-nodes.
func (c *components) visit(or int) {
	c.index[or] = c.next
	c.low[or] = c.next
	c.next++
	c.stack = append(c.stack, or)
	c.onStack[or] = true

	for _, a := range c.forest.Or(or).Alternatives {
		for _, child := range c.forest.And(a).Children {
			if child.Leaf {
				continue
			}
			w := child.Index
			if _, seen := c.index[w]; !seen {
				c.visit(w)
				c.low[or] = min(c.low[or], c.low[w])
			} else if c.onStack[w] {
				c.low[or] = min(c.low[or], c.index[w])
			}
		}
	}

	if c.low[or] != c.index[or] {
		return
	}
	id := len(c.size)
	n := 0
	for {
		w := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		delete(c.onStack, w)
		c.id[w] = id
		n++
		if w == or {
			break
		}
	}
	c.size = append(c.size, n)
}

// nodeKey identifies the derivations of an OR-node given the OR-nodes of
// its own component that are being expanded above it. Those are excluded
// from its derivations, so they select a different set of values.
type nodeKey struct {
	or      int
	through string
}

// key returns the memo key of or for the current expansion path.
func (v *Valuator) key(or int) nodeKey {
	id := v.sccs.id[or]
	if v.sccs.size[id] == 1 {
		return nodeKey{or: or}
	}
	var mates []int
	for _, p := range v.path {
		if v.sccs.id[p] == id {
			mates = append(mates, p)
		}
	}
	if len(mates) == 0 {
		return nodeKey{or: or}
	}
	sort.Ints(mates)
	return nodeKey{or: or, through: fmt.Sprint(mates)}
}

func (v *Valuator) enter(or int) {
	v.path = append(v.path, or)
	v.onPath[or] = true
}

func (v *Valuator) leave(or int) {
	v.path = v.path[:len(v.path)-1]
	delete(v.onPath, or)
}
