// Package tree implements pure traversal algorithms over one user's category
// forest. A Navigator is built from a snapshot of the flat parent relation and
// performs no I/O; callers build it inside a transaction when the answers must
// match what that transaction will write.
package tree

import "note-planner/internal/model"

// Navigator answers ancestor, descendant, cycle and depth queries for the
// snapshot it was built from. It must not outlive the operation that built it:
// the snapshot goes stale as soon as another mutation commits.
type Navigator struct {
	parents  map[uint]*uint
	children map[uint][]uint
}

// NewNavigator indexes a snapshot of one user's categories.
func NewNavigator(categories []model.Category) *Navigator {
	n := &Navigator{
		parents:  make(map[uint]*uint, len(categories)),
		children: make(map[uint][]uint),
	}
	for _, c := range categories {
		n.parents[c.ID] = c.ParentID
		if c.ParentID != nil {
			n.children[*c.ParentID] = append(n.children[*c.ParentID], c.ID)
		}
	}
	return n
}

// Ancestors returns the chain from the immediate parent up to the root.
// Traversal stops if it revisits a node, so malformed data cannot loop it.
func (n *Navigator) Ancestors(id uint) []uint {
	var chain []uint
	seen := map[uint]bool{id: true}
	for p := n.parents[id]; p != nil; p = n.parents[*p] {
		if seen[*p] {
			break
		}
		seen[*p] = true
		chain = append(chain, *p)
	}
	return chain
}

// Descendants returns every category transitively parented under id.
func (n *Navigator) Descendants(id uint) []uint {
	var out []uint
	seen := map[uint]bool{id: true}
	queue := append([]uint(nil), n.children[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		out = append(out, next)
		queue = append(queue, n.children[next]...)
	}
	return out
}

// WouldCreateCycle reports whether reparenting id under proposedParentID would
// close a loop: true when the proposed parent is the node itself or any of its
// descendants.
func (n *Navigator) WouldCreateCycle(id, proposedParentID uint) bool {
	if id == proposedParentID {
		return true
	}
	for _, d := range n.Descendants(id) {
		if d == proposedParentID {
			return true
		}
	}
	return false
}

// Depth returns the distance from id to its root; roots have depth 0.
func (n *Navigator) Depth(id uint) int {
	return len(n.Ancestors(id))
}

// Root returns the root ancestor of id, or id itself when it is a root.
func (n *Navigator) Root(id uint) uint {
	chain := n.Ancestors(id)
	if len(chain) == 0 {
		return id
	}
	return chain[len(chain)-1]
}
