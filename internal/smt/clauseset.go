package smt

/*
Arena-based clause storage

A ClauseSet keeps every expression node of a CHC system in one slice and
refers to nodes by index. Clause roots are listed in order; the order is
significant because mutations address clauses by position.

1. Stable identity:
	- Node IDs are assigned in parse order and survive Clone, so a search
	can remember "which node" across speculative copies.
	- Removing a node only detaches it. Detached nodes stay in the arena and
	their IDs are never handed out again.

2. Traversal:
	- Every walk (copy, print, count, search) uses an explicit stack.
	Expression depth is bounded only by the input file.
*/

// NodeID is the index of an expression node in a ClauseSet arena.
type NodeID int

// NoNode marks the absent parent of a clause root or a detached subtree.
const NoNode NodeID = -1

type node struct {
	atom   string
	list   bool
	kids   []NodeID
	parent NodeID
}

// ClauseSet is an ordered sequence of clause expressions.
type ClauseSet struct {
	nodes []node
	roots []NodeID
}

// NewClauseSet returns an empty clause set.
func NewClauseSet() *ClauseSet {
	return &ClauseSet{
		nodes: make([]node, 0, 256),
	}
}

func (cs *ClauseSet) newNode(n node) NodeID {
	id := NodeID(len(cs.nodes))
	cs.nodes = append(cs.nodes, n)
	if n.parent != NoNode {
		p := &cs.nodes[n.parent]
		p.kids = append(p.kids, id)
	}
	return id
}

func (cs *ClauseSet) addAtom(atom string, parent NodeID) NodeID {
	return cs.newNode(node{atom: atom, parent: parent})
}

func (cs *ClauseSet) addList(parent NodeID) NodeID {
	return cs.newNode(node{list: true, parent: parent})
}

// Len returns the number of clauses.
func (cs *ClauseSet) Len() int {
	return len(cs.roots)
}

// Root returns the root node of the i-th clause.
func (cs *ClauseSet) Root(i int) NodeID {
	return cs.roots[i]
}

// Roots returns the clause roots in order.
func (cs *ClauseSet) Roots() []NodeID {
	out := make([]NodeID, len(cs.roots))
	copy(out, cs.roots)
	return out
}

// Children returns the ordered children of a list node.
// The returned slice must not be modified.
func (cs *ClauseSet) Children(id NodeID) []NodeID {
	return cs.nodes[id].kids
}

// Atom returns the symbol of an atom node, or "" for lists.
func (cs *ClauseSet) Atom(id NodeID) string {
	return cs.nodes[id].atom
}

// IsList reports whether id is a parenthesized list.
func (cs *ClauseSet) IsList(id NodeID) bool {
	return cs.nodes[id].list
}

// Parent returns the parent of id, or NoNode.
func (cs *ClauseSet) Parent(id NodeID) NodeID {
	return cs.nodes[id].parent
}

// Head returns the operator symbol of an application like (and a b).
func (cs *ClauseSet) Head(id NodeID) string {
	n := cs.nodes[id]
	if !n.list || len(n.kids) == 0 {
		return ""
	}
	first := cs.nodes[n.kids[0]]
	if first.list {
		return ""
	}
	return first.atom
}

// Valid reports whether id is an index of this arena.
func (cs *ClauseSet) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(cs.nodes)
}

// Clone returns a deep copy sharing no memory with cs. Node IDs are kept.
func (cs *ClauseSet) Clone() *ClauseSet {
	out := &ClauseSet{
		nodes: make([]node, len(cs.nodes)),
		roots: make([]NodeID, len(cs.roots)),
	}
	copy(out.roots, cs.roots)
	for i, n := range cs.nodes {
		out.nodes[i] = n
		if n.kids != nil {
			out.nodes[i].kids = make([]NodeID, len(n.kids))
			copy(out.nodes[i].kids, n.kids)
		}
	}
	return out
}

// Reachable reports whether id is still part of some clause.
func (cs *ClauseSet) Reachable(id NodeID) bool {
	_, ok := cs.PathOf(id)
	return ok
}

// Size returns the number of reachable nodes.
func (cs *ClauseSet) Size() int {
	count := 0
	stack := cs.Roots()
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, cs.nodes[id].kids...)
	}
	return count
}

// Symbols returns every atom reachable from the clauses, unquoted.
func (cs *ClauseSet) Symbols() map[string]bool {
	symbols := make(map[string]bool)
	stack := cs.Roots()
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := cs.nodes[id]
		if !n.list {
			symbols[Unquote(n.atom)] = true
			continue
		}
		stack = append(stack, n.kids...)
	}
	return symbols
}

// RemoveClause drops the i-th clause.
func (cs *ClauseSet) RemoveClause(i int) {
	cs.roots = append(cs.roots[:i], cs.roots[i+1:]...)
}

// RemoveChild detaches the child at position pos of parent.
func (cs *ClauseSet) RemoveChild(parent NodeID, pos int) {
	p := &cs.nodes[parent]
	child := p.kids[pos]
	p.kids = append(p.kids[:pos], p.kids[pos+1:]...)
	cs.nodes[child].parent = NoNode
}

// SetChildren replaces the children of a list node. The new children must
// be detached or already children of parent.
func (cs *ClauseSet) SetChildren(parent NodeID, kids []NodeID) {
	for _, old := range cs.nodes[parent].kids {
		cs.nodes[old].parent = NoNode
	}
	cs.nodes[parent].kids = append([]NodeID(nil), kids...)
	for _, k := range kids {
		cs.nodes[k].parent = parent
	}
}

// NewList creates a detached list node holding the given detached children.
func (cs *ClauseSet) NewList(kids ...NodeID) NodeID {
	id := cs.addList(NoNode)
	cs.SetChildren(id, kids)
	return id
}

// NewAtom creates a detached atom node.
func (cs *ClauseSet) NewAtom(atom string) NodeID {
	return cs.addAtom(atom, NoNode)
}

// CopySubtree copies the subtree rooted at id in src into cs as a detached
// node and returns its new ID. src may be cs itself.
func (cs *ClauseSet) CopySubtree(src *ClauseSet, id NodeID) NodeID {
	type frame struct {
		from   NodeID
		parent NodeID
	}

	// copies only ever attach to freshly created nodes, so reading src while
	// appending to cs is safe even when both are the same arena
	var top NodeID = NoNode
	stack := []frame{{from: id, parent: NoNode}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := src.nodes[f.from]
		created := cs.newNode(node{atom: n.atom, list: n.list, parent: f.parent})
		if top == NoNode {
			top = created
		}
		// reversed so children are created in order
		for i := len(n.kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{from: n.kids[i], parent: created})
		}
	}
	return top
}

// AppendClause copies the subtree rooted at id in src as a new last clause.
func (cs *ClauseSet) AppendClause(src *ClauseSet, id NodeID) {
	root := cs.CopySubtree(src, id)
	cs.roots = append(cs.roots, root)
}

// ReplaceClause makes the detached node root the i-th clause.
func (cs *ClauseSet) ReplaceClause(i int, root NodeID) {
	cs.roots[i] = root
}

// Equal compares the rendered clauses of two sets.
func (cs *ClauseSet) Equal(other *ClauseSet) bool {
	if cs.Len() != other.Len() {
		return false
	}
	for i := range cs.roots {
		if cs.Clause(i) != other.Clause(i) {
			return false
		}
	}
	return true
}
