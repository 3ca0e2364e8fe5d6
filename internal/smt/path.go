package smt

import (
	"fmt"
	"strings"
)

// Path identifies a node by clause position and the child indices leading to it.
// An empty Steps addresses the clause root itself.
type Path struct {
	Clause int   `json:"clause"`
	Steps  []int `json:"path,omitempty"`
}

func (p Path) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d", p.Clause)
	for _, s := range p.Steps {
		fmt.Fprintf(&sb, ".%d", s)
	}
	return sb.String()
}

// Clone returns a copy of p that shares no memory with it.
func (p Path) Clone() Path {
	return Path{Clause: p.Clause, Steps: append([]int(nil), p.Steps...)}
}

// PathOf returns the structural position of id. ok is false when the node is
// detached from every clause.
func (cs *ClauseSet) PathOf(id NodeID) (Path, bool) {
	if !cs.Valid(id) {
		return Path{}, false
	}

	var steps []int
	current := id
	for {
		parent := cs.nodes[current].parent
		if parent == NoNode {
			break
		}
		pos := indexOf(cs.nodes[parent].kids, current)
		if pos < 0 {
			return Path{}, false
		}
		steps = append(steps, pos)
		current = parent
	}

	clause := indexOf(cs.roots, current)
	if clause < 0 {
		return Path{}, false
	}

	// collected leaf-to-root
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return Path{Clause: clause, Steps: steps}, true
}

// Resolve returns the node at p, or false if p does not exist in cs.
func (cs *ClauseSet) Resolve(p Path) (NodeID, bool) {
	if p.Clause < 0 || p.Clause >= len(cs.roots) {
		return NoNode, false
	}
	current := cs.roots[p.Clause]
	for _, step := range p.Steps {
		kids := cs.nodes[current].kids
		if step < 0 || step >= len(kids) {
			return NoNode, false
		}
		current = kids[step]
	}
	return current, true
}

func indexOf(ids []NodeID, id NodeID) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}
	return -1
}
