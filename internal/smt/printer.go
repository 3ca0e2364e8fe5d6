package smt

import "strings"

// Render prints the subtree rooted at id as an s-expression.
// A connective left with a single argument, like (and x), prints as x.
func (cs *ClauseSet) Render(id NodeID) string {
	var sb strings.Builder
	cs.render(&sb, id)
	return sb.String()
}

// Clause renders the i-th clause.
func (cs *ClauseSet) Clause(i int) string {
	return cs.Render(cs.roots[i])
}

// String renders all clauses, one per line.
func (cs *ClauseSet) String() string {
	var sb strings.Builder
	for i := range cs.roots {
		if i > 0 {
			sb.WriteByte('\n')
		}
		cs.render(&sb, cs.roots[i])
	}
	return sb.String()
}

func (cs *ClauseSet) render(sb *strings.Builder, id NodeID) {
	type frame struct {
		id   NodeID
		next int
	}

	stack := []frame{{id: cs.collapse(id)}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := cs.nodes[top.id]

		if !n.list {
			sb.WriteString(n.atom)
			stack = stack[:len(stack)-1]
			continue
		}

		if top.next == 0 {
			sb.WriteByte('(')
		}
		if top.next == len(n.kids) {
			sb.WriteByte(')')
			stack = stack[:len(stack)-1]
			continue
		}
		if top.next > 0 {
			sb.WriteByte(' ')
		}
		child := cs.collapse(n.kids[top.next])
		top.next++
		stack = append(stack, frame{id: child})
	}
}

// collapse skips over unary and/or applications.
func (cs *ClauseSet) collapse(id NodeID) NodeID {
	for {
		head := cs.Head(id)
		if (head == "and" || head == "or") && len(cs.nodes[id].kids) == 2 {
			id = cs.nodes[id].kids[1]
			continue
		}
		return id
	}
}
