package smt

import (
	"fmt"
	"strings"
)

// Decl is a predicate declaration, (declare-fun Name (Sorts...) Bool).
type Decl struct {
	Name string
	Text string
}

// Option is a solver option set with (set-option :Name Value).
type Option struct {
	Name  string
	Value string
}

// Script is a parsed SMT-LIB file split into the parts the reducer cares
// about. Commands that only drive the solver (check-sat, get-model, exit)
// are dropped and re-added when rendering a query.
type Script struct {
	Logic    string
	Preamble []string
	Decls    []Decl
	Clauses  *ClauseSet
}

var solverCommands = map[string]bool{
	"check-sat":      true,
	"get-model":      true,
	"get-info":       true,
	"get-proof":      true,
	"exit":           true,
	"reset":          true,
	"push":           true,
	"pop":            true,
	"get-value":      true,
	"get-unsat-core": true,
}

// ParseScript parses an SMT-LIB script. Asserted formulas become the clauses.
func ParseScript(input string) (*Script, error) {
	forms, err := Parse(input)
	if err != nil {
		return nil, err
	}

	script := &Script{Clauses: NewClauseSet()}
	for i := 0; i < forms.Len(); i++ {
		cmd := forms.Root(i)
		head := forms.Head(cmd)
		kids := forms.Children(cmd)

		switch {
		case head == "":
			return nil, fmt.Errorf("command %d: expected a parenthesized command, got %q", i+1, forms.Render(cmd))
		case head == "set-logic" && len(kids) == 2:
			script.Logic = forms.Render(kids[1])
		case head == "declare-fun" && len(kids) >= 2:
			script.Decls = append(script.Decls, Decl{
				Name: Unquote(forms.Atom(kids[1])),
				Text: forms.Render(cmd),
			})
		case head == "assert":
			if len(kids) != 2 {
				return nil, fmt.Errorf("command %d: assert takes one argument", i+1)
			}
			script.Clauses.AppendClause(forms, kids[1])
		case solverCommands[head]:
			// re-added per query
		default:
			script.Preamble = append(script.Preamble, forms.Render(cmd))
		}
	}

	return script, nil
}

// Clone returns a copy of s with its own clause set.
func (s *Script) Clone() *Script {
	out := &Script{
		Logic:    s.Logic,
		Preamble: append([]string(nil), s.Preamble...),
		Decls:    append([]Decl(nil), s.Decls...),
	}
	if s.Clauses != nil {
		out.Clauses = s.Clauses.Clone()
	}
	return out
}

// DeclarationBlock renders all declarations, one per line.
func (s *Script) DeclarationBlock() string {
	var sb strings.Builder
	for _, d := range s.Decls {
		sb.WriteString(d.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Problem is everything a solver needs to answer a query about a clause set.
type Problem struct {
	Logic    string
	Options  []Option
	Preamble []string
	Decls    []Decl
	Clauses  *ClauseSet
}

// Header renders logic, options, preamble and declarations.
func (p Problem) Header() string {
	var sb strings.Builder
	if p.Logic != "" {
		fmt.Fprintf(&sb, "(set-logic %s)\n", p.Logic)
	}
	for _, opt := range p.Options {
		fmt.Fprintf(&sb, "(set-option :%s %s)\n", opt.Name, opt.Value)
	}
	for _, line := range p.Preamble {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	for _, d := range p.Decls {
		sb.WriteString(d.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Render renders the problem as a script without solver commands.
func (p Problem) Render() string {
	var sb strings.Builder
	sb.WriteString(p.Header())
	if p.Clauses != nil {
		for i := 0; i < p.Clauses.Len(); i++ {
			fmt.Fprintf(&sb, "(assert %s)\n", p.Clauses.Clause(i))
		}
	}
	return sb.String()
}
