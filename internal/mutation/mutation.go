package mutation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chcfuzz/bugreduce/internal/smt"
)

// Mutation is one transformation step of a chain.
type Mutation struct {
	Type Type
	// Target is the structural position for structural types.
	Target smt.Path
	// Indices selects the clauses a simplification applies to.
	// nil means every clause.
	Indices []int
	// Number is the 1-based position in the chain.
	Number int
	// Prev is the group index of the instance this mutation was applied to.
	// The seed is index 0, so Number == 1 implies Prev == 0.
	Prev int
}

// Clone returns a deep copy of m.
func (m *Mutation) Clone() *Mutation {
	out := *m
	out.Target = m.Target.Clone()
	if m.Indices != nil {
		out.Indices = append([]int{}, m.Indices...)
	}
	return &out
}

// Name returns a short human-readable form, e.g. SWAP_AND(0.2.1).
func (m *Mutation) Name() string {
	switch m.Type.Family() {
	case FamilyStructural:
		return fmt.Sprintf("%s(%s)", m.Type, m.Target)
	case FamilySimplification:
		if m.Indices == nil {
			return fmt.Sprintf("%s(*)", m.Type)
		}
		parts := make([]string, len(m.Indices))
		for i, idx := range m.Indices {
			parts[i] = fmt.Sprint(idx)
		}
		return fmt.Sprintf("%s(%s)", m.Type, strings.Join(parts, ","))
	default:
		return m.Type.String()
	}
}

// Descriptor is the serialized form of a mutation in a bug report header.
type Descriptor struct {
	Type    Type  `json:"type"`
	Clause  int   `json:"clause"`
	Path    []int `json:"path,omitempty"`
	Indices []int `json:"indices"`
}

// Descriptor returns the serialized form of m.
func (m *Mutation) Descriptor() Descriptor {
	d := Descriptor{
		Type:   m.Type,
		Clause: m.Target.Clause,
		Path:   append([]int(nil), m.Target.Steps...),
	}
	if m.Indices != nil {
		d.Indices = append([]int{}, m.Indices...)
	}
	return d
}

// FromDescriptor builds a mutation at chain position number.
func FromDescriptor(d Descriptor, number int) *Mutation {
	m := &Mutation{
		Type:   d.Type,
		Target: smt.Path{Clause: d.Clause, Steps: append([]int(nil), d.Path...)},
		Number: number,
		Prev:   number - 1,
	}
	if d.Indices != nil {
		m.Indices = append([]int{}, d.Indices...)
	}
	return m
}

// DecodeChain parses a JSON array of descriptors.
func DecodeChain(data []byte) ([]Descriptor, error) {
	var chain []Descriptor
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil, fmt.Errorf("failed to decode mutation chain: %w", err)
	}
	return chain, nil
}

// EncodeChain renders mutations as a single-line JSON array.
func EncodeChain(chain []*Mutation) (string, error) {
	descs := make([]Descriptor, len(chain))
	for i, m := range chain {
		descs[i] = m.Descriptor()
	}
	data, err := json.Marshal(descs)
	if err != nil {
		return "", fmt.Errorf("failed to encode mutation chain: %w", err)
	}
	return string(data), nil
}

// ChainString renders a chain as NAME -> NAME -> ...
func ChainString(chain []*Mutation) string {
	names := make([]string, len(chain))
	for i, m := range chain {
		names[i] = m.Name()
	}
	return strings.Join(names, " -> ")
}
