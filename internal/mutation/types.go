package mutation

import (
	"fmt"
	"sort"
	"strings"
)

// Type identifies a mutation kind.
type Type int

const (
	TypeUnknown Type = iota

	// structural
	TypeRemove
	TypeSwapAnd
	TypeDupAnd
	TypeBreakAnd
	TypeSwapOr
	TypeDupOr
	TypeBreakOr

	// simplification family
	TypeEmptySimplify
	TypeElimAnd
	TypeSom
	TypeBlastDistinct
	TypePullCheapIte
	TypePushIteArith
	TypeHoistMul

	// solving parameters
	TypeSpacerGlobal
	TypeSpacerP3ShareInvariants
	TypeSpacerP3ShareLemmas
	TypeSpacerUseArrayEqGeneralizer
	TypeXformInlineLinear
	TypeXformSlice
	TypeXformTailSimplifierPve
)

// Family classifies how a mutation type changes an instance.
type Family int

const (
	FamilyStructural Family = iota
	FamilySimplification
	FamilySolvingParameter
)

func (f Family) String() string {
	switch f {
	case FamilyStructural:
		return "structural"
	case FamilySimplification:
		return "simplification"
	case FamilySolvingParameter:
		return "solving-parameter"
	default:
		return "unknown"
	}
}

type typeInfo struct {
	name   string
	family Family
	// simplifier option for FamilySimplification, solver option for FamilySolvingParameter
	option string
	// value a solving parameter takes when the mutation is applied
	value string
}

var typeTable = map[Type]typeInfo{
	TypeRemove:   {name: "REMOVE", family: FamilyStructural},
	TypeSwapAnd:  {name: "SWAP_AND", family: FamilyStructural},
	TypeDupAnd:   {name: "DUP_AND", family: FamilyStructural},
	TypeBreakAnd: {name: "BREAK_AND", family: FamilyStructural},
	TypeSwapOr:   {name: "SWAP_OR", family: FamilyStructural},
	TypeDupOr:    {name: "DUP_OR", family: FamilyStructural},
	TypeBreakOr:  {name: "BREAK_OR", family: FamilyStructural},

	TypeEmptySimplify: {name: "EMPTY_SIMPLIFY", family: FamilySimplification},
	TypeElimAnd:       {name: "ELIM_AND", family: FamilySimplification, option: "elim_and"},
	TypeSom:           {name: "SOM", family: FamilySimplification, option: "som"},
	TypeBlastDistinct: {name: "BLAST_DISTINCT", family: FamilySimplification, option: "blast_distinct"},
	TypePullCheapIte:  {name: "PULL_CHEAP_ITE", family: FamilySimplification, option: "pull_cheap_ite"},
	TypePushIteArith:  {name: "PUSH_ITE_ARITH", family: FamilySimplification, option: "push_ite_arith"},
	TypeHoistMul:      {name: "HOIST_MUL", family: FamilySimplification, option: "hoist_mul"},

	TypeSpacerGlobal:                {name: "SPACER_GLOBAL", family: FamilySolvingParameter, option: "fp.spacer.global", value: "true"},
	TypeSpacerP3ShareInvariants:     {name: "SPACER_P3_SHARE_INVARIANTS", family: FamilySolvingParameter, option: "fp.spacer.p3.share_invariants", value: "true"},
	TypeSpacerP3ShareLemmas:         {name: "SPACER_P3_SHARE_LEMMAS", family: FamilySolvingParameter, option: "fp.spacer.p3.share_lemmas", value: "true"},
	TypeSpacerUseArrayEqGeneralizer: {name: "SPACER_USE_ARRAY_EQ_GENERALIZER", family: FamilySolvingParameter, option: "fp.spacer.use_array_eq_generalizer", value: "false"},
	TypeXformInlineLinear:           {name: "XFORM_INLINE_LINEAR", family: FamilySolvingParameter, option: "fp.xform.inline_linear", value: "false"},
	TypeXformSlice:                  {name: "XFORM_SLICE", family: FamilySolvingParameter, option: "fp.xform.slice", value: "false"},
	TypeXformTailSimplifierPve:      {name: "XFORM_TAIL_SIMPLIFIER_PVE", family: FamilySolvingParameter, option: "fp.xform.tail_simplifier_pve", value: "false"},
}

var typesByName = func() map[string]Type {
	m := make(map[string]Type, len(typeTable))
	for t, info := range typeTable {
		m[info.name] = t
	}
	return m
}()

func (t Type) String() string {
	if info, ok := typeTable[t]; ok {
		return info.name
	}
	return "UNKNOWN"
}

// Family returns the classification of t.
func (t Type) Family() Family {
	return typeTable[t].family
}

// IsSolvingParameter reports whether t only changes solver configuration.
func (t Type) IsSolvingParameter() bool {
	info, ok := typeTable[t]
	return ok && info.family == FamilySolvingParameter
}

// IsSimplification reports whether t is parameterized by a clause index set.
func (t Type) IsSimplification() bool {
	info, ok := typeTable[t]
	return ok && info.family == FamilySimplification
}

// Option returns the simplifier or solver option driven by t.
func (t Type) Option() (name, value string) {
	info := typeTable[t]
	return info.option, info.value
}

// ParseType looks a type up by name, case-insensitively.
func ParseType(name string) (Type, error) {
	if t, ok := typesByName[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return TypeUnknown, fmt.Errorf("unknown mutation type %q", name)
}

// Types returns every known type ordered by name.
func Types() []Type {
	out := make([]Type, 0, len(typeTable))
	for t := range typeTable {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

func (t Type) MarshalText() ([]byte, error) {
	if _, ok := typeTable[t]; !ok {
		return nil, fmt.Errorf("cannot marshal mutation type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
