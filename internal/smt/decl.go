package smt

import "strings"

const declareFun = "(declare-fun "

// PruneDeclarations keeps only the (declare-fun ...) entries of block whose
// predicate is in referenced. Text outside declarations is kept as is.
func PruneDeclarations(block string, referenced map[string]bool) string {
	chunks := strings.Split(block, declareFun)
	kept := chunks[:1]
	for _, chunk := range chunks[1:] {
		if referenced[declaredName(chunk)] {
			kept = append(kept, chunk)
		}
	}
	return strings.Join(kept, declareFun)
}

// declaredName extracts the predicate name from the text that follows "(declare-fun ".
func declaredName(chunk string) string {
	chunk = strings.TrimLeft(chunk, " \t\n")
	if strings.HasPrefix(chunk, "|") {
		if end := strings.IndexByte(chunk[1:], '|'); end >= 0 {
			return chunk[1 : end+1]
		}
	}
	end := strings.IndexAny(chunk, " \t\n()")
	if end < 0 {
		return chunk
	}
	return chunk[:end]
}

// Referenced returns the declarations of s used by clauses.
func (s *Script) Referenced(clauses *ClauseSet) []Decl {
	symbols := clauses.Symbols()
	var out []Decl
	for _, d := range s.Decls {
		if symbols[d.Name] {
			out = append(out, d)
		}
	}
	return out
}
