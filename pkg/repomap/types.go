// Package repomap implements the structural code index described in
// spec.md §3–4 (components A–D): Symbol/Repomap data model, language
// extractors, the analyzer driver, and the query engine.
package repomap

// Kind is the structural classification of a Symbol (spec.md §3).
type Kind string

const (
	KindFunction   Kind = "function"
	KindStruct     Kind = "struct"
	KindEnum       Kind = "enum"
	KindTrait      Kind = "trait"
	KindImpl       Kind = "impl"
	KindMethod     Kind = "method"
	KindAssocFn    Kind = "associated-function"
	KindModule     Kind = "module"
	KindVariable   Kind = "variable"
	KindComment    Kind = "comment"
)

// Symbol identifies one structural element in one file (spec.md §3).
//
// Invariants: EndLine >= StartLine >= 1; the span lies within
// [1, FileTotalLines]; comments are themselves Symbols of KindComment.
type Symbol struct {
	Name           string   `json:"name"`
	Kind           Kind     `json:"kind"`
	File           string   `json:"file"`
	StartLine      int      `json:"start_line"`
	StartCol       int      `json:"start_col"`
	EndLine        int      `json:"end_line"`
	EndCol         int      `json:"end_col"`
	Parent         string   `json:"parent,omitempty"`
	FileTotalLines int      `json:"file_total_lines"`
	// FunctionLines is set only for callables (function/method/assoc-fn);
	// zero-value 0 is indistinguishable from "unset" by design — callers
	// filtering on it check Kind first (spec.md §4.D).
	FunctionLines int      `json:"function_lines,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// HasFunctionLines reports whether FunctionLines is a meaningful field for
// this symbol's kind (spec.md §4.D: "symbols lacking this field fail any
// such predicate").
func (s Symbol) HasFunctionLines() bool {
	switch s.Kind {
	case KindFunction, KindMethod, KindAssocFn:
		return true
	default:
		return false
	}
}

// Repomap is an ordered bag of Symbols. No key; duplicates across files
// are legitimate; insertion order reflects traversal order and carries no
// semantic meaning (spec.md §3).
type Repomap struct {
	Symbols []Symbol `json:"symbols"`
}

// Merge concatenates another Repomap's symbols onto this one. Merge is
// associative — safe to fold over chunk results from parallel workers
// (spec.md §4.C "merge_many").
func (r *Repomap) Merge(other Repomap) {
	r.Symbols = append(r.Symbols, other.Symbols...)
}

// MergeMany folds a slice of Repomaps produced by independent workers
// into one, in the order given.
func MergeMany(parts []Repomap) Repomap {
	var out Repomap
	for _, p := range parts {
		out.Merge(p)
	}
	return out
}

// FileHash maps absolute file path to a hex-encoded content digest, one
// per project root (spec.md §3).
type FileHash map[string]string

// Equal reports whether two FileHash maps contain the same path→digest
// pairs. Cache validity is defined as equality of this map
// (spec.md §3 "Persisted cache").
func (f FileHash) Equal(other FileHash) bool {
	if len(f) != len(other) {
		return false
	}
	for path, digest := range f {
		if other[path] != digest {
			return false
		}
	}
	return true
}

// Changed returns the paths present in `current` whose digest differs
// from `f`, plus paths removed or newly added — the set the cache
// invalidation hook reports as `get_changed_files` (spec.md §8).
func (f FileHash) Changed(current FileHash) []string {
	var changed []string
	seen := make(map[string]bool, len(current))
	for path, digest := range current {
		seen[path] = true
		if f[path] != digest {
			changed = append(changed, path)
		}
	}
	for path := range f {
		if !seen[path] {
			changed = append(changed, path)
		}
	}
	return changed
}
