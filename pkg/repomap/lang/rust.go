package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/doge-run/doge/pkg/repomap"
)

func init() {
	Register(rustExtractor{})
}

type rustExtractor struct{}

func (rustExtractor) Ext() []string                { return []string{".rs"} }
func (rustExtractor) SitterLang() *sitter.Language { return rust.GetLanguage() }

const rustQuery = `
(function_item name: (identifier) @fn.name) @fn.node
(struct_item name: (type_identifier) @struct.name) @struct.node
(enum_item name: (type_identifier) @enum.name) @enum.node
(trait_item name: (type_identifier) @trait.name) @trait.node
(mod_item name: (identifier) @mod.name) @mod.node
(impl_item type: (type_identifier) @impl.target) @impl.node
(let_declaration) @let.node
(comment) @comment
`

func (rustExtractor) Extract(path string, source []byte, root *sitter.Node) []repomap.Symbol {
	total := lineCount(source)
	comments := collectComments(root, source, rustQuery, rust.GetLanguage())

	// impl blocks: synthesize an impl-block symbol and attribute every
	// function_item directly inside its body as method (has a `self`
	// receiver parameter) or associated-function (no `self`), with
	// parent set to the impl target type (spec.md §4.A).
	implTarget := map[*sitter.Node]string{} // impl_item -> target type name
	methodParent := map[*sitter.Node]string{}
	methodIsAssoc := map[*sitter.Node]bool{}

	var walkImpls func(n *sitter.Node)
	walkImpls = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "impl_item" {
			target := ""
			if t := n.ChildByFieldName("type"); t != nil {
				target = nodeText(t, source)
			}
			implTarget[n] = target
			if body := n.ChildByFieldName("body"); body != nil {
				for i := 0; i < int(body.ChildCount()); i++ {
					child := body.Child(i)
					if child.Type() == "function_item" {
						methodParent[child] = target
						methodIsAssoc[child] = !hasSelfReceiver(child)
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walkImpls(n.Child(i))
		}
	}
	walkImpls(root)

	seenFn := map[*sitter.Node]bool{}
	var out []repomap.Symbol
	rows := runQuery(rustQuery, rust.GetLanguage(), root, source)
	for _, row := range rows {
		switch {
		case row["fn.node"] != nil:
			fn := row["fn.node"]
			if seenFn[fn] {
				continue
			}
			seenFn[fn] = true
			if parent, ok := methodParent[fn]; ok {
				kind := repomap.KindMethod
				if methodIsAssoc[fn] {
					kind = repomap.KindAssocFn
				}
				out = append(out, buildSymbol(fn, row["fn.name"], kind, parent, path, total, comments, source))
			} else {
				out = append(out, buildSymbol(fn, row["fn.name"], repomap.KindFunction, "", path, total, comments, source))
			}
		case row["struct.node"] != nil:
			out = append(out, buildSymbol(row["struct.node"], row["struct.name"], repomap.KindStruct, "", path, total, comments, source))
		case row["enum.node"] != nil:
			out = append(out, buildSymbol(row["enum.node"], row["enum.name"], repomap.KindEnum, "", path, total, comments, source))
		case row["trait.node"] != nil:
			out = append(out, buildSymbol(row["trait.node"], row["trait.name"], repomap.KindTrait, "", path, total, comments, source))
		case row["mod.node"] != nil:
			out = append(out, buildSymbol(row["mod.node"], row["mod.name"], repomap.KindModule, "", path, total, comments, source))
		case row["impl.node"] != nil:
			// Synthesized impl-block symbol; name = target type, kind = impl.
			out = append(out, buildSymbol(row["impl.node"], row["impl.target"], repomap.KindImpl, "", path, total, comments, source))
		case row["let.node"] != nil:
			out = append(out, letBindingSymbols(row["let.node"], path, total, comments, source)...)
		}
	}
	return out
}

func hasSelfReceiver(fnNode *sitter.Node) bool {
	params := fnNode.ChildByFieldName("parameters")
	if params == nil {
		return false
	}
	for i := 0; i < int(params.ChildCount()); i++ {
		if params.Child(i).Type() == "self_parameter" {
			return true
		}
	}
	return false
}

// letBindingSymbols emits a variable symbol for every identifier bound by
// a let_declaration's pattern: the identifier itself for a plain binding,
// or every identifier reachable by descending into a tuple/tuple-struct/
// struct pattern (spec.md §4.A "Nested tuple/struct patterns recurse").
func letBindingSymbols(letNode *sitter.Node, path string, total int, comments map[int]string, source []byte) []repomap.Symbol {
	pattern := letNode.ChildByFieldName("pattern")
	if pattern == nil {
		return nil
	}

	if pattern.Type() == "identifier" {
		return []repomap.Symbol{buildSymbol(letNode, pattern, repomap.KindVariable, "", path, total, comments, source)}
	}

	var out []repomap.Symbol
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "identifier" {
			out = append(out, buildSymbol(n, n, repomap.KindVariable, "", path, total, comments, source))
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(pattern)
	return out
}
