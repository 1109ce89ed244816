package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/doge-run/doge/pkg/repomap"
)

func init() {
	Register(cExtractor{})
	Register(cppExtractor{})
	Register(csharpExtractor{})
}

// --- C ---

type cExtractor struct{}

func (cExtractor) Ext() []string                { return []string{".c", ".h"} }
func (cExtractor) SitterLang() *sitter.Language { return c.GetLanguage() }

const cQuery = `
(function_definition declarator: (function_declarator declarator: (identifier) @fn.name)) @fn.node
(struct_specifier name: (type_identifier) @struct.name) @struct.node
(enum_specifier name: (type_identifier) @enum.name) @enum.node
(declaration declarator: (identifier) @var.name) @var.node
(comment) @comment
`

func (cExtractor) Extract(path string, source []byte, root *sitter.Node) []repomap.Symbol {
	return extractCFamily(path, source, root, cQuery, c.GetLanguage())
}

// --- C++ ---

type cppExtractor struct{}

func (cppExtractor) Ext() []string                { return []string{".cc", ".cpp", ".cxx", ".hpp", ".hh"} }
func (cppExtractor) SitterLang() *sitter.Language { return cpp.GetLanguage() }

const cppQuery = `
(function_definition declarator: (function_declarator declarator: (identifier) @fn.name)) @fn.node
(function_definition declarator: (function_declarator declarator: (field_identifier) @method.name)) @method.node
(class_specifier name: (type_identifier) @class.name) @class.node
(struct_specifier name: (type_identifier) @struct.name) @struct.node
(enum_specifier name: (type_identifier) @enum.name) @enum.node
(declaration declarator: (identifier) @var.name) @var.node
(comment) @comment
`

func (cppExtractor) Extract(path string, source []byte, root *sitter.Node) []repomap.Symbol {
	return extractCFamily(path, source, root, cppQuery, cpp.GetLanguage())
}

// --- C# ---

type csharpExtractor struct{}

func (csharpExtractor) Ext() []string                { return []string{".cs"} }
func (csharpExtractor) SitterLang() *sitter.Language { return csharp.GetLanguage() }

const csharpQuery = `
(method_declaration name: (identifier) @method.name) @method.node
(class_declaration name: (identifier) @class.name) @class.node
(interface_declaration name: (identifier) @iface.name) @iface.node
(struct_declaration name: (identifier) @struct.name) @struct.node
(enum_declaration name: (identifier) @enum.name) @enum.node
(namespace_declaration name: (identifier) @mod.name) @mod.node
(delegate_declaration name: (identifier) @fn.name) @fn.node
(record_declaration name: (identifier) @struct.name) @struct.node
(event_field_declaration) @var.node
(variable_declarator name: (identifier) @var.name) @var.node
(comment) @comment
`

func (csharpExtractor) Extract(path string, source []byte, root *sitter.Node) []repomap.Symbol {
	total := lineCount(source)
	comments := collectComments(root, source, csharpQuery, csharp.GetLanguage())

	var out []repomap.Symbol
	rows := runQuery(csharpQuery, csharp.GetLanguage(), root, source)
	for _, row := range rows {
		switch {
		case row["method.node"] != nil:
			out = append(out, buildSymbol(row["method.node"], row["method.name"], repomap.KindMethod, "", path, total, comments, source))
		case row["class.node"] != nil:
			out = append(out, buildSymbol(row["class.node"], row["class.name"], repomap.KindStruct, "", path, total, comments, source))
		case row["iface.node"] != nil:
			out = append(out, buildSymbol(row["iface.node"], row["iface.name"], repomap.KindTrait, "", path, total, comments, source))
		case row["struct.node"] != nil:
			out = append(out, buildSymbol(row["struct.node"], row["struct.name"], repomap.KindStruct, "", path, total, comments, source))
		case row["enum.node"] != nil:
			out = append(out, buildSymbol(row["enum.node"], row["enum.name"], repomap.KindEnum, "", path, total, comments, source))
		case row["mod.node"] != nil:
			out = append(out, buildSymbol(row["mod.node"], row["mod.name"], repomap.KindModule, "", path, total, comments, source))
		case row["fn.node"] != nil:
			out = append(out, buildSymbol(row["fn.node"], row["fn.name"], repomap.KindFunction, "", path, total, comments, source))
		case row["var.node"] != nil:
			out = append(out, buildSymbol(row["var.node"], row["var.name"], repomap.KindVariable, "", path, total, comments, source))
		}
	}
	return out
}

// extractCFamily is shared by the C and C++ extractors. Methods vs.
// functions are distinguished by whether the declarator name is a
// field_identifier (class/struct member, "method.node") or a bare
// identifier ("fn.node") per spec.md §4.A's C-family row.
func extractCFamily(path string, source []byte, root *sitter.Node, query string, sl *sitter.Language) []repomap.Symbol {
	total := lineCount(source)
	comments := collectComments(root, source, query, sl)

	// enclosing class/struct name, for method parent attribution.
	parentOf := map[*sitter.Node]string{}
	var walk func(n *sitter.Node, enclosing string)
	walk = func(n *sitter.Node, enclosing string) {
		if n == nil {
			return
		}
		next := enclosing
		if n.Type() == "class_specifier" || n.Type() == "struct_specifier" {
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				next = nodeText(nameNode, source)
			}
		}
		if n.Type() == "function_definition" {
			parentOf[n] = enclosing
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), next)
		}
	}
	walk(root, "")

	var out []repomap.Symbol
	rows := runQuery(query, sl, root, source)
	for _, row := range rows {
		switch {
		case row["method.node"] != nil:
			out = append(out, buildSymbol(row["method.node"], row["method.name"], repomap.KindMethod, parentOf[row["method.node"]], path, total, comments, source))
		case row["fn.node"] != nil:
			out = append(out, buildSymbol(row["fn.node"], row["fn.name"], repomap.KindFunction, "", path, total, comments, source))
		case row["class.node"] != nil:
			out = append(out, buildSymbol(row["class.node"], row["class.name"], repomap.KindStruct, "", path, total, comments, source))
		case row["struct.node"] != nil:
			out = append(out, buildSymbol(row["struct.node"], row["struct.name"], repomap.KindStruct, "", path, total, comments, source))
		case row["enum.node"] != nil:
			out = append(out, buildSymbol(row["enum.node"], row["enum.name"], repomap.KindEnum, "", path, total, comments, source))
		case row["var.node"] != nil:
			out = append(out, buildSymbol(row["var.node"], row["var.name"], repomap.KindVariable, "", path, total, comments, source))
		}
	}
	return out
}
