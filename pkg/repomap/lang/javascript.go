package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/doge-run/doge/pkg/repomap"
)

func init() {
	Register(jsExtractor{})
}

type jsExtractor struct{}

func (jsExtractor) Ext() []string                { return []string{".js", ".jsx", ".mjs", ".cjs"} }
func (jsExtractor) SitterLang() *sitter.Language { return javascript.GetLanguage() }

const jsQuery = `
(function_declaration name: (identifier) @fn.name) @fn.node
(class_declaration name: (identifier) @class.name) @class.node
(method_definition name: (property_identifier) @method.name) @method.node
(variable_declarator name: (identifier) @var.name) @var.node
(comment) @comment
`

func (jsExtractor) Extract(path string, source []byte, root *sitter.Node) []repomap.Symbol {
	return extractJSLike(path, source, root, jsQuery, javascript.GetLanguage())
}

// extractJSLike is shared by the JavaScript and TypeScript extractors —
// both grammars expose the same definition node kinds for the subset of
// constructs spec.md §4.A names.
func extractJSLike(path string, source []byte, root *sitter.Node, query string, sl *sitter.Language) []repomap.Symbol {
	total := lineCount(source)
	comments := collectComments(root, source, query, sl)

	// parent-of-method lookup: walk class bodies to find which class
	// encloses each method_definition node.
	parentOf := map[*sitter.Node]string{}
	var walk func(n *sitter.Node, enclosing string)
	walk = func(n *sitter.Node, enclosing string) {
		if n == nil {
			return
		}
		next := enclosing
		if n.Type() == "class_declaration" || n.Type() == "class" {
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				next = nodeText(nameNode, source)
			}
		}
		if n.Type() == "method_definition" {
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
		case row["fn.node"] != nil:
			out = append(out, buildSymbol(row["fn.node"], row["fn.name"], repomap.KindFunction, "", path, total, comments, source))
		case row["class.node"] != nil:
			out = append(out, buildSymbol(row["class.node"], row["class.name"], repomap.KindStruct, "", path, total, comments, source))
		case row["iface.node"] != nil:
			out = append(out, buildSymbol(row["iface.node"], row["iface.name"], repomap.KindTrait, "", path, total, comments, source))
		case row["enum.node"] != nil:
			out = append(out, buildSymbol(row["enum.node"], row["enum.name"], repomap.KindEnum, "", path, total, comments, source))
		case row["method.node"] != nil:
			out = append(out, buildSymbol(row["method.node"], row["method.name"], repomap.KindMethod, parentOf[row["method.node"]], path, total, comments, source))
		case row["var.node"] != nil:
			out = append(out, buildSymbol(row["var.node"], row["var.name"], repomap.KindVariable, "", path, total, comments, source))
		}
	}
	return out
}
