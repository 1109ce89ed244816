package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/doge-run/doge/pkg/repomap"
)

func init() {
	Register(goExtractor{})
}

type goExtractor struct{}

func (goExtractor) Ext() []string              { return []string{".go"} }
func (goExtractor) SitterLang() *sitter.Language { return golang.GetLanguage() }

const goQuery = `
(function_declaration name: (identifier) @fn.name) @fn.node
(method_declaration
  receiver: (parameter_list (parameter_declaration type: (_) @recv.type))
  name: (field_identifier) @method.name) @method.node
(type_spec name: (type_identifier) @type.name type: (struct_type)) @struct.node
(type_spec name: (type_identifier) @type.name type: (interface_type)) @iface.node
(const_spec name: (identifier) @const.name) @const.node
(var_spec name: (identifier) @var.name) @var.node
(comment) @comment
`

func (goExtractor) Extract(path string, source []byte, root *sitter.Node) []repomap.Symbol {
	total := lineCount(source)
	comments := collectComments(root, source, goQuery, goExtractor{}.SitterLang())

	var out []repomap.Symbol
	rows := runQuery(goQuery, golang.GetLanguage(), root, source)
	for _, row := range rows {
		switch {
		case row["fn.node"] != nil:
			out = append(out, buildSymbol(row["fn.node"], row["fn.name"], repomap.KindFunction, "", path, total, comments, source))
		case row["method.node"] != nil:
			recv := receiverTypeName(row["recv.type"], source)
			out = append(out, buildSymbol(row["method.node"], row["method.name"], repomap.KindMethod, recv, path, total, comments, source))
		case row["struct.node"] != nil:
			out = append(out, buildSymbol(row["struct.node"], row["type.name"], repomap.KindStruct, "", path, total, comments, source))
		case row["iface.node"] != nil:
			out = append(out, buildSymbol(row["iface.node"], row["type.name"], repomap.KindTrait, "", path, total, comments, source))
		case row["const.node"] != nil:
			out = append(out, buildSymbol(row["const.node"], row["const.name"], repomap.KindVariable, "", path, total, comments, source))
		case row["var.node"] != nil:
			out = append(out, buildSymbol(row["var.node"], row["var.name"], repomap.KindVariable, "", path, total, comments, source))
		}
	}
	return out
}

// receiverTypeName strips a leading "*" pointer-receiver marker found in
// the rendered receiver type text.
func receiverTypeName(n *sitter.Node, source []byte) string {
	t := nodeText(n, source)
	for len(t) > 0 && t[0] == '*' {
		t = t[1:]
	}
	return t
}

// buildSymbol assembles a Symbol from a captured definition node + name
// node, attaching doc-comment keywords from lines immediately above.
func buildSymbol(defNode, nameNode *sitter.Node, kind repomap.Kind, parent, path string, total int, comments map[int]string, source []byte) repomap.Symbol {
	name := nodeText(nameNode, source)
	if name == "" {
		if id := firstIdentifier(defNode); id != nil {
			name = nodeText(id, source)
		}
	}
	startLine, startCol, endLine, endCol := span(defNode)
	doc := docCommentAbove(comments, startLine)

	sym := repomap.Symbol{
		Name:           name,
		Kind:           kind,
		File:           path,
		StartLine:      startLine,
		StartCol:       startCol,
		EndLine:        endLine,
		EndCol:         endCol,
		Parent:         parent,
		FileTotalLines: total,
		Keywords:       extractKeywords(doc),
	}
	if sym.HasFunctionLines() {
		sym.FunctionLines = endLine - startLine + 1
	}
	return sym
}

// collectComments runs a `(comment) @comment` capture and returns text
// keyed by 1-based start line, used for doc-comment association across
// all languages that share this single-pass style (non-two-pass).
func collectComments(root *sitter.Node, source []byte, query string, sl *sitter.Language) map[int]string {
	out := map[int]string{}
	rows := runQuery(query, sl, root, source)
	for _, row := range rows {
		c := row["comment"]
		if c == nil {
			continue
		}
		line, _, _, _ := span(c)
		out[line] = nodeText(c, source)
	}
	return out
}
