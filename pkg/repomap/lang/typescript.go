package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/doge-run/doge/pkg/repomap"
)

func init() {
	Register(tsExtractor{})
}

type tsExtractor struct{}

func (tsExtractor) Ext() []string                { return []string{".ts"} }
func (tsExtractor) SitterLang() *sitter.Language { return typescript.GetLanguage() }

const tsQuery = `
(function_declaration name: (identifier) @fn.name) @fn.node
(class_declaration name: (type_identifier) @class.name) @class.node
(interface_declaration name: (type_identifier) @iface.name) @iface.node
(enum_declaration name: (identifier) @enum.name) @enum.node
(method_definition name: (property_identifier) @method.name) @method.node
(variable_declarator name: (identifier) @var.name) @var.node
(comment) @comment
`

func (tsExtractor) Extract(path string, source []byte, root *sitter.Node) []repomap.Symbol {
	return extractJSLike(path, source, root, tsQuery, typescript.GetLanguage())
}
