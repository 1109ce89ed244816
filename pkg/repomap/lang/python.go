package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/doge-run/doge/pkg/repomap"
)

func init() {
	Register(pythonExtractor{})
}

type pythonExtractor struct{}

func (pythonExtractor) Ext() []string                { return []string{".py"} }
func (pythonExtractor) SitterLang() *sitter.Language { return python.GetLanguage() }

const pythonQuery = `
(class_definition name: (identifier) @class.name) @class.node
(function_definition
  name: (identifier) @fn.name
  parameters: (parameters . (identifier) @fn.firstparam)) @fn.node.withparam
(function_definition name: (identifier) @fn.name) @fn.node
(assignment) @var.node
(comment) @comment
`

func (pythonExtractor) Extract(path string, source []byte, root *sitter.Node) []repomap.Symbol {
	total := lineCount(source)
	comments := collectComments(root, source, pythonQuery, python.GetLanguage())

	// Track which function nodes are methods (enclosed in a class body)
	// by walking the tree directly — tree-sitter-python's grammar does
	// not expose "enclosing class" as a query predicate.
	methodOf := map[*sitter.Node]string{}
	var walkClasses func(n *sitter.Node)
	walkClasses = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "class_definition" {
			className := ""
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				className = nodeText(nameNode, source)
			}
			body := n.ChildByFieldName("body")
			if body != nil {
				for i := 0; i < int(body.ChildCount()); i++ {
					child := body.Child(i)
					if child.Type() == "decorated_definition" {
						child = child.ChildByFieldName("definition")
					}
					if child != nil && child.Type() == "function_definition" {
						methodOf[child] = className
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walkClasses(n.Child(i))
		}
	}
	walkClasses(root)

	seenFn := map[*sitter.Node]bool{}
	var out []repomap.Symbol
	rows := runQuery(pythonQuery, python.GetLanguage(), root, source)
	for _, row := range rows {
		switch {
		case row["class.node"] != nil:
			out = append(out, buildSymbol(row["class.node"], row["class.name"], repomap.KindStruct, "", path, total, comments, source))
		case row["fn.node.withparam"] != nil:
			fnNode := row["fn.node.withparam"]
			if seenFn[fnNode] {
				continue
			}
			seenFn[fnNode] = true
			kind := repomap.KindAssocFn
			parent, isMethod := methodOf[fnNode]
			first := nodeText(row["fn.firstparam"], source)
			if isMethod && (first == "self" || first == "cls") {
				kind = repomap.KindMethod
			} else if !isMethod {
				kind = repomap.KindFunction
				parent = ""
			}
			out = append(out, buildSymbol(fnNode, row["fn.name"], kind, parent, path, total, comments, source))
		case row["fn.node"] != nil:
			fnNode := row["fn.node"]
			if seenFn[fnNode] {
				continue
			}
			seenFn[fnNode] = true
			kind := repomap.KindFunction
			parent, isMethod := methodOf[fnNode]
			if !isMethod {
				parent = ""
			} else {
				kind = repomap.KindAssocFn
				if params := fnNode.ChildByFieldName("parameters"); params != nil && params.NamedChildCount() > 0 {
					if first := nodeText(params.NamedChild(0), source); first == "self" || first == "cls" {
						kind = repomap.KindMethod
					}
				}
			}
			out = append(out, buildSymbol(fnNode, row["fn.name"], kind, parent, path, total, comments, source))
		case row["var.node"] != nil:
			out = append(out, assignmentSymbols(row["var.node"], path, total, comments, source)...)
		}
	}
	return out
}

// assignmentSymbols emits a variable symbol for every identifier assigned
// by an `assignment` node's left-hand side: the identifier itself for a
// plain target, or every identifier reachable by descending into a
// tuple/list assignment target (spec.md §4.A "assignments→variable,
// descending into tuple/list patterns").
func assignmentSymbols(assignNode *sitter.Node, path string, total int, comments map[int]string, source []byte) []repomap.Symbol {
	left := assignNode.ChildByFieldName("left")
	if left == nil {
		return nil
	}

	if left.Type() == "identifier" {
		return []repomap.Symbol{buildSymbol(assignNode, left, repomap.KindVariable, "", path, total, comments, source)}
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
	walk(left)
	return out
}
