package lang

import (
	"testing"

	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/stretchr/testify/assert"

	"github.com/doge-run/doge/pkg/repomap"
)

const sampleJS = `
class Greeter {
  greet() {
    return "hi";
  }
}

function standalone() {
  return 1;
}

const value = 42;
`

func TestJSExtractor_ExtractsClassMethodFunctionAndVar(t *testing.T) {
	source := []byte(sampleJS)
	root := parseWith(t, javascript.GetLanguage(), source)
	symbols := jsExtractor{}.Extract("sample.js", source, root)

	var method, fn, class, v *repomap.Symbol
	for i := range symbols {
		switch symbols[i].Name {
		case "greet":
			method = &symbols[i]
		case "standalone":
			fn = &symbols[i]
		case "Greeter":
			class = &symbols[i]
		case "value":
			v = &symbols[i]
		}
	}
	if assert.NotNil(t, method) {
		assert.Equal(t, repomap.KindMethod, method.Kind)
		assert.Equal(t, "Greeter", method.Parent)
	}
	if assert.NotNil(t, fn) {
		assert.Equal(t, repomap.KindFunction, fn.Kind)
	}
	if assert.NotNil(t, class) {
		assert.Equal(t, repomap.KindStruct, class.Kind)
	}
	if assert.NotNil(t, v) {
		assert.Equal(t, repomap.KindVariable, v.Kind)
	}
}
