package lang

import (
	"testing"

	"github.com/smacker/go-tree-sitter/python"
	"github.com/stretchr/testify/assert"

	"github.com/doge-run/doge/pkg/repomap"
)

const samplePython = `
class Account:
    def deposit(self, amount):
        return amount

def standalone():
    return 1

total = 0
`

func TestPythonExtractor_DistinguishesMethodFromFunction(t *testing.T) {
	source := []byte(samplePython)
	root := parseWith(t, python.GetLanguage(), source)
	symbols := pythonExtractor{}.Extract("sample.py", source, root)

	var method, fn, class, v *repomap.Symbol
	for i := range symbols {
		switch symbols[i].Name {
		case "deposit":
			method = &symbols[i]
		case "standalone":
			fn = &symbols[i]
		case "Account":
			class = &symbols[i]
		case "total":
			v = &symbols[i]
		}
	}
	if assert.NotNil(t, method) {
		assert.Equal(t, repomap.KindMethod, method.Kind)
		assert.Equal(t, "Account", method.Parent)
	}
	if assert.NotNil(t, fn) {
		assert.Equal(t, repomap.KindFunction, fn.Kind)
		assert.Empty(t, fn.Parent)
	}
	if assert.NotNil(t, class) {
		assert.Equal(t, repomap.KindStruct, class.Kind)
	}
	if assert.NotNil(t, v) {
		assert.Equal(t, repomap.KindVariable, v.Kind)
	}
}

const samplePythonClassMethod = `
class Factory:
    @classmethod
    def create(cls):
        return cls()
`

func TestPythonExtractor_ClassmethodWithClsIsMethod(t *testing.T) {
	source := []byte(samplePythonClassMethod)
	root := parseWith(t, python.GetLanguage(), source)
	symbols := pythonExtractor{}.Extract("sample.py", source, root)

	for _, s := range symbols {
		if s.Name == "create" {
			assert.Equal(t, repomap.KindMethod, s.Kind)
			assert.Equal(t, "Factory", s.Parent)
			return
		}
	}
	t.Fatal("expected to find symbol named create")
}

const samplePythonTupleAssign = `
a, b = 1, 2
`

func TestPythonExtractor_TupleAssignmentEmitsNestedIdentifiers(t *testing.T) {
	source := []byte(samplePythonTupleAssign)
	root := parseWith(t, python.GetLanguage(), source)
	symbols := pythonExtractor{}.Extract("sample.py", source, root)

	var names []string
	for _, s := range symbols {
		if s.Kind == repomap.KindVariable {
			names = append(names, s.Name)
		}
	}
	assert.Contains(t, names, "a")
	assert.Contains(t, names, "b")
}
