package lang

import (
	"testing"

	"github.com/smacker/go-tree-sitter/rust"
	"github.com/stretchr/testify/assert"

	"github.com/doge-run/doge/pkg/repomap"
)

const sampleRust = `
struct Counter {
    value: i32,
}

trait Incrementable {
    fn bump(&mut self);
}

impl Counter {
    fn new() -> Counter {
        Counter { value: 0 }
    }

    fn bump(&mut self) {
        self.value += 1;
    }
}

fn standalone() -> i32 {
    1
}
`

func TestRustExtractor_DistinguishesMethodFromAssocFn(t *testing.T) {
	source := []byte(sampleRust)
	root := parseWith(t, rust.GetLanguage(), source)
	symbols := rustExtractor{}.Extract("sample.rs", source, root)

	kinds := map[string]repomap.Kind{}
	parents := map[string]string{}
	for _, s := range symbols {
		if s.Kind == repomap.KindImpl {
			continue // the impl block is also named "Counter"; keep the struct's entry
		}
		kinds[s.Name] = s.Kind
		parents[s.Name] = s.Parent
	}

	assert.Equal(t, repomap.KindStruct, kinds["Counter"])
	assert.Equal(t, repomap.KindTrait, kinds["Incrementable"])
	assert.Equal(t, repomap.KindFunction, kinds["standalone"])
	assert.Equal(t, repomap.KindAssocFn, kinds["new"])
	assert.Equal(t, "Counter", parents["new"])
	assert.Equal(t, repomap.KindMethod, kinds["bump"])
	assert.Equal(t, "Counter", parents["bump"])
}

const sampleRustLet = `
fn example() {
    let (a, b) = (1, 2);
}
`

func TestRustExtractor_TupleLetBindingEmitsNestedIdentifiers(t *testing.T) {
	source := []byte(sampleRustLet)
	root := parseWith(t, rust.GetLanguage(), source)
	symbols := rustExtractor{}.Extract("sample.rs", source, root)

	var names []string
	for _, s := range symbols {
		if s.Kind == repomap.KindVariable {
			names = append(names, s.Name)
		}
	}
	assert.Contains(t, names, "a")
	assert.Contains(t, names, "b")
}
