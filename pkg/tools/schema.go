package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// reflector is shared across all tool schema generation. DoNotReference
// inlines nested types, so each schema is self-contained and carries no
// $defs.
var reflector = &jsonschema.Reflector{
	DoNotReference:            true,
	ExpandedStruct:            true,
	AllowAdditionalProperties: false,
}

// SchemaOf reflects a Go struct (passed as a nil-able pointer, e.g.
// (*fsReadArgs)(nil)) into a JSON-Schema document suitable for both LLM
// transmission and jsonschema/v6 compilation.
func SchemaOf(v any) json.RawMessage {
	s := reflector.Reflect(v)
	b, err := json.Marshal(s)
	if err != nil {
		panic("tools: failed to marshal reflected schema: " + err.Error())
	}
	return b
}
