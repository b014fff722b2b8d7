package report

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/roach88/graphparity/internal/manifest"
)

// JSONSchema describes the JSON encoding of Report.
func JSONSchema() *jsonschema.Schema {
	categories := make([]any, len(manifest.Categories))
	for i, c := range manifest.Categories {
		categories[i] = string(c)
	}
	categoryType := reflect.TypeOf(manifest.Category(""))

	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == categoryType {
				return &jsonschema.Schema{Type: "string", Enum: categories}
			}
			return nil
		},
	}
	s := r.Reflect(&Report{})
	s.Title = "graphparity report"
	return s
}

// MarshalSchema returns JSONSchema indented for display.
func MarshalSchema() ([]byte, error) {
	return json.MarshalIndent(JSONSchema(), "", "  ")
}
