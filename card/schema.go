package card

import (
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/samber/mo"
)

var optionalString = reflect.TypeOf(mo.Option[string]{})

// Reflector returns a JSON schema reflector that knows how cards serialize.
// Optional strings are written as a string or null.
func Reflector() *jsonschema.Reflector {
	r := new(jsonschema.Reflector)
	r.Anonymous = true
	r.Mapper = func(t reflect.Type) *jsonschema.Schema {
		if t == optionalString {
			return &jsonschema.Schema{OneOf: []*jsonschema.Schema{{Type: "string"}, {Type: "null"}}}
		}
		return nil
	}
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		switch strings.ToLower(name) {
		case "card", "document", "header", "state", "statistics":
			return filepath.Base(t.PkgPath()) + "." + name
		}
		return name
	}
	return r
}
