package output

import (
	"github.com/cardsweep/cardsweep/card"
	"github.com/invopop/jsonschema"
)

// Schema describes the output document.
func Schema() *jsonschema.Schema {
	return card.Reflector().Reflect(&Document{})
}
