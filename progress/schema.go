package progress

import (
	"github.com/cardsweep/cardsweep/card"
	"github.com/invopop/jsonschema"
)

// Schema describes the progress file.
func Schema() *jsonschema.Schema {
	return card.Reflector().Reflect(&State{})
}
