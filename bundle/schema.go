// JSON Schema for the provider-definition authoring format. External
// generators that emit definitions from provider API schemas validate their
// output against this before handing documents to the compiler.

package bundle

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/getcanon/canon/core"
)

var (
	schemaOnce sync.Once
	schemaJSON []byte
	schemaErr  error
)

// DefinitionSchema returns the JSON Schema describing one provider's
// authoring document. The schema is generated once and cached.
func DefinitionSchema() ([]byte, error) {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{
			// ParseDefinition decodes with KnownFields, so the schema
			// rejects unknown properties the same way the compiler does.
			RequiredFromJSONSchemaTags: true,
			DoNotReference:             true,
		}
		schema := r.Reflect(&core.ProviderDefinition{})
		schemaJSON, schemaErr = json.MarshalIndent(schema, "", "  ")
	})
	return schemaJSON, schemaErr
}
