package catalog

import "github.com/invopop/jsonschema"

// Schema returns the JSON schema of a catalog file.
func Schema() *jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.DoNotReference = true
	return reflector.Reflect([]*Entry{})
}
