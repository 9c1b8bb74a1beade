package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Réponse des endpoints de soumission: {"ok": bool, "operation_name": string?}
const submitResponseSchema = `{
	"type": "object",
	"properties": {
		"ok": {"type": "boolean"},
		"operation_name": {"type": ["string", "null"]}
	}
}`

// Réponse de /status/{operation_name}. Les champs inconnus sont tolérés.
const statusResponseSchema = `{
	"type": "object",
	"properties": {
		"done": {"type": ["boolean", "null"]},
		"status": {"type": ["string", "null"]}
	}
}`

var (
	submitSchema = mustCompile("submit_response.json", submitResponseSchema)
	statusSchema = mustCompile("status_response.json", statusResponseSchema)
)

func mustCompile(name, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// validatePayload décode data et le valide contre schema
func validatePayload(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
