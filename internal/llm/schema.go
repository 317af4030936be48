package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildContractJSONSchema returns the validation schema for the extraction
// document. It is deliberately loose: only the Contrato section is required
// and unknown sections pass through, because the mapper owns field-level
// tolerance and the model's adherence to the exact shape varies.
func BuildContractJSONSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"Contrato"},
		"properties": map[string]any{
			"Contrato": map[string]any{
				"type": []string{"object", "array"},
			},
			"Multas":          collectionProp(),
			"Penalidades":     map[string]any{"type": []string{"array", "object"}},
			"CompaniaInfo":    map[string]any{"type": []string{"object", "array"}},
			"ProveedoresInfo": collectionProp(),
			"Representantes":  collectionProp(),
			"Administradores": collectionProp(),
			"Entidades":       collectionProp(),
		},
	}
}

func collectionProp() map[string]any {
	return map[string]any{"type": []string{"array", "object"}}
}

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
