package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvaldebenito/contratos-pipeline/internal/common"
)

func TestSanitizeModelOutput(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\": 1}\n```":            `{"a": 1}`,
		"```\n{\"a\": 1}\n```":                `{"a": 1}`,
		"  {\"a\": 1}  ":                      `{"a": 1}`,
		"Aquí está el JSON:\n{\"a\": 1}":      `{"a": 1}`,
		"{\"a\": 1}\nEspero que sirva.":       `{"a": 1}`,
		"```json\n[{\"a\": 1}]\n```":          `[{"a": 1}]`,
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeModelOutput(in), "input %q", in)
	}
}

func TestDecodeDocumentValid(t *testing.T) {
	doc, err := DecodeDocument("```json\n{\"Contrato\": {\"tipo_contrato\": \"Servicios\"}, \"Multas\": []}\n```")
	require.NoError(t, err)
	require.Contains(t, doc, "Contrato")
}

func TestDecodeDocumentUnwrapsSingleElementArray(t *testing.T) {
	doc, err := DecodeDocument(`[{"Contrato": {"tipo_contrato": "Servicios"}}]`)
	require.NoError(t, err)
	assert.Contains(t, doc, "Contrato")
}

func TestDecodeDocumentRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"",
		"no soy JSON",
		`"solo un string"`,
		`[{"Contrato": {}}, {"Contrato": {}}]`,
		`{"SinContrato": {}}`,
	} {
		_, err := DecodeDocument(raw)
		require.Error(t, err, "input %q", raw)
		var serr *common.SemanticExtractionError
		assert.ErrorAs(t, err, &serr, "input %q", raw)
	}
}
