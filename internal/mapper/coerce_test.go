package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormKey(t *testing.T) {
	cases := map[string]string{
		"FechaInicio":       "fecha_inicio",
		"fecha de inicio":   "fecha_de_inicio",
		"Fecha-Inicio":      "fecha_inicio",
		"fecha_término":     "fecha_termino",
		"  RazónSocial  ":   "razon_social",
		"tipo.contrato":     "tipo_contrato",
		"MontoTotalUF":      "monto_total_uf",
		"renovación__auto":  "renovacion_auto",
		"cédula identidad":  "cedula_identidad",
	}
	for in, want := range cases {
		assert.Equal(t, want, normKey(in), "normKey(%q)", in)
	}
}

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2024-09-01":              time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		"01/09/2024":              time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		"2024/09/01":              time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		"01-09-2024":              time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		"1 de septiembre de 2024": time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		"15 de Enero de 2023":     time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
		"31 de diciembre de 2025": time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := parseDate(in)
		require.NoError(t, err, "parseDate(%q)", in)
		assert.True(t, want.Equal(got), "parseDate(%q) = %v, want %v", in, got, want)
	}

	for _, in := range []string{"", "mañana", "32 de enero de 2024", "2024-13-01"} {
		_, err := parseDate(in)
		assert.Error(t, err, "parseDate(%q)", in)
	}
}

func TestParseDecimal(t *testing.T) {
	cases := map[any]string{
		"500000":        "500000",
		"500.000":       "500000",
		"1.234.567,89":  "1234567.89",
		"1,234,567.89":  "1234567.89",
		"$ 2.500.000":   "2500000",
		"UF 50,5":       "50.5",
		"123.45":        "123.45",
		float64(500000): "500000",
		42:              "42",
	}
	for in, want := range cases {
		got, err := parseDecimal(in)
		require.NoError(t, err, "parseDecimal(%v)", in)
		assert.Equal(t, want, got.String(), "parseDecimal(%v)", in)
	}

	for _, in := range []any{"", "sin monto", nil, true} {
		_, err := parseDecimal(in)
		assert.Error(t, err, "parseDecimal(%v)", in)
	}
}

func TestParseBool(t *testing.T) {
	truthy := []any{"si", "Sí", "SI", "true", "1", "yes", true, float64(1)}
	for _, in := range truthy {
		got, err := parseBool(in)
		require.NoError(t, err, "parseBool(%v)", in)
		assert.True(t, got, "parseBool(%v)", in)
	}

	falsy := []any{"no", "No", "false", "0", "", false, float64(0)}
	for _, in := range falsy {
		got, err := parseBool(in)
		require.NoError(t, err, "parseBool(%v)", in)
		assert.False(t, got, "parseBool(%v)", in)
	}

	_, err := parseBool("quizás")
	assert.Error(t, err)
}

func TestParseInt(t *testing.T) {
	got, err := parseInt("30")
	require.NoError(t, err)
	assert.Equal(t, 30, got)

	got, err = parseInt(float64(45))
	require.NoError(t, err)
	assert.Equal(t, 45, got)

	got, err = parseInt("30 días")
	require.NoError(t, err)
	assert.Equal(t, 30, got)

	_, err = parseInt("treinta")
	assert.Error(t, err)
}
