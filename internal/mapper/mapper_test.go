package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvaldebenito/contratos-pipeline/internal/common"
	"github.com/nvaldebenito/contratos-pipeline/internal/entity"
)

func mustDoc(t *testing.T, raw string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

var testMeta = entity.DocumentMetadata{
	SourceDocumentName: "contrato_servicios.pdf",
	PageCount:          12,
	Annexes:            []string{"Anexo A", "Anexo B"},
	TokenCount:         5400,
	WordCount:          4100,
}

const fullDoc = `{
	"Contrato": {
		"TipoContrato": "Prestación de Servicios",
		"tipo_servicio": "Mantención de equipos",
		"parte_cliente": "Minera Andina SpA",
		"contraparte": "Servicios Industriales Ltda",
		"FechaInicio": "1 de septiembre de 2024",
		"fecha_término": "31/08/2025",
		"renovacion_automatica": "Sí",
		"monto_total": "$ 2.500.000",
		"condiciones_de_pago": "Pago contra factura",
		"plazo_pago_dias": "30 días",
		"termino_anticipado": true,
		"plazo_preaviso_dias": 60,
		"exclusividad": "no",
		"ley_aplicable": "Ley chilena",
		"jurisdiccion": "Santiago de Chile",
		"descripcion": "Mantención preventiva y correctiva"
	},
	"CompaniaInfo": {
		"nombre": "Minera Andina SpA",
		"RUT": "76.123.456-7",
		"domicilio": "Av. Apoquindo 1234, Las Condes"
	},
	"ProveedoresInfo": [
		{"razon_social": "Servicios Industriales Ltda", "rut": "77.987.654-3", "direccion": "Camino lo Boza 500"}
	],
	"Representantes": [
		{"nombre": "Juan Pérez Soto", "cedula_identidad": "12.345.678-9"},
		{"nombre": "Sin Cédula"},
		{"cedula_identidad": "9.876.543-2"}
	],
	"Administradores": [
		{"nombre": "María González", "email": "MGonzalez@minera.cl", "telefono": "+56 9 1234 5678"},
		{"nombre": "Sin Correo"}
	],
	"Penalidades": [
		"Multa por atraso en la entrega",
		{"descripcion": "Término anticipado por incumplimiento grave"}
	],
	"Multas": [
		{"tipo_incumplimiento": "Atraso", "monto_multa_uf": "50,5", "implicancias": "Descuento en factura"},
		{"monto_multa_uf": 10}
	],
	"Entidades": [
		{"tipo": "Empresa", "nombre": "Minera Andina", "atributos": {"rut": "76.123.456-7"}},
		{"tipo": "empresa", "nombre": "minera andina", "atributos": {"rut": "76123456-7", "sector": "minería"}},
		{"tipo": "Persona", "nombre": "Juan Pérez"}
	],
	"SeccionDesconocida": {"sin": "uso"}
}`

func TestMapFullDocument(t *testing.T) {
	m := New(nil)
	graph, err := m.Map(mustDoc(t, fullDoc), testMeta)
	require.NoError(t, err)

	c := graph.Contract
	assert.Equal(t, "Prestación de Servicios", c.ContractType)
	assert.Equal(t, "Mantención de equipos", c.ServiceType)
	assert.Equal(t, "Minera Andina SpA", c.ClientParty)
	assert.Equal(t, "Servicios Industriales Ltda", c.ProviderParty)
	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), c.StartDate)
	assert.Equal(t, time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC), c.EndDate)
	assert.True(t, c.AutoRenewal)
	require.NotNil(t, c.TotalAmount)
	assert.Equal(t, "2500000", c.TotalAmount.String())
	require.NotNil(t, c.PaymentTermDays)
	assert.Equal(t, 30, *c.PaymentTermDays)
	assert.True(t, c.EarlyTermination)
	require.NotNil(t, c.EarlyTermNoticeDays)
	assert.Equal(t, 60, *c.EarlyTermNoticeDays)
	assert.False(t, c.Exclusivity)
	assert.Equal(t, "Ley chilena", c.GoverningLaw)
	assert.Equal(t, "Santiago de Chile", c.JurisdictionDomicile)

	// provenance comes from the document, not the extraction
	assert.Equal(t, "contrato_servicios.pdf", c.SourceDocumentName)
	assert.Equal(t, 12, c.PageCount)
	assert.Equal(t, 2, c.AnnexCount)
	assert.True(t, c.IsActive)
}

func TestMapParties(t *testing.T) {
	graph, err := New(nil).Map(mustDoc(t, fullDoc), testMeta)
	require.NoError(t, err)

	require.Len(t, graph.Parties, 2)
	client := graph.Parties[0]
	assert.Equal(t, entity.PartyRoleClient, client.Role)
	assert.Equal(t, "Minera Andina SpA", client.Name)
	assert.Equal(t, "76123456-7", client.RUT, "RUT must be normalized")

	provider := graph.Parties[1]
	assert.Equal(t, entity.PartyRoleProvider, provider.Role)
	assert.Equal(t, "Servicios Industriales Ltda", provider.Name)
	assert.Equal(t, "77987654-3", provider.RUT)
}

func TestMapChildCollections(t *testing.T) {
	graph, err := New(nil).Map(mustDoc(t, fullDoc), testMeta)
	require.NoError(t, err)

	// incomplete representatives and administrators are dropped with warnings
	require.Len(t, graph.Representatives, 1)
	assert.Equal(t, "Juan Pérez Soto", graph.Representatives[0].Name)
	assert.Equal(t, "12.345.678-9", graph.Representatives[0].NationalID)

	require.Len(t, graph.Administrators, 1)
	assert.Equal(t, "mgonzalez@minera.cl", graph.Administrators[0].Email)

	require.Len(t, graph.Penalties, 2)
	assert.Equal(t, "Multa por atraso en la entrega", graph.Penalties[0].Description)

	require.Len(t, graph.Fines, 1)
	assert.Equal(t, "Atraso", graph.Fines[0].InfractionType)
	require.NotNil(t, graph.Fines[0].AmountUF)
	assert.Equal(t, "50.5", graph.Fines[0].AmountUF.String())

	assert.NotEmpty(t, graph.Warnings)
}

func TestMapEntityDedup(t *testing.T) {
	graph, err := New(nil).Map(mustDoc(t, fullDoc), testMeta)
	require.NoError(t, err)

	// "Empresa/Minera Andina" and "empresa/minera andina" collapse into one
	require.Len(t, graph.Entities, 2)
	company := graph.Entities[0]
	assert.Equal(t, "Empresa", company.Type)

	byName := map[string]string{}
	for _, a := range company.Attributes {
		byName[a.Name] = a.Value
	}
	// repeated attribute keeps the last value seen
	assert.Equal(t, "76123456-7", byName["rut"])
	assert.Equal(t, "minería", byName["sector"])
}

func TestMapMissingContratoSection(t *testing.T) {
	_, err := New(nil).Map(mustDoc(t, `{"CompaniaInfo": {}}`), testMeta)
	require.Error(t, err)
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Contrato", verr.Field)
}

func TestMapMissingRequiredField(t *testing.T) {
	doc := mustDoc(t, `{"Contrato": {
		"tipo_contrato": "Servicios",
		"tipo_servicio": "Aseo",
		"fecha_termino": "2024-12-31"
	}}`)
	_, err := New(nil).Map(doc, testMeta)
	require.Error(t, err)
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fecha_inicio", verr.Field)
}

func TestMapUnparsableRequiredDate(t *testing.T) {
	doc := mustDoc(t, `{"Contrato": {
		"tipo_contrato": "Servicios",
		"tipo_servicio": "Aseo",
		"fecha_inicio": "a la brevedad",
		"fecha_termino": "2024-12-31"
	}}`)
	_, err := New(nil).Map(doc, testMeta)
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fecha_inicio", verr.Field)
}

func TestMapEndBeforeStart(t *testing.T) {
	doc := mustDoc(t, `{"Contrato": {
		"tipo_contrato": "Servicios",
		"tipo_servicio": "Aseo",
		"fecha_inicio": "2024-12-31",
		"fecha_termino": "2024-01-01"
	}}`)
	_, err := New(nil).Map(doc, testMeta)
	var verr *common.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fecha_termino", verr.Field)
}

func TestMapOptionalFieldWarningNotError(t *testing.T) {
	doc := mustDoc(t, `{"Contrato": {
		"tipo_contrato": "Servicios",
		"tipo_servicio": "Aseo",
		"fecha_inicio": "2024-01-01",
		"fecha_termino": "2024-12-31",
		"monto_total": "a convenir"
	}}`)
	graph, err := New(nil).Map(doc, testMeta)
	require.NoError(t, err)
	assert.Nil(t, graph.Contract.TotalAmount)
	assert.NotEmpty(t, graph.Warnings)
}

func TestMapToleratesUnknownKeysAndSectionInArray(t *testing.T) {
	doc := mustDoc(t, `{
		"Contrato": [{
			"tipo_contrato": "Arriendo",
			"tipo_servicio": "Inmueble",
			"fecha_inicio": "2024-01-01",
			"fecha_termino": "2024-12-31",
			"campo_inventado": "ignorado"
		}],
		"OtraSeccion": [1, 2, 3]
	}`)
	graph, err := New(nil).Map(doc, testMeta)
	require.NoError(t, err)
	assert.Equal(t, "Arriendo", graph.Contract.ContractType)
}

func TestMapKeyedCollectionForm(t *testing.T) {
	doc := mustDoc(t, `{
		"Contrato": {
			"tipo_contrato": "Servicios",
			"tipo_servicio": "Aseo",
			"fecha_inicio": "2024-01-01",
			"fecha_termino": "2024-12-31"
		},
		"Representantes": {
			"Representante1": {"nombre": "Ana Rojas", "cedula": "11.111.111-1"},
			"Representante2": {"nombre": "Luis Díaz", "cedula": "22.222.222-2"}
		}
	}`)
	graph, err := New(nil).Map(doc, testMeta)
	require.NoError(t, err)
	require.Len(t, graph.Representatives, 2)
	assert.Equal(t, "Ana Rojas", graph.Representatives[0].Name)
	assert.Equal(t, "Luis Díaz", graph.Representatives[1].Name)
}
