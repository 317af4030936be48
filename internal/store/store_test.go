package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvaldebenito/contratos-pipeline/internal/common"
	"github.com/nvaldebenito/contratos-pipeline/internal/entity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.InitSchema(context.Background()))
	return s
}

var graphSeq int

// testGraph builds a full record graph with unique identity values so
// multiple inserts in one test do not collide on system-wide rules.
func testGraph(documentKey string) *entity.ContractGraph {
	graphSeq++
	n := graphSeq
	amount := decimal.NewFromInt(500000)
	fineAmount := decimal.NewFromInt(50)
	days := 30
	return &entity.ContractGraph{
		Contract: entity.Contract{
			DocumentKey:        documentKey,
			SourceDocumentName: documentKey + ".pdf",
			ContractType:       "Prestación de Servicios",
			ServiceType:        "Mantención",
			ClientParty:        "Minera Andina SpA",
			ProviderParty:      "Servicios Industriales Ltda",
			StartDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:            time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			AutoRenewal:        true,
			TotalAmount:        &amount,
			PaymentTerms:       "30 días contra factura",
			PaymentTermDays:    &days,
			GoverningLaw:       "Ley chilena",
			PageCount:          10,
			Annexes:            []string{"Anexo A"},
			AnnexCount:         1,
		},
		Parties: []entity.Party{
			{Name: "Minera Andina SpA", RUT: fmt.Sprintf("76.%03d.111-%d", n, n%10), Role: entity.PartyRoleClient},
			{Name: "Servicios Industriales Ltda", RUT: fmt.Sprintf("77.%03d.222-%d", n, n%10), Role: entity.PartyRoleProvider},
		},
		Representatives: []entity.Representative{
			{Name: "Juan Pérez", NationalID: fmt.Sprintf("12.345.%03d-9", n)},
		},
		Administrators: []entity.Administrator{
			{Name: "María González", Email: fmt.Sprintf("admin%d@minera.cl", n)},
		},
		Penalties: []entity.Penalty{
			{Description: "Multa por atraso"},
		},
		Fines: []entity.Fine{
			{InfractionType: "Atraso", AmountUF: &fineAmount},
		},
		Entities: []entity.ExtractedEntity{
			{Type: "Empresa", Name: "Minera Andina", Attributes: []entity.EntityAttribute{
				{Name: "rut", Value: "76.123.456-7"},
			}},
		},
	}
}

func TestInsertGraphRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertGraph(ctx, testGraph("Contrato_Servicios.PDF"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	g, err := s.LoadGraph(ctx, id)
	require.NoError(t, err)

	c := g.Contract
	assert.Equal(t, "contrato_servicios.pdf", c.DocumentKey, "key must be normalized")
	assert.Equal(t, "Prestación de Servicios", c.ContractType)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), c.StartDate)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), c.EndDate)
	require.NotNil(t, c.TotalAmount)
	assert.Equal(t, "500000", c.TotalAmount.String())
	require.NotNil(t, c.PaymentTermDays)
	assert.Equal(t, 30, *c.PaymentTermDays)
	assert.True(t, c.AutoRenewal)
	assert.Equal(t, []string{"Anexo A"}, c.Annexes)
	assert.True(t, c.IsActive)
	assert.False(t, c.CreatedAt.IsZero())

	assert.Len(t, g.Parties, 2)
	assert.Len(t, g.Representatives, 1)
	assert.Len(t, g.Administrators, 1)
	assert.Len(t, g.Penalties, 1)
	require.Len(t, g.Fines, 1)
	require.NotNil(t, g.Fines[0].AmountUF)
	assert.Equal(t, "50", g.Fines[0].AmountUF.String())
	require.Len(t, g.Entities, 1)
	require.Len(t, g.Entities[0].Attributes, 1)
	assert.Equal(t, "rut", g.Entities[0].Attributes[0].Name)
}

func TestCheckGate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	proceed, err := s.Check(ctx, "doc-1.pdf")
	require.NoError(t, err)
	assert.True(t, proceed)

	_, err = s.InsertGraph(ctx, testGraph("doc-1.pdf"))
	require.NoError(t, err)

	proceed, err = s.Check(ctx, "  DOC-1.PDF  ")
	require.NoError(t, err)
	assert.False(t, proceed, "key comparison must ignore case and whitespace")
}

func TestDuplicateDocumentKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.InsertGraph(ctx, testGraph("doc-2.pdf"))
	require.NoError(t, err)

	_, err = s.InsertGraph(ctx, testGraph("DOC-2.pdf"))
	require.ErrorIs(t, err, common.ErrDuplicateDocument)
}

func TestConstraintViolationRollsBackWholeGraph(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testGraph("doc-3.pdf")
	_, err := s.InsertGraph(ctx, first)
	require.NoError(t, err)

	// second contract reuses the first administrator's email; the email rule
	// is system-wide among active rows
	second := testGraph("doc-4.pdf")
	second.Administrators[0].Email = first.Administrators[0].Email
	_, err = s.InsertGraph(ctx, second)

	var cv *common.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "administrator_email", cv.Rule)
	assert.Equal(t, first.Administrators[0].Email, cv.Value)

	// nothing of the second graph may remain
	proceed, err := s.Check(ctx, "doc-4.pdf")
	require.NoError(t, err)
	assert.True(t, proceed, "failed insert must leave no contract row behind")
}

func TestPartyRUTUniqueAmongActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testGraph("doc-5.pdf")
	_, err := s.InsertGraph(ctx, first)
	require.NoError(t, err)

	second := testGraph("doc-6.pdf")
	second.Parties[0].RUT = first.Parties[0].RUT
	_, err = s.InsertGraph(ctx, second)

	var cv *common.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "party_rut", cv.Rule)
	assert.Equal(t, first.Parties[0].RUT, cv.Value)
}

func TestPartiesWithoutRUTDoNotCollide(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testGraph("doc-7.pdf")
	first.Parties[0].RUT = ""
	first.Parties[1].RUT = ""
	_, err := s.InsertGraph(ctx, first)
	require.NoError(t, err)

	second := testGraph("doc-8.pdf")
	second.Parties[0].RUT = ""
	_, err = s.InsertGraph(ctx, second)
	require.NoError(t, err, "NULL RUTs are exempt from the uniqueness rule")
}

func TestRepresentativePairScopedToContract(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testGraph("doc-9.pdf")
	_, err := s.InsertGraph(ctx, first)
	require.NoError(t, err)

	// the same person may represent a different contract
	second := testGraph("doc-10.pdf")
	second.Representatives[0].NationalID = first.Representatives[0].NationalID
	_, err = s.InsertGraph(ctx, second)
	require.NoError(t, err)

	// but not twice within one contract
	third := testGraph("doc-11.pdf")
	third.Representatives = append(third.Representatives, entity.Representative{
		Name:       "Duplicado",
		NationalID: third.Representatives[0].NationalID,
	})
	_, err = s.InsertGraph(ctx, third)
	var cv *common.ConstraintViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "representative_identity", cv.Rule)
}

func TestDeactivateFreesKeyAndRUT(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testGraph("doc-12.pdf")
	id, err := s.InsertGraph(ctx, first)
	require.NoError(t, err)

	require.NoError(t, s.Deactivate(ctx, id))

	proceed, err := s.Check(ctx, "doc-12.pdf")
	require.NoError(t, err)
	assert.True(t, proceed, "logical delete must free the document key")

	// same key and same identity values are acceptable again
	second := testGraph("doc-12.pdf")
	second.Parties[0].RUT = first.Parties[0].RUT
	second.Administrators[0].Email = first.Administrators[0].Email
	_, err = s.InsertGraph(ctx, second)
	require.NoError(t, err)

	_, err = s.LoadGraph(ctx, id)
	assert.Error(t, err, "deactivated contract must not load as active")
}

func TestListActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	idA, err := s.InsertGraph(ctx, testGraph("doc-13.pdf"))
	require.NoError(t, err)
	_, err = s.InsertGraph(ctx, testGraph("doc-14.pdf"))
	require.NoError(t, err)
	require.NoError(t, s.Deactivate(ctx, idA))

	list, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "doc-14.pdf", list[0].DocumentKey)
}
