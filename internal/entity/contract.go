package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartyRole distinguishes the two sides of a contract.
type PartyRole string

const (
	PartyRoleClient   PartyRole = "CLIENT"
	PartyRoleProvider PartyRole = "PROVIDER"
)

// Contract is the aggregate root: one row per processed source document.
type Contract struct {
	ID                   uuid.UUID        `json:"id"`
	DocumentKey          string           `json:"document_key"`
	SourceDocumentName   string           `json:"source_document_name"`
	ContractType         string           `json:"contract_type"`
	ServiceType          string           `json:"service_type"`
	ClientParty          string           `json:"client_party,omitempty"`
	ProviderParty        string           `json:"provider_party,omitempty"`
	StartDate            time.Time        `json:"start_date"`
	EndDate              time.Time        `json:"end_date"`
	AutoRenewal          bool             `json:"auto_renewal"`
	TotalAmount          *decimal.Decimal `json:"total_amount,omitempty"`
	PaymentTerms         string           `json:"payment_terms,omitempty"`
	PaymentTermDays      *int             `json:"payment_term_days,omitempty"`
	EarlyTermination     bool             `json:"early_termination"`
	EarlyTermNoticeDays  *int             `json:"early_termination_notice_days,omitempty"`
	Exclusivity          bool             `json:"exclusivity"`
	ExclusivityDetail    string           `json:"exclusivity_detail,omitempty"`
	GoverningLaw         string           `json:"governing_law,omitempty"`
	JurisdictionDomicile string           `json:"jurisdiction_domicile,omitempty"`
	Description          string           `json:"description,omitempty"`
	InternalReference    string           `json:"internal_reference,omitempty"`
	PageCount            int              `json:"page_count"`
	Annexes              []string         `json:"annexes,omitempty"`
	PageObservations     string           `json:"page_observations,omitempty"`
	TokenCount           int              `json:"token_count"`
	WordCount            int              `json:"word_count"`
	AnnexCount           int              `json:"annex_count"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	IsActive             bool             `json:"is_active"`
}

// Party is a contracting side: name + RUT + domicile.
type Party struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	RUT      string    `json:"rut"`
	Domicile string    `json:"domicile,omitempty"`
	Role     PartyRole `json:"role"`
}

// Representative is a legal representative, scoped to one contract.
type Representative struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	NationalID string    `json:"national_id"` // cédula de identidad
}

// Administrator is the operational contact for a contract.
type Administrator struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone,omitempty"`
	Email   string    `json:"email"`
	Address string    `json:"address,omitempty"`
}

// Penalty is a free-text penalty clause.
type Penalty struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
}

// Fine is a multa asociada: a concrete breach with an amount in UF.
type Fine struct {
	ID              uuid.UUID        `json:"id"`
	InfractionType  string           `json:"infraction_type"`
	Implications    string           `json:"implications,omitempty"`
	AmountUF        *decimal.Decimal `json:"amount_uf,omitempty"`
	NoticeDeadline  string           `json:"notice_deadline,omitempty"`
	FullDescription string           `json:"full_description,omitempty"`
}

// ExtractedEntity is a generic named object found in the contract, with
// free-form attributes for fields not covered by fixed columns.
type ExtractedEntity struct {
	ID         uuid.UUID            `json:"id"`
	Type       string               `json:"type"`
	Name       string               `json:"name"`
	Attributes []EntityAttribute    `json:"attributes,omitempty"`
}

// EntityAttribute is one key/value property of an extracted entity.
type EntityAttribute struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Value string    `json:"value"`
}

// ContractGraph is the fully validated in-memory record graph the mapper
// produces and the persistence writer consumes in one transaction.
type ContractGraph struct {
	Contract        Contract
	Parties         []Party
	Representatives []Representative
	Administrators  []Administrator
	Penalties       []Penalty
	Fines           []Fine
	Entities        []ExtractedEntity

	// Warnings collects per-item mapping problems in child collections;
	// they never fail the run.
	Warnings []string
}

// DocumentMetadata is the provenance metadata supplied alongside the
// semantic-extraction output.
type DocumentMetadata struct {
	SourceDocumentName string
	PageCount          int
	Annexes            []string
	InternalReference  string
	PageObservations   string
	TokenCount         int
	WordCount          int
}
