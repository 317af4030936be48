package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
)

type Contract struct{ ent.Schema }

func (Contract) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "contracts"},
	}
}

func (Contract) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.String("document_key").NotEmpty(),
		field.String("source_document_name").NotEmpty(),
		field.String("contract_type").NotEmpty(),
		field.String("service_type").NotEmpty(),
		field.String("client_party").Optional().Nillable(),
		field.String("provider_party").Optional().Nillable(),
		field.Time("start_date").
			SchemaType(map[string]string{dialect.Postgres: "date"}),
		field.Time("end_date").
			SchemaType(map[string]string{dialect.Postgres: "date"}),
		field.Bool("auto_renewal").Default(false),
		field.Float("total_amount").
			Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "numeric(18,4)"}),
		field.String("payment_terms").Optional().Nillable(),
		field.Int("payment_term_days").Optional().Nillable(),
		field.Bool("early_termination").Default(false),
		field.Int("early_term_notice_days").Optional().Nillable(),
		field.Bool("exclusivity").Default(false),
		field.String("exclusivity_detail").Optional().Nillable(),
		field.String("governing_law").Optional().Nillable(),
		field.String("jurisdiction_domicile").Optional().Nillable(),
		field.String("description").Optional().Nillable(),
		field.String("internal_reference").Optional().Nillable(),
		field.Int("page_count").Default(0),
		field.JSON("annexes", []string{}).Optional(),
		field.String("page_observations").Optional().Nillable(),
		field.Int("token_count").Default(0),
		field.Int("word_count").Default(0),
		field.Int("annex_count").Default(0),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
		field.Bool("is_active").Default(true),
	}
}

func (Contract) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("parties", Party.Type),
		edge.To("representatives", Representative.Type),
		edge.To("administrators", Administrator.Type),
		edge.To("penalties", Penalty.Type),
		edge.To("fines", Fine.Type),
		edge.To("entities", ContractEntity.Type),
	}
}

func (Contract) Indexes() []ent.Index {
	return []ent.Index{
		// one active contract per document
		index.Fields("document_key").
			Unique().
			Annotations(entsql.IndexWhere("is_active")),
	}
}
