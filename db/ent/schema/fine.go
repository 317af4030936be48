package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"

	"github.com/google/uuid"
)

type Fine struct{ ent.Schema }

func (Fine) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "fines"},
	}
}

func (Fine) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.UUID("contract_id", uuid.UUID{}),
		field.String("infraction_type").NotEmpty(),
		field.String("implications").Optional().Nillable(),
		field.Float("amount_uf").
			Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "numeric(12,4)"}),
		field.String("notice_deadline").Optional().Nillable(),
		field.String("full_description").Optional().Nillable(),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
		field.Bool("is_active").Default(true),
	}
}

func (Fine) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("contract", Contract.Type).
			Ref("fines").
			Field("contract_id").
			Required().
			Unique(),
	}
}
