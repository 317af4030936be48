package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
)

type Administrator struct{ ent.Schema }

func (Administrator) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "administrators"},
	}
}

func (Administrator) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.UUID("contract_id", uuid.UUID{}),
		field.String("name").NotEmpty(),
		field.String("phone").Optional().Nillable(),
		field.String("email").NotEmpty(),
		field.String("address").Optional().Nillable(),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
		field.Bool("is_active").Default(true),
	}
}

func (Administrator) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("contract", Contract.Type).
			Ref("administrators").
			Field("contract_id").
			Required().
			Unique(),
	}
}

func (Administrator) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("email").
			Unique().
			Annotations(entsql.IndexWhere("is_active")),
	}
}
