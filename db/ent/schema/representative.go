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

type Representative struct{ ent.Schema }

func (Representative) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "representatives"},
	}
}

func (Representative) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.UUID("contract_id", uuid.UUID{}),
		field.String("name").NotEmpty(),
		field.String("national_id").NotEmpty(),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
		field.Bool("is_active").Default(true),
	}
}

func (Representative) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("contract", Contract.Type).
			Ref("representatives").
			Field("contract_id").
			Required().
			Unique(),
	}
}

func (Representative) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("national_id", "contract_id").
			Unique().
			Annotations(entsql.IndexWhere("is_active")),
	}
}
