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

	"github.com/nvaldebenito/contratos-pipeline/db/ent/schema/utils"
)

type Party struct{ ent.Schema }

func (Party) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "parties"},
	}
}

func (Party) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.UUID("contract_id", uuid.UUID{}),
		field.String("name").NotEmpty(),
		field.String("rut").Optional().Nillable(),
		field.String("domicile").Optional().Nillable(),
		field.String("role").
			Validate(utils.EnumValidator("CLIENT", "PROVIDER")),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
		field.Bool("is_active").Default(true),
	}
}

func (Party) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("contract", Contract.Type).
			Ref("parties").
			Field("contract_id").
			Required().
			Unique(),
	}
}

func (Party) Indexes() []ent.Index {
	return []ent.Index{
		// RUT identifies one active party system-wide; rows without a RUT
		// are exempt
		index.Fields("rut").
			Unique().
			Annotations(entsql.IndexWhere("is_active AND rut IS NOT NULL")),
	}
}
