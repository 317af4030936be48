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

// ContractEntity is a generic named object found in the contract text
// (person, company, country) with free-form attributes.
type ContractEntity struct{ ent.Schema }

func (ContractEntity) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "entities"},
	}
}

func (ContractEntity) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.UUID("contract_id", uuid.UUID{}),
		field.String("type").NotEmpty(),
		field.String("name").NotEmpty(),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
		field.Bool("is_active").Default(true),
	}
}

func (ContractEntity) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("contract", Contract.Type).
			Ref("entities").
			Field("contract_id").
			Required().
			Unique(),
		edge.To("attributes", EntityAttribute.Type),
	}
}

func (ContractEntity) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("contract_id", "type", "name").
			Unique().
			Annotations(entsql.IndexWhere("is_active")),
	}
}

type EntityAttribute struct{ ent.Schema }

func (EntityAttribute) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "entity_attributes"},
	}
}

func (EntityAttribute) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),
		field.UUID("entity_id", uuid.UUID{}),
		field.UUID("contract_id", uuid.UUID{}),
		field.String("name").NotEmpty(),
		field.String("value").NotEmpty(),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
		field.Bool("is_active").Default(true),
	}
}

func (EntityAttribute) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("entity", ContractEntity.Type).
			Ref("attributes").
			Field("entity_id").
			Required().
			Unique(),
	}
}
