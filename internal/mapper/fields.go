package mapper

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nvaldebenito/contratos-pipeline/internal/entity"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindDate
	kindDecimal
	kindBool
	kindInt
)

// value carries one coerced field; only the slot matching the fieldSpec kind is set.
type value struct {
	str  string
	date time.Time
	dec  decimal.Decimal
	flag bool
	num  int
}

// fieldSpec is one row of the declarative mapping table: the canonical
// external name, accepted synonyms, target type, and whether the whole
// mapping fails when the field is missing or unparsable.
//
// Name matching is performed on normKey output, so casing, accents,
// camelCase and space/underscore variants need no alias entries; aliases
// are for genuinely different upstream names.
type fieldSpec struct {
	name     string
	aliases  []string
	kind     fieldKind
	required bool
	assign   func(*entity.Contract, value)
}

func (f fieldSpec) keys() []string {
	keys := make([]string, 0, len(f.aliases)+1)
	keys = append(keys, normKey(f.name))
	for _, a := range f.aliases {
		keys = append(keys, normKey(a))
	}
	return keys
}

// contractFields maps the Contrato section onto the contract row.
var contractFields = []fieldSpec{
	{
		name: "tipo_contrato", kind: kindString, required: true,
		assign: func(c *entity.Contract, v value) { c.ContractType = v.str },
	},
	{
		name: "tipo_servicio", kind: kindString, required: true,
		assign: func(c *entity.Contract, v value) { c.ServiceType = v.str },
	},
	{
		name: "parte_cliente", aliases: []string{"cliente"}, kind: kindString,
		assign: func(c *entity.Contract, v value) { c.ClientParty = v.str },
	},
	{
		name: "parte_proveedor", aliases: []string{"proveedor", "contraparte"}, kind: kindString,
		assign: func(c *entity.Contract, v value) { c.ProviderParty = v.str },
	},
	{
		name: "fecha_inicio", aliases: []string{"fecha_de_inicio"}, kind: kindDate, required: true,
		assign: func(c *entity.Contract, v value) { c.StartDate = v.date },
	},
	{
		name: "fecha_termino", aliases: []string{"fecha_de_termino", "fecha_fin"}, kind: kindDate, required: true,
		assign: func(c *entity.Contract, v value) { c.EndDate = v.date },
	},
	{
		name: "renovacion_automatica", kind: kindBool,
		assign: func(c *entity.Contract, v value) { c.AutoRenewal = v.flag },
	},
	{
		name: "monto_total", aliases: []string{"monto", "honorario_total"}, kind: kindDecimal,
		assign: func(c *entity.Contract, v value) { d := v.dec; c.TotalAmount = &d },
	},
	{
		name: "condiciones_de_pago", aliases: []string{"condiciones_pago", "terminos_de_pago"}, kind: kindString,
		assign: func(c *entity.Contract, v value) { c.PaymentTerms = v.str },
	},
	{
		name: "plazo_pago_dias", aliases: []string{"plazo_de_pago_dias", "dias_de_pago"}, kind: kindInt,
		assign: func(c *entity.Contract, v value) { n := v.num; c.PaymentTermDays = &n },
	},
	{
		name: "termino_anticipado_activo", aliases: []string{"termino_anticipado"}, kind: kindBool,
		assign: func(c *entity.Contract, v value) { c.EarlyTermination = v.flag },
	},
	{
		name: "termino_anticipado_plazo_dias", aliases: []string{"plazo_preaviso_dias"}, kind: kindInt,
		assign: func(c *entity.Contract, v value) { n := v.num; c.EarlyTermNoticeDays = &n },
	},
	{
		name: "exclusividad_activo", aliases: []string{"exclusividad"}, kind: kindBool,
		assign: func(c *entity.Contract, v value) { c.Exclusivity = v.flag },
	},
	{
		name: "exclusividad_detalles", aliases: []string{"detalles_exclusividad"}, kind: kindString,
		assign: func(c *entity.Contract, v value) { c.ExclusivityDetail = v.str },
	},
	{
		name: "ley_aplicable", aliases: []string{"legislacion_aplicable", "ley_que_rige"}, kind: kindString,
		assign: func(c *entity.Contract, v value) { c.GoverningLaw = v.str },
	},
	{
		name: "domicilio_jurisdiccion", aliases: []string{"jurisdiccion", "domicilio_legal"}, kind: kindString,
		assign: func(c *entity.Contract, v value) { c.JurisdictionDomicile = v.str },
	},
	{
		name: "descripcion", kind: kindString,
		assign: func(c *entity.Contract, v value) { c.Description = v.str },
	},
}

// section wraps one JSON object with normalized key lookup.
type section struct {
	vals map[string]any
}

// asSection accepts an object, or a single-element array holding one
// (the extractor sometimes wraps sections in arrays).
func asSection(v any) (section, bool) {
	switch t := v.(type) {
	case map[string]any:
		return newSection(t), true
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				return newSection(m), true
			}
		}
	}
	return section{}, false
}

func newSection(m map[string]any) section {
	vals := make(map[string]any, len(m))
	for k, v := range m {
		vals[normKey(k)] = v
	}
	return section{vals: vals}
}

func (s section) get(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := s.vals[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// str resolves a field by its raw (un-normalized) names and renders it as a
// trimmed string, empty when absent.
func (s section) str(names ...string) string {
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = normKey(n)
	}
	v, ok := s.get(keys...)
	if !ok {
		return ""
	}
	return asString(v)
}

// asItems flattens a section value into a list of objects, accepting a bare
// object, a list of objects, or a map keyed by ordinal ("Representante1", ...).
func asItems(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		// a map of objects is a keyed collection ("Representante1", ...);
		// a map of scalars is a single item
		allObjects := len(t) > 0
		for _, inner := range t {
			if _, ok := inner.(map[string]any); !ok {
				allObjects = false
				break
			}
		}
		if !allObjects {
			return []map[string]any{t}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		nested := make([]map[string]any, 0, len(keys))
		for _, k := range keys {
			nested = append(nested, t[k].(map[string]any))
		}
		return nested
	case []any:
		items := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items
	default:
		return nil
	}
}
