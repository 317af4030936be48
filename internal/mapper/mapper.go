// Package mapper turns the loosely structured semantic-extraction JSON into
// the fixed relational record graph. All tolerance for upstream drift lives
// here: key-name normalization, synonym matching, type coercion, and
// per-collection deduplication.
package mapper

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nvaldebenito/contratos-pipeline/internal/common"
	"github.com/nvaldebenito/contratos-pipeline/internal/entity"
)

type Mapper struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{logger: logger}
}

// Map builds a validated ContractGraph from the extraction document and the
// document's provenance metadata. A missing or unparsable required field
// fails the whole mapping with a ValidationError; a bad element inside a
// child collection only drops that element and records a warning.
func (m *Mapper) Map(doc map[string]any, meta entity.DocumentMetadata) (*entity.ContractGraph, error) {
	top := newSection(doc)

	raw, ok := top.get(normKey("Contrato"))
	if !ok {
		return nil, common.NewValidationError("Contrato", "section missing")
	}
	sec, ok := asSection(raw)
	if !ok {
		return nil, common.NewValidationError("Contrato", "section is not an object")
	}

	graph := &entity.ContractGraph{}
	c := &graph.Contract

	for _, spec := range contractFields {
		rawVal, found := sec.get(spec.keys()...)
		if !found || (spec.kind == kindString && asString(rawVal) == "") {
			if spec.required {
				return nil, common.NewValidationError(spec.name, "required field missing")
			}
			continue
		}
		val, err := coerce(spec.kind, rawVal)
		if err != nil {
			if spec.required {
				return nil, common.NewValidationError(spec.name, err.Error())
			}
			graph.Warnings = append(graph.Warnings, fmt.Sprintf("%s: %v", spec.name, err))
			continue
		}
		spec.assign(c, val)
	}

	if c.EndDate.Before(c.StartDate) {
		return nil, common.NewValidationError("fecha_termino", "end date before start date")
	}

	c.SourceDocumentName = meta.SourceDocumentName
	c.PageCount = meta.PageCount
	c.Annexes = meta.Annexes
	c.AnnexCount = len(meta.Annexes)
	c.InternalReference = meta.InternalReference
	c.PageObservations = meta.PageObservations
	c.TokenCount = meta.TokenCount
	c.WordCount = meta.WordCount
	c.IsActive = true

	m.mapParties(graph, top)
	m.mapRepresentatives(graph, top)
	m.mapAdministrators(graph, top)
	m.mapPenalties(graph, top)
	m.mapFines(graph, top)
	m.mapEntities(graph, top)

	if len(graph.Warnings) > 0 {
		m.logger.Warn("mapping produced warnings",
			"document", meta.SourceDocumentName, "warnings", len(graph.Warnings))
	}
	return graph, nil
}

func coerce(kind fieldKind, raw any) (value, error) {
	switch kind {
	case kindString:
		return value{str: asString(raw)}, nil
	case kindDate:
		t, err := parseDate(asString(raw))
		if err != nil {
			return value{}, err
		}
		return value{date: t}, nil
	case kindDecimal:
		d, err := parseDecimal(raw)
		if err != nil {
			return value{}, err
		}
		return value{dec: d}, nil
	case kindBool:
		b, err := parseBool(raw)
		if err != nil {
			return value{}, err
		}
		return value{flag: b}, nil
	case kindInt:
		n, err := parseInt(raw)
		if err != nil {
			return value{}, err
		}
		return value{num: n}, nil
	}
	return value{}, fmt.Errorf("unknown field kind %d", kind)
}

// mapParties merges the CompaniaInfo (client) and ProveedoresInfo (provider)
// sections into a single party collection.
func (m *Mapper) mapParties(g *entity.ContractGraph, top section) {
	add := func(items []map[string]any, role entity.PartyRole, label string) {
		for i, item := range items {
			s := newSection(item)
			name := s.str("nombre", "razon_social")
			rut := s.str("rut")
			if name == "" && rut == "" {
				g.Warnings = append(g.Warnings, fmt.Sprintf("%s[%d]: missing name and RUT", label, i))
				continue
			}
			g.Parties = append(g.Parties, entity.Party{
				Name:     name,
				RUT:      normalizeRUT(rut),
				Domicile: s.str("domicilio", "direccion"),
				Role:     role,
			})
		}
	}
	if raw, ok := top.get(normKey("CompaniaInfo")); ok {
		add(asItems(raw), entity.PartyRoleClient, "CompaniaInfo")
	}
	if raw, ok := top.get(normKey("ProveedoresInfo")); ok {
		add(asItems(raw), entity.PartyRoleProvider, "ProveedoresInfo")
	}
}

func (m *Mapper) mapRepresentatives(g *entity.ContractGraph, top section) {
	raw, ok := top.get(normKey("Representantes"))
	if !ok {
		return
	}
	for i, item := range asItems(raw) {
		s := newSection(item)
		name := s.str("nombre")
		cedula := s.str("cedula_identidad", "cedula_de_identidad", "cedula")
		if name == "" || cedula == "" {
			g.Warnings = append(g.Warnings, fmt.Sprintf("Representantes[%d]: missing name or identity number", i))
			continue
		}
		g.Representatives = append(g.Representatives, entity.Representative{
			Name:       name,
			NationalID: cedula,
		})
	}
}

func (m *Mapper) mapAdministrators(g *entity.ContractGraph, top section) {
	raw, ok := top.get(normKey("Administradores"), normKey("AdministradoresContrato"))
	if !ok {
		return
	}
	for i, item := range asItems(raw) {
		s := newSection(item)
		name := s.str("nombre")
		email := s.str("email", "correo", "correo_electronico")
		if name == "" || email == "" {
			g.Warnings = append(g.Warnings, fmt.Sprintf("Administradores[%d]: missing name or email", i))
			continue
		}
		g.Administrators = append(g.Administrators, entity.Administrator{
			Name:    name,
			Phone:   s.str("telefono", "fono"),
			Email:   strings.ToLower(email),
			Address: s.str("direccion", "domicilio"),
		})
	}
}

// mapPenalties accepts either a list of strings or a list of objects with a
// descripcion field.
func (m *Mapper) mapPenalties(g *entity.ContractGraph, top section) {
	raw, ok := top.get(normKey("Penalidades"))
	if !ok {
		return
	}
	items, isList := raw.([]any)
	if !isList {
		items = []any{raw}
	}
	for i, item := range items {
		var desc string
		switch t := item.(type) {
		case string:
			desc = strings.TrimSpace(t)
		case map[string]any:
			desc = newSection(t).str("descripcion", "detalle", "penalidad")
		}
		if desc == "" {
			g.Warnings = append(g.Warnings, fmt.Sprintf("Penalidades[%d]: empty description", i))
			continue
		}
		g.Penalties = append(g.Penalties, entity.Penalty{Description: desc})
	}
}

func (m *Mapper) mapFines(g *entity.ContractGraph, top section) {
	raw, ok := top.get(normKey("Multas"), normKey("MultasAsociadas"))
	if !ok {
		return
	}
	for i, item := range asItems(raw) {
		s := newSection(item)
		infraction := s.str("tipo_incumplimiento", "tipo_de_incumplimiento", "tipo_infraccion")
		if infraction == "" {
			g.Warnings = append(g.Warnings, fmt.Sprintf("Multas[%d]: missing infraction type", i))
			continue
		}
		fine := entity.Fine{
			InfractionType:  infraction,
			Implications:    s.str("implicancias"),
			NoticeDeadline:  s.str("plazo_constancia", "plazo_para_la_constancia"),
			FullDescription: s.str("descripcion_completa"),
		}
		if amt, found := s.get(normKey("monto_multa_uf"), normKey("monto_de_la_multa_en_uf")); found {
			d, err := parseDecimal(amt)
			if err != nil {
				g.Warnings = append(g.Warnings, fmt.Sprintf("Multas[%d]: monto_multa_uf: %v", i, err))
			} else {
				fine.AmountUF = &d
			}
		}
		g.Fines = append(g.Fines, fine)
	}
}

// mapEntities collapses duplicate (type, name) pairs into one entity and
// keeps only the last-seen value for repeated attribute names.
func (m *Mapper) mapEntities(g *entity.ContractGraph, top section) {
	raw, ok := top.get(normKey("Entidades"), normKey("EntidadesList"))
	if !ok {
		return
	}
	index := make(map[string]int)
	for i, item := range asItems(raw) {
		s := newSection(item)
		typ := s.str("tipo", "tipo_entidad")
		name := s.str("nombre", "valor")
		if typ == "" && name == "" {
			g.Warnings = append(g.Warnings, fmt.Sprintf("Entidades[%d]: missing type and name", i))
			continue
		}
		key := normKey(typ) + "\x00" + normKey(name)
		pos, seen := index[key]
		if !seen {
			g.Entities = append(g.Entities, entity.ExtractedEntity{Type: typ, Name: name})
			pos = len(g.Entities) - 1
			index[key] = pos
		}
		if attrs, found := s.get(normKey("atributos"), normKey("attributes")); found {
			if attrMap, isMap := attrs.(map[string]any); isMap {
				mergeAttributes(&g.Entities[pos], attrMap)
			}
		}
	}
}

func mergeAttributes(e *entity.ExtractedEntity, attrs map[string]any) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		val := asString(attrs[k])
		if val == "" {
			continue
		}
		nk := normKey(k)
		replaced := false
		for i := range e.Attributes {
			if normKey(e.Attributes[i].Name) == nk {
				e.Attributes[i].Name = k
				e.Attributes[i].Value = val
				replaced = true
				break
			}
		}
		if !replaced {
			e.Attributes = append(e.Attributes, entity.EntityAttribute{Name: k, Value: val})
		}
	}
}

// normalizeRUT strips dots and uppercases the verifier digit so equal RUTs
// compare equal regardless of formatting.
func normalizeRUT(rut string) string {
	rut = strings.ToUpper(strings.TrimSpace(rut))
	return strings.ReplaceAll(rut, ".", "")
}
