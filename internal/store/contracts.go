package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/nvaldebenito/contratos-pipeline/internal/common"
	"github.com/nvaldebenito/contratos-pipeline/internal/entity"
)

const (
	dateFormat = "2006-01-02"
	tsFormat   = time.RFC3339Nano
)

// NormalizeKey canonicalizes a document identity key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Check is the deduplication gate: it reports whether processing for the
// given document key should proceed. A false result means an active contract
// already holds the key.
func (s *Store) Check(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT 1 FROM contracts WHERE document_key = ? AND is_active`),
		NormalizeKey(key)).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return true, nil
	case err != nil:
		return false, eris.Wrap(err, "checking document key")
	default:
		return false, nil
	}
}

// InsertGraph persists the whole record graph in one transaction and returns
// the contract identifier. A concurrent insert of the same document key
// surfaces as common.ErrDuplicateDocument; other uniqueness rules surface as
// *common.ConstraintViolation. Any error rolls the transaction back.
func (s *Store) InsertGraph(ctx context.Context, g *entity.ContractGraph) (uuid.UUID, error) {
	key := NormalizeKey(g.Contract.DocumentKey)
	if key == "" {
		return uuid.Nil, eris.New("empty document key")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, eris.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	// re-check inside the transaction; the partial unique index settles races
	var one int
	err = tx.QueryRowContext(ctx,
		s.rebind(`SELECT 1 FROM contracts WHERE document_key = ? AND is_active`), key).Scan(&one)
	if err == nil {
		return uuid.Nil, common.ErrDuplicateDocument
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, eris.Wrap(err, "re-checking document key")
	}

	now := time.Now().UTC().Format(tsFormat)
	c := &g.Contract
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	annexes, err := json.Marshal(c.Annexes)
	if err != nil {
		return uuid.Nil, eris.Wrap(err, "encoding annex list")
	}

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO contracts (
		id, document_key, source_document_name, contract_type, service_type,
		client_party, provider_party, start_date, end_date, auto_renewal,
		total_amount, payment_terms, payment_term_days, early_termination,
		early_term_notice_days, exclusivity, exclusivity_detail, governing_law,
		jurisdiction_domicile, description, internal_reference, page_count,
		annexes, page_observations, token_count, word_count, annex_count,
		created_at, updated_at, is_active
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		c.ID.String(), key, c.SourceDocumentName, c.ContractType, c.ServiceType,
		nullStr(c.ClientParty), nullStr(c.ProviderParty),
		c.StartDate.Format(dateFormat), c.EndDate.Format(dateFormat), c.AutoRenewal,
		nullDec(c.TotalAmount), nullStr(c.PaymentTerms), nullInt(c.PaymentTermDays),
		c.EarlyTermination, nullInt(c.EarlyTermNoticeDays),
		c.Exclusivity, nullStr(c.ExclusivityDetail), nullStr(c.GoverningLaw),
		nullStr(c.JurisdictionDomicile), nullStr(c.Description),
		nullStr(c.InternalReference), c.PageCount, string(annexes),
		nullStr(c.PageObservations), c.TokenCount, c.WordCount, c.AnnexCount,
		now, now, true)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, common.ErrDuplicateDocument
		}
		return uuid.Nil, eris.Wrap(err, "inserting contract")
	}

	for i := range g.Parties {
		p := &g.Parties[i]
		p.ID = uuid.New()
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO parties
			(id, contract_id, name, rut, domicile, role, created_at, updated_at, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			p.ID.String(), c.ID.String(), p.Name, nullStr(p.RUT),
			nullStr(p.Domicile), string(p.Role), now, now, true)
		if err != nil {
			if isUniqueViolation(err) {
				return uuid.Nil, &common.ConstraintViolation{Rule: "party_rut", Value: p.RUT, Cause: err}
			}
			return uuid.Nil, eris.Wrap(err, "inserting party")
		}
	}

	for i := range g.Representatives {
		r := &g.Representatives[i]
		r.ID = uuid.New()
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO representatives
			(id, contract_id, name, national_id, created_at, updated_at, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			r.ID.String(), c.ID.String(), r.Name, r.NationalID, now, now, true)
		if err != nil {
			if isUniqueViolation(err) {
				return uuid.Nil, &common.ConstraintViolation{Rule: "representative_identity", Value: r.NationalID, Cause: err}
			}
			return uuid.Nil, eris.Wrap(err, "inserting representative")
		}
	}

	for i := range g.Administrators {
		a := &g.Administrators[i]
		a.ID = uuid.New()
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO administrators
			(id, contract_id, name, phone, email, address, created_at, updated_at, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			a.ID.String(), c.ID.String(), a.Name, nullStr(a.Phone), a.Email,
			nullStr(a.Address), now, now, true)
		if err != nil {
			if isUniqueViolation(err) {
				return uuid.Nil, &common.ConstraintViolation{Rule: "administrator_email", Value: a.Email, Cause: err}
			}
			return uuid.Nil, eris.Wrap(err, "inserting administrator")
		}
	}

	for i := range g.Penalties {
		p := &g.Penalties[i]
		p.ID = uuid.New()
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO penalties
			(id, contract_id, description, created_at, updated_at, is_active)
			VALUES (?, ?, ?, ?, ?, ?)`),
			p.ID.String(), c.ID.String(), p.Description, now, now, true)
		if err != nil {
			return uuid.Nil, eris.Wrap(err, "inserting penalty")
		}
	}

	for i := range g.Fines {
		f := &g.Fines[i]
		f.ID = uuid.New()
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO fines
			(id, contract_id, infraction_type, implications, amount_uf,
			 notice_deadline, full_description, created_at, updated_at, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			f.ID.String(), c.ID.String(), f.InfractionType, nullStr(f.Implications),
			nullDec(f.AmountUF), nullStr(f.NoticeDeadline), nullStr(f.FullDescription),
			now, now, true)
		if err != nil {
			return uuid.Nil, eris.Wrap(err, "inserting fine")
		}
	}

	for i := range g.Entities {
		e := &g.Entities[i]
		e.ID = uuid.New()
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO entities
			(id, contract_id, type, name, created_at, updated_at, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			e.ID.String(), c.ID.String(), e.Type, e.Name, now, now, true)
		if err != nil {
			if isUniqueViolation(err) {
				return uuid.Nil, &common.ConstraintViolation{Rule: "entity_identity", Value: e.Type + "/" + e.Name, Cause: err}
			}
			return uuid.Nil, eris.Wrap(err, "inserting entity")
		}
		for j := range e.Attributes {
			attr := &e.Attributes[j]
			attr.ID = uuid.New()
			_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO entity_attributes
				(id, entity_id, contract_id, name, value, created_at, updated_at, is_active)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
				attr.ID.String(), e.ID.String(), c.ID.String(), attr.Name, attr.Value,
				now, now, true)
			if err != nil {
				return uuid.Nil, eris.Wrap(err, "inserting entity attribute")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, common.ErrDuplicateDocument
		}
		return uuid.Nil, eris.Wrap(err, "committing record graph")
	}

	s.logger.Info("contract persisted",
		"contract_id", c.ID, "document_key", key,
		"parties", len(g.Parties), "fines", len(g.Fines), "entities", len(g.Entities))
	return c.ID, nil
}

// Deactivate performs a logical delete of a contract and every child row.
func (s *Store) Deactivate(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(tsFormat)
	res, err := tx.ExecContext(ctx,
		s.rebind(`UPDATE contracts SET is_active = ?, updated_at = ? WHERE id = ? AND is_active`),
		false, now, id.String())
	if err != nil {
		return eris.Wrap(err, "deactivating contract")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("no active contract with id %s", id)
	}
	for _, table := range []string{
		"parties", "representatives", "administrators", "penalties",
		"fines", "entities", "entity_attributes",
	} {
		_, err = tx.ExecContext(ctx,
			s.rebind(`UPDATE `+table+` SET is_active = ?, updated_at = ? WHERE contract_id = ?`),
			false, now, id.String())
		if err != nil {
			return eris.Wrapf(err, "deactivating %s", table)
		}
	}
	return eris.Wrap(tx.Commit(), "committing deactivation")
}

// ListActive returns every active contract ordered by creation time.
func (s *Store) ListActive(ctx context.Context) ([]entity.Contract, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT
		id, document_key, source_document_name, contract_type, service_type,
		client_party, provider_party, start_date, end_date, auto_renewal,
		total_amount, payment_terms, payment_term_days, early_termination,
		early_term_notice_days, exclusivity, exclusivity_detail, governing_law,
		jurisdiction_domicile, description, internal_reference, page_count,
		annexes, page_observations, token_count, word_count, annex_count,
		created_at, updated_at, is_active
		FROM contracts WHERE is_active ORDER BY created_at, id`))
	if err != nil {
		return nil, eris.Wrap(err, "listing contracts")
	}
	defer rows.Close()

	var out []entity.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "iterating contracts")
}

// LoadGraph loads an active contract and all its active children.
func (s *Store) LoadGraph(ctx context.Context, id uuid.UUID) (*entity.ContractGraph, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT
		id, document_key, source_document_name, contract_type, service_type,
		client_party, provider_party, start_date, end_date, auto_renewal,
		total_amount, payment_terms, payment_term_days, early_termination,
		early_term_notice_days, exclusivity, exclusivity_detail, governing_law,
		jurisdiction_domicile, description, internal_reference, page_count,
		annexes, page_observations, token_count, word_count, annex_count,
		created_at, updated_at, is_active
		FROM contracts WHERE id = ? AND is_active`), id.String())
	c, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Errorf("no active contract with id %s", id)
	}
	if err != nil {
		return nil, err
	}

	g := &entity.ContractGraph{Contract: c}
	cid := id.String()

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, name, rut, domicile, role FROM parties
		 WHERE contract_id = ? AND is_active ORDER BY role, name`), cid)
	if err != nil {
		return nil, eris.Wrap(err, "loading parties")
	}
	for rows.Next() {
		var p entity.Party
		var pid string
		var rut, dom sql.NullString
		var role string
		if err := rows.Scan(&pid, &p.Name, &rut, &dom, &role); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "scanning party")
		}
		p.ID = uuid.MustParse(pid)
		p.RUT = rut.String
		p.Domicile = dom.String
		p.Role = entity.PartyRole(role)
		g.Parties = append(g.Parties, p)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, s.rebind(
		`SELECT id, name, national_id FROM representatives
		 WHERE contract_id = ? AND is_active ORDER BY name`), cid)
	if err != nil {
		return nil, eris.Wrap(err, "loading representatives")
	}
	for rows.Next() {
		var r entity.Representative
		var rid string
		if err := rows.Scan(&rid, &r.Name, &r.NationalID); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "scanning representative")
		}
		r.ID = uuid.MustParse(rid)
		g.Representatives = append(g.Representatives, r)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, s.rebind(
		`SELECT id, name, phone, email, address FROM administrators
		 WHERE contract_id = ? AND is_active ORDER BY email`), cid)
	if err != nil {
		return nil, eris.Wrap(err, "loading administrators")
	}
	for rows.Next() {
		var a entity.Administrator
		var aid string
		var phone, addr sql.NullString
		if err := rows.Scan(&aid, &a.Name, &phone, &a.Email, &addr); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "scanning administrator")
		}
		a.ID = uuid.MustParse(aid)
		a.Phone = phone.String
		a.Address = addr.String
		g.Administrators = append(g.Administrators, a)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, s.rebind(
		`SELECT id, description FROM penalties
		 WHERE contract_id = ? AND is_active ORDER BY id`), cid)
	if err != nil {
		return nil, eris.Wrap(err, "loading penalties")
	}
	for rows.Next() {
		var p entity.Penalty
		var pid string
		if err := rows.Scan(&pid, &p.Description); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "scanning penalty")
		}
		p.ID = uuid.MustParse(pid)
		g.Penalties = append(g.Penalties, p)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, s.rebind(
		`SELECT id, infraction_type, implications, amount_uf, notice_deadline, full_description
		 FROM fines WHERE contract_id = ? AND is_active ORDER BY infraction_type`), cid)
	if err != nil {
		return nil, eris.Wrap(err, "loading fines")
	}
	for rows.Next() {
		var f entity.Fine
		var fid string
		var impl, amount, deadline, full sql.NullString
		if err := rows.Scan(&fid, &f.InfractionType, &impl, &amount, &deadline, &full); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "scanning fine")
		}
		f.ID = uuid.MustParse(fid)
		f.Implications = impl.String
		f.NoticeDeadline = deadline.String
		f.FullDescription = full.String
		if amount.Valid {
			d, err := decimal.NewFromString(amount.String)
			if err != nil {
				rows.Close()
				return nil, eris.Wrapf(err, "decoding fine amount %q", amount.String)
			}
			f.AmountUF = &d
		}
		g.Fines = append(g.Fines, f)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, s.rebind(
		`SELECT id, type, name FROM entities
		 WHERE contract_id = ? AND is_active ORDER BY type, name`), cid)
	if err != nil {
		return nil, eris.Wrap(err, "loading entities")
	}
	for rows.Next() {
		var e entity.ExtractedEntity
		var eid string
		if err := rows.Scan(&eid, &e.Type, &e.Name); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "scanning entity")
		}
		e.ID = uuid.MustParse(eid)
		g.Entities = append(g.Entities, e)
	}
	rows.Close()

	for i := range g.Entities {
		e := &g.Entities[i]
		rows, err = s.db.QueryContext(ctx, s.rebind(
			`SELECT id, name, value FROM entity_attributes
			 WHERE entity_id = ? AND is_active ORDER BY name`), e.ID.String())
		if err != nil {
			return nil, eris.Wrap(err, "loading entity attributes")
		}
		for rows.Next() {
			var a entity.EntityAttribute
			var aid string
			if err := rows.Scan(&aid, &a.Name, &a.Value); err != nil {
				rows.Close()
				return nil, eris.Wrap(err, "scanning entity attribute")
			}
			a.ID = uuid.MustParse(aid)
			e.Attributes = append(e.Attributes, a)
		}
		rows.Close()
	}

	return g, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (entity.Contract, error) {
	var c entity.Contract
	var (
		id, start, end, created, updated             string
		clientP, providerP, amount, terms            sql.NullString
		exclDetail, law, juris, desc, ref, annexes   sql.NullString
		pageObs                                      sql.NullString
		termDays, noticeDays                         sql.NullInt64
	)
	err := row.Scan(&id, &c.DocumentKey, &c.SourceDocumentName, &c.ContractType,
		&c.ServiceType, &clientP, &providerP, &start, &end, &c.AutoRenewal,
		&amount, &terms, &termDays, &c.EarlyTermination, &noticeDays,
		&c.Exclusivity, &exclDetail, &law, &juris, &desc, &ref, &c.PageCount,
		&annexes, &pageObs, &c.TokenCount, &c.WordCount, &c.AnnexCount,
		&created, &updated, &c.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, eris.Wrap(err, "scanning contract")
	}

	c.ID = uuid.MustParse(id)
	c.ClientParty = clientP.String
	c.ProviderParty = providerP.String
	c.PaymentTerms = terms.String
	c.ExclusivityDetail = exclDetail.String
	c.GoverningLaw = law.String
	c.JurisdictionDomicile = juris.String
	c.Description = desc.String
	c.InternalReference = ref.String
	c.PageObservations = pageObs.String

	if c.StartDate, err = time.ParseInLocation(dateFormat, start, time.UTC); err != nil {
		return c, eris.Wrapf(err, "decoding start date %q", start)
	}
	if c.EndDate, err = time.ParseInLocation(dateFormat, end, time.UTC); err != nil {
		return c, eris.Wrapf(err, "decoding end date %q", end)
	}
	if c.CreatedAt, err = time.Parse(tsFormat, created); err != nil {
		return c, eris.Wrapf(err, "decoding created_at %q", created)
	}
	if c.UpdatedAt, err = time.Parse(tsFormat, updated); err != nil {
		return c, eris.Wrapf(err, "decoding updated_at %q", updated)
	}
	if amount.Valid {
		d, err := decimal.NewFromString(amount.String)
		if err != nil {
			return c, eris.Wrapf(err, "decoding total amount %q", amount.String)
		}
		c.TotalAmount = &d
	}
	if termDays.Valid {
		n := int(termDays.Int64)
		c.PaymentTermDays = &n
	}
	if noticeDays.Valid {
		n := int(noticeDays.Int64)
		c.EarlyTermNoticeDays = &n
	}
	if annexes.Valid && annexes.String != "" && annexes.String != "null" {
		if err := json.Unmarshal([]byte(annexes.String), &c.Annexes); err != nil {
			return c, eris.Wrap(err, "decoding annex list")
		}
	}
	return c, nil
}

// isUniqueViolation recognizes unique-index violations from both dialects.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullDec(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
