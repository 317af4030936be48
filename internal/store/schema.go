package store

// Portable DDL shared by Postgres and SQLite. Identifiers, dates and amounts
// are stored as text so both dialects share one scan path; the partial unique
// indexes encode the active-row uniqueness rules. The ent schemas under
// db/ent/schema are the versioned source of truth for the same model.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS contracts (
		id                     TEXT PRIMARY KEY,
		document_key           TEXT NOT NULL,
		source_document_name   TEXT NOT NULL,
		contract_type          TEXT NOT NULL,
		service_type           TEXT NOT NULL,
		client_party           TEXT,
		provider_party         TEXT,
		start_date             TEXT NOT NULL,
		end_date               TEXT NOT NULL,
		auto_renewal           BOOLEAN NOT NULL DEFAULT FALSE,
		total_amount           TEXT,
		payment_terms          TEXT,
		payment_term_days      INTEGER,
		early_termination      BOOLEAN NOT NULL DEFAULT FALSE,
		early_term_notice_days INTEGER,
		exclusivity            BOOLEAN NOT NULL DEFAULT FALSE,
		exclusivity_detail     TEXT,
		governing_law          TEXT,
		jurisdiction_domicile  TEXT,
		description            TEXT,
		internal_reference     TEXT,
		page_count             INTEGER NOT NULL DEFAULT 0,
		annexes                TEXT,
		page_observations      TEXT,
		token_count            INTEGER NOT NULL DEFAULT 0,
		word_count             INTEGER NOT NULL DEFAULT 0,
		annex_count            INTEGER NOT NULL DEFAULT 0,
		created_at             TEXT NOT NULL,
		updated_at             TEXT NOT NULL,
		is_active              BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS contracts_document_key_active
		ON contracts (document_key) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS parties (
		id          TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts (id),
		name        TEXT NOT NULL,
		rut         TEXT,
		domicile    TEXT,
		role        TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS parties_rut_active
		ON parties (rut) WHERE is_active AND rut IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS representatives (
		id          TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts (id),
		name        TEXT NOT NULL,
		national_id TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS representatives_identity_active
		ON representatives (national_id, contract_id) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS administrators (
		id          TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts (id),
		name        TEXT NOT NULL,
		phone       TEXT,
		email       TEXT NOT NULL,
		address     TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS administrators_email_active
		ON administrators (email) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS penalties (
		id          TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts (id),
		description TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS fines (
		id               TEXT PRIMARY KEY,
		contract_id      TEXT NOT NULL REFERENCES contracts (id),
		infraction_type  TEXT NOT NULL,
		implications     TEXT,
		amount_uf        TEXT,
		notice_deadline  TEXT,
		full_description TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL,
		is_active        BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS entities (
		id          TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts (id),
		type        TEXT NOT NULL,
		name        TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS entities_identity_active
		ON entities (contract_id, type, name) WHERE is_active`,

	`CREATE TABLE IF NOT EXISTS entity_attributes (
		id          TEXT PRIMARY KEY,
		entity_id   TEXT NOT NULL REFERENCES entities (id),
		contract_id TEXT NOT NULL REFERENCES contracts (id),
		name        TEXT NOT NULL,
		value       TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE
	)`,
}
