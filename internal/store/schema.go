package store

const migration = `
CREATE TABLE IF NOT EXISTS companies (
	id                        TEXT PRIMARY KEY,
	canonical_name            TEXT NOT NULL,
	normalized_name           TEXT NOT NULL UNIQUE,
	primary_domain            TEXT,
	website_url               TEXT,
	entity_type               TEXT NOT NULL DEFAULT 'unknown',
	include_in_primary_view   INTEGER NOT NULL DEFAULT 0,
	classification_source     TEXT NOT NULL DEFAULT 'auto',
	classification_confidence REAL,
	stage                     TEXT,
	priority                  TEXT,
	valuation                 TEXT,
	round                     TEXT,
	pipeline_stage            TEXT,
	city                      TEXT,
	created_at                DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at                DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS company_aliases (
	company_id  TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	alias_value TEXT NOT NULL,
	alias_type  TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(company_id, alias_value, alias_type)
);

CREATE TABLE IF NOT EXISTS contacts (
	id                 TEXT PRIMARY KEY,
	full_name          TEXT NOT NULL DEFAULT '',
	first_name         TEXT NOT NULL DEFAULT '',
	last_name          TEXT NOT NULL DEFAULT '',
	normalized_name    TEXT NOT NULL DEFAULT '',
	email              TEXT,
	primary_company_id TEXT REFERENCES companies(id) ON DELETE SET NULL,
	title              TEXT NOT NULL DEFAULT '',
	contact_type       TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS contact_emails (
	id         TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	email      TEXT NOT NULL,
	is_primary INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(contact_id, email)
);

CREATE TABLE IF NOT EXISTS meetings (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	attendees       TEXT NOT NULL DEFAULT '[]',
	attendee_emails TEXT NOT NULL DEFAULT '[]',
	companies       TEXT NOT NULL DEFAULT '[]',
	started_at      DATETIME,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS email_messages (
	id           TEXT PRIMARY KEY,
	subject      TEXT NOT NULL DEFAULT '',
	participants TEXT NOT NULL DEFAULT '[]',
	received_at  DATETIME,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS meeting_company_links (
	meeting_id TEXT NOT NULL,
	company_id TEXT NOT NULL REFERENCES companies(id),
	confidence REAL NOT NULL DEFAULT 0,
	linked_by  TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(meeting_id, company_id)
);

CREATE TABLE IF NOT EXISTS email_company_links (
	message_id TEXT NOT NULL,
	company_id TEXT NOT NULL REFERENCES companies(id),
	confidence REAL NOT NULL DEFAULT 0,
	linked_by  TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(message_id, company_id)
);

CREATE TABLE IF NOT EXISTS email_contact_links (
	message_id TEXT NOT NULL,
	contact_id TEXT NOT NULL REFERENCES contacts(id),
	confidence REAL NOT NULL DEFAULT 0,
	linked_by  TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(message_id, contact_id)
);

CREATE TABLE IF NOT EXISTS company_contacts (
	company_id TEXT NOT NULL REFERENCES companies(id),
	contact_id TEXT NOT NULL REFERENCES contacts(id),
	is_primary INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(company_id, contact_id)
);

CREATE TABLE IF NOT EXISTS deals (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	name       TEXT NOT NULL DEFAULT '',
	stage      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	body       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS memos (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	body       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	messages   TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	kind       TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS company_industries (
	company_id TEXT NOT NULL REFERENCES companies(id),
	industry   TEXT NOT NULL,
	UNIQUE(company_id, industry)
);

CREATE TABLE IF NOT EXISTS company_themes (
	company_id TEXT NOT NULL REFERENCES companies(id),
	theme      TEXT NOT NULL,
	UNIQUE(company_id, theme)
);

CREATE TABLE IF NOT EXISTS company_theses (
	company_id TEXT NOT NULL REFERENCES companies(id),
	thesis     TEXT NOT NULL,
	UNIQUE(company_id, thesis)
);

CREATE INDEX IF NOT EXISTS idx_companies_primary_domain ON companies(primary_domain);
CREATE INDEX IF NOT EXISTS idx_company_aliases_value ON company_aliases(alias_value, alias_type);
CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
CREATE INDEX IF NOT EXISTS idx_contact_emails_email ON contact_emails(email);
CREATE INDEX IF NOT EXISTS idx_contacts_primary_company ON contacts(primary_company_id);
CREATE INDEX IF NOT EXISTS idx_meeting_company_links_company ON meeting_company_links(company_id);
CREATE INDEX IF NOT EXISTS idx_email_company_links_company ON email_company_links(company_id);
CREATE INDEX IF NOT EXISTS idx_email_contact_links_contact ON email_contact_links(contact_id);
`
