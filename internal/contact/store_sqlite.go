package contact

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dealflow/internal/normalize"
	"github.com/sells-group/dealflow/internal/store"
)

// SQLiteStore persists contacts and their email sets in the local SQLite
// database. Multi-step mutations run through tx-scoped helpers so sync
// batches stay atomic.
type SQLiteStore struct {
	db *store.DB
}

// NewSQLiteStore creates a SQLite-backed contact store.
func NewSQLiteStore(db *store.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// DB exposes the underlying handle for batch owners.
func (s *SQLiteStore) DB() *store.DB {
	return s.db
}

const contactColumns = `id, full_name, first_name, last_name, normalized_name,
	email, primary_company_id, title, contact_type, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (*Contact, error) {
	c := &Contact{}
	var email, primaryCompany sql.NullString
	err := row.Scan(&c.ID, &c.FullName, &c.FirstName, &c.LastName, &c.NormalizedName,
		&email, &primaryCompany, &c.Title, &c.ContactType, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "contact: scan")
	}
	c.Email = email.String
	c.PrimaryCompanyID = primaryCompany.String
	return c, nil
}

// GetContact fetches a contact by id. Returns nil, nil when missing.
func (s *SQLiteStore) GetContact(ctx context.Context, id string) (*Contact, error) {
	row := s.db.SQL().QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	c, err := scanContact(row)
	if err != nil {
		return nil, eris.Wrapf(err, "contact: get %s", id)
	}
	return c, nil
}

// FindByEmail finds a contact by primary email or by membership in its email
// set, case-insensitively.
func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (*Contact, error) {
	return findByEmail(ctx, s.db.SQL(), email)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func findByEmail(ctx context.Context, q querier, email string) (*Contact, error) {
	// Nothing enforces cross-contact address uniqueness; oldest contact wins
	// so repeated lookups stay deterministic.
	row := q.QueryRowContext(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE LOWER(email) = LOWER(?)
		   OR id IN (SELECT contact_id FROM contact_emails WHERE LOWER(email) = LOWER(?))
		ORDER BY created_at, id
		LIMIT 1`, email, email)
	c, err := scanContact(row)
	if err != nil {
		return nil, eris.Wrapf(err, "contact: find by email %s", email)
	}
	return c, nil
}

func createContact(ctx context.Context, q querier, c *Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.NormalizedName = normalize.PersonName(c.FullName)
	if c.FirstName == "" && c.LastName == "" {
		c.FirstName, c.LastName = SplitName(c.FullName)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO contacts (
			id, full_name, first_name, last_name, normalized_name,
			email, primary_company_id, title, contact_type, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FullName, c.FirstName, c.LastName, c.NormalizedName,
		nullStr(c.Email), nullStr(c.PrimaryCompanyID), c.Title, c.ContactType,
		c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrap(err, "contact: create")
}

func updateName(ctx context.Context, q querier, contactID, fullName string) error {
	first, last := SplitName(fullName)
	_, err := q.ExecContext(ctx, `
		UPDATE contacts SET
			full_name = ?, first_name = ?, last_name = ?, normalized_name = ?,
			updated_at = datetime('now')
		WHERE id = ?`,
		fullName, first, last, normalize.PersonName(fullName), contactID,
	)
	return eris.Wrapf(err, "contact: update name %s", contactID)
}

func setPrimaryCompany(ctx context.Context, q querier, contactID, companyID string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE contacts SET primary_company_id = ?, updated_at = datetime('now') WHERE id = ?`,
		companyID, contactID)
	return eris.Wrapf(err, "contact: set primary company %s", contactID)
}

// SetPrimaryCompany assigns the contact's primary company. Set-once callers
// check the current value first.
func (s *SQLiteStore) SetPrimaryCompany(ctx context.Context, contactID, companyID string) error {
	return setPrimaryCompany(ctx, s.db.SQL(), contactID, companyID)
}

// ListEmails returns a contact's email set, oldest first.
func (s *SQLiteStore) ListEmails(ctx context.Context, contactID string) ([]EmailRow, error) {
	rows, err := s.db.SQL().QueryContext(ctx, `
		SELECT id, contact_id, email, is_primary, created_at
		FROM contact_emails WHERE contact_id = ?
		ORDER BY created_at, email`, contactID)
	if err != nil {
		return nil, eris.Wrapf(err, "contact: list emails %s", contactID)
	}
	defer rows.Close()

	var out []EmailRow
	for rows.Next() {
		var e EmailRow
		if err := rows.Scan(&e.ID, &e.ContactID, &e.Email, &e.IsPrimary, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "contact: scan email row")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "contact: list emails iterate")
}

// ListMissingCompany returns contacts that have an email but no primary
// company, for the auto-link post-pass.
func (s *SQLiteStore) ListMissingCompany(ctx context.Context) ([]Contact, error) {
	rows, err := s.db.SQL().QueryContext(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE primary_company_id IS NULL AND email IS NOT NULL
		ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "contact: list missing company")
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "contact: list missing company iterate")
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
