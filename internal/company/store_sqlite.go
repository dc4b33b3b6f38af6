package company

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dealflow/internal/normalize"
	"github.com/sells-group/dealflow/internal/store"
)

// SQLiteStore implements Store over the local SQLite database.
type SQLiteStore struct {
	db *store.DB
}

// NewSQLiteStore creates a SQLite-backed company store.
func NewSQLiteStore(db *store.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const companyColumns = `id, canonical_name, normalized_name, primary_domain, website_url,
	entity_type, include_in_primary_view, classification_source, classification_confidence,
	stage, priority, valuation, round, pipeline_stage, city, created_at, updated_at`

func companyDests(c *Company, domain, website, stage, priority, valuation, round, pipelineStage, city *sql.NullString, conf *sql.NullFloat64) []any {
	return []any{
		&c.ID, &c.CanonicalName, &c.NormalizedName, domain, website,
		&c.EntityType, &c.IncludeInPrimaryView, &c.ClassificationSource, conf,
		stage, priority, valuation, round, pipelineStage, city, &c.CreatedAt, &c.UpdatedAt,
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCompany(row scannable) (*Company, error) {
	c := &Company{}
	var domain, website, stage, priority, valuation, round, pipelineStage, city sql.NullString
	var conf sql.NullFloat64
	err := row.Scan(companyDests(c, &domain, &website, &stage, &priority, &valuation, &round, &pipelineStage, &city, &conf)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "company: scan")
	}
	c.PrimaryDomain = domain.String
	c.WebsiteURL = website.String
	c.Stage = stage.String
	c.Priority = priority.String
	c.Valuation = valuation.String
	c.Round = round.String
	c.PipelineStage = pipelineStage.String
	c.City = city.String
	if conf.Valid {
		v := conf.Float64
		c.ClassificationConfidence = &v
	}
	return c, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// GetCompany fetches a company by id. Returns nil, nil when missing.
func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*Company, error) {
	row := s.db.SQL().QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
	c, err := scanCompany(row)
	if err != nil {
		return nil, eris.Wrapf(err, "company: get %s", id)
	}
	return c, nil
}

// GetByNormalizedName fetches a company by its unique normalized name key.
func (s *SQLiteStore) GetByNormalizedName(ctx context.Context, key string) (*Company, error) {
	row := s.db.SQL().QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE normalized_name = ?`, key)
	c, err := scanCompany(row)
	if err != nil {
		return nil, eris.Wrapf(err, "company: get by normalized name %s", key)
	}
	return c, nil
}

// FindByDomainCandidates checks each candidate against stored primary domains
// (as stored and with a leading "www." stripped) and against domain aliases.
// Returns the first hit in candidate order.
func (s *SQLiteStore) FindByDomainCandidates(ctx context.Context, candidates []string) (*Company, error) {
	for _, cand := range candidates {
		keys := []string{cand}
		if stripped := strings.TrimPrefix(cand, "www."); stripped != cand {
			keys = append(keys, stripped)
		}
		for _, k := range keys {
			row := s.db.SQL().QueryRowContext(ctx,
				`SELECT `+companyColumns+` FROM companies WHERE primary_domain = ? LIMIT 1`, k)
			c, err := scanCompany(row)
			if err != nil {
				return nil, eris.Wrapf(err, "company: find by domain %s", k)
			}
			if c != nil {
				return c, nil
			}
		}

		var companyID string
		err := s.db.SQL().QueryRowContext(ctx,
			`SELECT company_id FROM company_aliases WHERE alias_value = ? AND alias_type = ? LIMIT 1`,
			cand, string(AliasDomain)).Scan(&companyID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, eris.Wrapf(err, "company: find domain alias %s", cand)
		}
		return s.GetCompany(ctx, companyID)
	}
	return nil, nil
}

// FindNameAlias looks up a name alias, comparing case- and trim-insensitively
// against the raw trimmed name. Returns the owning company id or "".
func (s *SQLiteStore) FindNameAlias(ctx context.Context, rawName string) (string, error) {
	var companyID string
	err := s.db.SQL().QueryRowContext(ctx,
		`SELECT company_id FROM company_aliases
		 WHERE alias_type = ? AND LOWER(TRIM(alias_value)) = LOWER(TRIM(?)) LIMIT 1`,
		string(AliasName), rawName).Scan(&companyID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "company: find name alias %s", rawName)
	}
	return companyID, nil
}

// UpsertByNormalizedName creates the company, or merges into the existing row
// with the same normalized name. A later writer only fills fields that are
// currently empty (domain, website, city, pipeline fields) and never mutates
// classification fields it did not set. Returns true when a row was created.
func (s *SQLiteStore) UpsertByNormalizedName(ctx context.Context, c *Company) (bool, error) {
	if c.NormalizedName == "" {
		return false, ErrEmptyName
	}
	created := false
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+companyColumns+` FROM companies WHERE normalized_name = ?`, c.NormalizedName)
		existing, err := scanCompany(row)
		if err != nil {
			return err
		}
		if existing == nil {
			if c.ID == "" {
				c.ID = uuid.New().String()
			}
			now := time.Now().UTC()
			c.CreatedAt = now
			c.UpdatedAt = now
			_, err := tx.ExecContext(ctx, `
				INSERT INTO companies (
					id, canonical_name, normalized_name, primary_domain, website_url,
					entity_type, include_in_primary_view, classification_source, classification_confidence,
					stage, priority, valuation, round, pipeline_stage, city, created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, c.CanonicalName, c.NormalizedName, nullStr(c.PrimaryDomain), nullStr(c.WebsiteURL),
				string(c.EntityType), c.IncludeInPrimaryView, c.ClassificationSource, c.ClassificationConfidence,
				nullStr(c.Stage), nullStr(c.Priority), nullStr(c.Valuation), nullStr(c.Round),
				nullStr(c.PipelineStage), nullStr(c.City), c.CreatedAt, c.UpdatedAt,
			)
			if err != nil {
				return eris.Wrap(err, "company: insert")
			}
			created = true
			return nil
		}

		merged := *existing
		merged.PrimaryDomain = store.CoalesceText(existing.PrimaryDomain, c.PrimaryDomain)
		merged.WebsiteURL = store.CoalesceText(existing.WebsiteURL, c.WebsiteURL)
		merged.City = store.CoalesceText(existing.City, c.City)
		merged.Stage = store.CoalesceText(existing.Stage, c.Stage)
		merged.Priority = store.CoalesceText(existing.Priority, c.Priority)
		merged.Valuation = store.CoalesceText(existing.Valuation, c.Valuation)
		merged.Round = store.CoalesceText(existing.Round, c.Round)
		merged.PipelineStage = store.CoalesceText(existing.PipelineStage, c.PipelineStage)
		merged.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx, `
			UPDATE companies SET
				primary_domain = ?, website_url = ?, city = ?,
				stage = ?, priority = ?, valuation = ?, round = ?, pipeline_stage = ?,
				updated_at = ?
			WHERE id = ?`,
			nullStr(merged.PrimaryDomain), nullStr(merged.WebsiteURL), nullStr(merged.City),
			nullStr(merged.Stage), nullStr(merged.Priority), nullStr(merged.Valuation),
			nullStr(merged.Round), nullStr(merged.PipelineStage),
			merged.UpdatedAt, existing.ID,
		)
		if err != nil {
			return eris.Wrapf(err, "company: coalesce update %s", existing.ID)
		}
		*c = merged
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// UpdateClassification writes the classification fields for a company.
func (s *SQLiteStore) UpdateClassification(ctx context.Context, id string, entityType EntityType, include bool, source string, confidence *float64) error {
	res, err := s.db.SQL().ExecContext(ctx, `
		UPDATE companies SET
			entity_type = ?, include_in_primary_view = ?,
			classification_source = ?, classification_confidence = ?,
			updated_at = datetime('now')
		WHERE id = ?`,
		string(entityType), include, source, confidence, id,
	)
	if err != nil {
		return eris.Wrapf(err, "company: update classification %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "company: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCompanies returns every company, oldest first.
func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.db.SQL().QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "company: list")
	}
	defer rows.Close()

	var out []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "company: list iterate")
}

// AddAlias appends to the alias index, normalizing per type and silently
// ignoring duplicates.
func (s *SQLiteStore) AddAlias(ctx context.Context, companyID, value string, typ AliasType) error {
	switch typ {
	case AliasDomain:
		value = normalize.Domain(value)
	default:
		value = strings.TrimSpace(value)
	}
	if value == "" {
		return nil
	}
	_, err := s.db.SQL().ExecContext(ctx,
		`INSERT OR IGNORE INTO company_aliases (company_id, alias_value, alias_type) VALUES (?, ?, ?)`,
		companyID, value, string(typ),
	)
	return eris.Wrapf(err, "company: add alias %s", value)
}

// Signals gathers the linked-entity counts the classifier scores on.
func (s *SQLiteStore) Signals(ctx context.Context, companyID string) (Signals, error) {
	var sig Signals
	var deals, notes, memos int
	var stage, pipelineStage sql.NullString
	err := s.db.SQL().QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM meeting_company_links WHERE company_id = c.id),
			(SELECT COUNT(*) FROM deals WHERE company_id = c.id),
			(SELECT COUNT(*) FROM notes WHERE company_id = c.id),
			(SELECT COUNT(*) FROM memos WHERE company_id = c.id),
			c.stage, c.pipeline_stage
		FROM companies c WHERE c.id = ?`, companyID).
		Scan(&sig.MeetingCount, &deals, &notes, &memos, &stage, &pipelineStage)
	if err == sql.ErrNoRows {
		return Signals{}, ErrNotFound
	}
	if err != nil {
		return Signals{}, eris.Wrapf(err, "company: signals %s", companyID)
	}
	sig.HasDeal = deals > 0
	sig.HasNotes = notes > 0
	sig.HasMemo = memos > 0
	sig.StagePresent = stage.String != "" || pipelineStage.String != ""
	return sig, nil
}
