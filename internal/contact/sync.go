package contact

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealflow/internal/normalize"
	"github.com/sells-group/dealflow/internal/store"
)

// CompanyResolver is the slice of the company engine the syncer needs to
// attach contacts to organizations by email domain.
type CompanyResolver interface {
	ResolveID(ctx context.Context, name, domain string) (string, error)
}

// Syncer applies attendee batches to the contact store. One batch is one
// transaction; re-running the same batch is a no-op.
type Syncer struct {
	db        *store.DB
	contacts  *SQLiteStore
	companies CompanyResolver
}

// NewSyncer creates a contact syncer.
func NewSyncer(db *store.DB, contacts *SQLiteStore, companies CompanyResolver) *Syncer {
	return &Syncer{db: db, contacts: contacts, companies: companies}
}

// SyncAttendees resolves a meeting's attendee display strings and parallel
// email list into contacts: find-or-create by email, promote explicit names,
// backfill primary emails, and opportunistically attach a primary company by
// email domain.
func (s *Syncer) SyncAttendees(ctx context.Context, attendees, attendeeEmails []string) (SyncStats, error) {
	candidates, invalid := BuildCandidates(attendees, attendeeEmails)
	stats := SyncStats{Candidates: len(candidates), Invalid: invalid}
	if len(candidates) == 0 {
		return stats, nil
	}

	// Company resolution reads happen outside the write transaction; sync
	// never creates companies.
	companyByEmail := make(map[string]string, len(candidates))
	for _, cand := range candidates {
		domain := normalize.EmailDomain(cand.Email)
		if domain == "" {
			continue
		}
		companyID, err := s.companies.ResolveID(ctx, "", domain)
		if err != nil {
			return stats, eris.Wrap(err, "sync: resolve company for attendee domain")
		}
		if companyID != "" {
			companyByEmail[cand.Email] = companyID
		}
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, cand := range candidates {
			inserted, updated, err := s.applyCandidate(ctx, tx, cand, companyByEmail[cand.Email])
			if err != nil {
				return err
			}
			switch {
			case inserted:
				stats.Inserted++
			case updated:
				stats.Updated++
			default:
				stats.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	zap.L().Debug("sync: attendee batch applied",
		zap.Int("candidates", stats.Candidates),
		zap.Int("inserted", stats.Inserted),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("invalid", stats.Invalid),
	)
	return stats, nil
}

func (s *Syncer) applyCandidate(ctx context.Context, tx *sql.Tx, cand Candidate, companyID string) (inserted, updated bool, err error) {
	existing, err := findByEmail(ctx, tx, cand.Email)
	if err != nil {
		return false, false, err
	}

	if existing == nil {
		c := &Contact{
			FullName:         cand.DisplayName,
			Email:            cand.Email,
			PrimaryCompanyID: companyID,
		}
		if err := createContact(ctx, tx, c); err != nil {
			return false, false, err
		}
		if _, err := attachEmail(ctx, tx, c.ID, cand.Email); err != nil {
			return false, false, err
		}
		return true, false, nil
	}

	// Promote the candidate's name only when it is explicit and differs, or
	// the stored name is empty.
	if cand.DisplayName != "" {
		promote := (cand.Explicit && cand.DisplayName != existing.FullName) ||
			existing.FullName == "" || existing.NormalizedName == ""
		if promote && cand.DisplayName != existing.FullName {
			if err := updateName(ctx, tx, existing.ID, cand.DisplayName); err != nil {
				return false, false, err
			}
			updated = true
		}
	}

	if existing.Email == "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE contacts SET email = ?, updated_at = datetime('now') WHERE id = ?`,
			cand.Email, existing.ID); err != nil {
			return false, false, eris.Wrapf(err, "sync: backfill email for %s", existing.ID)
		}
		updated = true
	}

	changed, err := attachEmail(ctx, tx, existing.ID, cand.Email)
	if err != nil {
		return false, false, err
	}
	if changed {
		updated = true
	}

	return false, updated, nil
}

// AutoLinkByDomain revisits contacts that lack a primary company and retries
// resolution by email domain. Useful after new companies or aliases appear.
func (s *Syncer) AutoLinkByDomain(ctx context.Context) (int, error) {
	contacts, err := s.contacts.ListMissingCompany(ctx)
	if err != nil {
		return 0, err
	}

	linked := 0
	for _, c := range contacts {
		domain := normalize.EmailDomain(c.Email)
		if domain == "" {
			continue
		}
		companyID, err := s.companies.ResolveID(ctx, "", domain)
		if err != nil {
			return linked, eris.Wrapf(err, "sync: auto-link contact %s", c.ID)
		}
		if companyID == "" {
			continue
		}
		if err := s.contacts.SetPrimaryCompany(ctx, c.ID, companyID); err != nil {
			return linked, err
		}
		linked++
	}

	if linked > 0 {
		zap.L().Info("sync: auto-linked contacts by domain", zap.Int("linked", linked))
	}
	return linked, nil
}
