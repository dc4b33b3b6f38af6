package contact

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Primary-email invariant: at most one contact_emails row per contact carries
// is_primary, and contacts.email always mirrors it (null when the set is
// empty). Enforced transactionally around every email-set mutation; never
// left to caller discipline.

// attachEmail adds an address to a contact's email set. The address becomes
// primary when the contact has no primary yet, or when it already is the
// primary. Returns whether anything changed.
func attachEmail(ctx context.Context, q querier, contactID, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}

	var currentPrimary sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT email FROM contact_emails
		WHERE contact_id = ? AND is_primary = 1`, contactID).Scan(&currentPrimary)
	if err != nil && err != sql.ErrNoRows {
		return false, eris.Wrapf(err, "contact: current primary for %s", contactID)
	}
	hasPrimary := currentPrimary.Valid

	var existingID string
	var existingPrimary bool
	err = q.QueryRowContext(ctx, `
		SELECT id, is_primary FROM contact_emails
		WHERE contact_id = ? AND LOWER(email) = ?`, contactID, email).
		Scan(&existingID, &existingPrimary)
	exists := err == nil
	if err != nil && err != sql.ErrNoRows {
		return false, eris.Wrapf(err, "contact: lookup email %s", email)
	}

	makePrimary := !hasPrimary || strings.EqualFold(currentPrimary.String, email)

	if exists {
		if existingPrimary == makePrimary {
			return false, nil
		}
		if !makePrimary {
			return false, nil
		}
		return true, setPrimaryEmail(ctx, q, contactID, email)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO contact_emails (id, contact_id, email, is_primary)
		VALUES (?, ?, ?, 0)`,
		uuid.New().String(), contactID, email)
	if err != nil {
		return false, eris.Wrapf(err, "contact: insert email %s", email)
	}
	if makePrimary {
		if err := setPrimaryEmail(ctx, q, contactID, email); err != nil {
			return false, err
		}
	}
	return true, nil
}

// setPrimaryEmail flags one row primary, clears every other row, and syncs
// the denormalized contacts.email field.
func setPrimaryEmail(ctx context.Context, q querier, contactID, email string) error {
	if _, err := q.ExecContext(ctx, `
		UPDATE contact_emails SET is_primary = 0
		WHERE contact_id = ? AND LOWER(email) <> ?`, contactID, email); err != nil {
		return eris.Wrapf(err, "contact: clear primaries for %s", contactID)
	}
	if _, err := q.ExecContext(ctx, `
		UPDATE contact_emails SET is_primary = 1
		WHERE contact_id = ? AND LOWER(email) = ?`, contactID, email); err != nil {
		return eris.Wrapf(err, "contact: set primary %s", email)
	}
	if _, err := q.ExecContext(ctx, `
		UPDATE contacts SET email = ?, updated_at = datetime('now') WHERE id = ?`,
		email, contactID); err != nil {
		return eris.Wrapf(err, "contact: sync denormalized email for %s", contactID)
	}
	return nil
}

// AttachEmail is the standalone form of attachEmail, run in its own
// transaction.
func (s *SQLiteStore) AttachEmail(ctx context.Context, contactID, email string) (bool, error) {
	var changed bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		changed, err = attachEmail(ctx, tx, contactID, email)
		return err
	})
	return changed, err
}

// RemoveEmail deletes an address from a contact's email set. When the primary
// row goes away, the oldest remaining row (creation order, then email string)
// is promoted; with no rows left the denormalized field becomes null.
func (s *SQLiteStore) RemoveEmail(ctx context.Context, contactID, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var wasPrimary bool
		err := tx.QueryRowContext(ctx, `
			SELECT is_primary FROM contact_emails
			WHERE contact_id = ? AND LOWER(email) = ?`, contactID, email).Scan(&wasPrimary)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return eris.Wrapf(err, "contact: lookup email %s", email)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM contact_emails
			WHERE contact_id = ? AND LOWER(email) = ?`, contactID, email); err != nil {
			return eris.Wrapf(err, "contact: delete email %s", email)
		}
		if !wasPrimary {
			return nil
		}

		var next string
		err = tx.QueryRowContext(ctx, `
			SELECT email FROM contact_emails WHERE contact_id = ?
			ORDER BY created_at, email LIMIT 1`, contactID).Scan(&next)
		if err == sql.ErrNoRows {
			_, err = tx.ExecContext(ctx, `
				UPDATE contacts SET email = NULL, updated_at = datetime('now') WHERE id = ?`,
				contactID)
			return eris.Wrapf(err, "contact: clear denormalized email for %s", contactID)
		}
		if err != nil {
			return eris.Wrapf(err, "contact: find promotion candidate for %s", contactID)
		}
		return setPrimaryEmail(ctx, tx, contactID, next)
	})
}
