// Package link maintains relationship edges between meetings, email
// messages, companies, and contacts. Every upsert is idempotent; on conflict
// the stored confidence is replaced only when the new value is strictly
// greater.
package link

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealflow/internal/store"
)

// Maintainer writes link edges.
type Maintainer struct {
	db *store.DB
}

// NewMaintainer creates a link maintainer.
func NewMaintainer(db *store.DB) *Maintainer {
	return &Maintainer{db: db}
}

// MeetingCompany is a meeting-to-company edge.
type MeetingCompany struct {
	MeetingID  string  `json:"meeting_id" db:"meeting_id"`
	CompanyID  string  `json:"company_id" db:"company_id"`
	Confidence float64 `json:"confidence" db:"confidence"`
	LinkedBy   string  `json:"linked_by" db:"linked_by"`
}

// EmailCompany is an email-message-to-company edge.
type EmailCompany struct {
	MessageID  string  `json:"message_id" db:"message_id"`
	CompanyID  string  `json:"company_id" db:"company_id"`
	Confidence float64 `json:"confidence" db:"confidence"`
	LinkedBy   string  `json:"linked_by" db:"linked_by"`
	Reason     string  `json:"reason" db:"reason"`
}

// EmailContact is an email-message-to-contact edge.
type EmailContact struct {
	MessageID  string  `json:"message_id" db:"message_id"`
	ContactID  string  `json:"contact_id" db:"contact_id"`
	Confidence float64 `json:"confidence" db:"confidence"`
	LinkedBy   string  `json:"linked_by" db:"linked_by"`
}

// UpsertMeetingCompany writes a meeting-company edge, keeping the higher
// confidence on conflict.
func (m *Maintainer) UpsertMeetingCompany(ctx context.Context, l MeetingCompany) error {
	_, err := m.db.SQL().ExecContext(ctx, `
		INSERT INTO meeting_company_links (meeting_id, company_id, confidence, linked_by)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(meeting_id, company_id) DO UPDATE SET
			confidence = excluded.confidence,
			linked_by = excluded.linked_by
		WHERE excluded.confidence > meeting_company_links.confidence`,
		l.MeetingID, l.CompanyID, l.Confidence, l.LinkedBy)
	return eris.Wrap(err, "link: upsert meeting-company")
}

// UpsertEmailCompany writes an email-company edge, keeping the higher
// confidence on conflict.
func (m *Maintainer) UpsertEmailCompany(ctx context.Context, l EmailCompany) error {
	_, err := m.db.SQL().ExecContext(ctx, `
		INSERT INTO email_company_links (message_id, company_id, confidence, linked_by, reason)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(message_id, company_id) DO UPDATE SET
			confidence = excluded.confidence,
			linked_by = excluded.linked_by,
			reason = excluded.reason
		WHERE excluded.confidence > email_company_links.confidence`,
		l.MessageID, l.CompanyID, l.Confidence, l.LinkedBy, l.Reason)
	return eris.Wrap(err, "link: upsert email-company")
}

// UpsertEmailContact writes an email-contact edge, keeping the higher
// confidence on conflict.
func (m *Maintainer) UpsertEmailContact(ctx context.Context, l EmailContact) error {
	_, err := m.db.SQL().ExecContext(ctx, `
		INSERT INTO email_contact_links (message_id, contact_id, confidence, linked_by)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(message_id, contact_id) DO UPDATE SET
			confidence = excluded.confidence,
			linked_by = excluded.linked_by
		WHERE excluded.confidence > email_contact_links.confidence`,
		l.MessageID, l.ContactID, l.Confidence, l.LinkedBy)
	return eris.Wrap(err, "link: upsert email-contact")
}

// UpsertCompanyContact writes a company-contact membership edge. Idempotent;
// the primary flag is only ever raised, never cleared, by this path.
func (m *Maintainer) UpsertCompanyContact(ctx context.Context, companyID, contactID string, isPrimary bool) error {
	_, err := m.db.SQL().ExecContext(ctx, `
		INSERT INTO company_contacts (company_id, contact_id, is_primary)
		VALUES (?, ?, ?)
		ON CONFLICT(company_id, contact_id) DO UPDATE SET
			is_primary = excluded.is_primary
		WHERE excluded.is_primary AND NOT company_contacts.is_primary`,
		companyID, contactID, isPrimary)
	return eris.Wrap(err, "link: upsert company-contact")
}

// MeetingLinks returns the meeting-company edges for a company.
func (m *Maintainer) MeetingLinks(ctx context.Context, companyID string) ([]MeetingCompany, error) {
	rows, err := m.db.SQL().QueryContext(ctx, `
		SELECT meeting_id, company_id, confidence, linked_by
		FROM meeting_company_links WHERE company_id = ?
		ORDER BY meeting_id`, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "link: list meeting links")
	}
	defer rows.Close()

	var out []MeetingCompany
	for rows.Next() {
		var l MeetingCompany
		if err := rows.Scan(&l.MeetingID, &l.CompanyID, &l.Confidence, &l.LinkedBy); err != nil {
			return nil, eris.Wrap(err, "link: scan meeting link")
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "link: iterate meeting links")
}
