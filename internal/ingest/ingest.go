// Package ingest orchestrates the engine over raw meeting and email data:
// syncing contacts from attendee lists, linking meetings and messages to
// companies, and the full historical backfill.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealflow/internal/company"
	"github.com/sells-group/dealflow/internal/contact"
	"github.com/sells-group/dealflow/internal/link"
	"github.com/sells-group/dealflow/internal/normalize"
	"github.com/sells-group/dealflow/internal/store"
)

// Link confidences by provenance. Display names are stronger evidence than
// attendee email domains.
const (
	confidenceCompanyName    = 0.9
	confidenceAttendeeDomain = 0.6
)

// Meeting is one calendar meeting as supplied by the provider integration.
type Meeting struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Attendees      []string  `json:"attendees"`
	AttendeeEmails []string  `json:"attendee_emails"`
	Companies      []string  `json:"companies"`
	StartedAt      time.Time `json:"started_at"`
}

// Participant is one parsed email-message participant.
type Participant struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Message is one ingested email message.
type Message struct {
	ID           string        `json:"id"`
	Subject      string        `json:"subject"`
	Participants []Participant `json:"participants"`
	ReceivedAt   time.Time     `json:"received_at"`
}

// BackfillStats summarizes a full meeting backfill.
type BackfillStats struct {
	ScannedMeetings int `json:"scanned_meetings"`
	contact.SyncStats
}

// Ingestor wires the resolvers, syncer, and link maintainer together.
type Ingestor struct {
	db        *store.DB
	companies *company.Resolver
	syncer    *contact.Syncer
	contacts  *contact.SQLiteStore
	links     *link.Maintainer
}

// New creates an ingestor.
func New(db *store.DB, companies *company.Resolver, syncer *contact.Syncer, contacts *contact.SQLiteStore, links *link.Maintainer) *Ingestor {
	return &Ingestor{db: db, companies: companies, syncer: syncer, contacts: contacts, links: links}
}

// SaveMeeting stores or replaces a raw meeting row.
func (in *Ingestor) SaveMeeting(ctx context.Context, m Meeting) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	attendees, _ := json.Marshal(orEmpty(m.Attendees))
	emails, _ := json.Marshal(orEmpty(m.AttendeeEmails))
	companies, _ := json.Marshal(orEmpty(m.Companies))
	var startedAt any
	if !m.StartedAt.IsZero() {
		startedAt = m.StartedAt.UTC()
	}
	_, err := in.db.SQL().ExecContext(ctx, `
		INSERT INTO meetings (id, title, attendees, attendee_emails, companies, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			attendees = excluded.attendees,
			attendee_emails = excluded.attendee_emails,
			companies = excluded.companies,
			started_at = excluded.started_at`,
		m.ID, m.Title, string(attendees), string(emails), string(companies), startedAt)
	return eris.Wrapf(err, "ingest: save meeting %s", m.ID)
}

// IngestMeeting stores the meeting, syncs its attendees into contacts, and
// links it to the companies it mentions.
func (in *Ingestor) IngestMeeting(ctx context.Context, m Meeting) (contact.SyncStats, error) {
	if err := in.SaveMeeting(ctx, m); err != nil {
		return contact.SyncStats{}, err
	}
	stats, err := in.syncer.SyncAttendees(ctx, m.Attendees, m.AttendeeEmails)
	if err != nil {
		return stats, err
	}
	if err := in.linkMeetingCompanies(ctx, m); err != nil {
		return stats, err
	}
	return stats, nil
}

// SyncContactsFromMeetings re-runs attendee sync over every stored meeting.
// Idempotent; used to backfill after the engine's rules change.
func (in *Ingestor) SyncContactsFromMeetings(ctx context.Context) (BackfillStats, error) {
	rows, err := in.db.SQL().QueryContext(ctx,
		`SELECT id, title, attendees, attendee_emails, companies FROM meetings ORDER BY created_at, id`)
	if err != nil {
		return BackfillStats{}, eris.Wrap(err, "ingest: scan meetings")
	}
	defer rows.Close()

	var meetings []Meeting
	for rows.Next() {
		var m Meeting
		var attendees, emails, companies string
		if err := rows.Scan(&m.ID, &m.Title, &attendees, &emails, &companies); err != nil {
			return BackfillStats{}, eris.Wrap(err, "ingest: scan meeting row")
		}
		m.Attendees = decodeList(attendees)
		m.AttendeeEmails = decodeList(emails)
		m.Companies = decodeList(companies)
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return BackfillStats{}, eris.Wrap(err, "ingest: iterate meetings")
	}

	var stats BackfillStats
	for _, m := range meetings {
		stats.ScannedMeetings++
		batch, err := in.syncer.SyncAttendees(ctx, m.Attendees, m.AttendeeEmails)
		if err != nil {
			return stats, eris.Wrapf(err, "ingest: sync meeting %s", m.ID)
		}
		stats.Add(batch)
		if err := in.linkMeetingCompanies(ctx, m); err != nil {
			return stats, err
		}
	}

	zap.L().Info("ingest: meeting backfill complete",
		zap.Int("scanned", stats.ScannedMeetings),
		zap.Int("inserted", stats.Inserted),
		zap.Int("updated", stats.Updated),
	)
	return stats, nil
}

// linkMeetingCompanies links a meeting to companies named on it and to
// companies resolved from attendee email domains.
func (in *Ingestor) linkMeetingCompanies(ctx context.Context, m Meeting) error {
	for _, name := range m.Companies {
		if name == "" {
			continue
		}
		companyID, err := in.companies.ResolveID(ctx, name, "")
		if err != nil {
			return eris.Wrapf(err, "ingest: resolve company %q", name)
		}
		if companyID == "" {
			continue
		}
		if err := in.links.UpsertMeetingCompany(ctx, link.MeetingCompany{
			MeetingID:  m.ID,
			CompanyID:  companyID,
			Confidence: confidenceCompanyName,
			LinkedBy:   "company_name",
		}); err != nil {
			return err
		}
	}

	seen := make(map[string]bool)
	for _, raw := range m.AttendeeEmails {
		domain := normalize.EmailDomain(raw)
		if domain == "" || seen[domain] {
			continue
		}
		seen[domain] = true
		companyID, err := in.companies.ResolveID(ctx, "", domain)
		if err != nil {
			return eris.Wrapf(err, "ingest: resolve attendee domain %q", domain)
		}
		if companyID == "" {
			continue
		}
		if err := in.links.UpsertMeetingCompany(ctx, link.MeetingCompany{
			MeetingID:  m.ID,
			CompanyID:  companyID,
			Confidence: confidenceAttendeeDomain,
			LinkedBy:   "attendee_domain",
		}); err != nil {
			return err
		}
	}
	return nil
}

// IngestEmailMessage stores the message, resolves or creates contacts for its
// participants, and writes contact and company edges with the supplied
// confidence and reason tag.
func (in *Ingestor) IngestEmailMessage(ctx context.Context, msg Message, confidence float64, reason string) (contact.SyncStats, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	participants, _ := json.Marshal(msg.Participants)
	var receivedAt any
	if !msg.ReceivedAt.IsZero() {
		receivedAt = msg.ReceivedAt.UTC()
	}
	_, err := in.db.SQL().ExecContext(ctx, `
		INSERT INTO email_messages (id, subject, participants, received_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			subject = excluded.subject,
			participants = excluded.participants,
			received_at = excluded.received_at`,
		msg.ID, msg.Subject, string(participants), receivedAt)
	if err != nil {
		return contact.SyncStats{}, eris.Wrapf(err, "ingest: save message %s", msg.ID)
	}

	attendees := make([]string, 0, len(msg.Participants))
	emails := make([]string, 0, len(msg.Participants))
	for _, p := range msg.Participants {
		if p.DisplayName != "" {
			attendees = append(attendees, p.DisplayName+" <"+p.Email+">")
		} else {
			attendees = append(attendees, p.Email)
		}
		emails = append(emails, p.Email)
	}
	stats, err := in.syncer.SyncAttendees(ctx, attendees, emails)
	if err != nil {
		return stats, err
	}

	seenDomains := make(map[string]bool)
	for _, p := range msg.Participants {
		email, ok := normalize.Email(p.Email)
		if !ok {
			continue
		}
		c, err := in.contacts.FindByEmail(ctx, email)
		if err != nil {
			return stats, err
		}
		if c != nil {
			if err := in.links.UpsertEmailContact(ctx, link.EmailContact{
				MessageID:  msg.ID,
				ContactID:  c.ID,
				Confidence: confidence,
				LinkedBy:   p.Role,
			}); err != nil {
				return stats, err
			}
		}

		domain := normalize.EmailDomain(email)
		if domain == "" || seenDomains[domain] {
			continue
		}
		seenDomains[domain] = true
		companyID, err := in.companies.ResolveID(ctx, "", domain)
		if err != nil {
			return stats, eris.Wrapf(err, "ingest: resolve message domain %q", domain)
		}
		if companyID == "" {
			continue
		}
		if err := in.links.UpsertEmailCompany(ctx, link.EmailCompany{
			MessageID:  msg.ID,
			CompanyID:  companyID,
			Confidence: confidence,
			LinkedBy:   p.Role,
			Reason:     reason,
		}); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// decodeList parses a JSON string-array column. Malformed data degrades to an
// empty list, never an error.
func decodeList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		zap.L().Warn("ingest: malformed list column", zap.String("raw", raw))
		return nil
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
