// Package contact implements contact identity: attendee-string parsing,
// candidate merging, find-or-create sync batches, and the multi-email set
// with its single-primary invariant.
package contact

import "time"

// Contact is a person derived from meeting attendees or email participants.
type Contact struct {
	ID               string    `json:"id" db:"id"`
	FullName         string    `json:"full_name" db:"full_name"`
	FirstName        string    `json:"first_name,omitempty" db:"first_name"`
	LastName         string    `json:"last_name,omitempty" db:"last_name"`
	NormalizedName   string    `json:"normalized_name" db:"normalized_name"`
	Email            string    `json:"email,omitempty" db:"email"`
	PrimaryCompanyID string    `json:"primary_company_id,omitempty" db:"primary_company_id"`
	Title            string    `json:"title,omitempty" db:"title"`
	ContactType      string    `json:"contact_type,omitempty" db:"contact_type"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// EmailRow is one address in a contact's email set. At most one row per
// contact carries IsPrimary, and the contact's denormalized Email field
// always mirrors it.
type EmailRow struct {
	ID        string    `json:"id" db:"id"`
	ContactID string    `json:"contact_id" db:"contact_id"`
	Email     string    `json:"email" db:"email"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SyncStats summarizes one attendee sync batch.
type SyncStats struct {
	Candidates int `json:"candidates"`
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	Skipped    int `json:"skipped"`
	Invalid    int `json:"invalid"`
}

// Add accumulates another batch's stats.
func (s *SyncStats) Add(other SyncStats) {
	s.Candidates += other.Candidates
	s.Inserted += other.Inserted
	s.Updated += other.Updated
	s.Skipped += other.Skipped
	s.Invalid += other.Invalid
}
