package contact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealflow/internal/company"
	"github.com/sells-group/dealflow/internal/store"
)

func newTestSyncer(t *testing.T) (*Syncer, *SQLiteStore, *company.Resolver, *store.DB) {
	t.Helper()
	contacts, db := newTestContacts(t)
	resolver := company.NewResolver(company.NewSQLiteStore(db))
	return NewSyncer(db, contacts, resolver), contacts, resolver, db
}

// TestSyncAttendees_CreatesContacts verifies a fresh batch creates one contact
// per candidate with name, primary email, and inferred names for bare
// addresses.
func TestSyncAttendees_CreatesContacts(t *testing.T) {
	syncer, contacts, _, _ := newTestSyncer(t)
	ctx := context.Background()

	stats, err := syncer.SyncAttendees(ctx,
		[]string{"Jane Roe <jane@acme.com>", "bob.jones@other.org"},
		[]string{"jane@acme.com", "bob.jones@other.org"})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Candidates)
	assert.Equal(t, 2, stats.Inserted)
	assert.Zero(t, stats.Updated)

	jane, err := contacts.FindByEmail(ctx, "jane@acme.com")
	require.NoError(t, err)
	require.NotNil(t, jane)
	assert.Equal(t, "Jane Roe", jane.FullName)
	assert.Equal(t, "Jane", jane.FirstName)
	assert.Equal(t, "Roe", jane.LastName)
	assert.Equal(t, "jane@acme.com", jane.Email)

	bob, err := contacts.FindByEmail(ctx, "bob.jones@other.org")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, "Bob Jones", bob.FullName, "name inferred from address")
}

// TestSyncAttendees_Idempotent verifies re-running the same batch changes
// nothing.
func TestSyncAttendees_Idempotent(t *testing.T) {
	syncer, _, _, _ := newTestSyncer(t)
	ctx := context.Background()

	attendees := []string{"Jane Roe <jane@acme.com>", "bob@other.org"}
	emails := []string{"jane@acme.com", "bob@other.org"}

	first, err := syncer.SyncAttendees(ctx, attendees, emails)
	require.NoError(t, err)
	require.Equal(t, 2, first.Inserted)

	second, err := syncer.SyncAttendees(ctx, attendees, emails)
	require.NoError(t, err)
	assert.Zero(t, second.Inserted)
	assert.Zero(t, second.Updated)
	assert.Equal(t, 2, second.Skipped)
}

// TestSyncAttendees_ExplicitNamePromotes verifies an explicit display name
// replaces an inferred one, and a later inferred name never replaces the
// explicit one.
func TestSyncAttendees_ExplicitNamePromotes(t *testing.T) {
	syncer, contacts, _, _ := newTestSyncer(t)
	ctx := context.Background()

	// Bare address first: name inferred from local part.
	_, err := syncer.SyncAttendees(ctx, []string{"jroe@acme.com"}, []string{"jroe@acme.com"})
	require.NoError(t, err)
	c, err := contacts.FindByEmail(ctx, "jroe@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "Jroe", c.FullName)

	// Explicit name wins.
	stats, err := syncer.SyncAttendees(ctx,
		[]string{"Jane Roe <jroe@acme.com>"}, []string{"jroe@acme.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	c, err = contacts.FindByEmail(ctx, "jroe@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", c.FullName)

	// A later bare mention does not regress the explicit name.
	_, err = syncer.SyncAttendees(ctx, []string{"jroe@acme.com"}, []string{"jroe@acme.com"})
	require.NoError(t, err)
	c, err = contacts.FindByEmail(ctx, "jroe@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", c.FullName)
}

// TestSyncAttendees_AttachesCompanyByDomain verifies new contacts pick up a
// primary company resolved from their email domain.
func TestSyncAttendees_AttachesCompanyByDomain(t *testing.T) {
	syncer, contacts, resolver, _ := newTestSyncer(t)
	ctx := context.Background()

	acme, _, err := resolver.GetOrCreateByName(ctx, "Acme", company.CreateOptions{Domain: "acme.com"})
	require.NoError(t, err)

	_, err = syncer.SyncAttendees(ctx,
		[]string{"Jane Roe <jane@mail.acme.com>"}, []string{"jane@mail.acme.com"})
	require.NoError(t, err)

	c, err := contacts.FindByEmail(ctx, "jane@mail.acme.com")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, acme.ID, c.PrimaryCompanyID, "subdomain resolves to registrable domain")
}

// TestSyncAttendees_NewEmailJoinsExistingContact verifies a second address for
// a known contact joins the email set without stealing primary.
func TestSyncAttendees_NewEmailJoinsExistingContact(t *testing.T) {
	syncer, contacts, _, db := newTestSyncer(t)
	ctx := context.Background()

	_, err := syncer.SyncAttendees(ctx,
		[]string{"Jane Roe <jane@acme.com>"}, []string{"jane@acme.com"})
	require.NoError(t, err)

	jane, err := contacts.FindByEmail(ctx, "jane@acme.com")
	require.NoError(t, err)

	// Simulate the app recording a personal address for the same person.
	_, err = db.SQL().ExecContext(ctx, `
		INSERT INTO contact_emails (id, contact_id, email, is_primary)
		VALUES ('e2', ?, 'jane@personal.io', 0)`, jane.ID)
	require.NoError(t, err)

	stats, err := syncer.SyncAttendees(ctx,
		[]string{"Jane Roe <jane@personal.io>"}, []string{"jane@personal.io"})
	require.NoError(t, err)
	assert.Zero(t, stats.Inserted, "matched through the email set")

	same, err := contacts.FindByEmail(ctx, "jane@personal.io")
	require.NoError(t, err)
	require.NotNil(t, same)
	assert.Equal(t, jane.ID, same.ID)
	assert.Equal(t, "jane@acme.com", same.Email, "primary unchanged")
}

// TestSyncAttendees_InvalidEntries counts rejects without failing the batch.
func TestSyncAttendees_InvalidEntries(t *testing.T) {
	syncer, _, _, _ := newTestSyncer(t)

	stats, err := syncer.SyncAttendees(context.Background(),
		[]string{"Unknown", "Jane Roe <jane@acme.com>"}, []string{"", "jane@acme.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, 1, stats.Inserted)
	assert.Equal(t, 1, stats.Invalid)
}

// TestAutoLinkByDomain verifies contacts missing a company get linked once a
// matching company appears.
func TestAutoLinkByDomain(t *testing.T) {
	syncer, contacts, resolver, _ := newTestSyncer(t)
	ctx := context.Background()

	_, err := syncer.SyncAttendees(ctx,
		[]string{"Jane Roe <jane@acme.com>"}, []string{"jane@acme.com"})
	require.NoError(t, err)

	c, err := contacts.FindByEmail(ctx, "jane@acme.com")
	require.NoError(t, err)
	require.Empty(t, c.PrimaryCompanyID)

	acme, _, err := resolver.GetOrCreateByName(ctx, "Acme", company.CreateOptions{Domain: "acme.com"})
	require.NoError(t, err)

	linked, err := syncer.AutoLinkByDomain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, linked)

	c, err = contacts.FindByEmail(ctx, "jane@acme.com")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, c.PrimaryCompanyID)
}
