package company

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealflow/internal/store"
)

func seedMergePair(t *testing.T) (*SQLiteStore, *store.DB, *Company, *Company) {
	t.Helper()
	s, db := newTestStore(t)
	ctx := context.Background()

	target := &Company{CanonicalName: "Acme", NormalizedName: "acme", PrimaryDomain: "acme.com"}
	_, err := s.UpsertByNormalizedName(ctx, target)
	require.NoError(t, err)

	source := &Company{CanonicalName: "Acme Inc", NormalizedName: "acme inc"}
	_, err = s.UpsertByNormalizedName(ctx, source)
	require.NoError(t, err)

	return s, db, target, source
}

// TestMerge_RelinksEverything verifies meetings, deals, aliases, and contacts
// referencing the source all point at the target afterward, and the source
// row is gone.
func TestMerge_RelinksEverything(t *testing.T) {
	s, db, target, source := seedMergePair(t)
	ctx := context.Background()

	_, err := db.SQL().ExecContext(ctx,
		`INSERT INTO meetings (id) VALUES ('m1'), ('m2')`)
	require.NoError(t, err)
	_, err = db.SQL().ExecContext(ctx, `
		INSERT INTO meeting_company_links (meeting_id, company_id, confidence, linked_by)
		VALUES ('m1', ?, 0.6, 'attendee_domain'), ('m2', ?, 0.9, 'company_name')`,
		source.ID, source.ID)
	require.NoError(t, err)
	_, err = db.SQL().ExecContext(ctx,
		`INSERT INTO deals (id, company_id, name) VALUES ('d1', ?, 'Seed')`, source.ID)
	require.NoError(t, err)
	require.NoError(t, s.AddAlias(ctx, source.ID, "Acme Incorporated", AliasName))
	_, err = db.SQL().ExecContext(ctx, `
		INSERT INTO contacts (id, full_name, primary_company_id)
		VALUES ('p1', 'Jane Roe', ?)`, source.ID)
	require.NoError(t, err)

	m := NewMerger(db)
	result, err := m.Merge(ctx, target.ID, source.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Relinked["meeting_company_links"])
	assert.Equal(t, 1, result.Relinked["deals"])
	assert.Equal(t, 1, result.Relinked["contacts"])

	var n int
	require.NoError(t, db.SQL().QueryRow(
		`SELECT COUNT(*) FROM meeting_company_links WHERE company_id = ?`, target.ID).Scan(&n))
	assert.Equal(t, 2, n)
	require.NoError(t, db.SQL().QueryRow(
		`SELECT COUNT(*) FROM companies WHERE id = ?`, source.ID).Scan(&n))
	assert.Zero(t, n, "source company deleted")

	// Historical spellings survive the merge and resolve to the target.
	id, err := s.FindNameAlias(ctx, "Acme Incorporated")
	require.NoError(t, err)
	assert.Equal(t, target.ID, id)

	var primaryCompany string
	require.NoError(t, db.SQL().QueryRow(
		`SELECT primary_company_id FROM contacts WHERE id = 'p1'`).Scan(&primaryCompany))
	assert.Equal(t, target.ID, primaryCompany)
}

// TestMerge_CollisionKeepsMaxConfidence verifies that when both sides link
// the same meeting, one edge survives carrying the higher confidence.
func TestMerge_CollisionKeepsMaxConfidence(t *testing.T) {
	_, db, target, source := seedMergePair(t)
	ctx := context.Background()

	_, err := db.SQL().ExecContext(ctx, `INSERT INTO meetings (id) VALUES ('m1')`)
	require.NoError(t, err)
	_, err = db.SQL().ExecContext(ctx, `
		INSERT INTO meeting_company_links (meeting_id, company_id, confidence, linked_by)
		VALUES ('m1', ?, 0.6, 'attendee_domain'), ('m1', ?, 0.9, 'company_name')`,
		target.ID, source.ID)
	require.NoError(t, err)

	m := NewMerger(db)
	_, err = m.Merge(ctx, target.ID, source.ID)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.SQL().QueryRow(
		`SELECT COUNT(*) FROM meeting_company_links WHERE meeting_id = 'm1'`).Scan(&n))
	assert.Equal(t, 1, n, "collision collapses to one edge")

	var confidence float64
	require.NoError(t, db.SQL().QueryRow(`
		SELECT confidence FROM meeting_company_links
		WHERE meeting_id = 'm1' AND company_id = ?`, target.ID).Scan(&confidence))
	assert.Equal(t, 0.9, confidence)
}

// TestMerge_CollisionKeepsTargetWhenHigher verifies the target's stronger
// edge is not overwritten by a weaker source edge.
func TestMerge_CollisionKeepsTargetWhenHigher(t *testing.T) {
	_, db, target, source := seedMergePair(t)
	ctx := context.Background()

	_, err := db.SQL().ExecContext(ctx, `INSERT INTO meetings (id) VALUES ('m1')`)
	require.NoError(t, err)
	_, err = db.SQL().ExecContext(ctx, `
		INSERT INTO meeting_company_links (meeting_id, company_id, confidence, linked_by)
		VALUES ('m1', ?, 0.9, 'company_name'), ('m1', ?, 0.6, 'attendee_domain')`,
		target.ID, source.ID)
	require.NoError(t, err)

	m := NewMerger(db)
	_, err = m.Merge(ctx, target.ID, source.ID)
	require.NoError(t, err)

	var confidence float64
	require.NoError(t, db.SQL().QueryRow(`
		SELECT confidence FROM meeting_company_links
		WHERE meeting_id = 'm1' AND company_id = ?`, target.ID).Scan(&confidence))
	assert.Equal(t, 0.9, confidence)
}

// TestMerge_SelfMerge rejects merging a company into itself.
func TestMerge_SelfMerge(t *testing.T) {
	_, db, target, _ := seedMergePair(t)

	m := NewMerger(db)
	_, err := m.Merge(context.Background(), target.ID, target.ID)
	require.ErrorIs(t, err, ErrSameCompany)
}

// TestMerge_RepeatFails verifies re-running the same merge surfaces not-found
// for the already-deleted source instead of silently succeeding.
func TestMerge_RepeatFails(t *testing.T) {
	_, db, target, source := seedMergePair(t)
	ctx := context.Background()

	m := NewMerger(db)
	_, err := m.Merge(ctx, target.ID, source.ID)
	require.NoError(t, err)

	_, err = m.Merge(ctx, target.ID, source.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestMerge_UnknownTarget verifies an unknown target aborts before any
// mutation.
func TestMerge_UnknownTarget(t *testing.T) {
	_, db, _, source := seedMergePair(t)
	ctx := context.Background()

	m := NewMerger(db)
	_, err := m.Merge(ctx, "missing", source.ID)
	require.ErrorIs(t, err, ErrNotFound)

	var n int
	require.NoError(t, db.SQL().QueryRow(
		`SELECT COUNT(*) FROM companies WHERE id = ?`, source.ID).Scan(&n))
	assert.Equal(t, 1, n, "source untouched")
}
