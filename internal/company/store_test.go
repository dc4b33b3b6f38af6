package company

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealflow/internal/store"
)

func newTestStore(t *testing.T) (*SQLiteStore, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	return NewSQLiteStore(db), db
}

// TestUpsertByNormalizedName_Create verifies a fresh upsert inserts and fills
// the id and timestamps.
func TestUpsertByNormalizedName_Create(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	c := &Company{
		CanonicalName:  "Acme Corp",
		NormalizedName: "acme corp",
		PrimaryDomain:  "acme.com",
		EntityType:     TypeProspect,
	}
	created, err := s.UpsertByNormalizedName(ctx, c)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := s.GetByNormalizedName(ctx, "acme corp")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "acme.com", got.PrimaryDomain)
}

// TestUpsertByNormalizedName_CoalescesIntoExisting verifies a second writer
// with the same normalized name fills empty fields but never overwrites
// populated ones or touches classification.
func TestUpsertByNormalizedName_CoalescesIntoExisting(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	conf := 1.0
	first := &Company{
		CanonicalName:            "Acme Corp",
		NormalizedName:           "acme corp",
		EntityType:               TypeProspect,
		IncludeInPrimaryView:     true,
		ClassificationSource:     SourceManual,
		ClassificationConfidence: &conf,
		City:                     "Austin",
	}
	created, err := s.UpsertByNormalizedName(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	second := &Company{
		CanonicalName:  "ACME Corp.",
		NormalizedName: "acme corp",
		PrimaryDomain:  "acme.com",
		City:           "Dallas",
		EntityType:     TypeVCFund,
	}
	created, err = s.UpsertByNormalizedName(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	got, err := s.GetCompany(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "acme.com", got.PrimaryDomain, "empty domain backfilled")
	assert.Equal(t, "Dallas", got.City, "non-empty incoming wins")
	assert.Equal(t, TypeProspect, got.EntityType, "classification untouched")
	assert.Equal(t, SourceManual, got.ClassificationSource)
}

// TestUpsertByNormalizedName_EmptyKey rejects a missing normalized name.
func TestUpsertByNormalizedName_EmptyKey(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.UpsertByNormalizedName(context.Background(), &Company{CanonicalName: "X"})
	require.ErrorIs(t, err, ErrEmptyName)
}

// TestUpdateClassification_NotFound verifies unknown ids surface ErrNotFound.
func TestUpdateClassification_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.UpdateClassification(context.Background(), "missing", TypeProspect, true, SourceAuto, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestAddAlias_NormalizesAndDeduplicates verifies domain aliases are
// normalized (scheme, path, www stripped) and duplicate inserts are ignored.
func TestAddAlias_NormalizesAndDeduplicates(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	c := &Company{CanonicalName: "Acme", NormalizedName: "acme"}
	_, err := s.UpsertByNormalizedName(ctx, c)
	require.NoError(t, err)

	require.NoError(t, s.AddAlias(ctx, c.ID, "https://www.Acme.com/about", AliasDomain))
	require.NoError(t, s.AddAlias(ctx, c.ID, "acme.com", AliasDomain))
	require.NoError(t, s.AddAlias(ctx, c.ID, "  Acme Corp  ", AliasName))
	require.NoError(t, s.AddAlias(ctx, c.ID, "", AliasName))

	var n int
	require.NoError(t, db.SQL().QueryRow(
		`SELECT COUNT(*) FROM company_aliases WHERE company_id = ?`, c.ID).Scan(&n))
	assert.Equal(t, 2, n, "one domain alias, one name alias")
}

// TestFindByDomainCandidates_StoredWWWPrefix verifies a primary domain stored
// with a leading www. still matches the bare registrable candidate.
func TestFindByDomainCandidates_StoredWWWPrefix(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	c := &Company{CanonicalName: "Acme", NormalizedName: "acme", PrimaryDomain: "acme.com"}
	_, err := s.UpsertByNormalizedName(ctx, c)
	require.NoError(t, err)

	got, err := s.FindByDomainCandidates(ctx, []string{"www.acme.com"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.ID, got.ID)
}

// TestFindNameAlias_CaseAndTrimInsensitive verifies alias lookup ignores case
// and surrounding whitespace.
func TestFindNameAlias_CaseAndTrimInsensitive(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	c := &Company{CanonicalName: "Acme", NormalizedName: "acme"}
	_, err := s.UpsertByNormalizedName(ctx, c)
	require.NoError(t, err)
	require.NoError(t, s.AddAlias(ctx, c.ID, "Acme Corporation", AliasName))

	id, err := s.FindNameAlias(ctx, "  acme corporation ")
	require.NoError(t, err)
	assert.Equal(t, c.ID, id)

	id, err = s.FindNameAlias(ctx, "unrelated")
	require.NoError(t, err)
	assert.Empty(t, id)
}

// TestSignals reports linked-entity counts and pipeline presence.
func TestSignals(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	c := &Company{CanonicalName: "Acme", NormalizedName: "acme", Stage: "diligence"}
	_, err := s.UpsertByNormalizedName(ctx, c)
	require.NoError(t, err)

	_, err = db.SQL().ExecContext(ctx,
		`INSERT INTO meetings (id, title) VALUES ('m1', 'Intro'), ('m2', 'Follow-up')`)
	require.NoError(t, err)
	_, err = db.SQL().ExecContext(ctx, `
		INSERT INTO meeting_company_links (meeting_id, company_id, confidence, linked_by)
		VALUES ('m1', ?, 0.9, 'company_name'), ('m2', ?, 0.6, 'attendee_domain')`, c.ID, c.ID)
	require.NoError(t, err)
	_, err = db.SQL().ExecContext(ctx,
		`INSERT INTO deals (id, company_id, name) VALUES ('d1', ?, 'Series A')`, c.ID)
	require.NoError(t, err)

	sig, err := s.Signals(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sig.MeetingCount)
	assert.True(t, sig.HasDeal)
	assert.False(t, sig.HasMemo)
	assert.False(t, sig.HasNotes)
	assert.True(t, sig.StagePresent)

	_, err = s.Signals(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
