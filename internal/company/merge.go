package company

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealflow/internal/store"
)

// Merger collapses a duplicate company into a canonical one. Every foreign-key
// reference is re-pointed from the source to the target inside one
// transaction; a failure partway leaves neither company mutated.
type Merger struct {
	db *store.DB
}

// NewMerger creates a company merger.
func NewMerger(db *store.DB) *Merger {
	return &Merger{db: db}
}

// MergeResult reports, per relation table, how many rows were re-pointed.
type MergeResult struct {
	Relinked map[string]int `json:"relinked"`
}

// companyRelation describes one table referencing companies.
//
// uniqueKey names the column that, together with company_id, forms the
// table's unique constraint; re-pointing such rows is an upsert. Tables with
// hasConfidence keep the higher confidence when both sides already link the
// same entity.
type companyRelation struct {
	table         string
	uniqueKey     string
	hasConfidence bool
}

var companyRelations = []companyRelation{
	{table: "meeting_company_links", uniqueKey: "meeting_id", hasConfidence: true},
	{table: "email_company_links", uniqueKey: "message_id", hasConfidence: true},
	{table: "company_contacts", uniqueKey: "contact_id"},
	{table: "company_aliases", uniqueKey: "alias_value"},
	{table: "company_industries", uniqueKey: "industry"},
	{table: "company_themes", uniqueKey: "theme"},
	{table: "company_theses", uniqueKey: "thesis"},
	{table: "deals"},
	{table: "notes"},
	{table: "memos"},
	{table: "conversations"},
	{table: "artifacts"},
}

// Merge re-points every relationship from sourceID to targetID and deletes
// the source company. Rejects self-merges and unknown ids.
func (m *Merger) Merge(ctx context.Context, targetID, sourceID string) (*MergeResult, error) {
	if targetID == sourceID {
		return nil, ErrSameCompany
	}

	result := &MergeResult{Relinked: make(map[string]int)}
	err := m.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, id := range []string{targetID, sourceID} {
			var exists int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM companies WHERE id = ?`, id).Scan(&exists); err != nil {
				return eris.Wrapf(err, "merge: check company %s", id)
			}
			if exists == 0 {
				return eris.Wrapf(ErrNotFound, "merge: company %s", id)
			}
		}

		for _, rel := range companyRelations {
			var n int
			var err error
			switch {
			case rel.hasConfidence:
				n, err = m.relinkKeepMax(ctx, tx, rel, targetID, sourceID)
			case rel.uniqueKey != "":
				n, err = m.relinkUnique(ctx, tx, rel.table, targetID, sourceID)
			default:
				n, err = m.relinkPlain(ctx, tx, rel.table, targetID, sourceID)
			}
			if err != nil {
				return err
			}
			result.Relinked[rel.table] = n
		}

		// Contacts whose primary company was the duplicate follow it.
		res, err := tx.ExecContext(ctx,
			`UPDATE contacts SET primary_company_id = ? WHERE primary_company_id = ?`,
			targetID, sourceID)
		if err != nil {
			return eris.Wrap(err, "merge: re-point contact primary company")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return eris.Wrap(err, "merge: rows affected")
		}
		result.Relinked["contacts"] = int(n)

		if _, err := tx.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, sourceID); err != nil {
			return eris.Wrapf(err, "merge: delete source company %s", sourceID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("merge: companies merged",
		zap.String("target_id", targetID),
		zap.String("source_id", sourceID),
		zap.Any("relinked", result.Relinked),
	)
	return result, nil
}

// relinkKeepMax re-points rows of a confidence-scored link table that is
// unique per (uniqueKey, company_id). When the target already links the same
// entity, the higher confidence survives and the source row is dropped.
func (m *Merger) relinkKeepMax(ctx context.Context, tx *sql.Tx, rel companyRelation, targetID, sourceID string) (int, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s, confidence FROM %s WHERE company_id = ?`, rel.uniqueKey, rel.table), sourceID)
	if err != nil {
		return 0, eris.Wrapf(err, "merge: scan %s", rel.table)
	}
	type srcRow struct {
		key        string
		confidence float64
	}
	var srcRows []srcRow
	for rows.Next() {
		var r srcRow
		if err := rows.Scan(&r.key, &r.confidence); err != nil {
			rows.Close()
			return 0, eris.Wrapf(err, "merge: scan %s row", rel.table)
		}
		srcRows = append(srcRows, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, eris.Wrapf(err, "merge: iterate %s", rel.table)
	}

	relinked := 0
	for _, r := range srcRows {
		var existing int
		err := tx.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT COUNT(*) FROM %s WHERE %s = ? AND company_id = ?`, rel.table, rel.uniqueKey),
			r.key, targetID).Scan(&existing)
		if err != nil {
			return relinked, eris.Wrapf(err, "merge: check %s collision", rel.table)
		}
		if existing > 0 {
			_, err = tx.ExecContext(ctx, fmt.Sprintf(
				`UPDATE %s SET confidence = ? WHERE %s = ? AND company_id = ? AND confidence < ?`,
				rel.table, rel.uniqueKey),
				r.confidence, r.key, targetID, r.confidence)
			if err != nil {
				return relinked, eris.Wrapf(err, "merge: keep-max %s", rel.table)
			}
			_, err = tx.ExecContext(ctx, fmt.Sprintf(
				`DELETE FROM %s WHERE %s = ? AND company_id = ?`, rel.table, rel.uniqueKey),
				r.key, sourceID)
			if err != nil {
				return relinked, eris.Wrapf(err, "merge: drop duplicate %s", rel.table)
			}
			continue
		}
		_, err = tx.ExecContext(ctx, fmt.Sprintf(
			`UPDATE %s SET company_id = ? WHERE %s = ? AND company_id = ?`, rel.table, rel.uniqueKey),
			targetID, r.key, sourceID)
		if err != nil {
			return relinked, eris.Wrapf(err, "merge: re-point %s", rel.table)
		}
		relinked++
	}
	return relinked, nil
}

// relinkUnique re-points rows of a table with a unique constraint that
// includes company_id but no confidence score. Collisions with rows the
// target already has are dropped.
func (m *Merger) relinkUnique(ctx context.Context, tx *sql.Tx, table, targetID, sourceID string) (int, error) {
	res, err := tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE OR IGNORE %s SET company_id = ? WHERE company_id = ?`, table),
		targetID, sourceID)
	if err != nil {
		return 0, eris.Wrapf(err, "merge: re-point %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "merge: rows affected")
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE company_id = ?`, table), sourceID); err != nil {
		return int(n), eris.Wrapf(err, "merge: drop leftover %s", table)
	}
	return int(n), nil
}

// relinkPlain re-points rows of a table that simply references company_id.
func (m *Merger) relinkPlain(ctx context.Context, tx *sql.Tx, table, targetID, sourceID string) (int, error) {
	res, err := tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET company_id = ? WHERE company_id = ?`, table),
		targetID, sourceID)
	if err != nil {
		return 0, eris.Wrapf(err, "merge: re-point %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "merge: rows affected")
	}
	return int(n), nil
}
