// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/capitolmetrics/capitolsync/internal/models"
)

// ReplaceFinanceFilings reconciles the itemized receipts for one
// (candidate, cycle) partition: the partition is deleted and rewritten in a
// single transaction, so upstream deletions and amendments converge without
// any record-level diffing.
func (db *DB) ReplaceFinanceFilings(ctx context.Context, fecCandidateID string, cycle int, filings []models.FinanceFiling) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin filings transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM finance_filings WHERE fec_candidate_id = ? AND cycle = ?`,
		fecCandidateID, cycle)
	if err != nil {
		return fmt.Errorf("failed to clear filings partition: %w", err)
	}

	if len(filings) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO finance_filings (id, fec_candidate_id, cycle, committee_id, receipt_date, amount, contributor_name, contributor_zip, contributor_type, source_record_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare filing insert: %w", err)
		}
		defer closeQuietly(stmt)

		for i := range filings {
			f := &filings[i]
			_, err := stmt.ExecContext(ctx,
				f.ID, fecCandidateID, cycle,
				nullStr(f.CommitteeID), f.ReceiptDate, f.Amount,
				nullStr(f.ContributorName), nullStr(f.ContributorZip),
				nullStr(f.ContributorType), nullStr(f.SourceRecordID))
			if err != nil {
				return fmt.Errorf("failed to insert filing %s: %w", f.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit filings partition: %w", err)
	}
	return nil
}

// UpsertFinanceTotals writes a candidate's cycle summary.
func (db *DB) UpsertFinanceTotals(ctx context.Context, totals *models.FinanceTotals) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `INSERT INTO finance_totals (fec_candidate_id, cycle, receipts_total, disbursements_total, cash_on_hand, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (fec_candidate_id, cycle) DO UPDATE SET
			receipts_total = excluded.receipts_total,
			disbursements_total = excluded.disbursements_total,
			cash_on_hand = excluded.cash_on_hand,
			updated_at = excluded.updated_at`

	_, err := db.conn.ExecContext(ctx, query,
		totals.FECCandidateID, totals.Cycle,
		totals.ReceiptsTotal, totals.DisbursementsTotal, totals.CashOnHand,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert finance totals %s/%d: %w", totals.FECCandidateID, totals.Cycle, err)
	}
	return nil
}

// CountFinanceFilings returns the size of one (candidate, cycle) partition.
func (db *DB) CountFinanceFilings(ctx context.Context, fecCandidateID string, cycle int) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM finance_filings WHERE fec_candidate_id = ? AND cycle = ?`,
		fecCandidateID, cycle).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count filings: %w", err)
	}
	return count, nil
}
