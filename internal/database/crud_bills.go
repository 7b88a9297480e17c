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

// UpsertBills writes a page of bill records in one transaction so a partial
// page is never visible.
func (db *DB) UpsertBills(ctx context.Context, bills []models.Bill) error {
	if len(bills) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bills transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO bills (congress, bill_type, bill_number, title, sponsor_bioguide_id, introduced_at, latest_action, latest_action_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (congress, bill_type, bill_number) DO UPDATE SET
			title = excluded.title,
			sponsor_bioguide_id = excluded.sponsor_bioguide_id,
			introduced_at = excluded.introduced_at,
			latest_action = excluded.latest_action,
			latest_action_at = excluded.latest_action_at,
			updated_at = excluded.updated_at`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare bill upsert: %w", err)
	}
	defer closeQuietly(stmt)

	now := time.Now().UTC()
	for i := range bills {
		b := &bills[i]
		_, err := stmt.ExecContext(ctx,
			b.Congress, b.BillType, b.BillNumber, b.Title,
			nullStr(b.SponsorBioguideID), nullTime(b.IntroducedAt),
			nullStr(b.LatestAction), nullTime(b.LatestActionAt), now)
		if err != nil {
			return fmt.Errorf("failed to upsert bill %d-%s-%d: %w", b.Congress, b.BillType, b.BillNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bills: %w", err)
	}
	return nil
}

// CountBills returns the number of stored bills, used by readiness checks
// and tests.
func (db *DB) CountBills(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM bills`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bills: %w", err)
	}
	return count, nil
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
