// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/capitolmetrics/capitolsync/internal/models"
)

// UpsertRollCall reconciles one roll call and its member positions in a
// single transaction. Positions are replaced wholesale (delete then insert)
// for the roll's partition; a re-fetched roll therefore converges to the
// upstream record even when members were removed from it.
func (db *DB) UpsertRollCall(ctx context.Context, rc *models.RollCall) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin roll call transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	rollQuery := `INSERT INTO roll_calls (chamber, congress, session, roll_number, question, result, bill_ref, voted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (chamber, congress, session, roll_number) DO UPDATE SET
			question = excluded.question,
			result = excluded.result,
			bill_ref = excluded.bill_ref,
			voted_at = excluded.voted_at,
			updated_at = excluded.updated_at`

	_, err = tx.ExecContext(ctx, rollQuery,
		rc.Chamber, rc.Congress, rc.Session, rc.RollNumber,
		nullStr(rc.Question), nullStr(rc.Result), nullStr(rc.BillRef),
		rc.VotedAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert roll call %s/%d/%d/%d: %w", rc.Chamber, rc.Congress, rc.Session, rc.RollNumber, err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM vote_positions WHERE chamber = ? AND congress = ? AND session = ? AND roll_number = ?`,
		rc.Chamber, rc.Congress, rc.Session, rc.RollNumber)
	if err != nil {
		return fmt.Errorf("failed to clear vote positions: %w", err)
	}

	if len(rc.Positions) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO vote_positions (chamber, congress, session, roll_number, bioguide_id, position) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare position insert: %w", err)
		}
		defer closeQuietly(stmt)

		for _, p := range rc.Positions {
			_, err := stmt.ExecContext(ctx, rc.Chamber, rc.Congress, rc.Session, rc.RollNumber, p.BioguideID, p.Position)
			if err != nil {
				return fmt.Errorf("failed to insert vote position for %s: %w", p.BioguideID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit roll call: %w", err)
	}
	return nil
}

// GetRollCall returns one roll call with its positions, or nil if unknown.
func (db *DB) GetRollCall(ctx context.Context, chamber string, congress, session, rollNumber int) (*models.RollCall, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rc := &models.RollCall{}
	row := db.conn.QueryRowContext(ctx,
		`SELECT chamber, congress, session, roll_number, COALESCE(question, ''), COALESCE(result, ''), COALESCE(bill_ref, ''), voted_at, updated_at
		 FROM roll_calls WHERE chamber = ? AND congress = ? AND session = ? AND roll_number = ?`,
		chamber, congress, session, rollNumber)
	err := row.Scan(&rc.Chamber, &rc.Congress, &rc.Session, &rc.RollNumber, &rc.Question, &rc.Result, &rc.BillRef, &rc.VotedAt, &rc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get roll call: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT bioguide_id, position FROM vote_positions
		 WHERE chamber = ? AND congress = ? AND session = ? AND roll_number = ?
		 ORDER BY bioguide_id`,
		chamber, congress, session, rollNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query vote positions: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		p := models.VotePosition{Chamber: chamber, Congress: congress, Session: session, RollNumber: rollNumber}
		if err := rows.Scan(&p.BioguideID, &p.Position); err != nil {
			return nil, fmt.Errorf("failed to scan vote position: %w", err)
		}
		rc.Positions = append(rc.Positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vote positions: %w", err)
	}

	return rc, nil
}
