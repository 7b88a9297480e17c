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

// UpsertLegislator writes a member record keyed by Bioguide id. The cached
// fec_candidate_id and fec_match_score are deliberately NOT touched here;
// they belong to the matcher (SetFECCandidateID) and survive member refreshes.
func (db *DB) UpsertLegislator(ctx context.Context, leg *models.Legislator) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `INSERT INTO legislators (bioguide_id, first_name, last_name, full_name, state, district, chamber, party, in_office, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (bioguide_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			full_name = excluded.full_name,
			state = excluded.state,
			district = excluded.district,
			chamber = excluded.chamber,
			party = excluded.party,
			in_office = excluded.in_office,
			updated_at = excluded.updated_at`

	_, err := db.conn.ExecContext(ctx, query,
		leg.BioguideID, leg.FirstName, leg.LastName, leg.FullName,
		leg.State, leg.District, leg.Chamber, leg.Party, leg.InOffice,
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert legislator %s: %w", leg.BioguideID, err)
	}
	return nil
}

// SetFECCandidateID persists an accepted entity match for a legislator.
func (db *DB) SetFECCandidateID(ctx context.Context, bioguideID, fecCandidateID string, score int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE legislators SET fec_candidate_id = ?, fec_match_score = ?, updated_at = ? WHERE bioguide_id = ?`
	res, err := db.conn.ExecContext(ctx, query, fecCandidateID, score, time.Now().UTC(), bioguideID)
	if err != nil {
		return fmt.Errorf("failed to set match for legislator %s: %w", bioguideID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("legislator %s not found", bioguideID)
	}
	return nil
}

// ClearFECCandidateID drops a cached match so the next finance run re-resolves
// the legislator. Operator action only.
func (db *DB) ClearFECCandidateID(ctx context.Context, bioguideID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE legislators SET fec_candidate_id = NULL, fec_match_score = NULL, updated_at = ? WHERE bioguide_id = ?`
	if _, err := db.conn.ExecContext(ctx, query, time.Now().UTC(), bioguideID); err != nil {
		return fmt.Errorf("failed to clear match for legislator %s: %w", bioguideID, err)
	}
	return nil
}

// GetLegislator returns one member record, or nil if unknown.
func (db *DB) GetLegislator(ctx context.Context, bioguideID string) (*models.Legislator, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, legislatorSelect+` WHERE bioguide_id = ?`, bioguideID)
	leg, err := scanLegislator(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get legislator %s: %w", bioguideID, err)
	}
	return leg, nil
}

// ListLegislators returns members, in-office only when inOfficeOnly is set.
func (db *DB) ListLegislators(ctx context.Context, inOfficeOnly bool) ([]models.Legislator, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := legislatorSelect
	if inOfficeOnly {
		query += ` WHERE in_office`
	}
	query += ` ORDER BY last_name, first_name`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list legislators: %w", err)
	}
	defer closeQuietly(rows)

	var legs []models.Legislator
	for rows.Next() {
		leg, err := scanLegislator(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legislator: %w", err)
		}
		legs = append(legs, *leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate legislators: %w", err)
	}
	return legs, nil
}

const legislatorSelect = `SELECT bioguide_id, first_name, last_name, full_name, state, district, chamber, party, in_office, fec_candidate_id, fec_match_score, updated_at
	FROM legislators`

func scanLegislator(scan func(dest ...interface{}) error) (*models.Legislator, error) {
	leg := &models.Legislator{}
	var district, party, fecID sql.NullString
	var score sql.NullInt64

	err := scan(&leg.BioguideID, &leg.FirstName, &leg.LastName, &leg.FullName,
		&leg.State, &district, &leg.Chamber, &party, &leg.InOffice,
		&fecID, &score, &leg.UpdatedAt)
	if err != nil {
		return nil, err
	}

	leg.District = district.String
	leg.Party = party.String
	if fecID.Valid {
		id := fecID.String
		leg.FECCandidateID = &id
	}
	if score.Valid {
		s := int(score.Int64)
		leg.FECMatchScore = &s
	}
	return leg, nil
}
