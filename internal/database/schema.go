// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaStatements creates all tables the engine reads and writes. Statements
// are idempotent (IF NOT EXISTS) so initialize can run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS legislators (
		bioguide_id      VARCHAR PRIMARY KEY,
		first_name       VARCHAR NOT NULL,
		last_name        VARCHAR NOT NULL,
		full_name        VARCHAR NOT NULL,
		state            VARCHAR NOT NULL,
		district         VARCHAR,
		chamber          VARCHAR NOT NULL,
		party            VARCHAR,
		in_office        BOOLEAN NOT NULL DEFAULT true,
		fec_candidate_id VARCHAR,
		fec_match_score  INTEGER,
		updated_at       TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS bills (
		congress            INTEGER NOT NULL,
		bill_type           VARCHAR NOT NULL,
		bill_number         INTEGER NOT NULL,
		title               VARCHAR,
		sponsor_bioguide_id VARCHAR,
		introduced_at       TIMESTAMP,
		latest_action       VARCHAR,
		latest_action_at    TIMESTAMP,
		updated_at          TIMESTAMP NOT NULL,
		PRIMARY KEY (congress, bill_type, bill_number)
	)`,

	`CREATE TABLE IF NOT EXISTS roll_calls (
		chamber     VARCHAR NOT NULL,
		congress    INTEGER NOT NULL,
		session     INTEGER NOT NULL,
		roll_number INTEGER NOT NULL,
		question    VARCHAR,
		result      VARCHAR,
		bill_ref    VARCHAR,
		voted_at    TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL,
		PRIMARY KEY (chamber, congress, session, roll_number)
	)`,

	`CREATE TABLE IF NOT EXISTS vote_positions (
		chamber     VARCHAR NOT NULL,
		congress    INTEGER NOT NULL,
		session     INTEGER NOT NULL,
		roll_number INTEGER NOT NULL,
		bioguide_id VARCHAR NOT NULL,
		position    VARCHAR NOT NULL,
		PRIMARY KEY (chamber, congress, session, roll_number, bioguide_id)
	)`,

	`CREATE TABLE IF NOT EXISTS finance_filings (
		id               VARCHAR PRIMARY KEY,
		fec_candidate_id VARCHAR NOT NULL,
		cycle            INTEGER NOT NULL,
		committee_id     VARCHAR,
		receipt_date     TIMESTAMP,
		amount           DOUBLE NOT NULL,
		contributor_name VARCHAR,
		contributor_zip  VARCHAR,
		contributor_type VARCHAR,
		source_record_id VARCHAR
	)`,

	`CREATE TABLE IF NOT EXISTS finance_totals (
		fec_candidate_id    VARCHAR NOT NULL,
		cycle               INTEGER NOT NULL,
		receipts_total      DOUBLE NOT NULL DEFAULT 0,
		disbursements_total DOUBLE NOT NULL DEFAULT 0,
		cash_on_hand        DOUBLE NOT NULL DEFAULT 0,
		updated_at          TIMESTAMP NOT NULL,
		PRIMARY KEY (fec_candidate_id, cycle)
	)`,

	`CREATE TABLE IF NOT EXISTS sync_cursors (
		provider        VARCHAR NOT NULL,
		dataset         VARCHAR NOT NULL,
		scope_key       VARCHAR NOT NULL,
		last_success_at TIMESTAMP,
		cursor          VARCHAR,
		records_total   INTEGER NOT NULL DEFAULT 0,
		updated_at      TIMESTAMP NOT NULL,
		PRIMARY KEY (provider, dataset, scope_key)
	)`,

	`CREATE TABLE IF NOT EXISTS job_leases (
		job_id             VARCHAR PRIMARY KEY,
		status             VARCHAR NOT NULL,
		lock_until         TIMESTAMP,
		last_run_at        TIMESTAMP,
		last_success_count INTEGER NOT NULL DEFAULT 0,
		last_failure_count INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS job_runs (
		id               VARCHAR PRIMARY KEY,
		job_id           VARCHAR NOT NULL,
		provider         VARCHAR NOT NULL,
		job_type         VARCHAR NOT NULL,
		status           VARCHAR NOT NULL,
		started_at       TIMESTAMP NOT NULL,
		finished_at      TIMESTAMP NOT NULL,
		records_fetched  INTEGER NOT NULL DEFAULT 0,
		records_upserted INTEGER NOT NULL DEFAULT 0,
		api_calls        INTEGER NOT NULL DEFAULT 0,
		wait_time_ms     BIGINT NOT NULL DEFAULT 0,
		error            VARCHAR,
		metadata         VARCHAR
	)`,

	`CREATE TABLE IF NOT EXISTS app_settings (
		key        VARCHAR PRIMARY KEY,
		value      VARCHAR NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
}

// initialize creates the schema.
func (db *DB) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	return nil
}
