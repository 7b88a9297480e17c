// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

// Package models defines the data structures shared between the sync engine,
// the database layer, and the HTTP API.
package models

import "time"

// Legislator is an internal member record keyed by Bioguide id. The
// FECCandidateID field doubles as the persisted match cache: once a
// campaign-finance candidate has been resolved for a legislator, the id is
// stored here and fuzzy matching is bypassed on later runs.
type Legislator struct {
	BioguideID string    `json:"bioguide_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	FullName   string    `json:"full_name"`
	State      string    `json:"state"`
	District   string    `json:"district,omitempty"`
	Chamber    string    `json:"chamber"` // "house" or "senate"
	Party      string    `json:"party,omitempty"`
	InOffice   bool      `json:"in_office"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Cached entity-match result. Nil until a match has been accepted.
	// Cleared only by explicit operator action.
	FECCandidateID *string `json:"fec_candidate_id,omitempty"`
	FECMatchScore  *int    `json:"fec_match_score,omitempty"`
}

// Bill is one bill record, naturally keyed by (congress, bill_type, number).
type Bill struct {
	Congress          int        `json:"congress"`
	BillType          string     `json:"bill_type"` // "hr", "s", "hjres", ...
	BillNumber        int        `json:"bill_number"`
	Title             string     `json:"title"`
	SponsorBioguideID string     `json:"sponsor_bioguide_id,omitempty"`
	IntroducedAt      *time.Time `json:"introduced_at,omitempty"`
	LatestAction      string     `json:"latest_action,omitempty"`
	LatestActionAt    *time.Time `json:"latest_action_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// RollCall is one recorded vote, keyed by (chamber, congress, session, roll).
type RollCall struct {
	Chamber    string    `json:"chamber"` // "house" or "senate"
	Congress   int       `json:"congress"`
	Session    int       `json:"session"`
	RollNumber int       `json:"roll_number"`
	Question   string    `json:"question,omitempty"`
	Result     string    `json:"result,omitempty"`
	BillRef    string    `json:"bill_ref,omitempty"`
	VotedAt    time.Time `json:"voted_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Positions are replaced as one partition whenever the roll call is
	// reconciled.
	Positions []VotePosition `json:"positions,omitempty"`
}

// VotePosition is one member's position on one roll call.
type VotePosition struct {
	Chamber    string `json:"chamber"`
	Congress   int    `json:"congress"`
	Session    int    `json:"session"`
	RollNumber int    `json:"roll_number"`
	BioguideID string `json:"bioguide_id"`
	Position   string `json:"position"` // "yea", "nay", "present", "not_voting"
}

// FinanceFiling is one itemized campaign-finance receipt. ID is derived from
// record content so re-fetching the same upstream record always produces the
// same id; the (FECCandidateID, Cycle) pair is the reconciliation partition.
type FinanceFiling struct {
	ID              string    `json:"id"`
	FECCandidateID  string    `json:"fec_candidate_id"`
	Cycle           int       `json:"cycle"`
	CommitteeID     string    `json:"committee_id,omitempty"`
	ReceiptDate     time.Time `json:"receipt_date"`
	Amount          float64   `json:"amount"`
	ContributorName string    `json:"contributor_name,omitempty"`
	ContributorZip  string    `json:"contributor_zip,omitempty"`
	ContributorType string    `json:"contributor_type,omitempty"` // "union", "pac", "corporation", "individual"
	SourceRecordID  string    `json:"source_record_id,omitempty"`
}

// FinanceTotals is one candidate's cycle summary, upserted on
// (fec_candidate_id, cycle).
type FinanceTotals struct {
	FECCandidateID     string    `json:"fec_candidate_id"`
	Cycle              int       `json:"cycle"`
	ReceiptsTotal      float64   `json:"receipts_total"`
	DisbursementsTotal float64   `json:"disbursements_total"`
	CashOnHand         float64   `json:"cash_on_hand"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// FinanceCandidate is an external campaign-finance candidate record, the
// "candidate pool" side of entity matching.
type FinanceCandidate struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"` // upstream format: "LAST, FIRST MIDDLE"
	State       string `json:"state"`
	Office      string `json:"office"` // "H" or "S"
	Cycles      []int  `json:"cycles"` // election cycles with activity
}
