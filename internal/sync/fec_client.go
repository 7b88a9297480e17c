// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/capitolmetrics/capitolsync/internal/config"
	"github.com/capitolmetrics/capitolsync/internal/models"
)

// ProviderFEC is the rate-limit and lease partition key for the
// campaign-finance API.
const ProviderFEC = "fec"

// FECClient talks to the campaign-finance REST API: candidate search, cycle
// totals, and paginated itemized receipts (Schedule A).
type FECClient struct {
	baseURL string
	apiKey  string
	http    *Client
}

// NewFECClient builds the client from provider config.
func NewFECClient(cfg *config.ProviderConfig) *FECClient {
	return &FECClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    NewClient(ProviderFEC, cfg),
	}
}

type fecCandidate struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	State       string `json:"state"`
	Office      string `json:"office"`
	Cycles      []int  `json:"cycles"`
}

type fecCandidatesResponse struct {
	Results []fecCandidate `json:"results"`
}

type fecTotalsResponse struct {
	Results []struct {
		Receipts      float64 `json:"receipts"`
		Disbursements float64 `json:"disbursements"`
		CashOnHand    float64 `json:"last_cash_on_hand_end_period"`
	} `json:"results"`
}

// ScheduleAReceipt is one itemized receipt as the upstream reports it.
type ScheduleAReceipt struct {
	SubID           string  `json:"sub_id"`
	CommitteeID     string  `json:"committee_id"`
	ReceiptDate     string  `json:"contribution_receipt_date"` // YYYY-MM-DD
	Amount          float64 `json:"contribution_receipt_amount"`
	ContributorName string  `json:"contributor_name"`
	ContributorZip  string  `json:"contributor_zip"`
}

type fecScheduleAResponse struct {
	Results    []ScheduleAReceipt `json:"results"`
	Pagination struct {
		LastIndex string `json:"last_index"`
	} `json:"pagination"`
}

// SearchCandidates returns the candidate pool for one last name and state,
// the input to entity matching.
func (c *FECClient) SearchCandidates(ctx context.Context, lastName, state string, budget *TimeBudget) ([]models.FinanceCandidate, RequestStats, error) {
	query := url.Values{}
	query.Set("q", lastName)
	if state != "" {
		query.Set("state", state)
	}

	var envelope fecCandidatesResponse
	stats, err := c.getJSON(ctx, "/v1/candidates/search", query, budget, &envelope)
	if err != nil {
		return nil, stats, err
	}

	pool := make([]models.FinanceCandidate, 0, len(envelope.Results))
	for _, r := range envelope.Results {
		pool = append(pool, models.FinanceCandidate{
			CandidateID: r.CandidateID,
			Name:        r.Name,
			State:       r.State,
			Office:      r.Office,
			Cycles:      r.Cycles,
		})
	}
	return pool, stats, nil
}

// FetchTotals returns a candidate's summary for one cycle, or nil when the
// upstream has no totals row yet.
func (c *FECClient) FetchTotals(ctx context.Context, candidateID string, cycle int, budget *TimeBudget) (*models.FinanceTotals, RequestStats, error) {
	query := url.Values{}
	query.Set("cycle", strconv.Itoa(cycle))

	var envelope fecTotalsResponse
	stats, err := c.getJSON(ctx, "/v1/candidate/"+url.PathEscape(candidateID)+"/totals", query, budget, &envelope)
	if err != nil {
		return nil, stats, err
	}
	if len(envelope.Results) == 0 {
		return nil, stats, nil
	}

	r := envelope.Results[0]
	return &models.FinanceTotals{
		FECCandidateID:     candidateID,
		Cycle:              cycle,
		ReceiptsTotal:      r.Receipts,
		DisbursementsTotal: r.Disbursements,
		CashOnHand:         r.CashOnHand,
	}, stats, nil
}

// FetchScheduleA returns one page of itemized receipts. lastIndex "" starts
// the feed; the returned nextIndex is "" on the final page.
func (c *FECClient) FetchScheduleA(ctx context.Context, candidateID string, cycle, perPage int, lastIndex string, budget *TimeBudget) ([]ScheduleAReceipt, string, RequestStats, error) {
	query := url.Values{}
	query.Set("candidate_id", candidateID)
	query.Set("two_year_transaction_period", strconv.Itoa(cycle))
	query.Set("per_page", strconv.Itoa(perPage))
	if lastIndex != "" {
		query.Set("last_index", lastIndex)
	}

	var envelope fecScheduleAResponse
	stats, err := c.getJSON(ctx, "/v1/schedules/schedule_a", query, budget, &envelope)
	if err != nil {
		return nil, "", stats, err
	}
	next := envelope.Pagination.LastIndex
	if len(envelope.Results) == 0 {
		next = ""
	}
	return envelope.Results, next, stats, nil
}

func (c *FECClient) getJSON(ctx context.Context, path string, query url.Values, budget *TimeBudget, result interface{}) (RequestStats, error) {
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return RequestStats{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, stats, err := c.http.Do(ctx, req, budget)
	if err != nil {
		return stats, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if stats.BudgetExhausted {
			return stats, errBudgetWindDown
		}
		return stats, fmt.Errorf("fec api status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return stats, fmt.Errorf("decode fec response: %w", err)
	}
	return stats, nil
}

// ParseReceiptDate interprets the upstream receipt date, accepting the bare
// date and the timestamped variants the API mixes.
func ParseReceiptDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized receipt date %q", s)
}
