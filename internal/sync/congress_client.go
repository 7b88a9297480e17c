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

// ProviderCongress is the rate-limit and lease partition key for the
// legislative-data API.
const ProviderCongress = "congress"

// CongressClient talks to the legislative-data REST API: member listings and
// bill feeds, both paginated by offset/limit.
type CongressClient struct {
	baseURL string
	apiKey  string
	http    *Client
}

// NewCongressClient builds the client from provider config.
func NewCongressClient(cfg *config.ProviderConfig) *CongressClient {
	return &CongressClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    NewClient(ProviderCongress, cfg),
	}
}

// congressMember is the upstream member representation.
type congressMember struct {
	BioguideID string `json:"bioguideId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Name       string `json:"name"`
	State      string `json:"state"`
	District   string `json:"district"`
	Party      string `json:"party"`
	Chamber    string `json:"chamber"`
	InOffice   bool   `json:"currentMember"`
}

type congressMembersResponse struct {
	Members    []congressMember `json:"members"`
	Pagination struct {
		Count int `json:"count"`
	} `json:"pagination"`
}

// congressBill is the upstream bill representation. The list feed carries
// the summary fields only; sponsor and introduced date come from the
// per-bill detail endpoint.
type congressBill struct {
	Congress     int    `json:"congress"`
	Type         string `json:"type"`
	Number       int    `json:"number"`
	Title        string `json:"title"`
	Sponsor      string `json:"sponsorBioguideId"`
	IntroducedAt string `json:"introducedDate"` // YYYY-MM-DD
	LatestAction struct {
		ActionDate string `json:"actionDate"`
		Text       string `json:"text"`
	} `json:"latestAction"`
}

type congressBillsResponse struct {
	Bills      []congressBill `json:"bills"`
	Pagination struct {
		Count int `json:"count"`
	} `json:"pagination"`
}

type congressBillDetailResponse struct {
	Bill congressBill `json:"bill"`
}

// FetchMembers returns one page of current members. A 404 means the offset
// ran past the end of the feed and returns an empty page with total 0.
func (c *CongressClient) FetchMembers(ctx context.Context, offset, limit int, budget *TimeBudget) ([]models.Legislator, int, RequestStats, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("currentMember", "true")

	var envelope congressMembersResponse
	found, stats, err := c.getJSON(ctx, "/v3/member", query, budget, &envelope)
	if err != nil || !found {
		return nil, 0, stats, err
	}

	members := make([]models.Legislator, 0, len(envelope.Members))
	for _, m := range envelope.Members {
		members = append(members, models.Legislator{
			BioguideID: m.BioguideID,
			FirstName:  m.FirstName,
			LastName:   m.LastName,
			FullName:   m.Name,
			State:      m.State,
			District:   m.District,
			Chamber:    m.Chamber,
			Party:      m.Party,
			InOffice:   m.InOffice,
		})
	}
	return members, envelope.Pagination.Count, stats, nil
}

// FetchBills returns one page of a congress's bill feed, newest-updated
// first upstream. A 404 past the last page returns an empty page.
func (c *CongressClient) FetchBills(ctx context.Context, congress, offset, limit int, budget *TimeBudget) ([]models.Bill, int, RequestStats, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	var envelope congressBillsResponse
	found, stats, err := c.getJSON(ctx, fmt.Sprintf("/v3/bill/%d", congress), query, budget, &envelope)
	if err != nil || !found {
		return nil, 0, stats, err
	}

	bills := make([]models.Bill, 0, len(envelope.Bills))
	for _, b := range envelope.Bills {
		bills = append(bills, billFromUpstream(&b))
	}
	return bills, envelope.Pagination.Count, stats, nil
}

// FetchBillDetail returns one bill's full record. The list feed omits
// sponsor and introduced date, so the orchestrator fans out detail calls
// per page. found=false marks a 404.
func (c *CongressClient) FetchBillDetail(ctx context.Context, congress int, billType string, number int, budget *TimeBudget) (*models.Bill, RequestStats, error) {
	var envelope congressBillDetailResponse
	path := fmt.Sprintf("/v3/bill/%d/%s/%d", congress, billType, number)
	found, stats, err := c.getJSON(ctx, path, url.Values{}, budget, &envelope)
	if err != nil {
		return nil, stats, err
	}
	if !found {
		return nil, stats, nil
	}
	bill := billFromUpstream(&envelope.Bill)
	return &bill, stats, nil
}

func billFromUpstream(b *congressBill) models.Bill {
	bill := models.Bill{
		Congress:          b.Congress,
		BillType:          b.Type,
		BillNumber:        b.Number,
		Title:             b.Title,
		SponsorBioguideID: b.Sponsor,
		LatestAction:      b.LatestAction.Text,
	}
	if t, err := time.Parse("2006-01-02", b.IntroducedAt); err == nil {
		bill.IntroducedAt = &t
	}
	if t, err := time.Parse("2006-01-02", b.LatestAction.ActionDate); err == nil {
		bill.LatestActionAt = &t
	}
	return bill
}

// getJSON runs one retrying GET and decodes the body. found=false marks a
// 404 (end of a paginated feed, not a failure).
func (c *CongressClient) getJSON(ctx context.Context, path string, query url.Values, budget *TimeBudget, result interface{}) (bool, RequestStats, error) {
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return false, RequestStats{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, stats, err := c.http.Do(ctx, req, budget)
	if err != nil {
		return false, stats, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, stats, nil
	case resp.StatusCode != http.StatusOK:
		if stats.BudgetExhausted {
			// The retry layer handed back a retryable status at wind-down.
			return false, stats, errBudgetWindDown
		}
		return false, stats, fmt.Errorf("congress api status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return false, stats, fmt.Errorf("decode congress response: %w", err)
	}
	return true, stats, nil
}
