// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

/*
votes_xml.go - Roll-Call Vote Feeds

Both chambers publish recorded votes as per-roll XML documents fetched by
roll number. The chambers differ in one load-bearing way:

  - The House feed carries a stable member identifier (name-id) on every
    recorded vote, usable directly as the Bioguide id.
  - The Senate feed has no stable identifier; members are matched by
    (last name, state) against the legislators table. Ambiguous or unknown
    members are skipped and counted, never guessed.

A 404 for a roll number marks the end of the published sequence for the
session, not an error.
*/
package sync

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/capitolmetrics/capitolsync/internal/config"
	"github.com/capitolmetrics/capitolsync/internal/logging"
	"github.com/capitolmetrics/capitolsync/internal/models"
)

// Provider keys for the two vote feeds.
const (
	ProviderHouseClerk = "house_clerk"
	ProviderSenateGov  = "senate_gov"
)

// Chamber names as stored.
const (
	ChamberHouse  = "house"
	ChamberSenate = "senate"
)

// houseRollXML mirrors the House clerk's rollcall-vote document.
type houseRollXML struct {
	XMLName  xml.Name `xml:"rollcall-vote"`
	Metadata struct {
		Congress   int    `xml:"congress"`
		Session    string `xml:"session"` // "1st" / "2nd"
		RollNumber int    `xml:"rollcall-num"`
		Question   string `xml:"vote-question"`
		Result     string `xml:"vote-result"`
		ActionDate string `xml:"action-date"` // 14-Mar-2026
		LegisNum   string `xml:"legis-num"`
	} `xml:"vote-metadata"`
	Votes []struct {
		Legislator struct {
			NameID string `xml:"name-id,attr"`
			State  string `xml:"state,attr"`
		} `xml:"legislator"`
		Vote string `xml:"vote"`
	} `xml:"vote-data>recorded-vote"`
}

// senateRollXML mirrors the Senate's roll_call_vote document.
type senateRollXML struct {
	XMLName    xml.Name `xml:"roll_call_vote"`
	Congress   int      `xml:"congress"`
	Session    int      `xml:"session"`
	VoteNumber int      `xml:"vote_number"`
	Question   string   `xml:"vote_question_text"`
	Result     string   `xml:"vote_result"`
	VoteDate   string   `xml:"vote_date"` // March 14, 2026, 05:30 PM
	Document   struct {
		Name string `xml:"document_name"`
	} `xml:"document"`
	Members []struct {
		LastName  string `xml:"last_name"`
		FirstName string `xml:"first_name"`
		State     string `xml:"state"`
		VoteCast  string `xml:"vote_cast"`
	} `xml:"members>member"`
}

// parseHouseRoll converts one House XML document. The name-id attribute is
// the stable member identifier.
func parseHouseRoll(data []byte) (*models.RollCall, error) {
	var doc houseRollXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse house roll xml: %w", err)
	}

	rc := &models.RollCall{
		Chamber:    ChamberHouse,
		Congress:   doc.Metadata.Congress,
		Session:    parseHouseSession(doc.Metadata.Session),
		RollNumber: doc.Metadata.RollNumber,
		Question:   doc.Metadata.Question,
		Result:     doc.Metadata.Result,
		BillRef:    strings.TrimSpace(doc.Metadata.LegisNum),
	}
	if t, err := time.Parse("2-Jan-2006", doc.Metadata.ActionDate); err == nil {
		rc.VotedAt = t
	}

	for _, v := range doc.Votes {
		if v.Legislator.NameID == "" {
			continue
		}
		rc.Positions = append(rc.Positions, models.VotePosition{
			Chamber:    rc.Chamber,
			Congress:   rc.Congress,
			Session:    rc.Session,
			RollNumber: rc.RollNumber,
			BioguideID: v.Legislator.NameID,
			Position:   normalizePosition(v.Vote),
		})
	}
	return rc, nil
}

// memberIndex resolves Senate vote rows to Bioguide ids by (last name,
// state). Keys with more than one member in the chamber are ambiguous and
// resolve to nothing.
type memberIndex struct {
	byNameState map[string]string
	ambiguous   map[string]struct{}
}

func newMemberIndex(legislators []models.Legislator, chamber string) *memberIndex {
	idx := &memberIndex{
		byNameState: make(map[string]string),
		ambiguous:   make(map[string]struct{}),
	}
	for i := range legislators {
		leg := &legislators[i]
		if !strings.EqualFold(leg.Chamber, chamber) {
			continue
		}
		key := memberKey(leg.LastName, leg.State)
		if _, exists := idx.byNameState[key]; exists {
			idx.ambiguous[key] = struct{}{}
			continue
		}
		idx.byNameState[key] = leg.BioguideID
	}
	return idx
}

func (idx *memberIndex) resolve(lastName, state string) (string, bool) {
	key := memberKey(lastName, state)
	if _, amb := idx.ambiguous[key]; amb {
		return "", false
	}
	id, ok := idx.byNameState[key]
	return id, ok
}

func memberKey(lastName, state string) string {
	return strings.ToUpper(strings.TrimSpace(lastName)) + "|" + strings.ToUpper(strings.TrimSpace(state))
}

// parseSenateRoll converts one Senate XML document, resolving members
// through the index. Unresolvable members are skipped and reported in the
// second return value.
func parseSenateRoll(data []byte, idx *memberIndex) (*models.RollCall, int, error) {
	var doc senateRollXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("parse senate roll xml: %w", err)
	}

	rc := &models.RollCall{
		Chamber:    ChamberSenate,
		Congress:   doc.Congress,
		Session:    doc.Session,
		RollNumber: doc.VoteNumber,
		Question:   doc.Question,
		Result:     doc.Result,
		BillRef:    strings.TrimSpace(doc.Document.Name),
	}
	if t, err := time.Parse("January 2, 2006, 03:04 PM", doc.VoteDate); err == nil {
		rc.VotedAt = t
	}

	skipped := 0
	for _, m := range doc.Members {
		id, ok := idx.resolve(m.LastName, m.State)
		if !ok {
			skipped++
			logging.Debug().
				Str("last_name", m.LastName).
				Str("state", m.State).
				Int("roll", rc.RollNumber).
				Msg("Unresolvable senate vote member, skipping")
			continue
		}
		rc.Positions = append(rc.Positions, models.VotePosition{
			Chamber:    rc.Chamber,
			Congress:   rc.Congress,
			Session:    rc.Session,
			RollNumber: rc.RollNumber,
			BioguideID: id,
			Position:   normalizePosition(m.VoteCast),
		})
	}
	return rc, skipped, nil
}

func parseHouseSession(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1st", "1":
		return 1
	case "2nd", "2":
		return 2
	default:
		return 0
	}
}

// normalizePosition folds the chambers' vocabulary into the stored values.
func normalizePosition(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yea", "aye", "yes", "guilty":
		return "yea"
	case "nay", "no", "not guilty":
		return "nay"
	case "present":
		return "present"
	default:
		return "not_voting"
	}
}

// VotesClient fetches per-roll XML documents from one chamber's feed.
type VotesClient struct {
	provider string
	baseURL  string
	http     *Client
	urlFor   func(baseURL string, congress, session, roll int) string
}

// NewHouseVotesClient builds the House clerk feed client.
func NewHouseVotesClient(cfg *config.ProviderConfig) *VotesClient {
	return &VotesClient{
		provider: ProviderHouseClerk,
		baseURL:  cfg.BaseURL,
		http:     NewClient(ProviderHouseClerk, cfg),
		urlFor: func(base string, congress, session, roll int) string {
			year := houseSessionYear(congress, session)
			return fmt.Sprintf("%s/evs/%d/roll%03d.xml", base, year, roll)
		},
	}
}

// NewSenateVotesClient builds the Senate feed client.
func NewSenateVotesClient(cfg *config.ProviderConfig) *VotesClient {
	return &VotesClient{
		provider: ProviderSenateGov,
		baseURL:  cfg.BaseURL,
		http:     NewClient(ProviderSenateGov, cfg),
		urlFor: func(base string, congress, session, roll int) string {
			return fmt.Sprintf("%s/legislative/LIS/roll_call_votes/vote%d%d/vote_%d_%d_%05d.xml",
				base, congress, session, congress, session, roll)
		},
	}
}

// FetchRoll returns the raw XML for one roll number, or found=false on 404
// (the roll is not published yet).
func (c *VotesClient) FetchRoll(ctx context.Context, congress, session, roll int, budget *TimeBudget) (data []byte, found bool, stats RequestStats, err error) {
	reqURL := c.urlFor(c.baseURL, congress, session, roll)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, false, RequestStats{}, fmt.Errorf("create request: %w", err)
	}

	resp, stats, err := c.http.Do(ctx, req, budget)
	if err != nil {
		return nil, false, stats, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, stats, nil
	case resp.StatusCode != http.StatusOK:
		if stats.BudgetExhausted {
			return nil, false, stats, errBudgetWindDown
		}
		return nil, false, stats, fmt.Errorf("%s status %d for roll %d", c.provider, resp.StatusCode, roll)
	}

	data, err = readAll(resp.Body)
	if err != nil {
		return nil, false, stats, fmt.Errorf("read roll %d body: %w", roll, err)
	}
	return data, true, stats, nil
}

// houseSessionYear maps (congress, session) to the calendar year the clerk
// keys its archive by. The Nth congress starts in 1789 + 2(N-1).
func houseSessionYear(congress, session int) int {
	return 1789 + 2*(congress-1) + (session - 1)
}
