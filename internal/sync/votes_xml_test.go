// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"testing"
	"time"

	"github.com/capitolmetrics/capitolsync/internal/models"
)

const houseRollFixture = `<?xml version="1.0"?>
<rollcall-vote>
  <vote-metadata>
    <congress>119</congress>
    <session>2nd</session>
    <rollcall-num>87</rollcall-num>
    <vote-question>On Passage</vote-question>
    <vote-result>Passed</vote-result>
    <action-date>14-Mar-2026</action-date>
    <legis-num>H R 1234</legis-num>
  </vote-metadata>
  <vote-data>
    <recorded-vote>
      <legislator name-id="H001234" state="OH"/>
      <vote>Aye</vote>
    </recorded-vote>
    <recorded-vote>
      <legislator name-id="S005678" state="CA"/>
      <vote>No</vote>
    </recorded-vote>
    <recorded-vote>
      <legislator name-id="" state="TX"/>
      <vote>Yea</vote>
    </recorded-vote>
  </vote-data>
</rollcall-vote>`

func TestParseHouseRoll(t *testing.T) {
	rc, err := parseHouseRoll([]byte(houseRollFixture))
	if err != nil {
		t.Fatalf("parseHouseRoll: %v", err)
	}

	if rc.Chamber != ChamberHouse || rc.Congress != 119 || rc.Session != 2 || rc.RollNumber != 87 {
		t.Errorf("header = %s/%d/%d/%d, want house/119/2/87", rc.Chamber, rc.Congress, rc.Session, rc.RollNumber)
	}
	if rc.BillRef != "H R 1234" {
		t.Errorf("BillRef = %q", rc.BillRef)
	}
	want := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	if !rc.VotedAt.Equal(want) {
		t.Errorf("VotedAt = %v, want %v", rc.VotedAt, want)
	}

	// The third recorded-vote has no name-id and must be dropped.
	if len(rc.Positions) != 2 {
		t.Fatalf("positions = %d, want 2", len(rc.Positions))
	}
	if rc.Positions[0].BioguideID != "H001234" || rc.Positions[0].Position != "yea" {
		t.Errorf("position[0] = %s/%s", rc.Positions[0].BioguideID, rc.Positions[0].Position)
	}
	if rc.Positions[1].BioguideID != "S005678" || rc.Positions[1].Position != "nay" {
		t.Errorf("position[1] = %s/%s", rc.Positions[1].BioguideID, rc.Positions[1].Position)
	}
}

const senateRollFixture = `<?xml version="1.0"?>
<roll_call_vote>
  <congress>119</congress>
  <session>1</session>
  <vote_number>42</vote_number>
  <vote_question_text>On the Nomination</vote_question_text>
  <vote_result>Confirmed</vote_result>
  <vote_date>June 3, 2025, 05:30 PM</vote_date>
  <document>
    <document_name>PN123</document_name>
  </document>
  <members>
    <member>
      <last_name>Harrington</last_name>
      <first_name>William</first_name>
      <state>OH</state>
      <vote_cast>Guilty</vote_cast>
    </member>
    <member>
      <last_name>Vasquez</last_name>
      <first_name>Maria</first_name>
      <state>NM</state>
      <vote_cast>Nay</vote_cast>
    </member>
    <member>
      <last_name>Unknown</last_name>
      <first_name>Pat</first_name>
      <state>WY</state>
      <vote_cast>Yea</vote_cast>
    </member>
  </members>
</roll_call_vote>`

func senateTestIndex() *memberIndex {
	legs := []models.Legislator{
		{BioguideID: "H000001", LastName: "Harrington", State: "OH", Chamber: ChamberSenate},
		{BioguideID: "V000002", LastName: "Vasquez", State: "NM", Chamber: ChamberSenate},
		// Same key in the other chamber must not leak into the index.
		{BioguideID: "V000003", LastName: "Vasquez", State: "NM", Chamber: ChamberHouse},
	}
	return newMemberIndex(legs, ChamberSenate)
}

func TestParseSenateRoll(t *testing.T) {
	rc, skipped, err := parseSenateRoll([]byte(senateRollFixture), senateTestIndex())
	if err != nil {
		t.Fatalf("parseSenateRoll: %v", err)
	}

	if rc.Chamber != ChamberSenate || rc.Congress != 119 || rc.Session != 1 || rc.RollNumber != 42 {
		t.Errorf("header = %s/%d/%d/%d, want senate/119/1/42", rc.Chamber, rc.Congress, rc.Session, rc.RollNumber)
	}
	if rc.BillRef != "PN123" {
		t.Errorf("BillRef = %q", rc.BillRef)
	}
	want := time.Date(2025, time.June, 3, 17, 30, 0, 0, time.UTC)
	if !rc.VotedAt.Equal(want) {
		t.Errorf("VotedAt = %v, want %v", rc.VotedAt, want)
	}

	if skipped != 1 {
		t.Errorf("skipped = %d, want 1 (unknown member)", skipped)
	}
	if len(rc.Positions) != 2 {
		t.Fatalf("positions = %d, want 2", len(rc.Positions))
	}
	if rc.Positions[0].BioguideID != "H000001" || rc.Positions[0].Position != "yea" {
		t.Errorf("position[0] = %s/%s", rc.Positions[0].BioguideID, rc.Positions[0].Position)
	}
	if rc.Positions[1].BioguideID != "V000002" || rc.Positions[1].Position != "nay" {
		t.Errorf("position[1] = %s/%s", rc.Positions[1].BioguideID, rc.Positions[1].Position)
	}
}

func TestMemberIndexAmbiguity(t *testing.T) {
	legs := []models.Legislator{
		{BioguideID: "J000001", LastName: "Johnson", State: "GA", Chamber: ChamberSenate},
		{BioguideID: "J000002", LastName: "Johnson", State: "GA", Chamber: ChamberSenate},
		{BioguideID: "O000001", LastName: "Ossoff", State: "GA", Chamber: ChamberSenate},
	}
	idx := newMemberIndex(legs, ChamberSenate)

	if _, ok := idx.resolve("Johnson", "GA"); ok {
		t.Error("ambiguous (last name, state) key resolved; want skip")
	}
	if id, ok := idx.resolve("OSSOFF", "ga"); !ok || id != "O000001" {
		t.Errorf("resolve(OSSOFF, ga) = %q, %v; want O000001", id, ok)
	}
}

func TestNormalizePosition(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Yea", "yea"},
		{"Aye", "yea"},
		{"yes", "yea"},
		{"Guilty", "yea"},
		{"Nay", "nay"},
		{"No", "nay"},
		{"Not Guilty", "nay"},
		{"Present", "present"},
		{"Not Voting", "not_voting"},
		{"", "not_voting"},
	}
	for _, tt := range tests {
		if got := normalizePosition(tt.in); got != tt.want {
			t.Errorf("normalizePosition(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseHouseSession(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1st", 1}, {"2nd", 2}, {" 1 ", 1}, {"2", 2}, {"3rd", 0}, {"", 0},
	}
	for _, tt := range tests {
		if got := parseHouseSession(tt.in); got != tt.want {
			t.Errorf("parseHouseSession(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHouseSessionYear(t *testing.T) {
	tests := []struct {
		congress, session, want int
	}{
		{119, 1, 2025},
		{119, 2, 2026},
		{1, 1, 1789},
		{118, 2, 2024},
	}
	for _, tt := range tests {
		if got := houseSessionYear(tt.congress, tt.session); got != tt.want {
			t.Errorf("houseSessionYear(%d, %d) = %d, want %d", tt.congress, tt.session, got, tt.want)
		}
	}
}
