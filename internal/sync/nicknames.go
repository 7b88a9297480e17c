// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import "strings"

// nicknameAliases maps a canonical given name to its common short forms.
// Lookups are bidirectional and alias-to-alias (BOB equals BOBBY because
// both alias ROBERT), so the table stays maintainable as a one-way list.
var nicknameAliases = map[string][]string{
	"ALEXANDER":   {"ALEX", "SANDY"},
	"ANDREW":      {"ANDY", "DREW"},
	"ANTHONY":     {"TONY"},
	"BENJAMIN":    {"BEN", "BENNIE"},
	"BERNARD":     {"BERNIE"},
	"CHARLES":     {"CHUCK", "CHARLIE", "CHAS"},
	"CHRISTOPHER": {"CHRIS", "KIT"},
	"DANIEL":      {"DAN", "DANNY"},
	"DAVID":       {"DAVE", "DAVEY"},
	"DEBORAH":     {"DEB", "DEBBIE"},
	"DONALD":      {"DON", "DONNY"},
	"EDWARD":      {"ED", "EDDIE", "TED", "NED"},
	"ELIZABETH":   {"LIZ", "BETH", "BETSY", "BETTY"},
	"FREDERICK":   {"FRED", "FREDDY"},
	"GERALD":      {"JERRY"},
	"GREGORY":     {"GREG"},
	"JACQUELINE":  {"JACKIE"},
	"JAMES":       {"JIM", "JIMMY", "JAMIE"},
	"JENNIFER":    {"JEN", "JENNY"},
	"JOHN":        {"JACK", "JOHNNY"},
	"JOSEPH":      {"JOE", "JOEY"},
	"KATHERINE":   {"KATE", "KATIE", "KATHY", "KAY"},
	"KENNETH":     {"KEN", "KENNY"},
	"KIMBERLY":    {"KIM"},
	"LAWRENCE":    {"LARRY"},
	"MARGARET":    {"MAGGIE", "MEG", "PEGGY", "MARGE"},
	"MATTHEW":     {"MATT"},
	"MICHAEL":     {"MIKE", "MICK"},
	"MITCHELL":    {"MITCH"},
	"NICHOLAS":    {"NICK"},
	"PATRICIA":    {"PAT", "PATTY", "TRISH"},
	"PATRICK":     {"PAT", "PADDY"},
	"RAYMOND":     {"RAY"},
	"REBECCA":     {"BECKY"},
	"RICHARD":     {"RICK", "RICH", "DICK"},
	"ROBERT":      {"BOB", "BOBBY", "ROB", "ROBBIE"},
	"RONALD":      {"RON", "RONNY"},
	"SAMUEL":      {"SAM", "SAMMY"},
	"STEPHEN":     {"STEVE"},
	"STEVEN":      {"STEVE"},
	"SUSAN":       {"SUE", "SUZY"},
	"THEODORE":    {"TED", "TEDDY"},
	"THOMAS":      {"TOM", "TOMMY"},
	"TIMOTHY":     {"TIM"},
	"WILLIAM":     {"BILL", "BILLY", "WILL", "WILLIE"},
}

// nicknameTable answers "do these two given names refer to the same name"
// by way of the alias list.
type nicknameTable struct {
	// canonical maps every known form (canonical or alias) to the set of
	// canonical names it can stand for.
	canonical map[string]map[string]struct{}
}

func newNicknameTable() *nicknameTable {
	t := &nicknameTable{canonical: make(map[string]map[string]struct{})}
	add := func(form, canon string) {
		set, ok := t.canonical[form]
		if !ok {
			set = make(map[string]struct{})
			t.canonical[form] = set
		}
		set[canon] = struct{}{}
	}
	for canon, aliases := range nicknameAliases {
		add(canon, canon)
		for _, alias := range aliases {
			add(alias, canon)
		}
	}
	return t
}

// equivalent reports whether a and b share a canonical name. Exact equality
// is the caller's concern; this answers only the alias relation.
func (t *nicknameTable) equivalent(a, b string) bool {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))
	if a == "" || b == "" || a == b {
		return false
	}
	setA, okA := t.canonical[a]
	setB, okB := t.canonical[b]
	if !okA || !okB {
		return false
	}
	for canon := range setA {
		if _, ok := setB[canon]; ok {
			return true
		}
	}
	return false
}
