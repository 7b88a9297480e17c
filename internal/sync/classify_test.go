// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import "testing"

func TestClassifyContributor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"INTERNATIONAL BROTHERHOOD OF ELECTRICAL WORKERS", ContributorUnion},
		{"SEIU COPE", ContributorUnion},
		{"PLUMBERS LOCAL 130 FUND", ContributorUnion},
		{"AMERICA FIRST PAC", ContributorPAC},
		{"CITIZENS FOR GOOD GOVERNMENT COMMITTEE", ContributorPAC},
		{"HARRINGTON VICTORY FUND", ContributorPAC},
		{"ACME WIDGETS INC", ContributorCorporation},
		{"GLOBEX CORPORATION", ContributorCorporation},
		{"INITECH LLC", ContributorCorporation},
		{"SMITH, JANE", ContributorIndividual},
		{"", ContributorIndividual},
	}
	for _, tt := range tests {
		if got := ClassifyContributor(tt.name); got != tt.want {
			t.Errorf("ClassifyContributor(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

// Rule order is load-bearing: union patterns outrank PAC patterns, so a
// union's own PAC is classified union.
func TestClassifyPrecedence(t *testing.T) {
	if got := ClassifyContributor("TEAMSTERS LOCAL 25 PAC"); got != ContributorUnion {
		t.Errorf("union PAC = %q, want %q", got, ContributorUnion)
	}
	if got := ClassifyContributor("ACME CORP POLITICAL ACTION COMMITTEE"); got != ContributorPAC {
		t.Errorf("corporate PAC = %q, want %q (PAC rules precede corporation rules)", got, ContributorPAC)
	}
}
