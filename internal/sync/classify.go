// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import "strings"

// Contributor categories stored on finance filings.
const (
	ContributorUnion       = "union"
	ContributorPAC         = "pac"
	ContributorCorporation = "corporation"
	ContributorIndividual  = "individual"
)

// classifierRule maps name substrings to a category. Rules are evaluated in
// declared order, first hit wins, so precedence is auditable rule by rule:
// "TEAMSTERS LOCAL 25 PAC" is a union, not a PAC.
type classifierRule struct {
	category string
	patterns []string
}

var contributorRules = []classifierRule{
	{ContributorUnion, []string{
		"AFL-CIO", "UNION", "BROTHERHOOD OF", "WORKERS OF", " LOCAL ",
		"TEAMSTERS", "UAW", "SEIU", "AFSCME", "IBEW", "UFCW",
	}},
	{ContributorPAC, []string{
		" PAC", "PAC ", "POLITICAL ACTION", "VICTORY FUND",
		"LEADERSHIP FUND", "FOR CONGRESS", "COMMITTEE",
	}},
	{ContributorCorporation, []string{
		" INC", " CORP", " LLC", " LTD", " CO.", "CORPORATION",
		"COMPANY", "ENTERPRISES", "HOLDINGS", "GROUP",
	}},
}

// ClassifyContributor buckets a contributor name. Names matching no rule are
// individuals.
func ClassifyContributor(name string) string {
	// Padded so leading/trailing patterns like " INC" hit at the boundary.
	upper := " " + strings.ToUpper(strings.TrimSpace(name)) + " "
	for _, rule := range contributorRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(upper, pattern) {
				return rule.category
			}
		}
	}
	return ContributorIndividual
}
