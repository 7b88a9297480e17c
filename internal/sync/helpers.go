// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// deriveFilingID builds a stable id for an itemized receipt from a fixed
// ordered field list: owning candidate, source record id, date, amount,
// truncated contributor name, and zip. Re-fetching the same upstream record
// always yields the same id, so duplicate inserts collapse.
func deriveFilingID(candidateID, sourceID, date string, amount float64, contributorName, zip string) string {
	name := sanitizeIDField(contributorName)
	if len(name) > 24 {
		name = name[:24]
	}
	raw := strings.Join([]string{
		sanitizeIDField(candidateID),
		sanitizeIDField(sourceID),
		sanitizeIDField(date),
		fmt.Sprintf("%.2f", amount),
		name,
		sanitizeIDField(zip),
	}, "|")

	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16])
}

// sanitizeIDField uppercases and strips whitespace so cosmetic upstream
// variations do not change the derived id.
func sanitizeIDField(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// readAll reads a bounded response body.
func readAll(r io.Reader) ([]byte, error) {
	const maxBody = 16 << 20
	return io.ReadAll(io.LimitReader(r, maxBody))
}
