// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

package sync

import (
	"strings"

	"github.com/punchkit/punchsync/internal/models"
)

// Fallback keyword sets, checked when a server has no custom rules or none
// of them match. IN is checked before OUT, so a status containing keywords
// from both sets resolves to IN.
var (
	fallbackInKeywords  = []string{"in", "check-in", "check in", "punch-in"}
	fallbackOutKeywords = []string{"out", "check-out", "check out", "punch-out"}
)

// ClassifyLogType maps a raw status string to IN or OUT using the server's
// ordered rules, falling back to the built-in keyword heuristic. Matching is
// unanchored case-insensitive substring containment; within the rule list,
// first match wins. Returns ok=false when the status classifies to neither
// direction, which is a routine skip condition.
func ClassifyLogType(rawStatus string, rules []models.LogTypeMapping) (models.LogType, bool) {
	status := strings.ToLower(strings.TrimSpace(rawStatus))

	for _, rule := range rules {
		for _, value := range rule.Values() {
			if strings.Contains(status, value) {
				return rule.LogType, true
			}
		}
	}

	for _, kw := range fallbackInKeywords {
		if strings.Contains(status, kw) {
			return models.LogTypeIn, true
		}
	}
	for _, kw := range fallbackOutKeywords {
		if strings.Contains(status, kw) {
			return models.LogTypeOut, true
		}
	}
	return "", false
}
