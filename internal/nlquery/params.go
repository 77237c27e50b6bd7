package nlquery

import (
	"regexp"
	"strconv"
	"strings"
)

// UserParams holds typed parameters extracted from the free-text query.
// A nil field means the query carried no cue for it; defaults are applied by
// the binder, not here, keeping "what the user said" separate from "what we
// do when they said nothing".
type UserParams struct {
	ExpiryDays *int
	DaysBack   *int
}

var relativeWindowRE = regexp.MustCompile(`(?:last|past)\s+(\d+)\s+(day|week|month|year)s?`)

var windowUnitDays = map[string]int{
	"day":   1,
	"week":  7,
	"month": 30,
	"year":  365,
}

// ExtractParams derives typed parameters from the query via keyword rules.
func ExtractParams(query string) UserParams {
	lowered := normalizeQuery(query)
	var params UserParams

	switch {
	case strings.Contains(lowered, "expired"):
		params.ExpiryDays = intPtr(0)
	case strings.Contains(lowered, "expiring"):
		switch {
		case strings.Contains(lowered, "next week"):
			params.ExpiryDays = intPtr(7)
		case strings.Contains(lowered, "next month"):
			params.ExpiryDays = intPtr(30)
		default:
			params.ExpiryDays = intPtr(30)
		}
	}

	if m := relativeWindowRE.FindStringSubmatch(lowered); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			params.DaysBack = intPtr(n * windowUnitDays[m[2]])
		}
	} else if strings.Contains(lowered, "last month") || strings.Contains(lowered, "past month") {
		params.DaysBack = intPtr(30)
	} else if strings.Contains(lowered, "last week") || strings.Contains(lowered, "past week") {
		params.DaysBack = intPtr(7)
	}

	return params
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func intPtr(v int) *int {
	return &v
}
