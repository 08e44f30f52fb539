package domain

import (
	"fmt"
	"strings"
)

// Cohort is an audience segment: an organization plus a study year, e.g.
// "ARU Year 4" or "Foundation Year 1". Cohorts are parsed on demand; they
// are not stored entities.
type Cohort struct {
	University string
	Year       string
}

func (c Cohort) String() string {
	return fmt.Sprintf("%s Year %s", c.University, c.Year)
}

// ParseCohort parses the two accepted identifier shapes, "<Org> Year <N>" and
// "<Org>-<N>". Anything else returns ok=false; callers fall back to an empty
// audience instead of failing.
func ParseCohort(identifier string) (Cohort, bool) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return Cohort{}, false
	}

	if idx := strings.LastIndex(trimmed, " Year "); idx > 0 {
		university := strings.TrimSpace(trimmed[:idx])
		year := strings.TrimSpace(trimmed[idx+len(" Year "):])
		if university != "" && isYear(year) {
			return Cohort{University: university, Year: year}, true
		}
		return Cohort{}, false
	}

	if idx := strings.LastIndex(trimmed, "-"); idx > 0 {
		university := strings.TrimSpace(trimmed[:idx])
		year := strings.TrimSpace(trimmed[idx+1:])
		if university != "" && isYear(year) {
			return Cohort{University: university, Year: year}, true
		}
	}

	return Cohort{}, false
}

func isYear(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
