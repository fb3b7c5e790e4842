package scheme

import (
	"sort"

	"seva/internal/profile"
)

// Match filters the given schemes down to those the profile qualifies for.
// Pure function: no side effects, deterministic and idempotent for unchanged
// inputs. A scheme with no criteria matches every profile, so an empty
// profile yields the unconstrained subset of the catalog rather than nothing.
//
// Ordering: higher success rate first, then id ascending as the tie-break.
func Match(p *profile.Profile, schemes []Scheme) []Scheme {
	matched := make([]Scheme, 0, len(schemes))
	for _, s := range schemes {
		if s.Criteria.Evaluate(p) {
			matched = append(matched, s)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SuccessRate != matched[j].SuccessRate {
			return matched[i].SuccessRate > matched[j].SuccessRate
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}
