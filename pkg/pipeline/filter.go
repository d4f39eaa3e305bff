package pipeline

import (
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/kinforge/kinchart/pkg/kin"
)

// Filter narrows a store to the people relevant to a fuzzy name query:
// direct matches plus their parents, children, and spouses, so a match
// keeps enough context to chart. Matching is case- and accent-folding
// ("muller" finds "Müller"). An empty query returns the store unchanged.
func Filter(s *kin.Store, query string) *kin.Store {
	if query == "" {
		return s
	}

	keep := make(map[string]bool)
	for _, p := range s.People() {
		if !fuzzy.MatchNormalizedFold(query, p.DisplayName()) {
			continue
		}
		keep[p.ID] = true
		for _, id := range p.Parents {
			keep[id] = true
		}
		for _, id := range p.Children {
			keep[id] = true
		}
		for _, id := range p.Spouses {
			keep[id] = true
		}
	}

	// Rebuild in insertion order. Edges pointing outside the kept set
	// become dangling references, which every downstream stage skips.
	out := kin.NewStore()
	for _, p := range s.People() {
		if keep[p.ID] {
			_ = out.Add(*p)
		}
	}
	return out
}
