package transform

import "github.com/kinforge/kinchart/pkg/kin"

// PropagateSpouseGenerations raises both ends of every spousal edge to
// the pair's maximum generation, rescanning until a full pass over the
// store changes nothing.
//
// A single pass is not enough: marriages can chain clusters together
// (a spouse's sibling's spouse, and so on), and a raise late in one
// pass can invalidate an edge checked earlier. All passes read and
// write the same gens map so every raise is visible to the next pass.
//
// Termination is guaranteed without trusting the input: generation
// values only ever increase and are bounded by the maximum generation
// already present, but the loop additionally stops after len(store)+1
// passes so that even adversarial data cannot spin it forever. On
// well-formed input the fixed point lands in a handful of passes.
//
// The number of passes executed is returned, counting the final pass
// that observed no change.
//
// gens must contain an entry for every person that appears in a spousal
// edge; [AssignGenerations] establishes that. IDs in spouse lists that
// do not resolve in the store are skipped. The result is idempotent:
// running the propagation again performs one pass and changes nothing.
func PropagateSpouseGenerations(s *kin.Store, gens map[string]int) int {
	maxPasses := s.Len() + 1
	passes := 0

	for passes < maxPasses {
		passes++
		changed := false

		for _, p := range s.People() {
			for _, spouseID := range p.Spouses {
				if !s.Contains(spouseID) {
					continue
				}
				g := max(gens[p.ID], gens[spouseID])
				if gens[p.ID] != g {
					gens[p.ID] = g
					changed = true
				}
				if gens[spouseID] != g {
					gens[spouseID] = g
					changed = true
				}
			}
		}

		if !changed {
			break
		}
	}

	return passes
}
