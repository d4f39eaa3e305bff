package chart

import (
	"strings"

	"github.com/kinforge/kinchart/pkg/kin"
)

// UnitKind discriminates the two display unit shapes.
type UnitKind string

const (
	// UnitSingle renders one person as one box.
	UnitSingle UnitKind = "single"
	// UnitCouple renders a mutually-exclusive married pair as one box.
	UnitCouple UnitKind = "couple"
)

// Unit is the rendering atom: one person, or one couple.
//
// A couple forms only when each member's spouse list is exactly the
// singleton of the other; anything looser (no spouse, several spouses,
// an asymmetric listing) renders each person as their own unit so that
// ambiguous marriage data can never merge inconsistently.
type Unit struct {
	ID         string
	Kind       UnitKind
	Persons    []string // 1 entry for single, 2 for couple (store order)
	Generation int
}

// Label builds a display label from the member names.
func (u *Unit) Label(s *kin.Store) string {
	names := make([]string, 0, len(u.Persons))
	for _, id := range u.Persons {
		if p, ok := s.Person(id); ok {
			names = append(names, p.DisplayName())
		}
	}
	return strings.Join(names, " & ")
}

// Units is the partition of all people into display units.
type Units struct {
	All      []Unit
	byPerson map[string]int // person ID -> index into All
}

// ByPerson returns the unit containing the given person.
func (u *Units) ByPerson(id string) (*Unit, bool) {
	i, ok := u.byPerson[id]
	if !ok {
		return nil, false
	}
	return &u.All[i], true
}

// ByID returns the unit with the given unit ID.
func (u *Units) ByID(id string) (*Unit, bool) {
	for i := range u.All {
		if u.All[i].ID == id {
			return &u.All[i], true
		}
	}
	return nil, false
}

// coupleID builds a canonical unit ID for a pair, independent of
// traversal direction.
func coupleID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "+" + b
}

// BuildUnits partitions every person in the store into display units.
//
// People are visited in store insertion order. The current person
// merges with their spouse only when both sides list each other as
// their sole spouse and the spouse has not already been consumed by an
// earlier unit. Every person lands in exactly one unit; a couple unit's
// generation is the max of its members'.
func BuildUnits(s *kin.Store, gens map[string]int) *Units {
	units := &Units{byPerson: make(map[string]int, s.Len())}
	used := make(map[string]bool, s.Len())

	for _, p := range s.People() {
		if used[p.ID] {
			continue
		}

		if spouseID, ok := p.SoleSpouse(); ok && spouseID != p.ID && !used[spouseID] {
			if spouse, found := s.Person(spouseID); found {
				if back, ok := spouse.SoleSpouse(); ok && back == p.ID {
					idx := len(units.All)
					units.All = append(units.All, Unit{
						ID:         coupleID(p.ID, spouse.ID),
						Kind:       UnitCouple,
						Persons:    []string{p.ID, spouse.ID},
						Generation: max(gens[p.ID], gens[spouse.ID]),
					})
					units.byPerson[p.ID] = idx
					units.byPerson[spouse.ID] = idx
					used[p.ID] = true
					used[spouse.ID] = true
					continue
				}
			}
		}

		idx := len(units.All)
		units.All = append(units.All, Unit{
			ID:         p.ID,
			Kind:       UnitSingle,
			Persons:    []string{p.ID},
			Generation: gens[p.ID],
		})
		units.byPerson[p.ID] = idx
		used[p.ID] = true
	}

	return units
}

// childUnits returns the units containing the children of any member of
// u, deduplicated in order of first appearance, excluding u itself.
func (u *Units) childUnits(s *kin.Store, unit *Unit) []*Unit {
	var out []*Unit
	seen := map[string]bool{unit.ID: true}
	for _, personID := range unit.Persons {
		for _, child := range s.ChildrenOf(personID) {
			cu, ok := u.ByPerson(child.ID)
			if !ok || seen[cu.ID] {
				continue
			}
			seen[cu.ID] = true
			out = append(out, cu)
		}
	}
	return out
}

// parentUnits returns the units containing the parents of any member of
// u, deduplicated in order of first appearance, excluding u itself.
func (u *Units) parentUnits(s *kin.Store, unit *Unit) []*Unit {
	var out []*Unit
	seen := map[string]bool{unit.ID: true}
	for _, personID := range unit.Persons {
		for _, parent := range s.ParentsOf(personID) {
			pu, ok := u.ByPerson(parent.ID)
			if !ok || seen[pu.ID] {
				continue
			}
			seen[pu.ID] = true
			out = append(out, pu)
		}
	}
	return out
}
