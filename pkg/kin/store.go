package kin

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidPersonID is returned by [Store.Add] when the person ID is
	// empty. All people must have non-empty identifiers.
	ErrInvalidPersonID = errors.New("person ID must not be empty")

	// ErrDuplicatePersonID is returned by [Store.Add] when a person with
	// the same ID already exists. Person IDs must be unique.
	ErrDuplicatePersonID = errors.New("duplicate person ID")
)

// Store indexes people by ID with O(1) lookup.
//
// Insertion order is preserved and exposed through [Store.People] and
// [Store.IDs]; every traversal in the pipeline iterates in that order
// rather than over the map, so results never depend on map iteration
// order.
type Store struct {
	people map[string]*Person
	order  []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{people: make(map[string]*Person)}
}

// Add inserts a person into the store.
// Returns ErrInvalidPersonID if the ID is empty, or ErrDuplicatePersonID
// if the ID is already present. Nil relationship slices and a nil Attrs
// map are initialized so callers never see nil.
func (s *Store) Add(p Person) error {
	if p.ID == "" {
		return ErrInvalidPersonID
	}
	if _, exists := s.people[p.ID]; exists {
		return ErrDuplicatePersonID
	}
	if p.Parents == nil {
		p.Parents = []string{}
	}
	if p.Children == nil {
		p.Children = []string{}
	}
	if p.Spouses == nil {
		p.Spouses = []string{}
	}
	if p.Attrs == nil {
		p.Attrs = map[string]any{}
	}
	person := &p
	s.people[person.ID] = person
	s.order = append(s.order, person.ID)
	return nil
}

// Person returns the person with the given ID and true, or nil and false
// if not found.
func (s *Store) Person(id string) (*Person, bool) {
	p, ok := s.people[id]
	return p, ok
}

// Contains reports whether the ID resolves in the store.
func (s *Store) Contains(id string) bool {
	_, ok := s.people[id]
	return ok
}

// Len returns the number of people in the store.
func (s *Store) Len() int { return len(s.people) }

// IDs returns all person IDs in insertion order.
func (s *Store) IDs() []string { return slices.Clone(s.order) }

// People returns all people in insertion order.
func (s *Store) People() []*Person {
	out := make([]*Person, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.people[id])
	}
	return out
}

// Roots returns the people with no recorded parents, in insertion order.
// These anchor the generation BFS at generation 1.
func (s *Store) Roots() []*Person {
	var roots []*Person
	for _, id := range s.order {
		if p := s.people[id]; len(p.Parents) == 0 {
			roots = append(roots, p)
		}
	}
	return roots
}

// ChildrenOf returns the resolvable children of the person, in list
// order. Dangling child IDs are skipped.
func (s *Store) ChildrenOf(id string) []*Person {
	return s.resolve(id, func(p *Person) []string { return p.Children })
}

// ParentsOf returns the resolvable parents of the person, in list order.
// Dangling parent IDs are skipped.
func (s *Store) ParentsOf(id string) []*Person {
	return s.resolve(id, func(p *Person) []string { return p.Parents })
}

// SpousesOf returns the resolvable spouses of the person, in list order.
// Dangling spouse IDs are skipped.
func (s *Store) SpousesOf(id string) []*Person {
	return s.resolve(id, func(p *Person) []string { return p.Spouses })
}

func (s *Store) resolve(id string, pick func(*Person) []string) []*Person {
	p, ok := s.people[id]
	if !ok {
		return nil
	}
	var out []*Person
	for _, rid := range pick(p) {
		if r, ok := s.people[rid]; ok {
			out = append(out, r)
		}
	}
	return out
}
