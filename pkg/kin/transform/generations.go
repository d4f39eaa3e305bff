package transform

import "github.com/kinforge/kinchart/pkg/kin"

// AssignGenerations numbers every person in the store, starting each
// root ancestor (no recorded parents) at generation 1 and walking
// breadth-first through child edges.
//
// The traversal guarantees that:
//   - Every root is at generation 1.
//   - A person reachable through several paths keeps the generation of
//     their first discovery. BFS discovers shallowest-first, so this is
//     the earliest possible generation.
//   - Malformed cyclic input cannot loop: a person is processed at most
//     once, and a person listed as their own ancestor is simply never
//     revisited after the first dequeue.
//   - People unreachable from any root (data-entry gaps, disconnected
//     clusters) default to generation 1.
//
// The returned map has an entry >= 1 for every person in the store. The
// store itself is never mutated.
//
// # Performance
//
// Time complexity is O(V + E) for V people and E child edges; space is
// O(V) for the queue and visited set.
func AssignGenerations(s *kin.Store) map[string]int {
	type entry struct {
		id  string
		gen int
	}

	gens := make(map[string]int, s.Len())
	visited := make(map[string]bool, s.Len())

	queue := make([]entry, 0, s.Len())
	for _, root := range s.Roots() {
		queue = append(queue, entry{id: root.ID, gen: 1})
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		if visited[curr.id] {
			continue
		}
		visited[curr.id] = true
		gens[curr.id] = curr.gen

		p, ok := s.Person(curr.id)
		if !ok {
			continue
		}
		for _, childID := range p.Children {
			if s.Contains(childID) && !visited[childID] {
				queue = append(queue, entry{id: childID, gen: curr.gen + 1})
			}
		}
	}

	for _, id := range s.IDs() {
		if !visited[id] {
			gens[id] = 1
		}
	}

	return gens
}
