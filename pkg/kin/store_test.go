package kin

import (
	"errors"
	"slices"
	"testing"
)

func TestStoreAdd(t *testing.T) {
	s := NewStore()

	if err := s.Add(Person{ID: "a", Name: "Ada"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(Person{ID: ""}); !errors.Is(err, ErrInvalidPersonID) {
		t.Errorf("empty ID error = %v, want ErrInvalidPersonID", err)
	}
	if err := s.Add(Person{ID: "a"}); !errors.Is(err, ErrDuplicatePersonID) {
		t.Errorf("duplicate ID error = %v, want ErrDuplicatePersonID", err)
	}

	p, ok := s.Person("a")
	if !ok {
		t.Fatal("person a not found")
	}
	if p.Parents == nil || p.Children == nil || p.Spouses == nil {
		t.Error("relationship slices should be initialized, got nil")
	}
	if p.Attrs == nil {
		t.Error("Attrs should be initialized, got nil")
	}
}

func TestStoreInsertionOrder(t *testing.T) {
	s := NewStore()
	ids := []string{"c", "a", "b"}
	for _, id := range ids {
		if err := s.Add(Person{ID: id}); err != nil {
			t.Fatalf("Add %s: %v", id, err)
		}
	}

	if got := s.IDs(); !slices.Equal(got, ids) {
		t.Errorf("IDs() = %v, want insertion order %v", got, ids)
	}

	people := s.People()
	for i, p := range people {
		if p.ID != ids[i] {
			t.Errorf("People()[%d].ID = %s, want %s", i, p.ID, ids[i])
		}
	}
}

func TestStoreRoots(t *testing.T) {
	s := NewStore()
	s.Add(Person{ID: "r1", Children: []string{"c"}})
	s.Add(Person{ID: "c", Parents: []string{"r1"}})
	s.Add(Person{ID: "r2"})

	roots := s.Roots()
	if len(roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(roots))
	}
	if roots[0].ID != "r1" || roots[1].ID != "r2" {
		t.Errorf("roots = [%s %s], want [r1 r2]", roots[0].ID, roots[1].ID)
	}
}

func TestStoreResolveSkipsDangling(t *testing.T) {
	s := NewStore()
	s.Add(Person{ID: "a", Children: []string{"b", "ghost", "c"}, Spouses: []string{"missing"}})
	s.Add(Person{ID: "b"})
	s.Add(Person{ID: "c"})

	kids := s.ChildrenOf("a")
	if len(kids) != 2 || kids[0].ID != "b" || kids[1].ID != "c" {
		t.Errorf("ChildrenOf(a) = %v, want [b c]", kids)
	}
	if got := s.SpousesOf("a"); len(got) != 0 {
		t.Errorf("SpousesOf(a) = %v, want empty", got)
	}
	if got := s.ChildrenOf("nope"); got != nil {
		t.Errorf("ChildrenOf(unknown) = %v, want nil", got)
	}
}

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		raw  string
		want Gender
	}{
		{"male", GenderMale},
		{"MALE", GenderMale},
		{" Female ", GenderFemale},
		{"", GenderUnknown},
		{"other", GenderUnknown},
		{"m", GenderUnknown},
	}
	for _, tt := range tests {
		if got := NormalizeGender(tt.raw); got != tt.want {
			t.Errorf("NormalizeGender(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestPersonSoleSpouse(t *testing.T) {
	p := Person{ID: "a", Spouses: []string{"b"}}
	if id, ok := p.SoleSpouse(); !ok || id != "b" {
		t.Errorf("SoleSpouse = %q, %v; want b, true", id, ok)
	}

	p.Spouses = []string{"b", "c"}
	if _, ok := p.SoleSpouse(); ok {
		t.Error("SoleSpouse should be false for multiple spouses")
	}

	p.Spouses = nil
	if _, ok := p.SoleSpouse(); ok {
		t.Error("SoleSpouse should be false for no spouses")
	}
}

func TestPersonDisplayName(t *testing.T) {
	p := Person{ID: "p1", Name: "Grace"}
	if got := p.DisplayName(); got != "Grace" {
		t.Errorf("DisplayName = %q, want Grace", got)
	}
	p.Name = ""
	if got := p.DisplayName(); got != "p1" {
		t.Errorf("DisplayName = %q, want p1", got)
	}
}
