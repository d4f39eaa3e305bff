package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kinforge/kinchart/pkg/kin"
)

func TestDecodeArrayShape(t *testing.T) {
	doc := `[
		{"id": "a", "name": "Ada", "gender": "Female", "children": ["b"]},
		{"id": "b", "parents": ["a"]}
	]`
	records, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].ID != "a" || records[0].Name != "Ada" {
		t.Errorf("record[0] = %+v", records[0])
	}
	if len(records[0].Children) != 1 || records[0].Children[0] != "b" {
		t.Errorf("children = %v, want [b]", records[0].Children)
	}
}

func TestDecodeKeyedShape(t *testing.T) {
	doc := `{
		"b": {"name": "Bea"},
		"a": {"id": "a", "name": "Ada"}
	}`
	records, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	// Keyed shape is sorted by key for determinism; the record without
	// its own id inherits the map key.
	if records[0].ID != "a" || records[1].ID != "b" {
		t.Errorf("ids = [%s %s], want [a b]", records[0].ID, records[1].ID)
	}
	if records[1].Name != "Bea" {
		t.Errorf("record b name = %q, want Bea", records[1].Name)
	}
}

func TestDecodeNumericIDs(t *testing.T) {
	doc := `[
		{"id": 1, "children": [2, "3"]},
		{"id": 2, "parents": [1]},
		{"id": 3, "parents": [1]}
	]`
	records, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if records[0].ID != "1" {
		t.Errorf("id = %q, want \"1\"", records[0].ID)
	}
	if len(records[0].Children) != 2 || records[0].Children[0] != "2" || records[0].Children[1] != "3" {
		t.Errorf("children = %v, want [2 3]", records[0].Children)
	}
}

func TestDecodeMalformedRecordsRecovered(t *testing.T) {
	doc := `[
		{"id": "ok", "spouses": "not-an-array", "gender": 42},
		{"name": "no id, dropped"},
		"not an object",
		{"id": "ok2", "parents": [null, {"x":1}, "p"]}
	]`
	records, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (bad ones dropped)", len(records))
	}
	if len(records[0].Spouses) != 0 {
		t.Errorf("spouses = %v, want empty for non-array value", records[0].Spouses)
	}
	if got := records[1].Parents; len(got) != 1 || got[0] != "p" {
		t.Errorf("parents = %v, want [p] (non-id entries skipped)", got)
	}
}

func TestDecodeUnparsableDocument(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{{{`)); err == nil {
		t.Error("unparsable document should fail")
	}
	if _, err := Decode(strings.NewReader(`42`)); err == nil {
		t.Error("scalar document should fail")
	}
}

func TestDecodeAttrsPassthrough(t *testing.T) {
	doc := `[{"id": "a", "name": "Ada", "born": "1815", "photo": "ada.jpg", "generation": 99}]`
	records, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	attrs := records[0].Attrs
	if attrs["born"] != "1815" || attrs["photo"] != "ada.jpg" {
		t.Errorf("attrs = %v, want born/photo preserved", attrs)
	}
	// Input generation is always recomputed, never carried through.
	if _, ok := attrs["generation"]; ok {
		t.Error("input generation field should be discarded")
	}
}

func TestNormalize(t *testing.T) {
	records := []Record{
		{ID: "a", Gender: "FEMALE", Children: []string{"b"}},
		{ID: "b"},
		{ID: "a", Name: "dup, ignored"},
	}
	s := Normalize(records)

	if s.Len() != 2 {
		t.Fatalf("store len = %d, want 2", s.Len())
	}
	a, _ := s.Person("a")
	if a.Gender != kin.GenderFemale {
		t.Errorf("gender = %q, want female", a.Gender)
	}
	if a.Name != "" {
		t.Error("duplicate record should not overwrite the first")
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "a", "children": ["b"]}, {"id": "b", "parents": ["a"]}]`))
	}))
	defer srv.Close()

	s, err := Fetch(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("store len = %d, want 2", s.Len())
	}
}

func TestFetchNotFoundIsTerminal(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := Fetch(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("404 should be a terminal load failure")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"id": "a"}]`))
	}))
	defer srv.Close()

	s, err := Fetch(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls)
	}
	if s.Len() != 1 {
		t.Errorf("store len = %d, want 1", s.Len())
	}
}
