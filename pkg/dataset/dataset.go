// Package dataset decodes raw genealogical JSON documents and
// normalizes them into a [kin.Store].
//
// The wire format is deliberately loose: a document may be a top-level
// array of person records or an object keyed by person ID, IDs may be
// JSON strings or numbers, and relationship fields may be missing or
// malformed. Decoding recovers from every per-record problem by
// substituting safe defaults; only an unparsable document is a terminal
// error.
//
// Fields the chart computation does not interpret (dates, notes, photo
// references, anything custom) are preserved verbatim as the person's
// opaque attribute payload for the renderer.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	kcerrors "github.com/kinforge/kinchart/pkg/errors"
	"github.com/kinforge/kinchart/pkg/kin"
)

// Record is a decoded, not-yet-normalized person record.
type Record struct {
	ID       string
	Name     string
	Gender   string
	Parents  []string
	Children []string
	Spouses  []string
	Attrs    map[string]any
}

// fields interpreted by the core; everything else passes through Attrs.
// A "generation" key in the input is discarded: generations are always
// recomputed.
var coreFields = map[string]bool{
	"id":         true,
	"name":       true,
	"gender":     true,
	"parents":    true,
	"children":   true,
	"spouses":    true,
	"generation": true,
}

// flexID accepts a JSON string or number and normalizes it to a string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexID(n.String())
		return nil
	}
	return fmt.Errorf("id must be a string or number")
}

// flexString accepts a JSON string and decodes anything else to the
// empty string instead of failing the record.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = ""
		return nil
	}
	*f = flexString(s)
	return nil
}

// flexIDList accepts an array of flexible IDs. Any non-array value and
// any element that is not a string or number decodes to nothing rather
// than failing the record.
type flexIDList []string

func (l *flexIDList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, elem := range raw {
		var id flexID
		if err := json.Unmarshal(elem, &id); err == nil && id != "" {
			out = append(out, string(id))
		}
	}
	*l = out
	return nil
}

type wireRecord struct {
	ID       flexID     `json:"id"`
	Name     flexString `json:"name"`
	Gender   flexString `json:"gender"`
	Parents  flexIDList `json:"parents"`
	Children flexIDList `json:"children"`
	Spouses  flexIDList `json:"spouses"`
}

// Decode reads a dataset document from r and returns its records.
//
// Both top-level shapes are accepted:
//
//	[ {"id": "a", ...}, {"id": "b", ...} ]
//	{ "a": {...}, "b": {...} }
//
// For the keyed shape, a record without an "id" field inherits the map
// key. Records that are not objects, or that end up without an ID, are
// dropped. Decode fails only when the document itself is unparsable.
func Decode(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil {
		records := make([]Record, 0, len(arr))
		for _, raw := range arr {
			if rec, ok := decodeRecord(raw, ""); ok {
				records = append(records, rec)
			}
		}
		return records, nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("decode dataset: document is neither an array nor an object keyed by id")
	}

	// Sort keys for deterministic record order regardless of map
	// iteration.
	keys := slices.Sorted(maps.Keys(keyed))

	records := make([]Record, 0, len(keyed))
	for _, k := range keys {
		if rec, ok := decodeRecord(keyed[k], k); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// decodeRecord decodes one record, falling back to fallbackID when the
// record carries no id of its own. Returns false for records that are
// not objects or have no usable ID.
func decodeRecord(raw json.RawMessage, fallbackID string) (Record, bool) {
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return Record{}, false
	}

	id := string(w.ID)
	if id == "" {
		id = fallbackID
	}
	if kcerrors.ValidatePersonID(id) != nil {
		return Record{}, false
	}

	rec := Record{
		ID:       id,
		Name:     string(w.Name),
		Gender:   string(w.Gender),
		Parents:  w.Parents,
		Children: w.Children,
		Spouses:  w.Spouses,
		Attrs:    extractAttrs(raw),
	}
	return rec, true
}

// extractAttrs keeps the fields the core does not interpret.
func extractAttrs(raw json.RawMessage) map[string]any {
	var all map[string]any
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil
	}
	attrs := make(map[string]any)
	for k, v := range all {
		if !coreFields[k] {
			attrs[k] = v
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// Normalize builds a person store from decoded records.
//
// Gender is normalized per [kin.NormalizeGender]; nil relationship
// lists become empty; a duplicate ID keeps the first record seen.
// Dangling relationship IDs are kept as-is; the store tolerates them
// at resolution time.
func Normalize(records []Record) *kin.Store {
	s := kin.NewStore()
	for _, rec := range records {
		_ = s.Add(kin.Person{
			ID:       rec.ID,
			Name:     rec.Name,
			Gender:   kin.NormalizeGender(rec.Gender),
			Parents:  rec.Parents,
			Children: rec.Children,
			Spouses:  rec.Spouses,
			Attrs:    rec.Attrs,
		})
	}
	return s
}

// Read decodes and normalizes a dataset from r.
func Read(r io.Reader) (*kin.Store, error) {
	records, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return Normalize(records), nil
}

// ReadFile decodes and normalizes a dataset from a JSON file.
func ReadFile(path string) (*kin.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
