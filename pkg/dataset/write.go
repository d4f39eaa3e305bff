package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kinforge/kinchart/pkg/kin"
)

// Write serializes the store back to the array document shape in
// insertion order. Attribute keys are emitted at the top level of each
// record, matching where they came from, so a written document decodes
// to an equivalent store.
func Write(s *kin.Store, w io.Writer) error {
	records := make([]map[string]any, 0, s.Len())
	for _, p := range s.People() {
		rec := map[string]any{"id": p.ID}
		if p.Name != "" {
			rec["name"] = p.Name
		}
		if p.Gender != kin.GenderUnknown {
			rec["gender"] = string(p.Gender)
		}
		if len(p.Parents) > 0 {
			rec["parents"] = p.Parents
		}
		if len(p.Children) > 0 {
			rec["children"] = p.Children
		}
		if len(p.Spouses) > 0 {
			rec["spouses"] = p.Spouses
		}
		for k, v := range p.Attrs {
			if !coreFields[k] {
				rec[k] = v
			}
		}
		records = append(records, rec)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

// WriteFile writes the store to a JSON file.
func WriteFile(s *kin.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(s, f)
}
