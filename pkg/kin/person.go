package kin

import "strings"

// Gender is the normalized gender value for a person.
type Gender string

// Recognized gender values. Anything else normalizes to GenderUnknown.
const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// NormalizeGender lower-cases raw input and maps unrecognized values to
// GenderUnknown.
func NormalizeGender(raw string) Gender {
	switch Gender(strings.ToLower(strings.TrimSpace(raw))) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// Person is a normalized person record.
//
// Relationship slices are never nil after [Store.Add] and may reference
// IDs that do not resolve in the store; resolution-time lookups skip
// those. Attrs carries opaque display payload (dates, notes, photo
// references) that the chart computation never interprets.
//
// Person records are treated as immutable once added: derived values
// such as generations live in separate structures keyed by ID, so the
// same store can feed repeated pipeline runs.
type Person struct {
	ID       string
	Name     string
	Gender   Gender
	Parents  []string
	Children []string
	Spouses  []string
	Attrs    map[string]any
}

// DisplayName returns the name if set, otherwise the ID.
func (p *Person) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// HasSpouse reports whether id appears in the person's spouse list.
func (p *Person) HasSpouse(id string) bool {
	for _, s := range p.Spouses {
		if s == id {
			return true
		}
	}
	return false
}

// SoleSpouse returns the spouse ID and true when the spouse list has
// exactly one entry. Couple units require this on both ends.
func (p *Person) SoleSpouse() (string, bool) {
	if len(p.Spouses) == 1 {
		return p.Spouses[0], true
	}
	return "", false
}
