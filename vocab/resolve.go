package vocab

import (
	"strings"
)

// Relation names a relationship collection on Term
type Relation int

const (
	RelationChildren Relation = iota + 1
	RelationBroader
	RelationRelated
	RelationNonPreferred
)

// AllRelations is every relation Expand can fill
var AllRelations = []Relation{RelationChildren, RelationBroader, RelationRelated, RelationNonPreferred}

var relationNames = map[Relation]string{
	RelationChildren:     "children",
	RelationBroader:      "broader",
	RelationRelated:      "related",
	RelationNonPreferred: "non-preferred",
}

func (r Relation) String() string { return relationNames[r] }

// ParseRelation maps a relation name; "narrower" is accepted for children
func ParseRelation(s string) (Relation, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "narrower" {
		return RelationChildren, true
	}
	if s == "nonpreferred" {
		return RelationNonPreferred, true
	}
	for r, name := range relationNames {
		if name == s {
			return r, true
		}
	}
	return 0, false
}

// Expand fills the requested relationship collections of t (all of them
// when none are named). t is modified in place; the document is not.
func (d *Document) Expand(t *Term, relations ...Relation) {
	if len(relations) == 0 {
		relations = AllRelations
	}
	for _, r := range relations {
		switch r {
		case RelationChildren:
			t.ChildTerms = d.GetChildTerms(t.ID)
		case RelationBroader:
			t.BroaderTerms = d.GetBroaderTerms(t.ID, false)
		case RelationRelated:
			t.RelatedTerms = d.GetRelatedTerms(t.ID, "")
		case RelationNonPreferred:
			t.NonPreferredTerms = d.GetNonPreferredTerms(t.ID)
		}
	}
}

// ResolvePreferred finds terms named text in any state and replaces each
// non-preferred match with the preferred term of its concept. The result
// holds each preferred term once.
func (d *Document) ResolvePreferred(text string, exact bool) *TermCollection {
	out := d.newCollection()
	seen := make(map[string]bool)

	for _, match := range d.GetTerms(text, exact, StateAny).Terms {
		t := match
		if !t.Preferred {
			p, ok := d.GetPreferredTerm(t.ConceptID)
			if !ok {
				continue
			}
			t = p
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out.Append(t)
	}

	out.Sort()
	return out
}

// EntryStatus classifies one validated entry
type EntryStatus int

const (
	EntryUnknown EntryStatus = iota
	EntryPreferred
	EntryNonPreferred
	EntryAmbiguous
)

var entryStatusNames = map[EntryStatus]string{
	EntryUnknown:      "unknown",
	EntryPreferred:    "preferred",
	EntryNonPreferred: "non-preferred",
	EntryAmbiguous:    "ambiguous",
}

func (s EntryStatus) String() string { return entryStatusNames[s] }

func (s EntryStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ValidationEntry is the outcome for one entry of a validated value
type ValidationEntry struct {
	Value  string      `json:"value"`
	Status EntryStatus `json:"status"`
	// Term is the preferred term the entry stands for; nil when unknown
	// or ambiguous
	Term *Term `json:"term,omitempty"`
	// Candidates lists the preferred terms an ambiguous entry could mean
	Candidates *TermCollection `json:"candidates,omitempty"`
}

// ValidationResult is the outcome of Validate
type ValidationResult struct {
	ByID    bool              `json:"by_id"`
	Entries []ValidationEntry `json:"entries"`
}

// Valid reports whether every entry is a preferred term
func (r ValidationResult) Valid() bool {
	for _, e := range r.Entries {
		if e.Status != EntryPreferred {
			return false
		}
	}
	return true
}

// Suggested rewrites the value with preferred terms, dropping entries that
// cannot be resolved. Ids are used when the value held ids.
func (r ValidationResult) Suggested() string {
	c := NewTermCollection()
	for _, e := range r.Entries {
		if e.Term != nil && c.IndexOfID(e.Term.ID, StateAny) < 0 {
			c.Append(e.Term)
		}
	}
	if r.ByID {
		return c.IDs()
	}
	return c.Texts()
}

// Validate checks each "; "-separated entry of value against the
// vocabulary, by id when byID is set and by exact name otherwise.
func (d *Document) Validate(value string, byID bool) ValidationResult {
	result := ValidationResult{ByID: byID, Entries: []ValidationEntry{}}
	for _, entry := range SplitList(value) {
		if byID {
			result.Entries = append(result.Entries, d.validateID(entry))
		} else {
			result.Entries = append(result.Entries, d.validateName(entry))
		}
	}
	return result
}

func (d *Document) validateID(id string) ValidationEntry {
	e := ValidationEntry{Value: id}

	t, ok := d.GetTerm(id, StateAny)
	if !ok {
		return e
	}
	if t.Preferred {
		e.Status = EntryPreferred
		e.Term = t
		return e
	}
	if p, ok := d.GetPreferredTerm(t.ConceptID); ok {
		e.Status = EntryNonPreferred
		e.Term = p
	}
	return e
}

func (d *Document) validateName(name string) ValidationEntry {
	e := ValidationEntry{Value: name}

	matches := d.GetTerms(name, true, StateAny)
	if matches.Len() == 0 {
		return e
	}

	preferredMatch := false
	for _, m := range matches.Terms {
		if m.Preferred {
			preferredMatch = true
		}
	}

	resolved := d.ResolvePreferred(name, true)
	switch {
	case resolved.Len() == 1 && preferredMatch:
		e.Status = EntryPreferred
		e.Term = resolved.At(0)
	case resolved.Len() == 1:
		e.Status = EntryNonPreferred
		e.Term = resolved.At(0)
	case resolved.Len() > 1:
		e.Status = EntryAmbiguous
		e.Candidates = resolved
	}
	return e
}
