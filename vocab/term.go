package vocab

import "strings"

// TermState selects preferred terms, non-preferred terms, or both
type TermState int

const (
	StateAny TermState = iota
	StatePreferred
	StateNonPreferred
)

func (s TermState) String() string {
	switch s {
	case StatePreferred:
		return "preferred"
	case StateNonPreferred:
		return "non-preferred"
	default:
		return "any"
	}
}

// ParseTermState accepts "any", "preferred", "non-preferred" (or "nonpreferred")
func ParseTermState(s string) (TermState, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return StateAny, true
	case "preferred":
		return StatePreferred, true
	case "non-preferred", "nonpreferred":
		return StateNonPreferred, true
	default:
		return StateAny, false
	}
}

// matches reports whether a term with the given preferred flag satisfies s
func (s TermState) matches(preferred bool) bool {
	switch s {
	case StatePreferred:
		return preferred
	case StateNonPreferred:
		return !preferred
	default:
		return true
	}
}

// EquivalentType is the mapping relation of an ItemMapping entry
type EquivalentType int

const (
	EquivalentNotSpecified EquivalentType = iota
	EquivalentExactMatch
	EquivalentBroaderMatch
	EquivalentNarrowerMatch
	EquivalentRelatedMatch
)

var equivalentNames = map[EquivalentType]string{
	EquivalentNotSpecified:  "",
	EquivalentExactMatch:    "exact-match",
	EquivalentBroaderMatch:  "broader-match",
	EquivalentNarrowerMatch: "narrower-match",
	EquivalentRelatedMatch:  "related-match",
}

func (e EquivalentType) String() string {
	if e == EquivalentNotSpecified {
		return "not-specified"
	}
	return equivalentNames[e]
}

// MarshalText renders the attribute form ("exact-match" etc.)
func (e EquivalentType) MarshalText() ([]byte, error) {
	return []byte(equivalentNames[e]), nil
}

// UnmarshalText reads the attribute form written by MarshalText
func (e *EquivalentType) UnmarshalText(text []byte) error {
	*e = ParseEquivalentType(string(text))
	return nil
}

// ParseEquivalentType maps the EquivalentType attribute. Unknown or empty
// values are NotSpecified.
func ParseEquivalentType(s string) EquivalentType {
	s = strings.ToLower(strings.TrimSpace(s))
	for e, name := range equivalentNames {
		if name != "" && name == s {
			return e
		}
	}
	return EquivalentNotSpecified
}

// Term is one vocabulary entry.
//
// Relationship collections are nil until filled by a query (see
// Document.Expand). Vocabulary is a handle naming the owning document, not
// a pointer to it, so terms outlive cache entries safely.
type Term struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	ConceptID string `json:"concept_id,omitempty"`
	Preferred bool   `json:"preferred"`
	Language  string `json:"lang,omitempty"`

	Obsolete         bool           `json:"obsolete,omitempty"`
	AddedInVersion   string         `json:"added_in_version,omitempty"`
	UpdatedInVersion string         `json:"updated_in_version,omitempty"`
	AtoZ             bool           `json:"atoz,omitempty"`
	Category         string         `json:"category,omitempty"`
	EquivalentType   EquivalentType `json:"equivalent_type,omitempty"`

	ScopeNotes   string `json:"scope_notes,omitempty"`
	HistoryNotes string `json:"history_notes,omitempty"`

	Vocabulary string `json:"vocabulary,omitempty"`

	ChildTerms        *TermCollection `json:"children,omitempty"`
	BroaderTerms      *TermCollection `json:"broader,omitempty"`
	RelatedTerms      *TermCollection `json:"related,omitempty"`
	NonPreferredTerms *TermCollection `json:"non_preferred,omitempty"`
}

// NewTerm creates a bare term carrying only its display text
func NewTerm(text string) *Term {
	return &Term{Text: text}
}

// PreferredID is the id a consumer should store for this term: its own id
// when preferred, its concept id otherwise.
func (t *Term) PreferredID() string {
	if t.Preferred || t.ConceptID == "" {
		return t.ID
	}
	return t.ConceptID
}

// Clone copies the term without its relationship collections
func (t *Term) Clone() *Term {
	c := *t
	c.ChildTerms = nil
	c.BroaderTerms = nil
	c.RelatedTerms = nil
	c.NonPreferredTerms = nil
	return &c
}

func (t *Term) String() string {
	if t.ID == "" {
		return t.Text
	}
	return t.Text + " [" + t.ID + "]"
}
