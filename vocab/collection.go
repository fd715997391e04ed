package vocab

import (
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Separator joins entries in serialized id and name lists
const Separator = "; "

// TermCollection is an ordered list of terms.
//
// Insertion order carries no meaning; Sort establishes the canonical order
// (case-insensitive by Text, collated for Language). The collection never
// de-duplicates on its own.
type TermCollection struct {
	Terms []*Term
	// Language drives collation in Sort. The zero value collates with the
	// root locale.
	Language language.Tag
}

// NewTermCollection creates a collection holding terms
func NewTermCollection(terms ...*Term) *TermCollection {
	return &TermCollection{Terms: append([]*Term{}, terms...)}
}

// ParseIDs builds a collection of bare terms from a "; "-separated id list
func ParseIDs(s string) *TermCollection {
	c := NewTermCollection()
	c.ReadIDs(s)
	return c
}

// ParseNames builds a collection of bare terms from a "; "-separated name list
func ParseNames(s string) *TermCollection {
	c := NewTermCollection()
	c.ReadNames(s)
	return c
}

// Len returns the number of terms; nil collections are empty
func (c *TermCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Terms)
}

// At returns the i'th term
func (c *TermCollection) At(i int) *Term {
	return c.Terms[i]
}

// Append adds terms to the end of the collection
func (c *TermCollection) Append(terms ...*Term) {
	c.Terms = append(c.Terms, terms...)
}

// AppendName adds a bare term with the given text and returns it
func (c *TermCollection) AppendName(name string) *Term {
	t := NewTerm(name)
	c.Terms = append(c.Terms, t)
	return t
}

// IndexOfID returns the index of the first term with id in state, or -1
func (c *TermCollection) IndexOfID(id string, state TermState) int {
	for i, t := range c.Terms {
		if t.ID == id && state.matches(t.Preferred) {
			return i
		}
	}
	return -1
}

// IndexOf returns the index of the first term whose Text equals name
// case-insensitively, in state, or -1
func (c *TermCollection) IndexOf(name string, state TermState) int {
	for i, t := range c.Terms {
		if strings.EqualFold(t.Text, name) && state.matches(t.Preferred) {
			return i
		}
	}
	return -1
}

// ContainsID reports whether any term has id, regardless of state
func (c *TermCollection) ContainsID(id string) bool {
	return c.IndexOfID(id, StateAny) >= 0
}

// Sort orders terms by Text, ignoring case, using the collation rules of
// the collection language. Equal texts fall back to id order.
func (c *TermCollection) Sort() {
	// Collators are not safe for concurrent use; one per call.
	col := collate.New(c.Language, collate.IgnoreCase)
	sort.SliceStable(c.Terms, func(i, j int) bool {
		if cmp := col.CompareString(c.Terms[i].Text, c.Terms[j].Text); cmp != 0 {
			return cmp < 0
		}
		return c.Terms[i].ID < c.Terms[j].ID
	})
}

// ReadIDs appends one bare term per id in s
func (c *TermCollection) ReadIDs(s string) {
	for _, id := range SplitList(s) {
		c.Terms = append(c.Terms, &Term{ID: id})
	}
}

// ReadNames appends one bare term per name in s
func (c *TermCollection) ReadNames(s string) {
	for _, name := range SplitList(s) {
		c.AppendName(name)
	}
}

// IDs serializes the term ids, skipping terms without one
func (c *TermCollection) IDs() string {
	return c.AppendIDs("")
}

// Texts serializes the term texts
func (c *TermCollection) Texts() string {
	return c.AppendText("")
}

// AppendIDs merges the collection's ids into existing, skipping ids
// already listed there. Repeats within the collection are kept.
func (c *TermCollection) AppendIDs(existing string) string {
	return c.merge(existing, func(t *Term) string { return t.ID }, exact)
}

// AppendText merges the collection's texts into existing, skipping names
// already listed there (case-insensitive)
func (c *TermCollection) AppendText(existing string) string {
	return c.merge(existing, func(t *Term) string { return t.Text }, strings.EqualFold)
}

// AppendIDsAndText merges "Text [ID]" entries into existing
func (c *TermCollection) AppendIDsAndText(existing string) string {
	return c.merge(existing, func(t *Term) string { return t.String() }, exact)
}

func (c *TermCollection) merge(existing string, entry func(*Term) string, same func(a, b string) bool) string {
	present := SplitList(existing)
	out := append([]string{}, present...)

	if c != nil {
		for _, t := range c.Terms {
			e := strings.TrimSpace(entry(t))
			if e == "" || containsFunc(present, e, same) {
				continue
			}
			out = append(out, e)
		}
	}
	return strings.Join(out, Separator)
}

// MarshalJSON renders the collection as a JSON array ([] when empty)
func (c *TermCollection) MarshalJSON() ([]byte, error) {
	if c == nil || c.Terms == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Terms)
}

// UnmarshalJSON reads the array form written by MarshalJSON
func (c *TermCollection) UnmarshalJSON(data []byte) error {
	var terms []*Term
	if err := json.Unmarshal(data, &terms); err != nil {
		return err
	}
	if terms == nil {
		terms = []*Term{}
	}
	c.Terms = terms
	return nil
}

// SplitList splits a serialized list on ";" and drops blank entries
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func exact(a, b string) bool { return a == b }

func containsFunc(list []string, s string, same func(a, b string) bool) bool {
	for _, v := range list {
		if same(v, s) {
			return true
		}
	}
	return false
}
