package vocab

import (
	"fmt"
	"strings"
)

// Generation is the schema generation of a vocabulary document
type Generation int

const (
	GenerationUnknown Generation = iota
	// Legacy documents flag every Item with Preferred and list non-preferred
	// labels as standalone items pointing at their concept via UseItem.
	Legacy
	// Modern documents have no Preferred flag; non-preferred labels are
	// AlternativeName children of the preferred item.
	Modern
)

func (g Generation) String() string {
	switch g {
	case Legacy:
		return "legacy"
	case Modern:
		return "modern"
	default:
		return "unknown"
	}
}

// Kind is the root element of a vocabulary document
type Kind int

const (
	KindUnknown Kind = iota
	KindControlledList
	KindItemMapping
)

var kindRoots = map[string]Kind{
	"ControlledList": KindControlledList,
	"ItemMapping":    KindItemMapping,
}

func (k Kind) String() string {
	for name, kind := range kindRoots {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// detectGenerationExpr matches any item carrying an explicit preferred flag
const detectGenerationExpr = "//Item[@Preferred]"

// dialect holds the XPath fragments that differ between generations.
// Every generation check in the package goes through this table.
type dialect struct {
	// preferred and nonPreferred are item predicates; an empty nonPreferred
	// means standalone non-preferred items do not exist.
	preferred    string
	nonPreferred string

	// alternatives selects embedded non-preferred labels under an item
	// ("" when labels are standalone items).
	alternatives string

	// usePointer selects standalone non-preferred items for a concept;
	// %[1]s is the concept id literal.
	usePointer string

	// conceptMatch selects the preferred item for a concept id literal.
	conceptMatch string

	// defaultBroader lists BroaderItem predicates tried in order; the first
	// that isolates exactly one relation names the default broader term.
	// Modern documents carry no Default flag.
	defaultBroader []string

	hasNonPreferred string
	hasRelated      string
}

var (
	legacyPreferred    = "[" + flagTrue("@Preferred") + "]"
	legacyNonPreferred = "[not" + flagTrue("@Preferred") + "]"
)

var dialects = map[Generation]dialect{
	Legacy: {
		preferred:       legacyPreferred,
		nonPreferred:    legacyNonPreferred,
		usePointer:      "//Item" + legacyNonPreferred + "[UseItem/@Id=%[1]s or @ConceptId=%[1]s]",
		conceptMatch:    "//Item" + legacyPreferred + "[@ConceptId=%[1]s or (not(@ConceptId) and @Id=%[1]s)]",
		defaultBroader:  []string{"[" + flagTrue("@Default") + "]", "[not(@Default)]"},
		hasNonPreferred: "//Item" + legacyNonPreferred,
		hasRelated:      "//Item/RelatedItem",
	},
	Modern: {
		alternatives:    "AlternativeName",
		usePointer:      "//Item[@Id=%[1]s]/AlternativeName",
		conceptMatch:    "//Item[@Id=%[1]s]",
		defaultBroader:  []string{"[not(@Default)]"},
		hasNonPreferred: "//Item/AlternativeName",
		hasRelated:      "//Item/RelatedItem",
	},
}

// schema builds the structural query for each operation of one generation
type schema struct {
	gen Generation
	d   dialect
}

func newSchema(gen Generation) schema {
	return schema{gen: gen, d: dialects[gen]}
}

// stateFilter returns the item predicate for state. ok is false when the
// generation cannot address items in that state.
func (s schema) stateFilter(state TermState) (string, bool) {
	switch state {
	case StatePreferred:
		return s.d.preferred, true
	case StateNonPreferred:
		if s.d.nonPreferred == "" {
			return "", false
		}
		return s.d.nonPreferred, true
	default:
		return "", true
	}
}

func (s schema) termByID(id string, state TermState) (string, bool) {
	filter, ok := s.stateFilter(state)
	if !ok {
		return "", false
	}
	return "//Item[@Id=" + literal(id) + "]" + filter, true
}

func (s schema) preferredByConcept(conceptID string) string {
	return fmt.Sprintf(s.d.conceptMatch, literal(conceptID))
}

// termsByName returns the queries whose union answers a name search.
// Item results are standalone terms; alternative results are embedded
// labels to be mapped through their parent item.
func (s schema) termsByName(text string, exact bool, state TermState) (items, alternatives string) {
	match := nameMatch(text, exact)

	if filter, ok := s.stateFilter(state); ok {
		items = "//Item[Name[" + match + "]]" + filter
	}
	if s.d.alternatives != "" && state != StatePreferred {
		alternatives = "//Item/" + s.d.alternatives + "[" + match + "]"
	}
	return items, alternatives
}

func (s schema) preferredItems() string {
	return "//Item" + s.d.preferred
}

func (s schema) roots() string {
	return "//Item" + s.d.preferred + "[not(BroaderItem)]"
}

func (s schema) children(id string) string {
	return "//Item" + s.d.preferred + "[BroaderItem/@Id=" + literal(id) + "]"
}

// broaderRelations selects the BroaderItem relation nodes of a preferred item
func (s schema) broaderRelations(id string) string {
	return "//Item[@Id=" + literal(id) + "]" + s.d.preferred + "/BroaderItem"
}

// defaultBroaderRelations lists the queries tried in order for the default
// broader relation; the first returning exactly one relation wins
func (s schema) defaultBroaderRelations(id string) []string {
	base := s.broaderRelations(id)
	out := make([]string, len(s.d.defaultBroader))
	for i, predicate := range s.d.defaultBroader {
		out[i] = base + predicate
	}
	return out
}

func (s schema) relatedRelations(id string) string {
	return "//Item[@Id=" + literal(id) + "]" + s.d.preferred + "/RelatedItem"
}

// itemsByIDs selects the preferred items with any of ids
func (s schema) itemsByIDs(ids []string) string {
	conds := make([]string, len(ids))
	for i, id := range ids {
		conds[i] = "@Id=" + literal(id)
	}
	return "//Item[" + strings.Join(conds, " or ") + "]" + s.d.preferred
}

func (s schema) nonPreferred(preferredID string) string {
	return fmt.Sprintf(s.d.usePointer, literal(preferredID))
}

func (s schema) hasNonPreferred() string { return s.d.hasNonPreferred }
func (s schema) hasRelated() string      { return s.d.hasRelated }

// embedded reports whether non-preferred labels are nested under items
func (s schema) embedded() bool {
	return s.d.alternatives != ""
}

// flagTrue is the XPath form of parseBool: "true" in any case, or "1".
// A missing attribute reads as false.
func flagTrue(attr string) string {
	v := "normalize-space(" + attr + ")"
	return "(lower-case(" + v + ")='true' or " + v + "='1')"
}

func nameMatch(text string, exact bool) string {
	needle := literal(strings.ToLower(strings.TrimSpace(text)))
	if exact {
		return "lower-case(normalize-space(.))=" + needle
	}
	return "contains(lower-case(.)," + needle + ")"
}

// literal quotes s as an XPath string literal. XPath 1.0 has no escape
// sequence, so values holding both quote kinds are built with concat().
func literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	args := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			args = append(args, `"'"`)
		}
		if p != "" {
			args = append(args, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(args, ",") + ")"
}
