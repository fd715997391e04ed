package vocab

import (
	"strings"
	"sync"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/text/language"

	"github.com/teranos/taxon/logger"
)

// DefaultLanguage applies when a document declares no language
const DefaultLanguage = "en"

// evaluator runs one compiled structural query against the document tree
type evaluator func(top *xmlquery.Node, expr *xpath.Expr) []*xmlquery.Node

// Document is a loaded vocabulary.
//
// A Document is read-only once Parse returns and safe for concurrent use.
// Terms it returns are fresh copies owned by the caller.
type Document struct {
	handle string
	source string
	kind   Kind
	gen    Generation
	schema schema

	langCode string
	lang     language.Tag

	doc       *xmlquery.Node // document node
	root      *xmlquery.Node // ControlledList / ItemMapping element
	structure *xmlquery.Node // separate mutable tree, FullStructure only

	eval     evaluator
	items    int
	loadedAt time.Time

	nonPreferredOnce sync.Once
	hasNonPreferred  bool
	relatedOnce      sync.Once
	hasRelated       bool
}

// Handle is the key terms use to refer back to this document
func (d *Document) Handle() string { return d.handle }

// Source is the location the document was loaded from
func (d *Document) Source() string { return d.source }

func (d *Document) Kind() Kind             { return d.kind }
func (d *Document) Generation() Generation { return d.gen }
func (d *Document) ItemCount() int         { return d.items }
func (d *Document) LoadedAt() time.Time    { return d.loadedAt }

// Language is the declared document language code
func (d *Document) Language() string { return d.langCode }

// Structure returns the mutable tree retained with LoadOptions.FullStructure,
// or nil. Changes to it never affect query results.
func (d *Document) Structure() *xmlquery.Node { return d.structure }

func (d *Document) AbbreviatedName() string { return d.root.SelectAttr("AbbreviatedName") }
func (d *Document) ListName() string        { return d.root.SelectAttr("ListName") }
func (d *Document) FullName() string        { return d.root.SelectAttr("FullName") }
func (d *Document) Version() string         { return d.root.SelectAttr("Version") }
func (d *Document) VersionDate() string     { return d.root.SelectAttr("VersionDate") }

func (d *Document) Title() string        { return d.metadata("Title") }
func (d *Document) Description() string  { return d.metadata("Description") }
func (d *Document) DateIssued() string   { return d.metadata("DateIssued") }
func (d *Document) DateModified() string { return d.metadata("DateModified") }

// Info is a snapshot of the descriptive properties, for display
type Info struct {
	Handle          string    `json:"handle"`
	Source          string    `json:"source"`
	Kind            string    `json:"kind"`
	Generation      string    `json:"generation"`
	AbbreviatedName string    `json:"abbreviated_name,omitempty"`
	ListName        string    `json:"list_name,omitempty"`
	FullName        string    `json:"full_name,omitempty"`
	Title           string    `json:"title,omitempty"`
	Description     string    `json:"description,omitempty"`
	Version         string    `json:"version,omitempty"`
	VersionDate     string    `json:"version_date,omitempty"`
	DateIssued      string    `json:"date_issued,omitempty"`
	DateModified    string    `json:"date_modified,omitempty"`
	Language        string    `json:"language"`
	Items           int       `json:"items"`
	LoadedAt        time.Time `json:"loaded_at"`
}

// Info collects every descriptive property
func (d *Document) Info() Info {
	return Info{
		Handle:          d.handle,
		Source:          d.source,
		Kind:            d.kind.String(),
		Generation:      d.gen.String(),
		AbbreviatedName: d.AbbreviatedName(),
		ListName:        d.ListName(),
		FullName:        d.FullName(),
		Title:           d.Title(),
		Description:     d.Description(),
		Version:         d.Version(),
		VersionDate:     d.VersionDate(),
		DateIssued:      d.DateIssued(),
		DateModified:    d.DateModified(),
		Language:        d.langCode,
		Items:           d.items,
		LoadedAt:        d.loadedAt,
	}
}

func (d *Document) metadata(name string) string {
	meta := childElement(d.root, "Metadata")
	if meta == nil {
		return ""
	}
	if n := childElement(meta, name); n != nil {
		return strings.TrimSpace(n.InnerText())
	}
	return ""
}

// selectAll compiles and runs expr through the document evaluator
func (d *Document) selectAll(expr string) []*xmlquery.Node {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		logger.Logger.Errorw("Invalid structural query",
			logger.FieldVocabulary, d.handle,
			logger.FieldQuery, expr,
			logger.FieldError, err)
		return nil
	}
	return d.eval(d.doc, compiled)
}

// instrument wraps the evaluator. Tests use it to count structural queries;
// it must not be called once the document is shared.
func (d *Document) instrument(wrap func(next evaluator) evaluator) {
	d.eval = wrap(d.eval)
}

func evaluate(top *xmlquery.Node, expr *xpath.Expr) []*xmlquery.Node {
	return xmlquery.QuerySelectorAll(top, expr)
}

// newCollection creates an empty result collection collated for the document
func (d *Document) newCollection() *TermCollection {
	return &TermCollection{Terms: []*Term{}, Language: d.lang}
}

// termFromNode maps an Item or an embedded AlternativeName to a Term
func (d *Document) termFromNode(n *xmlquery.Node) *Term {
	if n.Data != "Item" && n.Parent != nil && n.Parent.Data == "Item" {
		return d.alternativeTerm(n)
	}
	return d.itemTerm(n)
}

func (d *Document) itemTerm(n *xmlquery.Node) *Term {
	t := &Term{
		ID:         n.SelectAttr("Id"),
		ConceptID:  n.SelectAttr("ConceptId"),
		Preferred:  d.schema.embedded() || parseBool(n.SelectAttr("Preferred")),
		Language:   d.nodeLanguage(n),
		Vocabulary: d.handle,
	}
	d.readItemMetadata(n, t)
	t.Text = d.selectName(n, t.Language)
	t.ScopeNotes = childText(n, "ScopeNotes")
	t.HistoryNotes = childText(n, "HistoryNotes")

	if t.ConceptID == "" {
		if t.Preferred {
			t.ConceptID = t.ID
		} else if use := childElement(n, "UseItem"); use != nil {
			t.ConceptID = use.SelectAttr("Id")
		}
	}
	return t
}

// alternativeTerm maps an embedded label; it has no id of its own and takes
// its metadata from the item it belongs to.
func (d *Document) alternativeTerm(n *xmlquery.Node) *Term {
	parent := n.Parent
	t := &Term{
		Text:       strings.TrimSpace(n.InnerText()),
		ConceptID:  parent.SelectAttr("Id"),
		Preferred:  false,
		Language:   d.nodeLanguage(n),
		Vocabulary: d.handle,
	}
	d.readItemMetadata(parent, t)
	return t
}

func (d *Document) readItemMetadata(n *xmlquery.Node, t *Term) {
	t.Obsolete = parseBool(n.SelectAttr("Obsolete"))
	t.AddedInVersion = n.SelectAttr("AddedInVersion")
	t.UpdatedInVersion = n.SelectAttr("LastUpdatedInVersion")
	t.AtoZ = parseBool(n.SelectAttr("AToZ"))
	t.Category = n.SelectAttr("Category")
	t.EquivalentType = ParseEquivalentType(n.SelectAttr("EquivalentType"))
}

// selectName picks the Name in lang, then in the document language, then
// the first Name.
func (d *Document) selectName(item *xmlquery.Node, lang string) string {
	names := childElements(item, "Name")
	if len(names) == 0 {
		return ""
	}

	for _, want := range []string{lang, d.langCode} {
		for _, n := range names {
			if sameLanguage(d.nodeLanguage(n), want) {
				return strings.TrimSpace(n.InnerText())
			}
		}
	}
	return strings.TrimSpace(names[0].InnerText())
}

// nodeLanguage is the nearest xml:lang up the tree, else the document language
func (d *Document) nodeLanguage(n *xmlquery.Node) string {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != xmlquery.ElementNode {
			continue
		}
		if lang := cur.SelectAttr("xml:lang"); lang != "" {
			return lang
		}
	}
	return d.langCode
}

func sameLanguage(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// parseBool reads a flag attribute; keep in step with flagTrue
func parseBool(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, "true") || s == "1"
}

func childElements(n *xmlquery.Node, name string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			out = append(out, c)
		}
	}
	return out
}

func childElement(n *xmlquery.Node, name string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			return c
		}
	}
	return nil
}

func childText(n *xmlquery.Node, name string) string {
	if c := childElement(n, name); c != nil {
		return strings.TrimSpace(c.InnerText())
	}
	return ""
}
