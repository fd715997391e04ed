package vocab

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/teranos/taxon/errors"
	"github.com/teranos/taxon/fetch"
	"github.com/teranos/taxon/logger"
)

// LoadOptions controls how a document is loaded
type LoadOptions struct {
	// Handle identifies the document to the terms it produces. Defaults to
	// the source location.
	Handle string
	// FullStructure retains a separate mutable XML tree (Document.Structure).
	FullStructure bool
	// VersionConstraint is a semver constraint the document Version must meet.
	VersionConstraint string
}

// Fetcher retrieves raw source documents
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Loader fetches and parses vocabulary documents
type Loader struct {
	fetcher Fetcher
	logger  *zap.SugaredLogger
}

// NewLoader creates a Loader. A nil fetcher reads local files and URLs
// with default fetch options.
func NewLoader(f Fetcher, l *zap.SugaredLogger) *Loader {
	l = logger.OrDefault(l, "vocab.loader")
	if f == nil {
		f = fetch.New(fetch.Options{}, l)
	}
	return &Loader{fetcher: f, logger: l}
}

// Load fetches location and parses it.
//
// Fails with ErrNotFound, ErrMalformed, ErrNotRecognized or
// ErrIncompatibleVersion; test with errors.Is.
func (l *Loader) Load(ctx context.Context, location string, opts LoadOptions) (*Document, error) {
	start := time.Now()

	data, err := l.fetcher.Fetch(ctx, location)
	if err != nil {
		wrapped := errors.Wrapf(err, "load vocabulary from %s", location)
		if errors.Is(err, fetch.ErrSourceNotFound) {
			return nil, errors.Mark(wrapped, ErrNotFound)
		}
		return nil, wrapped
	}

	doc, err := Parse(data, location, opts)
	if err != nil {
		return nil, err
	}

	l.logger.Infow("Loaded vocabulary",
		logger.FieldVocabulary, doc.Handle(),
		logger.FieldSource, location,
		logger.FieldKind, doc.Kind().String(),
		logger.FieldGeneration, doc.Generation().String(),
		logger.FieldCount, doc.ItemCount(),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return doc, nil
}

var (
	detectGeneration = xpath.MustCompile(detectGenerationExpr)
	allItems         = xpath.MustCompile("//Item")
)

// Parse builds a Document from raw XML. source is used for messages and
// as the default handle.
func Parse(data []byte, source string, opts LoadOptions) (*Document, error) {
	tree, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WithHint(
			errors.Mark(errors.Wrapf(err, "parse %s", source), ErrMalformed),
			"the source must be a well-formed XML document")
	}

	root := firstElement(tree)
	if root == nil {
		return nil, errors.Mark(errors.Newf("%s has no root element", source), ErrMalformed)
	}

	kind, ok := kindRoots[root.Data]
	if !ok {
		return nil, errors.WithHint(
			errors.Mark(errors.Newf("%s: root element <%s> is not a vocabulary", source, root.Data), ErrNotRecognized),
			"expected <ControlledList> or <ItemMapping>")
	}

	unprefix(root, root.NamespaceURI)

	gen := Modern
	if xmlquery.QuerySelector(tree, detectGeneration) != nil {
		gen = Legacy
	}

	handle := opts.Handle
	if handle == "" {
		handle = source
	}

	d := &Document{
		handle:   handle,
		source:   source,
		kind:     kind,
		gen:      gen,
		schema:   newSchema(gen),
		doc:      tree,
		root:     root,
		eval:     evaluate,
		items:    len(xmlquery.QuerySelectorAll(tree, allItems)),
		loadedAt: time.Now(),
	}
	d.langCode = documentLanguage(root)
	d.lang = parseLanguage(d.langCode)

	if err := d.checkCycles(); err != nil {
		return nil, err
	}

	if opts.VersionConstraint != "" {
		if err := checkVersion(d.Version(), opts.VersionConstraint, source); err != nil {
			return nil, err
		}
	}

	if opts.FullStructure {
		// A second parse keeps the query tree immutable
		d.structure, err = xmlquery.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "parse %s", source), ErrMalformed)
		}
		if top := firstElement(d.structure); top != nil {
			unprefix(top, top.NamespaceURI)
		}
	}

	return d, nil
}

// checkCycles rejects documents whose broader relations loop back on
// themselves, using Kahn's algorithm over preferred items.
func (d *Document) checkCycles() error {
	broader := make(map[string][]string)
	for _, item := range d.selectAll(d.schema.preferredItems()) {
		id := item.SelectAttr("Id")
		if id == "" {
			continue
		}
		for _, rel := range childElements(item, "BroaderItem") {
			if target := rel.SelectAttr("Id"); target != "" {
				broader[id] = append(broader[id], target)
			}
		}
		if _, ok := broader[id]; !ok {
			broader[id] = nil
		}
	}

	// indegree counts narrower terms pointing at each id
	indegree := make(map[string]int, len(broader))
	for id := range broader {
		if _, ok := indegree[id]; !ok {
			indegree[id] = 0
		}
		for _, target := range broader[id] {
			if _, known := broader[target]; known {
				indegree[target]++
			}
		}
	}

	var queue []string
	for id, n := range indegree {
		if n == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, target := range broader[id] {
			if _, known := indegree[target]; !known {
				continue
			}
			indegree[target]--
			if indegree[target] == 0 {
				queue = append(queue, target)
			}
		}
	}

	if visited == len(indegree) {
		return nil
	}

	var cyclic []string
	for id, n := range indegree {
		if n > 0 {
			cyclic = append(cyclic, id)
		}
	}
	sort.Strings(cyclic)
	return errors.WithDetailf(
		errors.Mark(errors.Newf("%s: broader relations form a cycle", d.source), ErrMalformed),
		"items on or above the cycle: %s", strings.Join(cyclic, ", "))
}

func checkVersion(version, constraint, source string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %q", constraint)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Mark(
			errors.Wrapf(err, "%s: document version %q is not comparable", source, version),
			ErrIncompatibleVersion)
	}

	if !c.Check(v) {
		return errors.WithHintf(
			errors.Mark(errors.Newf("%s: document version %s does not satisfy %q", source, version, constraint), ErrIncompatibleVersion),
			"update the source or relax the version constraint")
	}
	return nil
}

func firstElement(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

// unprefix drops the prefix of every element in namespace so that
// unprefixed name tests address the vocabulary whichever prefix the
// document binds it to. Elements of other namespaces keep theirs.
func unprefix(n *xmlquery.Node, namespace string) {
	if n.Type == xmlquery.ElementNode && n.NamespaceURI == namespace {
		n.Prefix = ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		unprefix(c, namespace)
	}
}

// documentLanguage is Metadata/Language, else the root xml:lang, else en
func documentLanguage(root *xmlquery.Node) string {
	if meta := childElement(root, "Metadata"); meta != nil {
		if lang := childText(meta, "Language"); lang != "" {
			return lang
		}
	}
	if lang := root.SelectAttr("xml:lang"); lang != "" {
		return lang
	}
	return DefaultLanguage
}

func parseLanguage(code string) language.Tag {
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und
	}
	return tag
}
