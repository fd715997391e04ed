package vocab

import (
	"github.com/antchfx/xmlquery"
)

// GetTerm returns the term with id in state. Zero or several matches both
// report false.
func (d *Document) GetTerm(id string, state TermState) (*Term, bool) {
	expr, ok := d.schema.termByID(id, state)
	if !ok {
		return nil, false
	}
	return d.single(expr)
}

// GetPreferredTerm returns the preferred term for a concept id
func (d *Document) GetPreferredTerm(conceptID string) (*Term, bool) {
	return d.single(d.schema.preferredByConcept(conceptID))
}

func (d *Document) single(expr string) (*Term, bool) {
	nodes := d.selectAll(expr)
	if len(nodes) != 1 {
		return nil, false
	}
	return d.termFromNode(nodes[0]), true
}

// GetTerms matches text against primary names, and for StateAny and
// StateNonPreferred against alternative names too. exact compares whole
// names; otherwise text may occur anywhere. Case is ignored.
func (d *Document) GetTerms(text string, exact bool, state TermState) *TermCollection {
	out := d.newCollection()

	items, alternatives := d.schema.termsByName(text, exact, state)
	if items != "" {
		out.Append(d.terms(d.selectAll(items))...)
	}
	if alternatives != "" {
		out.Append(d.terms(d.selectAll(alternatives))...)
	}

	out.Sort()
	return out
}

// RootTerms returns the preferred terms without broader terms
func (d *Document) RootTerms() *TermCollection {
	out := d.newCollection()
	out.Append(d.terms(d.selectAll(d.schema.roots()))...)
	out.Sort()
	return out
}

// GetChildTerms returns the terms listing id as a broader term
func (d *Document) GetChildTerms(id string) *TermCollection {
	out := d.newCollection()
	out.Append(d.terms(d.selectAll(d.schema.children(id)))...)
	out.Sort()
	return out
}

// GetDescendantTerms walks narrower relations breadth-first from id, up to
// depth levels (-1 for no limit), and returns every descendant once,
// excluding id itself. Depth 0 returns an empty collection.
func (d *Document) GetDescendantTerms(id string, depth int) *TermCollection {
	out := d.newCollection()
	if depth == 0 {
		return out
	}

	d.walkDescendants(id, depth, func(_ *Term, children []*Term) {
		out.Append(children...)
	})
	out.Sort()
	return out
}

// GetDescendantTree is GetDescendantTerms returning the seed term with
// ChildTerms filled at every level. The collection holds only the seed, or
// nothing when id is not a preferred term.
func (d *Document) GetDescendantTree(id string, depth int) *TermCollection {
	out := d.newCollection()
	if depth == 0 {
		return out
	}

	seed, ok := d.GetTerm(id, StatePreferred)
	if !ok {
		return out
	}

	nodes := map[string]*Term{id: seed}
	d.walkDescendants(id, depth, func(parent *Term, children []*Term) {
		p := nodes[parent.ID]
		p.ChildTerms = d.newCollection()
		p.ChildTerms.Append(children...)
		p.ChildTerms.Sort()
		for _, c := range children {
			nodes[c.ID] = c
		}
	})

	out.Append(seed)
	return out
}

// walkDescendants visits each level of the narrower hierarchy below id.
// visit receives every expanded term with its unvisited children. The walk
// stops when a level adds nothing new or the depth budget is spent.
func (d *Document) walkDescendants(id string, depth int, visit func(parent *Term, children []*Term)) {
	visited := map[string]bool{id: true}
	frontier := []*Term{{ID: id}}

	for remaining := depth; len(frontier) > 0 && remaining != 0; remaining-- {
		var next []*Term
		for _, parent := range frontier {
			var fresh []*Term
			for _, child := range d.terms(d.selectAll(d.schema.children(parent.ID))) {
				if visited[child.ID] {
					continue
				}
				visited[child.ID] = true
				fresh = append(fresh, child)
			}
			if len(fresh) > 0 {
				visit(parent, fresh)
				next = append(next, fresh...)
			}
		}
		frontier = next
	}
}

// GetBroaderTerms returns the broader terms of id. With defaultOnly it
// returns at most one: the relation flagged Default, or else the only
// unflagged relation. A default relation whose id names several items
// resolves to nothing.
func (d *Document) GetBroaderTerms(id string, defaultOnly bool) *TermCollection {
	out := d.newCollection()

	var relations []*xmlquery.Node
	if defaultOnly {
		for _, expr := range d.schema.defaultBroaderRelations(id) {
			if matched := d.selectAll(expr); len(matched) == 1 {
				relations = matched
				break
			}
		}
	} else {
		relations = d.selectAll(d.schema.broaderRelations(id))
	}

	targets := d.resolveRelations(relations, "")
	if defaultOnly && len(targets) != 1 {
		return out
	}
	out.Append(targets...)
	out.Sort()
	return out
}

// GetRelatedTerms returns the related terms of id, leaving out excludeID
// (pass "" to keep all)
func (d *Document) GetRelatedTerms(id, excludeID string) *TermCollection {
	out := d.newCollection()
	out.Append(d.resolveRelations(d.selectAll(d.schema.relatedRelations(id)), excludeID)...)
	out.Sort()
	return out
}

// resolveRelations maps BroaderItem/RelatedItem nodes to the preferred
// terms they point at, in one query
func (d *Document) resolveRelations(relations []*xmlquery.Node, excludeID string) []*Term {
	seen := make(map[string]bool, len(relations))
	var ids []string
	for _, rel := range relations {
		target := rel.SelectAttr("Id")
		if target == "" || target == excludeID || seen[target] {
			continue
		}
		seen[target] = true
		ids = append(ids, target)
	}
	if len(ids) == 0 {
		return nil
	}
	return d.terms(d.selectAll(d.schema.itemsByIDs(ids)))
}

// GetNonPreferredTerms returns the labels that resolve to preferredID
func (d *Document) GetNonPreferredTerms(preferredID string) *TermCollection {
	out := d.newCollection()
	out.Append(d.terms(d.selectAll(d.schema.nonPreferred(preferredID)))...)
	out.Sort()
	return out
}

// HasNonPreferredTerms reports whether the document has any non-preferred
// label. Evaluated once per document.
func (d *Document) HasNonPreferredTerms() bool {
	d.nonPreferredOnce.Do(func() {
		d.hasNonPreferred = len(d.selectAll(d.schema.hasNonPreferred())) > 0
	})
	return d.hasNonPreferred
}

// HasRelatedTerms reports whether any item has a related term. Evaluated
// once per document.
func (d *Document) HasRelatedTerms() bool {
	d.relatedOnce.Do(func() {
		d.hasRelated = len(d.selectAll(d.schema.hasRelated())) > 0
	})
	return d.hasRelated
}

func (d *Document) terms(nodes []*xmlquery.Node) []*Term {
	out := make([]*Term, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.termFromNode(n))
	}
	return out
}
