package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/taxon/vocab"
)

// RenderTerms writes a table of terms to w, one row per term
func RenderTerms(w io.Writer, c *vocab.TermCollection) error {
	if c.Len() == 0 {
		_, err := fmt.Fprintln(w, "No matching terms")
		return err
	}

	data := pterm.TableData{{"ID", "Term", "State", "Preferred ID", "Notes"}}
	for _, t := range c.Terms {
		data = append(data, []string{t.ID, t.Text, termState(t), t.PreferredID(), termNotes(t)})
	}

	return pterm.DefaultTable.
		WithHasHeader().
		WithData(data).
		WithWriter(w).
		Render()
}

// RenderTerm writes one term with its populated relations
func RenderTerm(w io.Writer, t *vocab.Term) error {
	data := pterm.TableData{
		{"ID", t.ID},
		{"Term", t.Text},
		{"State", termState(t)},
	}
	if !t.Preferred && t.ConceptID != "" {
		data = append(data, []string{"Use", t.ConceptID})
	}
	optional := []struct{ label, value string }{
		{"Category", t.Category},
		{"Added in", t.AddedInVersion},
		{"Updated in", t.UpdatedInVersion},
		{"Scope notes", t.ScopeNotes},
		{"History notes", t.HistoryNotes},
	}
	for _, o := range optional {
		if o.value != "" {
			data = append(data, []string{o.label, o.value})
		}
	}
	if notes := termNotes(t); notes != "" {
		data = append(data, []string{"Flags", notes})
	}

	relations := []struct {
		label string
		terms *vocab.TermCollection
	}{
		{"Broader", t.BroaderTerms},
		{"Narrower", t.ChildTerms},
		{"Related", t.RelatedTerms},
		{"Non-preferred", t.NonPreferredTerms},
	}
	for _, r := range relations {
		if r.terms != nil {
			data = append(data, []string{r.label, r.terms.AppendIDsAndText("")})
		}
	}

	return pterm.DefaultTable.WithData(data).WithWriter(w).Render()
}

// RenderTree writes root and its populated ChildTerms as a tree
func RenderTree(w io.Writer, root *vocab.Term) error {
	return pterm.DefaultTree.
		WithRoot(pterm.TreeNode{Children: []pterm.TreeNode{treeNode(root)}}).
		WithWriter(w).
		Render()
}

func treeNode(t *vocab.Term) pterm.TreeNode {
	node := pterm.TreeNode{Text: t.String()}
	if t.ChildTerms == nil {
		return node
	}
	for _, child := range t.ChildTerms.Terms {
		node.Children = append(node.Children, treeNode(child))
	}
	return node
}

// RenderInfo writes the descriptive properties of a vocabulary
func RenderInfo(w io.Writer, info vocab.Info) error {
	rows := []struct{ label, value string }{
		{"Handle", info.Handle},
		{"Source", info.Source},
		{"Abbreviated name", info.AbbreviatedName},
		{"List name", info.ListName},
		{"Full name", info.FullName},
		{"Title", info.Title},
		{"Description", info.Description},
		{"Version", info.Version},
		{"Version date", info.VersionDate},
		{"Issued", info.DateIssued},
		{"Modified", info.DateModified},
		{"Kind", info.Kind},
		{"Generation", info.Generation},
		{"Language", info.Language},
		{"Items", fmt.Sprintf("%d", info.Items)},
	}

	data := pterm.TableData{}
	for _, r := range rows {
		if r.value != "" {
			data = append(data, []string{r.label, r.value})
		}
	}
	return pterm.DefaultTable.WithData(data).WithWriter(w).Render()
}

// RenderValidation writes one row per validated entry and the suggested
// replacement value when the input was not valid
func RenderValidation(w io.Writer, r vocab.ValidationResult) error {
	if len(r.Entries) == 0 {
		_, err := fmt.Fprintln(w, "Nothing to validate")
		return err
	}

	data := pterm.TableData{{"Entry", "Status", "Preferred term"}}
	for _, e := range r.Entries {
		preferred := ""
		switch {
		case e.Term != nil:
			preferred = e.Term.String()
		case e.Candidates != nil:
			preferred = "one of: " + e.Candidates.AppendIDsAndText("")
		}
		data = append(data, []string{e.Value, e.Status.String(), preferred})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render(); err != nil {
		return err
	}

	if r.Valid() {
		_, err := fmt.Fprintln(w, "Valid")
		return err
	}
	_, err := fmt.Fprintf(w, "Suggested: %s\n", r.Suggested())
	return err
}

func termState(t *vocab.Term) string {
	if t.Preferred {
		return vocab.StatePreferred.String()
	}
	return vocab.StateNonPreferred.String()
}

func termNotes(t *vocab.Term) string {
	var notes []string
	if t.Obsolete {
		notes = append(notes, "obsolete")
	}
	if t.AtoZ {
		notes = append(notes, "a-z")
	}
	if t.EquivalentType != vocab.EquivalentNotSpecified {
		notes = append(notes, t.EquivalentType.String())
	}
	return strings.Join(notes, ", ")
}
