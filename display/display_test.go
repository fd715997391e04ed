package display

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/taxon/vocab"
)

func sampleTerms() *vocab.TermCollection {
	return vocab.NewTermCollection(
		&vocab.Term{ID: "10", Text: "Roads", ConceptID: "10", Preferred: true},
		&vocab.Term{ID: "11", Text: "Highways", ConceptID: "10", Obsolete: true},
	)
}

func TestRenderTerms(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTerms(&buf, sampleTerms()))

	out := buf.String()
	assert.Contains(t, out, "Roads")
	assert.Contains(t, out, "Highways")
	assert.Contains(t, out, "non-preferred")
	assert.Contains(t, out, "obsolete")

	buf.Reset()
	require.NoError(t, RenderTerms(&buf, vocab.NewTermCollection()))
	assert.Equal(t, "No matching terms\n", buf.String())
}

func TestRenderTerm(t *testing.T) {
	term := &vocab.Term{ID: "10", Text: "Roads", Preferred: true, ScopeNotes: "Public highways"}
	term.BroaderTerms = vocab.NewTermCollection(&vocab.Term{ID: "30", Text: "Transport", Preferred: true})

	var buf bytes.Buffer
	require.NoError(t, RenderTerm(&buf, term))
	assert.Contains(t, buf.String(), "Public highways")
	assert.Contains(t, buf.String(), "Transport [30]")
	assert.NotContains(t, buf.String(), "Narrower", "unpopulated relations are omitted")
}

func TestRenderTree(t *testing.T) {
	root := &vocab.Term{ID: "1", Text: "Housing", Preferred: true}
	child := &vocab.Term{ID: "2", Text: "Housing Benefit", Preferred: true}
	child.ChildTerms = vocab.NewTermCollection(&vocab.Term{ID: "3", Text: "Rent rebate", Preferred: true})
	root.ChildTerms = vocab.NewTermCollection(child)

	var buf bytes.Buffer
	require.NoError(t, RenderTree(&buf, root))
	for _, want := range []string{"Housing [1]", "Housing Benefit [2]", "Rent rebate [3]"} {
		assert.Contains(t, buf.String(), want)
	}
}

func TestRenderValidation(t *testing.T) {
	result := vocab.ValidationResult{Entries: []vocab.ValidationEntry{
		{Value: "Highways", Status: vocab.EntryNonPreferred, Term: &vocab.Term{ID: "10", Text: "Roads", Preferred: true}},
		{Value: "Nowhere", Status: vocab.EntryUnknown},
	}}

	var buf bytes.Buffer
	require.NoError(t, RenderValidation(&buf, result))
	assert.Contains(t, buf.String(), "Roads [10]")
	assert.Contains(t, buf.String(), "unknown")
	assert.Contains(t, buf.String(), "Suggested: Roads")
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, OutputJSON(&buf, sampleTerms()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Roads", decoded[0]["text"])
}

func TestShouldOutputJSON(t *testing.T) {
	root := &cobra.Command{Use: "taxon"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "term"}
	root.AddCommand(child)

	assert.False(t, ShouldOutputJSON(nil))
	assert.False(t, ShouldOutputJSON(child))

	require.NoError(t, root.PersistentFlags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(child))
}
