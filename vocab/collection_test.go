package vocab

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func collectionIDs(c *TermCollection) []string {
	out := make([]string, 0, c.Len())
	for _, t := range c.Terms {
		out = append(out, t.ID)
	}
	return out
}

func collectionTexts(c *TermCollection) []string {
	out := make([]string, 0, c.Len())
	for _, t := range c.Terms {
		out = append(out, t.Text)
	}
	return out
}

func TestParseIDs_RoundTrip(t *testing.T) {
	inputs := []string{
		"1; 2; 3",
		"10;11;12",
		" 7 ;; 8 ; ",
		"",
		"a-1; b-2; a-1",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			c := ParseIDs(in)
			c.Sort()

			want := map[string]bool{}
			for _, id := range SplitList(in) {
				want[id] = true
			}
			got := map[string]bool{}
			for _, id := range SplitList(c.AppendIDs("")) {
				got[id] = true
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3", "4"}, SplitList("1; 2;3 ; ;4"))
	assert.Nil(t, SplitList("  ;  "))
}

func TestTermCollection_AppendHelpersSkipPresentEntries(t *testing.T) {
	c := NewTermCollection(
		&Term{ID: "1", Text: "Housing", Preferred: true},
		&Term{ID: "2", Text: "Roads", Preferred: true},
		&Term{ID: "3", Text: "Traffic", Preferred: true},
	)

	assert.Equal(t, "2; 5; 1; 3", c.AppendIDs("2; 5"))
	assert.Equal(t, "housing; Roads; Traffic", c.AppendText("housing"))
	assert.Equal(t, "Housing [1]; Roads [2]; Traffic [3]", c.AppendIDsAndText(""))
	assert.Equal(t, "Roads [2]; Housing [1]; Traffic [3]", c.AppendIDsAndText("Roads [2]"))
	assert.Equal(t, "1; 2; 3", c.IDs())
	assert.Equal(t, "Housing; Roads; Traffic", c.Texts())
}

func TestTermCollection_AppendKeepsDuplicates(t *testing.T) {
	c := NewTermCollection()
	c.AppendName("Housing")
	c.AppendName("Housing")
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "Housing; Housing", c.Texts())
	assert.Equal(t, "housing", c.AppendText("housing"))
}

func TestTermCollection_AppendIDsKeepsRepeatsWithinCollection(t *testing.T) {
	c := NewTermCollection(
		&Term{ID: "1", Text: "Housing", Preferred: true},
		&Term{ID: "1", Text: "Housing", Preferred: true},
		&Term{ID: "2", Text: "Roads", Preferred: true},
	)

	assert.Equal(t, "1; 1; 2", c.AppendIDs(""))
	assert.Equal(t, "2; 1; 1", c.AppendIDs("2"))
}

func TestTermCollection_IndexOf(t *testing.T) {
	c := NewTermCollection(
		&Term{ID: "11", Text: "Highways", Preferred: false},
		&Term{ID: "10", Text: "Roads", Preferred: true},
	)

	tests := []struct {
		name  string
		got   int
		index int
	}{
		{"id any", c.IndexOfID("11", StateAny), 0},
		{"id preferred mismatch", c.IndexOfID("11", StatePreferred), -1},
		{"id non-preferred", c.IndexOfID("11", StateNonPreferred), 0},
		{"id missing", c.IndexOfID("12", StateAny), -1},
		{"name ignores case", c.IndexOf("ROADS", StatePreferred), 1},
		{"name wrong state", c.IndexOf("roads", StateNonPreferred), -1},
		{"name any", c.IndexOf("highways", StateAny), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.index, tt.got)
		})
	}

	assert.True(t, c.ContainsID("10"))
	assert.False(t, c.ContainsID("1"))
}

func TestTermCollection_Sort(t *testing.T) {
	c := NewTermCollection(
		&Term{ID: "3", Text: "b"},
		&Term{ID: "2", Text: "Parking"},
		&Term{ID: "1", Text: "A"},
		&Term{ID: "0", Text: "parking"},
		&Term{ID: "4", Text: "c"},
	)
	c.Sort()

	assert.Equal(t, []string{"A", "b", "c", "parking", "Parking"}, collectionTexts(c))
	// equal texts (ignoring case) fall back to id order
	assert.Equal(t, []string{"1", "3", "4", "0", "2"}, collectionIDs(c))
}

func TestTermCollection_SortCollatesByLanguage(t *testing.T) {
	terms := func() []*Term {
		return []*Term{{Text: "zebra"}, {Text: "öl"}}
	}

	en := &TermCollection{Terms: terms(), Language: language.English}
	en.Sort()
	assert.Equal(t, []string{"öl", "zebra"}, collectionTexts(en))

	sv := &TermCollection{Terms: terms(), Language: language.Swedish}
	sv.Sort()
	assert.Equal(t, []string{"zebra", "öl"}, collectionTexts(sv))
}

func TestTermCollection_SortIsDeterministic(t *testing.T) {
	build := func() *TermCollection {
		return NewTermCollection(
			&Term{ID: "b", Text: "Same"},
			&Term{ID: "a", Text: "same"},
			&Term{ID: "c", Text: "Other"},
		)
	}
	first, second := build(), build()
	second.Terms[0], second.Terms[2] = second.Terms[2], second.Terms[0]
	first.Sort()
	second.Sort()
	assert.Equal(t, collectionIDs(first), collectionIDs(second))
}

func TestTermCollection_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewTermCollection())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = json.Marshal(NewTermCollection(&Term{ID: "1", Text: "Housing", Preferred: true}))
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Housing", decoded[0]["text"])

	var nilCollection *TermCollection
	assert.Equal(t, 0, nilCollection.Len())
}

func TestTermCollection_UnmarshalJSON(t *testing.T) {
	src := &Term{
		ID:             "10",
		Text:           "Roads",
		Preferred:      true,
		EquivalentType: EquivalentBroaderMatch,
		ChildTerms:     NewTermCollection(&Term{ID: "12", Text: "Traffic"}),
	}
	data, err := json.Marshal(src)
	require.NoError(t, err)

	var decoded Term
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, EquivalentBroaderMatch, decoded.EquivalentType)
	require.NotNil(t, decoded.ChildTerms)
	assert.Equal(t, "12", decoded.ChildTerms.IDs())
	assert.Nil(t, decoded.RelatedTerms)
}

func TestParseNames(t *testing.T) {
	c := ParseNames("Roads; Housing")
	texts := collectionTexts(c)
	sort.Strings(texts)
	assert.Equal(t, []string{"Housing", "Roads"}, texts)
	assert.Equal(t, "", c.IDs(), "bare names carry no ids")
}
