package vocab

import (
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Roads", "'Roads'"},
		{"O'Brien", `"O'Brien"`},
		{`say "hi"`, `'say "hi"'`},
		{`it's "x"`, `concat('it',"'",'s "x"')`},
		{`'"`, `concat("'",'"')`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := literal(tt.in)
			assert.Equal(t, tt.want, got)

			_, err := xpath.Compile("//Item[@Id=" + got + "]")
			assert.NoError(t, err)
		})
	}
}

func TestSchema_EveryQueryCompiles(t *testing.T) {
	for _, gen := range []Generation{Legacy, Modern} {
		s := newSchema(gen)
		t.Run(gen.String(), func(t *testing.T) {
			var exprs []string
			for _, state := range []TermState{StateAny, StatePreferred, StateNonPreferred} {
				if expr, ok := s.termByID("x'1", state); ok {
					exprs = append(exprs, expr)
				}
				for _, exact := range []bool{true, false} {
					items, alternatives := s.termsByName(`Roads "main"`, exact, state)
					exprs = append(exprs, items, alternatives)
				}
			}
			exprs = append(exprs,
				s.preferredByConcept("10"),
				s.preferredItems(),
				s.roots(),
				s.children("1"),
				s.broaderRelations("1"),
				s.relatedRelations("1"),
				s.itemsByIDs([]string{"1", "2"}),
				s.nonPreferred("10"),
				s.hasNonPreferred(),
				s.hasRelated(),
			)
			exprs = append(exprs, s.defaultBroaderRelations("1")...)

			for _, expr := range exprs {
				if expr == "" {
					continue
				}
				_, err := xpath.Compile(expr)
				require.NoError(t, err, expr)
			}
		})
	}
}

func TestSchema_GenerationDifferences(t *testing.T) {
	legacy, modern := newSchema(Legacy), newSchema(Modern)

	_, ok := modern.termByID("1", StateNonPreferred)
	assert.False(t, ok, "modern documents cannot address non-preferred terms by id")
	_, ok = legacy.termByID("1", StateNonPreferred)
	assert.True(t, ok)

	items, alternatives := modern.termsByName("x", true, StatePreferred)
	assert.NotEmpty(t, items)
	assert.Empty(t, alternatives)

	items, alternatives = modern.termsByName("x", true, StateNonPreferred)
	assert.Empty(t, items)
	assert.NotEmpty(t, alternatives)

	items, alternatives = legacy.termsByName("x", true, StateAny)
	assert.NotEmpty(t, items)
	assert.Empty(t, alternatives, "legacy non-preferred labels are items")

	assert.Len(t, legacy.defaultBroaderRelations("1"), 2)
	assert.Len(t, modern.defaultBroaderRelations("1"), 1)
	assert.True(t, modern.embedded())
	assert.False(t, legacy.embedded())
}

func TestTermState(t *testing.T) {
	for _, in := range []string{"any", "", "Preferred", "non-preferred", "nonpreferred"} {
		_, ok := ParseTermState(in)
		assert.True(t, ok, in)
	}
	_, ok := ParseTermState("maybe")
	assert.False(t, ok)

	assert.True(t, StateAny.matches(false))
	assert.True(t, StatePreferred.matches(true))
	assert.False(t, StatePreferred.matches(false))
	assert.True(t, StateNonPreferred.matches(false))
}

func TestParseEquivalentType(t *testing.T) {
	assert.Equal(t, EquivalentExactMatch, ParseEquivalentType("exact-match"))
	assert.Equal(t, EquivalentRelatedMatch, ParseEquivalentType(" Related-Match "))
	assert.Equal(t, EquivalentNotSpecified, ParseEquivalentType(""))
	assert.Equal(t, EquivalentNotSpecified, ParseEquivalentType("sideways"))
	assert.Equal(t, "not-specified", EquivalentNotSpecified.String())
}

func TestTerm_PreferredID(t *testing.T) {
	assert.Equal(t, "10", (&Term{ID: "10", ConceptID: "10", Preferred: true}).PreferredID())
	assert.Equal(t, "10", (&Term{ID: "11", ConceptID: "10"}).PreferredID())
	assert.Equal(t, "10", (&Term{ConceptID: "10"}).PreferredID())
	assert.Equal(t, "Roads [10]", (&Term{ID: "10", Text: "Roads"}).String())
	assert.Equal(t, "Highways", (&Term{Text: "Highways"}).String())
}

func TestFlagTrue_AgreesWithParseBool(t *testing.T) {
	expr := xpath.MustCompile("//Item[" + flagTrue("@Preferred") + "]")

	for _, v := range []string{"true", "True", "TRUE", " true ", "1", "false", "False", "0", "", "yes"} {
		t.Run(v, func(t *testing.T) {
			doc, err := xmlquery.Parse(strings.NewReader(`<Items><Item Preferred="` + v + `"/></Items>`))
			require.NoError(t, err)

			matched := xmlquery.QuerySelector(doc, expr) != nil
			assert.Equal(t, parseBool(v), matched)
		})
	}

	doc, err := xmlquery.Parse(strings.NewReader(`<Items><Item/></Items>`))
	require.NoError(t, err)
	assert.Nil(t, xmlquery.QuerySelector(doc, expr), "missing flag reads as false")
}
