package vocab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taxontest "github.com/teranos/taxon/internal/testing"
)

func TestResolvePreferred(t *testing.T) {
	legacy := mustParse(t, taxontest.LegacyList)

	assert.Equal(t, []string{"10"}, collectionIDs(legacy.ResolvePreferred("Highways", true)))
	assert.Equal(t, []string{"10"}, collectionIDs(legacy.ResolvePreferred("streets", true)))
	assert.Equal(t, []string{"1"}, collectionIDs(legacy.ResolvePreferred("homes", true)))
	// partial matches resolve too
	assert.Equal(t, []string{"10"}, collectionIDs(legacy.ResolvePreferred("ways", false)))

	modern := mustParse(t, taxontest.ModernList)
	assert.Equal(t, []string{"10"}, collectionIDs(modern.ResolvePreferred("highways", true)))
	assert.Equal(t, []string{"2"}, collectionIDs(modern.ResolvePreferred("rent rebate", true)))
	assert.Equal(t, 0, modern.ResolvePreferred("nothing", true).Len())
}

func TestValidate_ByName(t *testing.T) {
	d := mustParse(t, taxontest.LegacyList)

	result := d.Validate("Housing; Highways; Nowhere; Parking", false)
	require.Len(t, result.Entries, 4)

	assert.Equal(t, EntryPreferred, result.Entries[0].Status)
	assert.Equal(t, "1", result.Entries[0].Term.ID)

	assert.Equal(t, EntryNonPreferred, result.Entries[1].Status)
	assert.Equal(t, "Roads", result.Entries[1].Term.Text)

	assert.Equal(t, EntryUnknown, result.Entries[2].Status)
	assert.Nil(t, result.Entries[2].Term)

	assert.Equal(t, EntryAmbiguous, result.Entries[3].Status)
	assert.Equal(t, 2, result.Entries[3].Candidates.Len())

	assert.False(t, result.Valid())
	assert.Equal(t, "Housing; Roads", result.Suggested())
}

func TestValidate_ByID(t *testing.T) {
	d := mustParse(t, taxontest.LegacyList)

	result := d.Validate("1; 11; 404", true)
	require.Len(t, result.Entries, 3)
	assert.Equal(t, EntryPreferred, result.Entries[0].Status)
	assert.Equal(t, EntryNonPreferred, result.Entries[1].Status)
	assert.Equal(t, "10", result.Entries[1].Term.ID)
	assert.Equal(t, EntryUnknown, result.Entries[2].Status)
	assert.Equal(t, "1; 10", result.Suggested())

	same := d.Validate("Roads; Highways", false)
	require.Len(t, same.Entries, 2)
	assert.Equal(t, "Roads", same.Suggested())

	ok := d.Validate("1; 10", true)
	assert.True(t, ok.Valid())

	empty := d.Validate("", true)
	assert.True(t, empty.Valid())
	assert.Empty(t, empty.Entries)
}

func TestValidate_JSON(t *testing.T) {
	d := mustParse(t, taxontest.ModernList)
	result := d.Validate("Highways", false)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"non-preferred"`)
	assert.Contains(t, string(data), `"text":"Roads"`)
}

func TestExpand(t *testing.T) {
	d := mustParse(t, taxontest.LegacyList)

	roads, ok := d.GetTerm("10", StatePreferred)
	require.True(t, ok)

	d.Expand(roads, RelationBroader)
	assert.Equal(t, []string{"30", "20"}, collectionIDs(roads.BroaderTerms))
	assert.Nil(t, roads.ChildTerms)

	d.Expand(roads)
	assert.Equal(t, []string{"12"}, collectionIDs(roads.ChildTerms))
	assert.Equal(t, []string{"12"}, collectionIDs(roads.RelatedTerms))
	assert.Equal(t, []string{"11", "13"}, collectionIDs(roads.NonPreferredTerms))

	clone := roads.Clone()
	assert.Nil(t, clone.ChildTerms)
	assert.Equal(t, roads.Text, clone.Text)
}

func TestParseRelation(t *testing.T) {
	for in, want := range map[string]Relation{
		"children":      RelationChildren,
		"narrower":      RelationChildren,
		"Broader":       RelationBroader,
		"related":       RelationRelated,
		"non-preferred": RelationNonPreferred,
		"nonpreferred":  RelationNonPreferred,
	} {
		got, ok := ParseRelation(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseRelation("siblings")
	assert.False(t, ok)
}
