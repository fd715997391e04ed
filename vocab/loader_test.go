package vocab

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/taxon/errors"
	taxontest "github.com/teranos/taxon/internal/testing"
)

func mustParse(t *testing.T, body string) *Document {
	t.Helper()
	d, err := Parse([]byte(body), "fixture.xml", LoadOptions{Handle: "TEST"})
	require.NoError(t, err)
	return d
}

func TestParse_Legacy(t *testing.T) {
	d := mustParse(t, taxontest.LegacyList)

	assert.Equal(t, Legacy, d.Generation())
	assert.Equal(t, KindControlledList, d.Kind())
	assert.Equal(t, "TEST", d.Handle())
	assert.Equal(t, "fixture.xml", d.Source())
	assert.Equal(t, "IPSV", d.AbbreviatedName())
	assert.Equal(t, "ipsv", d.ListName())
	assert.Equal(t, "Integrated Public Sector Vocabulary", d.FullName())
	assert.Equal(t, "2.00", d.Version())
	assert.Equal(t, "2008-03-31", d.VersionDate())
	assert.Equal(t, "Integrated Public Sector Vocabulary", d.Title())
	assert.Equal(t, "Subject headings for public sector information", d.Description())
	assert.Equal(t, "2006-01-01", d.DateIssued())
	assert.Equal(t, "2008-03-31", d.DateModified())
	assert.Equal(t, "en", d.Language())
	assert.Equal(t, 18, d.ItemCount())
	assert.Nil(t, d.Structure())

	info := d.Info()
	assert.Equal(t, "legacy", info.Generation)
	assert.Equal(t, "ControlledList", info.Kind)
	assert.Equal(t, 18, info.Items)
}

func TestParse_Modern(t *testing.T) {
	d := mustParse(t, taxontest.ModernList)

	assert.Equal(t, Modern, d.Generation())
	assert.Equal(t, "LGSL", d.AbbreviatedName())
	assert.Equal(t, "4.1", d.Version())
	assert.Equal(t, "", d.Description())
	assert.Equal(t, "en", d.Language(), "falls back to the root xml:lang")
}

func TestParse_PrefixedNamespace(t *testing.T) {
	d := mustParse(t, taxontest.PrefixedList)

	assert.Equal(t, Legacy, d.Generation())
	assert.Equal(t, KindControlledList, d.Kind())
	assert.Equal(t, "PFX", d.AbbreviatedName())
	assert.Equal(t, 3, d.ItemCount())

	assert.Equal(t, []string{"1"}, collectionIDs(d.RootTerms()))
	assert.Equal(t, []string{"2"}, collectionIDs(d.GetChildTerms("1")))
	assert.Equal(t, []string{"3"}, collectionIDs(d.GetNonPreferredTerms("1")))
	assert.Equal(t, []string{"1"}, collectionIDs(d.GetBroaderTerms("2", true)))

	housing, ok := d.GetTerm("1", StatePreferred)
	require.True(t, ok)
	assert.Equal(t, "Housing", housing.Text)

	_, ok = d.GetTerm("9", StateAny)
	assert.False(t, ok, "items of other namespaces are not vocabulary items")
}

func TestParse_ItemMapping(t *testing.T) {
	d := mustParse(t, taxontest.ItemMappingList)
	assert.Equal(t, KindItemMapping, d.Kind())
	assert.Equal(t, Legacy, d.Generation())
	assert.Equal(t, DefaultLanguage, d.Language())

	m1, ok := d.GetTerm("m1", StateAny)
	require.True(t, ok)
	assert.Equal(t, EquivalentExactMatch, m1.EquivalentType)

	m2, ok := d.GetTerm("m2", StateAny)
	require.True(t, ok)
	assert.Equal(t, EquivalentBroaderMatch, m2.EquivalentType)

	m3, ok := d.GetTerm("m3", StateAny)
	require.True(t, ok)
	assert.Equal(t, EquivalentNotSpecified, m3.EquivalentType)
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"not xml", taxontest.MalformedList, ErrMalformed},
		{"empty", "", ErrMalformed},
		{"plain text", "just some text", ErrMalformed},
		{"unknown root", taxontest.UnknownRoot, ErrNotRecognized},
		{"cycle", taxontest.CyclicList, ErrMalformed},
		{"self loop", `<ControlledList><Items><Item Id="1"><Name>Me</Name><BroaderItem Id="1"/></Item></Items></ControlledList>`, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body), "fixture.xml", LoadOptions{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "expected %v, got %v", tt.want, err)
		})
	}
}

func TestParse_CycleDetailNamesItems(t *testing.T) {
	_, err := Parse([]byte(taxontest.CyclicList), "loop.xml", LoadOptions{})
	require.Error(t, err)
	details := errors.FlattenDetails(err)
	assert.Contains(t, details, "1, 2, 3")
	assert.NotContains(t, details, "4")
}

func TestParse_BroaderToUnknownItemIsNotACycle(t *testing.T) {
	body := `<ControlledList><Items>
<Item Id="1"><Name>One</Name><BroaderItem Id="missing"/></Item>
</Items></ControlledList>`
	_, err := Parse([]byte(body), "dangling.xml", LoadOptions{})
	assert.NoError(t, err)
}

func TestParse_VersionConstraint(t *testing.T) {
	_, err := Parse([]byte(taxontest.LegacyList), "ipsv.xml", LoadOptions{VersionConstraint: ">= 2"})
	assert.NoError(t, err)

	_, err = Parse([]byte(taxontest.LegacyList), "ipsv.xml", LoadOptions{VersionConstraint: ">= 3"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompatibleVersion))

	_, err = Parse([]byte(taxontest.UnknownRoot), "x.xml", LoadOptions{VersionConstraint: ">= 3"})
	assert.True(t, errors.Is(err, ErrNotRecognized), "root check runs before the version check")

	noVersion := `<ControlledList><Items><Item Id="1"><Name>One</Name></Item></Items></ControlledList>`
	_, err = Parse([]byte(noVersion), "x.xml", LoadOptions{VersionConstraint: "^1"})
	assert.True(t, errors.Is(err, ErrIncompatibleVersion))
}

func TestParse_FullStructureIsIndependent(t *testing.T) {
	d, err := Parse([]byte(taxontest.LegacyList), "ipsv.xml", LoadOptions{FullStructure: true})
	require.NoError(t, err)
	require.NotNil(t, d.Structure())

	for _, n := range xmlquery.Find(d.Structure(), "//Item") {
		xmlquery.RemoveFromTree(n)
	}
	assert.Empty(t, xmlquery.Find(d.Structure(), "//Item"))

	_, ok := d.GetTerm("10", StatePreferred)
	assert.True(t, ok, "editing the structure must not change query results")
}

func TestParse_DefaultHandleIsSource(t *testing.T) {
	d, err := Parse([]byte(taxontest.ModernList), "/data/lgsl.xml", LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "/data/lgsl.xml", d.Handle())

	term, ok := d.GetTerm("1", StateAny)
	require.True(t, ok)
	assert.Equal(t, "/data/lgsl.xml", term.Vocabulary)
}

func TestLoader_Load(t *testing.T) {
	path := taxontest.WriteFixture(t, "ipsv.xml", taxontest.LegacyList)

	l := NewLoader(nil, nil)
	d, err := l.Load(context.Background(), path, LoadOptions{Handle: "IPSV"})
	require.NoError(t, err)
	assert.Equal(t, "IPSV", d.Handle())
	assert.Equal(t, path, d.Source())
	assert.Equal(t, "IPSV", d.AbbreviatedName())
}

func TestLoader_LoadMissingSource(t *testing.T) {
	l := NewLoader(nil, nil)
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "absent.xml"), LoadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

type failingFetcher struct{ err error }

func (f failingFetcher) Fetch(context.Context, string) ([]byte, error) { return nil, f.err }

func TestLoader_FetchErrorIsNotNotFound(t *testing.T) {
	boom := errors.New("connection reset")
	l := NewLoader(failingFetcher{err: boom}, nil)

	_, err := l.Load(context.Background(), "https://example.org/ipsv.xml", LoadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, ErrNotFound))
}
