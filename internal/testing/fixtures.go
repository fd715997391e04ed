// Package testing holds vocabulary fixtures shared by package tests.
package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFixture writes body to name under a per-test temp directory and
// returns the path. The directory is removed when the test ends.
func WriteFixture(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

// LegacyList is a legacy-generation controlled list: every item carries
// Preferred, non-preferred labels are standalone items.
//
//	1 Housing ─┬─ 2 Housing Benefit (default broader 1)
//	           ├─ 3 Council housing ─┬─ 4 Sheltered housing
//	           │                     └─ 5 Right to buy
//	           └─ 7 affordable housing
//	20 Transport ── 10 Roads (default) ── 12 Traffic
//	30 Local government ── 10 Roads (unflagged)
//	11 Highways, 13 Streets → 10; 6 Homes → 1
const LegacyList = `<?xml version="1.0" encoding="UTF-8"?>
<ControlledList AbbreviatedName="IPSV" ListName="ipsv" FullName="Integrated Public Sector Vocabulary"
                Version="2.00" VersionDate="2008-03-31" xml:lang="en">
  <Metadata>
    <Title>Integrated Public Sector Vocabulary</Title>
    <Description>Subject headings for public sector information</Description>
    <DateIssued>2006-01-01</DateIssued>
    <DateModified>2008-03-31</DateModified>
    <Language>en</Language>
  </Metadata>
  <Items>
    <Item Id="1" ConceptId="1" Preferred="true">
      <Name xml:lang="cy">Tai</Name>
      <Name xml:lang="en">Housing</Name>
    </Item>
    <Item Id="2" Preferred="true">
      <Name>Housing Benefit</Name>
      <BroaderItem Id="1" Default="true">Housing</BroaderItem>
      <RelatedItem Id="40">Benefits</RelatedItem>
    </Item>
    <Item Id="3" ConceptId="3" Preferred="true" Obsolete="true" AddedInVersion="1" LastUpdatedInVersion="2" AToZ="true" Category="services">
      <Name>Council housing</Name>
      <ScopeNotes>Housing provided by local authorities</ScopeNotes>
      <HistoryNotes>Merged with social housing in 2.00</HistoryNotes>
      <BroaderItem Id="1">Housing</BroaderItem>
    </Item>
    <Item Id="4" Preferred="true">
      <Name>Sheltered housing</Name>
      <BroaderItem Id="3">Council housing</BroaderItem>
    </Item>
    <Item Id="5" Preferred="true">
      <Name>Right to buy</Name>
      <BroaderItem Id="3">Council housing</BroaderItem>
    </Item>
    <Item Id="7" Preferred="true">
      <Name>affordable housing</Name>
      <BroaderItem Id="1">Housing</BroaderItem>
    </Item>
    <Item Id="6" Preferred="false">
      <Name>Homes</Name>
      <UseItem Id="1">Housing</UseItem>
    </Item>
    <Item Id="10" ConceptId="10" Preferred="true">
      <Name>Roads</Name>
      <BroaderItem Id="20" Default="true">Transport</BroaderItem>
      <BroaderItem Id="30">Local government</BroaderItem>
      <RelatedItem Id="12">Traffic</RelatedItem>
    </Item>
    <Item Id="11" ConceptId="10" Preferred="false">
      <Name>Highways</Name>
      <UseItem Id="10">Roads</UseItem>
    </Item>
    <Item Id="13" Preferred="false">
      <Name>Streets</Name>
      <UseItem Id="10">Roads</UseItem>
    </Item>
    <Item Id="12" Preferred="true">
      <Name>Traffic</Name>
      <BroaderItem Id="10" Default="true">Roads</BroaderItem>
      <RelatedItem Id="10">Roads</RelatedItem>
    </Item>
    <Item Id="20" Preferred="true"><Name>Transport</Name></Item>
    <Item Id="30" Preferred="true"><Name>Local government</Name></Item>
    <Item Id="40" Preferred="true">
      <Name>Benefits</Name>
      <RelatedItem Id="2">Housing Benefit</RelatedItem>
    </Item>
    <Item Id="50" Preferred="true"><Name>Parking</Name></Item>
    <Item Id="51" Preferred="true"><Name>Parking</Name></Item>
    <Item Id="99" Preferred="true"><Name>Duplicate A</Name></Item>
    <Item Id="99" Preferred="true"><Name>Duplicate B</Name></Item>
  </Items>
</ControlledList>
`

// ModernList is a modern-generation list: no Preferred flags, non-preferred
// labels nested as AlternativeName.
//
//	1 Housing ── 2 Housing Benefit (alt: Rent rebate, Housing allowance)
//	20 Transport ─┐
//	30 Local gov ─┴─ 10 Roads (alt: Highways) ── 12 Traffic (alt: Congestion)
const ModernList = `<?xml version="1.0" encoding="UTF-8"?>
<ControlledList xmlns="http://example.org/ns/lgsl" AbbreviatedName="LGSL" ListName="lgsl"
                FullName="Local Government Services List" Version="4.1" xml:lang="en">
  <Metadata>
    <Title>Local Government Services List</Title>
    <DateModified>2012-06-01</DateModified>
  </Metadata>
  <Items>
    <Item Id="1"><Name>Housing</Name></Item>
    <Item Id="2" Category="benefits">
      <Name>Housing Benefit</Name>
      <AlternativeName>Rent rebate</AlternativeName>
      <AlternativeName>Housing allowance</AlternativeName>
      <BroaderItem Id="1"/>
    </Item>
    <Item Id="10">
      <Name>Roads</Name>
      <AlternativeName>Highways</AlternativeName>
      <BroaderItem Id="20"/>
      <BroaderItem Id="30"/>
      <RelatedItem Id="12"/>
    </Item>
    <Item Id="12" Obsolete="true">
      <Name>Traffic</Name>
      <AlternativeName>Congestion</AlternativeName>
      <BroaderItem Id="10"/>
    </Item>
    <Item Id="20"><Name>Transport</Name></Item>
    <Item Id="30"><Name>Local government</Name></Item>
  </Items>
</ControlledList>
`

// ItemMappingList maps one list onto another (legacy generation)
const ItemMappingList = `<?xml version="1.0" encoding="UTF-8"?>
<ItemMapping AbbreviatedName="IPSV-LGSL" Version="1.0.3">
  <Items>
    <Item Id="m1" Preferred="true" EquivalentType="exact-match"><Name>Housing</Name></Item>
    <Item Id="m2" Preferred="true" EquivalentType="broader-match"><Name>Transport</Name>
      <BroaderItem Id="m1"/></Item>
    <Item Id="m3" Preferred="true" EquivalentType="sideways"><Name>Roads</Name></Item>
  </Items>
</ItemMapping>
`

// CyclicList loops 1 → 2 → 3 → 1 through broader relations
const CyclicList = `<ControlledList AbbreviatedName="LOOP" Version="1.0">
  <Items>
    <Item Id="1" Preferred="true"><Name>One</Name><BroaderItem Id="3"/></Item>
    <Item Id="2" Preferred="true"><Name>Two</Name><BroaderItem Id="1"/></Item>
    <Item Id="3" Preferred="true"><Name>Three</Name><BroaderItem Id="2"/></Item>
    <Item Id="4" Preferred="true"><Name>Four</Name></Item>
  </Items>
</ControlledList>
`

// PrefixedList binds the vocabulary namespace to a prefix. The foreign
// Item is not part of the vocabulary.
const PrefixedList = `<?xml version="1.0" encoding="UTF-8"?>
<v:ControlledList xmlns:v="urn:example:vocabulary" xmlns:x="urn:example:other"
                  AbbreviatedName="PFX" Version="1.0" xml:lang="en">
  <v:Items>
    <v:Item Id="1" Preferred="true"><v:Name>Housing</v:Name></v:Item>
    <v:Item Id="2" Preferred="true"><v:Name>Council housing</v:Name><v:BroaderItem Id="1"/></v:Item>
    <v:Item Id="3" Preferred="false"><v:Name>Homes</v:Name><v:UseItem Id="1"/></v:Item>
    <x:Item Id="9" Preferred="true"><x:Name>Foreign</x:Name></x:Item>
  </v:Items>
</v:ControlledList>
`

// MalformedList is not well-formed XML
const MalformedList = `<ControlledList AbbreviatedName="BAD"><Items><Item Id="1">`

// UnknownRoot is well-formed XML that is not a vocabulary
const UnknownRoot = `<Catalogue><Items><Item Id="1"/></Items></Catalogue>`

// ChainList builds a modern list where item i is narrower than item i-1,
// n items deep. Ids are "c0" … "c<n-1>".
func ChainList(n int) string {
	var b strings.Builder
	b.WriteString(`<ControlledList AbbreviatedName="CHAIN" Version="1.0"><Items>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<Item Id="c%d"><Name>Level %05d</Name>`, i, i)
		if i > 0 {
			fmt.Fprintf(&b, `<BroaderItem Id="c%d"/>`, i-1)
		}
		b.WriteString(`</Item>`)
	}
	b.WriteString(`</Items></ControlledList>`)
	return b.String()
}
