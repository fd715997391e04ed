package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = New("sentinel")

func TestWrapPreservesIdentity(t *testing.T) {
	original := New("original")
	wrapped := Wrapf(original, "load %s", "IPSV")

	assert.Contains(t, wrapped.Error(), "load IPSV")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestMarkClassifiesWithoutChangingMessage(t *testing.T) {
	parseErr := New("XML syntax error on line 3")
	marked := Mark(parseErr, errSentinel)

	assert.True(t, Is(marked, errSentinel))
	assert.True(t, Is(marked, parseErr))
	assert.Equal(t, "XML syntax error on line 3", marked.Error())

	wrapped := Wrap(marked, "load IPSV")
	assert.True(t, Is(wrapped, errSentinel), "mark must survive wrapping")
}

func TestHints(t *testing.T) {
	assert.Equal(t, "", Hints(nil))

	err := WithHint(New("unknown vocabulary"), "add it to taxon.toml")
	err = Wrap(err, "resolve")
	assert.Equal(t, "add it to taxon.toml", Hints(err))

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.Nil(t, WithDetail(nil, "detail"))
}

type sourceError struct {
	source string
}

func (e *sourceError) Error() string {
	return "bad source " + e.source
}

func TestAs(t *testing.T) {
	wrapped := Wrap(&sourceError{source: "ipsv.xml"}, "fetch")

	var target *sourceError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "ipsv.xml", target.source)
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")
	assert.Contains(t, fmt.Sprintf("%+v", err), "errors_test.go")
}

func ExampleWrap() {
	baseErr := New("no such file")
	err := Wrap(baseErr, "fetch ipsv.xml")
	fmt.Println(err)
	// Output: fetch ipsv.xml: no such file
}
