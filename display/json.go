package display

import (
	"encoding/json"
	"io"
	"os"

	"golang.org/x/term"
)

// marshalFor marshals with pretty formatting when w is a terminal and
// compact formatting when output is piped into another program
func marshalFor(w io.Writer, v interface{}) ([]byte, error) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
