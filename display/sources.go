package display

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/teranos/taxon/config"
)

// RenderSources writes the vocabulary registry as a table
func RenderSources(w io.Writer, sources []config.Source) error {
	if len(sources) == 0 {
		_, err := fmt.Fprintln(w, "No vocabularies registered")
		return err
	}

	data := pterm.TableData{{"Key", "Location", "Version", "Origin", "Description"}}
	for _, s := range sources {
		data = append(data, []string{s.Key, s.Location, s.VersionConstraint, s.Origin, s.Description})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()
}
