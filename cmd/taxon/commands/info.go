package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/taxon/display"
	"github.com/teranos/taxon/vocab"
)

// vocabularyInfo adds the content flags of a document to its descriptive
// properties
type vocabularyInfo struct {
	vocab.Info
	HasNonPreferredTerms bool `json:"has_non_preferred_terms"`
	HasRelatedTerms      bool `json:"has_related_terms"`
}

func newInfoCmd() *cobra.Command {
	var reload bool

	cmd := &cobra.Command{
		Use:   "info <vocabulary>",
		Short: "Describe a vocabulary document",
		Long: `Describe a vocabulary document: its names, version, kind, generation
and whether it carries non-preferred or related terms.

--reload drops any cached copy and loads the source again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(cmd, oneShot)
			if err != nil {
				return err
			}

			load := c.GetOrLoad
			if reload {
				load = c.Reload
			}
			doc, err := load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			info := vocabularyInfo{
				Info:                 doc.Info(),
				HasNonPreferredTerms: doc.HasNonPreferredTerms(),
				HasRelatedTerms:      doc.HasRelatedTerms(),
			}
			if display.ShouldOutputJSON(cmd) {
				return display.OutputJSON(cmd.OutOrStdout(), info)
			}

			out := cmd.OutOrStdout()
			if err := display.RenderInfo(out, info.Info); err != nil {
				return err
			}
			fmt.Fprintf(out, "Non-preferred terms: %s\n", yesNo(info.HasNonPreferredTerms))
			fmt.Fprintf(out, "Related terms: %s\n", yesNo(info.HasRelatedTerms))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reload, "reload", false, "Bypass the cache and load the source again")
	return cmd
}

func newVocabulariesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "vocabularies",
		Aliases: []string{"ls"},
		Short:   "List registered vocabulary keys",
		Long: `List the logical vocabulary keys known to the registry, with the
source each one resolves to and where it was registered (taxon.toml or a
drop-in file).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(cmd, oneShot)
			if err != nil {
				return err
			}
			sources := c.Registry().Sources()
			if display.ShouldOutputJSON(cmd) {
				return display.OutputJSON(cmd.OutOrStdout(), sources)
			}
			return display.RenderSources(cmd.OutOrStdout(), sources)
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
