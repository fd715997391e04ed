package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/taxon/display"
	"github.com/teranos/taxon/errors"
	"github.com/teranos/taxon/vocab"
)

// ErrInvalidValue is returned by validate when an entry is not a preferred term
var ErrInvalidValue = errors.New("value contains entries that are not preferred terms")

func newResolveCmd() *cobra.Command {
	var partial bool

	cmd := &cobra.Command{
		Use:   "resolve <vocabulary> <text>",
		Short: "Map a name to the preferred terms it stands for",
		Long: `Map a name to the preferred terms it stands for.

Non-preferred matches are replaced by the preferred term of their concept;
each preferred term is listed once.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return renderTerms(cmd, doc.ResolvePreferred(args[1], !partial))
		},
	}

	cmd.Flags().BoolVar(&partial, "partial", false, "Match names containing text")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var byID bool

	cmd := &cobra.Command{
		Use:   "validate <vocabulary> <value>",
		Short: "Check that a stored value only holds preferred terms",
		Long: `Check that a stored value only holds preferred terms.

value is a "; "-separated list of names, or of ids with --ids. Exits
non-zero when any entry is unknown, ambiguous or non-preferred, and
prints the value rewritten with preferred terms.

Examples:
  taxon validate IPSV "Housing; Roads"
  taxon validate IPSV "1; 6" --ids`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}

			result := doc.Validate(args[1], byID)
			if display.ShouldOutputJSON(cmd) {
				err = display.OutputJSON(cmd.OutOrStdout(), struct {
					Valid     bool                    `json:"valid"`
					Suggested string                  `json:"suggested"`
					Entries   []vocab.ValidationEntry `json:"entries"`
				}{result.Valid(), result.Suggested(), result.Entries})
			} else {
				err = display.RenderValidation(cmd.OutOrStdout(), result)
			}
			if err != nil {
				return err
			}

			if !result.Valid() {
				return errors.WithHintf(ErrInvalidValue, "suggested value: %q", result.Suggested())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&byID, "ids", false, "The value holds term ids rather than names")
	return cmd
}
