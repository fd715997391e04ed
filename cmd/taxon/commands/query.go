package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/taxon/display"
	"github.com/teranos/taxon/errors"
	"github.com/teranos/taxon/vocab"
)

func newTermCmd() *cobra.Command {
	var state string
	var expand []string

	cmd := &cobra.Command{
		Use:   "term <vocabulary> <id>",
		Short: "Look up one term by id",
		Long: `Look up one term by id.

The id must match exactly one term in the requested state; zero or several
matches are both reported as not found.

Examples:
  taxon term IPSV 1
  taxon term IPSV 6 --state non-preferred
  taxon term IPSV 1 --expand children,related`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseState(state)
			if err != nil {
				return err
			}
			relations, err := parseRelations(expand)
			if err != nil {
				return err
			}

			c, err := openCache(cmd, oneShot)
			if err != nil {
				return err
			}
			doc, err := c.GetOrLoad(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			t, ok := doc.GetTerm(args[1], ts)
			if !ok {
				return termNotFound(args[0], args[1], ts)
			}
			if cmd.Flags().Changed("expand") {
				if err := c.Expand(cmd.Context(), t, relations...); err != nil {
					return err
				}
			}
			return renderTerm(cmd, t)
		},
	}

	cmd.Flags().StringVar(&state, "state", "any", "Term state: any, preferred, non-preferred")
	cmd.Flags().StringSliceVar(&expand, "expand", nil, "Fill relations: children, broader, related, non-preferred (empty for all)")
	return cmd
}

func newPreferredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preferred <vocabulary> <concept-id>",
		Short: "Look up the preferred term of a concept",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			t, ok := doc.GetPreferredTerm(args[1])
			if !ok {
				return errors.Newf("no preferred term for concept %q in %s", args[1], args[0])
			}
			return renderTerm(cmd, t)
		},
	}
}

func newSearchCmd() *cobra.Command {
	var exact bool
	var state string

	cmd := &cobra.Command{
		Use:   "search <vocabulary> <text>",
		Short: "Find terms by name",
		Long: `Find terms by name.

Without --exact a term matches when its name contains text. Matching
ignores case and looks at names in every language. Results are sorted by
name.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseState(state)
			if err != nil {
				return err
			}
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return renderTerms(cmd, doc.GetTerms(args[1], exact, ts))
		},
	}

	cmd.Flags().BoolVar(&exact, "exact", false, "Match the whole name")
	cmd.Flags().StringVar(&state, "state", "any", "Term state: any, preferred, non-preferred")
	return cmd
}

func newRootsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roots <vocabulary>",
		Short: "List top-level preferred terms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return renderTerms(cmd, doc.RootTerms())
		},
	}
}

func newChildrenCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "children <vocabulary> <id>",
		Aliases: []string{"narrower"},
		Short:   "List the immediate narrower terms of a term",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return renderTerms(cmd, doc.GetChildTerms(args[1]))
		},
	}
}

func newDescendantsCmd() *cobra.Command {
	var depth int
	var tree bool

	cmd := &cobra.Command{
		Use:   "descendants <vocabulary> <id>",
		Short: "List every narrower term below a term",
		Long: `List every narrower term below a term, level by level.

--depth limits how many levels are walked (negative for no limit). With
--tree the term itself is printed as the root of its narrower hierarchy.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			if !tree {
				return renderTerms(cmd, doc.GetDescendantTerms(args[1], depth))
			}

			roots := doc.GetDescendantTree(args[1], depth)
			if roots.Len() == 0 {
				return termNotFound(args[0], args[1], vocab.StatePreferred)
			}
			if display.ShouldOutputJSON(cmd) {
				return display.OutputJSON(cmd.OutOrStdout(), roots.At(0))
			}
			return display.RenderTree(cmd.OutOrStdout(), roots.At(0))
		},
	}

	cmd.Flags().IntVar(&depth, "depth", -1, "Levels to walk, negative for all")
	cmd.Flags().BoolVar(&tree, "tree", false, "Print the hierarchy as a tree")
	return cmd
}

func newBroaderCmd() *cobra.Command {
	var defaultOnly bool

	cmd := &cobra.Command{
		Use:   "broader <vocabulary> <id>",
		Short: "List the broader terms of a term",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return renderTerms(cmd, doc.GetBroaderTerms(args[1], defaultOnly))
		},
	}

	cmd.Flags().BoolVar(&defaultOnly, "default", false, "Only the default broader term")
	return cmd
}

func newRelatedCmd() *cobra.Command {
	var exclude string

	cmd := &cobra.Command{
		Use:   "related <vocabulary> <id>",
		Short: "List the related terms of a term",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return renderTerms(cmd, doc.GetRelatedTerms(args[1], exclude))
		},
	}

	cmd.Flags().StringVar(&exclude, "exclude", "", "Leave out the term with this id")
	return cmd
}

func newNonPreferredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nonpreferred <vocabulary> <id>",
		Short: "List the non-preferred terms that point to a preferred term",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			return renderTerms(cmd, doc.GetNonPreferredTerms(args[1]))
		},
	}
}

func renderTerms(cmd *cobra.Command, c *vocab.TermCollection) error {
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), c)
	}
	return display.RenderTerms(cmd.OutOrStdout(), c)
}

func renderTerm(cmd *cobra.Command, t *vocab.Term) error {
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), t)
	}
	return display.RenderTerm(cmd.OutOrStdout(), t)
}

func parseState(s string) (vocab.TermState, error) {
	ts, ok := vocab.ParseTermState(s)
	if !ok {
		return ts, errors.WithHint(
			errors.Newf("unknown term state %q", s),
			"use one of: any, preferred, non-preferred",
		)
	}
	return ts, nil
}

func parseRelations(names []string) ([]vocab.Relation, error) {
	var relations []vocab.Relation
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		r, ok := vocab.ParseRelation(name)
		if !ok {
			return nil, errors.WithHint(
				errors.Newf("unknown relation %q", name),
				"use any of: children, broader, related, non-preferred",
			)
		}
		relations = append(relations, r)
	}
	return relations, nil
}

func termNotFound(vocabulary, id string, state vocab.TermState) error {
	err := errors.Newf("term %q not found in %s", id, vocabulary)
	if state != vocab.StateAny {
		err = errors.Newf("%s term %q not found in %s", state, id, vocabulary)
	}
	return errors.WithHint(err, "ids match exactly; an id shared by several terms counts as not found")
}
