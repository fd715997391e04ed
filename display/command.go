package display

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ShouldOutputJSON determines if a command should output JSON based on its
// own --json flag or the persistent root flag
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}

	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json")
	return globalFlag
}

// OutputJSON writes v to w, indented when w is a terminal
func OutputJSON(w io.Writer, v interface{}) error {
	data, err := marshalFor(w, v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
