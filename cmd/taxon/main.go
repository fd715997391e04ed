package main

import (
	"fmt"
	"os"

	"github.com/teranos/taxon/cmd/taxon/commands"
	"github.com/teranos/taxon/errors"
	"github.com/teranos/taxon/logger"
)

func main() {
	defer logger.Cleanup()

	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errors.Hints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
