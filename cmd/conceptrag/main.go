// Package main is the entry point for the conceptrag CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/m2ux/concept-rag-sub002/cmd/conceptrag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Err)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
