// Command docxtranslate is the CLI entry point for the lossless DOCX
// machine-translation pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/sentinelmt/docxtranslate/internal/cliapp"
)

func main() {
	if err := cliapp.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
