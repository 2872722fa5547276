package main

import (
	"fmt"
	"os"

	"github.com/cxbig/repo-batch-refresh/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the repo-batch-refresh command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
