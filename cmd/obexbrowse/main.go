package main

import (
	"fmt"
	"os"

	"obex-browser/internal/errs"
)

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	if Debug {
		// Debug output prints stacktraces
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}

	os.Exit(errs.ExitCode(err))
}
