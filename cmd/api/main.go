// Package main is the entrypoint for the Userbase API server.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	root, a := newRootCmd()
	err := root.ExecuteContext(context.Background())
	if closeErr := a.close(); closeErr != nil {
		fmt.Fprintln(os.Stderr, "error: close log file:", closeErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
