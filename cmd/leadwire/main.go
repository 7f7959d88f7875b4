// Package main implements the leadwire command: the HTTP API that ingests
// articles, analyzes them with an LLM and serves a ranked feed that learns
// from each user's decisions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
