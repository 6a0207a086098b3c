// Command dataflow is the CLI entry point: `show` renders a descriptor as
// a mermaid graph, `launch` runs the supervisor, and `start` is the child
// mode the supervisor re-execs into (also runnable standalone against a
// file for local debugging). Grounded on
// original_source/ch3/src/{main,cli}.rs's subcommand split; translated to
// the standard library's flag package since nothing in this codebase's
// dependency set covers CLI argument parsing.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "show":
		err = runShow(os.Args[2:])
	case "launch":
		err = runLaunch(ctx, os.Args[2:])
	case "start":
		err = runStart(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "dataflow:", err)
		os.Exit(exitCodeFor(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: dataflow <command> [flags]

commands:
  show    --dataflow <file> [--mermaid | --open]
  launch  --dataflow <file> [--build]
  start   --dataflow <file> | --node <id> [--build]`)
}
