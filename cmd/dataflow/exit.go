package main

import "github.com/Euraxluo/dataflow/internal/errs"

// exitCodeFor maps a top-level error onto the process exit code: a failed
// child's own exit code when known, 1 otherwise, per spec.md §6.
func exitCodeFor(err error) int {
	if exitErr, ok := err.(*errs.ChildExitError); ok && exitErr.Known {
		return exitErr.Code
	}
	return 1
}
