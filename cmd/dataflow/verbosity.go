package main

import (
	"os"

	"github.com/Euraxluo/dataflow/common/logger"
)

// verbosity implements flag.Value, counting repeated -v occurrences
// (-v, -v -v, -v -v -v, ...) the way the CLI's documented `-v{,v,v,…}`
// surface requires.
type verbosity int

func (v *verbosity) String() string { return "" }

func (v *verbosity) Set(string) error {
	*v++
	return nil
}

func (v *verbosity) IsBoolFlag() bool { return true }

// resolveLevel applies the "more verbose wins" rule between RUST_LOG and
// the CLI's -v count.
func (v verbosity) resolveLevel() string {
	return logger.ResolveLevel(os.Getenv("RUST_LOG"), int(v))
}
