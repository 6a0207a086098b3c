package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/supervisor"
	"github.com/Euraxluo/dataflow/internal/validate"
)

func runStart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	var v verbosity
	fs.Var(&v, "v", "increase verbosity")
	dataflow := fs.String("dataflow", "", "yaml descriptor file path")
	node := fs.String("node", "", "node id to run")
	build := fs.Bool("build", false, "rebuild exe-target operators before validating")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *node == "" {
		return fmt.Errorf("--node is required")
	}

	log := logger.New(v.resolveLevel(), "text")

	var (
		d          *descriptor.Descriptor
		workingDir string
		err        error
	)
	if *dataflow != "" {
		d, err = descriptor.ReadFile(*dataflow)
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(*dataflow)
		if err != nil {
			return err
		}
		workingDir = filepath.Dir(abs)
	} else {
		raw := os.Getenv(supervisor.DataflowDescriptionEnv)
		if raw == "" {
			return fmt.Errorf("neither --dataflow nor %s is set", supervisor.DataflowDescriptionEnv)
		}
		d, err = descriptor.Parse([]byte(raw))
		if err != nil {
			return err
		}
		workingDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	nodes := d.Canonicalize()
	if err := validate.CheckDataflow(nodes, workingDir, *build); err != nil {
		return err
	}

	return supervisor.StartNode(ctx, *node, nodes, d.Deploy, workingDir, *build, log)
}
