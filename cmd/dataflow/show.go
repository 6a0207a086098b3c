package main

import (
	"flag"
	"fmt"

	"github.com/Euraxluo/dataflow/common/config"
	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/visualize"
)

func runShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	var v verbosity
	fs.Var(&v, "v", "increase verbosity")
	dataflow := fs.String("dataflow", "", "yaml descriptor file path")
	mermaid := fs.Bool("mermaid", false, "print the mermaid source to stdout")
	open := fs.Bool("open", false, "write an HTML page and open it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mermaid && *open {
		return fmt.Errorf("--mermaid and --open are mutually exclusive")
	}
	if *dataflow == "" {
		return fmt.Errorf("--dataflow is required")
	}

	log := logger.New(v.resolveLevel(), "text")

	d, err := descriptor.ReadFile(*dataflow)
	if err != nil {
		return err
	}
	nodes := d.Canonicalize()
	chart := visualize.Mermaid(nodes)

	if *mermaid {
		fmt.Println(chart)
		return nil
	}

	cfg, err := config.Load("dataflow-show")
	if err != nil {
		return err
	}

	statusWS := ""
	if cfg.Status.Enabled {
		statusWS = fmt.Sprintf("ws://127.0.0.1:%d/ws", cfg.Status.Port)
	}

	path, err := visualize.WriteHTML(*dataflow, chart, statusWS)
	if err != nil {
		return err
	}
	log.Info("wrote graph", "path", path)

	if !*open {
		fmt.Println(path)
		return nil
	}
	return visualize.Open(path)
}
