package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/Euraxluo/dataflow/common/config"
	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/Euraxluo/dataflow/internal/audit"
	"github.com/Euraxluo/dataflow/internal/supervisor"
)

func runLaunch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("launch", flag.ExitOnError)
	var v verbosity
	fs.Var(&v, "v", "increase verbosity")
	dataflow := fs.String("dataflow", "", "yaml descriptor file path")
	build := fs.Bool("build", false, "rebuild exe-target operators before validating")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataflow == "" {
		return fmt.Errorf("--dataflow is required")
	}

	log := logger.New(v.resolveLevel(), "text")

	cfg, err := config.Load("dataflow-launch")
	if err != nil {
		return err
	}

	rec, err := audit.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rec.Close()

	opts := supervisor.Options{
		StatusServerEnabled:  cfg.Status.Enabled,
		StatusServerPort:     cfg.Status.Port,
		Audit:                rec,
		TelemetryEnabled:     cfg.Telemetry.EnablePprof,
		TelemetryPprofPort:   cfg.Telemetry.PprofPort,
		TelemetryMetricsPort: cfg.Telemetry.MetricsPort,
	}

	return supervisor.Launch(ctx, *dataflow, *build, opts, log)
}
