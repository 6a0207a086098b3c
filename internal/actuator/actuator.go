// Package actuator spawns the external process backing one operator
// definition, grounded on
// original_source/ch4/dataflow/src/runtime/actuator/mod.rs's
// OperatorActuator trait and its executor() dispatch function.
package actuator

import (
	"context"
	"fmt"
	"io"

	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/errs"
)

// Actuator starts an operator's backing process and returns pipes for the
// bridge that ferries subscribed inputs to its stdin and forwards its
// stdout lines as published outputs.
type Actuator interface {
	// Start spawns the process rooted at workingDir. The caller owns the
	// returned stdin/stdout pipes and must call Wait once it is done
	// streaming them.
	Start(ctx context.Context, workingDir string) (stdin io.WriteCloser, stdout io.ReadCloser, err error)
	// Wait blocks until the process exits, translating its exit status into
	// a *errs.ChildExitError on failure.
	Wait() error
}

// New dispatches to the actuator matching an operator's declared source
// kind, mirroring executor()'s match over OperatorSource. build mirrors
// the CLI's --build flag: an exe-target actuator runs its configured
// build command (if any) before starting, and resolves an URL source by
// downloading it fresh only when not already cached.
func New(operator descriptor.NormalOperatorDefinition, deployLog string, build bool) (Actuator, error) {
	switch operator.Config.Source.Kind {
	case descriptor.SourceExeTarget:
		return newExeTarget(operator, build), nil
	case descriptor.SourceShell:
		return newShell(operator), nil
	case descriptor.SourceSharedLibrary, descriptor.SourcePythonModule, descriptor.SourceWasmModule:
		return nil, fmt.Errorf("operator %q: %w (%s)", operator.ID, errs.ErrUnsupportedSource, operator.Config.Source.Kind.String())
	default:
		return nil, fmt.Errorf("operator %q: unrecognized source kind", operator.ID)
	}
}

func envSlice(operator descriptor.NormalOperatorDefinition) []string {
	env := make([]string, 0, len(operator.Config.Envs))
	for k, v := range operator.Config.Envs {
		env = append(env, k+"="+v.String())
	}
	return env
}
