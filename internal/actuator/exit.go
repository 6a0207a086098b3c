package actuator

import (
	"os/exec"

	"github.com/Euraxluo/dataflow/internal/errs"
	"github.com/Euraxluo/dataflow/internal/ids"
)

// translateExit maps a completed *exec.Cmd's wait error onto the typed
// ChildExitError, distinguishing a known exit code from a signal kill.
func translateExit(operatorID ids.OperatorId, cmd *exec.Cmd, waitErr error) error {
	if waitErr == nil {
		return nil
	}
	exitErr, ok := waitErr.(*exec.ExitError)
	if !ok {
		return &errs.SpawnError{NodeID: string(operatorID), Err: waitErr}
	}
	code := exitErr.ExitCode()
	if code < 0 {
		return &errs.ChildExitError{NodeID: string(operatorID), Known: false}
	}
	return &errs.ChildExitError{NodeID: string(operatorID), Code: code, Known: true}
}
