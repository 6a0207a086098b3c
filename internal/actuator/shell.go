package actuator

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/errs"
)

// shell runs an operator's source as a shell command line, grounded on
// original_source/ch4/dataflow/src/runtime/actuator/shell.rs.
type shell struct {
	operator descriptor.NormalOperatorDefinition
	cmd      *exec.Cmd
}

func newShell(operator descriptor.NormalOperatorDefinition) *shell {
	return &shell{operator: operator}
}

func (s *shell) Start(ctx context.Context, workingDir string) (io.WriteCloser, io.ReadCloser, error) {
	shellName, flag := "sh", "-c"
	if runtime.GOOS == "windows" {
		shellName, flag = "cmd", "/C"
	}

	line := s.operator.Config.Source.String()
	if args := s.operator.Config.Args; args != "" {
		line = strings.TrimSpace(line + " " + args)
	}

	cmd := exec.CommandContext(ctx, shellName, flag, line)
	cmd.Dir = workingDir
	cmd.Env = append(cmd.Environ(), envSlice(s.operator)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, &errs.SpawnError{NodeID: string(s.operator.ID), Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, &errs.SpawnError{NodeID: string(s.operator.ID), Err: err}
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return nil, nil, &errs.SpawnError{NodeID: string(s.operator.ID), Err: fmt.Errorf("failed to run command `%s`: %w", line, err)}
	}
	s.cmd = cmd
	return stdin, stdout, nil
}

func (s *shell) Wait() error {
	err := s.cmd.Wait()
	return translateExit(s.operator.ID, s.cmd, err)
}
