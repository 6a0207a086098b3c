package actuator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/errs"
)

// exeTarget runs an operator's source as a standalone executable, grounded
// on original_source/ch3/src/runtime/actuator/exe_target.rs.
type exeTarget struct {
	operator descriptor.NormalOperatorDefinition
	build    bool
	cmd      *exec.Cmd
}

func newExeTarget(operator descriptor.NormalOperatorDefinition, build bool) *exeTarget {
	return &exeTarget{operator: operator, build: build}
}

// resolveExecutablePath appends the platform executable extension when the
// declared target has none, mirroring adjust_executable_target_path.
func resolveExecutablePath(target string) string {
	if filepath.Ext(target) != "" {
		return target
	}
	if runtime.GOOS == "windows" {
		return target + ".exe"
	}
	return target
}

func sourceIsURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

// downloadExecutable fetches an URL source into workingDir/build/<operator
// id>, per spec.md §4.4: idempotent (skips the request entirely when the
// file already exists), chmod 0o764 on POSIX once the body is written.
func downloadExecutable(ctx context.Context, operatorID, url, workingDir string) (string, error) {
	dest := filepath.Join(workingDir, "build", operatorID)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create build dir for %q: %w", operatorID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build download request for %q: %w", operatorID, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download exe-target %q: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download exe-target %q: unexpected status %d", url, resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create downloaded exe-target %q: %w", dest, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", fmt.Errorf("write downloaded exe-target %q: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close downloaded exe-target %q: %w", dest, err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(dest, 0o764); err != nil {
			return "", fmt.Errorf("chmod downloaded exe-target %q: %w", dest, err)
		}
	}
	return dest, nil
}

// runBuild executes the operator's declared build command, when present,
// before the exe-target itself is started, per spec.md §3's `build` field.
func runBuild(ctx context.Context, op descriptor.NormalOperatorDefinition, workingDir string) error {
	if op.Config.Build == "" {
		return nil
	}
	shellName, flag := "sh", "-c"
	if runtime.GOOS == "windows" {
		shellName, flag = "cmd", "/C"
	}
	cmd := exec.CommandContext(ctx, shellName, flag, op.Config.Build)
	cmd.Dir = workingDir
	cmd.Env = append(cmd.Environ(), envSlice(op)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("build command for operator %q failed: %w: %s", op.ID, err, out)
	}
	return nil
}

func (e *exeTarget) Start(ctx context.Context, workingDir string) (io.WriteCloser, io.ReadCloser, error) {
	if e.build {
		if err := runBuild(ctx, e.operator, workingDir); err != nil {
			return nil, nil, &errs.SpawnError{NodeID: string(e.operator.ID), Err: err}
		}
	}

	source := e.operator.Config.Source.String()
	var target string
	if sourceIsURL(source) {
		downloaded, err := downloadExecutable(ctx, string(e.operator.ID), source, workingDir)
		if err != nil {
			return nil, nil, &errs.SpawnError{NodeID: string(e.operator.ID), Err: err}
		}
		target = downloaded
	} else {
		target = resolveExecutablePath(source)
		// exec.Cmd.Dir only changes the child's working directory, not how
		// a relative Path is resolved, so a relative target must be made
		// absolute against workingDir here rather than relying on Dir.
		if !filepath.IsAbs(target) && strings.ContainsRune(target, filepath.Separator) {
			target = filepath.Join(workingDir, target)
		}
	}

	var args []string
	if a := e.operator.Config.Args; a != "" {
		args = strings.Fields(a)
	}

	cmd := exec.CommandContext(ctx, target, args...)
	cmd.Dir = workingDir
	cmd.Env = append(cmd.Environ(), envSlice(e.operator)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, &errs.SpawnError{NodeID: string(e.operator.ID), Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, &errs.SpawnError{NodeID: string(e.operator.ID), Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, &errs.SpawnError{NodeID: string(e.operator.ID), Err: err}
	}
	e.cmd = cmd
	return stdin, stdout, nil
}

func (e *exeTarget) Wait() error {
	err := e.cmd.Wait()
	return translateExit(e.operator.ID, e.cmd, err)
}
