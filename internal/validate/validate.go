// Package validate checks a canonicalized descriptor for structural and
// referential problems before it is handed to the supervisor, grounded on
// original_source/ch3/src/descriptor/validate.rs's check_dataflow.
package validate

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/errs"
	"github.com/Euraxluo/dataflow/internal/ids"
)

// CheckDataflow validates every operator's source and every input mapping
// across the canonical node list, resolving relative source paths against
// workingDir. When build is true, existence checks that would otherwise
// fail against a not-yet-built artifact are skipped, per spec.md §4.2.
func CheckDataflow(nodes []descriptor.NormalNode, workingDir string, build bool) error {
	for _, node := range nodes {
		for _, op := range node.Kind.Operators {
			if err := checkSource(op.Config.Source, workingDir, build); err != nil {
				return &errs.ValidationError{
					Node:     string(node.ID),
					Operator: string(op.ID),
					Reason:   err.Error(),
				}
			}
			for _, entry := range op.Config.RunConfig.Inputs {
				inputID := fmt.Sprintf("%s/%s/%s", op.ID, node.ID, entry.ID)
				if err := checkInput(entry.Input, nodes, inputID); err != nil {
					return &errs.ValidationError{
						Node:     string(node.ID),
						Operator: string(op.ID),
						Input:    string(entry.ID),
						Reason:   err.Error(),
					}
				}
			}
		}
	}
	return nil
}

func sourceIsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// resolvePath mirrors resolve_path: an extensionless path is given the
// platform executable extension, then searched relative to workingDir and
// finally on $PATH.
func resolvePath(source string, workingDir string) (string, error) {
	path := source
	if filepath.Ext(path) == "" && runtime.GOOS == "windows" {
		path += ".exe"
	}

	abs := filepath.Join(workingDir, path)
	if resolved, err := filepath.Abs(abs); err == nil {
		if _, statErr := os.Stat(resolved); statErr == nil {
			return resolved, nil
		}
	}

	if found, err := exec.LookPath(path); err == nil {
		return found, nil
	}

	return "", fmt.Errorf("could not find source path %s", path)
}

func resolveURL(url string) error {
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Head(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("`%s` is not a valid URL", url)
	}
	return nil
}

// adjustSharedLibraryPath mirrors adjust_shared_library_path: the declared
// file name must have no "lib" prefix and no extension, since both are
// added by the platform's shared-library naming convention.
func adjustSharedLibraryPath(path string) (string, error) {
	fileName := filepath.Base(path)
	if strings.HasPrefix(fileName, "lib") {
		return "", fmt.Errorf("shared library file name must not start with `lib`, prefix is added automatically")
	}
	if filepath.Ext(fileName) != "" {
		return "", fmt.Errorf("shared library file name must have no extension, it is added automatically")
	}

	prefix, suffix := sharedLibraryNamingConvention()
	libFileName := prefix + fileName + suffix
	return filepath.Join(filepath.Dir(path), libFileName), nil
}

func sharedLibraryNamingConvention() (prefix, suffix string) {
	switch runtime.GOOS {
	case "windows":
		return "", ".dll"
	case "darwin":
		return "lib", ".dylib"
	default:
		return "lib", ".so"
	}
}

func checkSource(source descriptor.OperatorSource, workingDir string, build bool) error {
	value := source.Value
	switch source.Kind {
	case descriptor.SourceSharedLibrary:
		if sourceIsURL(value) {
			if err := resolveURL(value); err != nil {
				return fmt.Errorf("could not find shared library url `%s`: %w", value, err)
			}
			return nil
		}
		adjusted, err := adjustSharedLibraryPath(value)
		if err != nil {
			return err
		}
		if build {
			return nil
		}
		if _, err := os.Stat(filepath.Join(workingDir, adjusted)); err != nil {
			return fmt.Errorf("no shared library at `%s`", adjusted)
		}
	case descriptor.SourcePythonModule:
		if sourceIsURL(value) {
			if err := resolveURL(value); err != nil {
				return fmt.Errorf("could not find Python library url `%s`: %w", value, err)
			}
			return nil
		}
		if build {
			return nil
		}
		if _, err := os.Stat(filepath.Join(workingDir, value)); err != nil {
			return fmt.Errorf("no Python library at `%s`", value)
		}
	case descriptor.SourceWasmModule:
		if sourceIsURL(value) {
			if err := resolveURL(value); err != nil {
				return fmt.Errorf("could not find WASM library url `%s`: %w", value, err)
			}
			return nil
		}
		if build {
			return nil
		}
		if _, err := os.Stat(filepath.Join(workingDir, value)); err != nil {
			return fmt.Errorf("no WASM library at `%s`", value)
		}
	case descriptor.SourceShell:
		if sourceIsURL(value) {
			if err := resolveURL(value); err != nil {
				return fmt.Errorf("could not find shell url `%s`: %w", value, err)
			}
			return nil
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return fmt.Errorf("shell source must not be empty")
		}
		if build {
			return nil
		}
		if _, err := resolvePath(fields[0], workingDir); err != nil {
			return fmt.Errorf("could not find shell path `%s`: %w", fields[0], err)
		}
	case descriptor.SourceExeTarget:
		if sourceIsURL(value) {
			if err := resolveURL(value); err != nil {
				return fmt.Errorf("could not find exe-target url `%s`: %w", value, err)
			}
			return nil
		}
		if build && !strings.ContainsAny(value, " \t") {
			return nil
		}
		if _, err := resolvePath(value, workingDir); err != nil {
			return fmt.Errorf("could not find exe-target `%s`: %w", value, err)
		}
	}
	return nil
}

func checkInput(input descriptor.Input, nodes []descriptor.NormalNode, inputIDStr string) error {
	if input.Mapping.IsTimer {
		return nil
	}

	var sourceNode *descriptor.NormalNode
	for i := range nodes {
		if nodes[i].ID == input.Mapping.Source {
			sourceNode = &nodes[i]
			break
		}
	}
	if sourceNode == nil {
		return fmt.Errorf("source node `%s` mapped to input `%s` does not exist", input.Mapping.Source, inputIDStr)
	}

	operatorID, output, found := strings.Cut(string(input.Mapping.Output), "/")
	if !found {
		operatorID, output = "", ""
	}

	var operator *descriptor.NormalOperatorDefinition
	for i := range sourceNode.Kind.Operators {
		if string(sourceNode.Kind.Operators[i].ID) == operatorID {
			operator = &sourceNode.Kind.Operators[i]
			break
		}
	}
	if operator == nil {
		return fmt.Errorf("source operator `%s/%s` used for input `%s` does not exist",
			input.Mapping.Source, operatorID, inputIDStr)
	}

	if !operator.Config.RunConfig.HasOutput(ids.DataId(output)) {
		return fmt.Errorf("output `%s/%s/%s` mapped to input `%s` does not exist",
			input.Mapping.Source, operatorID, output, inputIDStr)
	}
	return nil
}
