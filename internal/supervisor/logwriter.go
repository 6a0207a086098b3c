package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/Euraxluo/dataflow/common/logger"
)

// logLevelPattern matches a child's own structured log lines so the
// supervisor elides them from the node's log file instead of double
// logging: the child already writes these through its own logger.
var logLevelPattern = regexp.MustCompile(`TRACE|INFO|DEBUG|WARN|ERROR`)

// stdoutAdmits reports whether a line read from a child's stdout should be
// forwarded to the log file: admitted unless it looks like one of the
// child's own structured log lines.
func stdoutAdmits(line string) bool {
	return !logLevelPattern.MatchString(line) || strings.HasSuffix(line, "\n\n")
}

// stderrAdmits reports whether a line read from a child's stderr should be
// forwarded: stack traces are kept intact elsewhere and are not
// duplicated into the node's log file.
func stderrAdmits(line string) bool {
	return !strings.HasPrefix(line, "Traceback")
}

// childLogReader scans r line by line, sending each admitted line on
// logCh. It returns once r is exhausted (child stdio closed).
func childLogReader(nodeID string, r io.Reader, logCh chan<- string, admits func(string) bool, log *logger.Logger) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text() + "\n"
		if !admits(line) {
			continue
		}
		logCh <- line
	}
	if err := scanner.Err(); err != nil {
		log.Error("child log reader failed", "node_id", nodeID, "error", err)
	}
}

// writeLogsToFile drains logCh into path, flushing and fsyncing after
// every record, then emits eventLogged on done once the channel closes.
func writeLogsToFile(ctx context.Context, nodeID, path string, logCh <-chan string, done chan<- event, log *logger.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create log file for node %q: %w", nodeID, err)
	}
	defer f.Close()

	for line := range logCh {
		if _, err := f.WriteString(line); err != nil {
			log.Error("failed to write node log line", "node_id", nodeID, "error", err)
			continue
		}
		if err := f.Sync(); err != nil {
			log.Error("failed to fsync node log", "node_id", nodeID, "error", err)
		}
	}

	select {
	case done <- eventLogged:
	case <-ctx.Done():
	}
	return nil
}
