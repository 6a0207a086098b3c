// Package noderuntime bridges a spawned operator process to the
// communication layer: each subscribed input is forwarded onto the
// process's stdin, and each line the process writes to stdout is
// published as one of its declared outputs. This framing doesn't appear
// in the original implementation (its own node-side driver was never
// checked in); it exists to let an operator be any external program while
// still participating in the pub/sub graph, per spec.md §4.3/§4.5.
package noderuntime

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Euraxluo/dataflow/internal/ids"
)

// envelope is one newline-delimited frame exchanged with an operator
// process: the data id it's addressed to or came from, and a
// base64-encoded payload.
type envelope struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

func encodeFrame(id ids.DataId, data []byte) ([]byte, error) {
	env := envelope{ID: string(id), Data: base64.StdEncoding.EncodeToString(data)}
	line, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame for %q: %w", id, err)
	}
	return append(line, '\n'), nil
}

func decodeFrame(line []byte) (ids.DataId, []byte, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return "", nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode frame payload for %q: %w", env.ID, err)
	}
	return ids.DataId(env.ID), data, nil
}

// writeFrame writes one encoded frame per call to w; safe to call
// concurrently from multiple input-forwarding goroutines because each
// write is a single io.Writer.Write call.
func writeFrame(w io.Writer, id ids.DataId, data []byte) error {
	frame, err := encodeFrame(id, data)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// scanFrames invokes handle for every newline-delimited frame read from r,
// until r is exhausted or handle returns an error.
func scanFrames(r io.Reader, handle func(ids.DataId, []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		id, data, err := decodeFrame(line)
		if err != nil {
			return err
		}
		if err := handle(id, data); err != nil {
			return err
		}
	}
	return scanner.Err()
}
