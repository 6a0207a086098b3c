package visualize

import (
	"fmt"
	"html/template"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>dataflow graph</title>
  <script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script>
</head>
<body>
  <pre class="mermaid">
{{.Chart}}
  </pre>
  <script>mermaid.initialize({startOnLoad:true});</script>
{{if .StatusWSURL}}  <script>
    (function() {
      var ws = new WebSocket({{.StatusWSURL}});
      ws.onmessage = function(ev) {
        console.log("node event", JSON.parse(ev.data));
      };
    })();
  </script>
{{end}}
</body>
</html>
`

var page = template.Must(template.New("graph").Parse(pageTemplate))

// WriteHTML renders chart into an HTML page at the first free
// "<stem>-graph[.N].html" slot next to dataflowPath, optionally embedding a
// script that connects to statusWSURL when the status server is enabled.
// It returns the path written.
func WriteHTML(dataflowPath, chart, statusWSURL string) (string, error) {
	path, err := firstFreeSlot(dataflowPath)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create graph html: %w", err)
	}
	defer f.Close()

	data := struct {
		Chart       string
		StatusWSURL string
	}{Chart: chart, StatusWSURL: statusWSURL}

	if err := page.Execute(f, data); err != nil {
		return "", fmt.Errorf("render graph html: %w", err)
	}
	return path, nil
}

// firstFreeSlot picks "<stem>-graph.html", then "<stem>-graph.1.html",
// "<stem>-graph.2.html", etc., returning the first name that does not
// already exist next to dataflowPath.
func firstFreeSlot(dataflowPath string) (string, error) {
	dir := filepath.Dir(dataflowPath)
	stem := strings.TrimSuffix(filepath.Base(dataflowPath), filepath.Ext(dataflowPath))

	base := filepath.Join(dir, stem+"-graph.html")
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return base, nil
	}

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-graph.%d.html", stem, n))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
}

// Open launches the platform's default handler for path, e.g. a browser
// for an HTML file.
func Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/C", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
