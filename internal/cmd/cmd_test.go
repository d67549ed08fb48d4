package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/loglens/backend/internal/output"
	"github.com/loglens/backend/internal/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const syslogSample = `Jan 15 10:30:00 web01 sshd[42]: Accepted password for alice
Jan 15 10:30:05 web01 kernel: error: disk quota exceeded
Jan 15 10:31:00 web01 cron[7]: warning: job took too long
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInspect_Text(t *testing.T) {
	path := writeFile(t, "sys.log", syslogSample)

	out, err := run(t, "inspect", path, "--errors")
	require.NoError(t, err)

	assert.Contains(t, out, "Syslog")
	assert.Contains(t, out, "Total Lines:")
	assert.Contains(t, out, "Errors")
	assert.Contains(t, out, "disk quota exceeded")
	assert.NotContains(t, out, "Accepted password")
}

func TestInspect_JSONWithLevelFilter(t *testing.T) {
	path := writeFile(t, "sys.log", syslogSample)

	out, err := run(t, "inspect", path, "--entries", "--level", "warning", "-o", "json")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var info struct {
		Name    string `json:"name"`
		General []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"general"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, path, info.Name)
	assert.Equal(t, "Format", info.General[1].Name)
	assert.Equal(t, "Syslog", info.General[1].Value)

	var list struct {
		Title string `json:"title"`
		Total int    `json:"total"`
		Rows  []struct {
			Level string `json:"level"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &list))
	assert.Equal(t, "Entries", list.Title)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "WARNING", list.Rows[0].Level)
}

func TestInspect_Errors(t *testing.T) {
	_, err := run(t, "inspect", filepath.Join(t.TempDir(), "missing.log"))
	assert.Error(t, err)

	empty := writeFile(t, "empty.log", "")
	_, err = run(t, "inspect", empty)
	assert.Error(t, err)

	path := writeFile(t, "sys.log", syslogSample)
	_, err = run(t, "inspect", path, "-o", "xml")
	assert.Error(t, err)
}

func TestHighlight_Window(t *testing.T) {
	path := writeFile(t, "sys.log", syslogSample)

	// Offset 65 falls inside the second line, which starts at byte 60.
	out, err := run(t, "highlight", path, "--offset", "65", "--limit", "1")
	require.NoError(t, err)

	lines := strings.Split(syslogSample, "\n")
	assert.Equal(t, lines[1]+"\n", out)
}

func TestHighlight_JSONSpans(t *testing.T) {
	path := writeFile(t, "app.log", "ERROR 42\n")

	out, err := run(t, "highlight", path, "-o", "json")
	require.NoError(t, err)

	var payload struct {
		Text  string `json:"text"`
		Spans []struct {
			Kind  string `json:"kind"`
			Class string `json:"class"`
		} `json:"spans"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "ERROR 42\n", payload.Text)
	require.Len(t, payload.Spans, 2)
	assert.Equal(t, "level_error", payload.Spans[0].Kind)
	assert.Equal(t, "number", payload.Spans[1].Class)
}

func TestProbe(t *testing.T) {
	logFile := writeFile(t, "sys.log", syslogSample)
	notes := writeFile(t, "notes.md", syslogSample)
	plain := writeFile(t, "plain.txt", "hello there\n")

	out, err := run(t, "probe", logFile, notes, plain, filepath.Join(t.TempDir(), "gone.log"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, logFile+"\teligible\tSyslog", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], notes+"\tskipped"))
	assert.True(t, strings.HasPrefix(lines[2], plain+"\tskipped"))
	assert.Contains(t, lines[3], "error:")
}

func TestProbe_CustomExtensionsJSON(t *testing.T) {
	notes := writeFile(t, "notes.md", syslogSample)

	out, err := run(t, "probe", notes, "--extensions", "md", "-o", "json")
	require.NoError(t, err)

	var res probeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Eligible)
	assert.Equal(t, "Syslog", res.Format.String())
}

func TestConfigFileSetsOutput(t *testing.T) {
	path := writeFile(t, "app.log", "ERROR 42\n")
	cfg := writeFile(t, "loglens.yaml", "output: json\n")

	out, err := run(t, "highlight", path, "--config", cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"), out)

	_, err = run(t, "highlight", path, "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFollowEvents_ReloadsChangedFile(t *testing.T) {
	path := writeFile(t, "app.log", "INFO start\n")

	d := &watchedDoc{path: path, parseCap: 1 << 20}
	require.NoError(t, d.reload())
	defer d.close()
	assert.Equal(t, 1, d.doc.Statistics().TotalLines)

	require.NoError(t, os.WriteFile(path, []byte("INFO start\nERROR boom\n"), 0644))

	events := make(chan watcher.Event, 3)
	events <- watcher.Event{Path: "/elsewhere.log", Op: fsnotify.Write}
	events <- watcher.Event{Path: path, Op: fsnotify.Remove}
	events <- watcher.Event{Path: path, Op: fsnotify.Write}
	close(events)

	var buf bytes.Buffer
	err := followEvents(events, map[string]*watchedDoc{path: d}, output.NewJSONRenderer(&buf))
	require.NoError(t, err)

	assert.Equal(t, 2, d.doc.Statistics().TotalLines)
	assert.Equal(t, 1, d.doc.Statistics().Error)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}
