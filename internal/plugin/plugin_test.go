package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/signlens/internal/app"
	"github.com/ayusman/signlens/internal/recognizer"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}
}

// writePlugin creates dir/name with a manifest and a shell script body.
func writePlugin(t *testing.T, dir, name string, kinds []string, script string) string {
	t.Helper()
	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	manifest, _ := json.Marshal(Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: "run.sh",
		Kinds:      kinds,
		Config:     json.RawMessage(`{"layout":"us"}`),
	})
	if err := os.WriteFile(filepath.Join(pluginDir, manifestName), manifest, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "typer", []string{"letter"}, "")
	writePlugin(t, dir, "speaker", nil, "")

	if err := os.MkdirAll(filepath.Join(dir, "no-manifest"), 0755); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken")
	os.MkdirAll(broken, 0755)
	os.WriteFile(filepath.Join(broken, manifestName), []byte("{"), 0644)

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := m.List()
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "speaker" || plugins[1].Manifest.Name != "typer" {
		t.Errorf("List() not sorted by name: %s, %s", plugins[0].Manifest.Name, plugins[1].Manifest.Name)
	}
	if want := filepath.Join(dir, "typer", "run.sh"); plugins[1].Executable != want {
		t.Errorf("Executable = %q, want %q", plugins[1].Executable, want)
	}

	if got := len(m.For("letter")); got != 2 {
		t.Errorf("For(letter) = %d plugins, want 2", got)
	}
	if got := m.For("gesture"); len(got) != 1 || got[0].Manifest.Name != "speaker" {
		t.Errorf("For(gesture) = %v, want only speaker", got)
	}

	if _, err := m.Get("missing"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrPluginNotFound", err)
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope"))
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() on missing dir: %v", err)
	}
	if len(m.List()) != 0 {
		t.Error("expected no plugins")
	}
}

func TestExecutor_Execute(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	writePlugin(t, dir, "echo", nil, `INPUT=$(cat)
echo "{\"success\":true,\"data\":$INPUT}"
`)
	m := NewManager(dir)
	m.Discover()
	p, err := m.Get("echo")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	resp, err := NewExecutor(0).Execute(context.Background(), p, &Request{Kind: "letter", Symbol: "A", Text: "A"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success")
	}

	var echoed Request
	if err := json.Unmarshal(resp.Data, &echoed); err != nil {
		t.Fatalf("failed to unmarshal echoed request: %v", err)
	}
	if echoed.Symbol != "A" || echoed.Kind != "letter" {
		t.Errorf("plugin received %+v", echoed)
	}
}

func TestExecutor_Errors(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name    string
		script  string
		timeout time.Duration
		wantErr string
	}{
		{"non-zero exit", "echo oops >&2\nexit 3\n", 0, "stderr: oops"},
		{"bad json", "echo not-json\n", 0, "parse plugin response"},
		{"timeout", "exec sleep 5\n", 100 * time.Millisecond, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			pluginDir := writePlugin(t, dir, "p", nil, tt.script)
			p := &Plugin{Path: pluginDir, Executable: filepath.Join(pluginDir, "run.sh")}

			_, err := NewExecutor(tt.timeout).Execute(context.Background(), p, &Request{})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "log.txt")
	writePlugin(t, dir, "logger", nil, `INPUT=$(cat)
echo "$INPUT" >> "`+out+`"
echo '{"success":true}'
`)
	writePlugin(t, dir, "letters-only", []string{"letter"}, `cat > /dev/null
echo '{"success":false,"error":"nope"}'
`)

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	d := NewDispatcher(m, NewExecutor(time.Second), 0)
	d.Start(context.Background())

	d.Handle(app.Result{Output: recognizer.Output{
		Text: "A",
		Committed: []recognizer.Commit{
			{Kind: recognizer.KindLetter, Symbol: "A", Confidence: 0.9},
		},
	}})
	d.Handle(app.Result{Output: recognizer.Output{
		Text: "A thank you ",
		Committed: []recognizer.Commit{
			{Kind: recognizer.KindGesture, Symbol: "thank_you", Confidence: 0.8},
		},
	}})
	d.Handle(app.Result{Output: recognizer.Output{Text: "A thank you "}})
	d.Close()
	d.Handle(app.Result{Output: recognizer.Output{Committed: []recognizer.Commit{{Kind: recognizer.KindLetter, Symbol: "B"}}}})

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("logger saw %d requests, want 2: %q", len(lines), data)
	}

	var first, second Request
	json.Unmarshal([]byte(lines[0]), &first)
	json.Unmarshal([]byte(lines[1]), &second)
	if first.Symbol != "A" || first.Word != "" {
		t.Errorf("first request = %+v", first)
	}
	if second.Symbol != "thank_you" || second.Word != "thank you" || second.Text != "A thank you " {
		t.Errorf("second request = %+v", second)
	}
	if string(first.Config) != `{"layout":"us"}` {
		t.Errorf("config = %s, want the manifest config", first.Config)
	}
}
