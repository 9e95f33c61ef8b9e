package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
log: json
metrics_addr: ":2112"
threads:
  - name: worker-a
    kind: joinable
    priority: 60
    iterations: 500
    pause_after_ms: 50
    resume_after_ms: 150
  - name: background
    kind: detached
    iterations: 200
    kill_after_ms: 100
`)

	sc, err := loadScenario(path)
	if err != nil {
		t.Fatalf("loadScenario failed: %v", err)
	}

	if sc.Log != "json" {
		t.Errorf("log mode = %q, want json", sc.Log)
	}
	if sc.MetricsAddr != ":2112" {
		t.Errorf("metrics addr = %q, want :2112", sc.MetricsAddr)
	}
	if len(sc.Threads) != 2 {
		t.Fatalf("threads = %d, want 2", len(sc.Threads))
	}
	if sc.Threads[0].Priority == nil || *sc.Threads[0].Priority != 60 {
		t.Errorf("threads[0].priority = %v, want 60", sc.Threads[0].Priority)
	}
	if sc.Threads[1].Priority != nil {
		t.Errorf("threads[1].priority = %v, want unset", *sc.Threads[1].Priority)
	}
	if sc.Threads[1].KillAfterMS != 100 {
		t.Errorf("threads[1].kill_after_ms = %d, want 100", sc.Threads[1].KillAfterMS)
	}
}

func TestLoadScenario_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no threads",
			content: "log: console\n",
			wantErr: "no threads",
		},
		{
			name: "bad kind",
			content: `
threads:
  - name: x
    kind: daemon
    iterations: 1
`,
			wantErr: "unknown kind",
		},
		{
			name: "priority out of range",
			content: `
threads:
  - name: x
    kind: joinable
    priority: 101
    iterations: 1
`,
			wantErr: "out of range",
		},
		{
			name: "zero iterations",
			content: `
threads:
  - name: x
    kind: joinable
    iterations: 0
`,
			wantErr: "iterations",
		},
		{
			name: "resume without pause",
			content: `
threads:
  - name: x
    kind: joinable
    iterations: 1
    resume_after_ms: 10
`,
			wantErr: "without pause_after_ms",
		},
		{
			name: "resume before pause",
			content: `
threads:
  - name: x
    kind: joinable
    iterations: 1
    pause_after_ms: 20
    resume_after_ms: 10
`,
			wantErr: "must be after",
		},
		{
			name:    "bad log mode",
			content: "log: verbose\nthreads:\n  - {name: x, kind: joinable, iterations: 1}\n",
			wantErr: "unknown mode",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeScenario(t, tc.content)
			_, err := loadScenario(path)
			if err == nil {
				t.Fatal("loadScenario succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	if _, err := loadScenario(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("loadScenario on a missing file succeeded")
	}
}
