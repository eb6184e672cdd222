package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"nexus-capture/internal/config"
	"nexus-capture/internal/domain"
	"nexus-capture/pkg/logger"
)

// fakeNexus stands in for the NEXUS API and counts capture posts.
type fakeNexus struct {
	server   *httptest.Server
	captures atomic.Int32
}

func newFakeNexus(t *testing.T) *fakeNexus {
	t.Helper()
	f := &fakeNexus{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/capture", func(w http.ResponseWriter, r *http.Request) {
		f.captures.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"n1"}`))
	})
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/transcribe", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"text":"hello from audio"}`))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// setupTestContainer wires an in-memory container against apiURL.
func setupTestContainer(t *testing.T, apiURL string, nexusEnabled string) *config.Container {
	t.Helper()
	for _, key := range []string{
		"NOTION_TOKEN", "NOTION_DATABASE_ID", "ASTRA_PASSWORD", "OBSERVER_WEBHOOK_URLS", "DATA_DIR",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("NEXUS_API_URL", apiURL)
	t.Setenv("NEXUS_ENABLED", nexusEnabled)
	t.Setenv("NOTION_ENABLED", "false")

	c, err := config.NewContainerWithLogger(config.NewConfig(), logger.NewLoggerWithWriter(io.Discard, "error", "text"))
	if err != nil {
		t.Fatalf("failed to build container: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// runCLI runs the app with args and returns what it wrote to stdout.
func runCLI(t *testing.T, c *config.Container, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(c)
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(append([]string{"capturectl"}, args...))
	return out.String(), err
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single tag", "foo", []string{"foo"}},
		{"multiple tags", "foo,bar,baz", []string{"foo", "bar", "baz"}},
		{"tags with spaces", " foo , bar ", []string{"foo", "bar"}},
		{"empty tags filtered", "foo,,bar,", []string{"foo", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseTags(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d tags, got %d", len(tt.expected), len(result))
			}
			for i, tag := range result {
				if tag != tt.expected[i] {
					t.Errorf("expected tag[%d]=%q, got %q", i, tt.expected[i], tag)
				}
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		args     []string
		expected bool
	}{
		{[]string{"capturectl"}, true},
		{[]string{"capturectl", "--help"}, true},
		{[]string{"capturectl", "-v"}, true},
		{[]string{"capturectl", "help"}, true},
		{[]string{"capturectl", "capture", "x"}, false},
	}
	for _, tt := range tests {
		if got := isHelpOrVersion(tt.args); got != tt.expected {
			t.Errorf("isHelpOrVersion(%v) = %v, want %v", tt.args, got, tt.expected)
		}
	}
}

func TestCLICaptureLocalOnly(t *testing.T) {
	c := setupTestContainer(t, "http://127.0.0.1:0", "false")

	out, err := runCLI(t, c, "capture", "--category", "quote", "--tags", "a, b", "--title", "Page", "hello", "world")
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	var result map[string]json.RawMessage
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to decode output %q: %v", out, err)
	}
	if string(result["nexusResult"]) != "null" || string(result["notionResult"]) != "null" {
		t.Fatalf("expected no sink results, got %s", out)
	}

	out, err = runCLI(t, c, "history", "--limit", "0")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var history struct {
		Captures []*domain.Capture `json:"captures"`
		Count    int               `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if history.Count != 1 {
		t.Fatalf("expected 1 capture, got %d", history.Count)
	}
	got := history.Captures[0]
	if got.Content != "hello world" || got.Category != domain.CategoryQuote || got.SourceTitle != "Page" {
		t.Fatalf("unexpected capture: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[1] != "b" {
		t.Fatalf("unexpected tags: %v", got.Tags)
	}

	out, err = runCLI(t, c, "show", "abc")
	if err == nil || !strings.Contains(err.Error(), "[validation]") {
		t.Fatalf("expected validation error, got %v", err)
	}
	out, err = runCLI(t, c, "show", "1")
	if err == nil || !strings.Contains(err.Error(), "[not_found]") {
		t.Fatalf("expected not found error, got %v (%s)", err, out)
	}
}

func TestCLICaptureWhitespace(t *testing.T) {
	c := setupTestContainer(t, "http://127.0.0.1:0", "false")

	if _, err := runCLI(t, c, "capture", "   "); err != nil {
		t.Fatalf("expected whitespace content to be accepted, got %v", err)
	}
	out, err := runCLI(t, c, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, `"content": "   "`) {
		t.Fatalf("expected the capture verbatim, got %s", out)
	}
}

func TestCLICaptureToNexus(t *testing.T) {
	nexus := newFakeNexus(t)
	c := setupTestContainer(t, nexus.server.URL, "true")

	if _, err := runCLI(t, c, "settings", "--secret", "pw"); err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	out, err := runCLI(t, c, "capture", "remote")
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if !strings.Contains(out, `"n1"`) {
		t.Fatalf("expected NEXUS payload in output, got %s", out)
	}
	if nexus.captures.Load() != 1 {
		t.Fatalf("expected 1 NEXUS call, got %d", nexus.captures.Load())
	}
}

func TestCLISync(t *testing.T) {
	nexus := newFakeNexus(t)
	c := setupTestContainer(t, nexus.server.URL, "false")

	for _, content := range []string{"one", "two", "three"} {
		if _, err := runCLI(t, c, "capture", content); err != nil {
			t.Fatalf("capture failed: %v", err)
		}
	}

	_, err := runCLI(t, c, "sync")
	if err == nil || !strings.Contains(err.Error(), "astraPassword") {
		t.Fatalf("expected missing secret error, got %v", err)
	}

	if _, err := runCLI(t, c, "settings", "--secret", "pw"); err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	out, err := runCLI(t, c, "sync")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	var report domain.SyncReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if report.Synced != 3 || report.Attempted != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if nexus.captures.Load() != 3 {
		t.Fatalf("expected 3 NEXUS calls, got %d", nexus.captures.Load())
	}
}

func TestCLIStatsAndClear(t *testing.T) {
	c := setupTestContainer(t, "http://127.0.0.1:0", "false")

	runCLI(t, c, "capture", "--category", "book", "chapter one")
	runCLI(t, c, "capture", "note")

	out, err := runCLI(t, c, "stats")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	var stats domain.CaptureStats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if stats.Total != 2 || stats.Book != 1 || stats.Today != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if _, err := runCLI(t, c, "clear"); err == nil {
		t.Fatalf("expected clear without --yes to fail")
	}
	if _, err := runCLI(t, c, "clear", "--yes"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	out, _ = runCLI(t, c, "stats")
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("expected empty history, got %+v", stats)
	}
}

func TestCLISettings(t *testing.T) {
	c := setupTestContainer(t, "http://127.0.0.1:0", "")

	out, err := runCLI(t, c, "settings")
	if err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	var public domain.PublicSettings
	if err := json.Unmarshal([]byte(out), &public); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if !public.NexusEnabled || public.NotionEnabled {
		t.Fatalf("unexpected defaults: %+v", public)
	}

	out, err = runCLI(t, c, "settings", "--nexus=false", "--notion-token", "tok", "--secret", "pw")
	if err != nil {
		t.Fatalf("settings update failed: %v", err)
	}
	if strings.Contains(out, "pw") {
		t.Fatalf("secret leaked: %s", out)
	}
	if err := json.Unmarshal([]byte(out), &public); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if public.NexusEnabled || public.NotionToken != "tok" {
		t.Fatalf("unexpected settings: %+v", public)
	}

	if _, err := runCLI(t, c, "sync"); err != nil {
		t.Fatalf("expected sync to run with the secret set, got %v", err)
	}
	if _, err := runCLI(t, c, "settings", "--secret", "", "--notion-token", ""); err != nil {
		t.Fatalf("settings clear failed: %v", err)
	}
	settings, err := c.SettingsRepository.Get(context.Background())
	if err != nil {
		t.Fatalf("failed to load settings: %v", err)
	}
	if settings.AstraPassword != "" || settings.NotionToken != "" {
		t.Fatalf("expected credentials to be cleared, got %+v", settings)
	}
	if _, err := runCLI(t, c, "sync"); err == nil || !strings.Contains(err.Error(), "astraPassword") {
		t.Fatalf("expected missing secret error after clearing, got %v", err)
	}
}

func TestCLITranscribe(t *testing.T) {
	nexus := newFakeNexus(t)
	c := setupTestContainer(t, nexus.server.URL, "false")

	audioPath := filepath.Join(t.TempDir(), "memo.webm")
	if err := os.WriteFile(audioPath, []byte("audio-bytes"), 0o600); err != nil {
		t.Fatalf("failed to write audio: %v", err)
	}

	_, err := runCLI(t, c, "transcribe", audioPath)
	if err == nil || !strings.Contains(err.Error(), "transcription requires an API secret") {
		t.Fatalf("expected missing secret error, got %v", err)
	}

	runCLI(t, c, "settings", "--secret", "pw")
	out, err := runCLI(t, c, "transcribe", audioPath)
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if !strings.Contains(out, "hello from audio") {
		t.Fatalf("unexpected output: %s", out)
	}

	_, err = runCLI(t, c, "transcribe", filepath.Join(t.TempDir(), "missing.webm"))
	if err == nil || !strings.Contains(err.Error(), "failed to read audio file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestCLIStatus(t *testing.T) {
	nexus := newFakeNexus(t)
	c := setupTestContainer(t, nexus.server.URL, "false")

	out, err := runCLI(t, c, "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, `"online": true`) {
		t.Fatalf("unexpected output: %s", out)
	}

	offline := setupTestContainer(t, "http://127.0.0.1:1", "false")
	out, err = runCLI(t, offline, "status")
	if err == nil || !strings.Contains(out, `"online": false`) {
		t.Fatalf("expected offline status, got %v %s", err, out)
	}
}
