package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/SignScan/internal/common"
	"github.com/yildizm/SignScan/internal/controller"
	"github.com/yildizm/SignScan/internal/emoji"
	"github.com/yildizm/SignScan/internal/history"
	"github.com/yildizm/SignScan/internal/logger"
)

// newTestService fakes the detection service endpoints
func newTestService(t *testing.T, analyze http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", analyze)
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","message":"model loaded","version":"1.2.0"}`))
	})
	mux.HandleFunc("/api/supported-signs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"supported_signs":["stop","yield","speed_limit_50"],"total_count":3}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func stopSignHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"detections":[{"sign_type":"stop","description":"Stop sign","confidence":0.97}],"processing_time":0.42,"file_type":"image"}`))
}

// setupCLI isolates configuration and history for one test
func setupCLI(t *testing.T, baseURL string) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SIGNSCAN_ENDPOINT_BASE_URL", baseURL)
	t.Setenv("SIGNSCAN_STORAGE_HISTORY_PATH", filepath.Join(home, "history.db"))
	t.Setenv("SIGNSCAN_OUTPUT_COLOR_MODE", "never")

	globalConfig = nil
	t.Cleanup(func() {
		globalConfig = nil
		emoji.SetEmojiDisabled(false)
	})
	return home
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand("1.0.0", "abc123", "2026-01-01")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("\x89PNG fake image"), 0o600); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}
	return path
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	server := newTestService(t, stopSignHandler)
	home := setupCLI(t, server.URL)
	image := writeImage(t, home, "stop.png")

	out, err := executeCommand(t, "analyze", "-o", "json", image)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if decoded["phase"] != "succeeded" {
		t.Errorf("Expected phase succeeded, got %v", decoded["phase"])
	}
	if !strings.Contains(out, `"stop"`) {
		t.Errorf("Expected stop detection in output, got %s", out)
	}
}

func TestAnalyzeCommand_FailureExitsNonZero(t *testing.T) {
	server := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model crashed"}`))
	})
	home := setupCLI(t, server.URL)
	image := writeImage(t, home, "stop.png")

	out, err := executeCommand(t, "analyze", "-o", "json", image)
	if err == nil {
		t.Fatal("Expected failed analysis to return an error")
	}
	if !strings.Contains(err.Error(), "analysis failed") {
		t.Errorf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, `"failed"`) {
		t.Errorf("Expected failed phase to be printed, got %s", out)
	}
}

func TestAnalyzeCommand_MissingFile(t *testing.T) {
	server := newTestService(t, stopSignHandler)
	home := setupCLI(t, server.URL)

	_, err := executeCommand(t, "analyze", filepath.Join(home, "missing.png"))
	if err == nil || !strings.Contains(err.Error(), "invalid file path") {
		t.Errorf("Expected invalid file path error, got %v", err)
	}
}

func TestAnalyzeCommand_UnsupportedFile(t *testing.T) {
	server := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Unsupported file must not be uploaded")
	})
	home := setupCLI(t, server.URL)
	notes := writeImage(t, home, "notes.txt")

	_, err := executeCommand(t, "analyze", notes)
	if err == nil {
		t.Fatal("Expected unsupported file to be rejected")
	}
}

func TestSignsCommand(t *testing.T) {
	server := newTestService(t, stopSignHandler)
	setupCLI(t, server.URL)

	out, err := executeCommand(t, "--no-emoji", "signs")
	if err != nil {
		t.Fatalf("signs failed: %v", err)
	}
	if !strings.Contains(out, "Supported signs (3)") {
		t.Errorf("Expected sign count, got %s", out)
	}
	for _, sign := range []string{"stop", "yield", "speed_limit_50"} {
		if !strings.Contains(out, sign) {
			t.Errorf("Expected %s in output", sign)
		}
	}
}

func TestHealthCommand(t *testing.T) {
	server := newTestService(t, stopSignHandler)
	setupCLI(t, server.URL)

	out, err := executeCommand(t, "health")
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	if !strings.Contains(out, "healthy: model loaded") {
		t.Errorf("Expected status line, got %s", out)
	}
	if !strings.Contains(out, "Version: 1.2.0") {
		t.Errorf("Expected version line, got %s", out)
	}
}

func TestHealthCommand_Unreachable(t *testing.T) {
	server := newTestService(t, stopSignHandler)
	setupCLI(t, server.URL)
	server.Close()

	if _, err := executeCommand(t, "health"); err == nil {
		t.Error("Expected unreachable service to fail the health check")
	}
}

func TestHistoryCommand_ListAndClear(t *testing.T) {
	server := newTestService(t, stopSignHandler)
	home := setupCLI(t, server.URL)
	image := writeImage(t, home, "stop.png")

	if _, err := executeCommand(t, "analyze", "-o", "json", image); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	out, err := executeCommand(t, "history", "-o", "json")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	var entries []history.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("History output is not JSON: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].FileName != "stop.png" {
		t.Fatalf("Expected one stop.png entry, got %+v", entries)
	}
	if entries[0].DetectionCount != 1 {
		t.Errorf("Expected 1 detection, got %d", entries[0].DetectionCount)
	}

	out, err = executeCommand(t, "history", "--clear")
	if err != nil {
		t.Fatalf("history --clear failed: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 recorded analyses") {
		t.Errorf("Unexpected clear output: %s", out)
	}

	out, err = executeCommand(t, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No analyses recorded yet") {
		t.Errorf("Expected empty history, got %s", out)
	}
}

func TestHistoryCommand_Disabled(t *testing.T) {
	server := newTestService(t, stopSignHandler)
	setupCLI(t, server.URL)
	t.Setenv("SIGNSCAN_STORAGE_HISTORY_ENABLED", "false")

	if _, err := executeCommand(t, "history"); err == nil {
		t.Error("Expected error when history is disabled")
	}
}

func TestVersionCommand(t *testing.T) {
	// A broken config must not stop version from running
	setupCLI(t, "ftp://invalid")

	out, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "SignScan 1.0.0 (abc123) built on 2026-01-01") {
		t.Errorf("Unexpected version output: %s", out)
	}
}

func TestInvalidConfigFailsCommands(t *testing.T) {
	setupCLI(t, "ftp://invalid")

	if _, err := executeCommand(t, "signs"); err == nil {
		t.Error("Expected invalid endpoint scheme to fail config loading")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	server := newTestService(t, stopSignHandler)
	home := setupCLI(t, server.URL)
	path := filepath.Join(home, "conf", "signscan.yaml")

	out, err := executeCommand(t, "config", "init", "--minimal", "--path", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("Expected created path in output, got %s", out)
	}

	if _, err := executeCommand(t, "config", "init", "--path", path); err == nil {
		t.Error("Expected init to refuse overwriting without --force")
	}

	out, err = executeCommand(t, "--config", path, "config", "validate")
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	if !strings.Contains(out, "Configuration is valid") {
		t.Errorf("Unexpected validate output: %s", out)
	}
	if !strings.Contains(out, "Endpoint: "+server.URL) {
		t.Errorf("Expected env override in summary, got %s", out)
	}
}

func TestSkipsConfig(t *testing.T) {
	parent := &cobra.Command{Use: "config", Annotations: map[string]string{skipConfigAnnotation: "true"}}
	child := &cobra.Command{Use: "show"}
	parent.AddCommand(child)
	plain := &cobra.Command{Use: "analyze"}

	if !skipsConfig(parent) {
		t.Error("Expected annotated command to skip config")
	}
	if !skipsConfig(child) {
		t.Error("Expected child of annotated command to skip config")
	}
	if skipsConfig(plain) {
		t.Error("Expected plain command to load config")
	}
}

func TestFormatHistoryEntry(t *testing.T) {
	emoji.SetEmojiDisabled(true)
	defer emoji.SetEmojiDisabled(false)

	pt := 0.5
	success := history.Entry{
		FileName:       "stop.png",
		Phase:          controller.PhaseSucceeded,
		DetectionCount: 2,
		ProcessingTime: &pt,
		Detections: []common.Detection{
			{SignType: "stop"},
			{SignType: "yield"},
		},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	line := formatHistoryEntry(success)
	for _, want := range []string{"stop.png", "2 sign(s)", "stop, yield", "0.50s"} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}

	failed := history.Entry{
		FileName:     "clip.mp4",
		Phase:        controller.PhaseFailed,
		ErrorMessage: "Network error: connection refused",
		CreatedAt:    time.Now(),
	}
	line = formatHistoryEntry(failed)
	if !strings.Contains(line, "connection refused") || strings.Contains(line, "sign(s)") {
		t.Errorf("Unexpected failure line %q", line)
	}
}

func TestSettledPaths(t *testing.T) {
	now := time.Now()
	pending := map[string]time.Time{
		"/in/b.png": now.Add(-time.Second),
		"/in/a.png": now.Add(-time.Second),
		"/in/c.mp4": now.Add(-2 * time.Second),
		"/in/d.jpg": now.Add(time.Second),
	}

	got := settledPaths(pending, now)
	want := []string{"/in/c.mp4", "/in/a.png", "/in/b.png"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestValidateWatchDir(t *testing.T) {
	dir := t.TempDir()
	file := writeImage(t, dir, "stop.png")

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"folder", dir, false},
		{"empty", "  ", true},
		{"missing", filepath.Join(dir, "nope"), true},
		{"file", file, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWatchDir(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateWatchDir(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestDropFolder_SettledSupportedFiles(t *testing.T) {
	dir := t.TempDir()

	folder, err := newDropFolder(dir, 50*time.Millisecond, logger.Discard())
	if err != nil {
		t.Fatalf("Failed to watch folder: %v", err)
	}
	defer cleanupDropFolder(folder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go folder.Run(ctx)

	writeImage(t, dir, "notes.txt")
	writeImage(t, dir, ".hidden.png")
	image := writeImage(t, dir, "stop.png")

	select {
	case path := <-folder.Paths():
		if path != image {
			t.Errorf("Expected %s, got %s", image, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for dropped file")
	}

	select {
	case path := <-folder.Paths():
		t.Errorf("Unexpected extra path %s", path)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	for range folder.Paths() {
	}
}

func TestDropFolder_RejectsFile(t *testing.T) {
	file := writeImage(t, t.TempDir(), "stop.png")
	if _, err := newDropFolder(file, time.Second, nil); err == nil {
		t.Error("Expected error when watching a file")
	}
}
