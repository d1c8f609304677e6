package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/dshills/lamp/internal/config"
	"github.com/dshills/lamp/internal/gitctx"
	"github.com/dshills/lamp/internal/history"
	"github.com/dshills/lamp/internal/providers"
	"github.com/dshills/lamp/internal/review"
)

// resetFlags resets all package-level flag variables to their zero values.
func resetFlags() {
	flagModel = ""
	flagMode = ""
	flagFormat = ""
	flagOut = ""
	flagMaxFileBytes = ""
	flagMaxTotalBytes = ""
	flagMaxTokens = 0
	flagDryRun = false
	flagForce = false
	flagRedact = false
	flagSummaryOnly = false
	flagHistoryLimit = 20
	flagHistoryJSON = false
	flagTracked = false
	flagChanged = ""
	flagInclude = nil
	flagExclude = nil
	flagGitHubPR = ""
	flagAddr = ""
	exitCode = ExitSuccess
}

// isolate points config, history and credentials at a temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	resetFlags()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("LAMP_API_KEY", "")
	t.Setenv("LAMP_BASE_URL", "")
	return tmpDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// sampleProject creates a small tree with a hidden directory, an unsupported
// file and a zip archive.
func sampleProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n\nfunc main() {}\n")
	writeFile(t, filepath.Join(dir, "pkg", "util.py"), "def helper():\n    return 1\n")
	writeFile(t, filepath.Join(dir, ".git", "config.txt"), "[core]\n")
	writeFile(t, filepath.Join(dir, "logo.png"), "\x89PNG")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("lib/extra.js")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, "export const x = 1;\n")
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "vendor.zip"), buf.String())
	return dir
}

// fakeOpenRouter answers chat completions and counts requests.
func fakeOpenRouter(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":{"code":401,"message":"No auth credentials found"}}`)
			return
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func completionBody(text string) string {
	data, _ := json.Marshal(map[string]any{
		"id":    "gen-1",
		"model": "openai/gpt-5",
		"choices": []map[string]any{{
			"message":       map[string]string{"role": "assistant", "content": text},
			"finish_reason": "stop",
		}},
	})
	return string(data)
}

// --- buildOverrides tests ---

func TestBuildOverrides_NoFlags(t *testing.T) {
	resetFlags()
	if m := buildOverrides(); len(m) != 0 {
		t.Errorf("buildOverrides() with no flags = %v, want empty map", m)
	}
}

func TestBuildOverrides_AllFlags(t *testing.T) {
	resetFlags()
	flagModel = "x-ai/grok-4"
	flagMode = "refactor"
	flagFormat = "json"
	flagMaxFileBytes = "2MiB"
	flagMaxTotalBytes = "10MiB"
	flagMaxTokens = 8000

	m := buildOverrides()

	expected := map[string]string{
		"model":         "x-ai/grok-4",
		"mode":          "refactor",
		"format":        "json",
		"maxFileBytes":  "2MiB",
		"maxTotalBytes": "10MiB",
		"maxTokens":     "8000",
	}
	if len(m) != len(expected) {
		t.Fatalf("buildOverrides() returned %d entries, want %d", len(m), len(expected))
	}
	for k, v := range expected {
		if m[k] != v {
			t.Errorf("buildOverrides()[%q] = %q, want %q", k, m[k], v)
		}
	}
}

func TestLoadConfig_RedactFlagAndValidation(t *testing.T) {
	isolate(t)
	flagRedact = true
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("--redact should enable secret redaction")
	}

	resetFlags()
	flagMode = "poetry"
	if _, err := loadConfig(); err == nil {
		t.Error("unknown mode should fail validation")
	}
}

// --- collectUploads tests ---

func TestCollectUploads_Directory(t *testing.T) {
	dir := sampleProject(t)
	uploads, err := collectUploads(testContext(t), []string{dir}, nil, selection{})
	if err != nil {
		t.Fatalf("collectUploads: %v", err)
	}

	var names []string
	for _, u := range uploads {
		names = append(names, u.Name)
	}
	got := strings.Join(names, ",")
	want := "main.go,pkg/util.py,vendor.zip"
	if got != want {
		t.Errorf("names = %s, want %s", got, want)
	}
}

func TestCollectUploads_Filtered(t *testing.T) {
	dir := sampleProject(t)
	sel := selection{Filter: gitctx.Filter{Exclude: []string{"pkg/**", "*.zip"}}}
	uploads, err := collectUploads(testContext(t), []string{dir}, nil, sel)
	if err != nil {
		t.Fatalf("collectUploads: %v", err)
	}
	if len(uploads) != 1 || uploads[0].Name != "main.go" {
		t.Errorf("uploads = %+v, want only main.go", uploads)
	}
}

func TestCollectUploads_Git(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n")
	writeFile(t, filepath.Join(dir, "pkg", "util.py"), "def helper():\n    return 1\n")
	writeFile(t, filepath.Join(dir, "logo.png"), "\x89PNG")
	writeFile(t, filepath.Join(dir, "vendor.zip"), "not really a zip")
	writeFile(t, filepath.Join(dir, ".gitignore"), "vendor.zip\n")
	for _, args := range [][]string{
		{"init"},
		{"add", "main.go", ".gitignore"},
		{"-c", "user.name=test", "-c", "user.email=test@test.com", "commit", "-m", "init"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	uploads, err := collectUploads(testContext(t), []string{dir}, nil, selection{Tracked: true})
	if err != nil {
		t.Fatalf("tracked: %v", err)
	}
	if len(uploads) != 1 || uploads[0].Name != "main.go" {
		t.Errorf("tracked uploads = %+v, want only main.go", uploads)
	}

	uploads, err = collectUploads(testContext(t), []string{dir}, nil, selection{Changed: "HEAD"})
	if err != nil {
		t.Fatalf("changed: %v", err)
	}
	if len(uploads) != 1 || uploads[0].Name != "pkg/util.py" {
		t.Errorf("changed uploads = %+v, want the untracked pkg/util.py", uploads)
	}

	_, err = collectUploads(testContext(t), []string{t.TempDir()}, nil, selection{Tracked: true})
	if !errors.Is(err, gitctx.ErrNotRepo) {
		t.Errorf("--tracked outside a repository: err = %v, want ErrNotRepo", err)
	}
}

func TestCollectUploads_ExplicitFileKeptEvenIfUnsupported(t *testing.T) {
	dir := sampleProject(t)
	uploads, err := collectUploads(testContext(t), []string{filepath.Join(dir, "logo.png")}, nil, selection{})
	if err != nil {
		t.Fatalf("collectUploads: %v", err)
	}
	if len(uploads) != 1 || uploads[0].Name != "logo.png" {
		t.Errorf("uploads = %+v, want logo.png passed through for the loader to skip", uploads)
	}
}

func TestCollectUploads_Errors(t *testing.T) {
	if _, err := collectUploads(testContext(t), []string{filepath.Join(t.TempDir(), "missing.go")}, nil, selection{}); err == nil {
		t.Error("missing path should fail")
	}
	if _, err := collectUploads(testContext(t), []string{t.TempDir()}, nil, selection{}); err == nil {
		t.Error("empty directory should fail")
	}
}

func TestUploadName(t *testing.T) {
	tests := map[string]string{
		"main.go":             "main.go",
		"./src/app.py":        "src/app.py",
		"/home/me/src/app.py": "app.py",
		"../other/lib.go":     "lib.go",
	}
	for in, want := range tests {
		if got := uploadName(in); got != want {
			t.Errorf("uploadName(%q) = %q, want %q", in, got, want)
		}
	}
}

// --- exit codes ---

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"payload", &review.PayloadTooLargeError{Estimated: 10, Limit: 5}, ExitPayloadTooLarge},
		{"no files", review.ErrNoFiles, ExitUsageError},
		{"auth", fmt.Errorf("submitting review: %w", &providers.AuthError{Status: 401}), ExitAuthError},
		{"quota", &providers.QuotaError{Status: 429}, ExitQuotaError},
		{"transport", &providers.TransportError{Op: "send", Err: errors.New("refused")}, ExitRuntimeError},
		{"other", errors.New("boom"), ExitRuntimeError},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("%s: exitCodeFor = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestExitCodes(t *testing.T) {
	codes := []int{ExitSuccess, ExitUsageError, ExitAuthError, ExitRuntimeError, ExitQuotaError, ExitPayloadTooLarge}
	want := []int{0, 2, 3, 4, 5, 6}
	for i := range codes {
		if codes[i] != want[i] {
			t.Errorf("exit code %d = %d, want %d", i, codes[i], want[i])
		}
	}
}

// --- review command tests ---

func TestReviewCmd_EndToEnd(t *testing.T) {
	tmpDir := isolate(t)
	srv, calls := fakeOpenRouter(t, http.StatusOK, completionBody("## Executive Summary\nTidy project.\n\n## Prioritized Findings\n- none."))
	t.Setenv("LAMP_BASE_URL", srv.URL)
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	outPath := filepath.Join(tmpDir, "review.md")
	reviewCmd.SetArgs([]string{sampleProject(t), "--format", "markdown", "--out", outPath})
	if err := reviewCmd.Execute(); err != nil {
		t.Fatalf("review returned error: %v", err)
	}
	if exitCode != ExitSuccess {
		t.Fatalf("exitCode = %d, want %d", exitCode, ExitSuccess)
	}
	if calls.Load() != 1 {
		t.Errorf("API calls = %d, want 1", calls.Load())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	report := string(data)
	if !strings.Contains(report, "Tidy project.") || !strings.Contains(report, "Processed: 3/3") {
		t.Errorf("unexpected report:\n%s", report)
	}

	store, err := history.Open(filepath.Join(tmpDir, "lamp", "history.db"))
	if err != nil {
		t.Fatalf("opening history: %v", err)
	}
	defer store.Close()
	entries, err := store.List(testContext(t), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Outcome != history.OutcomeSuccess {
		t.Errorf("history = %+v, want one success", entries)
	}
}

func TestReviewCmd_GitHubPR(t *testing.T) {
	isolate(t)
	srv, _ := fakeOpenRouter(t, http.StatusOK, completionBody("## Executive Summary\nShip it."))
	t.Setenv("LAMP_BASE_URL", srv.URL)
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	var posted atomic.Value
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/app/issues/5/comments" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		posted.Store(body["body"])
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":1,"html_url":"https://github.com/acme/app/pull/5#issuecomment-1"}`)
	}))
	defer gh.Close()
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("GITHUB_API_URL", gh.URL)

	reviewCmd.SetArgs([]string{sampleProject(t), "--github-pr", "acme/app#5", "--out", filepath.Join(t.TempDir(), "out.txt")})
	if err := reviewCmd.Execute(); err != nil {
		t.Fatalf("review returned error: %v", err)
	}
	if exitCode != ExitSuccess {
		t.Fatalf("exitCode = %d, want %d", exitCode, ExitSuccess)
	}
	body, _ := posted.Load().(string)
	if !strings.Contains(body, "# Lamp Code Review") || !strings.Contains(body, "Ship it.") {
		t.Errorf("posted body:\n%s", body)
	}
}

func TestReviewCmd_AuthFailure(t *testing.T) {
	isolate(t)
	srv, _ := fakeOpenRouter(t, http.StatusOK, completionBody("unused"))
	t.Setenv("LAMP_BASE_URL", srv.URL)
	t.Setenv("OPENROUTER_API_KEY", "wrong-key")

	reviewCmd.SetArgs([]string{sampleProject(t), "--out", filepath.Join(t.TempDir(), "out.txt")})
	if err := reviewCmd.Execute(); err != nil {
		t.Fatalf("review returned error: %v", err)
	}
	if exitCode != ExitAuthError {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitAuthError)
	}
}

func TestReviewCmd_PayloadTooLarge(t *testing.T) {
	isolate(t)
	srv, calls := fakeOpenRouter(t, http.StatusOK, completionBody("unused"))
	t.Setenv("LAMP_BASE_URL", srv.URL)
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	reviewCmd.SetArgs([]string{sampleProject(t), "--max-tokens", "5", "--out", filepath.Join(t.TempDir(), "out.txt")})
	if err := reviewCmd.Execute(); err != nil {
		t.Fatalf("review returned error: %v", err)
	}
	if exitCode != ExitPayloadTooLarge {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitPayloadTooLarge)
	}
	if calls.Load() != 0 {
		t.Errorf("rejected payload reached the API %d times", calls.Load())
	}
}

func TestReviewCmd_DryRun(t *testing.T) {
	tmpDir := isolate(t)
	outPath := filepath.Join(tmpDir, "prompt.txt")

	reviewCmd.SetArgs([]string{sampleProject(t), "--dry-run", "--mode", "refactor", "--out", outPath})
	if err := reviewCmd.Execute(); err != nil {
		t.Fatalf("review returned error: %v", err)
	}
	if exitCode != ExitSuccess {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitSuccess)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Validation: ok",
		"--- BEGIN FILE: vendor.zip/lib/extra.js ---",
		"- Review mode: Refactor",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("dry run output missing %q", want)
		}
	}
}

func TestReviewCmd_MissingArgs(t *testing.T) {
	resetFlags()
	reviewCmd.SetArgs([]string{})
	if err := reviewCmd.Execute(); err == nil {
		t.Error("review without paths should return error")
	}
}

// --- version and models ---

func TestVersionCmd_Execute(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.SetArgs(nil)
	if err := versionCmd.Execute(); err != nil {
		t.Fatalf("version command returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "lamp version "+version) {
		t.Errorf("output = %q", buf.String())
	}
}

func TestModelsListCmd_Execute(t *testing.T) {
	var buf bytes.Buffer
	modelsCmd.SetOut(&buf)
	modelsCmd.SetArgs([]string{"list"})
	if err := modelsCmd.Execute(); err != nil {
		t.Fatalf("models list command returned error: %v", err)
	}
	if !strings.Contains(buf.String(), config.DefaultModel+" (default)") {
		t.Errorf("default model not marked:\n%s", buf.String())
	}
}

func TestModelsDoctor(t *testing.T) {
	isolate(t)
	srv, _ := fakeOpenRouter(t, http.StatusOK, completionBody("ok"))
	t.Setenv("LAMP_BASE_URL", srv.URL)
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	var buf bytes.Buffer
	modelsCmd.SetOut(&buf)
	modelsCmd.SetArgs([]string{"doctor"})
	if err := modelsCmd.Execute(); err != nil {
		t.Fatalf("models doctor returned error: %v", err)
	}
	if exitCode != ExitSuccess || !strings.Contains(buf.String(), "OK:") {
		t.Errorf("exitCode = %d, output:\n%s", exitCode, buf.String())
	}

	t.Setenv("OPENROUTER_API_KEY", "")
	modelsCmd.SetArgs([]string{"doctor"})
	if err := modelsCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if exitCode != ExitAuthError {
		t.Errorf("missing key: exitCode = %d, want %d", exitCode, ExitAuthError)
	}
}

func TestModelsDoctor_InvalidConfig(t *testing.T) {
	isolate(t)
	t.Setenv("LAMP_BASE_URL", "ftp://openrouter.invalid")
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	var buf bytes.Buffer
	modelsCmd.SetOut(&buf)
	modelsCmd.SetArgs([]string{"doctor"})
	err := modelsCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "baseURL") {
		t.Fatalf("models doctor err = %v, want a baseURL validation error", err)
	}
	if strings.Contains(buf.String(), "Checking") {
		t.Errorf("doctor sent a request with invalid config:\n%s", buf.String())
	}
}

// --- config command tests ---

func TestConfigInit_CreatesFile(t *testing.T) {
	tmpDir := isolate(t)

	configCmd.SetArgs([]string{"init"})
	if err := configCmd.Execute(); err != nil {
		t.Fatalf("config init returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "lamp", "config.yaml"))
	if err != nil {
		t.Fatalf("config init did not create config.yaml: %v", err)
	}
	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config file is not valid YAML: %v", err)
	}
	if cfg.Model != config.DefaultModel {
		t.Errorf("model = %q, want %q", cfg.Model, config.DefaultModel)
	}
}

func TestConfigInit_AlreadyExists(t *testing.T) {
	tmpDir := isolate(t)
	path := filepath.Join(tmpDir, "lamp", "config.yaml")
	writeFile(t, path, "model: x-ai/grok-4\n")

	configCmd.SetArgs([]string{"init"})
	if err := configCmd.Execute(); err != nil {
		t.Fatalf("config init with existing file returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "model: x-ai/grok-4\n" {
		t.Errorf("config init overwrote existing file:\n%s", data)
	}
}

func TestConfigSet_UpdatesFile(t *testing.T) {
	tmpDir := isolate(t)

	configCmd.SetArgs([]string{"set", "maxTokens", "16000"})
	if err := configCmd.Execute(); err != nil {
		t.Fatalf("config set returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "lamp", "config.yaml"))
	if err != nil {
		t.Fatalf("cannot read config file: %v", err)
	}
	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.MaxTokens != 16000 {
		t.Errorf("maxTokens = %d, want 16000", cfg.MaxTokens)
	}
}

func TestConfigSet_Invalid(t *testing.T) {
	isolate(t)

	configCmd.SetArgs([]string{"set", "unknownKey", "value"})
	if err := configCmd.Execute(); err == nil {
		t.Error("config set with invalid key should return error")
	}

	configCmd.SetArgs([]string{"set", "mode", "poetry"})
	if err := configCmd.Execute(); err == nil {
		t.Error("config set with invalid mode should return error")
	}

	configCmd.SetArgs([]string{"set", "model"})
	if err := configCmd.Execute(); err == nil {
		t.Error("config set with 1 arg should return error (requires 2)")
	}
}

func TestConfigShow_HidesKey(t *testing.T) {
	isolate(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-or-v1-hidden")

	var buf bytes.Buffer
	configCmd.SetOut(&buf)
	configCmd.SetArgs([]string{"show"})
	if err := configCmd.Execute(); err != nil {
		t.Fatalf("config show returned error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "sk-or-v1-hidden") {
		t.Error("config show printed the API key")
	}
	if !strings.Contains(out, "# API key: set") {
		t.Errorf("config show should say the key is set:\n%s", out)
	}
}

// --- history command tests ---

func TestHistoryCmds(t *testing.T) {
	tmpDir := isolate(t)
	store, err := history.Open(filepath.Join(tmpDir, "lamp", "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"aaaa1111", "bbbb2222"} {
		if err := store.Record(testContext(t), history.Entry{RequestID: id, Model: "openai/gpt-5", Mode: "standard", Outcome: history.OutcomeSuccess}); err != nil {
			t.Fatal(err)
		}
	}
	store.Close()

	var buf bytes.Buffer
	historyCmd.SetOut(&buf)
	historyCmd.SetArgs([]string{"list"})
	if err := historyCmd.Execute(); err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(buf.String(), "aaaa1111") || !strings.Contains(buf.String(), "bbbb2222") {
		t.Errorf("history list output:\n%s", buf.String())
	}

	buf.Reset()
	historyCmd.SetArgs([]string{"clear"})
	if err := historyCmd.Execute(); err != nil {
		t.Fatalf("history clear: %v", err)
	}
	if !strings.Contains(buf.String(), "Removed 2 entries.") {
		t.Errorf("history clear output: %q", buf.String())
	}

	buf.Reset()
	historyCmd.SetArgs([]string{"list"})
	if err := historyCmd.Execute(); err != nil {
		t.Fatalf("history list after clear: %v", err)
	}
	if !strings.Contains(buf.String(), "No requests recorded.") {
		t.Errorf("history after clear = %q", buf.String())
	}
}

func TestVersionConstant(t *testing.T) {
	if version == "" {
		t.Error("version constant is empty")
	}
}

// testContext returns a context canceled when the test finishes, mirroring
// testing.T.Context (Go 1.24+) for older toolchains.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
