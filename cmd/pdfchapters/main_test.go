package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-chapters/internal/testutil"
)

const q3Report = `{"title":"Q3 Report","overallSummary":"Revenue grew.","chapters":[{"chapterNumber":"1","title":"Intro","summary":"Overview.","keyPoints":["a","b","c"]}]}`

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) cmdResult {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// isolate keeps config, .env and credential lookups inside a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestKeyLifecycle(t *testing.T) {
	dir := isolate(t)
	credFile := filepath.Join(dir, "cred.yaml")

	res := execute(t, "", "key", "status", "--credential-file", credFile)
	require.NoError(t, res.err)
	assert.Equal(t, "no API key stored\n", res.stdout)

	res = execute(t, "  \n", "key", "set", "--credential-file", credFile)
	assert.EqualError(t, res.err, "no key entered")

	res = execute(t, "abc123\n", "key", "set", "--credential-file", credFile)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, credFile)
	assert.NotContains(t, res.stdout+res.stderr, "abc123")

	b, err := os.ReadFile(credFile)
	require.NoError(t, err)
	assert.Equal(t, "gemini_api_key: abc123\n", string(b))

	res = execute(t, "", "key", "status", "--credential-file", credFile)
	require.NoError(t, res.err)
	assert.Equal(t, "API key stored in "+credFile+"\n", res.stdout)

	res = execute(t, "", "key", "clear", "--credential-file", credFile)
	require.NoError(t, res.err)
	_, err = os.Stat(credFile)
	assert.True(t, os.IsNotExist(err))
}

func TestKeySet_RejectsArguments(t *testing.T) {
	isolate(t)
	res := execute(t, "", "key", "set", "abc123")
	assert.Error(t, res.err)
}

func TestAnalyze_RejectsNonPDF(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("just text"), 0o644))

	res := execute(t, "", "analyze", file)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "is not a PDF")
}

func TestAnalyze_UnknownFormat(t *testing.T) {
	isolate(t)
	res := execute(t, "", "analyze", "--format", "xml", "x.pdf")
	assert.EqualError(t, res.err, `unknown format "xml" (table|json|markdown)`)
}

func TestAnalyze_WithoutKey(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(file, testutil.SamplePDF(t, 1), 0o644))

	res := execute(t, "", "analyze", file, "--credential-file", filepath.Join(dir, "none.yaml"))
	assert.ErrorIs(t, res.err, errNoKey)
}

// fakeGemini answers generateContent with a fixed payload.
func fakeGemini(t *testing.T, text string, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("x-goog-api-key"))
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &keys
}

func TestAnalyze_EndToEnd(t *testing.T) {
	dir := isolate(t)
	srv, keys := fakeGemini(t, q3Report, http.StatusOK)
	t.Setenv("PDFCHAPTERS_GEMINI_BASE_URL", srv.URL)

	credFile := filepath.Join(dir, "cred.yaml")
	require.NoError(t, execute(t, "abc123\n", "key", "set", "--credential-file", credFile).err)

	pdf := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(pdf, testutil.SamplePDF(t, 2), 0o644))
	outDir := filepath.Join(dir, "out")

	res := execute(t, "", "analyze", pdf, "--credential-file", credFile, "--format", "json", "--out", outDir)
	require.NoError(t, res.err, res.stderr)

	assert.Equal(t, []string{"abc123"}, *keys)
	assert.JSONEq(t, q3Report, res.stdout)

	md, err := os.ReadFile(filepath.Join(outDir, "q3-report.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "| 1 | Intro | Overview. |")
	assert.Contains(t, res.stderr, "Wrote ")
}

func TestAnalyze_RemoteFailure(t *testing.T) {
	dir := isolate(t)
	srv, _ := fakeGemini(t, "", http.StatusUnauthorized)
	t.Setenv("PDFCHAPTERS_GEMINI_BASE_URL", srv.URL)

	credFile := filepath.Join(dir, "cred.yaml")
	require.NoError(t, execute(t, "bad-key\n", "key", "set", "--credential-file", credFile).err)

	pdf := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(pdf, testutil.SamplePDF(t, 1), 0o644))

	res := execute(t, "", "analyze", pdf, "--credential-file", credFile)
	require.Error(t, res.err)
	assert.Equal(t, "An error occurred while analyzing the document. Check your API key or try again later.", res.err.Error())
	assert.Empty(t, res.stdout)

	// the key survives a failed analysis
	_, err := os.Stat(credFile)
	assert.NoError(t, err)
}

func TestVersion(t *testing.T) {
	res := execute(t, "", "version")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "pdfchapters "))
}
