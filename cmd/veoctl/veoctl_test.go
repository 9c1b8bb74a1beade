package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"veo-console/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOperation = "models/veo-3.1-fast-generate-preview/operations/cli123"

func newTestBackend(t *testing.T, submits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			atomic.AddInt32(submits, 1)
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"ok": true, "operation_name": "`+testOperation+`"}`)
		case strings.HasPrefix(r.URL.Path, "/status/"):
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"done": true, "status": "COMPLETE"}`)
		case strings.HasPrefix(r.URL.Path, "/download/"):
			w.Header().Set("Content-Type", "video/mp4")
			io.WriteString(w, "mp4-bytes")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func runCLI(t *testing.T, backendURL string, args ...string) (string, error) {
	t.Helper()
	cfg := config.Load()
	cfg.Backend.URL = backendURL
	cfg.Backend.Timeout = 2 * time.Second
	cfg.PollInterval = 10 * time.Millisecond

	var out bytes.Buffer
	cmd := newRootCommand(cfg)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--log-level", "error"))

	err := cmd.Execute()
	return out.String(), err
}

func TestSubmitPrintsOperation(t *testing.T) {
	var submits int32
	server := newTestBackend(t, &submits)

	out, err := runCLI(t, server.URL, "submit", "text_to_video", "--prompt", "a red fox", "--duration", "4")
	require.NoError(t, err)
	assert.Equal(t, testOperation+"\n", out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&submits))
}

func TestSubmitValidatesLocally(t *testing.T) {
	var submits int32
	server := newTestBackend(t, &submits)

	_, err := runCLI(t, server.URL, "submit", "text_to_video", "--prompt", "   ")
	require.Error(t, err)
	assert.Equal(t, "Please enter a prompt", err.Error())

	_, err = runCLI(t, server.URL, "submit", "slideshow", "--prompt", "x")
	require.Error(t, err)

	_, err = runCLI(t, server.URL, "submit", "image_to_video", "--prompt", "x", "--image", filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)

	assert.Equal(t, int32(0), atomic.LoadInt32(&submits))
}

func TestSubmitWithFileAndWait(t *testing.T) {
	var submits int32
	server := newTestBackend(t, &submits)

	image := filepath.Join(t.TempDir(), "cat.png")
	require.NoError(t, os.WriteFile(image, []byte("png"), 0o644))

	out, err := runCLI(t, server.URL, "submit", "image_to_video", "--prompt", "cat runs", "--image", image, "--wait")
	require.NoError(t, err)
	assert.Contains(t, out, testOperation)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "veoctl download "+testOperation)
}

func TestStatusAndDownload(t *testing.T) {
	var submits int32
	server := newTestBackend(t, &submits)

	out, err := runCLI(t, server.URL, "status", testOperation)
	require.NoError(t, err)
	assert.Equal(t, "completed "+testOperation+"\n", out)

	target := filepath.Join(t.TempDir(), "out.mp4")
	out, err = runCLI(t, server.URL, "download", testOperation, "-o", target)
	require.NoError(t, err)
	assert.Equal(t, target+"\n", out)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "mp4-bytes", string(content))
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "cli123.mp4", defaultOutput(testOperation, ""))
	assert.Equal(t, "video.mp4", defaultOutput(testOperation, "video.mp4"))
}
