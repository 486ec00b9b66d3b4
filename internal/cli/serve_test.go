package cli

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartUpload(t *testing.T, path string) (*bytes.Buffer, string) {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("upload", filepath.Base(path))
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestNewServer_ImportsAndReportsMetrics(t *testing.T) {
	setupCLI(t, memoryConfig)
	capture(t, serveCmd)
	ctx := context.Background()

	a, err := openApp(ctx, serveCmd)
	require.NoError(t, err)
	defer a.Close()

	srv, err := newServer(ctx, a)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := ts.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	body, contentType := multipartUpload(t, writePackage(t, "New", "1"))
	resp, err := client.Post(ts.URL+"/import_mapactionzip", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dataset/edit/"+exampleName, resp.Header.Get("Location"))

	resp, err = client.Get(ts.URL + "/dataset/" + exampleName)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	metrics, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `mapimporter_imports_total{action="create",outcome="success"} 1`)
	assert.Contains(t, string(metrics), "go_goroutines")
}

func TestRunServe_InvalidConfig(t *testing.T) {
	setupCLI(t, "catalog: sqlite\n")
	capture(t, serveCmd)

	err := runServe(serveCmd, nil)
	require.Error(t, err)
}
