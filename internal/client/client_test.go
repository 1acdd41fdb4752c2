package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediavault/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushSendsVideoField(t *testing.T) {
	var gotName string
	var gotData []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload/video", r.URL.Path)
		file, header, err := r.FormFile("video")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotName = header.Filename
		gotData, _ = io.ReadAll(file)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("movie bytes"), 0o644))

	require.NoError(t, New(srv.URL).Push(context.Background(), path))
	assert.Equal(t, "clip.mp4", gotName)
	assert.Equal(t, []byte("movie bytes"), gotData)
}

func TestPushReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(api.NewErrorResponse(400, "InvalidFileTypeError", "Invalid file type: invalid content", time.Now()))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not a video"), 0o644))

	err := New(srv.URL).Push(context.Background(), path)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "InvalidFileTypeError", apiErr.Kind)
	assert.Equal(t, "Invalid file type: invalid content", apiErr.Message)
}

func TestPullWithRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/static/video/my%20clip.mp4", r.URL.EscapedPath())
		assert.Equal(t, "bytes=0-3", r.Header.Get("Range"))
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Range", "bytes 0-3/10")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("abcd"))
	}))
	defer srv.Close()

	var out bytes.Buffer
	res, err := New(srv.URL).Pull(context.Background(), "my clip.mp4", "bytes=0-3", &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusPartialContent, res.Status)
	assert.Equal(t, "bytes 0-3/10", res.ContentRange)
	assert.Equal(t, int64(4), res.Bytes)
	assert.Equal(t, "abcd", out.String())
}

func TestPullNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "plain failure", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Pull(context.Background(), "x.mp4", "", io.Discard)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Message, "plain failure")
}

func TestListAndEvict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /videos", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.ListResponse{{Filename: "a.mp4", Size: 3}})
	})
	evicted := ""
	mux.HandleFunc("DELETE /cache/video/{filename}", func(w http.ResponseWriter, r *http.Request) {
		evicted = r.PathValue("filename")
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	videos, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "a.mp4", videos[0].Filename)

	require.NoError(t, c.Evict(context.Background(), "a.mp4"))
	assert.Equal(t, "a.mp4", evicted)
}

func TestResolveBaseURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(envBaseURL, "")

	u, err := ResolveBaseURL("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, u)

	t.Setenv(envBaseURL, "http://media.internal:8080/")
	u, err = ResolveBaseURL("")
	require.NoError(t, err)
	assert.Equal(t, "http://media.internal:8080", u)

	u, err = ResolveBaseURL("http://flag.example")
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example", u)

	_, err = ResolveBaseURL("not a url")
	require.Error(t, err)
}
