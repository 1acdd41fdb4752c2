package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mediavault/internal/media"
	"mediavault/pkg/api"
	"mediavault/pkg/cache/memory"
	"mediavault/pkg/fsstore"
	"mediavault/pkg/object"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const maxUpload = 10 << 20

func mp4Bytes(n int) []byte {
	buf := make([]byte, n)
	copy(buf, []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
		'i', 's', 'o', 'm', 'm', 'p', '4', '1',
	})
	for i := 24; i < n; i++ {
		buf[i] = byte(i * 13)
	}
	return buf
}

func newTestServer(t *testing.T, limit int64) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	fs := &fsstore.Storage{}
	require.NoError(t, fs.Init(ctx, fsstore.Config{Dir: t.TempDir()}))
	mem, err := memory.New(ctx, memory.Config{HardMaxCacheSizeMB: 64})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })

	store := media.NewStore(media.StoreConfig{Durable: fs, Cache: mem, TTL: time.Minute, Logger: logger})
	svc := media.NewService(store, nil, logger)

	srv := httptest.NewServer(VideoHandler(svc, limit, logger))
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, srv *httptest.Server, field, filename string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/upload/video", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path, rangeHeader string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) api.ErrorResponse {
	t.Helper()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var e api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.Equal(t, resp.StatusCode, e.StatusCode)
	_, err := time.Parse(api.TimestampFormat, e.Timestamp)
	assert.NoError(t, err, "timestamp %q", e.Timestamp)
	return e
}

func TestUploadAndPlayback(t *testing.T) {
	srv := newTestServer(t, maxUpload)
	video := mp4Bytes(1_048_576)

	resp := upload(t, srv, FormField, "clip.mp4", video)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	t.Run("full body", func(t *testing.T) {
		resp := get(t, srv, "/static/video/clip.mp4", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "1048576", resp.Header.Get("Content-Length"))
		assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
		assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
		assert.Empty(t, resp.Header.Get("Content-Range"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(video, body))
	})

	t.Run("first hundred bytes", func(t *testing.T) {
		resp := get(t, srv, "/static/video/clip.mp4", "bytes=0-99")
		require.Equal(t, http.StatusPartialContent, resp.StatusCode)
		assert.Equal(t, "bytes 0-99/1048576", resp.Header.Get("Content-Range"))
		assert.Equal(t, "100", resp.Header.Get("Content-Length"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, video[:100], body)
	})

	t.Run("end clamped", func(t *testing.T) {
		resp := get(t, srv, "/static/video/clip.mp4", "bytes=1000000-2000000")
		require.Equal(t, http.StatusPartialContent, resp.StatusCode)
		assert.Equal(t, "bytes 1000000-1048575/1048576", resp.Header.Get("Content-Range"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, video[1000000:], body)
	})

	t.Run("start after end", func(t *testing.T) {
		resp := get(t, srv, "/static/video/clip.mp4", "bytes=500-100")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		e := decodeError(t, resp)
		assert.Equal(t, "InvalidRangeError", e.Error)
	})

	t.Run("unsupported unit", func(t *testing.T) {
		resp := get(t, srv, "/static/video/clip.mp4", "items=0-10")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "InvalidRangeError", decodeError(t, resp).Error)
	})

	t.Run("listed", func(t *testing.T) {
		resp := get(t, srv, "/videos", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var list api.ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		require.Len(t, list, 1)
		assert.Equal(t, "clip.mp4", list[0].Filename)
		assert.Equal(t, int64(1_048_576), list[0].Size)
		assert.Equal(t, "video/mp4", list[0].ContentType)
	})

	t.Run("evict then play from disk", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/cache/video/clip.mp4", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = get(t, srv, "/static/video/clip.mp4", "bytes=10-19")
		require.Equal(t, http.StatusPartialContent, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, video[10:20], body)
	})
}

func TestUploadPNGNamedMP4(t *testing.T) {
	srv := newTestServer(t, maxUpload)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 512)...)

	resp := upload(t, srv, FormField, "clip.mp4", png)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, resp)
	assert.Equal(t, "InvalidFileTypeError", e.Error)
	assert.Equal(t, "Invalid file type: invalid content", e.Message)

	resp = get(t, srv, "/static/video/clip.mp4", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadBadExtension(t *testing.T) {
	srv := newTestServer(t, maxUpload)
	resp := upload(t, srv, FormField, "clip.exe", mp4Bytes(512))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid file type: invalid extension", decodeError(t, resp).Message)
}

func TestUploadEmptyFile(t *testing.T) {
	srv := newTestServer(t, maxUpload)
	resp := upload(t, srv, FormField, "clip.mp4", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "EmptyBufferError", decodeError(t, resp).Error)
}

func TestUploadMissingFile(t *testing.T) {
	srv := newTestServer(t, maxUpload)

	resp := upload(t, srv, "file", "clip.mp4", mp4Bytes(512))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file uploaded", decodeError(t, resp).Message)

	resp, err := http.Post(srv.URL+"/upload/video", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file uploaded", decodeError(t, resp).Message)
}

func TestUploadTooLarge(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	resp := upload(t, srv, FormField, "clip.mp4", mp4Bytes(1<<20+1))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "File too large, max size is 1MB!", decodeError(t, resp).Message)

	resp = upload(t, srv, FormField, "clip.mp4", mp4Bytes(1<<20))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestMissingVideo(t *testing.T) {
	srv := newTestServer(t, maxUpload)
	resp := get(t, srv, "/static/video/does-not-exist.mp4", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	e := decodeError(t, resp)
	assert.Equal(t, "NotFoundError", e.Error)
	assert.Equal(t, "Video not found", e.Message)
}

type failingService struct{ err error }

func (f failingService) Upload(context.Context, string, []byte) (object.Object, error) {
	return object.Object{}, f.err
}

func (f failingService) Play(context.Context, string, string) (media.StreamDescriptor, error) {
	return media.StreamDescriptor{}, f.err
}

func (f failingService) List(context.Context) ([]object.Object, error) { return nil, f.err }
func (f failingService) Evict(context.Context, string)                 {}

func TestStorageFailureHidesCause(t *testing.T) {
	cause := errors.New("open /srv/videos/clip.mp4: input/output error")
	storageErr := &media.StorageError{Op: "get", Key: "clip.mp4", Err: cause}
	srv := httptest.NewServer(VideoHandler(failingService{err: storageErr}, maxUpload, zaptest.NewLogger(t)))
	t.Cleanup(srv.Close)

	for _, path := range []string{"/static/video/clip.mp4", "/videos"} {
		resp := get(t, srv, path, "")
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		e := decodeError(t, resp)
		assert.Equal(t, "StorageIOError", e.Error)
		assert.Equal(t, "Internal server error", e.Message)
	}

	resp := upload(t, srv, FormField, "clip.mp4", mp4Bytes(64))
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, decodeError(t, resp).Message, "/srv")
}

func TestFailureLogCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	storageErr := &media.StorageError{Op: "get", Key: "clip.mp4", Err: errors.New("disk gone")}
	h := VideoHandler(failingService{err: storageErr}, maxUpload, zap.New(core))

	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-42")
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/video/clip.mp4", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
}
