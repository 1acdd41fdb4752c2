package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"mediavault/pkg/api"
)

// Client talks to a mediavault server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: GetHTTPClient()}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned status %d (%s): %s", e.Status, e.Kind, e.Message)
}

// Push uploads the file at path as multipart field "video".
// The body is streamed so large files are never held in memory.
func (c *Client) Push(ctx context.Context, path string) error {
	// Open the file
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("video", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		// Close writer to finalize the body
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload/video", pr)
	if err != nil {
		pr.Close()
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return readError(resp)
	}
	return nil
}

// PullResult describes what Pull received.
type PullResult struct {
	Status       int
	ContentType  string
	ContentRange string
	Bytes        int64
}

// Pull downloads filename into w. rangeSpec, if set, is sent as the Range header.
func (c *Client) Pull(ctx context.Context, filename, rangeSpec string, w io.Writer) (PullResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/static/video/"+url.PathEscape(filename), nil)
	if err != nil {
		return PullResult{}, err
	}
	if rangeSpec != "" {
		req.Header.Set("Range", rangeSpec)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return PullResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return PullResult{}, readError(resp)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return PullResult{}, err
	}
	return PullResult{
		Status:       resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		ContentRange: resp.Header.Get("Content-Range"),
		Bytes:        n,
	}, nil
}

func (c *Client) List(ctx context.Context) (api.ListResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/videos", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	var videos api.ListResponse
	if err := json.NewDecoder(resp.Body).Decode(&videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// Evict asks the server to drop filename from its cache.
func (c *Client) Evict(ctx context.Context, filename string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+"/cache/video/"+url.PathEscape(filename), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return readError(resp)
	}
	return nil
}

// readError turns an error response into an *APIError, falling back to the
// raw body when it is not the JSON error shape.
func readError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return err
	}
	var e api.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return &APIError{Status: resp.StatusCode, Kind: e.Error, Message: e.Message}
	}
	return &APIError{Status: resp.StatusCode, Message: string(body)}
}
