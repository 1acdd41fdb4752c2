package api

import "time"

// TimestampFormat is the layout of ErrorResponse.Timestamp (ISO-8601, UTC, millis).
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Returned by every endpoint on failure
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

func NewErrorResponse(status int, kind, message string, now time.Time) ErrorResponse {
	return ErrorResponse{
		StatusCode: status,
		Error:      kind,
		Message:    message,
		Timestamp:  now.UTC().Format(TimestampFormat),
	}
}

// Endpoint: GET /videos
type VideoInfo struct {
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"lastModified"`
}
type ListResponse []VideoInfo
