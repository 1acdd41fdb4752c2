package media

import (
	"fmt"
	"net/http"
	"strconv"
)

// StreamDescriptor is everything a transport needs to answer a playback request.
type StreamDescriptor struct {
	Status int
	Header http.Header
	Body   []byte
}

// Assemble slices buf to the resolved window and builds the response headers.
// buf must be the whole object the resolution was computed for.
func Assemble(buf []byte, res Resolution, mime string) StreamDescriptor {
	body := buf[res.Start : res.End+1]

	h := make(http.Header, 4)
	h.Set("Content-Type", mime)
	h.Set("Content-Length", strconv.FormatInt(res.Len(), 10))
	h.Set("Accept-Ranges", "bytes")

	status := http.StatusOK
	if res.Partial {
		status = http.StatusPartialContent
		h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", res.Start, res.End, res.Size))
	}
	return StreamDescriptor{Status: status, Header: h, Body: body}
}
