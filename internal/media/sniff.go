package media

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// OctetStream is reported for content with no recognized signature.
const OctetStream = "application/octet-stream"

// Detect returns the MIME type of buf based on its leading bytes only.
func Detect(buf []byte) string {
	if len(buf) == 0 {
		return OctetStream
	}
	mt := mimetype.Detect(buf)
	if mt == nil {
		return OctetStream
	}
	return mt.String()
}

// IsVideo reports whether mime has the top-level type video.
func IsVideo(mime string) bool {
	top, _, ok := strings.Cut(mime, "/")
	return ok && strings.EqualFold(top, "video")
}
