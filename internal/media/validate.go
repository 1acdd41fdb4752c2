package media

import "strings"

// VideoExtensions is the default upload allow-list, lower case without dots.
var VideoExtensions = []string{"mp4", "avi", "mkv", "mov", "wmv", "flv", "webm"}

// Validator checks uploads before anything is stored.
type Validator struct {
	allowed map[string]struct{}
}

// NewValidator builds a validator for the given extensions, or
// VideoExtensions when none are passed.
func NewValidator(extensions ...string) *Validator {
	if len(extensions) == 0 {
		extensions = VideoExtensions
	}
	v := &Validator{allowed: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		v.allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return v
}

// Validate runs, in order: the empty check, content sniffing and the
// extension allow-list. Content is checked first so a renamed image never
// passes on its file name alone.
func (v *Validator) Validate(buf []byte, filename string) error {
	if len(buf) == 0 {
		return ErrEmptyBuffer
	}
	if !IsVideo(Detect(buf)) {
		return &FileTypeError{Reason: "invalid content"}
	}
	if _, ok := v.allowed[extension(filename)]; !ok {
		return &FileTypeError{Reason: "invalid extension"}
	}
	return nil
}

// extension returns the lower-cased text after the last dot, or "".
func extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}
