package media

import (
	"strconv"
	"strings"
)

// ByteRange is an inclusive window into an object.
type ByteRange struct {
	Start int64
	End   int64
}

// Len is the number of bytes in the window. The empty window {0, -1} has Len 0.
func (r ByteRange) Len() int64 {
	return r.End - r.Start + 1
}

// Resolution is the outcome of resolving a Range header against an object.
type Resolution struct {
	ByteRange
	Size    int64
	Partial bool
}

// ResolveRange turns an optional "bytes=start-end" spec into a concrete window
// of an object of the given size. An empty spec selects the whole object.
//
// An empty start means 0; suffix ranges such as "bytes=-500" are not
// supported. An end that is empty or not a non-negative integer runs to the
// end of the object, and ends past the object are clamped.
func ResolveRange(size int64, spec string) (Resolution, error) {
	if size < 0 {
		size = 0
	}
	full := Resolution{ByteRange: ByteRange{Start: 0, End: size - 1}, Size: size}
	if spec == "" {
		return full, nil
	}

	unit, rest, found := strings.Cut(spec, "=")
	if unit != "bytes" {
		return Resolution{}, &RangeError{Reason: UnsupportedUnit, Spec: spec}
	}
	if !found {
		return Resolution{}, &RangeError{Reason: MalformedSpec, Spec: spec}
	}

	parts := strings.Split(rest, "-")
	if len(parts) != 2 {
		return Resolution{}, &RangeError{Reason: MalformedSpec, Spec: spec}
	}
	startStr, endStr := parts[0], parts[1]
	if startStr == "" && endStr == "" {
		return Resolution{}, &RangeError{Reason: EmptyRange, Spec: spec}
	}

	var start int64
	if startStr != "" {
		n, ok := parseOffset(startStr)
		if !ok {
			return Resolution{}, &RangeError{Reason: NotANumber, Spec: spec}
		}
		start = n
	}

	end := size - 1
	if n, ok := parseOffset(endStr); ok && n < size {
		end = n
	}

	if start > end {
		return Resolution{}, &RangeError{Reason: StartAfterEnd, Spec: spec}
	}
	return Resolution{ByteRange: ByteRange{Start: start, End: end}, Size: size, Partial: true}, nil
}

// parseOffset accepts plain decimal digits only: no sign, no spaces.
func parseOffset(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 63)
	if err != nil {
		return 0, false
	}
	return int64(n), true
}
