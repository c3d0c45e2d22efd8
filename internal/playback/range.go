package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive byte span within a media file.
type ByteRange struct {
	Start int64
	End   int64
}

func (br ByteRange) Length() int64 {
	return br.End - br.Start + 1
}

// ContentRange renders the span as a Content-Range header value.
func (br ByteRange) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", br.Start, br.End, total)
}

// ParseRange interprets a Range header against media of the given size.
// A missing header yields (nil, nil), meaning serve the whole file.
// Only the first range of a multi-range request is honored; scrubbing
// players never send more than one.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrInvalidRange
	}
	if first, _, multi := strings.Cut(spec, ","); multi {
		spec = strings.TrimSpace(first)
	}

	startPart, endPart, dashed := strings.Cut(spec, "-")
	if !dashed {
		return nil, ErrInvalidRange
	}

	br := ByteRange{End: size - 1}

	switch {
	case startPart == "":
		// Suffix form: the last N bytes.
		n, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil || n <= 0 {
			return nil, ErrInvalidRange
		}
		br.Start = size - n
		if br.Start < 0 {
			br.Start = 0
		}
	case endPart == "":
		// Open form: from an offset to end of file.
		start, err := strconv.ParseInt(startPart, 10, 64)
		if err != nil || start < 0 {
			return nil, ErrInvalidRange
		}
		br.Start = start
	default:
		start, err := strconv.ParseInt(startPart, 10, 64)
		if err != nil || start < 0 {
			return nil, ErrInvalidRange
		}
		end, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil {
			return nil, ErrInvalidRange
		}
		br.Start, br.End = start, end
	}

	if br.Start > br.End || br.Start >= size {
		return nil, ErrUnsatisfiable
	}
	if br.End >= size {
		br.End = size - 1
	}

	return &br, nil
}
