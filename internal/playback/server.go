package playback

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// takeContentTypes covers the capture containers the scanner ingests.
// MXF in particular is missing from most system mime tables.
var takeContentTypes = map[string]string{
	".mov": "video/quicktime",
	".mp4": "video/mp4",
	".avi": "video/x-msvideo",
	".mxf": "application/mxf",
}

type Service interface {
	ServeMedia(w http.ResponseWriter, r *http.Request, mediaPath string) error
}

// Streamer serves take media straight off the offload drive with HTTP
// range support, so review players can scrub without a transcode step.
type Streamer struct {
	logger *slog.Logger
}

func NewStreamer(logger *slog.Logger) *Streamer {
	return &Streamer{logger: logger}
}

func (s *Streamer) ServeMedia(w http.ResponseWriter, r *http.Request, mediaPath string) error {
	file, err := os.Open(mediaPath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "media not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open media: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat media: %w", err)
	}

	size := stat.Size()
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentTypeFor(mediaPath))

	rangeHeader := r.Header.Get("Range")
	parsedRange, err := ParseRange(rangeHeader, size)

	if err == ErrUnsatisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	if err != nil && err != ErrInvalidRange {
		return err
	}

	if parsedRange == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return nil
	}

	if s.logger != nil {
		s.logger.Debug("serving media range",
			"path", mediaPath,
			"start", parsedRange.Start,
			"end", parsedRange.End,
			"size", size)
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", parsedRange.Length()))
	w.Header().Set("Content-Range", parsedRange.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(parsedRange.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	io.CopyN(w, file, parsedRange.Length())
	return nil
}

func contentTypeFor(mediaPath string) string {
	ext := strings.ToLower(filepath.Ext(mediaPath))
	if ct, ok := takeContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
