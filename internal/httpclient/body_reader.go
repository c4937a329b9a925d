package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// maxBufferedBody is the largest body file kept in memory. Larger files are
// re-read from disk for every POST.
const maxBufferedBody = 4 << 20

// BodySource yields a fresh reader for every POST of a run.
type BodySource interface {
	NewReader() (io.ReadCloser, error)
	ContentLength() (int64, bool)
	// ContentType is the sniffed media type, or "" for an empty body.
	ContentType() string
}

// NewBodySource picks the POST payload from an inline body or a file path.
// At most one of them may be set; neither means an empty body.
func NewBodySource(body, bodyFile string) (BodySource, error) {
	bodyFile = strings.TrimSpace(bodyFile)
	if body != "" && bodyFile != "" {
		return nil, errors.New("body and body file cannot both be provided")
	}

	if body != "" {
		return newMemoryBodySource([]byte(body)), nil
	}
	if bodyFile == "" {
		return emptyBodySource{}, nil
	}

	info, err := os.Stat(bodyFile)
	if err != nil {
		return nil, fmt.Errorf("body file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("body file %q is a directory", bodyFile)
	}
	if info.Size() <= maxBufferedBody {
		data, err := os.ReadFile(bodyFile)
		if err != nil {
			return nil, fmt.Errorf("body file: %w", err)
		}
		return newMemoryBodySource(data), nil
	}

	head, err := sniffFile(bodyFile)
	if err != nil {
		return nil, fmt.Errorf("body file: %w", err)
	}
	return &fileBodySource{path: bodyFile, size: info.Size(), contentType: head}, nil
}

type memoryBodySource struct {
	data        []byte
	contentType string
}

func newMemoryBodySource(data []byte) *memoryBodySource {
	return &memoryBodySource{data: data, contentType: detectContentType(data)}
}

func (s *memoryBodySource) NewReader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *memoryBodySource) ContentLength() (int64, bool) {
	return int64(len(s.data)), true
}

func (s *memoryBodySource) ContentType() string {
	return s.contentType
}

type fileBodySource struct {
	path        string
	size        int64
	contentType string
}

func (s *fileBodySource) NewReader() (io.ReadCloser, error) {
	return os.Open(s.path)
}

func (s *fileBodySource) ContentLength() (int64, bool) {
	return s.size, true
}

func (s *fileBodySource) ContentType() string {
	return s.contentType
}

type emptyBodySource struct{}

func (emptyBodySource) NewReader() (io.ReadCloser, error) {
	return http.NoBody, nil
}

func (emptyBodySource) ContentLength() (int64, bool) {
	return 0, true
}

func (emptyBodySource) ContentType() string {
	return ""
}

func sniffFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return detectContentType(head[:n]), nil
}

// detectContentType sniffs data, recognising JSON payloads that
// http.DetectContentType reports as plain text.
func detectContentType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return "application/json"
	}
	return http.DetectContentType(data)
}
