package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RequestBuilder produces requests for one call kind. It is safe for
// concurrent use.
type RequestBuilder struct {
	method  string
	path    string
	headers http.Header
	body    BodySource
}

// NewRequestBuilder validates headers once so that Build only has to copy them.
// A nil body sends no payload. A non-empty body without an explicit
// Content-Type header is sent with its sniffed type.
func NewRequestBuilder(method, path string, headers map[string]string, body BodySource) (*RequestBuilder, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if body == nil {
		body = emptyBodySource{}
	}

	h := http.Header{}
	for key, value := range headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		if strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		h.Set(canonicalKey, value)
	}

	return &RequestBuilder{
		method:  method,
		path:    path,
		headers: h,
		body:    body,
	}, nil
}

// Method returns the HTTP method of built requests.
func (b *RequestBuilder) Method() string {
	return b.method
}

// URL joins the builder's path onto base.
func (b *RequestBuilder) URL(base string) string {
	return JoinPath(base, b.path)
}

// Build creates a request for base, which must already be normalized.
func (b *RequestBuilder) Build(ctx context.Context, base string) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	reader, err := b.body.NewReader()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, b.method, b.URL(base), reader)
	if err != nil {
		_ = reader.Close()
		return nil, err
	}

	req.Header = b.headers.Clone()
	if length, ok := b.body.ContentLength(); ok {
		req.ContentLength = length
	}
	if req.Header.Get("Content-Type") == "" {
		if ct := b.body.ContentType(); ct != "" {
			req.Header.Set("Content-Type", ct)
		}
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return b.body.NewReader()
	}

	return req, nil
}

// NormalizeTarget turns host:port or a URL into an absolute http(s) URL
// without a trailing slash.
func NormalizeTarget(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", errors.New("target is required")
	}
	if !strings.Contains(target, "://") {
		target = "http://" + target
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid target %q: %w", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported target scheme %q: use http or https", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid target %q: missing host", target)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// JoinPath appends path to base with exactly one separating slash.
func JoinPath(base, path string) string {
	base = strings.TrimRight(base, "/")
	path = strings.TrimLeft(path, "/")
	return base + "/" + path
}

func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   256,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
