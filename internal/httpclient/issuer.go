package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/torosent/waveload/internal/config"
	"github.com/torosent/waveload/internal/runner"
	"github.com/torosent/waveload/internal/tracing"
)

const (
	maxLoggedBodyBytes = 1024
	maxBodyReadSize    = 1024 * 1024
)

// ExpectationError reports a successful response whose body failed the
// --expect-json assertion.
type ExpectationError struct {
	Path string
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("response body: %q is missing or falsy", e.Path)
}

// Code buckets assertion failures apart from transport errors.
func (e *ExpectationError) Code() string {
	return "assertion"
}

// Issuer implements runner.Issuer over HTTP.
type Issuer struct {
	client     *http.Client
	get        *RequestBuilder
	post       *RequestBuilder
	expectJSON string
	tracing    *tracing.Provider
}

var _ runner.Issuer = (*Issuer)(nil)

// NewIssuer builds the GET and POST request builders from cfg. provider may
// be nil.
func NewIssuer(cfg *config.Config, client *http.Client, provider *tracing.Provider) (*Issuer, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if client == nil {
		client = NewClient(cfg.Timeout)
	}

	get, err := NewRequestBuilder(http.MethodGet, cfg.GetPath, cfg.Headers, nil)
	if err != nil {
		return nil, fmt.Errorf("GET request: %w", err)
	}
	body, err := NewBodySource(cfg.Body, cfg.BodyFile)
	if err != nil {
		return nil, err
	}
	post, err := NewRequestBuilder(http.MethodPost, cfg.PostPath, cfg.Headers, body)
	if err != nil {
		return nil, fmt.Errorf("POST request: %w", err)
	}

	return &Issuer{
		client:     client,
		get:        get,
		post:       post,
		expectJSON: strings.TrimSpace(cfg.ExpectJSON),
		tracing:    provider,
	}, nil
}

func (i *Issuer) Get(ctx context.Context, target string) (time.Duration, error) {
	return i.do(ctx, i.get, target)
}

func (i *Issuer) Post(ctx context.Context, target string) (time.Duration, error) {
	return i.do(ctx, i.post, target)
}

// do times one call from just before the request is sent until the response
// body has been read.
func (i *Issuer) do(ctx context.Context, builder *RequestBuilder, target string) (time.Duration, error) {
	ctx, span := tracing.StartCallSpan(ctx, i.tracing.Tracer(), builder.Method(), builder.URL(target))

	req, err := builder.Build(ctx, target)
	if err != nil {
		tracing.EndSpan(span, err)
		return 0, err
	}
	if i.tracing.ShouldPropagate() {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	start := time.Now()
	resp, err := i.client.Do(req)
	if err != nil {
		latency := time.Since(start)
		tracing.EndSpan(span, err)
		return latency, err
	}
	defer resp.Body.Close()

	body, bodyErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize))
	latency := time.Since(start)
	if bodyErr != nil {
		tracing.EndSpan(span, bodyErr)
		return latency, fmt.Errorf("read response body: %w", bodyErr)
	}
	// Drain anything past the cap so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	var resultErr error
	switch {
	case resp.StatusCode >= 400:
		snippet := body
		if len(snippet) > maxLoggedBodyBytes {
			snippet = snippet[:maxLoggedBodyBytes]
		}
		resultErr = &runner.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	case i.expectJSON != "" && !truthy(gjson.GetBytes(body, i.expectJSON)):
		resultErr = &ExpectationError{Path: i.expectJSON}
	}

	tracing.EndSpan(span, resultErr, attribute.Int("http.response.status_code", resp.StatusCode))
	return latency, resultErr
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return r.Exists()
	}
}
