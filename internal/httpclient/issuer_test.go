package httpclient_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/torosent/waveload/internal/config"
	"github.com/torosent/waveload/internal/httpclient"
	"github.com/torosent/waveload/internal/metrics"
	"github.com/torosent/waveload/internal/runner"
	"github.com/torosent/waveload/internal/tracing"
)

type recordedRequest struct {
	method string
	path   string
	body   string
	header http.Header
}

func newRecordingServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []recordedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body), header: r.Header.Clone()})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), seen...)
	}
}

func newIssuer(t *testing.T, cfg *config.Config, provider *tracing.Provider) *httpclient.Issuer {
	t.Helper()
	issuer, err := httpclient.NewIssuer(cfg, httpclient.NewClient(2*time.Second), provider)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	return issuer
}

func TestIssuerGetAndPost(t *testing.T) {
	server, requests := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	issuer := newIssuer(t, &config.Config{
		GetPath:  "/status",
		PostPath: "/submit",
		Headers:  map[string]string{"X-Run": "test"},
		Body:     `{"n":1}`,
	}, nil)

	latency, err := issuer.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if latency < 5*time.Millisecond {
		t.Errorf("Get() latency = %s, want >= 5ms", latency)
	}
	if _, err := issuer.Post(context.Background(), server.URL); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	got := requests()
	if len(got) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(got))
	}
	if got[0].method != http.MethodGet || got[0].path != "/status" || got[0].body != "" {
		t.Errorf("GET request = %+v", got[0])
	}
	if got[1].method != http.MethodPost || got[1].path != "/submit" || got[1].body != `{"n":1}` {
		t.Errorf("POST request = %+v", got[1])
	}
	for _, req := range got {
		if req.header.Get("X-Run") != "test" {
			t.Errorf("%s missing configured header", req.method)
		}
		if req.header.Get("Traceparent") != "" {
			t.Errorf("%s carried traceparent without propagation", req.method)
		}
	}
}

func TestIssuerStatusFailure(t *testing.T) {
	server, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.Error(w, "nope", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	issuer := newIssuer(t, &config.Config{}, nil)

	_, err := issuer.Get(context.Background(), server.URL)
	var httpErr *runner.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Get() error = %v, want HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable || httpErr.Body != "nope" {
		t.Errorf("HTTPError = %+v", httpErr)
	}
	if code := metrics.FailureCode(err); code != "503" {
		t.Errorf("FailureCode() = %q, want 503", code)
	}

	if _, err := issuer.Post(context.Background(), server.URL); err != nil {
		t.Errorf("Post() error = %v, want success for 201", err)
	}
}

func TestIssuerExpectJSON(t *testing.T) {
	server, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"status":{"ok":true}}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":{"ok":false}}`))
	})

	issuer := newIssuer(t, &config.Config{ExpectJSON: "status.ok"}, nil)

	if _, err := issuer.Get(context.Background(), server.URL); err != nil {
		t.Fatalf("Get() error = %v, want assertion to pass", err)
	}

	_, err := issuer.Post(context.Background(), server.URL)
	var expErr *httpclient.ExpectationError
	if !errors.As(err, &expErr) {
		t.Fatalf("Post() error = %v, want ExpectationError", err)
	}
	if code := metrics.FailureCode(err); code != "assertion" {
		t.Errorf("FailureCode() = %q, want assertion", code)
	}
}

func TestIssuerConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	issuer := newIssuer(t, &config.Config{}, nil)
	if _, err := issuer.Get(context.Background(), addr); err == nil {
		t.Fatal("Get() against closed server: expected error")
	}
}

func TestIssuerBodyReadTimeoutIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)

	issuer, err := httpclient.NewIssuer(&config.Config{}, httpclient.NewClient(100*time.Millisecond), nil)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	latency, err := issuer.Get(context.Background(), server.URL)
	if err == nil {
		t.Fatalf("Get() error = nil after %v, want body read timeout", latency)
	}
	if code := metrics.FailureCode(err); code != "timeout" {
		t.Errorf("FailureCode() = %q, want timeout (err: %v)", code, err)
	}
}

func TestIssuerTruncatedBodyIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("Hijack() error = %v", err)
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\nshort")
		_ = buf.Flush()
	}))
	t.Cleanup(server.Close)

	issuer := newIssuer(t, &config.Config{}, nil)
	if _, err := issuer.Post(context.Background(), server.URL); err == nil {
		t.Fatal("Post() error = nil, want unexpected EOF")
	}
}

func TestIssuerDrainsLargeBodies(t *testing.T) {
	payload := strings.Repeat("x", 2<<20)
	var conns atomic.Int64
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, payload)
	}))
	server.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			conns.Add(1)
		}
	}
	server.Start()
	t.Cleanup(server.Close)

	issuer := newIssuer(t, &config.Config{}, nil)
	for i := 0; i < 3; i++ {
		if _, err := issuer.Get(context.Background(), server.URL); err != nil {
			t.Fatalf("Get() #%d error = %v", i, err)
		}
	}
	if got := conns.Load(); got != 1 {
		t.Errorf("server saw %d connections, want 1 reused connection", got)
	}
}

func TestIssuerPropagatesTraceContext(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	server, requests := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	provider, err := tracing.Init(context.Background(), config.TracingConfig{Propagate: true, SampleRate: 1})
	if err != nil {
		t.Fatalf("tracing.Init() error = %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	issuer := newIssuer(t, &config.Config{}, provider)
	if _, err := issuer.Get(context.Background(), server.URL); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	got := requests()
	if len(got) != 1 || got[0].header.Get("Traceparent") == "" {
		t.Fatalf("expected traceparent header, got %+v", got)
	}
}

func TestNewIssuerRejectsConflictingBodies(t *testing.T) {
	_, err := httpclient.NewIssuer(&config.Config{Body: "a", BodyFile: "b"}, nil, nil)
	if err == nil {
		t.Fatal("NewIssuer() expected error")
	}
	if _, err := httpclient.NewIssuer(nil, nil, nil); err == nil {
		t.Fatal("NewIssuer(nil) expected error")
	}
}

func TestIssuerDrivesRunner(t *testing.T) {
	server, requests := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	issuer := newIssuer(t, &config.Config{}, nil)
	opt := runner.DefaultOptions()
	opt.Target = server.URL
	opt.Issuer = issuer
	opt.GroupSize = 2
	opt.Groups = 2
	opt.Iterations = 5
	opt.WarmupWorkers = 1
	opt.WarmupIterations = 2

	res, err := runner.New(opt).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	report := metrics.NewReport(res.Geometry, res.Timing, res.Stats)
	if report.Calls != 40 || report.Successes != 40 || report.Failures != 0 {
		t.Errorf("report calls/successes/failures = %d/%d/%d, want 40/40/0", report.Calls, report.Successes, report.Failures)
	}
	if n := len(requests()); n != 44 {
		t.Errorf("server saw %d requests, want 44 including warm-up", n)
	}
}
