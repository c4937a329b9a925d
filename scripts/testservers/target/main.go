// Command target is a small HTTP server to point waveload at during manual
// runs. It can add latency and fail a share of calls.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

type server struct {
	latency    time.Duration
	jitter     time.Duration
	failRate   float64
	failMethod string
	calls      atomic.Int64
}

func main() {
	port := flag.Int("port", 8080, "Listening port")
	latency := flag.Duration("latency", 0, "Fixed delay added to every response")
	jitter := flag.Duration("jitter", 0, "Random extra delay up to this value")
	failRate := flag.Float64("fail-rate", 0, "Fraction of calls answered with 500 (0.0 - 1.0)")
	failMethod := flag.String("fail-method", "", "Only fail calls with this method (GET or POST)")
	flag.Parse()

	if *port <= 0 {
		log.Fatalf("port must be > 0")
	}
	if *failRate < 0 || *failRate > 1 {
		log.Fatalf("fail-rate must be between 0 and 1")
	}

	s := &server{
		latency:    *latency,
		jitter:     *jitter,
		failRate:   *failRate,
		failMethod: strings.ToUpper(strings.TrimSpace(*failMethod)),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status/", s.handleStatus)
	mux.HandleFunc("/echo", s.handleEcho)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/", s.handleRoot)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("target server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func (s *server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if !s.prepare(w, r) {
		return
	}
	_, _ = io.Copy(io.Discard, r.Body)
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "method": r.Method, "path": r.URL.Path})
}

func (s *server) handleEcho(w http.ResponseWriter, r *http.Request) {
	if !s.prepare(w, r) {
		return
	}
	body, _ := io.ReadAll(r.Body)
	respondJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"method":       r.Method,
		"headers":      r.Header,
		"body":         string(body),
		"content_type": r.Header.Get("Content-Type"),
	})
}

// handleStatus answers /status/<code> with that code.
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)
	s.delay()
	code, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/status/"))
	if err != nil || code < 100 || code > 599 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid status code"})
		return
	}
	respondJSON(w, code, map[string]any{"ok": code < 400, "status": code})
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"calls": s.calls.Load()})
}

// prepare counts the call, applies the delay and injects failures. It
// returns false when the response has already been written.
func (s *server) prepare(w http.ResponseWriter, r *http.Request) bool {
	s.calls.Add(1)
	s.delay()
	if s.shouldFail(r.Method) {
		respondJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "injected failure"})
		return false
	}
	return true
}

func (s *server) delay() {
	d := s.latency
	if s.jitter > 0 {
		d += rand.N(s.jitter)
	}
	if d > 0 {
		time.Sleep(d)
	}
}

func (s *server) shouldFail(method string) bool {
	if s.failRate <= 0 {
		return false
	}
	if s.failMethod != "" && s.failMethod != method {
		return false
	}
	return rand.Float64() < s.failRate
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
