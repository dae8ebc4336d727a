package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"slotbook/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.Discard()
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestContentTypeValidation(t *testing.T) {
	mw := ContentTypeValidation(testLogger(), ContentTypeRule{Suffix: "/import", MediaType: "text/calendar"})
	h := mw(okHandler())

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		contentType string
		want        int
	}{
		{name: "json post", method: http.MethodPost, path: "/api/v1/wizards", body: "{}", contentType: "application/json; charset=utf-8", want: http.StatusOK},
		{name: "missing header", method: http.MethodPost, path: "/api/v1/wizards", body: "{}", want: http.StatusUnsupportedMediaType},
		{name: "bodiless submit", method: http.MethodPost, path: "/api/v1/wizards/x/submit", want: http.StatusOK},
		{name: "calendar import", method: http.MethodPost, path: "/api/v1/vendors/v/import", body: "BEGIN:VCALENDAR", contentType: "text/calendar", want: http.StatusOK},
		{name: "json on import", method: http.MethodPost, path: "/api/v1/vendors/v/import", body: "{}", contentType: "application/json", want: http.StatusUnsupportedMediaType},
		{name: "get ignored", method: http.MethodGet, path: "/api/v1/wizards/x", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRateLimiter_TokenBucket(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, nil, testLogger())
	defer rl.Stop()

	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two hits should pass")
	}
	if ok, wait := rl.take("a"); ok || wait < 29*time.Second || wait > 31*time.Second {
		t.Errorf("third hit = %v after %s, want refusal with about a 30s wait", ok, wait)
	}
	if !rl.Allow("b") {
		t.Error("other keys are counted separately")
	}
	if !rl.Allow("") {
		t.Error("empty key is never limited")
	}

	now = now.Add(30 * time.Second)
	if !rl.Allow("a") {
		t.Error("a token should have refilled")
	}

	now = now.Add(2 * time.Minute)
	rl.evictIdle()
	rl.mu.Lock()
	n := len(rl.buckets)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("evictIdle left %d keys", n)
	}
}

func TestRateLimit_OnlyMatchedRequests(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, ClientIP, testLogger())
	defer rl.Stop()
	h := RateLimit(rl, PostSuffix("/submit"))(okHandler())

	do := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do(http.MethodPost, "/api/v1/wizards/x/submit"); code != http.StatusOK {
		t.Fatalf("first submit = %d", code)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wizards/x/submit", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second submit = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if code := do(http.MethodGet, "/api/v1/wizards/x"); code != http.StatusOK {
		t.Errorf("unmatched request = %d, want 200", code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := ClientIP(req); got != "10.0.0.1" {
		t.Errorf("ClientIP() = %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.7" {
		t.Errorf("ClientIP() = %q, want first forwarded hop", got)
	}
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(strings.Repeat("x", int(n))))
	}))

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(IdempotencyHeader, "k1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("/api/v1/wizards/a/submit")
	second := send("/api/v1/wizards/a/submit")
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Errorf("replay = %d %q, want %d %q", second.Code, second.Body, first.Code, first.Body)
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("replayed response should be marked")
	}

	send("/api/v1/wizards/b/submit")
	if calls != 2 {
		t.Errorf("same key on another path should run the handler, calls = %d", calls)
	}
}

func TestIdempotency_FailuresAreNotCached(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.Header.Set(IdempotencyHeader, "k1")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Errorf("handler ran %d times, want 2", calls)
	}
}

func TestIdempotency_ConcurrentDuplicateIsRejected(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	if !store.Reserve("/submit|k1") {
		t.Fatal("first reservation should succeed")
	}

	h := Idempotency(store, "")(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(IdempotencyHeader, "k1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestRequestTimeout(t *testing.T) {
	h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "TIMEOUT") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestRequestTimeout_LateHandlerHeadersAreDropped(t *testing.T) {
	done := make(chan struct{})
	h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(done)
		<-r.Context().Done()
		w.Header().Set("X-Late", "1")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("late")); err != http.ErrHandlerTimeout {
			t.Errorf("late write error = %v, want ErrHandlerTimeout", err)
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	// Inspect the response while the handler may still be running.
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	<-done
	if rec.Header().Get("X-Late") != "" {
		t.Error("headers set after the deadline must not reach the response")
	}
	if strings.Contains(rec.Body.String(), "late") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestRequestTimeout_HandlerHeadersPassThrough(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode int
	}{
		{
			name: "explicit status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Trace", "abc")
				w.WriteHeader(http.StatusCreated)
			},
			wantCode: http.StatusCreated,
		},
		{
			name: "implicit status on write",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Trace", "abc")
				_, _ = w.Write([]byte("ok"))
			},
			wantCode: http.StatusOK,
		},
		{
			name: "no write at all",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Trace", "abc")
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RequestTimeout(time.Second)(tt.handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := rec.Header().Get("X-Trace"); got != "abc" {
				t.Errorf("X-Trace = %q, want abc", got)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	var seen string
	h := RequestLogging(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	const id = "3f1c2a9e-8b7d-4c6e-9f0a-1b2c3d4e5f60"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != id || rec.Header().Get(RequestIDHeader) != id {
		t.Errorf("request id = %q, header = %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "not-a-uuid" || seen == "" {
		t.Errorf("invalid incoming id should be replaced, got %q", seen)
	}
}

func TestMaxRequestSize(t *testing.T) {
	var readErr error
	h := MaxRequestSize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	if readErr == nil {
		t.Error("reading past the limit should fail")
	}
}
