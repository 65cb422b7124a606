package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/speak2see-backend/pkg/logger"
)

type observation struct {
	route  string
	method string
	status int
}

type recordingObserver struct {
	seen []observation
}

func (r *recordingObserver) Observe(route, method string, status int, _ time.Duration) {
	r.seen = append(r.seen, observation{route: route, method: method, status: status})
}

func TestLoggingObservesRoutePattern(t *testing.T) {
	observer := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(RequestID(logger.Nop()), Logging(logger.Nop(), observer))
	r.Get("/get/{itemID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/get/abc", nil))

	if len(observer.seen) != 1 {
		t.Fatalf("expected one observation, got %d", len(observer.seen))
	}
	got := observer.seen[0]
	if got.route != "/get/{itemID}" || got.method != http.MethodGet || got.status != http.StatusNotFound {
		t.Fatalf("unexpected observation %+v", got)
	}
	if resp.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestBodyLimitCapsReads(t *testing.T) {
	var read int
	handler := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		read = len(data)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	if read != 5 {
		t.Fatalf("expected limit+1 bytes readable, got %d", read)
	}
}

func TestRequestIDEchoesValidHeader(t *testing.T) {
	var seen string
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "client-req-1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if seen != "client-req-1" || resp.Header().Get(requestIDHeader) != "client-req-1" {
		t.Fatalf("expected inbound id echoed, ctx=%q header=%q", seen, resp.Header().Get(requestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "has space\n")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if seen == "has space\n" || seen == "" {
		t.Fatalf("expected a minted id for unsafe header, got %q", seen)
	}
}

func TestRecovererReraisesAbortHandler(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
