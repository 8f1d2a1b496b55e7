package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRecordPostsEvent(t *testing.T) {
	var got eventPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/events" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, zerolog.Nop())
	c.Record(context.Background(), "SIGNIN", map[string]interface{}{"user_id": "user-1"})

	if got.Event != "SIGNIN" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.Details["user_id"] != "user-1" {
		t.Fatalf("unexpected details: %+v", got.Details)
	}
	if got.At.IsZero() {
		t.Fatalf("timestamp not set")
	}
}

func TestRecordRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, zerolog.Nop())
	c.Record(context.Background(), "PASSWORD_CHANGED", nil)

	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRecordDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, time.Second, zerolog.Nop())
	c.Record(context.Background(), "USER_REGISTERED", nil)

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestEmptyURLIsNoop(t *testing.T) {
	c := NewHTTPClient("", time.Second, zerolog.Nop())
	if _, ok := c.(noopClient); !ok {
		t.Fatalf("expected noop client, got %T", c)
	}
	c.Record(context.Background(), "SIGNIN", nil)
}
