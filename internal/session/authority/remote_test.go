package authority

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRemoteCheckActive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sessions/s1/validate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(validateResponse{
			Valid:     true,
			AccountID: "acc1",
			Email:     "diner@example.com",
			CreatedAt: time.Now().UTC(),
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		})
	}))
	defer srv.Close()

	auth := NewRemote(srv.URL, time.Second, zap.NewNop())
	res := auth.Check(context.Background(), "s1")
	if res.Status != StatusActive {
		t.Fatalf("Status = %v, want StatusActive (reason %q)", res.Status, res.Reason)
	}
	if res.AccountID != "acc1" {
		t.Errorf("AccountID = %q, want acc1", res.AccountID)
	}
}

func TestRemoteCheckInvalidSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(validateResponse{Valid: false, ErrorCode: ReasonInactive})
	}))
	defer srv.Close()

	auth := NewRemote(srv.URL, time.Second, zap.NewNop())
	res := auth.Check(context.Background(), "s1")
	if res.Status != StatusAbsent || res.Reason != ReasonInactive {
		t.Errorf("result = %v/%q, want StatusAbsent/%s", res.Status, res.Reason, ReasonInactive)
	}
}

func TestRemoteCheckInvalidWithoutErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(validateResponse{Valid: false})
	}))
	defer srv.Close()

	auth := NewRemote(srv.URL, time.Second, zap.NewNop())
	res := auth.Check(context.Background(), "s1")
	if res.Status != StatusAbsent || res.Reason != ReasonNotFound {
		t.Errorf("result = %v/%q, want StatusAbsent/%s", res.Status, res.Reason, ReasonNotFound)
	}
}

func TestRemoteCheckServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	auth := NewRemote(srv.URL, time.Second, zap.NewNop())
	res := auth.Check(context.Background(), "s1")
	if res.Status != StatusUnavailable || res.Reason != ReasonUnavailable {
		t.Errorf("result = %v/%q, want StatusUnavailable/%s", res.Status, res.Reason, ReasonUnavailable)
	}
}

func TestRemoteCheckTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	auth := NewRemote(srv.URL, 20*time.Millisecond, zap.NewNop())
	res := auth.Check(context.Background(), "s1")
	if res.Status != StatusUnavailable {
		t.Errorf("Status = %v, want StatusUnavailable", res.Status)
	}
}

func TestRemoteCheckUnreachable(t *testing.T) {
	auth := NewRemote("http://127.0.0.1:1", 100*time.Millisecond, zap.NewNop())
	res := auth.Check(context.Background(), "s1")
	if res.Status != StatusUnavailable {
		t.Errorf("Status = %v, want StatusUnavailable", res.Status)
	}
}

func TestRemoteCheckMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	auth := NewRemote(srv.URL, time.Second, zap.NewNop())
	res := auth.Check(context.Background(), "s1")
	if res.Status != StatusUnavailable {
		t.Errorf("Status = %v, want StatusUnavailable", res.Status)
	}
}
