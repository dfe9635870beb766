package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/use-agent/browserfetch/models"
)

func TestPrecheckRejectsNonWebContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
	}))
	defer srv.Close()

	h := newHeadPrecheck(2 * time.Second)
	outcome, err := h.Check(context.Background(), srv.URL)
	if outcome != PrecheckRejected {
		t.Fatalf("outcome = %q, want %q", outcome, PrecheckRejected)
	}

	var fe *models.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Code != models.ErrCodeNonHTMLContent {
		t.Errorf("code = %q, want %q", fe.Code, models.ErrCodeNonHTMLContent)
	}
	wantMsg := fmt.Sprintf("URL content type is 'application/pdf', not a web page: %s", srv.URL)
	if fe.Message != wantMsg {
		t.Errorf("message = %q, want %q", fe.Message, wantMsg)
	}
}

func TestPrecheckPassesWebContentTypes(t *testing.T) {
	for _, ct := range []string{
		"text/html; charset=utf-8",
		"text/plain",
		"application/xhtml+xml",
	} {
		t.Run(ct, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", ct)
			}))
			defer srv.Close()

			h := newHeadPrecheck(2 * time.Second)
			outcome, err := h.Check(context.Background(), srv.URL)
			if outcome != PrecheckPassed {
				t.Fatalf("outcome = %q, want %q (err: %v)", outcome, PrecheckPassed, err)
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPrecheckPassesWithoutContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	h := newHeadPrecheck(2 * time.Second)
	if outcome, err := h.Check(context.Background(), srv.URL); outcome != PrecheckPassed {
		t.Fatalf("outcome = %q, want %q (err: %v)", outcome, PrecheckPassed, err)
	}
}

func TestPrecheckSkipsOnNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	h := newHeadPrecheck(2 * time.Second)
	outcome, err := h.Check(context.Background(), url)
	if outcome != PrecheckSkipped {
		t.Fatalf("outcome = %q, want %q", outcome, PrecheckSkipped)
	}
	if err != nil {
		t.Errorf("skipped probe should not carry an error, got %v", err)
	}
}

func TestPrecheckRejectsRedirectToPrivateAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://10.0.0.1/internal", http.StatusFound)
	}))
	defer srv.Close()

	h := newHeadPrecheck(2 * time.Second)
	outcome, err := h.Check(context.Background(), srv.URL)
	if outcome != PrecheckRejected {
		t.Fatalf("outcome = %q, want %q (err: %v)", outcome, PrecheckRejected, err)
	}

	var fe *models.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Code != models.ErrCodePrivateAddress {
		t.Errorf("code = %q, want %q", fe.Code, models.ErrCodePrivateAddress)
	}
}

func TestIsWebContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"text/plain", true},
		{"application/xhtml+xml", true},
		{"application/pdf", false},
		{"image/png", false},
		{"application/octet-stream", false},
		{"application/json", false},
	}
	for _, tt := range tests {
		if got := isWebContentType(tt.ct); got != tt.want {
			t.Errorf("isWebContentType(%q) = %v, want %v", tt.ct, got, tt.want)
		}
	}
}
