package docconv_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"editpdf/internal/config"
	"editpdf/internal/docconv"
	"editpdf/internal/submission"
)

var testAssignment = &submission.Assignment{ID: 7, Name: "Essay"}

func TestStatusRequiresPolling(t *testing.T) {
	cases := []struct {
		status docconv.Status
		want   bool
	}{
		{docconv.StatusReady, true},
		{docconv.StatusReadyPartial, true},
		{docconv.StatusPendingInput, true},
		{docconv.StatusComplete, false},
		{docconv.StatusFailed, false},
		{docconv.StatusEmpty, false},
		{docconv.ParseStatus(" READY_PARTIAL "), true},
	}
	for _, tc := range cases {
		if got := tc.status.RequiresPolling(); got != tc.want {
			t.Errorf("%q.RequiresPolling() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestCombinedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/api/assignments/7/users/42/attempts/2/combined" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"complete"}`))
	}))
	defer server.Close()

	client := docconv.NewClient(server.URL+"/api/", "secret", time.Second, nil)
	status, err := client.CombinedStatus(context.Background(), testAssignment, 42, 2)
	if err != nil {
		t.Fatalf("CombinedStatus failed: %v", err)
	}
	if status != docconv.StatusComplete {
		t.Fatalf("expected complete, got %q", status)
	}
}

func TestGeneratePageImagesSendsReadonlyFlag(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("expected no auth header without token")
		}
		seen = append(seen, r.URL.Path+"?"+r.URL.RawQuery)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := docconv.NewClient(server.URL, "", time.Second, nil)
	for _, readonly := range []bool{false, true} {
		if err := client.GeneratePageImages(context.Background(), testAssignment, 5, 0, readonly); err != nil {
			t.Fatalf("GeneratePageImages(readonly=%v) failed: %v", readonly, err)
		}
	}
	want := []string{
		"/assignments/7/users/5/attempts/0/pages?readonly=0",
		"/assignments/7/users/5/attempts/0/pages?readonly=1",
	}
	if len(seen) != len(want) || seen[0] != want[0] || seen[1] != want[1] {
		t.Fatalf("unexpected requests: %v", seen)
	}
}

func TestErrorBodyMapsToConversionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errorcode":"unoconvfailed","message":"could not convert file"}`))
	}))
	defer server.Close()

	client := docconv.NewClient(server.URL, "", time.Second, nil)
	err := client.GeneratePageImages(context.Background(), testAssignment, 1, 0, false)
	var convErr *docconv.ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if convErr.Code != "unoconvfailed" || convErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected conversion error: %+v", convErr)
	}
}

func TestPlainErrorBodyIsNotConversionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := docconv.NewClient(server.URL, "", time.Second, nil)
	_, err := client.CombinedStatus(context.Background(), testAssignment, 1, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	var convErr *docconv.ConversionError
	if errors.As(err, &convErr) {
		t.Fatalf("expected plain error, got ConversionError %+v", convErr)
	}
}

func TestNewConfiguredClientRequiresBaseURL(t *testing.T) {
	cfg := config.Default()
	if _, err := docconv.NewConfiguredClient(&cfg); err == nil {
		t.Fatal("expected error without base url")
	}
	cfg.Converter.BaseURL = "http://converter.local/"
	client, err := docconv.NewConfiguredClient(&cfg)
	if err != nil {
		t.Fatalf("NewConfiguredClient failed: %v", err)
	}
	if client.BaseURL() != "http://converter.local" {
		t.Fatalf("unexpected base url %q", client.BaseURL())
	}
}
