package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRunHTTP_Up(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("all good"))
	}))
	defer srv.Close()

	out := RunHTTP(context.Background(), HTTPInput{URL: srv.URL, TimeoutMS: 2000})
	if out.Status != StatusUp {
		t.Fatalf("expected up, got %v (%s)", out.Status, out.Error)
	}
	if out.LatencyMs == nil {
		t.Fatal("expected latency to be set")
	}
}

func TestRunHTTP_StatusMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	out := RunHTTP(context.Background(), HTTPInput{URL: srv.URL, TimeoutMS: 2000})
	if out.Status != StatusDown {
		t.Fatalf("expected down, got %v", out.Status)
	}
	if out.Error != "status 404" {
		t.Fatalf("expected status 404 error, got %q", out.Error)
	}
}

func TestRunHTTP_ExpectedStatusOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	out := RunHTTP(context.Background(), HTTPInput{URL: srv.URL, TimeoutMS: 2000, ExpectedStatus: []int{404}})
	if out.Status != StatusUp {
		t.Fatalf("expected up with explicit expected status, got %v (%s)", out.Status, out.Error)
	}
}

func TestRunHTTP_RequiredKeyword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("status: degraded"))
	}))
	defer srv.Close()

	out := RunHTTP(context.Background(), HTTPInput{URL: srv.URL, TimeoutMS: 2000, ResponseKeyword: "healthy"})
	if out.Status != StatusDown || out.Error != "missing keyword" {
		t.Fatalf("expected down/missing keyword, got %v/%s", out.Status, out.Error)
	}
}

func TestRunHTTP_ForbiddenKeyword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("maintenance mode enabled"))
	}))
	defer srv.Close()

	out := RunHTTP(context.Background(), HTTPInput{URL: srv.URL, TimeoutMS: 2000, ResponseForbiddenKeyword: "maintenance"})
	if out.Status != StatusDown || out.Error != "forbidden keyword present" {
		t.Fatalf("expected down/forbidden keyword present, got %v/%s", out.Status, out.Error)
	}
}

func TestRunHTTP_BlockedHost(t *testing.T) {
	out := RunHTTP(context.Background(), HTTPInput{URL: "http://127.0.0.1:8080/", TimeoutMS: 2000})
	if out.Status != StatusUnknown {
		t.Fatalf("expected unknown for blocked host, got %v", out.Status)
	}
}

func TestRunTCP_BlockedHost(t *testing.T) {
	out := RunTCP(context.Background(), TCPInput{Target: "127.0.0.1:9999", TimeoutMS: 2000})
	if out.Status != StatusUnknown {
		t.Fatalf("expected unknown for blocked host, got %v", out.Status)
	}
}

func TestIsAllowedPort(t *testing.T) {
	cases := map[string]bool{"80": true, "443": true, "22": false, "1024": true, "65535": true, "0": false}
	for port, want := range cases {
		if got := IsAllowedPort(port); got != want {
			t.Errorf("IsAllowedPort(%s) = %v, want %v", port, got, want)
		}
	}
}
