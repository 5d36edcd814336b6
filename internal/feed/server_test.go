package feed

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// freePort grabs a port from the kernel and releases it for the server under
// test. Small race window, acceptable in tests.
func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	return port
}

func startServer(t *testing.T, payload []byte, source string) *Server {
	t.Helper()

	s := New(Options{Port: freePort(t)})
	if err := s.Start(payload, source); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(s.Shutdown)

	return s
}

func TestJSONRoute(t *testing.T) {
	payload := []byte(`{"url":"http://127.0.0.1:9999/download","version":"2.0.0"}`)
	s := startServer(t, payload, "unused")

	resp, err := http.Get(s.FeedURL())
	if err != nil {
		t.Fatalf("GET /json: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != string(payload) {
		t.Errorf("body = %q, want %q", body, payload)
	}
}

func TestDownloadRouteLocalFile(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "app.zip")
	if err := os.WriteFile(artifact, []byte("zip bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := startServer(t, []byte(`{}`), artifact)

	resp, err := http.Get(s.DownloadURL())
	if err != nil {
		t.Fatalf("GET /download: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "zip bytes" {
		t.Errorf("body = %q", body)
	}
}

func TestDownloadRouteProxiesRemoteURL(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote artifact"))
	}))
	defer remote.Close()

	s := startServer(t, []byte(`{}`), remote.URL+"/app.zip")

	resp, err := http.Get(s.DownloadURL())
	if err != nil {
		t.Fatalf("GET /download: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "remote artifact" {
		t.Errorf("body = %q", body)
	}
}

func TestDownloadRouteRemoteFailure(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer remote.Close()

	s := startServer(t, []byte(`{}`), remote.URL+"/app.zip")

	resp, err := http.Get(s.DownloadURL())
	if err != nil {
		t.Fatalf("GET /download: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "unexpected status") {
		t.Errorf("error body = %q", body)
	}

	// The server survives a failed proxy request.
	resp2, err := http.Get(s.FeedURL())
	if err != nil {
		t.Fatalf("server dead after proxy failure: %v", err)
	}
	_ = resp2.Body.Close()
}

func TestBindConflict(t *testing.T) {
	port := freePort(t)

	first := New(Options{Port: port})
	if err := first.Start([]byte(`{}`), "x"); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	defer first.Shutdown()

	second := New(Options{Port: port})
	err := second.Start([]byte(`{}`), "x")
	if !errors.Is(err, ErrBind) {
		t.Errorf("second Start() error = %v, want ErrBind", err)
	}
	second.Shutdown() // must be safe after failed start
}

func TestShutdownIdempotent(t *testing.T) {
	s := startServer(t, []byte(`{}`), "x")

	s.Shutdown()
	s.Shutdown()

	if _, err := http.Get(s.FeedURL()); err == nil {
		t.Error("server still answering after Shutdown")
	}
}

func TestShutdownRightAfterStart(t *testing.T) {
	// Shutdown may run before the serve goroutine is ever scheduled, which is
	// exactly what a deferred Shutdown does when the caller errors out right
	// after Start. Teardown must stay clean for every interleaving.
	for i := 0; i < 50; i++ {
		s := New(Options{Port: freePort(t)})
		if err := s.Start([]byte(`{}`), "x"); err != nil {
			t.Fatalf("Start() #%d error = %v", i, err)
		}
		s.Shutdown()

		if _, err := http.Get(s.FeedURL()); err == nil {
			t.Fatalf("server still answering after immediate shutdown (#%d)", i)
		}
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	s := New(Options{Port: freePort(t)})
	s.Shutdown() // must not panic
}

func TestRandomizedPortInRange(t *testing.T) {
	for i := 0; i < 20; i++ {
		s := New(Options{})
		if s.port < DefaultBasePort || s.port >= DefaultBasePort+portSpread {
			t.Fatalf("port %d outside [%d,%d)", s.port, DefaultBasePort, DefaultBasePort+portSpread)
		}
	}
}
