// Package feed implements the ephemeral loopback HTTP server that re-exposes
// one selected release in the two-endpoint shape the OS updater expects:
// GET /json serves the release descriptor, GET /download streams the payload.
package feed

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/valksor/go-updatebridge/internal/log"
)

const (
	// DefaultBasePort anchors the randomized port range. The actual port is
	// base plus a random offset in [0,100) so concurrent app instances are
	// unlikely to collide.
	DefaultBasePort = 6190

	portSpread = 100
)

// Options configures a protocol server.
type Options struct {
	// Port to listen on. Zero picks DefaultBasePort plus a random offset.
	Port int

	// Client fetches remote download sources. Defaults to a pooled client.
	Client *http.Client

	// Logger for request diagnostics. Defaults to a no-op.
	Logger *slog.Logger
}

// Server is one running instance of the update protocol server. It is
// created for a single check cycle and must be shut down before that cycle
// returns.
type Server struct {
	port   int
	client *http.Client
	logger *slog.Logger

	payload []byte
	source  string

	mu      sync.Mutex
	httpSrv *http.Server
	started bool
	stopped bool
}

// New prepares a server on a fixed address so callers can rewrite the
// release URL before the socket is bound.
func New(opts Options) *Server {
	port := opts.Port
	if port == 0 {
		port = DefaultBasePort + rand.IntN(portSpread)
	}

	client := opts.Client
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	return &Server{
		port:   port,
		client: client,
		logger: logger,
	}
}

// URL returns the server's base address.
func (s *Server) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", s.port)
}

// FeedURL returns the metadata route handed to the OS updater.
func (s *Server) FeedURL() string {
	return s.URL() + "/json"
}

// DownloadURL returns the download route the served release points at.
func (s *Server) DownloadURL() string {
	return s.URL() + "/download"
}

// Start binds the listening socket and begins serving the payload. It
// returns once the socket is accepting connections; a bind failure (port in
// use) is returned immediately. downloadSource is either a remote URL or a
// local file path.
func (s *Server) Start(payload []byte, downloadSource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("feed: server already started")
	}

	s.payload = payload
	s.source = downloadSource

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("%w on port %d: %w", ErrBind, s.port, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /json", s.handleJSON)
	mux.HandleFunc("GET /download", s.handleDownload)

	httpSrv := &http.Server{Handler: mux}
	s.httpSrv = httpSrv
	s.started = true

	// The goroutine captures locals so it never touches fields Shutdown may
	// race with; Shutdown can run before it is even scheduled.
	go func() {
		// ErrServerClosed and use-of-closed-network errors are the normal
		// teardown path.
		_ = httpSrv.Serve(ln)
	}()

	s.logger.Debug("protocol server listening", "addr", ln.Addr().String())

	return nil
}

// Shutdown closes the listening socket. It is idempotent and safe to call
// before Start or after a failed Start.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpSrv == nil || s.stopped {
		return
	}
	s.stopped = true

	_ = s.httpSrv.Close()

	s.logger.Debug("protocol server shut down")
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.payload)
}

// handleDownload materializes the download source into a local file, then
// streams its bytes. Any failure answers 500 with the failure message; there
// is no retry at this layer.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	path, err := s.materialize(r)
	if err != nil {
		s.logger.Error("download proxy failed", log.Err(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.logger.Error("open materialized artifact", log.Err(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}
	defer func() { _ = f.Close() }()

	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		// Headers are gone; all we can do is log.
		s.logger.Error("stream artifact", log.Err(err))
	}
}

// materialize resolves the download source to a local file path, fetching
// remote URLs fully to a fresh temp file first. The temp file is left for
// OS temp cleanup; its path is logged so operators can reclaim it early.
func (s *Server) materialize(r *http.Request) (string, error) {
	u, err := url.Parse(s.source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		// Already a local path.
		return s.source, nil
	}

	tmp, err := os.CreateTemp("", "ubridge-artifact-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = tmp.Close() }()

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, s.source, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch artifact: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch artifact: unexpected status %d", resp.StatusCode)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	s.logger.Debug("artifact materialized", "path", tmp.Name())

	return tmp.Name(), nil
}
