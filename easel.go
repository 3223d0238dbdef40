// Package easel provides a local development file server.
//
// An easel server exposes the contents of a directory over plain HTTP on
// localhost so a browser-based prototype can be exercised without a build
// step. It binds a port, serves files one request at a time, and shuts down
// cleanly on interrupt. That is the whole contract: no TLS, no caching
// strategy, no access control.
//
// Usage:
//
//	srv := easel.New(easel.Config{Port: 8000, Root: "./www"})
//	if err := srv.Bind(); err != nil {
//	    log.Fatal(err)
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	srv.Serve(ctx)
package easel

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/easel-dev/easel/internal/errors"
	"github.com/easel-dev/easel/internal/livereload"
)

// =============================================================================
// Server Lifecycle
// =============================================================================

// State is a lifecycle state of the server.
// The only path is Unbound → Bound → Serving → Stopped; there are no
// transitions back and no retries between states.
type State int

const (
	StateUnbound State = iota
	StateBound
	StateServing
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateBound:
		return "bound"
	case StateServing:
		return "serving"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DevServer serves a directory tree over HTTP. Create one with New, bind it
// with Bind, then block in Serve until the context is canceled. A DevServer
// is single-shot: once stopped it cannot be restarted.
type DevServer struct {
	config Config
	types  *ContentTypeTable
	log    *slog.Logger

	broker  *livereload.Broker
	watcher *livereload.Watcher

	mu       sync.Mutex
	state    State
	root     string // resolved absolute root, set by Bind
	listener net.Listener
	httpSrv  *http.Server
}

// New creates a server from the configuration. The configuration is fixed
// from here on; nothing touches the filesystem or the network until Bind.
func New(cfg Config) *DevServer {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &DevServer{
		config: cfg,
		types:  NewContentTypeTable(),
		log:    cfg.Logger,
	}
}

// Bind resolves the root directory and binds the listening socket, moving
// the server from Unbound to Bound. Any failure here is a startup failure:
// the returned error is final and the server is unusable afterwards.
func (s *DevServer) Bind() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnbound {
		return errors.Newf(errors.CategoryStartup, "server already started (state %s)", s.state)
	}

	root, err := s.resolveRoot()
	if err != nil {
		return err
	}
	s.root = root

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.New("E101").
			WithDetailf("could not listen on %s", addr).
			Wrap(err)
	}

	s.listener = ln
	s.state = StateBound
	s.log.Debug("listener bound", "addr", ln.Addr().String(), "root", root)
	return nil
}

// resolveRoot turns the configured root into a usable absolute path.
// Symlinks are resolved here once so per-request containment checks compare
// against the real directory.
func (s *DevServer) resolveRoot() (string, error) {
	root := s.config.Root
	if root == "" {
		exeDir, err := DefaultRoot()
		if err != nil {
			return "", errors.New("E103").Wrap(err)
		}
		root = exeDir
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.New("E103").
			WithDetailf("path %q", root).
			Wrap(err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.New("E102").
			WithDetailf("path %q", abs).
			Wrap(err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", errors.New("E102").
			WithDetailf("path %q", resolved).
			Wrap(err)
	}
	if !info.IsDir() {
		return "", errors.New("E102").
			WithDetailf("%q is a file, not a directory", resolved)
	}

	return resolved, nil
}

// Serve moves a bound server to Serving and blocks until the context is
// canceled or the serve loop fails. On cancellation the in-flight request
// completes, the socket is released, and Serve returns nil with the server
// in Stopped.
func (s *DevServer) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateBound {
		state := s.state
		s.mu.Unlock()
		return errors.Newf(errors.CategoryStartup, "server not bound (state %s)", state)
	}

	if s.config.LiveReload {
		s.broker = livereload.NewBroker()
		s.watcher = livereload.NewWatcher(livereload.WatcherConfig{Root: s.root})
		s.watcher.OnChange(s.onFileChange)
		go s.watcher.Start(ctx)
	}

	s.httpSrv = &http.Server{Handler: s.buildHandler()}
	s.state = StateServing
	ln := s.listener
	s.mu.Unlock()

	s.log.Debug("serving", "url", s.URL(), "root", s.root)

	if s.config.OpenBrowser {
		go openBrowser(s.URL())
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		<-errCh
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Run binds and serves in one call.
func (s *DevServer) Run(ctx context.Context) error {
	if err := s.Bind(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Stop releases the listener and moves the server to Stopped. The in-flight
// request, if any, completes first. Stop is safe to call more than once and
// from any goroutine.
func (s *DevServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped {
		return
	}
	prev := s.state
	s.state = StateStopped

	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.broker != nil {
		s.broker.Close()
	}

	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpSrv.Shutdown(ctx)
	} else if s.listener != nil {
		// Bound but never served; release the socket directly.
		s.listener.Close()
	}

	if prev != StateUnbound {
		s.log.Debug("listener released")
	}
}

// onFileChange forwards watcher events to connected browsers.
func (s *DevServer) onFileChange(c livereload.Change) {
	s.log.Debug("file changed", "path", c.Path)
	switch c.Type {
	case livereload.ChangeCSS:
		s.broker.NotifyCSS(filepath.Base(c.Path))
	default:
		s.broker.NotifyReload()
	}
}

// State returns the current lifecycle state.
func (s *DevServer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Root returns the resolved root directory. Empty before Bind.
func (s *DevServer) Root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Addr returns the bound address. Nil before Bind.
func (s *DevServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the actual bound port. Before Bind it is the configured port;
// after Bind it reflects the socket, which matters when configured with
// port 0 (the OS picks one).
func (s *DevServer) Port() int {
	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return s.config.Port
}

// URL returns the serving URL. It always points at localhost, whatever
// interface the listener is bound to.
func (s *DevServer) URL() string {
	return "http://localhost:" + strconv.Itoa(s.Port())
}
