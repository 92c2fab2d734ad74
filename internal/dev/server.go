package dev

import (
	"context"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/saiuns/create-autofe-app/internal/compiler"
	"github.com/saiuns/create-autofe-app/internal/config"
	"github.com/saiuns/create-autofe-app/internal/errors"
	"github.com/saiuns/create-autofe-app/internal/logging"
	"github.com/saiuns/create-autofe-app/internal/netutil"
	"github.com/saiuns/create-autofe-app/internal/proxy"
)

// State is the session lifecycle state.
type State int32

const (
	StateCreated State = iota
	StateBinding
	StateListening
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateBinding:
		return "binding"
	case StateListening:
		return "listening"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stopper stops a running continuous compile.
type Stopper interface {
	Stop()
}

// StartWatchFunc starts the compiler's continuous mode with the given
// callbacks and returns a handle to stop it.
type StartWatchFunc func(ctx context.Context, cb compiler.Callbacks) (Stopper, error)

// Hooks are ordered observer lists invoked at session lifecycle points.
// SessionCreated hooks run while the request router is composed, before
// the built-in routes, and may attach extra middleware or routes.
// SessionListening hooks run once the listener is bound.
type Hooks struct {
	SessionCreated   []func(r chi.Router)
	SessionListening []func(s *Session)
}

// Options configures a development session.
type Options struct {
	// Config is the loaded project configuration.
	Config *config.Config

	// StartWatch starts the compiler's continuous mode.
	StartWatch StartWatchFunc

	// Hooks are the session lifecycle extension points.
	Hooks Hooks

	// OnReady is called exactly once, after the first successful
	// compile, with the resolved URL set.
	OnReady func(urls netutil.URLs)

	// OnStats is called with a rendered report for every completed
	// compile, including the first.
	OnStats func(report string)

	// OnCompileError is called for failed rebuilds. The session stays
	// up and keeps serving the last successful build.
	OnCompileError func(err error)
}

// Session is the long-lived aggregate owning the network listener, the
// compiler handle, the bridge watchers, and the reload clients. Created
// once at process start in development mode; production mode never builds
// one. No state survives the process: every session is rebuilt from
// configuration at startup.
type Session struct {
	cfg      *config.Config
	resolved config.Session
	opts     Options

	metrics *Metrics
	reload  *ReloadServer
	bridge  *Bridge
	table   *proxy.Table

	port       int
	urls       netutil.URLs
	listener   net.Listener
	httpServer *http.Server
	watch      Stopper

	state     atomic.Int32
	firstDone atomic.Bool
	readyCh   chan struct{}
	closeOnce sync.Once
}

// NewSession creates a development session from configuration. The merged
// dev-server settings are resolved here and immutable afterwards.
func NewSession(opts Options) *Session {
	metrics := NewMetrics()
	reload := NewReloadServer(metrics)
	cfg := opts.Config

	s := &Session{
		cfg:      cfg,
		resolved: cfg.Session(),
		opts:     opts,
		metrics:  metrics,
		reload:   reload,
		bridge:   NewBridge(reload, cfg.OutputPath(), cfg.PublicDirPath()),
		readyCh:  make(chan struct{}),
	}
	s.state.Store(int32(StateCreated))
	return s
}

// Start runs the session until ctx is cancelled, Close is called, or the
// server fails. Startup-phase errors (port exhaustion, proxy config,
// bind) are returned immediately; a bind failure is fatal and not
// retried, since the port was resolved as free moments earlier and a
// failure here indicates an external race.
func (s *Session) Start(ctx context.Context) error {
	s.setState(StateBinding)

	port, err := netutil.ResolvePort(s.resolved.Port)
	if err != nil {
		return err
	}
	s.port = port
	s.urls = netutil.ResolveURLs(
		s.resolved.Protocol, s.resolved.Host, port,
		s.resolved.PublicURL, s.resolved.PublicPath,
	)

	table, err := proxy.Build(s.resolved.Proxy, s.cfg.PublicDirPath())
	if err != nil {
		return err
	}
	s.table = table

	router := s.buildRouter()

	ln, err := net.Listen("tcp", s.resolved.Address(port))
	if err != nil {
		return errors.New(errors.CodeBindFailed).
			WithDetailf("Could not bind %s", s.resolved.Address(port)).
			Wrap(err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: router}
	s.setState(StateListening)

	logging.Info().
		Str("addr", s.resolved.Address(port)).
		Msg("dev server listening")

	if s.opts.StartWatch != nil {
		watch, err := s.opts.StartWatch(ctx, compiler.Callbacks{
			OnDone:  s.handleBuildDone,
			OnError: s.handleBuildError,
		})
		if err != nil {
			ln.Close()
			return err
		}
		s.watch = watch
	}

	s.bridge.Start()

	for _, hook := range s.opts.Hooks.SessionListening {
		hook(s)
	}
	close(s.readyCh)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Close()
		return nil
	case err := <-errCh:
		s.Close()
		return err
	}
}

// Close drains the listener and stops the watchers. In-flight requests
// are allowed to complete; new connections are refused. Safe to call more
// than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.setState(StateClosing)

		if s.watch != nil {
			s.watch.Stop()
		}
		s.bridge.Stop()
		s.reload.Close()

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpServer.Shutdown(ctx)
		} else if s.listener != nil {
			s.listener.Close()
		}

		s.setState(StateClosed)
		logging.Info().Msg("dev server closed")
	})
}

// handleBuildDone consumes one compiler done event. Only the first one
// reports the resolved URLs; every one re-logs the stats report. The
// first/subsequent distinction is the only ordering-sensitive state and
// is checked-and-set atomically.
func (s *Session) handleBuildDone(stats compiler.Stats) {
	s.metrics.BuildsTotal.WithLabelValues("success").Inc()

	if s.firstDone.CompareAndSwap(false, true) {
		if s.opts.OnStats != nil {
			s.opts.OnStats(stats.Report(false))
		}
		if s.opts.OnReady != nil {
			s.opts.OnReady(s.urls)
		}
		return
	}

	if s.opts.OnStats != nil {
		s.opts.OnStats(stats.Report(true))
	}
	s.reload.BroadcastContentChanged()
}

// handleBuildError reports a failed rebuild; the session keeps serving
// the last successful build.
func (s *Session) handleBuildError(err error) {
	s.metrics.BuildsTotal.WithLabelValues("failure").Inc()
	logging.Error().Err(err).Msg("compile failed")
	if s.opts.OnCompileError != nil {
		s.opts.OnCompileError(err)
	}
}

// buildRouter composes the request pipeline: CORS and compression,
// proxy rules with static fallback, session-created hooks, then the
// built-in reload, metrics, and asset routes.
func (s *Session) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	if s.resolved.Compress {
		r.Use(chimiddleware.Compress(5))
	}

	// The reload and metrics endpoints bypass the proxy rules; a
	// match-all rule must not capture the session's own channels.
	proxyMW := s.table.Middleware(s.publicPath())
	r.Use(func(next http.Handler) http.Handler {
		proxied := proxyMW(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, internalPrefix) {
				next.ServeHTTP(w, req)
				return
			}
			proxied.ServeHTTP(w, req)
		})
	})

	for _, hook := range s.opts.Hooks.SessionCreated {
		hook(r)
	}

	r.Get(ReloadPath, s.reload.HandleWebSocket)
	r.Handle(MetricsPath, s.metrics.Handler())

	assets := s.assetHandler()
	if pp := s.publicPath(); pp == "/" {
		r.Handle("/*", assets)
	} else {
		r.Handle(pp+"*", http.StripPrefix(strings.TrimSuffix(pp, "/"), assets))
	}

	return r
}

// publicPath returns the public path with a guaranteed trailing slash.
func (s *Session) publicPath() string {
	pp := s.resolved.PublicPath
	if pp == "" {
		return "/"
	}
	if !strings.HasSuffix(pp, "/") {
		pp += "/"
	}
	return pp
}

// assetHandler serves compiled output first, then the static public
// directory. Directory index is disabled: a request resolving to a
// directory yields 404. HTML responses get the hot client injected when
// hot-update injection is enabled.
func (s *Session) assetHandler() http.Handler {
	roots := []string{s.cfg.OutputPath(), s.cfg.PublicDirPath()}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		clean := path.Clean("/" + req.URL.Path)
		for _, root := range roots {
			full := filepath.Join(root, filepath.FromSlash(clean))
			info, err := os.Stat(full)
			if err != nil || info.IsDir() {
				continue
			}
			if s.resolved.Hot && strings.HasSuffix(full, ".html") {
				s.serveInjected(w, req, full)
				return
			}
			http.ServeFile(w, req, full)
			return
		}
		http.NotFound(w, req)
	})
}

// serveInjected serves an HTML file with the hot client script injected
// before the closing body tag.
func (s *Session) serveInjected(w http.ResponseWriter, req *http.Request, file string) {
	body, err := os.ReadFile(file)
	if err != nil {
		http.NotFound(w, req)
		return
	}

	html := string(body)
	if idx := strings.LastIndex(html, "</body>"); idx != -1 {
		html = html[:idx] + HotClientScript + html[idx:]
	} else {
		html += HotClientScript
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Port returns the resolved port. Valid once the session is listening.
func (s *Session) Port() int {
	return s.port
}

// URLs returns the resolved URL set. Valid once the session is listening.
func (s *Session) URLs() netutil.URLs {
	return s.urls
}

// Reload returns the live-reload server.
func (s *Session) Reload() *ReloadServer {
	return s.reload
}

// Bridge returns the change notification bridge.
func (s *Session) Bridge() *Bridge {
	return s.bridge
}

// Ready is closed once the session is listening and fully wired.
func (s *Session) Ready() <-chan struct{} {
	return s.readyCh
}
