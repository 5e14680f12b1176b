// Package api exposes the printer capability surface as a JSON HTTP API.
//
//	POST /api/v1/{operation}   run a capability call, arguments in the body
//	POST /api/v1/connect       bind the printer service
//	POST /api/v1/disconnect    unbind the printer service
//	GET  /api/v1/health        connection state, never authenticated
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nixxel-company-limited/thermal-printer-bridge/printer"
)

// Default HTTP timeouts
const (
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Connector binds and unbinds the printer service. Connect reports bind
// failures to the operator, not the caller.
type Connector interface {
	Connect()
	Disconnect() error
}

// Health is the data of GET /api/v1/health.
type Health struct {
	Connected bool   `json:"connected"`
	Status    string `json:"status"`
}

// Server serves the HTTP API
type Server struct {
	printer   printer.Capability
	connector Connector
	auth      *Authenticator
	ops       map[string]Operation
	address   string
	logger    *log.Logger

	readTimeout  time.Duration
	writeTimeout time.Duration

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	done       chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = log.New(io.Discard, "", 0)
		}
		s.logger = logger
	}
}

// WithJWTSecret requires HS256 bearer tokens signed with secret. An empty
// secret leaves the API open.
func WithJWTSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.auth = NewAuthenticator(secret)
		}
	}
}

// WithConnector enables the connect and disconnect endpoints.
func WithConnector(c Connector) Option {
	return func(s *Server) {
		s.connector = c
	}
}

// WithTimeouts sets the HTTP read and write timeouts; zero keeps the default.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if write > 0 {
			s.writeTimeout = write
		}
	}
}

// New creates an API server for p listening on address.
func New(p printer.Capability, address string, opts ...Option) *Server {
	s := &Server{
		printer:      p,
		ops:          Operations(),
		address:      address,
		logger:       log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lmsgprefix),
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	protected := http.NewServeMux()
	protected.HandleFunc("POST /api/v1/{operation}", s.handleOperation)
	protected.HandleFunc("POST /api/v1/connect", s.handleConnect)
	protected.HandleFunc("POST /api/v1/disconnect", s.handleDisconnect)

	var guarded http.Handler = protected
	if s.auth != nil {
		guarded = s.auth.Require(protected)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.Handle("/api/v1/", guarded)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, correlationID(r), http.StatusNotFound, CodeNotFound, "Resource not found")
	})
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := Health{Status: "disconnected"}
	if s.printer != nil && s.printer.IsConnected() {
		h = Health{Connected: true, Status: "connected"}
	}
	writeSuccess(w, correlationID(r), h)
}

// handleOperation runs the named capability call. The call runs to
// completion even when the client goes away first.
func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	id := correlationID(r)
	name := r.PathValue("operation")

	op, ok := s.ops[name]
	if !ok {
		writeFailure(w, id, http.StatusNotFound, CodeNotFound, fmt.Sprintf("unknown operation %q", name))
		return
	}

	args, err := decodeArgs(r.Body)
	if err != nil {
		writeError(w, id, err)
		return
	}

	s.logger.Printf("%s %s", id, name)
	call := printer.Go(func() (any, error) {
		return op(s.printer, args)
	})

	select {
	case <-call.Done():
		data, err := call.Wait()
		if err != nil {
			s.logger.Printf("%s %s failed: %v", id, name, err)
			writeError(w, id, err)
			return
		}
		writeSuccess(w, id, data)
	case <-r.Context().Done():
		s.logger.Printf("%s %s: client went away", id, name)
	}
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	s.handleConnection(w, r, "connect")
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.handleConnection(w, r, "disconnect")
}

func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request, action string) {
	id := correlationID(r)
	if s.connector == nil {
		writeFailure(w, id, http.StatusNotImplemented, CodeUnavailable, "connection control is not enabled")
		return
	}

	if action == "connect" {
		s.connector.Connect()
		if s.printer == nil || !s.printer.IsConnected() {
			writeFailure(w, id, http.StatusServiceUnavailable, CodeUnavailable, printer.NotConnectedMessage)
			return
		}
	} else if err := s.connector.Disconnect(); err != nil {
		s.logger.Printf("%s %s failed: %v", id, action, err)
		writeFailure(w, id, http.StatusServiceUnavailable, CodeUnavailable, err.Error())
		return
	}
	writeSuccess(w, id, s.printer != nil && s.printer.IsConnected())
}

// StartAsync binds the listener and serves in the background.
func (s *Server) StartAsync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return errors.New("api server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.logger.Printf("Error: Failed to start API server: %v", err)
		return fmt.Errorf("failed to start api server: %w", err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: s.readTimeout,
		WriteTimeout:      s.writeTimeout,
		ErrorLog:          s.logger,
	}
	done := make(chan struct{})

	s.httpServer = srv
	s.listener = listener
	s.done = done
	s.logger.Printf("API listening on %s", listener.Addr())

	go func() {
		defer close(done)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("Error: API server stopped: %v", err)
		}
	}()
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.httpServer, s.done
	s.httpServer, s.listener, s.done = nil, nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Println("Stopping API server...")
	err := srv.Shutdown(ctx)
	<-done
	if err != nil {
		return fmt.Errorf("failed to stop api server: %w", err)
	}
	s.logger.Println("API server stopped")
	return nil
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpServer != nil
}

// Address returns the configured address
func (s *Server) Address() string {
	return s.address
}

// ListenAddr returns the bound address while running.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
