// Package server accepts raw ESC/POS jobs on a TCP port, usually 9100, and
// forwards them to the printer.
package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
)

// Target receives the bytes of a raw print job.
type Target interface {
	PrintRawData(data []byte) error
}

// Server represents a TCP server that forwards data to a printer
type Server struct {
	target   Target
	listener net.Listener
	address  string
	mu       sync.Mutex
	running  bool
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	logger   *log.Logger
}

// New creates a new server instance
func New(target Target, address string) *Server {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags|log.Lmsgprefix)
	return NewWithLogger(target, address, logger)
}

// NewWithLogger creates a new server instance with a custom logger
func NewWithLogger(target Target, address string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		target:  target,
		address: address,
		logger:  logger,
		conns:   make(map[net.Conn]struct{}),
	}
}

// listen binds the listener. Callers hold s.mu.
func (s *Server) listen() error {
	if s.running {
		s.logger.Println("Error: Server already running")
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.logger.Printf("Error: Failed to start server: %v", err)
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener
	s.running = true
	s.logger.Printf("Server listening on %s", listener.Addr())
	return nil
}

// Start starts the TCP server and blocks until Stop is called
func (s *Server) Start() error {
	s.mu.Lock()
	s.logger.Printf("Starting server on %s (blocking mode)", s.address)
	if err := s.listen(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.acceptConnections()
	return nil
}

// StartAsync starts the TCP server in a goroutine (non-blocking)
func (s *Server) StartAsync() error {
	s.mu.Lock()
	s.logger.Printf("Starting server on %s (async mode)", s.address)
	if err := s.listen(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.acceptConnections()
	s.logger.Println("Server started in background, ready to accept connections")
	return nil
}

// acceptConnections handles incoming client connections
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()

			if !running {
				s.logger.Println("Server shutting down, stopping accept loop")
				return
			}
			s.logger.Printf("Error accepting connection: %v", err)
			continue
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		s.logger.Printf("Client connected from %s", conn.RemoteAddr())
		go s.handleConnection(conn)
	}
}

// handleConnection forwards every chunk read from conn as one raw job.
// A rejected chunk ends the connection so the client sees the failure.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
		s.logger.Printf("Client disconnected: %s", conn.RemoteAddr())
	}()

	clientAddr := conn.RemoteAddr().String()
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.logger.Printf("Received %d bytes from %s", n, clientAddr)

			if printErr := s.target.PrintRawData(buf[:n]); printErr != nil {
				s.logger.Printf("Error forwarding to printer: %v", printErr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Printf("Error reading from client %s: %v", clientAddr, err)
			}
			return
		}
	}
}

// Stop closes the listener and every open client connection, then waits
// for handlers to finish.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Println("Stop called but server is not running")
		return nil
	}

	s.logger.Println("Stopping server...")
	s.running = false
	listener := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	err := listener.Close()
	s.wg.Wait()

	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()

	s.logger.Println("Server stopped successfully")
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close listener: %w", err)
	}
	return nil
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the configured address
func (s *Server) Address() string {
	return s.address
}

// ListenAddr returns the bound address while running, which differs from
// Address when listening on port 0.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
