// SPDX-License-Identifier: GPL-3.0-only

package ipc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultSocketPath is the well-known control socket location.
	DefaultSocketPath = "/run/lumos.sock"

	// maxRequestSize bounds the single read performed per connection.
	maxRequestSize = 256

	// connTimeout bounds how long one client may hold the accept loop.
	connTimeout = 5 * time.Second

	// acceptRetryDelay throttles the accept loop after a non-fatal accept error.
	acceptRetryDelay = 100 * time.Millisecond

	socketMode fs.FileMode = 0o666
)

// Server accepts connections sequentially and answers one request per connection.
type Server struct {
	handler  *Handler
	path     string
	limiter  *rate.Limiter
	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithSocketPath sets the socket location.
func WithSocketPath(path string) ServerOption {
	return func(s *Server) {
		s.path = path
	}
}

// WithRateLimiter sets the limiter applied to mutating requests.
func WithRateLimiter(limiter *rate.Limiter) ServerOption {
	return func(s *Server) {
		s.limiter = limiter
	}
}

// NewServer creates a server for store.
func NewServer(store Store, opts ...ServerOption) *Server {
	s := &Server{path: DefaultSocketPath}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = NewHandler(store, s.limiter)
	return s
}

// Path returns the socket location.
func (s *Server) Path() string {
	return s.path
}

// Handle answers a single request without going through the socket.
func (s *Server) Handle(request string) string {
	return s.handler.Handle(request)
}

// Start removes any stale socket, listens, and serves connections in a background goroutine.
func (s *Server) Start() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket %s: %w", s.path, err)
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.path, err)
	}

	if err := os.Chmod(s.path, socketMode); err != nil {
		if closeErr := ln.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close IPC listener during cleanup")
		}
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.wg.Add(1)
	go s.serve(ln)

	log.Info().Str("socket", s.path).Msg("IPC server started")
	return nil
}

// Stop closes the listener and waits for the accept loop to exit. Closing a listener
// created by Start also unlinks the socket file.
func (s *Server) Stop() error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	if ln == nil {
		return nil
	}

	err := ln.Close()
	s.wg.Wait()
	return err
}

func (s *Server) serve(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				log.Debug().Msg("IPC listener closed")
				return
			}
			log.Warn().Err(err).Msg("Failed to accept IPC connection")
			time.Sleep(acceptRetryDelay)
			continue
		}
		s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close IPC connection")
		}
	}()

	deadline := time.Now().Add(connTimeout)
	if err := conn.SetDeadline(deadline); err != nil {
		log.Debug().Err(err).Msg("Failed to set IPC connection deadline")
	}

	buf := make([]byte, maxRequestSize)
	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil {
			log.Debug().Err(err).Msg("Failed to read IPC request")
		}
		return
	}

	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	response := s.handler.HandleContext(ctx, string(buf[:n]))
	if _, err := conn.Write([]byte(response + "\n")); err != nil {
		log.Debug().Err(err).Msg("Failed to write IPC response")
	}
}
