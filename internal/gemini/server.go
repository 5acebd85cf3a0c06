package gemini

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	// maxRequestLen is the Gemini protocol's cap on the request URL.
	maxRequestLen = 1024

	requestTimeout = 30 * time.Second
)

// Server is the Gemini front end. It accepts TLS connections, reads one
// request per connection, and hands it to the configured handler along
// with the caller's certificate fingerprint.
type Server struct {
	addr      string
	tlsConfig *tls.Config
	handler   Handler
	logger    *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	active   sync.WaitGroup
}

// NewServer creates a server listening on addr with the given server
// certificate. Client certificates are requested but not verified
// against any authority: Gemini clients identify themselves with
// self-signed certificates, so only the fingerprint matters.
func NewServer(addr, certFile, keyFile string, handler Handler, logger *slog.Logger) (*Server, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load server certificate: %w", err)
	}

	return &Server{
		addr: addr,
		tlsConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			ClientAuth:   tls.RequestClientCert,
			MinVersion:   tls.VersionTLS12,
		},
		handler: handler,
		logger:  logger,
	}, nil
}

// Start begins accepting connections. It blocks until the server is
// shut down or the listener fails.
func (s *Server) Start() error {
	listener, err := tls.Listen("tcp", s.addr, s.tlsConfig)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		listener.Close()
		return nil
	}
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("starting gemini server", "addr", s.addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConn(conn)
		}()
	}
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting new connections and waits for in-flight
// requests to finish, up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(requestTimeout))

	start := time.Now()

	line, err := readRequestLine(conn)
	if err != nil {
		writeHeader(conn, StatusBadRequest, "malformed request")
		return
	}

	u, err := ParseRequestLine(line)
	if err != nil {
		writeHeader(conn, StatusBadRequest, "malformed request URL")
		return
	}

	req := &Request{URL: u}
	if tlsConn, ok := conn.(*tls.Conn); ok {
		if peers := tlsConn.ConnectionState().PeerCertificates; len(peers) > 0 {
			req.Fingerprint = Fingerprint(peers[0])
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp := s.handler.ServeGemini(ctx, req)

	if err := writeHeader(conn, resp.Status, resp.Meta); err != nil {
		return
	}
	if resp.Status >= 20 && resp.Status < 30 && len(resp.Body) > 0 {
		conn.Write(resp.Body)
	}

	s.logger.Info("gemini request",
		"path", u.Path,
		"status", resp.Status,
		"authenticated", req.Fingerprint != "",
		"duration", time.Since(start),
	)
}

// readRequestLine reads one CRLF-terminated request line, enforcing the
// protocol's length cap.
func readRequestLine(conn net.Conn) (string, error) {
	reader := bufio.NewReaderSize(conn, maxRequestLen+2)

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read request line: %w", err)
	}

	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if len(line) > maxRequestLen {
		return "", fmt.Errorf("request line exceeds %d bytes", maxRequestLen)
	}
	if line == "" {
		return "", fmt.Errorf("empty request line")
	}
	return line, nil
}

func writeHeader(conn net.Conn, status int, meta string) error {
	_, err := fmt.Fprintf(conn, "%d %s\r\n", status, meta)
	return err
}
