package ipcsock

import (
	"bufio"
	"context"
	"net"
	"sync"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
)

// Server is the consumer side of a channel hop: it listens on a Unix domain
// socket at Path and Gets messages put there by a remote Client. MaxClients
// (default 1) caps the number of connections accepted over the server's
// lifetime: connections beyond it are closed as soon as they are accepted,
// and a connection that closes does not free its place.
type Server struct {
	Path       string
	MaxClients int

	mu       sync.Mutex
	listener net.Listener
	conns    []net.Conn
	readers  chan *bufio.Reader
	accepted int
}

// NewServer constructs a Server listening at path. MaxClients defaults to 1
// when <= 0, matching the spec's "default 1 per server endpoint" guidance.
func NewServer(path string, maxClients int) *Server {
	if maxClients <= 0 {
		maxClients = 1
	}
	return &Server{
		Path:       path,
		MaxClients: maxClients,
		readers:    make(chan *bufio.Reader, maxClients),
	}
}

// Listen opens the socket. Must be called once before Get.
func (s *Server) Listen() error {
	ln, err := net.Listen("unix", s.Path)
	if err != nil {
		return crawlerr.Wrap(crawlerr.CodeQueueError, "listen failed", err)
	}
	s.listener = ln

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		s.accepted++
		tooMany := s.accepted > s.MaxClients
		s.mu.Unlock()

		if tooMany {
			conn.Close()
			continue
		}

		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		s.readers <- bufio.NewReader(conn)
	}
}

// Get blocks until either the next inbound envelope arrives or ctx is done.
// This is a suspension point per spec §5.
func (s *Server) Get(ctx context.Context) (Envelope, error) {
	var reader *bufio.Reader

	select {
	case reader = <-s.readers:
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}

	env, err := readEnvelope(reader)
	if err != nil {
		return Envelope{}, crawlerr.Wrap(crawlerr.CodeQueueError, "read failed", err)
	}

	// A connection serves one message at a time in this protocol (the
	// Python original's UnixSocket.put/write_eof closes after each send);
	// requeue the reader for the next line on the same connection.
	s.readers <- reader

	return env, nil
}

// Close shuts the listener and all accepted connections down.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.conns {
		c.Close()
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
