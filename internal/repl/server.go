package repl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// maxRequestBytes caps how much of a request the listener reads.
	maxRequestBytes = 8192
	// readTimeout bounds how long a client may take to send its request.
	readTimeout = 5 * time.Second
)

// CommitHandler receives parsed commit notifications.
type CommitHandler func(QueuedCommit)

// NotificationServer is a minimal loopback HTTP listener for commit
// notifications from git hooks. It understands just enough HTTP for
// curl: POST /commit with a JSON or url-encoded body, and GET /health.
type NotificationServer struct {
	host     string
	port     int
	onCommit CommitHandler

	listener net.Listener
	group    *errgroup.Group
	cancel   context.CancelFunc
	running  atomic.Bool
}

// NewNotificationServer binds to 127.0.0.1:port when started. Port 0
// picks a free port.
func NewNotificationServer(port int, onCommit CommitHandler) *NotificationServer {
	return &NotificationServer{
		host:     "127.0.0.1",
		port:     port,
		onCommit: onCommit,
	}
}

// SetHost overrides the loopback listen address. Must be called before
// Start.
func (s *NotificationServer) SetHost(host string) {
	if host != "" {
		s.host = host
	}
}

// Start binds the listener and begins accepting connections. A port
// already in use surfaces as an error immediately. Calling Start on a
// running server is a no-op.
func (s *NotificationServer) Start() error {
	if s.running.Load() {
		return nil
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return fmt.Errorf("bind %s:%d: %w", s.host, s.port, err)
	}
	s.listener = ln

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.group, ctx = errgroup.WithContext(ctx)
	s.running.Store(true)

	s.group.Go(func() error {
		return s.acceptLoop(ctx)
	})
	return nil
}

// Port returns the bound port, useful when started with port 0.
func (s *NotificationServer) Port() int {
	if s.listener == nil {
		return s.port
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// IsRunning reports whether the listener is accepting connections.
func (s *NotificationServer) IsRunning() bool {
	return s.running.Load()
}

// Stop closes the listener and drains in-flight connections.
func (s *NotificationServer) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	s.cancel()
	err := s.listener.Close()
	if werr := s.group.Wait(); werr != nil && !errors.Is(werr, net.ErrClosed) && err == nil {
		err = werr
	}
	return err
}

func (s *NotificationServer) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.group.Go(func() error {
			s.handleConn(conn)
			return nil
		})
	}
}

// handleConn reads one request, writes one response and closes. Errors
// are logged, never fatal: a broken client must not take the listener
// down.
func (s *NotificationServer) handleConn(conn net.Conn) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return
	}

	buf := make([]byte, maxRequestBytes)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return
	}

	response := s.handleRequest(string(buf[:n]))
	if _, err := conn.Write([]byte(response)); err != nil {
		log.Debug().Err(err).Msg("write notification response")
	}
}

func (s *NotificationServer) handleRequest(request string) string {
	requestLine, _, _ := strings.Cut(request, "\r\n")
	parts := strings.Split(requestLine, " ")
	if len(parts) < 2 {
		return httpResponse(400, "Bad Request", "")
	}
	method, path := parts[0], parts[1]

	switch {
	case method == "POST" && path == "/commit":
		commit, ok := parseCommitRequest(request)
		if !ok {
			return httpResponse(400, "Bad Request", "Invalid commit data")
		}
		if s.onCommit != nil {
			s.notifyCommit(commit)
		}
		return httpResponse(200, "OK", "")
	case method == "GET" && path == "/health":
		return httpResponse(200, "OK", "")
	default:
		return httpResponse(404, "Not Found", "")
	}
}

// notifyCommit hands the commit to the consumer, recovering panics so a
// misbehaving consumer cannot take the listener down.
func (s *NotificationServer) notifyCommit(commit QueuedCommit) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).
				Str("hash", commit.ShortHash()).
				Msg("commit handler panicked")
		}
	}()
	s.onCommit(commit)
}

// parseCommitRequest extracts commit fields from the request body, which
// may be JSON or url-encoded. A missing hash invalidates the request.
func parseCommitRequest(request string) (QueuedCommit, bool) {
	_, body, found := strings.Cut(request, "\r\n\r\n")
	if !found {
		return QueuedCommit{}, false
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return QueuedCommit{}, false
	}

	fields := map[string]string{}
	if strings.HasPrefix(body, "{") {
		var raw map[string]any
		if err := json.Unmarshal([]byte(body), &raw); err != nil {
			return QueuedCommit{}, false
		}
		for k, v := range raw {
			if s, ok := v.(string); ok {
				fields[k] = s
			}
		}
	} else {
		values, err := url.ParseQuery(body)
		if err != nil {
			return QueuedCommit{}, false
		}
		for k := range values {
			fields[k] = values.Get(k)
		}
	}

	hash := fields["hash"]
	if hash == "" {
		hash = fields["commit_hash"]
	}
	if hash == "" {
		return QueuedCommit{}, false
	}

	commit := QueuedCommit{
		CommitHash: hash,
		Project:    fields["project"],
		Branch:     fields["branch"],
		RepoPath:   fields["repo_path"],
		ReceivedAt: time.Now(),
	}
	if commit.Project == "" {
		commit.Project = "unknown"
	}
	if commit.Branch == "" {
		commit.Branch = "unknown"
	}
	return commit, true
}

func httpResponse(status int, statusText, body string) string {
	if body == "" {
		body = statusText
	}
	return fmt.Sprintf(
		"HTTP/1.1 %d %s\r\nContent-Type: text/plain\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		status, statusText, len(body), body,
	)
}
