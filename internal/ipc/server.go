package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/sparknova/internal/logging"
	"github.com/1broseidon/sparknova/internal/runtimepath"
	"github.com/1broseidon/sparknova/internal/search"
)

// Handler executes IPC commands against the running launcher.
type Handler interface {
	Toggle(ctx context.Context) error
	Show(ctx context.Context) error
	Hide(ctx context.Context) error
	Focus(ctx context.Context) error
	Search(ctx context.Context, query string) ([]search.Item, error)
	History(ctx context.Context) []string
	ClearHistory(ctx context.Context) error
	Status(ctx context.Context) StatusData
}

// requestTimeout bounds how long a client may take to send its request line.
const requestTimeout = 5 * time.Second

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	handler    Handler
	logger     *slog.Logger

	listener     net.Listener
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

// NewServer creates an IPC server on socketPath, or on the default runtime
// socket when socketPath is empty. A stale socket file is removed.
func NewServer(socketPath string, handler Handler, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	if logger == nil {
		logger = logging.Discard()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger,
		conns:      make(map[net.Conn]struct{}),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections. Requests run with a context
// derived from ctx that is canceled by Stop.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			shuttingDown := s.shuttingDown
			s.shutdownMu.Unlock()
			if shuttingDown {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		if !s.track(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConnection(conn)
		}()
	}
}

// track registers an open connection so Stop can close it. It reports false
// once shutdown has begun.
func (s *Server) track(conn net.Conn) bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	if s.shuttingDown {
		return false
	}
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}

func (s *Server) closeConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(requestTimeout)); err != nil {
		s.logger.Warn("failed to set IPC read deadline", "error", err)
	}
	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(s.ctx, req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)

	switch req.Command {
	case CommandToggle:
		return s.simple(s.handler.Toggle(ctx), "toggle")
	case CommandShow:
		return s.simple(s.handler.Show(ctx), "show")
	case CommandHide:
		return s.simple(s.handler.Hide(ctx), "hide")
	case CommandFocus:
		return s.simple(s.handler.Focus(ctx), "focus")
	case CommandSearch:
		return s.handleSearch(ctx, req.Payload)
	case CommandHistory:
		resp, _ := NewOKResponse(HistoryData{History: s.handler.History(ctx)})
		return resp
	case CommandClearHistory:
		return s.simple(s.handler.ClearHistory(ctx), "clear history")
	case CommandStatus:
		resp, _ := NewOKResponse(s.handler.Status(ctx))
		return resp
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) simple(err error, action string) *Response {
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to %s: %v", action, err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSearch(ctx context.Context, payload json.RawMessage) *Response {
	var req SearchPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid search payload: %v", err))
	}
	if strings.TrimSpace(req.Query) == "" {
		return NewErrorResponse("query is required")
	}

	results, err := s.handler.Search(ctx, req.Query)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Search failed: %v", err))
	}
	if results == nil {
		results = []search.Item{}
	}

	resp, err := NewOKResponse(SearchData{Query: req.Query, Results: results})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop shuts down the IPC server. Open connections are closed, so clients
// that never send a request do not hold up shutdown.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.closeConns()
	s.wg.Wait()
	os.Remove(s.socketPath)
}
