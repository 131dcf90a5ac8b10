package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/winkeep/internal/config"
	"github.com/1broseidon/winkeep/internal/keeper"
	"github.com/1broseidon/winkeep/internal/platform"
	"github.com/1broseidon/winkeep/internal/runtimepath"
	"github.com/1broseidon/winkeep/internal/winstate"
)

// Tracker reports the windows a daemon is keeping.
type Tracker interface {
	Tracked() []TrackedWindow
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	cfg          *config.Config
	keeper       *keeper.Keeper
	displays     keeper.DisplaySource
	tracker      Tracker
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on the default runtime socket path.
func NewServer(cfg *config.Config, k *keeper.Keeper, displays keeper.DisplaySource, tracker Tracker, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, cfg, k, displays, tracker, logger), nil
}

// NewServerAt creates a server listening on socketPath.
func NewServerAt(socketPath string, cfg *config.Config, k *keeper.Keeper, displays keeper.DisplaySource, tracker Tracker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		socketPath: socketPath,
		cfg:        cfg,
		keeper:     k,
		displays:   displays,
		tracker:    tracker,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// SocketPath returns the socket the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// A stale socket from a crashed daemon would make Listen fail.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

// Stop closes the listener and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
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

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	var resp *Response
	req, err := ParseRequest(data)
	if err != nil {
		resp = NewErrorResponse(fmt.Sprintf("Invalid request: %v", err))
	} else {
		resp = s.handleCommand(req)
	}

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetDisplays:
		return s.handleGetDisplays()
	case CommandGetState:
		return s.handleGetState(req.Payload)
	case CommandResolve:
		return s.handleResolve(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		Tracked:       []TrackedWindow{},
	}
	if s.tracker != nil {
		status.Tracked = append(status.Tracked, s.tracker.Tracked()...)
	}
	return okResponse(status)
}

func (s *Server) handleGetDisplays() *Response {
	if s.displays == nil {
		return NewErrorResponse("display enumeration is not available")
	}
	displays, err := s.displays.Displays()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get displays: %v", err))
	}
	if displays == nil {
		displays = []platform.Display{}
	}
	return okResponse(DisplaysData{Displays: displays})
}

func (s *Server) handleGetState(payload json.RawMessage) *Response {
	var req StatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid state payload: %v", err))
	}
	if req.Name == "" {
		return NewErrorResponse("name is required")
	}

	key := winstate.Key(req.Name)
	data := StateData{Name: req.Name, Key: key}
	if r, ok := s.keeper.Store().Lookup(key); ok {
		data.Found = true
		data.Rect = r
	}
	return okResponse(data)
}

func (s *Server) handleResolve(payload json.RawMessage) *Response {
	var req ResolvePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resolve payload: %v", err))
	}
	if req.Name == "" {
		return NewErrorResponse("name is required")
	}

	rule, _ := s.cfg.RuleFor(req.Name)
	size := rule.DefaultSize()
	if req.Width > 0 {
		size.Width = req.Width
	}
	if req.Height > 0 {
		size.Height = req.Height
	}

	return okResponse(ResolveData{
		Name:      req.Name,
		Placement: s.keeper.Restore(req.Name, size),
	})
}

func okResponse(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}
