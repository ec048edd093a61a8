package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/lainwm/lainwm/internal/wm"
)

// StateProvider supplies a consistent copy of the window manager state.
type StateProvider interface {
	Snapshot(ctx context.Context) (wm.Snapshot, error)
}

// Server answers read-only status queries over a Unix socket.
type Server struct {
	socketPath   string
	listener     net.Listener
	state        StateProvider
	logger       *slog.Logger
	timeout      time.Duration
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer creates a new IPC server bound to socketPath. A stale socket
// file left by a previous run is removed.
func NewServer(socketPath string, state StateProvider, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		return nil, errors.New("IPC socket path is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		state:      state,
		logger:     logger,
		timeout:    2 * time.Second,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Debug("failed to send IPC response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.withSnapshot(s.statusData)
	case CommandGetMonitors:
		return s.withSnapshot(func(snap wm.Snapshot) interface{} { return MonitorsFromSnapshot(snap) })
	case CommandGetClients:
		return s.withSnapshot(func(snap wm.Snapshot) interface{} { return ClientsFromSnapshot(snap) })
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) withSnapshot(build func(wm.Snapshot) interface{}) *Response {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	snap, err := s.state.Snapshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to read state: %v", err))
	}
	resp, err := NewOKResponse(build(snap))
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) statusData(snap wm.Snapshot) interface{} {
	status := StatusFromSnapshot(snap)
	status.UptimeSeconds = int64(time.Since(s.startTime).Seconds())
	return status
}

// StatusFromSnapshot summarizes a snapshot. UptimeSeconds is left zero.
func StatusFromSnapshot(snap wm.Snapshot) StatusData {
	return StatusData{
		MonitorCount:     len(snap.Monitors),
		ClientCount:      len(snap.Clients),
		CurrentMonitor:   uint32(snap.CurrentMonitor),
		FocusedWindow:    uint32(snap.Focused),
		InteractionPhase: snap.Interaction.Phase.String(),
		InteractionWin:   uint32(snap.Interaction.Window),
		DaemonRunning:    true,
	}
}

// MonitorsFromSnapshot converts monitors in discovery order.
func MonitorsFromSnapshot(snap wm.Snapshot) MonitorsData {
	infos := make([]MonitorInfo, len(snap.Monitors))
	for i, m := range snap.Monitors {
		infos[i] = MonitorInfo{
			ID:      uint32(m.ID),
			Name:    m.Name,
			X:       m.Bounds.X,
			Y:       m.Bounds.Y,
			Width:   m.Bounds.Width,
			Height:  m.Bounds.Height,
			Current: m.ID == snap.CurrentMonitor,
		}
	}
	return MonitorsData{Monitors: infos}
}

// ClientsFromSnapshot converts clients in window id order.
func ClientsFromSnapshot(snap wm.Snapshot) ClientsData {
	infos := make([]ClientInfo, len(snap.Clients))
	for i, c := range snap.Clients {
		infos[i] = ClientInfo{
			ID:      uint32(c.ID),
			Name:    c.Name,
			X:       c.Geometry.X,
			Y:       c.Geometry.Y,
			Width:   c.Geometry.Width,
			Height:  c.Geometry.Height,
			Monitor: uint32(c.Monitor),
			Flags:   c.Flags.String(),
			Focused: c.ID == snap.Focused,
		}
	}
	return ClientsData{Clients: infos}
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop closes the listener, waits for in-flight requests and removes the
// socket file.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}
