// Package mcp exposes read-only window manager state to MCP clients.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lainwm/lainwm/internal/ipc"
)

const (
	ServerName    = "lainwm"
	ServerVersion = "0.1.0"
)

// StatusSource answers status queries. *ipc.Client implements it.
type StatusSource interface {
	GetStatus() (*ipc.StatusData, error)
	GetMonitors() (*ipc.MonitorsData, error)
	GetClients() (*ipc.ClientsData, error)
}

// Server is the MCP server for lainwm status queries.
type Server struct {
	mcpServer *mcpsdk.Server
	source    StatusSource
}

// NewServer creates a new MCP server backed by source.
func NewServer(source StatusSource) *Server {
	s := &Server{source: source}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session over an arbitrary transport.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report whether the lainwm daemon is running, how many monitors and clients it tracks, the current monitor, the focused window and the active move/resize interaction.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List monitors in discovery order with their geometry. The monitor that receives new windows is marked current.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_clients",
		Description: "List managed windows with geometry, monitor assignment and state flags. Optionally filter by monitor id.",
	}, s.handleListClients)
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.source.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, fmt.Errorf("get status: %w", err)
	}
	return nil, *status, nil
}

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListMonitorsInput) (*mcpsdk.CallToolResult, ListMonitorsOutput, error) {
	monitors, err := s.source.GetMonitors()
	if err != nil {
		return nil, ListMonitorsOutput{}, fmt.Errorf("list monitors: %w", err)
	}
	if monitors.Monitors == nil {
		monitors.Monitors = []ipc.MonitorInfo{}
	}
	return nil, *monitors, nil
}

func (s *Server) handleListClients(_ context.Context, _ *mcpsdk.CallToolRequest, args ListClientsInput) (*mcpsdk.CallToolResult, ListClientsOutput, error) {
	clients, err := s.source.GetClients()
	if err != nil {
		return nil, ListClientsOutput{}, fmt.Errorf("list clients: %w", err)
	}

	out := ListClientsOutput{Clients: []ipc.ClientInfo{}}
	for _, c := range clients.Clients {
		if args.Monitor != nil && c.Monitor != *args.Monitor {
			continue
		}
		out.Clients = append(out.Clients, c)
	}
	return nil, out, nil
}
