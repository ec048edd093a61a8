package mcp

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lainwm/lainwm/internal/ipc"
)

type fakeSource struct {
	status   ipc.StatusData
	monitors ipc.MonitorsData
	clients  ipc.ClientsData
	err      error
}

func (f *fakeSource) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := f.status
	return &s, nil
}

func (f *fakeSource) GetMonitors() (*ipc.MonitorsData, error) {
	if f.err != nil {
		return nil, f.err
	}
	m := f.monitors
	return &m, nil
}

func (f *fakeSource) GetClients() (*ipc.ClientsData, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := f.clients
	return &c, nil
}

func sampleSource() *fakeSource {
	return &fakeSource{
		status: ipc.StatusData{MonitorCount: 2, ClientCount: 3, CurrentMonitor: 2, FocusedWindow: 12, InteractionPhase: "idle", DaemonRunning: true},
		monitors: ipc.MonitorsData{Monitors: []ipc.MonitorInfo{
			{ID: 1, Name: "DP-1", Width: 1920, Height: 1080},
			{ID: 2, Name: "HDMI-1", X: 1920, Width: 1280, Height: 1024, Current: true},
		}},
		clients: ipc.ClientsData{Clients: []ipc.ClientInfo{
			{ID: 10, Monitor: 1, Flags: "none"},
			{ID: 11, Monitor: 2, Flags: "sticky"},
			{ID: 12, Monitor: 2, Flags: "none", Focused: true},
		}},
	}
}

func u32(v uint32) *uint32 { return &v }

func TestHandleListClients(t *testing.T) {
	tests := []struct {
		name    string
		monitor *uint32
		want    []uint32
	}{
		{name: "all clients", want: []uint32{10, 11, 12}},
		{name: "filtered by monitor", monitor: u32(2), want: []uint32{11, 12}},
		{name: "unknown monitor", monitor: u32(9), want: []uint32{}},
	}

	s := NewServer(sampleSource())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := s.handleListClients(context.Background(), nil, ListClientsInput{Monitor: tt.monitor})
			if err != nil {
				t.Fatalf("handleListClients: %v", err)
			}
			got := []uint32{}
			for _, c := range out.Clients {
				got = append(got, c.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ids = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestHandlersPropagateErrors(t *testing.T) {
	s := NewServer(&fakeSource{err: errors.New("failed to connect to daemon")})
	ctx := context.Background()

	if _, _, err := s.handleGetStatus(ctx, nil, GetStatusInput{}); err == nil || !strings.Contains(err.Error(), "get status") {
		t.Fatalf("handleGetStatus error = %v", err)
	}
	if _, _, err := s.handleListMonitors(ctx, nil, ListMonitorsInput{}); err == nil || !strings.Contains(err.Error(), "list monitors") {
		t.Fatalf("handleListMonitors error = %v", err)
	}
	if _, _, err := s.handleListClients(ctx, nil, ListClientsInput{}); err == nil || !strings.Contains(err.Error(), "list clients") {
		t.Fatalf("handleListClients error = %v", err)
	}
}

func TestHandleStatusAndMonitors(t *testing.T) {
	s := NewServer(sampleSource())
	ctx := context.Background()

	_, status, err := s.handleGetStatus(ctx, nil, GetStatusInput{})
	if err != nil {
		t.Fatalf("handleGetStatus: %v", err)
	}
	if status.ClientCount != 3 || status.FocusedWindow != 12 || !status.DaemonRunning {
		t.Fatalf("status = %+v", status)
	}

	_, monitors, err := s.handleListMonitors(ctx, nil, ListMonitorsInput{})
	if err != nil {
		t.Fatalf("handleListMonitors: %v", err)
	}
	if len(monitors.Monitors) != 2 || !monitors.Monitors[1].Current {
		t.Fatalf("monitors = %+v", monitors.Monitors)
	}

	_, empty, err := NewServer(&fakeSource{}).handleListMonitors(ctx, nil, ListMonitorsInput{})
	if err != nil {
		t.Fatalf("handleListMonitors: %v", err)
	}
	if empty.Monitors == nil {
		t.Fatalf("expected empty, non-nil monitor list")
	}
}

func TestToolsAreRegistered(t *testing.T) {
	ctx := context.Background()
	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()

	s := NewServer(sampleSource())
	serverSession, err := s.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	c := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "0"}, nil)
	session, err := c.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	res, err := session.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{"get_status", "list_clients", "list_monitors"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("tools = %v, want %v", names, want)
	}

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: "get_status", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.IsError {
		t.Fatalf("get_status returned a tool error: %+v", result.Content)
	}
}
