package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandGetMonitors CommandType = "GET_MONITORS"
	CommandGetClients  CommandType = "GET_CLIENTS"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	MonitorCount     int    `json:"monitor_count"`
	ClientCount      int    `json:"client_count"`
	CurrentMonitor   uint32 `json:"current_monitor"`
	FocusedWindow    uint32 `json:"focused_window"`
	InteractionPhase string `json:"interaction_phase"`
	InteractionWin   uint32 `json:"interaction_window,omitempty"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	DaemonRunning    bool   `json:"daemon_running"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID      uint32 `json:"id"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Current bool   `json:"current"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// ClientInfo describes one managed window.
type ClientInfo struct {
	ID      uint32 `json:"id"`
	Name    string `json:"name,omitempty"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Monitor uint32 `json:"monitor"`
	Flags   string `json:"flags"`
	Focused bool   `json:"focused"`
}

// ClientsData represents the data returned by GET_CLIENTS
type ClientsData struct {
	Clients []ClientInfo `json:"clients"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
