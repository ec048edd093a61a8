package mcp

import "github.com/lainwm/lainwm/internal/ipc"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// ListMonitorsInput is the input for the list_monitors tool.
type ListMonitorsInput struct{}

// ListClientsInput is the input for the list_clients tool.
type ListClientsInput struct {
	Monitor *uint32 `json:"monitor,omitempty" jsonschema:"Only return clients assigned to this monitor id"`
}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput = ipc.StatusData

// ListMonitorsOutput is the output for the list_monitors tool.
type ListMonitorsOutput = ipc.MonitorsData

// ListClientsOutput is the output for the list_clients tool.
type ListClientsOutput = ipc.ClientsData
