package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/winkeep/internal/placement"
	"github.com/1broseidon/winkeep/internal/platform"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandGetDisplays CommandType = "GET_DISPLAYS"
	CommandGetState    CommandType = "GET_STATE"
	CommandResolve     CommandType = "RESOLVE"
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

// TrackedWindow is a window the daemon currently keeps.
type TrackedWindow struct {
	Name     string        `json:"name"`
	WindowID uint32        `json:"window_id"`
	Rect     platform.Rect `json:"rect"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	UptimeSeconds int64           `json:"uptime_seconds"`
	DaemonRunning bool            `json:"daemon_running"`
	Tracked       []TrackedWindow `json:"tracked"`
}

// DisplaysData represents the data returned by GET_DISPLAYS
type DisplaysData struct {
	Displays []platform.Display `json:"displays"`
}

// StatePayload names the window for GET_STATE.
type StatePayload struct {
	Name string `json:"name"`
}

// StateData is the stored geometry of one window.
type StateData struct {
	Name  string        `json:"name"`
	Key   string        `json:"key"`
	Found bool          `json:"found"`
	Rect  platform.Rect `json:"rect,omitempty"`
}

// ResolvePayload asks where a window would open right now. Zero sizes use
// the configured default for the window.
type ResolvePayload struct {
	Name   string `json:"name"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ResolveData is the placement computed for RESOLVE.
type ResolveData struct {
	Name      string              `json:"name"`
	Placement placement.Placement `json:"placement"`
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
