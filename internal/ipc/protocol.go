package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/sparknova/internal/search"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandToggle       CommandType = "TOGGLE"
	CommandShow         CommandType = "SHOW"
	CommandHide         CommandType = "HIDE"
	CommandFocus        CommandType = "FOCUS"
	CommandSearch       CommandType = "SEARCH"
	CommandHistory      CommandType = "HISTORY"
	CommandClearHistory CommandType = "CLEAR_HISTORY"
	CommandStatus       CommandType = "STATUS"
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

// SearchPayload is the payload of SEARCH.
type SearchPayload struct {
	Query string `json:"query"`
}

// SearchData is returned by SEARCH.
type SearchData struct {
	Query   string        `json:"query"`
	Results []search.Item `json:"results"`
}

// HistoryData is returned by HISTORY.
type HistoryData struct {
	History []string `json:"history"`
}

// StatusData represents the data returned by STATUS
type StatusData struct {
	UptimeSeconds int64  `json:"uptime_seconds"`
	Query         string `json:"query"`
	ResultCount   int    `json:"result_count"`
	HistoryLength int    `json:"history_length"`
	IsSearching   bool   `json:"is_searching"`
	Visible       bool   `json:"visible"`
	CatalogSize   int    `json:"catalog_size"`
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
