package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/sparknova/internal/runtimepath"
	"github.com/1broseidon/sparknova/internal/search"
)

// Client handles IPC communication with the running launcher
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default runtime socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for socketPath.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// SetTimeout changes the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to launcher: %w (is sparknova running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("launcher error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) command(cmd CommandType) error {
	_, err := c.sendRequest(&Request{Command: cmd})
	return err
}

// Toggle shows or hides the launcher window.
func (c *Client) Toggle() error { return c.command(CommandToggle) }

// Show shows the launcher window.
func (c *Client) Show() error { return c.command(CommandShow) }

// Hide hides the launcher window.
func (c *Client) Hide() error { return c.command(CommandHide) }

// Focus asks the launcher to focus its search input.
func (c *Client) Focus() error { return c.command(CommandFocus) }

// ClearHistory empties the query history.
func (c *Client) ClearHistory() error { return c.command(CommandClearHistory) }

// Search runs query in the launcher's store and returns the results.
func (c *Client) Search(query string) (*SearchData, error) {
	payload, err := json.Marshal(SearchPayload{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandSearch, Payload: payload})
	if err != nil {
		return nil, err
	}

	var data SearchData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse search data: %w", err)
	}
	if data.Results == nil {
		data.Results = []search.Item{}
	}
	return &data, nil
}

// History returns the query history, most recent first.
func (c *Client) History() ([]string, error) {
	resp, err := c.sendRequest(&Request{Command: CommandHistory})
	if err != nil {
		return nil, err
	}

	var data HistoryData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse history data: %w", err)
	}
	return data.History, nil
}

// GetStatus retrieves launcher status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// Ping checks if the launcher is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
