// SPDX-License-Identifier: GPL-3.0-only

package ipc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// ErrResponse is returned when the daemon answers with an error line.
var ErrResponse = errors.New("daemon returned an error")

// Client issues one request per connection to a running daemon.
type Client struct {
	path    string
	timeout time.Duration
}

// NewClient creates a client for the socket at path.
func NewClient(path string) *Client {
	return &Client{path: path, timeout: connTimeout}
}

// Do sends request and returns the response line without its trailing newline.
func (c *Client) Do(request string) (string, error) {
	conn, err := net.DialTimeout("unix", c.path, c.timeout)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", c.path, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", fmt.Errorf("failed to set deadline: %w", err)
	}

	if _, err := io.WriteString(conn, request+"\n"); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(conn, maxRequestSize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return strings.TrimRight(string(data), "\r\n"), nil
}

// Get returns the value of key.
func (c *Client) Get(key string) (string, error) {
	resp, err := c.Do(VerbGet + " " + key)
	if err != nil {
		return "", err
	}
	if IsError(resp) {
		return "", responseError(resp)
	}
	return resp, nil
}

// Set changes key to value.
func (c *Client) Set(key, value string) error {
	return c.expect(VerbSet+" "+key+" "+value, ResponseOK)
}

// Persist asks the daemon to save its configuration.
func (c *Client) Persist() error {
	return c.expect(VerbPersist, ResponseSaved)
}

func (c *Client) expect(request, want string) error {
	resp, err := c.Do(request)
	if err != nil {
		return err
	}
	if resp != want {
		return responseError(resp)
	}
	return nil
}

func responseError(resp string) error {
	return fmt.Errorf("%w: %s", ErrResponse, strings.TrimPrefix(resp, errorPrefix))
}
