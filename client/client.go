// client/client.go
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cerrors "cogit/internal/errors"
	shared "cogit/shared/types"
)

// Client talks to the read-only API served by `cogit serve`.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

func (c *Client) Health() (*shared.HealthResponse, error) {
	var result shared.HealthResponse
	if err := c.getJSON("/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Log() (*shared.LogResponse, error) {
	var result shared.LogResponse
	if err := c.getJSON("/api/log", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Status() (*shared.StatusResponse, error) {
	var result shared.StatusResponse
	if err := c.getJSON("/api/status", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Diff fetches the diff of path, or of every changed file when path is
// empty.
func (c *Client) Diff(path string) (*shared.DiffResponse, error) {
	target := "/api/diff"
	if path != "" {
		target += "?" + url.Values{"path": {path}}.Encode()
	}
	var result shared.DiffResponse
	if err := c.getJSON(target, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Object fetches the raw bytes of a stored object.
func (c *Client) Object(hash string) ([]byte, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/objects/" + url.PathEscape(hash))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) getJSON(path string, out interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError rebuilds the server's error so errors.Is matches the same
// sentinels on both sides.
func decodeError(resp *http.Response) error {
	var body shared.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Type == "" {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return &cerrors.Error{
		Type:    cerrors.ErrorType(body.Type),
		Message: body.Message,
	}
}
