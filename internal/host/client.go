// Package host is the typed client for the native host process that owns
// file dialogs, file I/O and LaTeX compilation. Every method is a one-shot
// request/response call; the host reports dialog cancellation as a JSON
// null body, which surfaces here as a nil result rather than an error.
package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// checkResp reads the response body and returns an error if the status is not 2xx.
// On error it includes the upstream body for debugging.
func checkResp(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("host %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
}

// Client calls the host process over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: &http.Client{}}
}

// OpenFile calls POST /api/file/open. The host shows its native open dialog;
// a nil FileInfo means the user cancelled.
func (c *Client) OpenFile(ctx context.Context) (*FileInfo, error) {
	resp, err := c.post(ctx, "/api/file/open", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "/api/file/open"); err != nil {
		return nil, err
	}

	var info *FileInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("host /api/file/open: decode: %w", err)
	}
	return info, nil
}

// SaveFile calls POST /api/file/save, writing content to the current file.
func (c *Client) SaveFile(ctx context.Context, content string) error {
	body, _ := json.Marshal(map[string]string{"content": content})
	resp, err := c.post(ctx, "/api/file/save", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkResp(resp, "/api/file/save")
}

// SaveFileAs calls POST /api/file/save-as. The host shows its save dialog;
// a nil FileInfo means the user cancelled and nothing was written.
func (c *Client) SaveFileAs(ctx context.Context, content string) (*FileInfo, error) {
	body, _ := json.Marshal(map[string]string{"content": content})
	resp, err := c.post(ctx, "/api/file/save-as", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "/api/file/save-as"); err != nil {
		return nil, err
	}

	var info *FileInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("host /api/file/save-as: decode: %w", err)
	}
	return info, nil
}

// InitWorkspace calls POST /api/workspace/init and returns the workspace root.
func (c *Client) InitWorkspace(ctx context.Context) (string, error) {
	resp, err := c.post(ctx, "/api/workspace/init", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "/api/workspace/init"); err != nil {
		return "", err
	}

	var result struct {
		Root string `json:"root"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("host /api/workspace/init: decode: %w", err)
	}
	return result.Root, nil
}

// Compile calls POST /api/build/compile. The host compiles the last-saved
// document; compiler failure is reported inside BuildResult, not as an error.
func (c *Client) Compile(ctx context.Context) (*BuildResult, error) {
	resp, err := c.post(ctx, "/api/build/compile", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "/api/build/compile"); err != nil {
		return nil, err
	}

	var result BuildResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("host /api/build/compile: decode: %w", err)
	}
	return &result, nil
}

// CheckRequirements calls GET /api/system/requirements.
func (c *Client) CheckRequirements(ctx context.Context) (*RequirementsStatus, error) {
	resp, err := c.get(ctx, "/api/system/requirements")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "/api/system/requirements"); err != nil {
		return nil, err
	}

	var status RequirementsStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("host /api/system/requirements: decode: %w", err)
	}
	return &status, nil
}

// DebugInfo calls GET /api/system/debug and returns free-form diagnostic text.
func (c *Client) DebugInfo(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, "/api/system/debug")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "/api/system/debug"); err != nil {
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("host /api/system/debug: read: %w", err)
	}
	return string(body), nil
}

// ReadPDFDataURL calls POST /api/file/read-pdf and returns the artifact as a
// base64 data URL the preview pane can embed directly.
func (c *Client) ReadPDFDataURL(ctx context.Context, path string) (string, error) {
	body, _ := json.Marshal(map[string]string{"path": path})
	resp, err := c.post(ctx, "/api/file/read-pdf", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkResp(resp, "/api/file/read-pdf"); err != nil {
		return "", err
	}

	var result struct {
		DataURL string `json:"data_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("host /api/file/read-pdf: decode: %w", err)
	}
	return result.DataURL, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", path, err)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", path, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", path, err)
	}
	return resp, nil
}
