package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client talks to the docqa HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL, e.g. http://127.0.0.1:8000.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

// DebugInfo mirrors the server's per-question retrieval detail.
type DebugInfo struct {
	TotalRetrieved int      `json:"total_retrieved"`
	RelevantCount  int      `json:"relevant_count"`
	ChunkScores    []string `json:"chunk_scores"`
	RoundsUsed     int      `json:"rounds_used"`
}

// ChatResponse is the answer to one question.
type ChatResponse struct {
	Answer    string     `json:"answer"`
	DebugInfo *DebugInfo `json:"debug_info,omitempty"`
}

// UploadResponse describes a processed upload.
type UploadResponse struct {
	Message         string `json:"message"`
	PassagesCreated int    `json:"passages_created"`
	Summary         string `json:"summary"`
}

// Upload sends the file at path to the server, replacing any previously
// uploaded document.
func (c *Client) Upload(path string) (UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadResponse{}, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return UploadResponse{}, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return UploadResponse{}, err
	}
	if err := mw.Close(); err != nil {
		return UploadResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return UploadResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out UploadResponse
	if err := c.do(req, &out); err != nil {
		return UploadResponse{}, err
	}
	return out, nil
}

// Ask submits one question.
func (c *Client) Ask(question string, debug bool) (ChatResponse, error) {
	body, err := json.Marshal(map[string]any{"question": question, "debug": debug})
	if err != nil {
		return ChatResponse{}, err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return ChatResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out ChatResponse
	if err := c.do(req, &out); err != nil {
		return ChatResponse{}, err
	}
	return out, nil
}

// Health reports whether the server has an index ready.
func (c *Client) Health() (bool, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false, err
	}
	var out struct {
		IndexReady bool `json:"index_ready"`
	}
	if err := c.do(req, &out); err != nil {
		return false, err
	}
	return out.IndexReady, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Message)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
