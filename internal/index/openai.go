// Package index talks to the remote index-store service: per-course
// searchable document collections that uploaded documents are attached
// to.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"csync-go/internal/csync"
)

const defaultBaseURL = "https://api.openai.com"

// APIError is a non-success response from the index service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("index service returned %d: %s", e.StatusCode, e.Body)
}

// OpenAIClient implements IndexStore against the OpenAI vector-store
// API, or any compatible endpoint via a custom base URL.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewOpenAIClient creates a client for the given endpoint. An empty
// baseURL selects the public API.
func NewOpenAIClient(baseURL, apiKey string) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// Document uploads carry whole files; give them room.
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

// CreateStore creates a named index store and returns its id.
func (c *OpenAIClient) CreateStore(ctx context.Context, name string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/vector_stores", map[string]any{"name": name}, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("create store response missing id")
	}
	return out.ID, nil
}

// ListStores enumerates existing stores, following the service's
// cursor pagination.
func (c *OpenAIClient) ListStores(ctx context.Context) ([]csync.StoreInfo, error) {
	var stores []csync.StoreInfo
	after := ""
	for {
		path := "/v1/vector_stores?limit=100"
		if after != "" {
			path += "&after=" + url.QueryEscape(after)
		}

		var out struct {
			Data []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"data"`
			HasMore bool   `json:"has_more"`
			LastID  string `json:"last_id"`
		}
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
			return nil, err
		}
		for _, s := range out.Data {
			stores = append(stores, csync.StoreInfo{ID: s.ID, Name: s.Name})
		}
		if !out.HasMore || out.LastID == "" {
			return stores, nil
		}
		after = out.LastID
	}
}

// UploadDocument streams a document to the service and returns its id.
// The multipart body is generated on the fly, so document size is not
// bounded by memory.
func (c *OpenAIClient) UploadDocument(ctx context.Context, filename string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		var err error
		defer func() { pw.CloseWithError(err) }()

		if err = writer.WriteField("purpose", "assistants"); err != nil {
			return
		}
		var part io.Writer
		if part, err = writer.CreateFormFile("file", filename); err != nil {
			return
		}
		if _, err = io.Copy(part, r); err != nil {
			return
		}
		err = writer.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/files", pr)
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", filename, err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return "", fmt.Errorf("reading upload response: %w", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decoding upload response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("upload response missing id")
	}
	return out.ID, nil
}

// AttachDocument attaches an uploaded document to a store.
func (c *OpenAIClient) AttachDocument(ctx context.Context, storeID, documentID string) error {
	path := "/v1/vector_stores/" + url.PathEscape(storeID) + "/files"
	return c.doJSON(ctx, http.MethodPost, path, map[string]any{"file_id": documentID}, nil)
}

// doJSON performs one JSON request. Non-success statuses surface as
// *APIError carrying the response body.
func (c *OpenAIClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	raw, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response: %w", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Compile-time check that OpenAIClient implements csync.IndexStore
var _ csync.IndexStore = (*OpenAIClient)(nil)
