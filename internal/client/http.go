package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pixel-admin/internal/model"
)

// HTTPClient talks to the pixel admin backend over its HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithToken sets a bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *HTTPClient) { c.token = token }
}

// WithTimeout bounds every request. Zero keeps the transport default (no timeout).
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// NewHTTPClient creates a client for the backend at baseURL
// (e.g. "http://localhost:4000").
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the backend URL the client targets.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// --- Pixels ---

func (c *HTTPClient) ListPixels(ctx context.Context) ([]model.Pixel, error) {
	var resp struct {
		Pixels []model.Pixel `json:"pixels"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/admin/pixels", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Pixels == nil {
		return []model.Pixel{}, nil
	}
	return resp.Pixels, nil
}

// BulkDelete asks the backend to soft-delete every id in one request.
func (c *HTTPClient) BulkDelete(ctx context.Context, ids []string) error {
	body := struct {
		PixelIDs []string `json:"pixelIds"`
	}{PixelIDs: ids}
	return c.doJSON(ctx, http.MethodPost, "/admin/pixels/delete", body, nil)
}

// ClientData is the export payload for one client. Raw holds the complete
// "data" object exactly as the backend sent it.
type ClientData struct {
	ClientName string
	Raw        json.RawMessage
}

func (c *HTTPClient) DownloadClientData(ctx context.Context, pixelID string) (*ClientData, error) {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, pixelPath(pixelID, "download"), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, fmt.Errorf("response has no data")
	}
	var head struct {
		ClientName string `json:"clientName"`
	}
	if err := json.Unmarshal(resp.Data, &head); err != nil {
		return nil, fmt.Errorf("decoding client data: %w", err)
	}
	return &ClientData{ClientName: head.ClientName, Raw: resp.Data}, nil
}

// DeleteFromSimpleAudience removes the pixel from the audience-tracking service.
func (c *HTTPClient) DeleteFromSimpleAudience(ctx context.Context, pixelID string) error {
	return c.doJSON(ctx, http.MethodPost, pixelPath(pixelID, "delete-from-simpleaudience"), nil, nil)
}

// DeleteFromDatabase purges the client's rows from the primary store.
func (c *HTTPClient) DeleteFromDatabase(ctx context.Context, pixelID string) error {
	return c.doJSON(ctx, http.MethodPost, pixelPath(pixelID, "delete-from-database"), nil, nil)
}

// --- Provisioning ---

type GenerateRequest struct {
	Client  string `json:"client"`
	Website string `json:"website"`
}

type GenerateResponse struct {
	PixelSnippet string `json:"pixelSnippet"`
	SheetURL     string `json:"sheetUrl,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (c *HTTPClient) GeneratePixel(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	var resp GenerateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/generate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func pixelPath(id, action string) string {
	return "/admin/pixels/" + url.PathEscape(id) + "/" + action
}

// --- internal helpers ---

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with an optional JSON body and decodes the
// JSON response into result. A nil result discards the body.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("backend request")

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Error != "" {
			return &APIError{StatusCode: status, Message: errResp.Error}
		}
		if errResp.Message != "" {
			return &APIError{StatusCode: status, Message: errResp.Message}
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return &APIError{StatusCode: status, Message: msg}
	}
	return &APIError{StatusCode: status, Message: http.StatusText(status)}
}
