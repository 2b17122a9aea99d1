package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	method      string
	path        string
	rawPath     string
	body        string
	contentType string
	auth        string

	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.rawPath = r.URL.RawPath
	h.contentType = r.Header.Get("Content-Type")
	h.auth = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

func newTestClient(h http.Handler, opts ...Option) (*HTTPClient, *httptest.Server) {
	srv := httptest.NewServer(h)
	return NewHTTPClient(srv.URL+"/", opts...), srv
}

func TestHTTPClient_ListPixels(t *testing.T) {
	h := &testHandler{responseBody: `{"pixels":[
		{"id":"p1","clientName":"acme","website":"https://acme.com","createdAt":"2024-01-02T03:04:05Z","industry":"retail","eventCount":10,"visitorCount":4},
		{"id":"p2","clientName":"globex","website":"globex.io","createdAt":"2024-02-01T00:00:00Z","eventCount":0,"visitorCount":0,"sheetUrl":"https://sheets/x","deletionScheduled":"2024-03-01T00:00:00Z"}
	]}`}
	c, srv := newTestClient(h, WithToken("secret"))
	defer srv.Close()

	pixels, err := c.ListPixels(context.Background())
	if err != nil {
		t.Fatalf("ListPixels() error = %v", err)
	}
	if h.method != http.MethodGet || h.path != "/admin/pixels" {
		t.Errorf("request = %s %s, want GET /admin/pixels", h.method, h.path)
	}
	if h.auth != "Bearer secret" {
		t.Errorf("authorization = %q", h.auth)
	}
	if len(pixels) != 2 {
		t.Fatalf("got %d pixels, want 2", len(pixels))
	}
	if pixels[0].ClientName != "acme" || pixels[0].EventCount != 10 || pixels[0].Industry != "retail" {
		t.Errorf("pixel[0] = %+v", pixels[0])
	}
	if pixels[1].SheetURL != "https://sheets/x" || !pixels[1].ScheduledForDeletion() {
		t.Errorf("pixel[1] = %+v", pixels[1])
	}
}

func TestHTTPClient_ListPixels_MissingField(t *testing.T) {
	h := &testHandler{responseBody: `{}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	pixels, err := c.ListPixels(context.Background())
	if err != nil {
		t.Fatalf("ListPixels() error = %v", err)
	}
	if pixels == nil || len(pixels) != 0 {
		t.Fatalf("pixels = %v, want empty non-nil slice", pixels)
	}
}

func TestHTTPClient_BulkDelete(t *testing.T) {
	h := &testHandler{}
	c, srv := newTestClient(h)
	defer srv.Close()

	if err := c.BulkDelete(context.Background(), []string{"p1", "p2"}); err != nil {
		t.Fatalf("BulkDelete() error = %v", err)
	}
	if h.method != http.MethodPost || h.path != "/admin/pixels/delete" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.contentType != "application/json" {
		t.Errorf("content-type = %q", h.contentType)
	}
	var body struct {
		PixelIDs []string `json:"pixelIds"`
	}
	if err := json.Unmarshal([]byte(h.body), &body); err != nil {
		t.Fatalf("unmarshaling request body: %v", err)
	}
	if len(body.PixelIDs) != 2 || body.PixelIDs[0] != "p1" || body.PixelIDs[1] != "p2" {
		t.Errorf("pixelIds = %v", body.PixelIDs)
	}
}

func TestHTTPClient_DownloadClientData(t *testing.T) {
	h := &testHandler{responseBody: `{"data":{"clientName":"acme","visitors":[{"uuid":"v1"}]}}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	data, err := c.DownloadClientData(context.Background(), "acme/1")
	if err != nil {
		t.Fatalf("DownloadClientData() error = %v", err)
	}
	if h.rawPath != "/admin/pixels/acme%2F1/download" {
		t.Errorf("raw path = %q, want escaped id", h.rawPath)
	}
	if data.ClientName != "acme" {
		t.Errorf("ClientName = %q", data.ClientName)
	}
	var raw map[string]any
	if err := json.Unmarshal(data.Raw, &raw); err != nil {
		t.Fatalf("raw payload: %v", err)
	}
	if _, ok := raw["visitors"]; !ok {
		t.Errorf("raw payload lost fields: %s", data.Raw)
	}
}

func TestHTTPClient_DownloadClientData_NoData(t *testing.T) {
	h := &testHandler{responseBody: `{"data":null}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	if _, err := c.DownloadClientData(context.Background(), "p1"); err == nil {
		t.Fatal("expected error for null data")
	}
}

func TestHTTPClient_DeleteSteps(t *testing.T) {
	h := &testHandler{}
	c, srv := newTestClient(h)
	defer srv.Close()

	if err := c.DeleteFromSimpleAudience(context.Background(), "p1"); err != nil {
		t.Fatalf("DeleteFromSimpleAudience() error = %v", err)
	}
	if h.method != http.MethodPost || h.path != "/admin/pixels/p1/delete-from-simpleaudience" {
		t.Errorf("request = %s %s", h.method, h.path)
	}

	if err := c.DeleteFromDatabase(context.Background(), "p1"); err != nil {
		t.Fatalf("DeleteFromDatabase() error = %v", err)
	}
	if h.method != http.MethodPost || h.path != "/admin/pixels/p1/delete-from-database" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
}

func TestHTTPClient_NoContent(t *testing.T) {
	h := &testHandler{statusCode: http.StatusNoContent}
	c, srv := newTestClient(h)
	defer srv.Close()

	if err := c.DeleteFromDatabase(context.Background(), "p1"); err != nil {
		t.Fatalf("204 should succeed, got %v", err)
	}
}

func TestHTTPClient_APIError(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", 500, `{"error":"upstream down"}`, "upstream down"},
		{"message field", 404, `{"message":"pixel not found"}`, "pixel not found"},
		{"plain body", 502, `bad gateway`, "bad gateway"},
		{"empty body", 503, ``, "Service Unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &testHandler{statusCode: tc.status, responseBody: tc.body}
			c, srv := newTestClient(h)
			defer srv.Close()

			err := c.DeleteFromSimpleAudience(context.Background(), "p1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tc.status || apiErr.Message != tc.want {
				t.Errorf("APIError = %+v, want %d %q", apiErr, tc.status, tc.want)
			}
		})
	}
}

func TestHTTPClient_GeneratePixel(t *testing.T) {
	h := &testHandler{responseBody: `{"pixelSnippet":"<script>x</script>","sheetUrl":"https://docs/s"}`}
	c, srv := newTestClient(h)
	defer srv.Close()

	resp, err := c.GeneratePixel(context.Background(), &GenerateRequest{Client: "acme", Website: "https://acme.com"})
	if err != nil {
		t.Fatalf("GeneratePixel() error = %v", err)
	}
	if h.path != "/generate" || h.method != http.MethodPost {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.body != `{"client":"acme","website":"https://acme.com"}` {
		t.Errorf("body = %s", h.body)
	}
	if resp.PixelSnippet != "<script>x</script>" || resp.SheetURL != "https://docs/s" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewHTTPClient(srv.URL, WithTimeout(50*time.Millisecond))
	if _, err := c.ListPixels(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}
