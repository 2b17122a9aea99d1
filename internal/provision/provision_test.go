package provision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pixel-admin/internal/client"
)

func TestValidateClientName(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want error
	}{
		{"acme_co", nil},
		{"Acme123", nil},
		{"", ErrClientRequired},
		{"   ", ErrClientRequired},
		{"acme-co", ErrClientInvalid},
		{"acme co", ErrClientInvalid},
		{"acmé", ErrClientInvalid},
	} {
		if got := ValidateClientName(tc.in); !errors.Is(got, tc.want) {
			t.Errorf("ValidateClientName(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeWebsite(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"example.com", "https://example.com"},
		{"  example.com/path ", "https://example.com/path"},
		{"http://example.com", "http://example.com"},
		{"HTTPS://Example.com", "HTTPS://Example.com"},
		{"ftp://example.com", "https://ftp://example.com"},
	} {
		got, err := NormalizeWebsite(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("NormalizeWebsite(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
	if _, err := NormalizeWebsite(" "); !errors.Is(err, ErrWebsiteRequired) {
		t.Errorf("blank website err = %v", err)
	}
}

type fakeGenerator struct {
	got  *client.GenerateRequest
	resp *client.GenerateResponse
	err  error
}

func (f *fakeGenerator) GeneratePixel(_ context.Context, req *client.GenerateRequest) (*client.GenerateResponse, error) {
	f.got = req
	return f.resp, f.err
}

func TestRequest(t *testing.T) {
	g := &fakeGenerator{resp: &client.GenerateResponse{PixelSnippet: "<script/>", SheetURL: "https://sheets/x"}}
	res, err := Request(context.Background(), g, "acme", "acme.com")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if g.got.Client != "acme" || g.got.Website != "https://acme.com" {
		t.Errorf("sent %+v", g.got)
	}
	if res.PixelSnippet != "<script/>" || res.SheetURL != "https://sheets/x" {
		t.Errorf("result %+v", res)
	}
}

func TestRequest_Failures(t *testing.T) {
	g := &fakeGenerator{}
	if _, err := Request(context.Background(), g, "bad-name", "x.com"); !errors.Is(err, ErrClientInvalid) {
		t.Fatalf("err = %v", err)
	}
	if g.got != nil {
		t.Fatal("invalid input reached the backend")
	}

	g.resp = &client.GenerateResponse{Error: "sheet quota exceeded"}
	_, err := Request(context.Background(), g, "acme", "x.com")
	if err == nil || !strings.Contains(err.Error(), "sheet quota exceeded") {
		t.Fatalf("err = %v", err)
	}

	g.resp, g.err = nil, &client.APIError{StatusCode: 500, Message: "boom"}
	_, err = Request(context.Background(), g, "acme", "x.com")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Fatalf("err = %v", err)
	}
}
