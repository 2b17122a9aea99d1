// Package provision validates and submits new pixel requests.
package provision

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"pixel-admin/internal/client"
)

var (
	ErrClientRequired  = errors.New("client name is required")
	ErrClientInvalid   = errors.New("client name can only contain letters, numbers, and underscores (no hyphens)")
	ErrWebsiteRequired = errors.New("website URL is required")
)

var clientNameRe = regexp.MustCompile(`^[_a-zA-Z0-9]+$`)

// Generator is implemented by client.HTTPClient.
type Generator interface {
	GeneratePixel(ctx context.Context, req *client.GenerateRequest) (*client.GenerateResponse, error)
}

// Result is a provisioned pixel.
type Result struct {
	Client       string `json:"client"`
	Website      string `json:"website"`
	PixelSnippet string `json:"pixelSnippet"`
	SheetURL     string `json:"sheetUrl,omitempty"`
}

func ValidateClientName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrClientRequired
	}
	if !clientNameRe.MatchString(name) {
		return ErrClientInvalid
	}
	return nil
}

// NormalizeWebsite trims raw and adds https:// unless it already carries an
// http or https scheme. Other input is left as entered.
func NormalizeWebsite(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrWebsiteRequired
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}
	return s, nil
}

// Request validates the input and asks the backend to generate a pixel.
func Request(ctx context.Context, g Generator, clientName, website string) (*Result, error) {
	if err := ValidateClientName(clientName); err != nil {
		return nil, err
	}
	site, err := NormalizeWebsite(website)
	if err != nil {
		return nil, err
	}

	resp, err := g.GeneratePixel(ctx, &client.GenerateRequest{Client: clientName, Website: site})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pixel: %w", err)
	}
	if resp.PixelSnippet == "" {
		msg := resp.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("failed to generate pixel: %s", msg)
	}
	log.Info().Str("client", clientName).Str("website", site).Msg("pixel generated")
	return &Result{
		Client:       clientName,
		Website:      site,
		PixelSnippet: resp.PixelSnippet,
		SheetURL:     resp.SheetURL,
	}, nil
}
