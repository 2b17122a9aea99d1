package model

import (
	"strings"
	"time"
)

// Pixel is one provisioned tracking pixel as reported by the admin backend.
type Pixel struct {
	ID                string `json:"id"`
	ClientName        string `json:"clientName"`
	Website           string `json:"website"`
	SheetURL          string `json:"sheetUrl,omitempty"`
	CreatedAt         string `json:"createdAt"`
	Industry          string `json:"industry,omitempty"`
	EventCount        int64  `json:"eventCount"`
	VisitorCount      int64  `json:"visitorCount"`
	DeletionScheduled string `json:"deletionScheduled,omitempty"`
}

var createdLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Created parses CreatedAt. Values that match none of the accepted ISO 8601
// forms yield the zero time.
func (p Pixel) Created() time.Time {
	s := strings.TrimSpace(p.CreatedAt)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// IndustryLabel returns the industry or "Uncategorized".
func (p Pixel) IndustryLabel() string {
	if p.Industry == "" {
		return "Uncategorized"
	}
	return p.Industry
}

// ScheduledForDeletion reports whether a soft delete is pending server-side.
func (p Pixel) ScheduledForDeletion() bool {
	return p.DeletionScheduled != ""
}
