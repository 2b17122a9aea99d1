package model

import (
	"testing"
	"time"
)

func TestPixel_Created(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-05T10:20:30Z", time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{"2024-03-05T10:20:30.250Z", time.Date(2024, 3, 5, 10, 20, 30, 250000000, time.UTC)},
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-03-05 01:02:03", time.Date(2024, 3, 5, 1, 2, 3, 0, time.UTC)},
		{"not a date", time.Time{}},
		{"", time.Time{}},
	}
	for _, c := range cases {
		got := Pixel{CreatedAt: c.in}.Created()
		if !got.Equal(c.want) {
			t.Fatalf("Created(%q) = %v; want %v", c.in, got, c.want)
		}
	}
}

func TestPixel_Labels(t *testing.T) {
	p := Pixel{}
	if p.IndustryLabel() != "Uncategorized" {
		t.Fatalf("IndustryLabel() = %q", p.IndustryLabel())
	}
	if p.ScheduledForDeletion() {
		t.Fatal("empty record should not be scheduled for deletion")
	}
	p.Industry = "retail"
	p.DeletionScheduled = "2024-04-01T00:00:00Z"
	if p.IndustryLabel() != "retail" || !p.ScheduledForDeletion() {
		t.Fatalf("unexpected labels: %q %v", p.IndustryLabel(), p.ScheduledForDeletion())
	}
}
