// Package listing holds the authoritative set of known pixels, derives
// filtered views from it and tracks the operator's multi-selection.
package listing

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"pixel-admin/internal/model"
)

// Fetcher loads the complete pixel set from the backend.
type Fetcher interface {
	ListPixels(ctx context.Context) ([]model.Pixel, error)
}

// FetchError is returned by Load when the backend could not be read.
// The previously loaded set is left untouched.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch pixels: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Stats aggregates the authoritative set.
type Stats struct {
	Pixels     int
	Events     int64
	Visitors   int64
	Industries int
}

// Store is safe for concurrent use. The selection never holds an id that is
// missing from the record set.
type Store struct {
	mu       sync.RWMutex
	records  []model.Pixel
	index    map[string]int
	selected map[string]struct{}
	loaded   bool
}

func NewStore() *Store {
	return &Store{
		index:    map[string]int{},
		selected: map[string]struct{}{},
	}
}

// Load replaces the record set with a fresh fetch. On failure it returns a
// *FetchError and keeps whatever was loaded before.
func (s *Store) Load(ctx context.Context, f Fetcher) error {
	records, err := f.ListPixels(ctx)
	if err != nil {
		return &FetchError{Err: err}
	}
	s.Replace(records)
	return nil
}

// Replace swaps in records wholesale and drops selected ids that no longer
// exist. Duplicate ids keep their first occurrence.
func (s *Store) Replace(records []model.Pixel) {
	kept := make([]model.Pixel, 0, len(records))
	index := make(map[string]int, len(records))
	for _, p := range records {
		if _, dup := index[p.ID]; dup {
			log.Warn().Str("pixel_id", p.ID).Msg("duplicate pixel id in listing, keeping first")
			continue
		}
		index[p.ID] = len(kept)
		kept = append(kept, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = kept
	s.index = index
	s.loaded = true
	for id := range s.selected {
		if _, ok := index[id]; !ok {
			delete(s.selected, id)
		}
	}
}

// Loaded reports whether at least one load has succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Records returns a copy of the authoritative set in load order.
func (s *Store) Records() []model.Pixel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Pixel, len(s.records))
	copy(out, s.records)
	return out
}

// Get looks up one record by id.
func (s *Store) Get(id string) (model.Pixel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return model.Pixel{}, false
	}
	return s.records[i], true
}

// Len is the size of the authoritative set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// View applies q to the current set.
func (s *Store) View(q Query) []model.Pixel {
	return ApplyView(s.Records(), q)
}

// ToggleSelection flips id in the selection. Unknown ids are ignored.
// It reports whether id is selected afterwards.
func (s *Store) ToggleSelection(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id]; !ok {
		return false
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false
	}
	s.selected[id] = struct{}{}
	return true
}

// SelectAll acts as a single switch tied to view: when the selection already
// equals the ids in view it is cleared, otherwise it becomes exactly those ids.
func (s *Store) SelectAll(view []model.Pixel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]struct{}, len(view))
	for _, p := range view {
		if _, ok := s.index[p.ID]; ok {
			want[p.ID] = struct{}{}
		}
	}
	if sameSet(want, s.selected) {
		s.selected = map[string]struct{}{}
		return
	}
	s.selected = want
}

func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[string]struct{}{}
}

func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}

// Selected returns the selected ids in record order.
func (s *Store) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.selected))
	for _, p := range s.records {
		if _, ok := s.selected[p.ID]; ok {
			out = append(out, p.ID)
		}
	}
	return out
}

// SelectedCount is the size of the selection.
func (s *Store) SelectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

// RemoveByIDs drops ids from the record set and the selection. Only call it
// once the backend has confirmed the deletion. It returns how many records
// were removed.
func (s *Store) RemoveByIDs(ids ...string) int {
	if len(ids) == 0 {
		return 0
	}
	rm := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		rm[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]model.Pixel, 0, len(s.records))
	index := make(map[string]int, len(s.records))
	removed := 0
	for _, p := range s.records {
		if _, ok := rm[p.ID]; ok {
			removed++
			continue
		}
		index[p.ID] = len(kept)
		kept = append(kept, p)
	}
	s.records = kept
	s.index = index
	for id := range rm {
		delete(s.selected, id)
	}
	return removed
}

// Industries lists "all" followed by every distinct non-empty industry in
// first-seen order.
func (s *Store) Industries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []string{AllIndustries}
	seen := map[string]struct{}{}
	for _, p := range s.records {
		if p.Industry == "" {
			continue
		}
		if _, ok := seen[p.Industry]; ok {
			continue
		}
		seen[p.Industry] = struct{}{}
		out = append(out, p.Industry)
	}
	return out
}

func (s *Store) Stats() Stats {
	industries := len(s.Industries()) - 1
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Pixels: len(s.records), Industries: industries}
	for _, p := range s.records {
		st.Events += p.EventCount
		st.Visitors += p.VisitorCount
	}
	return st
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
