// Package deleter runs the staged pixel deletion workflow: optional export of
// the client's data, removal from SimpleAudience, then purge from the
// database. Only one attempt exists at a time.
package deleter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"

	"pixel-admin/internal/archive"
	"pixel-admin/internal/client"
)

// AutoDismissDelay is how long the host surface shows a completed attempt
// before dismissing it.
const AutoDismissDelay = 2 * time.Second

var (
	ErrAttemptActive  = errors.New("a deletion is already in progress")
	ErrNoAttempt      = errors.New("no deletion in progress")
	ErrNotConfirming  = errors.New("deletion is not awaiting confirmation")
	ErrNotCancellable = errors.New("deletion can only be cancelled before it starts")
	ErrNotComplete    = errors.New("deletion has not completed")
)

// Backend is the part of the admin API the workflow drives.
type Backend interface {
	DownloadClientData(ctx context.Context, pixelID string) (*client.ClientData, error)
	DeleteFromSimpleAudience(ctx context.Context, pixelID string) error
	DeleteFromDatabase(ctx context.Context, pixelID string) error
	BulkDelete(ctx context.Context, ids []string) error
}

// Reconciler drops confirmed deletions from the local listing.
type Reconciler interface {
	RemoveByIDs(ids ...string) int
}

// Step names a remote step of the workflow.
type Step string

const (
	StepExport      Step = "export"
	StepDeprovision Step = "deprovision"
	StepPurge       Step = "purge"
	StepBulk        Step = "bulk"
)

// StepFailure is returned by Run when a step fails. The attempt is back in
// Confirm with Message as its LastError.
type StepFailure struct {
	Step Step
	Err  error
}

func (e *StepFailure) Error() string { return e.Message() }

func (e *StepFailure) Unwrap() error { return e.Err }

// Message is the operator-facing description of the failure.
func (e *StepFailure) Message() string {
	switch e.Step {
	case StepExport:
		return fmt.Sprintf("Failed to download client data: %v", e.Err)
	case StepDeprovision:
		return fmt.Sprintf("Failed to delete pixel from SimpleAudience: %v", e.Err)
	case StepPurge:
		return fmt.Sprintf("Failed to delete client from database: %v (the pixel was already removed from SimpleAudience; retry to finish the purge)", e.Err)
	case StepBulk:
		return fmt.Sprintf("Failed to delete pixels: %v", e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
	}
}

// Attempt is a snapshot of the in-flight deletion.
type Attempt struct {
	ID      string
	PixelID string
	Mode    Mode
	Phase   Phase
	// Export is where the exported data was saved, once it has been.
	Export string
}

// Message is the text to show for the current phase.
func (a Attempt) Message() string {
	if a.Phase == nil {
		return ""
	}
	return a.Phase.Message()
}

// Progress is emitted each time an attempt enters a phase.
type Progress struct {
	AttemptID string
	PixelID   string
	Phase     Phase
}

// StepEvent describes the outcome of one remote step.
type StepEvent struct {
	AttemptID string
	PixelID   string
	Mode      Mode
	Step      Step
	OK        bool
	Err       string
	At        time.Time
}

// Recorder keeps an audit trail of step outcomes.
type Recorder interface {
	Record(ctx context.Context, ev StepEvent) error
}

type Options struct {
	// Sink receives exports in SaveAndDelete mode. Required for that mode.
	Sink archive.Sink
	// Recorder is optional.
	Recorder Recorder
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller sequences deletion attempts. It is safe for concurrent use.
type Controller struct {
	backend Backend
	listing Reconciler
	sink    archive.Sink
	rec     Recorder
	now     func() time.Time

	mu      sync.Mutex
	attempt *Attempt
	running bool
}

func New(b Backend, listing Reconciler, opts Options) *Controller {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		backend: b,
		listing: listing,
		sink:    opts.Sink,
		rec:     opts.Recorder,
		now:     now,
	}
}

// Begin opens a new attempt for pixelID in Confirm. It fails with
// ErrAttemptActive while another attempt exists.
func (c *Controller) Begin(pixelID string) (Attempt, error) {
	if pixelID == "" {
		return Attempt{}, errors.New("pixel id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt != nil {
		return Attempt{}, ErrAttemptActive
	}
	id, err := nanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 10)
	if err != nil {
		return Attempt{}, fmt.Errorf("attempt id: %w", err)
	}
	c.attempt = &Attempt{ID: "del-" + id, PixelID: pixelID, Phase: Confirm{}}
	log.Info().Str("attempt_id", c.attempt.ID).Str("pixel_id", pixelID).Msg("deletion attempt opened")
	return *c.attempt, nil
}

// Current returns the open attempt, if any.
func (c *Controller) Current() (Attempt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return Attempt{}, false
	}
	return *c.attempt, true
}

// Cancel discards the attempt. It is only honoured in Confirm.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return ErrNoAttempt
	}
	if _, ok := c.attempt.Phase.(Confirm); !ok || c.running {
		return ErrNotCancellable
	}
	log.Info().Str("attempt_id", c.attempt.ID).Str("pixel_id", c.attempt.PixelID).Msg("deletion attempt cancelled")
	c.attempt = nil
	return nil
}

// Dismiss discards a completed attempt.
func (c *Controller) Dismiss() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return ErrNoAttempt
	}
	if _, ok := c.attempt.Phase.(Complete); !ok {
		return ErrNotComplete
	}
	c.attempt = nil
	return nil
}

// Run executes the workflow from the top in the given mode. Every phase
// entered is sent on progress when it is non-nil. Steps run one after
// another; a failing step returns the attempt to Confirm and yields a
// *StepFailure. Steps that succeeded on an earlier run are executed again.
func (c *Controller) Run(ctx context.Context, mode Mode, progress chan<- Progress) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	if mode == SaveAndDelete && c.sink == nil {
		return errors.New("no export destination configured")
	}

	c.mu.Lock()
	if c.attempt == nil {
		c.mu.Unlock()
		return ErrNoAttempt
	}
	if _, ok := c.attempt.Phase.(Confirm); !ok || c.running {
		c.mu.Unlock()
		return ErrNotConfirming
	}
	c.running = true
	c.attempt.Mode = mode
	c.attempt.Export = ""
	att := *c.attempt
	c.mu.Unlock()

	logger := log.With().Str("attempt_id", att.ID).Str("pixel_id", att.PixelID).Str("mode", string(mode)).Logger()
	logger.Info().Msg("deletion started")

	if mode == SaveAndDelete {
		c.enter(ctx, Downloading{Progress: msgDownloading}, progress)
		loc, err := c.export(ctx, att.PixelID)
		c.record(ctx, att, StepExport, err)
		if err != nil {
			return c.fail(ctx, StepExport, err, progress)
		}
		c.mu.Lock()
		c.attempt.Export = loc
		c.mu.Unlock()
		logger.Info().Str("export", loc).Msg("client data exported")
	}

	c.enter(ctx, Deleting{Progress: msgDeprovision}, progress)
	err := c.backend.DeleteFromSimpleAudience(ctx, att.PixelID)
	c.record(ctx, att, StepDeprovision, err)
	if err != nil {
		return c.fail(ctx, StepDeprovision, err, progress)
	}
	logger.Info().Msg("pixel removed from SimpleAudience")

	c.enter(ctx, Deleting{Progress: msgPurge}, progress)
	err = c.backend.DeleteFromDatabase(ctx, att.PixelID)
	c.record(ctx, att, StepPurge, err)
	if err != nil {
		logger.Warn().Err(err).Msg("purge failed after SimpleAudience removal; pixel is deprovisioned but still stored")
		return c.fail(ctx, StepPurge, err, progress)
	}

	c.listing.RemoveByIDs(att.PixelID)
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	c.enter(ctx, Complete{Summary: msgComplete}, progress)
	logger.Info().Msg("deletion complete")
	return nil
}

func (c *Controller) export(ctx context.Context, pixelID string) (string, error) {
	data, err := c.backend.DownloadClientData(ctx, pixelID)
	if err != nil {
		return "", err
	}
	doc, err := indentJSON(data.Raw)
	if err != nil {
		return "", fmt.Errorf("formatting export: %w", err)
	}
	name := ExportFileName(data.ClientName, c.now())
	loc, err := c.sink.Save(ctx, name, doc)
	if err != nil {
		return "", fmt.Errorf("saving export: %w", err)
	}
	return loc, nil
}

// ExportFileName is "<clientName>_data_<YYYY-MM-DD>.json" using the UTC date.
func ExportFileName(clientName string, t time.Time) string {
	return fmt.Sprintf("%s_data_%s.json", clientName, t.UTC().Format("2006-01-02"))
}

func indentJSON(raw json.RawMessage) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}

// enter moves the open attempt into p and reports it.
func (c *Controller) enter(ctx context.Context, p Phase, progress chan<- Progress) {
	c.mu.Lock()
	c.attempt.Phase = p
	ev := Progress{AttemptID: c.attempt.ID, PixelID: c.attempt.PixelID, Phase: p}
	c.mu.Unlock()

	if progress == nil {
		return
	}
	select {
	case progress <- ev:
	case <-ctx.Done():
	}
}

func (c *Controller) fail(ctx context.Context, step Step, err error, progress chan<- Progress) error {
	sf := &StepFailure{Step: step, Err: err}
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
	c.enter(ctx, Confirm{LastError: sf.Message()}, progress)
	log.Error().Err(err).Str("step", string(step)).Msg("deletion step failed")
	return sf
}

func (c *Controller) record(ctx context.Context, att Attempt, step Step, err error) {
	if c.rec == nil {
		return
	}
	ev := StepEvent{
		AttemptID: att.ID,
		PixelID:   att.PixelID,
		Mode:      att.Mode,
		Step:      step,
		OK:        err == nil,
		At:        c.now(),
	}
	if err != nil {
		ev.Err = err.Error()
	}
	if rerr := c.rec.Record(ctx, ev); rerr != nil {
		log.Warn().Err(rerr).Str("step", string(step)).Msg("failed to record deletion step")
	}
}

// BulkDelete soft-deletes ids with a single request. It is all or nothing:
// on success exactly those ids leave the listing. The staged workflow and the
// open attempt are not involved.
func (c *Controller) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errors.New("no pixels selected")
	}
	err := c.backend.BulkDelete(ctx, ids)
	if c.rec != nil {
		batch, _ := nanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 10)
		for _, id := range ids {
			c.record(ctx, Attempt{ID: "bulk-" + batch, PixelID: id}, StepBulk, err)
		}
	}
	if err != nil {
		log.Error().Err(err).Int("count", len(ids)).Msg("bulk delete failed")
		return &StepFailure{Step: StepBulk, Err: err}
	}
	n := c.listing.RemoveByIDs(ids...)
	log.Info().Int("count", len(ids)).Int("removed", n).Msg("pixels scheduled for deletion")
	return nil
}
