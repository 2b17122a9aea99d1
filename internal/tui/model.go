package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"pixel-admin/internal/deleter"
	"pixel-admin/internal/listing"
	px "pixel-admin/internal/model"
)

type status int

const (
	statusLoading status = iota
	statusReady
	statusSearching
	statusBulkConfirm
	statusBulkDeleting
	statusAttempt
)

// PartialSource reports pixels whose deletion stopped between
// deprovisioning and purging.
type PartialSource interface {
	Partial(ctx context.Context) ([]string, error)
}

// Deps wires the UI to the listing and the deletion workflow.
type Deps struct {
	Store      *listing.Store
	Fetcher    listing.Fetcher
	Controller *deleter.Controller
	// Journal is optional.
	Journal PartialSource
	Locale  language.Tag
}

type model struct {
	deps Deps
	sp   spinner.Model

	st     status
	search textinput.Model
	query  listing.Query

	// list view (custom rendering)
	rows         []px.Pixel
	cursor       int
	scrollOffset int
	partial      map[string]struct{}
	reloading    bool

	// banner is the last error; notice the last success message.
	banner string
	notice string

	// attempt wiring
	runCh   chan tea.Msg
	running bool

	termW int
	termH int

	showHelp bool
}

func newModel(deps Deps) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "client name or website"
	ti.Prompt = "/ "
	ti.CharLimit = 128

	return model{
		deps:   deps,
		sp:     sp,
		st:     statusLoading,
		search: ti,
		query: listing.Query{
			Industry: listing.AllIndustries,
			Sort:     listing.SortByDate,
			Locale:   deps.Locale,
		},
		partial: map[string]struct{}{},
	}
}

// Run starts the interactive UI and blocks until the operator quits.
func Run(deps Deps) error {
	p := tea.NewProgram(newModel(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// messages
type loadedMsg struct {
	err     error
	partial []string
}

type progressMsg struct{ p deleter.Progress }

type runDoneMsg struct{ err error }

type dismissMsg struct{ attemptID string }

type bulkDoneMsg struct {
	err error
	n   int
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.sp.Tick, m.loadCmd())
}

func (m model) loadCmd() tea.Cmd {
	store, fetcher, journal := m.deps.Store, m.deps.Fetcher, m.deps.Journal
	return func() tea.Msg {
		ctx := context.Background()
		err := store.Load(ctx, fetcher)
		var partial []string
		if journal != nil {
			var jerr error
			partial, jerr = journal.Partial(ctx)
			if jerr != nil {
				log.Warn().Err(jerr).Msg("failed to read deletion journal")
			}
		}
		return loadedMsg{err: err, partial: partial}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.st {
		case statusSearching:
			return m.updateSearch(msg)
		case statusBulkConfirm:
			return m.updateBulkConfirm(msg)
		case statusAttempt:
			return m.updateAttempt(msg)
		case statusBulkDeleting:
			return m, nil
		}
		return m.updateList(msg)

	case tea.WindowSizeMsg:
		m.termW, m.termH = msg.Width, msg.Height
		m.adjustScroll()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd

	case loadedMsg:
		m.reloading = false
		if m.st == statusLoading {
			m.st = statusReady
		}
		if msg.err != nil {
			m.banner = msg.err.Error()
		} else {
			m.banner = ""
		}
		m.partial = make(map[string]struct{}, len(msg.partial))
		for _, id := range msg.partial {
			m.partial[id] = struct{}{}
		}
		m.refresh()
		return m, nil

	case progressMsg:
		return m, m.waitRunMsg()

	case runDoneMsg:
		m.running = false
		m.runCh = nil
		m.refresh()
		if msg.err == nil {
			att, _ := m.deps.Controller.Current()
			if loc := att.Export; loc != "" {
				m.notice = "Exported to " + loc
			}
			return m, tea.Tick(deleter.AutoDismissDelay, func(time.Time) tea.Msg {
				return dismissMsg{attemptID: att.ID}
			})
		}
		var sf *deleter.StepFailure
		if !errors.As(msg.err, &sf) {
			// not a step failure: the attempt never left confirm
			m.banner = msg.err.Error()
		}
		return m, nil

	case dismissMsg:
		att, ok := m.deps.Controller.Current()
		if ok && att.ID == msg.attemptID {
			m.closeAttempt()
		}
		return m, nil

	case bulkDoneMsg:
		m.st = statusReady
		if msg.err != nil {
			m.banner = msg.err.Error()
		} else {
			m.banner = ""
			m.deps.Store.ClearAll()
			m.notice = fmt.Sprintf("Scheduled %d pixel(s) for deletion", msg.n)
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.adjustScroll()
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.adjustScroll()
		}
	case " ":
		if p, ok := m.current(); ok {
			m.deps.Store.ToggleSelection(p.ID)
		}
	case "a":
		m.deps.Store.SelectAll(m.rows)
	case "/":
		m.st = statusSearching
		m.search.SetValue(m.query.Search)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case "i":
		m.query.Industry = nextIndustry(m.deps.Store.Industries(), m.query.Industry)
		m.refresh()
	case "s":
		m.query.Sort = m.query.Sort.Next()
		m.refresh()
	case "r":
		if m.reloading {
			return m, nil
		}
		m.reloading = true
		return m, tea.Batch(m.sp.Tick, m.loadCmd())
	case "d":
		p, ok := m.current()
		if !ok {
			return m, nil
		}
		if _, err := m.deps.Controller.Begin(p.ID); err != nil {
			m.banner = err.Error()
			return m, nil
		}
		m.notice = ""
		m.st = statusAttempt
	case "x":
		if m.deps.Store.SelectedCount() == 0 {
			return m, nil
		}
		m.st = statusBulkConfirm
	}
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search.SetValue("")
		m.query.Search = ""
		m.search.Blur()
		m.st = statusReady
		m.refresh()
		return m, nil
	case "enter":
		m.search.Blur()
		m.st = statusReady
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.query.Search {
		m.query.Search = m.search.Value()
		m.cursor = 0
		m.scrollOffset = 0
		m.refresh()
	}
	return m, cmd
}

func (m model) updateBulkConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		ids := m.deps.Store.Selected()
		ctrl := m.deps.Controller
		m.st = statusBulkDeleting
		return m, tea.Batch(m.sp.Tick, func() tea.Msg {
			err := ctrl.BulkDelete(context.Background(), ids)
			return bulkDoneMsg{err: err, n: len(ids)}
		})
	case "n", "esc", "q":
		m.st = statusReady
	}
	return m, nil
}

func (m model) updateAttempt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	att, ok := m.deps.Controller.Current()
	if !ok {
		m.st = statusReady
		return m, nil
	}
	if m.running {
		return m, nil
	}
	switch att.Phase.(type) {
	case deleter.Confirm:
		switch msg.String() {
		case "s":
			return m.startRun(deleter.SaveAndDelete)
		case "d":
			return m.startRun(deleter.DeleteOnly)
		case "c", "esc":
			if err := m.deps.Controller.Cancel(); err != nil {
				m.banner = err.Error()
				return m, nil
			}
			m.st = statusReady
		}
	case deleter.Complete:
		m.closeAttempt()
	}
	return m, nil
}

// startRun bridges the controller's progress channel into tea messages.
func (m model) startRun(mode deleter.Mode) (tea.Model, tea.Cmd) {
	ctrl := m.deps.Controller
	ch := make(chan tea.Msg, 8)
	m.runCh = ch
	m.running = true
	m.banner = ""

	go func() {
		pch := make(chan deleter.Progress)
		done := make(chan error, 1)
		go func() {
			done <- ctrl.Run(context.Background(), mode, pch)
			close(pch)
		}()
		for p := range pch {
			ch <- progressMsg{p: p}
		}
		ch <- runDoneMsg{err: <-done}
		close(ch)
	}()

	return m, tea.Batch(m.sp.Tick, m.waitRunMsg())
}

func (m model) waitRunMsg() tea.Cmd {
	ch := m.runCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *model) closeAttempt() {
	if err := m.deps.Controller.Dismiss(); err != nil && !errors.Is(err, deleter.ErrNoAttempt) {
		m.banner = err.Error()
	}
	m.st = statusReady
	m.refresh()
}

// refresh recomputes the visible rows and keeps the cursor in range.
func (m *model) refresh() {
	m.rows = m.deps.Store.View(m.query)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustScroll()
}

func (m *model) current() (px.Pixel, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return px.Pixel{}, false
	}
	return m.rows[m.cursor], true
}

func (m *model) visibleHeight() int {
	h := m.termH - 8
	if h < 3 {
		h = 3
	}
	return h
}

func (m *model) adjustScroll() {
	vh := m.visibleHeight()
	if m.cursor >= m.scrollOffset+vh {
		m.scrollOffset = m.cursor - vh + 1
	}
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func nextIndustry(options []string, cur string) string {
	for i, o := range options {
		if o == cur {
			return options[(i+1)%len(options)]
		}
	}
	return listing.AllIndustries
}
