package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"pixel-admin/internal/client"
	"pixel-admin/internal/deleter"
	"pixel-admin/internal/listing"
	px "pixel-admin/internal/model"
)

type stubFetcher struct {
	pixels []px.Pixel
	err    error
}

func (f *stubFetcher) ListPixels(context.Context) ([]px.Pixel, error) { return f.pixels, f.err }

type stubBackend struct {
	deprovErr error
	bulk      []string
}

func (b *stubBackend) DownloadClientData(context.Context, string) (*client.ClientData, error) {
	return &client.ClientData{ClientName: "x", Raw: []byte(`{}`)}, nil
}
func (b *stubBackend) DeleteFromSimpleAudience(context.Context, string) error { return b.deprovErr }
func (b *stubBackend) DeleteFromDatabase(context.Context, string) error       { return nil }
func (b *stubBackend) BulkDelete(_ context.Context, ids []string) error {
	b.bulk = ids
	return nil
}

type stubJournal struct{ ids []string }

func (j stubJournal) Partial(context.Context) ([]string, error) { return j.ids, nil }

func fixture() []px.Pixel {
	return []px.Pixel{
		{ID: "1", ClientName: "acme", Website: "acme.com", Industry: "retail", CreatedAt: "2024-01-01T00:00:00Z", EventCount: 1500},
		{ID: "2", ClientName: "globex", Website: "globex.io", Industry: "saas", CreatedAt: "2024-03-01T00:00:00Z"},
		{ID: "3", ClientName: "initech", Website: "initech.com", Industry: "retail", CreatedAt: "2024-02-01T00:00:00Z"},
	}
}

func setup(t *testing.T, f *stubFetcher, b *stubBackend) model {
	t.Helper()
	store := listing.NewStore()
	m := newModel(Deps{
		Store:      store,
		Fetcher:    f,
		Controller: deleter.New(b, store, deleter.Options{}),
		Journal:    stubJournal{ids: []string{"3"}},
	})
	return send(t, m, m.loadCmd()())
}

func send(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// exec runs cmd and any batched commands, returning their messages.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, exec(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// drain runs the attempt's bridged messages through Update until it ends.
func drain(t *testing.T, m model) model {
	t.Helper()
	for m.running {
		cmd := m.waitRunMsg()
		if cmd == nil {
			t.Fatal("running without a channel")
		}
		m = send(t, m, cmd())
	}
	return m
}

func TestModel_LoadsAndSortsNewestFirst(t *testing.T) {
	m := setup(t, &stubFetcher{pixels: fixture()}, &stubBackend{})
	if m.st != statusReady {
		t.Fatalf("status = %v", m.st)
	}
	if len(m.rows) != 3 || m.rows[0].ID != "2" || m.rows[2].ID != "1" {
		t.Fatalf("rows = %+v", m.rows)
	}
	out := m.View()
	if !strings.Contains(out, "1,500") || !strings.Contains(out, "[not purged]") {
		t.Fatalf("view missing counts or partial marker:\n%s", out)
	}
}

func TestModel_LoadErrorShowsBanner(t *testing.T) {
	m := setup(t, &stubFetcher{err: errors.New("connection refused")}, &stubBackend{})
	if !strings.Contains(m.banner, "connection refused") {
		t.Fatalf("banner = %q", m.banner)
	}
	if !strings.Contains(m.View(), "Error:") {
		t.Fatal("banner not rendered")
	}
}

func TestModel_SearchAndIndustry(t *testing.T) {
	m := setup(t, &stubFetcher{pixels: fixture()}, &stubBackend{})
	m = send(t, m, key("/"))
	for _, r := range "GLO" {
		m = send(t, m, key(string(r)))
	}
	if len(m.rows) != 1 || m.rows[0].ID != "2" {
		t.Fatalf("search rows = %+v", m.rows)
	}
	m = send(t, m, key("esc"))
	if m.query.Search != "" || len(m.rows) != 3 {
		t.Fatalf("esc did not clear search: %q %d", m.query.Search, len(m.rows))
	}

	m = send(t, m, key("i"))
	if m.query.Industry != "retail" || len(m.rows) != 2 {
		t.Fatalf("industry = %q rows = %d", m.query.Industry, len(m.rows))
	}
}

func TestModel_SelectAllAndBulkDelete(t *testing.T) {
	b := &stubBackend{}
	m := setup(t, &stubFetcher{pixels: fixture()}, b)
	m = send(t, m, key("i")) // retail only
	m = send(t, m, key("a"))
	if m.deps.Store.SelectedCount() != 2 {
		t.Fatalf("selected = %d", m.deps.Store.SelectedCount())
	}
	m = send(t, m, key("x"))
	if m.st != statusBulkConfirm {
		t.Fatalf("status = %v", m.st)
	}
	next, cmd := m.Update(key("y"))
	m = next.(model)
	if m.st != statusBulkDeleting {
		t.Fatalf("status = %v", m.st)
	}
	var done tea.Msg
	for _, msg := range exec(cmd) {
		if _, ok := msg.(bulkDoneMsg); ok {
			done = msg
		}
	}
	if done == nil {
		t.Fatal("bulk delete command not issued")
	}
	m = send(t, m, done)
	if strings.Join(b.bulk, ",") != "1,3" {
		t.Fatalf("bulk ids = %v", b.bulk)
	}
	if m.st != statusReady || m.deps.Store.Len() != 1 || m.deps.Store.SelectedCount() != 0 {
		t.Fatalf("status=%v len=%d selected=%d", m.st, m.deps.Store.Len(), m.deps.Store.SelectedCount())
	}
}

func TestModel_StagedDeleteOnly(t *testing.T) {
	m := setup(t, &stubFetcher{pixels: fixture()}, &stubBackend{})
	m = send(t, m, key("d")) // cursor on globex
	if m.st != statusAttempt {
		t.Fatalf("status = %v", m.st)
	}
	if !strings.Contains(m.View(), "delete without saving") {
		t.Fatalf("dialog not shown:\n%s", m.View())
	}
	next, _ := m.Update(key("d"))
	m = drain(t, next.(model))

	att, ok := m.deps.Controller.Current()
	if !ok {
		t.Fatal("attempt gone before dismissal")
	}
	if _, done := att.Phase.(deleter.Complete); !done {
		t.Fatalf("phase = %T", att.Phase)
	}
	if _, found := m.deps.Store.Get("2"); found {
		t.Fatal("deleted pixel still listed")
	}
	m = send(t, m, dismissMsg{attemptID: att.ID})
	if m.st != statusReady {
		t.Fatalf("status after dismiss = %v", m.st)
	}
	if _, ok := m.deps.Controller.Current(); ok {
		t.Fatal("attempt not dismissed")
	}
}

func TestModel_StagedDeleteFailureStaysInDialog(t *testing.T) {
	m := setup(t, &stubFetcher{pixels: fixture()}, &stubBackend{deprovErr: errors.New("503")})
	m = send(t, m, key("d"))
	next, _ := m.Update(key("d"))
	m = drain(t, next.(model))

	if m.st != statusAttempt {
		t.Fatalf("status = %v", m.st)
	}
	if !strings.Contains(m.View(), "Failed to delete pixel from SimpleAudience: 503") {
		t.Fatalf("failure message missing:\n%s", m.View())
	}
	m = send(t, m, key("c"))
	if m.st != statusReady || m.deps.Store.Len() != 3 {
		t.Fatalf("cancel: status=%v len=%d", m.st, m.deps.Store.Len())
	}
}
