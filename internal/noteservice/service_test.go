package noteservice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/stickit/internal/apperr"
	"github.com/starford/stickit/internal/markdown"
	"github.com/starford/stickit/internal/models"
	"github.com/starford/stickit/internal/testutil"
	"github.com/starford/stickit/internal/vault"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) record(kind, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, kind+":"+id)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func testService(t *testing.T) (*Service, *vault.FS, *eventLog) {
	t.Helper()
	db := testutil.TestDB(t)
	_, v := testutil.TestVault(t)
	events := &eventLog{}
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := New(db,
		WithVault(v),
		WithEventCallback(events.record),
		WithClock(clock.now),
	)
	return svc, v, events
}

func TestCreateNote(t *testing.T) {
	svc, v, events := testService(t)
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, "  Groceries ", "[ ] milk\r\n[x] eggs", "")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if n.ID == "" || n.Name != "Groceries" || n.Color != models.DefaultColor {
		t.Errorf("created = %+v", n)
	}
	if n.Content != "[ ] milk\n[x] eggs" {
		t.Errorf("content not normalised: %q", n.Content)
	}
	if n.LastModified.IsZero() {
		t.Error("last modified not set")
	}

	got, err := svc.GetNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Content != n.Content {
		t.Errorf("stored content = %q", got.Content)
	}

	data, err := v.Read(vault.FileName(n.ID))
	if err != nil {
		t.Fatalf("mirror missing: %v", err)
	}
	if mirrored := vault.Decode(vault.FileName(n.ID), data); mirrored.Content != n.Content || mirrored.Name != n.Name {
		t.Errorf("mirror = %+v", mirrored)
	}

	if e := events.all(); len(e) != 1 || e[0] != "created:"+n.ID {
		t.Errorf("events = %v", e)
	}
}

func TestCreateNote_Invalid(t *testing.T) {
	svc, _, events := testService(t)
	ctx := context.Background()

	if _, err := svc.CreateNote(ctx, "   ", "body", ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty name err = %v, want ErrInvalid", err)
	}
	if _, err := svc.CreateNote(ctx, "Name", "body", "magenta"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad colour err = %v, want ErrInvalid", err)
	}
	if e := events.all(); len(e) != 0 {
		t.Errorf("invalid creates emitted events: %v", e)
	}
	if _, total, _ := svc.ListNotes(ctx, 0, 0, false); total != 0 {
		t.Errorf("invalid note stored, total = %d", total)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	svc, _, _ := testService(t)
	if _, err := svc.GetNote(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateContent(t *testing.T) {
	svc, _, events := testService(t)
	ctx := context.Background()
	n, _ := svc.CreateNote(ctx, "Todo", "one", models.ColorRed)

	updated, err := svc.UpdateContent(ctx, n.ID, "two", n.Checksum())
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if updated.Content != "two" {
		t.Errorf("content = %q", updated.Content)
	}
	if !updated.LastModified.After(n.LastModified) {
		t.Errorf("last modified not touched: %v <= %v", updated.LastModified, n.LastModified)
	}

	_, err = svc.UpdateContent(ctx, n.ID, "three", n.Checksum())
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale If-Match err = %v, want ErrConflict", err)
	}

	if _, err := svc.UpdateContent(ctx, n.ID, "four", ""); err != nil {
		t.Errorf("unconditional update: %v", err)
	}

	want := []string{"created:" + n.ID, "updated:" + n.ID, "updated:" + n.ID}
	if got := events.all(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestPatchOperations(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	n, _ := svc.CreateNote(ctx, "Old", "", "")

	renamed, err := svc.Rename(ctx, n.ID, "New")
	if err != nil || renamed.Name != "New" {
		t.Fatalf("Rename = %+v, %v", renamed, err)
	}
	if _, err := svc.Rename(ctx, n.ID, ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty rename err = %v, want ErrInvalid", err)
	}

	colored, err := svc.SetColor(ctx, n.ID, models.ColorMint)
	if err != nil || colored.Color != models.ColorMint {
		t.Fatalf("SetColor = %+v, %v", colored, err)
	}
	if _, err := svc.SetColor(ctx, n.ID, "plaid"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad colour err = %v, want ErrInvalid", err)
	}

	pinned, err := svc.TogglePin(ctx, n.ID)
	if err != nil || !pinned.Pinned {
		t.Fatalf("TogglePin = %+v, %v", pinned, err)
	}
	if !pinned.LastModified.After(colored.LastModified) {
		t.Error("pin did not touch last modified")
	}
	unpinned, _ := svc.TogglePin(ctx, n.ID)
	if unpinned.Pinned {
		t.Error("second toggle should unpin")
	}

	got, _ := svc.GetNote(ctx, n.ID)
	if got.Name != "New" || got.Color != models.ColorMint || got.Pinned {
		t.Errorf("stored = %+v", got)
	}
}

func TestListNotes_PinnedFirst(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	a, _ := svc.CreateNote(ctx, "A", "", "")
	b, _ := svc.CreateNote(ctx, "B", "", "")
	_, _ = svc.TogglePin(ctx, a.ID)
	c, _ := svc.CreateNote(ctx, "C", "", "")

	notes, total, err := svc.ListNotes(ctx, 10, 0, false)
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d", total)
	}
	want := []string{a.ID, c.ID, b.ID}
	for i, id := range want {
		if notes[i].ID != id {
			t.Errorf("notes[%d] = %s (%s), want %s", i, notes[i].ID, notes[i].Name, id)
		}
	}
}

func TestDeleteNote(t *testing.T) {
	svc, v, events := testService(t)
	ctx := context.Background()
	n, _ := svc.CreateNote(ctx, "Bye", "", "")

	if err := svc.DeleteNote(ctx, n.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := svc.GetNote(ctx, n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("note still readable: %v", err)
	}
	if _, err := v.Read(vault.FileName(n.ID)); err == nil {
		t.Error("mirror file still present")
	}
	if err := svc.DeleteNote(ctx, n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	e := events.all()
	if e[len(e)-1] != "deleted:"+n.ID {
		t.Errorf("events = %v", e)
	}
}

func TestSearch(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	n, _ := svc.CreateNote(ctx, "Packing", "[ ] toothbrush", "")
	_, _ = svc.CreateNote(ctx, "Other", "nothing", "")

	results, err := svc.Search(ctx, "toothbrush", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != n.ID {
		t.Errorf("results = %+v", results)
	}
	if _, err := svc.Search(ctx, "  ", 10); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("empty query err = %v, want ErrInvalid", err)
	}
}

func TestDocument(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	n, _ := svc.CreateNote(ctx, "Doc", "# Title\n[ ] a\n[site](example.com)", "")

	_, nodes, err := svc.Document(ctx, n.ID)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("nodes = %d", len(nodes))
	}
	if _, ok := nodes[1].Kind.(markdown.Checkbox); !ok {
		t.Errorf("node 1 = %T, want checkbox", nodes[1].Kind)
	}
}

func TestToggleCheckbox(t *testing.T) {
	svc, v, events := testService(t)
	ctx := context.Background()
	n, _ := svc.CreateNote(ctx, "Groceries", "# Shop\n[ ] milk\n[x]   eggs", "")

	updated, err := svc.ToggleCheckbox(ctx, n.ID, 1, "")
	if err != nil {
		t.Fatalf("ToggleCheckbox: %v", err)
	}
	if updated.Content != "# Shop\n[x] milk\n[x]   eggs" {
		t.Errorf("content = %q", updated.Content)
	}
	if !updated.LastModified.After(n.LastModified) {
		t.Error("toggle did not touch last modified")
	}

	updated, err = svc.ToggleCheckbox(ctx, n.ID, 2, updated.Checksum())
	if err != nil {
		t.Fatalf("ToggleCheckbox with If-Match: %v", err)
	}
	if updated.Content != "# Shop\n[x] milk\n[ ]   eggs" {
		t.Errorf("content = %q", updated.Content)
	}

	data, _ := v.Read(vault.FileName(n.ID))
	if got := vault.Decode(vault.FileName(n.ID), data).Content; got != updated.Content {
		t.Errorf("mirror content = %q", got)
	}

	e := events.all()
	if len(e) != 3 || e[1] != "updated:"+n.ID || e[2] != "updated:"+n.ID {
		t.Errorf("events = %v", e)
	}
}

func TestToggleCheckbox_Errors(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	n, _ := svc.CreateNote(ctx, "List", "# Head\n[ ] item", "")

	if _, err := svc.ToggleCheckbox(ctx, n.ID, 0, ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("header toggle err = %v, want ErrInvalid", err)
	}
	if _, err := svc.ToggleCheckbox(ctx, n.ID, 5, ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("out of range err = %v, want ErrInvalid", err)
	}
	if _, err := svc.ToggleCheckbox(ctx, n.ID, 1, "stale"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale If-Match err = %v, want ErrConflict", err)
	}
	if _, err := svc.ToggleCheckbox(ctx, "missing", 1, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing note err = %v, want ErrNotFound", err)
	}

	got, _ := svc.GetNote(ctx, n.ID)
	if got.Content != n.Content {
		t.Errorf("failed toggles changed content: %q", got.Content)
	}
}

func TestSession_DetectsConcurrentEdit(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	n, _ := svc.CreateNote(ctx, "Race", "[ ] a\n[ ] b", "")

	_, session, err := svc.Session(ctx, n.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if err := session.Toggle(0); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if err := session.Toggle(1); err != nil {
		t.Fatalf("second toggle on the same session: %v", err)
	}

	if _, err := svc.UpdateContent(ctx, n.ID, "[ ] replaced", ""); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if err := session.Toggle(0); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("toggle after concurrent edit err = %v, want ErrConflict", err)
	}
	got, _ := svc.GetNote(ctx, n.ID)
	if got.Content != "[ ] replaced" {
		t.Errorf("content = %q", got.Content)
	}
}
