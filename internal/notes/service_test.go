package notes

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charmbracelet/quill/internal/pubsub"
)

func writeNote(t *testing.T, vault, name, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(vault, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	if !mtime.IsZero() {
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
	return path
}

func newTestService(t *testing.T, vault string) Service {
	t.Helper()
	s, err := New(t.Context(), Options{
		Vault:    vault,
		DataDir:  t.TempDir(),
		Debounce: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func drainEvents(t *testing.T, ch <-chan pubsub.Event[Note], want int) []pubsub.Event[Note] {
	t.Helper()
	var out []pubsub.Event[Note]
	deadline := time.After(2 * time.Second)
	for len(out) < want {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("timed out after %d of %d events", len(out), want)
		}
	}
	return out
}

func TestNewRejectsBadVault(t *testing.T) {
	_, err := New(t.Context(), Options{Vault: filepath.Join(t.TempDir(), "missing"), DataDir: t.TempDir()})
	require.ErrorContains(t, err, "vault not accessible")

	file := filepath.Join(t.TempDir(), "f.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = New(t.Context(), Options{Vault: file, DataDir: t.TempDir()})
	require.ErrorContains(t, err, "not a directory")
}

func TestReindexOrdersByModTime(t *testing.T) {
	vault := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeNote(t, vault, "old.md", "# Old\n", base)
	writeNote(t, vault, "mid.md", "---\nid: n-mid\ntitle: Middle\ntags: [a]\n---\n", base.Add(time.Minute))
	writeNote(t, vault, "new.md", "# New\n", base.Add(2*time.Minute))

	s := newTestService(t, vault)
	require.NoError(t, s.Reindex(t.Context()))

	refs := s.List()
	require.Len(t, refs, 3)
	require.Equal(t, "New", refs[0].Title)
	require.Equal(t, "Middle", refs[1].Title)
	require.Equal(t, "n-mid", refs[1].ID)
	require.Equal(t, []string{"a"}, refs[1].Tags)
	require.Equal(t, "Old", refs[2].Title)
}

func TestReindexSkipsNonNotes(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "keep.md", "# Keep\n", time.Time{})
	writeNote(t, vault, "sub/nested.md", "# Nested\n", time.Time{})
	writeNote(t, vault, ".obsidian/hidden.md", "# Hidden\n", time.Time{})
	require.NoError(t, os.WriteFile(filepath.Join(vault, "readme.txt"), []byte("not a note"), 0o644))

	s := newTestService(t, vault)
	require.NoError(t, s.Reindex(t.Context()))

	var titles []string
	for _, ref := range s.List() {
		titles = append(titles, ref.Title)
	}
	require.ElementsMatch(t, []string{"Keep", "Nested"}, titles)
}

func TestReindexPublishesDiff(t *testing.T) {
	vault := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeNote(t, vault, "a.md", "# A\n", base)
	writeNote(t, vault, "b.md", "# B\n", base.Add(time.Minute))

	s := newTestService(t, vault)
	ch := s.Subscribe(t.Context())

	require.NoError(t, s.Reindex(t.Context()))
	for _, ev := range drainEvents(t, ch, 2) {
		require.Equal(t, pubsub.CreatedEvent, ev.Type)
	}

	// An unchanged reindex stays silent.
	require.NoError(t, s.Reindex(t.Context()))
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v for %s", ev.Type, ev.Payload.Path)
	case <-time.After(50 * time.Millisecond):
	}

	writeNote(t, vault, "a.md", "# A changed\n", base.Add(2*time.Minute))
	require.NoError(t, s.Reindex(t.Context()))
	updated := drainEvents(t, ch, 1)
	require.Equal(t, pubsub.UpdatedEvent, updated[0].Type)
	require.Equal(t, "a.md", updated[0].Payload.Path)

	require.NoError(t, os.Remove(filepath.Join(vault, "b.md")))
	require.NoError(t, s.Reindex(t.Context()))
	deleted := drainEvents(t, ch, 1)
	require.Equal(t, pubsub.DeletedEvent, deleted[0].Type)
	require.Equal(t, "b.md", deleted[0].Payload.Path)
}

func TestReindexReusesUnchangedContent(t *testing.T) {
	vault := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeNote(t, vault, "a.md", "# A\n", base)

	s := newTestService(t, vault)
	require.NoError(t, s.Reindex(t.Context()))
	before := s.Notes()[0]

	touched := base.Add(30 * time.Minute)
	require.NoError(t, os.Chtimes(filepath.Join(vault, "a.md"), touched, touched))

	ch := s.Subscribe(t.Context())
	require.NoError(t, s.Reindex(t.Context()))

	after := s.Notes()[0]
	require.Equal(t, before.ID, after.ID)
	require.Equal(t, before.Hash, after.Hash)
	require.WithinDuration(t, touched, after.ModTime, time.Second)

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSnapshotSurvivesRestart(t *testing.T) {
	vault := t.TempDir()
	dataDir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeNote(t, vault, "a.md", "---\nid: n-a\ntitle: Alpha\ntags: [x, y]\n---\n", base)
	writeNote(t, vault, "b.md", "# Beta\n", base.Add(time.Minute))

	s1, err := New(t.Context(), Options{Vault: vault, DataDir: dataDir})
	require.NoError(t, err)
	require.NoError(t, s1.Reindex(t.Context()))
	want := s1.Notes()
	require.NoError(t, s1.Close())

	s2, err := New(t.Context(), Options{Vault: vault, DataDir: dataDir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	got := s2.Notes()
	require.Len(t, got, 2)
	require.Equal(t, "Beta", got[0].Title)
	require.Equal(t, "n-a", got[1].ID)
	require.Equal(t, []string{"x", "y"}, got[1].Tags)
	require.Equal(t, want[0].Hash, got[0].Hash)
	require.True(t, want[0].ModTime.Equal(got[0].ModTime))
}

func TestDuplicateIDKeepsNewest(t *testing.T) {
	vault := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeNote(t, vault, "old.md", "---\nid: dup\ntitle: Old Copy\n---\n", base)
	writeNote(t, vault, "new.md", "---\nid: dup\ntitle: New Copy\n---\n", base.Add(time.Minute))

	s := newTestService(t, vault)
	require.NoError(t, s.Reindex(t.Context()))

	require.Len(t, s.List(), 1)
	n, ok := s.Get("dup")
	require.True(t, ok)
	require.Equal(t, "New Copy", n.Title)

	_, ok = s.Get("nope")
	require.False(t, ok)
}

func TestClosedService(t *testing.T) {
	s := newTestService(t, t.TempDir())
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Reindex(t.Context()), ErrClosed)
	require.ErrorIs(t, s.Watch(t.Context()), ErrClosed)
	require.NoError(t, s.Close())
}

func TestWatchReindexesOnChange(t *testing.T) {
	vault := t.TempDir()
	s := newTestService(t, vault)
	require.NoError(t, s.Reindex(t.Context()))
	require.NoError(t, s.Watch(t.Context()))
	require.NoError(t, s.Watch(t.Context())) // second call is a no-op

	writeNote(t, vault, "live.md", "# Live\n", time.Time{})
	require.Eventually(t, func() bool {
		for _, ref := range s.List() {
			if ref.Title == "Live" {
				return true
			}
		}
		return false
	}, 3*time.Second, 25*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(vault, "live.md")))
	require.Eventually(t, func() bool {
		return len(s.List()) == 0
	}, 3*time.Second, 25*time.Millisecond)
}

func TestWatchPicksUpNewDirectories(t *testing.T) {
	vault := t.TempDir()
	s := newTestService(t, vault)
	require.NoError(t, s.Watch(t.Context()))

	require.NoError(t, os.MkdirAll(filepath.Join(vault, "sub"), 0o755))
	time.Sleep(50 * time.Millisecond) // let the watcher register the new directory
	writeNote(t, vault, "sub/inner.md", "# Inner\n", time.Time{})

	require.Eventually(t, func() bool {
		for _, ref := range s.List() {
			if ref.Title == "Inner" {
				return true
			}
		}
		return false
	}, 3*time.Second, 25*time.Millisecond)
}
