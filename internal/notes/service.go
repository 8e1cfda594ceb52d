package notes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/charmbracelet/quill/internal/composer"
	"github.com/charmbracelet/quill/internal/pubsub"
)

// ErrClosed is returned by operations on a closed service.
var ErrClosed = errors.New("note index closed")

const (
	defaultDebounce  = 400 * time.Millisecond
	parseConcurrency = 8
)

// Service indexes a markdown vault and publishes change events.
type Service interface {
	pubsub.Subscriber[Note]

	// List returns mention candidates ordered by modification time,
	// newest first.
	List() []composer.NoteRef
	Notes() []Note
	Get(id string) (Note, bool)
	Reindex(ctx context.Context) error
	Watch(ctx context.Context) error
	Close() error
}

// Options configures a note service.
type Options struct {
	// Vault is the directory holding the markdown notes.
	Vault string
	// DataDir is where the index database lives.
	DataDir string
	// Debounce is how long the watcher waits after the last file event
	// before reindexing. Zero means the default.
	Debounce time.Duration
}

type service struct {
	*pubsub.Broker[Note]

	vault    string
	db       *sql.DB
	debounce time.Duration

	mu     sync.RWMutex
	notes  []Note // mtime desc, then path
	closed bool

	watcher   *fsnotify.Watcher
	reindexMu sync.Mutex
	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New opens the index database under opts.DataDir and loads the
// previously indexed snapshot. Call Reindex to sync with the vault on
// disk and Watch to keep syncing.
func New(ctx context.Context, opts Options) (Service, error) {
	info, err := os.Stat(opts.Vault)
	if err != nil {
		return nil, fmt.Errorf("vault not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault is not a directory: %s", opts.Vault)
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := openDB(ctx, filepath.Join(opts.DataDir, "notes.db"))
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}

	s := &service{
		Broker:   pubsub.NewBroker[Note](),
		vault:    opts.Vault,
		db:       db,
		debounce: opts.Debounce,
		done:     make(chan struct{}),
	}
	if err := s.loadSnapshot(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *service) List() []composer.NoteRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]composer.NoteRef, len(s.notes))
	for i, n := range s.notes {
		refs[i] = composer.NoteRef{ID: n.ID, Title: n.Title, Tags: n.Tags}
	}
	return refs
}

func (s *service) Notes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes)
}

func (s *service) Get(id string) (Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

// Reindex walks the vault, parses changed notes concurrently and
// replaces the index in a single transaction. Notes whose content hash
// is unchanged are carried over without reparsing.
func (s *service) Reindex(ctx context.Context) error {
	s.reindexMu.Lock()
	defer s.reindexMu.Unlock()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	prev := make(map[string]Note, len(s.notes))
	for _, n := range s.notes {
		prev[n.Path] = n
	}
	s.mu.RUnlock()

	var (
		parseMu sync.Mutex
		parsed  []Note
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parseConcurrency)

	walkErr := filepath.WalkDir(s.vault, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.vault {
				return err
			}
			slog.Warn("Skipping unreadable vault entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if path != s.vault && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.vault, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		info, err := d.Info()
		if err != nil {
			slog.Warn("Skipping unreadable vault entry", "path", rel, "error", err)
			return nil
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(path)
			if err != nil {
				slog.Warn("Failed to read note", "path", rel, "error", err)
				return nil
			}
			note := parseOrReuse(rel, content, info.ModTime(), prev)
			parseMu.Lock()
			parsed = append(parsed, note)
			parseMu.Unlock()
			return nil
		})
		return nil
	})
	if err := errors.Join(walkErr, g.Wait()); err != nil {
		return fmt.Errorf("vault scan failed: %w", err)
	}

	sortNotes(parsed)
	parsed = dedupeByID(parsed)

	if err := s.persist(ctx, parsed); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.notes = parsed
	s.mu.Unlock()

	s.publishDiff(prev, parsed)
	return nil
}

func (s *service) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		w := s.watcher
		s.watcher = nil
		s.mu.Unlock()

		close(s.done)
		if w != nil {
			_ = w.Close()
		}
		s.wg.Wait()
		s.Shutdown()
		if err := s.db.Close(); err != nil {
			s.closeErr = fmt.Errorf("failed to close note index: %w", err)
		}
	})
	return s.closeErr
}

// parseOrReuse skips the markdown parse when the content hash matches
// the previously indexed note for the same path.
func parseOrReuse(relPath string, content []byte, modTime time.Time, prev map[string]Note) Note {
	if old, ok := prev[relPath]; ok && old.Hash == xxh3.Hash(content) {
		old.ModTime = modTime
		return old
	}
	return parseNote(relPath, content, modTime)
}

func sortNotes(notes []Note) {
	slices.SortFunc(notes, func(a, b Note) int {
		if c := b.ModTime.Compare(a.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
}

// dedupeByID keeps the newest note when two files claim the same id.
// Assumes notes are already sorted newest first.
func dedupeByID(notes []Note) []Note {
	seen := make(map[string]struct{}, len(notes))
	out := notes[:0]
	for _, n := range notes {
		if _, ok := seen[n.ID]; ok {
			slog.Warn("Duplicate note id, keeping newest", "id", n.ID, "path", n.Path)
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}

func (s *service) persist(ctx context.Context, notes []Note) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notes"); err != nil {
		return fmt.Errorf("failed to clear note index: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notes (id, path, title, tags, mod_time, content_hash)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare note insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, n := range notes {
		tags, err := json.Marshal(n.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, n.ID, n.Path, n.Title, string(tags), n.ModTime.UnixNano(), int64(n.Hash)); err != nil {
			return fmt.Errorf("failed to index note %s: %w", n.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit note index: %w", err)
	}
	return nil
}

func (s *service) loadSnapshot(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, title, tags, mod_time, content_hash
		FROM notes
		ORDER BY mod_time DESC, path ASC`)
	if err != nil {
		return fmt.Errorf("failed to load note index: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []Note
	for rows.Next() {
		var (
			n       Note
			tags    string
			modTime int64
			hash    int64
		)
		if err := rows.Scan(&n.ID, &n.Path, &n.Title, &tags, &modTime, &hash); err != nil {
			return fmt.Errorf("failed to scan note row: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
			slog.Warn("Invalid tags for indexed note", "path", n.Path, "error", err)
		}
		n.ModTime = time.Unix(0, modTime)
		n.Hash = uint64(hash)
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load note index: %w", err)
	}

	s.mu.Lock()
	s.notes = notes
	s.mu.Unlock()
	return nil
}

func (s *service) publishDiff(prev map[string]Note, current []Note) {
	seen := make(map[string]struct{}, len(current))
	for _, n := range current {
		seen[n.Path] = struct{}{}
		old, ok := prev[n.Path]
		switch {
		case !ok:
			s.Publish(pubsub.CreatedEvent, n)
		case old.Hash != n.Hash:
			s.Publish(pubsub.UpdatedEvent, n)
		}
	}
	for path, old := range prev {
		if _, ok := seen[path]; !ok {
			s.Publish(pubsub.DeletedEvent, old)
		}
	}
}
