// Package memory implements the project memory store: a directory of
// markdown notes backed by a sqlite index for fast listing, kept in sync by
// treating the filesystem as the source of truth.
package memory

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/serena-mcp/serena/pkg/apierr"
)

const (
	maxNameLength = 200
	fileExt       = ".md"
	searchCap     = 500

	// maxContentBytes is the per-memory content size cap. Write rejects
	// anything over this with InvalidParameter's ContentTooLarge subtype
	// rather than silently truncating or letting an unbounded note bloat
	// the index.
	maxContentBytes = 1 << 20 // 1 MiB
)

// Entry is one memory's metadata as recorded in the index.
type Entry struct {
	Name      string
	Tags      string
	SizeBytes int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Match is one hit from Search: the memory name and the snippet of content
// surrounding the query.
type Match struct {
	Name    string
	Snippet string
}

// EditMode selects how Edit interprets find.
type EditMode int

const (
	EditLiteral EditMode = iota
	EditRegex
)

// Store is the dual-backed memory store for one project: memories/<name>.md
// files plus a sqlite metadata index at memories.db, both under the
// project's hidden state directory.
type Store struct {
	dir string
	db  *sql.DB
}

// Open opens (creating if necessary) a Store whose state directory is base
// (typically the project's .serena directory). Note files live in
// base/memories/<name>.md; the index lives at base/memories.db, a sibling
// of the notes directory rather than inside it.
func Open(base string) (*Store, error) {
	dir := filepath.Join(base, "memories")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apierr.Wrap(apierr.Io, err, "create memory directory %s", dir)
	}
	db, err := openIndex(filepath.Join(base, "memories.db"))
	if err != nil {
		return nil, apierr.Wrap(apierr.Io, err, "open memory index")
	}
	return &Store{dir: dir, db: db}, nil
}

// Close releases the store's index connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func validateName(name string) error {
	if name == "" {
		return apierr.New(apierr.InvalidParameter, "memory name must not be empty")
	}
	if len(name) > maxNameLength {
		return apierr.New(apierr.InvalidParameter, "memory name exceeds %d characters", maxNameLength)
	}
	if strings.ContainsAny(name, `/\`) {
		return apierr.New(apierr.InvalidParameter, "memory name must not contain path separators")
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Write validates name, writes content to disk atomically, and upserts the
// index row. A failure to update the index after a successful file write is
// logged and swallowed — the file is the source of truth and Sync() will
// reconcile it later.
func (s *Store) Write(name, content string, tags string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if len(content) > maxContentBytes {
		return apierr.New(apierr.InvalidParameter, "ContentTooLarge: memory content exceeds %d byte cap", maxContentBytes)
	}

	if err := atomicWriteFile(s.path(name), content); err != nil {
		return apierr.Wrap(apierr.Io, err, "write memory %s", name)
	}

	now := time.Now()
	_, err := s.db.Exec(`
INSERT INTO memories (name, content, tags, size_bytes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET content=excluded.content, tags=excluded.tags,
    size_bytes=excluded.size_bytes, updated_at=excluded.updated_at
`, name, content, tags, len(content), now, now)
	if err != nil {
		slog.Warn("memory index update failed, file is authoritative", "name", name, "error", err)
	}
	return nil
}

// Read returns the content of memory name, or NotFound if it does not exist.
func (s *Store) Read(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	content, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return "", apierr.New(apierr.NotFound, "memory %q not found", name)
	}
	if err != nil {
		return "", apierr.Wrap(apierr.Io, err, "read memory %s", name)
	}
	return string(content), nil
}

// List enumerates every memory name, newest-updated first, via the index.
// If the index is unavailable it falls back to a directory scan.
func (s *Store) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM memories ORDER BY updated_at DESC`)
	if err != nil {
		return s.listFromDisk()
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return s.listFromDisk()
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return s.listFromDisk()
	}
	return names, nil
}

func (s *Store) listFromDisk() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apierr.Wrap(apierr.Io, err, "scan memory directory")
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes memory name. A missing file or missing index row is
// tolerated — Delete only reports an error for unexpected I/O failures.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return apierr.Wrap(apierr.Io, err, "delete memory %s", name)
	}
	if _, err := s.db.Exec(`DELETE FROM memories WHERE name = ?`, name); err != nil {
		slog.Warn("memory index delete failed", "name", name, "error", err)
	}
	return nil
}

// Search scans memory files (bounded by searchCap) for query, returning one
// Match per file containing it, with a short content snippet.
func (s *Store) Search(query string) ([]Match, error) {
	names, err := s.listFromDisk()
	if err != nil {
		return nil, err
	}
	if len(names) > searchCap {
		names = names[:searchCap]
	}

	var matches []Match
	for _, name := range names {
		content, err := s.Read(name)
		if err != nil {
			continue
		}
		idx := strings.Index(strings.ToLower(content), strings.ToLower(query))
		if idx < 0 {
			continue
		}
		matches = append(matches, Match{Name: name, Snippet: snippet(content, idx, len(query))})
	}
	return matches, nil
}

func snippet(content string, idx, matchLen int) string {
	const radius = 40
	start := idx - radius
	if start < 0 {
		start = 0
	}
	end := idx + matchLen + radius
	if end > len(content) {
		end = len(content)
	}
	return content[start:end]
}

// Edit reads memory name, applies a single substitution (literal substring
// or regex, compiled once), and writes the result back.
func (s *Store) Edit(name, find, replace string, mode EditMode) error {
	content, err := s.Read(name)
	if err != nil {
		return err
	}

	var updated string
	switch mode {
	case EditRegex:
		re, err := regexp.Compile(find)
		if err != nil {
			return apierr.Wrap(apierr.InvalidParameter, err, "compile regex %q", find)
		}
		updated = re.ReplaceAllString(content, replace)
	default:
		updated = strings.ReplaceAll(content, find, replace)
	}

	return s.Write(name, updated, "")
}

// Sync reconciles the index against the filesystem: every markdown file on
// disk gets an up-to-date index row, and rows for files no longer present
// are removed. It returns the number of rows reconciled.
func (s *Store) Sync() (int, error) {
	names, err := s.listFromDisk()
	if err != nil {
		return 0, err
	}

	reconciled := 0
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
		content, err := os.ReadFile(s.path(name))
		if err != nil {
			continue
		}
		info, err := os.Stat(s.path(name))
		if err != nil {
			continue
		}

		var exists bool
		_ = s.db.QueryRow(`SELECT 1 FROM memories WHERE name = ?`, name).Scan(&exists)

		createdAt := info.ModTime()
		if exists {
			_ = s.db.QueryRow(`SELECT created_at FROM memories WHERE name = ?`, name).Scan(&createdAt)
		}

		_, err = s.db.Exec(`
INSERT INTO memories (name, content, tags, size_bytes, created_at, updated_at)
VALUES (?, ?, '', ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET content=excluded.content, size_bytes=excluded.size_bytes,
    updated_at=excluded.updated_at
`, name, string(content), len(content), createdAt, info.ModTime())
		if err != nil {
			return reconciled, apierr.Wrap(apierr.Io, err, "reconcile index row for %s", name)
		}
		reconciled++
	}

	rows, err := s.db.Query(`SELECT name FROM memories`)
	if err == nil {
		var stale []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err == nil && !seen[name] {
				stale = append(stale, name)
			}
		}
		rows.Close()
		for _, name := range stale {
			if _, err := s.db.Exec(`DELETE FROM memories WHERE name = ?`, name); err == nil {
				reconciled++
			}
		}
	}

	return reconciled, nil
}

// atomicWriteFile writes content to path via write-to-temp plus rename.
func atomicWriteFile(path, content string) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file into %s: %w", path, err)
	}
	return nil
}
