// Package sink writes generated artifacts.
package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/broady/nano/nanogen/diag"
)

var log = logging.Logger("nano/sink")

// Sink receives generated files. Implementations are safe for concurrent use.
type Sink interface {
	// WriteFile stores content under a slash-separated path relative to the
	// sink's root.
	WriteFile(ctx context.Context, path string, content []byte) error
}

// Dir writes files below Root. Each file is written to a temporary sibling
// and renamed into place, so readers never see a partial artifact.
type Dir struct {
	Root string
	// Mode defaults to 0644.
	Mode os.FileMode
	// SkipUnchanged leaves files whose content already matches untouched,
	// keeping their modification time.
	SkipUnchanged bool
}

// NewDir returns a Dir rooted at root.
func NewDir(root string) *Dir {
	return &Dir{Root: root, Mode: 0o644}
}

func (d *Dir) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return diag.New(diag.IoError, path, fmt.Errorf("invalid output path: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full := filepath.Join(d.Root, filepath.FromSlash(path))
	if d.SkipUnchanged {
		if old, err := os.ReadFile(full); err == nil && string(old) == string(content) {
			log.Debugw("unchanged", "path", full)
			return nil
		}
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return diag.New(diag.IoError, full, err)
	}
	tmp, err := os.CreateTemp(dir, ".nano-*.tmp")
	if err != nil {
		return diag.New(diag.IoError, full, err)
	}
	// Removing after a successful rename is a no-op.
	defer os.Remove(tmp.Name())

	_, werr := tmp.Write(content)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return diag.New(diag.IoError, full, werr)
	}
	mode := d.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return diag.New(diag.IoError, full, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return diag.New(diag.IoError, full, err)
	}
	log.Infow("wrote", "path", full, "bytes", len(content))
	return nil
}

// Memory keeps files in memory.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

func (m *Memory) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return diag.New(diag.IoError, path, fmt.Errorf("invalid output path: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), content...)
	return nil
}

// Get returns a copy of the file at path, or nil.
func (m *Memory) Get(path string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[path]
	if !ok {
		return nil
	}
	return append([]byte(nil), content...)
}

// Paths lists the stored paths in order.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ValidatePath rejects paths that are empty, absolute, unclean or that climb
// out of the sink's root.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return errors.New("path is empty")
	case filepath.IsAbs(path) || strings.HasPrefix(path, "/") || hasDrive(path):
		return errors.New("absolute paths not allowed")
	}
	slashed := filepath.ToSlash(path)
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return errors.New("path traversal not allowed")
		}
	}
	if clean := filepath.ToSlash(filepath.Clean(path)); clean != slashed {
		return fmt.Errorf("path is not clean (expected %q)", clean)
	}
	return nil
}

func hasDrive(path string) bool {
	if len(path) < 2 || path[1] != ':' {
		return false
	}
	c := path[0] | 0x20
	return c >= 'a' && c <= 'z'
}
