package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"VerseClash/logger"
)

// ScratchStore manages a process-local directory for the ephemeral files
// one pipeline invocation stages. Files are namespaced by battle id and
// role, so concurrent invocations never touch the same path and no
// locking is needed.
type ScratchStore struct {
	dir string
}

// NewScratchStore creates a store rooted at dir. The directory is
// created lazily on first use.
func NewScratchStore(dir string) *ScratchStore {
	return &ScratchStore{dir: dir}
}

// Dir returns the scratch directory path.
func (s *ScratchStore) Dir() string {
	return s.dir
}

// FileName builds the scratch filename for one role of one battle,
// e.g. "beat-<battleID>.mp3".
func FileName(role, battleID, ext string) string {
	return fmt.Sprintf("%s-%s%s", role, battleID, ext)
}

// Create opens a fresh scratch file for writing and returns it together
// with the handle that owns it. The caller must close the file itself;
// the handle only owns removal.
func (s *ScratchStore) Create(name, sourceRef string) (*os.File, *AudioHandle, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create scratch directory %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scratch file %s: %w", path, err)
	}

	return f, &AudioHandle{SourceRef: sourceRef, Path: path}, nil
}

// Reserve returns a handle for a scratch path that a subprocess will
// write, without creating the file.
func (s *ScratchStore) Reserve(name, sourceRef string) (*AudioHandle, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory %s: %w", s.dir, err)
	}
	return &AudioHandle{SourceRef: sourceRef, Path: filepath.Join(s.dir, name)}, nil
}

// AudioHandle is one piece of audio material staged on scratch storage.
// The handle has exclusive ownership of the file at Path: it alone may
// delete it, and after Release the path must not be referenced again.
type AudioHandle struct {
	SourceRef string // original remote URL or data URI
	Path      string // local scratch path owned by this handle

	releaseOnce sync.Once
}

// Release removes the backing file. Idempotent: a second call is a
// no-op, never an error. A failed removal is logged and swallowed so it
// can never mask the error that triggered cleanup.
func (h *AudioHandle) Release() {
	if h == nil {
		return
	}
	h.releaseOnce.Do(func() {
		if err := os.Remove(h.Path); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove scratch file",
				logger.String("path", h.Path),
				logger.ErrorField(err))
		}
	})
}
