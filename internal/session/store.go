package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"script-server/internal/models"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fixed artifact names inside a session directory.
const (
	CharacterFile = "character.txt"
	StoryFile     = "story.txt"
	GeneratedFile = "generated.txt"
	ReasoningFile = "reasoning.txt"

	lockFileName = ".generate.lock"
)

// downloadable is the allow-list served by the download endpoint.
var downloadable = map[string]struct{}{
	CharacterFile: {},
	StoryFile:     {},
	GeneratedFile: {},
	ReasoningFile: {},
}

// IsDownloadable reports whether name is one of the four session artifacts.
func IsDownloadable(name string) bool {
	_, ok := downloadable[name]
	return ok
}

// Store keeps one directory per session under root.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore creates root if needed and returns a Store over it.
func NewStore(root string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory %s: %w", root, err)
	}
	return &Store{root: root, logger: logger.Named("SessionStore")}, nil
}

// Root returns the uploads root directory.
func (s *Store) Root() string {
	return s.root
}

// validID accepts only canonical UUID strings, so an id can never
// name anything outside root.
func validID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}

// Create allocates a new session id and its directory.
func (s *Store) Create() (string, error) {
	id := uuid.NewString()
	if err := os.Mkdir(s.dir(id), 0o755); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}
	s.logger.Debug("Session created", zap.String("session_id", id))
	return id, nil
}

func (s *Store) dir(id string) string {
	return filepath.Join(s.root, id)
}

// Exists reports whether the session directory exists.
func (s *Store) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	info, err := os.Stat(s.dir(id))
	return err == nil && info.IsDir()
}

// FilePath returns the on-disk path of an artifact. It does not check existence.
func (s *Store) FilePath(id, name string) string {
	return filepath.Join(s.dir(id), name)
}

// FileExists reports whether the artifact exists as a regular file.
func (s *Store) FileExists(id, name string) bool {
	if !validID(id) {
		return false
	}
	info, err := os.Stat(s.FilePath(id, name))
	return err == nil && info.Mode().IsRegular()
}

// Save streams r into the named artifact and returns the number of bytes written.
func (s *Store) Save(id, name string, r io.Reader) (int64, error) {
	if !validID(id) {
		return 0, models.ErrSessionNotFound
	}
	f, err := os.Create(s.FilePath(id, name))
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", name, err)
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("failed to write %s: %w", name, err)
	}
	return n, nil
}

// ReadText returns the artifact's content as a string.
func (s *Store) ReadText(id, name string) (string, error) {
	if !validID(id) {
		return "", models.ErrSessionNotFound
	}
	data, err := os.ReadFile(s.FilePath(id, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", models.ErrFileNotFound, name)
		}
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

// WriteText replaces the artifact's content. The data goes to a temporary file
// first and is renamed into place, so readers never observe a partial file.
func (s *Store) WriteText(id, name, content string) error {
	if !validID(id) {
		return models.ErrSessionNotFound
	}
	tmp, err := os.CreateTemp(s.dir(id), "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := io.WriteString(tmp, content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.FilePath(id, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return nil
}

// RemoveFile deletes a single artifact. A missing file is not an error.
func (s *Store) RemoveFile(id, name string) error {
	if !validID(id) {
		return models.ErrSessionNotFound
	}
	if err := os.Remove(s.FilePath(id, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// Remove deletes the session directory and everything in it.
func (s *Store) Remove(id string) error {
	if !validID(id) {
		return models.ErrSessionNotFound
	}
	if err := os.RemoveAll(s.dir(id)); err != nil {
		return fmt.Errorf("failed to remove session %s: %w", id, err)
	}
	return nil
}

// TryLock takes the session's generation lock without waiting.
// It returns models.ErrGenerationInProgress when another holder has it.
func (s *Store) TryLock(id string) (unlock func(), err error) {
	if !s.Exists(id) {
		return nil, models.ErrSessionNotFound
	}
	fl := flock.New(s.FilePath(id, lockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !ok {
		return nil, models.ErrGenerationInProgress
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("Failed to release session lock", zap.String("session_id", id), zap.Error(err))
		}
	}, nil
}

// Sweep removes sessions whose directory was last modified before cutoff.
// Sessions with a generation in progress are skipped. It returns how many
// sessions were removed.
func (s *Store) Sweep(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("failed to list uploads directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		id := entry.Name()
		if !entry.IsDir() || !validID(id) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("Failed to stat session", zap.String("session_id", id), zap.Error(err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		unlock, err := s.TryLock(id)
		if err != nil {
			s.logger.Debug("Skipping session during sweep", zap.String("session_id", id), zap.Error(err))
			continue
		}
		removeErr := s.Remove(id)
		unlock()
		if removeErr != nil {
			s.logger.Warn("Failed to remove expired session", zap.String("session_id", id), zap.Error(removeErr))
			continue
		}
		removed++
	}
	return removed, nil
}
