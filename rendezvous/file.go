package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/ruteri/nfc-attendance/interfaces"
)

const (
	// ModeMarkerName is the file present while a registration scan is pending.
	ModeMarkerName = "registration_mode.flag"

	// CaptureMarkerName is the file holding a captured, unconsumed tag.
	CaptureMarkerName = "scanned_uid.txt"

	lockFileName       = "rendezvous.lock"
	waitingModeContent = "waiting"
	lockRetryDelay     = 10 * time.Millisecond
)

// FileStore implements interfaces.RendezvousStore with marker files in a directory
// shared by the gateway and agent processes.
type FileStore struct {
	baseDir     string
	modePath    string
	capturePath string
	log         *slog.Logger

	// flock does not exclude goroutines sharing one Flock, so mu does.
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileStore creates a file rendezvous store in baseDir, creating the directory if needed.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create base directory: %w", interfaces.ErrStoreUnavailable, err)
	}

	return &FileStore{
		baseDir:     baseDir,
		modePath:    filepath.Join(baseDir, ModeMarkerName),
		capturePath: filepath.Join(baseDir, CaptureMarkerName),
		log:         log,
		lock:        flock.New(filepath.Join(baseDir, lockFileName)),
	}, nil
}

// OpenWindow writes the mode marker and removes any captured tag.
func (s *FileStore) OpenWindow(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		if err := removeIfExists(s.capturePath); err != nil {
			return err
		}
		if err := s.writeAtomic(s.modePath, waitingModeContent); err != nil {
			return err
		}
		s.log.Debug("Registration window opened", slog.String("path", s.modePath))
		return nil
	})
}

// TryCapture records tag as captured if the mode marker is present.
func (s *FileStore) TryCapture(ctx context.Context, tag interfaces.TagID) (bool, error) {
	captured := false
	err := s.withLock(ctx, func() error {
		waiting, err := exists(s.modePath)
		if err != nil || !waiting {
			return err
		}

		if err := s.writeAtomic(s.capturePath, tag.String()); err != nil {
			return err
		}
		if err := removeIfExists(s.modePath); err != nil {
			// Withdraw the capture so the touch is handled only as attendance.
			if cleanupErr := removeIfExists(s.capturePath); cleanupErr != nil {
				s.log.Error("Failed to withdraw capture marker", "err", cleanupErr)
			}
			return err
		}

		captured = true
		s.log.Debug("Tag captured for registration", slog.String("tag", tag.String()))
		return nil
	})
	return captured, err
}

// ConsumeCapture reads and removes the captured marker.
func (s *FileStore) ConsumeCapture(ctx context.Context) (interfaces.TagID, bool, error) {
	var tag interfaces.TagID
	found := false
	err := s.withLock(ctx, func() error {
		data, err := os.ReadFile(s.capturePath)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read captured tag: %w", err)
		}

		if err := removeIfExists(s.capturePath); err != nil {
			return err
		}

		// An empty marker still counts as consumed, but carries no tag.
		if value := strings.TrimSpace(string(data)); value != "" {
			tag = interfaces.TagID(value)
			found = true
		}
		return nil
	})
	return tag, found, err
}

// Reset removes both markers.
func (s *FileStore) Reset(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		if err := removeIfExists(s.modePath); err != nil {
			return err
		}
		return removeIfExists(s.capturePath)
	})
}

// Name returns a unique identifier for this store.
func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.baseDir))
}

// Close releases the lock file handle.
func (s *FileStore) Close() error {
	return s.lock.Close()
}

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("%w: failed to acquire lock: %w", interfaces.ErrStoreUnavailable, err)
	}
	if !locked {
		return fmt.Errorf("%w: lock not acquired", interfaces.ErrStoreUnavailable)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Error("Failed to release rendezvous lock", "err", err)
		}
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("%w: %w", interfaces.ErrStoreUnavailable, err)
	}
	return nil
}

// writeAtomic replaces path so that readers never observe a partial write.
func (s *FileStore) writeAtomic(path string, content string) error {
	tmp, err := os.CreateTemp(s.baseDir, ".marker-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary marker: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write marker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close marker: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move marker into place: %w", err)
	}
	return nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", filepath.Base(path), err)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
	}
	return nil
}
