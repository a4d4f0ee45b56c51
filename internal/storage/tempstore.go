package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// uploadName matches names produced by NewPath, with or without the codec
// extension the normalizer appends.
var uploadName = regexp.MustCompile(`^[0-9a-f]{32}(\.(webm|m4a|wav|mp3))?$`)

// IsUploadName reports whether name could have been created by this store.
func IsUploadName(name string) bool {
	return uploadName.MatchString(name)
}

// TempStore owns the directory where uploads land before transcription.
type TempStore struct {
	dir string
	log *slog.Logger
}

// NewTempStore ensures dir exists and returns a store rooted there.
func NewTempStore(dir string, logger *slog.Logger) (*TempStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory must be configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &TempStore{
		dir: dir,
		log: logger.With("component", "storage.TempStore"),
	}, nil
}

func (s *TempStore) Dir() string {
	return s.dir
}

// NewPath returns a fresh, collision-free path inside the store. Nothing is created.
func (s *TempStore) NewPath() string {
	return filepath.Join(s.dir, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Remove deletes path, treating an already missing file as success.
func (s *TempStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// StartSweeper periodically removes files older than ttl. Requests clean up after
// themselves; the sweeper only catches files orphaned by a crash mid-request.
func (s *TempStore) StartSweeper(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	go s.sweepLoop(ctx, interval, ttl)
}

func (s *TempStore) sweepLoop(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(time.Now().Add(-ttl)); err != nil {
				s.log.Warn("sweep upload directory failed", "error", err)
			}
		}
	}
}

// Sweep removes upload files last modified before cutoff and reports how many
// were deleted. Files the store did not name are never touched.
func (s *TempStore) Sweep(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsUploadName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := s.Remove(path); err != nil {
			s.log.Warn("remove orphaned upload failed", "path", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("removed orphaned uploads", "count", removed)
	}
	return removed, nil
}
