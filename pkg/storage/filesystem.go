package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/noah-isme/wedding-dispatch-api/pkg/errors"
)

var allowedPhotoExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// NormalizePhotoExtension lower-cases the extension of filename and reports
// whether it is an accepted arrival photo type.
func NormalizePhotoExtension(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := allowedPhotoExtensions[ext]
	return ext, ok
}

// PhotoStorage persists arrival photos on disk under a base directory.
type PhotoStorage struct {
	baseDir string
}

// NewPhotoStorage ensures the base directory exists and returns a handle.
func NewPhotoStorage(baseDir string) (*PhotoStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &PhotoStorage{baseDir: baseDir}, nil
}

// SavePhoto writes data under a collision-free name derived from prefix and
// returns the stored reference. Unsupported extensions are rejected before
// anything touches the disk.
func (s *PhotoStorage) SavePhoto(prefix, originalName string, data []byte) (string, error) {
	ext, ok := NormalizePhotoExtension(originalName)
	if !ok {
		return "", appErrors.ErrUnsupportedPhoto
	}
	name := fmt.Sprintf("%s_%s%s", sanitize(prefix), strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
	if err := os.WriteFile(s.resolve(name), data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return name, nil
}

// Open returns a read-only handle for the stored photo.
func (s *PhotoStorage) Open(ref string) (*os.File, error) {
	file, err := os.Open(s.resolve(ref))
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	return file, nil
}

// Delete removes a stored photo if present.
func (s *PhotoStorage) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	if err := os.Remove(s.resolve(ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// CleanupOlderThan removes photos older than ttl and returns deleted refs.
func (s *PhotoStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read upload directory: %w", err)
	}
	deleted := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return deleted, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return deleted, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		deleted = append(deleted, entry.Name())
	}
	return deleted, nil
}

// resolve confines refs to the base directory.
func (s *PhotoStorage) resolve(ref string) string {
	return filepath.Join(s.baseDir, filepath.Base(ref))
}

func sanitize(prefix string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, prefix)
}
