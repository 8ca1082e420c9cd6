package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/askchopper-dev/askchopper/internal/service"
)

const thumbnailDir = "thumbnails"

type Storage struct {
	rootPath string
}

// Ensure Storage struct implements the interface at compile time.
var _ service.MediaStorage = (*Storage)(nil)

func New(rootPath string) (*Storage, error) {
	// Use filepath.Clean to prevent path traversal issues like "uploads/../"
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(filepath.Join(p, thumbnailDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directories under %s: %w", p, err)
	}

	return &Storage{rootPath: p}, nil
}

// Save writes a file under the uploads root using the given stored filename.
// The caller is responsible for generating a collision-free name.
// Returns the absolute path of the written file.
func (s *Storage) Save(fileData io.Reader, storedFilename string) (string, error) {
	fullPath := filepath.Join(s.rootPath, filepath.Base(storedFilename))

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, fileData); err != nil {
		// If the copy fails, clean up the partial file. Best effort.
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to copy file data: %w", err)
	}

	return fullPath, nil
}

// SaveThumbnail writes thumbnail bytes under uploads/thumbnails/.
// Returns the thumbnail filename relative to the thumbnails directory.
func (s *Storage) SaveThumbnail(data []byte, thumbFilename string) (string, error) {
	name := filepath.Base(thumbFilename)
	fullPath := filepath.Join(s.rootPath, thumbnailDir, name)

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write thumbnail: %w", err)
	}

	return name, nil
}

// Read opens a stored file for reading.
func (s *Storage) Read(storedFilename string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.rootPath, filepath.Base(storedFilename))

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("attachment not found: %w", err)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// DeleteFile removes a stored file. A missing file is reported via a
// wrapped os.ErrNotExist so the caller can log the discrepancy without
// treating it as fatal.
func (s *Storage) DeleteFile(storedFilename string) error {
	fullPath := filepath.Join(s.rootPath, filepath.Base(storedFilename))

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file already missing: %w", err)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// DeleteThumbnail removes a thumbnail, with the same missing-file contract
// as DeleteFile.
func (s *Storage) DeleteThumbnail(thumbFilename string) error {
	fullPath := filepath.Join(s.rootPath, thumbnailDir, filepath.Base(thumbFilename))

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("thumbnail already missing: %w", err)
		}
		return fmt.Errorf("failed to delete thumbnail: %w", err)
	}
	return nil
}

// RootPath returns the uploads root, used to serve /uploads statically.
func (s *Storage) RootPath() string {
	return s.rootPath
}
