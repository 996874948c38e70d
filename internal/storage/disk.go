package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileNotFound     = errors.New("file not found")
	ErrFileEmpty        = errors.New("file is empty")
	ErrFileTooLarge     = errors.New("file size exceeds the maximum allowed size")
	ErrExtensionBlocked = errors.New("file extension is not allowed")
)

// allowedExtensions are the image types accepted for upload.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// Service persists uploaded files and serves them back by their stored name.
type Service interface {
	Save(filename string, size int64, r io.Reader) (string, error)
	Load(name string) ([]byte, error)
}

type diskService struct {
	dir         string
	maxFileSize int64
}

// NewDiskService stores files on the local filesystem under dir.
func NewDiskService(dir string, maxFileSize int64) Service {
	return &diskService{dir: dir, maxFileSize: maxFileSize}
}

// Save validates size and extension and writes the content under a fresh
// uuid-based name, which it returns.
func (s *diskService) Save(filename string, size int64, r io.Reader) (string, error) {
	if size == 0 {
		return "", ErrFileEmpty
	}
	if size > s.maxFileSize {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, size, s.maxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrExtensionBlocked, ext)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	// LimitReader guards against a client lying about the declared size.
	if _, err := io.Copy(f, io.LimitReader(r, s.maxFileSize+1)); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	info, err := f.Stat()
	if err == nil && info.Size() > s.maxFileSize {
		os.Remove(path)
		return "", fmt.Errorf("%w: limit %d", ErrFileTooLarge, s.maxFileSize)
	}

	return name, nil
}

// Load reads a stored file back by name.
func (s *diskService) Load(name string) ([]byte, error) {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return nil, ErrFileNotFound
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}
