package tempfile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"databox/internal/pkg/logging"
)

// MaxFileSize caps a single staged upload.
const MaxFileSize = 50 * 1024 * 1024 // 50 MB

// File describes one staged upload. Content is read through Open so large
// files are never buffered in memory.
type File struct {
	ID          string
	Name        string
	ContentType string
	Size        int64

	fs   afero.Fs
	path string
}

// Open returns a reader over the file content. The caller closes it.
func (f *File) Open() (io.ReadCloser, error) {
	return f.fs.Open(f.path)
}

// Store keeps each staged upload in its own uuid-named directory under a
// base dir, exactly one file per directory. Directory mtime doubles as the
// staging timestamp for expiry sweeps.
type Store struct {
	fs      afero.Fs
	baseDir string
}

func NewStore(fs afero.Fs, baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = "uploads/tmp"
	}
	if err := fs.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{fs: fs, baseDir: baseDir}, nil
}

// Save stages the content of src and returns the opaque id for it.
func (s *Store) Save(ctx context.Context, fileName string, size int64, src io.Reader) (string, error) {
	if size == 0 {
		return "", ErrEmptyFile
	}
	if size > MaxFileSize {
		return "", ErrFileTooLarge
	}

	id := uuid.NewString()
	dir := path.Join(s.baseDir, id)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	dst, err := s.fs.Create(path.Join(dir, sanitizeName(fileName)))
	if err != nil {
		_ = s.fs.RemoveAll(dir)
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = s.fs.RemoveAll(dir)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}

	return id, nil
}

// Get returns the staged file for id, or ErrFileNotFound.
func (s *Store) Get(ctx context.Context, id string) (*File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	dir := path.Join(s.baseDir, id)
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to read staging directory: %w", err)
	}

	var info os.FileInfo
	for _, e := range entries {
		if !e.IsDir() {
			info = e
			break
		}
	}
	if info == nil {
		return nil, ErrFileNotFound
	}

	f := &File{
		ID:   id,
		Name: info.Name(),
		Size: info.Size(),
		fs:   s.fs,
		path: path.Join(dir, info.Name()),
	}
	f.ContentType = s.detectContentType(f)
	return f, nil
}

// Delete removes the staged file for id. Asking for an absent id yields
// ErrFileNotFound so callers can report it, unlike the sweep path which
// treats it as a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}

	dir := path.Join(s.baseDir, id)
	if _, err := s.fs.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to stat staging directory: %w", err)
	}

	return s.fs.RemoveAll(dir)
}

// ExpiredIDs lists staged ids whose directory mtime is at or before the
// threshold.
func (s *Store) ExpiredIDs(ctx context.Context, threshold time.Time) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list staging directories: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			logging.Warn("skipping unexpected entry in upload dir", "name", e.Name())
			continue
		}
		if !e.ModTime().After(threshold) {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

func (s *Store) detectContentType(f *File) string {
	rc, err := f.Open()
	if err != nil {
		return "application/octet-stream"
	}
	defer rc.Close()

	buf := make([]byte, 512)
	n, _ := rc.Read(buf)
	ct := http.DetectContentType(buf[:n])
	return strings.Split(ct, ";")[0]
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "file"
	}
	return name
}
