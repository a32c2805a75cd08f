package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidPath is returned for paths that escape the upload root.
var ErrInvalidPath = errors.New("invalid file path")

// SavedFile describes a stored upload.
type SavedFile struct {
	URL  string `json:"url"`
	Path string `json:"path"`
	Name string `json:"name"`
	Ext  string `json:"ext"`
}

// LocalStore keeps uploads on the local filesystem under
// <staticDir>/upload/<username>[/<dir>]/. The static root is served
// directly by the web layer.
type LocalStore struct {
	staticDir string
	uploadDir string
}

// NewLocalStore ensures the static and upload roots exist.
func NewLocalStore(staticDir string) (*LocalStore, error) {
	uploadDir := filepath.Join(staticDir, "upload")
	for _, dir := range []string{staticDir, uploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return &LocalStore{staticDir: staticDir, uploadDir: uploadDir}, nil
}

// Save writes src into the user's upload directory under a unique name
// and returns where it landed. subDir may be empty.
func (s *LocalStore) Save(username, subDir, filename string, src io.Reader) (*SavedFile, error) {
	if !validSegment(username) || (subDir != "" && !validSegment(subDir)) {
		return nil, ErrInvalidPath
	}

	dir := filepath.Join(s.uploadDir, username)
	if subDir != "" {
		dir = filepath.Join(dir, subDir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	stored := uuid.New().String()[:8] + "_" + base

	dst, err := os.Create(filepath.Join(dir, stored))
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	rel := path.Join("upload", username)
	if subDir != "" {
		rel = path.Join(rel, subDir)
	}
	rel = path.Join(rel, stored)

	return &SavedFile{
		URL:  "/" + rel,
		Path: rel,
		Name: stored,
		Ext:  ext,
	}, nil
}

// Delete removes a previously stored file by its relative path. It
// reports false without error when the file does not exist. Paths that
// resolve outside the upload root are rejected.
func (s *LocalStore) Delete(relPath string) (bool, error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return false, err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove file: %w", err)
	}
	return true, nil
}

// Exists reports whether a stored file is present.
func (s *LocalStore) Exists(relPath string) bool {
	full, err := s.resolve(relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// resolve maps a client-supplied relative path onto the filesystem and
// rejects anything escaping the upload root.
func (s *LocalStore) resolve(relPath string) (string, error) {
	relPath = strings.TrimPrefix(relPath, "/")
	full := filepath.Join(s.staticDir, filepath.FromSlash(relPath))

	uploadRoot := s.uploadDir + string(filepath.Separator)
	if !strings.HasPrefix(full, uploadRoot) {
		return "", ErrInvalidPath
	}
	return full, nil
}

func validSegment(seg string) bool {
	return seg != "" && seg != "." && seg != ".." &&
		!strings.ContainsAny(seg, "/\\")
}
