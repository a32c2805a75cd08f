package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"clouddisk/internal/storage"
)

// FileService handles user file uploads and deletions against the blob
// store.
type FileService interface {
	Upload(ctx context.Context, username, dir string, file *multipart.FileHeader) (*storage.SavedFile, error)
	Delete(ctx context.Context, path string) (bool, error)
}

type fileService struct {
	store *storage.LocalStore
}

// NewFileService builds a FileService on top of the blob store.
func NewFileService(store *storage.LocalStore) FileService {
	return &fileService{store: store}
}

// Upload stores the multipart file under the user's directory.
func (s *fileService) Upload(_ context.Context, username, dir string, file *multipart.FileHeader) (*storage.SavedFile, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	saved, err := s.store.Save(username, dir, file.Filename, src)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	return saved, nil
}

// Delete removes a stored file by its relative path. It reports false
// when the file was already gone.
func (s *fileService) Delete(_ context.Context, path string) (bool, error) {
	return s.store.Delete(path)
}
