package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"portfolio_cms/internal/lib/logger/sl"
	storage "portfolio_cms/internal/storage"
	filestorage "portfolio_cms/internal/storage/filestorage"
	"portfolio_cms/internal/transport/http/dto"
)

// allowedFolders are the only storage destinations: the two profile image
// folders plus one folder per item collection.
var allowedFolders = map[string]bool{
	"avatars":  true,
	"covers":   true,
	"skills":   true,
	"projects": true,
	"posts":    true,
	"gallery":  true,
}

type MediaService struct {
	log         *slog.Logger
	fileStorage filestorage.FileStorage
	maxSize     int64
}

func NewMediaService(log *slog.Logger, fileStorage filestorage.FileStorage, maxSize int64) *MediaService {
	return &MediaService{
		log:         log,
		fileStorage: fileStorage,
		maxSize:     maxSize,
	}
}

// Upload stores the blob under folder/<unix-milli>_<name> and returns its
// public URL. The caller must not assume the URL is referenced anywhere
// until it also saves the record pointing at it; there is no rollback
// binding the two writes.
func (s *MediaService) Upload(ctx context.Context, input dto.MediaUploadInput) (*dto.MediaUploadResult, error) {
	const op = "media_service.Upload"

	log := s.log.With(
		slog.String("op", op),
		slog.String("folder", input.Folder),
	)

	if !allowedFolders[input.Folder] {
		log.Warn("upload to unknown folder rejected")
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidFolder)
	}

	if s.maxSize > 0 && input.File.Size > s.maxSize {
		log.Warn("file too large", slog.Int64("size", input.File.Size))
		return nil, fmt.Errorf("%s: %w", op, storage.ErrFileTooLarge)
	}

	relPath := path.Join(input.Folder, storedName(input.File.Filename))

	size, err := s.fileStorage.Save(ctx, input.File, relPath)
	if err != nil {
		log.Error("failed to save file", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	url := s.fileStorage.PublicURL(relPath)

	log.Info("upload complete",
		slog.String("path", relPath),
		slog.Int64("size", size),
	)

	return &dto.MediaUploadResult{
		URL:  url,
		Path: relPath,
		Size: size,
	}, nil
}

// storedName prefixes the original name with a millisecond timestamp. Two
// same-named uploads collide only within the same millisecond.
func storedName(original string) string {
	name := path.Base(original)
	name = strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), name)
}
