package videos

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vidlingo/errors"
	"vidlingo/media"
	"vidlingo/models"
	"vidlingo/repository"
	"vidlingo/validation"
)

type Repository = repository.VideoRepository

type Config struct {
	// StoreDir is where imported videos are copied to.
	StoreDir string
}

type service struct {
	repo      Repository
	validator *validation.Validator
	config    Config
	logger    *logrus.Logger
}

func NewService(
	repo Repository,
	validator *validation.Validator,
	logger *logrus.Logger,
	config Config,
) Service {
	return &service{
		repo:      repo,
		validator: validator,
		config:    config,
		logger:    logger,
	}
}

// TitleFromPath derives a display title from a file path: base name without
// the extension.
func TitleFromPath(path string) string {
	base := media.SanitizeName(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *service) Import(ctx context.Context, sourcePath string) (*models.Video, error) {
	const op = "VideoService.Import"
	logger := s.logger.WithFields(logrus.Fields{
		"operation": op,
		"source":    sourcePath,
	})
	logger.Info("Importing video")

	if err := s.validator.ValidateVideoPath(sourcePath); err != nil {
		logger.WithError(err).Info("Video path validation failed")
		return nil, err
	}

	destPath, err := s.copyIntoStore(sourcePath)
	if err != nil {
		logger.WithError(err).Error("Failed to copy video into store")
		return nil, errors.Internal(op, err, "Failed to import video file")
	}

	return s.register(ctx, op, AddPayload{
		Title:    TitleFromPath(destPath),
		FilePath: destPath,
	})
}

func (s *service) Add(ctx context.Context, payload AddPayload) (*models.Video, error) {
	const op = "VideoService.Add"

	if err := s.validator.ValidateVideoPath(payload.FilePath); err != nil {
		return nil, err
	}
	if payload.Title == "" {
		payload.Title = TitleFromPath(payload.FilePath)
	}

	return s.register(ctx, op, payload)
}

func (s *service) register(ctx context.Context, op string, payload AddPayload) (*models.Video, error) {
	now := time.Now()
	video := &models.Video{
		ID:        uuid.New().String(),
		Title:     payload.Title,
		FilePath:  payload.FilePath,
		Duration:  payload.Duration,
		Status:    models.VideoStatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if info, err := os.Stat(payload.FilePath); err == nil {
		video.Size = info.Size()
	}

	if err := s.repo.Save(ctx, video); err != nil {
		return nil, errors.Internal(op, err, "Failed to save video")
	}

	s.logger.WithFields(logrus.Fields{
		"video_id": video.ID,
		"title":    video.Title,
	}).Info("Video registered")
	return video, nil
}

func (s *service) List(ctx context.Context) ([]models.Video, error) {
	const op = "VideoService.List"

	videos, err := s.repo.All(ctx)
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to list videos")
	}
	return videos, nil
}

func (s *service) Get(ctx context.Context, id string) (*models.Video, error) {
	const op = "VideoService.Get"

	if id == "" {
		return nil, errors.InvalidInput(op, nil, "Video ID is required")
	}
	return s.repo.Find(ctx, id)
}

func (s *service) Update(ctx context.Context, id string, payload UpdatePayload) (*models.Video, error) {
	const op = "VideoService.Update"

	video, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload.Title != nil {
		video.Title = *payload.Title
	}
	if payload.Duration != nil {
		video.Duration = *payload.Duration
	}
	if payload.Status != nil {
		video.Status = *payload.Status
	}
	video.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, video); err != nil {
		return nil, errors.Internal(op, err, "Failed to update video")
	}
	return video, nil
}

// Remove deletes the library entry. The file on disk is kept; the store dir
// is cleaned up separately.
func (s *service) Remove(ctx context.Context, id string) error {
	const op = "VideoService.Remove"

	if id == "" {
		return errors.InvalidInput(op, nil, "Video ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Internal(op, err, "Failed to remove video")
	}

	s.logger.WithField("video_id", id).Info("Video removed")
	return nil
}

// copyIntoStore copies the source into StoreDir under its sanitized base
// name, appending _1, _2, ... when the name is taken.
func (s *service) copyIntoStore(sourcePath string) (string, error) {
	if err := os.MkdirAll(s.config.StoreDir, 0o755); err != nil {
		return "", err
	}

	base := media.SanitizeName(sourcePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	destPath := filepath.Join(s.config.StoreDir, base)
	for n := 1; ; n++ {
		if _, err := os.Stat(destPath); os.IsNotExist(err) {
			break
		}
		destPath = filepath.Join(s.config.StoreDir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(destPath)
		return "", err
	}
	return destPath, nil
}
