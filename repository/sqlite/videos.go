package sqlite

import (
	"context"
	"database/sql"
	"time"

	"vidlingo/errors"
	"vidlingo/models"
)

type VideoRepository struct {
	db *DB
}

func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Save(ctx context.Context, video *models.Video) error {
	const op = "VideoRepository.Save"

	for i := 0; i < 3; i++ { // Simple retry logic
		_, err := r.db.stmts.upsertVideo.ExecContext(ctx,
			video.ID,
			video.Title,
			nullString(video.FilePath),
			nullFloat(video.Duration),
			video.Size,
			string(video.Status),
			video.CreatedAt,
			video.UpdatedAt,
		)
		if err == nil {
			return nil
		}
		if !isLockError(err) {
			return errors.Internal(op, err, "Failed to save video")
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return errors.Internal(op, nil, "Failed after retries")
}

func (r *VideoRepository) Find(ctx context.Context, id string) (*models.Video, error) {
	const op = "VideoRepository.Find"

	row := r.db.stmts.getVideo.QueryRowContext(ctx, id)
	video, err := scanVideo(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "Video not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to query video")
	}
	return video, nil
}

func (r *VideoRepository) All(ctx context.Context) ([]models.Video, error) {
	const op = "VideoRepository.All"

	rows, err := r.db.stmts.allVideos.QueryContext(ctx)
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to query videos")
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows.Scan)
		if err != nil {
			return nil, errors.Internal(op, err, "Failed to scan video")
		}
		videos = append(videos, *video)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "Failed to iterate videos")
	}
	return videos, nil
}

func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	const op = "VideoRepository.Delete"

	if _, err := r.db.stmts.deleteVideo.ExecContext(ctx, id); err != nil {
		return errors.Internal(op, err, "Failed to delete video")
	}
	return nil
}

func scanVideo(scan scanFn) (*models.Video, error) {
	var (
		video    models.Video
		filePath sql.NullString
		duration sql.NullFloat64
		status   string
	)

	err := scan(
		&video.ID,
		&video.Title,
		&filePath,
		&duration,
		&video.Size,
		&status,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	video.FilePath = filePath.String
	video.Duration = duration.Float64
	video.Status = models.VideoStatus(status)
	return &video, nil
}
