package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"vidlingo/errors"
)

const (
	upsertCardQuery = `
        INSERT INTO cards (
            id, type, front, back, video_id, video_title, video_time,
            ease, last_reviewed_at, next_review_at,
            phonetic, definition, translation, pos, tag, collins, oxford
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            type = excluded.type,
            front = excluded.front,
            back = excluded.back,
            video_id = excluded.video_id,
            video_title = excluded.video_title,
            video_time = excluded.video_time,
            ease = excluded.ease,
            last_reviewed_at = excluded.last_reviewed_at,
            next_review_at = excluded.next_review_at,
            phonetic = excluded.phonetic,
            definition = excluded.definition,
            translation = excluded.translation,
            pos = excluded.pos,
            tag = excluded.tag,
            collins = excluded.collins,
            oxford = excluded.oxford
    `

	getCardQuery = `
        SELECT id, type, front, back, video_id, video_title, video_time,
               ease, last_reviewed_at, next_review_at,
               phonetic, definition, translation, pos, tag, collins, oxford
        FROM cards WHERE id = ?
    `

	allCardsQuery = `
        SELECT id, type, front, back, video_id, video_title, video_time,
               ease, last_reviewed_at, next_review_at,
               phonetic, definition, translation, pos, tag, collins, oxford
        FROM cards ORDER BY rowid
    `

	deleteCardQuery     = `DELETE FROM cards WHERE id = ?`
	deleteAllCardsQuery = `DELETE FROM cards`

	upsertVideoQuery = `
        INSERT INTO videos (
            id, title, file_path, duration, size, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            title = excluded.title,
            file_path = excluded.file_path,
            duration = excluded.duration,
            size = excluded.size,
            status = excluded.status,
            updated_at = excluded.updated_at
    `

	getVideoQuery = `
        SELECT id, title, file_path, duration, size, status, created_at, updated_at
        FROM videos WHERE id = ?
    `

	allVideosQuery = `
        SELECT id, title, file_path, duration, size, status, created_at, updated_at
        FROM videos ORDER BY created_at
    `

	deleteVideoQuery = `DELETE FROM videos WHERE id = ?`
)

type statements struct {
	upsertCard     *sql.Stmt
	getCard        *sql.Stmt
	allCards       *sql.Stmt
	deleteCard     *sql.Stmt
	deleteAllCards *sql.Stmt
	upsertVideo    *sql.Stmt
	getVideo       *sql.Stmt
	allVideos      *sql.Stmt
	deleteVideo    *sql.Stmt
}

func (s *statements) prepare(ctx context.Context, db *sql.DB) error {
	const op = "statements.prepare"

	prepared := []struct {
		stmt  **sql.Stmt
		query string
		name  string
	}{
		{&s.upsertCard, upsertCardQuery, "upsert card"},
		{&s.getCard, getCardQuery, "get card"},
		{&s.allCards, allCardsQuery, "all cards"},
		{&s.deleteCard, deleteCardQuery, "delete card"},
		{&s.deleteAllCards, deleteAllCardsQuery, "delete all cards"},
		{&s.upsertVideo, upsertVideoQuery, "upsert video"},
		{&s.getVideo, getVideoQuery, "get video"},
		{&s.allVideos, allVideosQuery, "all videos"},
		{&s.deleteVideo, deleteVideoQuery, "delete video"},
	}

	for _, p := range prepared {
		stmt, err := db.PrepareContext(ctx, p.query)
		if err != nil {
			return errors.Internal(op, err, fmt.Sprintf("failed to prepare %s statement", p.name))
		}
		*p.stmt = stmt
	}

	return nil
}

func (s *statements) close() error {
	var errs []error

	all := [...]*sql.Stmt{
		s.upsertCard, s.getCard, s.allCards, s.deleteCard, s.deleteAllCards,
		s.upsertVideo, s.getVideo, s.allVideos, s.deleteVideo,
	}

	for _, stmt := range all {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to close prepared statements: %v", errs)
	}

	return nil
}
