package sqlite

import (
	"context"
	"database/sql"
	"time"

	"vidlingo/errors"
	"vidlingo/models"
)

type CardRepository struct {
	db *DB
}

func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Save(ctx context.Context, card *models.Card) error {
	const op = "CardRepository.Save"

	for i := 0; i < 3; i++ { // Simple retry logic
		err := r.save(ctx, r.db.stmts.upsertCard, card)
		if err == nil {
			return nil
		}
		if !isLockError(err) {
			return errors.Internal(op, err, "Failed to save card")
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return errors.Internal(op, nil, "Failed after retries")
}

func (r *CardRepository) save(ctx context.Context, stmt *sql.Stmt, card *models.Card) error {
	_, err := stmt.ExecContext(ctx,
		card.ID,
		string(card.Type),
		card.Front,
		card.Back,
		nullString(card.VideoID),
		nullString(card.VideoTitle),
		nullFloat(card.VideoTime),
		nullString(string(card.Ease)),
		nullTime(card.LastReviewedAt),
		nullTime(card.NextReviewAt),
		nullString(card.Phonetic),
		nullString(card.Definition),
		nullString(card.Translation),
		nullString(card.Pos),
		nullString(card.Tag),
		nullString(card.Collins),
		nullString(card.Oxford),
	)
	return err
}

// SaveAll writes a batch of cards in a single transaction.
func (r *CardRepository) SaveAll(ctx context.Context, cards []models.Card) error {
	const op = "CardRepository.SaveAll"

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Internal(op, err, "Failed to begin transaction")
	}
	defer tx.Rollback()

	stmt := tx.StmtContext(ctx, r.db.stmts.upsertCard)
	for i := range cards {
		if err := r.save(ctx, stmt, &cards[i]); err != nil {
			return errors.Internal(op, err, "Failed to save card batch")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Internal(op, err, "Failed to commit card batch")
	}
	return nil
}

func (r *CardRepository) Find(ctx context.Context, id string) (*models.Card, error) {
	const op = "CardRepository.Find"

	row := r.db.stmts.getCard.QueryRowContext(ctx, id)
	card, err := scanCard(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "Card not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to query card")
	}
	return card, nil
}

func (r *CardRepository) All(ctx context.Context) ([]models.Card, error) {
	const op = "CardRepository.All"

	rows, err := r.db.stmts.allCards.QueryContext(ctx)
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to query cards")
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows.Scan)
		if err != nil {
			return nil, errors.Internal(op, err, "Failed to scan card")
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal(op, err, "Failed to iterate cards")
	}
	return cards, nil
}

func (r *CardRepository) Delete(ctx context.Context, id string) error {
	const op = "CardRepository.Delete"

	if _, err := r.db.stmts.deleteCard.ExecContext(ctx, id); err != nil {
		return errors.Internal(op, err, "Failed to delete card")
	}
	return nil
}

func (r *CardRepository) DeleteAll(ctx context.Context) error {
	const op = "CardRepository.DeleteAll"

	if _, err := r.db.stmts.deleteAllCards.ExecContext(ctx); err != nil {
		return errors.Internal(op, err, "Failed to clear cards")
	}
	return nil
}

type scanFn func(dest ...interface{}) error

func scanCard(scan scanFn) (*models.Card, error) {
	var (
		card         models.Card
		cardType     string
		videoID      sql.NullString
		videoTitle   sql.NullString
		videoTime    sql.NullFloat64
		ease         sql.NullString
		lastReviewed sql.NullTime
		nextReview   sql.NullTime
		phonetic     sql.NullString
		definition   sql.NullString
		translation  sql.NullString
		pos          sql.NullString
		tag          sql.NullString
		collins      sql.NullString
		oxford       sql.NullString
	)

	err := scan(
		&card.ID,
		&cardType,
		&card.Front,
		&card.Back,
		&videoID,
		&videoTitle,
		&videoTime,
		&ease,
		&lastReviewed,
		&nextReview,
		&phonetic,
		&definition,
		&translation,
		&pos,
		&tag,
		&collins,
		&oxford,
	)
	if err != nil {
		return nil, err
	}

	card.Type = models.CardType(cardType)
	card.VideoID = videoID.String
	card.VideoTitle = videoTitle.String
	card.VideoTime = videoTime.Float64
	card.Ease = models.Ease(ease.String)
	if lastReviewed.Valid {
		card.LastReviewedAt = lastReviewed.Time
	}
	if nextReview.Valid {
		card.NextReviewAt = nextReview.Time
	}
	card.Phonetic = phonetic.String
	card.Definition = definition.String
	card.Translation = translation.String
	card.Pos = pos.String
	card.Tag = tag.String
	card.Collins = collins.String
	card.Oxford = oxford.String

	return &card, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f != 0}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
