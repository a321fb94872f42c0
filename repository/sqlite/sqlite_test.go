package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vidlingo/errors"
	"vidlingo/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"), Config{})
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCardRoundTrip(t *testing.T) {
	repo := NewCardRepository(testDB(t))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	card := &models.Card{
		ID:             "c1",
		Type:           models.CardTypeWord,
		Front:          "example",
		Back:           "an instance",
		VideoTitle:     "Lesson 1",
		Ease:           models.EaseNormal,
		LastReviewedAt: now,
		NextReviewAt:   now.Add(24 * time.Hour),
		Phonetic:       "ɪɡˈzɑːmpl",
		Translation:    "beispiel",
	}

	if err := repo.Save(ctx, card); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Find(ctx, "c1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got.Front != "example" || got.Ease != models.EaseNormal {
		t.Errorf("unexpected card: %+v", got)
	}
	if !got.NextReviewAt.Equal(card.NextReviewAt) {
		t.Errorf("expected next review %v, got %v", card.NextReviewAt, got.NextReviewAt)
	}

	// Upsert replaces in place.
	card.Back = "updated"
	if err := repo.Save(ctx, card); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err = repo.Find(ctx, "c1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got.Back != "updated" {
		t.Errorf("expected upsert to update back, got %q", got.Back)
	}
}

func TestCardFindMissing(t *testing.T) {
	repo := NewCardRepository(testDB(t))

	_, err := repo.Find(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing card")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != 404 {
		t.Errorf("expected 404 AppError, got %v", err)
	}
}

func TestCardBatchAndClear(t *testing.T) {
	repo := NewCardRepository(testDB(t))
	ctx := context.Background()

	batch := []models.Card{
		{ID: "a", Type: models.CardTypeWord, Front: "one", Back: "1"},
		{ID: "b", Type: models.CardTypeWord, Front: "two", Back: "2"},
		{ID: "c", Type: models.CardTypeSentence, Front: "three", Back: "3"},
	}
	if err := repo.SaveAll(ctx, batch); err != nil {
		t.Fatalf("SaveAll failed: %v", err)
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(all))
	}

	if err := repo.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	all, _ = repo.All(ctx)
	if len(all) != 2 {
		t.Fatalf("expected 2 cards after delete, got %d", len(all))
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	all, _ = repo.All(ctx)
	if len(all) != 0 {
		t.Errorf("expected empty table, got %d cards", len(all))
	}
}

func TestVideoRoundTrip(t *testing.T) {
	repo := NewVideoRepository(testDB(t))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	video := &models.Video{
		ID:        "v1",
		Title:     "clip",
		FilePath:  "/videos/clip.mp4",
		Size:      1000,
		Status:    models.VideoStatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Save(ctx, video); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	video.Status = models.VideoStatusReady
	video.UpdatedAt = now.Add(time.Minute)
	if err := repo.Save(ctx, video); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Find(ctx, "v1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if !got.IsReady() {
		t.Errorf("expected ready status, got %s", got.Status)
	}

	videos, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(videos) != 1 {
		t.Errorf("expected 1 video, got %d", len(videos))
	}
}
