package deck

import (
	"context"

	"vidlingo/models"
)

// AddPayload describes a card captured while watching a video.
type AddPayload struct {
	WordOrSentence string          `json:"wordOrSentence"`
	Meaning        string          `json:"meaning,omitempty"`
	Type           models.CardType `json:"type,omitempty"`
	VideoID        string          `json:"videoId,omitempty"`
	VideoTitle     string          `json:"videoTitle,omitempty"`
	VideoTime      float64         `json:"videoTime,omitempty"`
}

// State is a snapshot of the review session for the UI.
type State struct {
	TodayTarget  int           `json:"todayTarget"`
	Today        []models.Card `json:"today"`
	CurrentIndex int           `json:"currentIndex"`
	DoneCount    int           `json:"doneCount"`
	Remaining    int           `json:"remaining"`
	TotalCards   int           `json:"totalCards"`
}

type Service interface {
	// Load pulls the persisted deck into memory. Called once at startup.
	Load(ctx context.Context) error

	// Seed installs the demo deck. No-op when any cards already exist.
	Seed(ctx context.Context) error

	Current() *models.Card
	State() State
	Cards() []models.Card

	AnswerCurrent(ctx context.Context, ease models.Ease) error
	RestartToday()

	AddFromVideo(ctx context.Context, payload AddPayload) (*models.Card, error)
	RemoveByID(ctx context.Context, id string) error

	ImportVocab(ctx context.Context, doc models.VocabDocument) (*models.ImportResult, error)
	ExportJSON(ctx context.Context) ([]byte, error)
	ImportBackup(ctx context.Context, data []byte) (*models.ImportResult, error)

	ClearAll(ctx context.Context) error
}
