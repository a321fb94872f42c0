package models

import (
	"time"
)

type CardType string

const (
	CardTypeWord     CardType = "word"
	CardTypePhrase   CardType = "phrase"
	CardTypeSentence CardType = "sentence"
	CardTypeGrammar  CardType = "grammar"
	CardTypeNote     CardType = "note"
)

type Ease string

const (
	EaseHard   Ease = "hard"
	EaseNormal Ease = "normal"
	EaseEasy   Ease = "easy"
)

// ReviewDelta maps a reported ease to the delay before the next review.
// Fixed three-tier table; there is no history-based adjustment.
func ReviewDelta(e Ease) time.Duration {
	switch e {
	case EaseHard:
		return 12 * time.Hour
	case EaseEasy:
		return 48 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Card is a single flashcard. The dictionary detail fields are populated
// when the card originates from a vocabulary import.
type Card struct {
	ID             string    `json:"id"`
	Type           CardType  `json:"type"`
	Front          string    `json:"front"`
	Back           string    `json:"back"`
	VideoID        string    `json:"videoId,omitempty"`
	VideoTitle     string    `json:"videoTitle,omitempty"`
	VideoTime      float64   `json:"videoTime,omitempty"`
	Ease           Ease      `json:"ease,omitempty"`
	LastReviewedAt time.Time `json:"lastReviewedAt,omitempty"`
	NextReviewAt   time.Time `json:"nextReviewAt,omitempty"`
	Phonetic       string    `json:"phonetic,omitempty"`
	Definition     string    `json:"definition,omitempty"`
	Translation    string    `json:"translation,omitempty"`
	Pos            string    `json:"pos,omitempty"`
	Tag            string    `json:"tag,omitempty"`
	Collins        string    `json:"collins,omitempty"`
	Oxford         string    `json:"oxford,omitempty"`
}

// DeckExport is the persisted deck backup shape.
type DeckExport struct {
	ExportedAt time.Time `json:"exportedAt"`
	Version    string    `json:"version"`
	TotalCards int       `json:"totalCards"`
	Cards      []Card    `json:"cards"`
}

// ImportResult reports what an import batch did.
type ImportResult struct {
	Total   int `json:"total"`
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}
