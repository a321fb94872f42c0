package deck

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"vidlingo/errors"
	"vidlingo/models"
	"vidlingo/repository"
)

const exportVersion = "1.0"

type Config struct {
	TodayTarget int
}

// service keeps the whole deck in memory and writes through to the
// repository. A single mutex serializes every mutation, so dedup-then-append
// inside an import is one atomic block.
type service struct {
	mu sync.Mutex

	repo   repository.CardRepository
	config Config
	logger *logrus.Logger

	itemsAll     []models.Card
	itemsToday   []models.Card
	currentIndex int
	doneCount    int
}

func NewService(repo repository.CardRepository, logger *logrus.Logger, config Config) Service {
	if config.TodayTarget <= 0 {
		config.TodayTarget = 20
	}
	return &service{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

func (s *service) Load(ctx context.Context) error {
	const op = "DeckService.Load"

	cards, err := s.repo.All(ctx)
	if err != nil {
		return errors.Internal(op, err, "Failed to load deck")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemsAll = cards
	s.itemsToday = append([]models.Card(nil), cards...)
	s.currentIndex = 0
	s.doneCount = 0

	s.logger.WithField("cards", len(cards)).Info("Deck loaded")
	return nil
}

func (s *service) Seed(ctx context.Context) error {
	const op = "DeckService.Seed"

	s.mu.Lock()
	defer s.mu.Unlock()

	// Seeding an already-populated deck is a no-op so it is safe to call on
	// every startup.
	if len(s.itemsAll) > 0 {
		return nil
	}

	now := time.Now()
	demo := []models.Card{
		{
			ID:             "demo-1",
			Type:           models.CardTypeWord,
			Front:          "example",
			Back:           "示例；例子",
			Ease:           models.EaseNormal,
			LastReviewedAt: now,
			NextReviewAt:   now,
		},
		{
			ID:             "demo-2",
			Type:           models.CardTypeSentence,
			Front:          "This is a sample sentence for review.",
			Back:           "这是一句用于复习的示例句子。",
			Ease:           models.EaseNormal,
			LastReviewedAt: now,
			NextReviewAt:   now,
		},
	}

	if err := s.repo.SaveAll(ctx, demo); err != nil {
		return errors.Internal(op, err, "Failed to persist demo deck")
	}

	s.itemsAll = demo
	s.itemsToday = append([]models.Card(nil), demo...)
	s.currentIndex = 0
	s.doneCount = 0
	return nil
}

func (s *service) Current() *models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *service) currentLocked() *models.Card {
	if len(s.itemsToday) == 0 || s.currentIndex >= len(s.itemsToday) {
		return nil
	}
	card := s.itemsToday[s.currentIndex]
	return &card
}

func (s *service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := len(s.itemsToday) - s.doneCount
	if remaining < 0 {
		remaining = 0
	}
	return State{
		TodayTarget:  s.config.TodayTarget,
		Today:        append([]models.Card(nil), s.itemsToday...),
		CurrentIndex: s.currentIndex,
		DoneCount:    s.doneCount,
		Remaining:    remaining,
		TotalCards:   len(s.itemsAll),
	}
}

func (s *service) Cards() []models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Card(nil), s.itemsAll...)
}

// AnswerCurrent reschedules the card under the cursor. An empty session or a
// card that vanished from the subset is a silent no-op.
func (s *service) AnswerCurrent(ctx context.Context, ease models.Ease) error {
	const op = "DeckService.AnswerCurrent"

	s.mu.Lock()
	defer s.mu.Unlock()

	card := s.currentLocked()
	if card == nil {
		return nil
	}
	idx := indexByID(s.itemsToday, card.ID)
	if idx == -1 {
		return nil
	}

	now := time.Now()
	updated := *card
	updated.Ease = ease
	updated.LastReviewedAt = now
	updated.NextReviewAt = now.Add(models.ReviewDelta(ease))

	s.itemsToday[idx] = updated
	if allIdx := indexByID(s.itemsAll, card.ID); allIdx != -1 {
		s.itemsAll[allIdx] = updated
	}

	s.doneCount++
	if s.currentIndex < len(s.itemsToday)-1 {
		s.currentIndex++
	}

	if err := s.repo.Save(ctx, &updated); err != nil {
		return errors.Internal(op, err, "Failed to persist review")
	}
	return nil
}

func (s *service) RestartToday() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentIndex = 0
	s.doneCount = 0
}

func (s *service) AddFromVideo(ctx context.Context, payload AddPayload) (*models.Card, error) {
	const op = "DeckService.AddFromVideo"

	if payload.WordOrSentence == "" {
		return nil, errors.InvalidInput(op, nil, "Front text is required")
	}

	cardType := payload.Type
	if cardType == "" {
		cardType = models.CardTypeWord
	}

	now := time.Now()
	card := models.Card{
		ID:             newCardID(""),
		Type:           cardType,
		Front:          payload.WordOrSentence,
		Back:           payload.Meaning,
		VideoID:        payload.VideoID,
		VideoTitle:     payload.VideoTitle,
		VideoTime:      payload.VideoTime,
		Ease:           models.EaseNormal,
		LastReviewedAt: now,
		NextReviewAt:   now,
	}

	s.mu.Lock()
	s.itemsAll = append(s.itemsAll, card)
	s.itemsToday = append(s.itemsToday, card)
	s.mu.Unlock()

	if err := s.repo.Save(ctx, &card); err != nil {
		return nil, errors.Internal(op, err, "Failed to persist card")
	}

	s.logger.WithFields(logrus.Fields{
		"card_id": card.ID,
		"type":    card.Type,
	}).Info("Card added from video")
	return &card, nil
}

// RemoveByID filters the card out of both subsets. Removing an unknown id
// leaves the deck untouched.
func (s *service) RemoveByID(ctx context.Context, id string) error {
	const op = "DeckService.RemoveByID"

	s.mu.Lock()
	s.itemsAll = removeByID(s.itemsAll, id)
	s.itemsToday = removeByID(s.itemsToday, id)
	if s.currentIndex >= len(s.itemsToday) {
		s.currentIndex = len(s.itemsToday) - 1
		if s.currentIndex < 0 {
			s.currentIndex = 0
		}
	}
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Internal(op, err, "Failed to delete card")
	}
	return nil
}

// ImportVocab builds one card per distinct word in the document's word map.
// Entries with neither translation nor definition are dropped; fronts that
// already exist (case-insensitive) are skipped.
func (s *service) ImportVocab(ctx context.Context, doc models.VocabDocument) (*models.ImportResult, error) {
	const op = "DeckService.ImportVocab"

	sourceTitle := doc.Source
	if sourceTitle == "" {
		sourceTitle = "Imported vocabulary"
	}

	now := time.Now()
	var imported []models.Card
	for key, entry := range doc.WordMap {
		if entry.Translation == "" && entry.Definition == "" {
			continue
		}

		front := entry.Word
		if front == "" {
			front = key
		}
		back := entry.Translation
		if back == "" {
			back = entry.Definition
		}

		imported = append(imported, models.Card{
			ID:             newCardID(key),
			Type:           models.CardTypeWord,
			Front:          front,
			Back:           back,
			VideoTitle:     sourceTitle,
			Ease:           models.EaseNormal,
			LastReviewedAt: now,
			NextReviewAt:   now,
			Phonetic:       entry.Phonetic,
			Definition:     entry.Definition,
			Translation:    entry.Translation,
			Pos:            entry.Pos,
			Tag:            entry.Tag,
			Collins:        string(entry.Collins),
			Oxford:         string(entry.Oxford),
		})
	}

	s.mu.Lock()
	existingFronts := frontSet(s.itemsAll)
	var added []models.Card
	for _, card := range imported {
		key := strings.ToLower(card.Front)
		if existingFronts[key] {
			continue
		}
		existingFronts[key] = true
		added = append(added, card)
	}
	s.itemsAll = append(s.itemsAll, added...)
	s.itemsToday = append(s.itemsToday, added...)
	s.mu.Unlock()

	if len(added) > 0 {
		if err := s.repo.SaveAll(ctx, added); err != nil {
			return nil, errors.Internal(op, err, "Failed to persist imported cards")
		}
	}

	result := &models.ImportResult{
		Total:   len(imported),
		Added:   len(added),
		Skipped: len(imported) - len(added),
	}
	s.logger.WithFields(logrus.Fields{
		"total":   result.Total,
		"added":   result.Added,
		"skipped": result.Skipped,
	}).Info("Vocabulary import finished")
	return result, nil
}

func (s *service) ExportJSON(ctx context.Context) ([]byte, error) {
	const op = "DeckService.ExportJSON"

	s.mu.Lock()
	export := models.DeckExport{
		ExportedAt: time.Now(),
		Version:    exportVersion,
		TotalCards: len(s.itemsAll),
		Cards:      append([]models.Card(nil), s.itemsAll...),
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to encode deck export")
	}
	return data, nil
}

// ImportBackup restores cards from an exported deck. Cards whose id or
// case-folded front already exists are skipped; missing optional fields
// default to a fresh review state.
func (s *service) ImportBackup(ctx context.Context, data []byte) (*models.ImportResult, error) {
	const op = "DeckService.ImportBackup"

	var export models.DeckExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, errors.InvalidInput(op, err, "Invalid deck JSON")
	}
	if export.Cards == nil {
		return nil, errors.InvalidInput(op, nil, "Deck JSON has no cards list")
	}

	now := time.Now()

	s.mu.Lock()
	existingIDs := make(map[string]bool, len(s.itemsAll))
	for _, c := range s.itemsAll {
		existingIDs[c.ID] = true
	}
	existingFronts := frontSet(s.itemsAll)

	var added []models.Card
	skipped := 0
	for _, card := range export.Cards {
		if existingIDs[card.ID] || existingFronts[strings.ToLower(card.Front)] {
			skipped++
			continue
		}

		if card.ID == "" {
			card.ID = newCardID("")
		}
		if card.Type == "" {
			card.Type = models.CardTypeWord
		}
		if card.Ease == "" {
			card.Ease = models.EaseNormal
		}
		if card.LastReviewedAt.IsZero() {
			card.LastReviewedAt = now
		}
		if card.NextReviewAt.IsZero() {
			card.NextReviewAt = now
		}

		existingIDs[card.ID] = true
		existingFronts[strings.ToLower(card.Front)] = true
		added = append(added, card)
	}
	s.itemsAll = append(s.itemsAll, added...)
	s.itemsToday = append(s.itemsToday, added...)
	s.mu.Unlock()

	if len(added) > 0 {
		if err := s.repo.SaveAll(ctx, added); err != nil {
			return nil, errors.Internal(op, err, "Failed to persist restored cards")
		}
	}

	return &models.ImportResult{
		Total:   len(export.Cards),
		Added:   len(added),
		Skipped: skipped,
	}, nil
}

func (s *service) ClearAll(ctx context.Context) error {
	const op = "DeckService.ClearAll"

	s.mu.Lock()
	s.itemsAll = nil
	s.itemsToday = nil
	s.currentIndex = 0
	s.doneCount = 0
	s.mu.Unlock()

	if err := s.repo.DeleteAll(ctx); err != nil {
		return errors.Internal(op, err, "Failed to clear deck")
	}
	return nil
}

func indexByID(cards []models.Card, id string) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}
	return -1
}

func removeByID(cards []models.Card, id string) []models.Card {
	out := cards[:0]
	for _, c := range cards {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func frontSet(cards []models.Card) map[string]bool {
	set := make(map[string]bool, len(cards))
	for _, c := range cards {
		set[strings.ToLower(c.Front)] = true
	}
	return set
}

// newCardID builds a timestamp+random id, optionally salted with a word key
// so bulk imports within one millisecond stay distinct.
func newCardID(key string) string {
	id := strconv.FormatInt(time.Now().UnixMilli(), 36) + strconv.FormatInt(rand.Int63n(1<<30), 36)
	if len(key) > 4 {
		key = key[:4]
	}
	return id + key
}
