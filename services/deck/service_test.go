package deck

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"vidlingo/models"
)

// fakeRepo is an in-memory CardRepository for service tests.
type fakeRepo struct {
	mu    sync.Mutex
	cards map[string]models.Card
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{cards: map[string]models.Card{}}
}

func (f *fakeRepo) Save(_ context.Context, card *models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards[card.ID] = *card
	return nil
}

func (f *fakeRepo) SaveAll(_ context.Context, cards []models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range cards {
		f.cards[c.ID] = c
	}
	return nil
}

func (f *fakeRepo) Find(_ context.Context, id string) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	if !ok {
		return nil, io.EOF
	}
	return &c, nil
}

func (f *fakeRepo) All(_ context.Context) ([]models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Card
	for _, c := range f.cards {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cards, id)
	return nil
}

func (f *fakeRepo) DeleteAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards = map[string]models.Card{}
	return nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T) Service {
	t.Helper()
	return NewService(newFakeRepo(), testLogger(), Config{TodayTarget: 20})
}

func seeded(t *testing.T) Service {
	t.Helper()
	svc := newTestService(t)
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	return svc
}

func TestSeedIsIdempotent(t *testing.T) {
	svc := seeded(t)

	if got := svc.State().TotalCards; got != 2 {
		t.Fatalf("expected 2 demo cards, got %d", got)
	}

	// Answer one card, reseed, state must be untouched.
	if err := svc.AnswerCurrent(context.Background(), models.EaseEasy); err != nil {
		t.Fatalf("AnswerCurrent failed: %v", err)
	}
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	state := svc.State()
	if state.TotalCards != 2 || state.DoneCount != 1 {
		t.Errorf("reseed must be a no-op, got %+v", state)
	}
}

func TestAnswerCurrentIntervals(t *testing.T) {
	tests := []struct {
		ease models.Ease
		want time.Duration
	}{
		{models.EaseHard, 12 * time.Hour},
		{models.EaseNormal, 24 * time.Hour},
		{models.EaseEasy, 48 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.ease), func(t *testing.T) {
			svc := seeded(t)
			if err := svc.AnswerCurrent(context.Background(), tt.ease); err != nil {
				t.Fatalf("AnswerCurrent failed: %v", err)
			}

			card := svc.State().Today[0]
			delta := card.NextReviewAt.Sub(card.LastReviewedAt)
			if diff := delta - tt.want; diff < -time.Second || diff > time.Second {
				t.Errorf("expected delta ~%v, got %v", tt.want, delta)
			}
			if card.Ease != tt.ease {
				t.Errorf("expected ease %s, got %s", tt.ease, card.Ease)
			}
		})
	}
}

func TestAnswerCurrentAdvancesCursor(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	// Deck has 2 cards, cursor at 0.
	if err := svc.AnswerCurrent(ctx, models.EaseEasy); err != nil {
		t.Fatalf("AnswerCurrent failed: %v", err)
	}
	state := svc.State()
	if state.CurrentIndex != 1 || state.DoneCount != 1 {
		t.Fatalf("expected cursor=1 done=1, got cursor=%d done=%d", state.CurrentIndex, state.DoneCount)
	}

	// Cursor clamps at the last index, doneCount keeps counting.
	if err := svc.AnswerCurrent(ctx, models.EaseNormal); err != nil {
		t.Fatalf("AnswerCurrent failed: %v", err)
	}
	if err := svc.AnswerCurrent(ctx, models.EaseNormal); err != nil {
		t.Fatalf("AnswerCurrent failed: %v", err)
	}
	state = svc.State()
	if state.CurrentIndex != 1 {
		t.Errorf("cursor must clamp at len-1, got %d", state.CurrentIndex)
	}
	if state.DoneCount != 3 {
		t.Errorf("expected doneCount 3, got %d", state.DoneCount)
	}
}

func TestAnswerCurrentEmptyDeckIsNoop(t *testing.T) {
	svc := newTestService(t)

	if err := svc.AnswerCurrent(context.Background(), models.EaseHard); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if got := svc.State().DoneCount; got != 0 {
		t.Errorf("doneCount must stay 0, got %d", got)
	}
}

func TestAddFromVideo(t *testing.T) {
	svc := newTestService(t)

	card, err := svc.AddFromVideo(context.Background(), AddPayload{
		WordOrSentence: "serendipity",
		Meaning:        "a happy accident",
		VideoID:        "v1",
		VideoTitle:     "Lesson",
		VideoTime:      42.5,
	})
	if err != nil {
		t.Fatalf("AddFromVideo failed: %v", err)
	}

	if card.Ease != models.EaseNormal {
		t.Errorf("new cards start at normal ease, got %s", card.Ease)
	}
	if card.Type != models.CardTypeWord {
		t.Errorf("default type must be word, got %s", card.Type)
	}

	state := svc.State()
	if state.TotalCards != 1 || len(state.Today) != 1 {
		t.Errorf("card must land in both subsets: %+v", state)
	}
}

func TestAddFromVideoRequiresFront(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.AddFromVideo(context.Background(), AddPayload{}); err == nil {
		t.Error("expected validation error for empty front")
	}
}

func TestRemoveByID(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	cards := svc.Cards()
	if err := svc.RemoveByID(ctx, cards[0].ID); err != nil {
		t.Fatalf("RemoveByID failed: %v", err)
	}
	if got := svc.State().TotalCards; got != 1 {
		t.Fatalf("expected 1 card left, got %d", got)
	}

	// Idempotent: unknown id leaves state unchanged.
	before := svc.State()
	if err := svc.RemoveByID(ctx, "no-such-id"); err != nil {
		t.Fatalf("RemoveByID failed: %v", err)
	}
	after := svc.State()
	if before.TotalCards != after.TotalCards || before.CurrentIndex != after.CurrentIndex {
		t.Errorf("removing unknown id must not change state: %+v vs %+v", before, after)
	}
}

func TestRemoveByIDClampsCursor(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	// Move cursor to the last card, then remove it.
	if err := svc.AnswerCurrent(ctx, models.EaseNormal); err != nil {
		t.Fatal(err)
	}
	cards := svc.State().Today
	if err := svc.RemoveByID(ctx, cards[1].ID); err != nil {
		t.Fatal(err)
	}

	state := svc.State()
	if state.CurrentIndex != 0 {
		t.Errorf("cursor must clamp into bounds, got %d", state.CurrentIndex)
	}

	// Removing everything floors the cursor at 0.
	if err := svc.RemoveByID(ctx, state.Today[0].ID); err != nil {
		t.Fatal(err)
	}
	if got := svc.State().CurrentIndex; got != 0 {
		t.Errorf("cursor floor is 0, got %d", got)
	}
}

func TestImportVocab(t *testing.T) {
	svc := newTestService(t)

	doc := models.VocabDocument{
		Source: "lesson.srt",
		WordMap: map[string]models.VocabEntry{
			"serendipity": {Word: "serendipity", Translation: "机缘巧合", Phonetic: "ˌserənˈdɪpəti"},
			"the":         {Word: "the"}, // no translation or definition, dropped
			"ubiquitous":  {Word: "ubiquitous", Definition: "present everywhere"},
		},
	}

	result, err := svc.ImportVocab(context.Background(), doc)
	if err != nil {
		t.Fatalf("ImportVocab failed: %v", err)
	}
	if result.Total != 2 || result.Added != 2 || result.Skipped != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Added+result.Skipped != result.Total {
		t.Error("added + skipped must equal total")
	}

	// Re-importing the same document dedups on front text.
	result, err = svc.ImportVocab(context.Background(), doc)
	if err != nil {
		t.Fatalf("ImportVocab failed: %v", err)
	}
	if result.Added != 0 || result.Skipped != 2 {
		t.Errorf("expected full dedup on second import, got %+v", result)
	}

	// Case-insensitive dedup against existing cards.
	doc.WordMap = map[string]models.VocabEntry{
		"Serendipity": {Word: "Serendipity", Translation: "again"},
	}
	result, err = svc.ImportVocab(context.Background(), doc)
	if err != nil {
		t.Fatalf("ImportVocab failed: %v", err)
	}
	if result.Added != 0 {
		t.Errorf("case-folded duplicate must be skipped, got %+v", result)
	}
}

func TestImportVocabPrefersTranslation(t *testing.T) {
	svc := newTestService(t)

	doc := models.VocabDocument{
		WordMap: map[string]models.VocabEntry{
			"both": {Word: "both", Translation: "trans", Definition: "def"},
		},
	}
	if _, err := svc.ImportVocab(context.Background(), doc); err != nil {
		t.Fatal(err)
	}

	cards := svc.Cards()
	if len(cards) != 1 || cards[0].Back != "trans" {
		t.Errorf("translation must win over definition: %+v", cards)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	data, err := svc.ExportJSON(ctx)
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	var export models.DeckExport
	if err := json.Unmarshal(data, &export); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if export.Version != "1.0" || export.TotalCards != 2 || len(export.Cards) != 2 {
		t.Fatalf("unexpected export shape: %+v", export)
	}

	// Importing our own export is fully deduplicated.
	result, err := svc.ImportBackup(ctx, data)
	if err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}
	if result.Added != 0 || result.Skipped != export.TotalCards {
		t.Errorf("self-import must add nothing: %+v", result)
	}

	// A fresh service accepts the full export.
	fresh := newTestService(t)
	result, err = fresh.ImportBackup(ctx, data)
	if err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}
	if result.Added != 2 {
		t.Errorf("expected 2 cards restored, got %+v", result)
	}
}

func TestImportBackupMalformed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportBackup(ctx, []byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := svc.ImportBackup(ctx, []byte(`{"version":"1.0"}`)); err == nil {
		t.Error("expected error when cards list is missing")
	}
}

func TestImportBackupDefaults(t *testing.T) {
	svc := newTestService(t)

	payload := []byte(`{"cards":[{"id":"x1","front":"hello","back":"hi"}]}`)
	result, err := svc.ImportBackup(context.Background(), payload)
	if err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}
	if result.Added != 1 {
		t.Fatalf("expected 1 card added, got %+v", result)
	}

	card := svc.Cards()[0]
	if card.Ease != models.EaseNormal {
		t.Errorf("missing ease must default to normal, got %s", card.Ease)
	}
	if card.LastReviewedAt.IsZero() || card.NextReviewAt.IsZero() {
		t.Error("missing timestamps must default to now")
	}
}

func TestClearAll(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	if err := svc.AnswerCurrent(ctx, models.EaseNormal); err != nil {
		t.Fatal(err)
	}
	if err := svc.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	state := svc.State()
	if state.TotalCards != 0 || len(state.Today) != 0 || state.CurrentIndex != 0 || state.DoneCount != 0 {
		t.Errorf("expected empty state, got %+v", state)
	}
}

func TestLoadRestoresDeck(t *testing.T) {
	repo := newFakeRepo()
	repo.Save(context.Background(), &models.Card{ID: "c1", Type: models.CardTypeWord, Front: "hi", Back: "你好"})

	svc := NewService(repo, testLogger(), Config{})
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	state := svc.State()
	if state.TotalCards != 1 || len(state.Today) != 1 {
		t.Errorf("expected loaded card in both subsets: %+v", state)
	}
}
