package pipeline

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"vidlingo/errors"
	"vidlingo/models"
	"vidlingo/services/subtitles"
	"vidlingo/services/tasks"
)

// translateTolerance is the maximum start-time distance, in seconds, when
// matching a translation to an existing subtitle line.
const translateTolerance = 0.5

type Config struct {
	PollInterval   time.Duration
	ProcessTimeout time.Duration
	FromLang       string
	ToLang         string
}

// Bridge drives the external processing service and maps its results into
// subtitle lines and word-label lists. One operation runs at a time; the
// processing flag and progress value feed the UI.
type Bridge struct {
	client    *Client
	subtitles subtitles.Service
	tasks     tasks.Store
	config    Config
	logger    *logrus.Logger

	mu         sync.Mutex
	processing bool
	progress   int
}

func NewBridge(
	client *Client,
	subtitleService subtitles.Service,
	taskStore tasks.Store,
	logger *logrus.Logger,
	config Config,
) *Bridge {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.ProcessTimeout <= 0 {
		config.ProcessTimeout = 30 * time.Minute
	}
	return &Bridge{
		client:    client,
		subtitles: subtitleService,
		tasks:     taskStore,
		config:    config,
		logger:    logger,
	}
}

func (b *Bridge) Processing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processing
}

func (b *Bridge) Progress() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progress
}

func (b *Bridge) begin(op string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.processing {
		return errors.InvalidInput(op, nil, "Another operation is already running")
	}
	b.processing = true
	b.progress = 0
	return nil
}

func (b *Bridge) setProgress(p int) {
	b.mu.Lock()
	b.progress = p
	b.mu.Unlock()
}

func (b *Bridge) end() {
	b.mu.Lock()
	b.processing = false
	b.mu.Unlock()
}

// Extract transcribes a video and replaces its subtitle lines with the
// result. Progress committed before a failure is kept.
func (b *Bridge) Extract(ctx context.Context, videoID, videoPath string) ([]models.SubtitleLine, error) {
	const op = "Bridge.Extract"
	if err := b.begin(op); err != nil {
		return nil, err
	}
	defer b.end()

	logger := b.logger.WithFields(logrus.Fields{
		"operation": op,
		"video_id":  videoID,
	})
	logger.Info("Starting subtitle extraction")

	task := b.tasks.Create(videoID, models.TaskTypeTranscribe)

	remoteID, err := b.client.Extract(ctx, videoPath)
	if err != nil {
		b.tasks.Fail(task.ID, err.Error())
		return nil, err
	}
	b.tasks.Start(task.ID)

	if err := b.awaitRemote(ctx, op, task.ID, remoteID); err != nil {
		b.tasks.Fail(task.ID, err.Error())
		return nil, err
	}

	result, err := b.client.Result(ctx, remoteID)
	if err != nil {
		b.tasks.Fail(task.ID, err.Error())
		return nil, err
	}

	lines := segmentsToLines(videoID, result.Segments)
	b.subtitles.SetSubtitles(videoID, lines)
	b.tasks.Finish(task.ID)

	logger.WithField("lines", len(lines)).Info("Extraction finished")
	return lines, nil
}

// awaitRemote polls the remote task until it reports done, mirroring its
// progress into the local task store.
func (b *Bridge) awaitRemote(ctx context.Context, op, localID, remoteID string) error {
	deadline := time.Now().Add(b.config.ProcessTimeout)
	ticker := time.NewTicker(b.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.Internal(op, ctx.Err(), "Extraction canceled")
		case <-ticker.C:
		}

		state, err := b.client.Status(ctx, remoteID)
		if err != nil {
			return err
		}

		b.setProgress(state.Progress)
		b.tasks.UpdateProgress(localID, state.Progress)

		switch state.Status {
		case "done":
			b.setProgress(100)
			return nil
		case "error":
			return errors.Unavailable(op, nil, serviceMessage(state.Error, "Extraction failed"))
		}

		if time.Now().After(deadline) {
			return errors.Unavailable(op, nil, "Extraction timed out")
		}
	}
}

// Label annotates a subtitle file and returns the flattened word-label
// list, one entry per word occurrence across all blocks.
func (b *Bridge) Label(ctx context.Context, videoID, srtPath string) ([]models.VocabWord, *models.VocabDocument, error) {
	const op = "Bridge.Label"
	if err := b.begin(op); err != nil {
		return nil, nil, err
	}
	defer b.end()

	task := b.tasks.Create(videoID, models.TaskTypeLabel)
	b.tasks.Start(task.ID)

	doc, err := b.client.Label(ctx, srtPath)
	if err != nil {
		b.tasks.Fail(task.ID, err.Error())
		return nil, nil, err
	}

	var words []models.VocabWord
	for _, block := range doc.Blocks {
		words = append(words, block.Words...)
	}

	b.tasks.Finish(task.ID)
	b.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"words":    len(words),
	}).Info("Labeling finished")
	return words, doc, nil
}

// Translate fetches sentence translations for a subtitle file and merges
// them into the video's existing lines by nearest start time.
func (b *Bridge) Translate(ctx context.Context, videoID, srtPath string) ([]models.SubtitleLine, error) {
	const op = "Bridge.Translate"
	if err := b.begin(op); err != nil {
		return nil, err
	}
	defer b.end()

	task := b.tasks.Create(videoID, models.TaskTypeTranslate)
	b.tasks.Start(task.ID)

	translations, err := b.client.Translate(ctx, srtPath, b.config.FromLang, b.config.ToLang)
	if err != nil {
		b.tasks.Fail(task.ID, err.Error())
		return nil, err
	}

	lines := b.subtitles.Get(videoID)
	if lines == nil {
		b.tasks.Fail(task.ID, "no subtitles to translate")
		return nil, errors.NotFound(op, nil, "No subtitles loaded for this video")
	}

	mergeTranslations(lines, translations)
	b.subtitles.SetSubtitles(videoID, lines)
	b.tasks.Finish(task.ID)
	return lines, nil
}

// Embed burns the subtitle file into the video via the remote service.
func (b *Bridge) Embed(ctx context.Context, videoID, videoPath, srtPath string) (string, error) {
	const op = "Bridge.Embed"
	if err := b.begin(op); err != nil {
		return "", err
	}
	defer b.end()

	task := b.tasks.Create(videoID, models.TaskTypeEmbed)
	b.tasks.Start(task.ID)

	outPath, err := b.client.Embed(ctx, videoPath, srtPath)
	if err != nil {
		b.tasks.Fail(task.ID, err.Error())
		return "", err
	}

	b.tasks.Finish(task.ID)
	return outPath, nil
}

func segmentsToLines(videoID string, segments []Segment) []models.SubtitleLine {
	lines := make([]models.SubtitleLine, 0, len(segments))
	for i, seg := range segments {
		lines = append(lines, models.SubtitleLine{
			ID:      strconv.Itoa(i + 1),
			VideoID: videoID,
			Start:   seg.Start,
			End:     seg.End,
			Text:    strings.TrimSpace(seg.Text),
			TextCn:  strings.TrimSpace(seg.TextCn),
		})
	}
	return lines
}

// mergeTranslations sets TextCn on each line from the translation whose
// start time is nearest, if within tolerance. Lines without a close match
// are left untouched.
func mergeTranslations(lines []models.SubtitleLine, translations []Translation) {
	for i := range lines {
		best := -1
		bestDist := math.Inf(1)
		for j, tr := range translations {
			dist := math.Abs(tr.Start - lines[i].Start)
			if dist < bestDist {
				bestDist = dist
				best = j
			}
		}
		if best >= 0 && bestDist < translateTolerance {
			if cn := strings.TrimSpace(translations[best].TextCn); cn != "" {
				lines[i].TextCn = cn
			}
		}
	}
}
