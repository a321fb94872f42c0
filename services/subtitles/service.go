package subtitles

import (
	"sync"

	"github.com/sirupsen/logrus"

	"vidlingo/models"
)

// Service holds subtitle lines per video. Lines are replaced wholesale when
// a processing run finishes; there is no per-line editing.
type Service interface {
	// SetSubtitles replaces all lines for a video.
	SetSubtitles(videoID string, lines []models.SubtitleLine)

	// Get returns a copy of the lines for a video, nil when none exist.
	Get(videoID string) []models.SubtitleLine

	// Seed installs demo lines under the given video. No-op when any
	// subtitles already exist.
	Seed(videoID string)

	Clear(videoID string)
}

type service struct {
	mu     sync.RWMutex
	byVid  map[string][]models.SubtitleLine
	logger *logrus.Logger
}

func NewService(logger *logrus.Logger) Service {
	return &service{
		byVid:  make(map[string][]models.SubtitleLine),
		logger: logger,
	}
}

func (s *service) SetSubtitles(videoID string, lines []models.SubtitleLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]models.SubtitleLine, len(lines))
	copy(copied, lines)
	s.byVid[videoID] = copied

	s.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"lines":    len(copied),
	}).Info("Subtitles replaced")
}

func (s *service) Get(videoID string) []models.SubtitleLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines, ok := s.byVid[videoID]
	if !ok {
		return nil
	}
	copied := make([]models.SubtitleLine, len(lines))
	copy(copied, lines)
	return copied
}

func (s *service) Seed(videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.byVid) > 0 {
		return
	}
	s.byVid[videoID] = []models.SubtitleLine{
		{ID: "demo-sub-1", VideoID: videoID, Start: 0, End: 2.5, Text: "Welcome to your first lesson.", TextCn: "欢迎来到你的第一课。"},
		{ID: "demo-sub-2", VideoID: videoID, Start: 2.5, End: 5, Text: "Let's learn some new words.", TextCn: "让我们学习一些新单词。"},
	}
}

func (s *service) Clear(videoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byVid, videoID)
}
