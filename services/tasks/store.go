package tasks

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vidlingo/models"
)

// Store tracks in-flight processing tasks. Tasks are ephemeral: they live
// for the lifetime of the process and are not persisted.
type Store interface {
	Create(videoID string, taskType models.TaskType) *models.Task
	Get(id string) (*models.Task, bool)
	All() []models.Task
	Active() []models.Task
	ByVideo(videoID string) []models.Task

	Start(id string) bool
	UpdateProgress(id string, progress int) bool
	Finish(id string) bool
	Fail(id string, errMsg string) bool
	Cancel(id string) bool
}

type store struct {
	mu     sync.RWMutex
	tasks  map[string]*models.Task
	order  []string
	logger *logrus.Logger
}

func NewStore(logger *logrus.Logger) Store {
	return &store{
		tasks:  make(map[string]*models.Task),
		logger: logger,
	}
}

func (s *store) Create(videoID string, taskType models.TaskType) *models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	task := &models.Task{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		Type:      taskType,
		Status:    models.TaskStatusPending,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)

	s.logger.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"video_id": videoID,
		"type":     taskType,
	}).Info("Task created")

	copied := *task
	return &copied
}

func (s *store) Get(id string) (*models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	copied := *task
	return &copied, true
}

func (s *store) All() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tasks[id])
	}
	return out
}

func (s *store) Active() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Task
	for _, id := range s.order {
		if t := s.tasks[id]; t.IsActive() {
			out = append(out, *t)
		}
	}
	return out
}

func (s *store) ByVideo(videoID string) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Task
	for _, id := range s.order {
		if t := s.tasks[id]; t.VideoID == videoID {
			out = append(out, *t)
		}
	}
	return out
}

// Start moves a pending task to processing. Tasks in any other state are
// left untouched.
func (s *store) Start(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.Status != models.TaskStatusPending {
		return false
	}
	task.Status = models.TaskStatusProcessing
	task.UpdatedAt = time.Now()
	return true
}

// UpdateProgress records progress on a processing task. Progress is clamped
// to [0, 100]; updates on non-processing tasks are ignored.
func (s *store) UpdateProgress(id string, progress int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.Status != models.TaskStatusProcessing {
		return false
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	task.Progress = progress
	task.UpdatedAt = time.Now()
	return true
}

func (s *store) Finish(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false
	}
	task.Status = models.TaskStatusDone
	task.Progress = 100
	task.Error = ""
	task.UpdatedAt = time.Now()

	s.logger.WithField("task_id", id).Info("Task finished")
	return true
}

func (s *store) Fail(id string, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false
	}
	task.Status = models.TaskStatusError
	task.Error = errMsg
	task.UpdatedAt = time.Now()

	s.logger.WithFields(logrus.Fields{
		"task_id": id,
		"error":   errMsg,
	}).Warn("Task failed")
	return true
}

func (s *store) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return false
	}
	task.Status = models.TaskStatusCanceled
	task.UpdatedAt = time.Now()

	s.logger.WithField("task_id", id).Info("Task canceled")
	return true
}
