package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusError      TaskStatus = "error"
	TaskStatusCanceled   TaskStatus = "canceled"
)

type TaskType string

const (
	TaskTypeTranscribe TaskType = "transcribe"
	TaskTypeLabel      TaskType = "label"
	TaskTypeTranslate  TaskType = "translate"
	TaskTypeEmbed      TaskType = "embed"
)

// Task tracks one external processing operation for a video.
type Task struct {
	ID        string     `json:"id"`
	VideoID   string     `json:"videoId"`
	Type      TaskType   `json:"type"`
	Status    TaskStatus `json:"status"`
	Progress  int        `json:"progress"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (t *Task) IsActive() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusProcessing
}
