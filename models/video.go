package models

import (
	"net/url"
	"path/filepath"
	"time"
)

type VideoStatus string

const (
	VideoStatusIdle       VideoStatus = "idle"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusReady      VideoStatus = "ready"
)

// Video is an imported library entry. Status only records where the
// external pipeline got to; transitions are driven by callers.
type Video struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	FilePath  string      `json:"file_path,omitempty"`
	Duration  float64     `json:"duration,omitempty"`
	Size      int64       `json:"size,omitempty"`
	Status    VideoStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Status check methods
func (v *Video) IsIdle() bool       { return v.Status == VideoStatusIdle }
func (v *Video) IsProcessing() bool { return v.Status == VideoStatusProcessing }
func (v *Video) IsReady() bool      { return v.Status == VideoStatusReady }

// VideoResponse represents the API response
type VideoResponse struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Duration float64     `json:"duration,omitempty"`
	Size     int64       `json:"size,omitempty"`
	Status   VideoStatus `json:"status"`
	URL      string      `json:"url"`
}

// ToResponse builds the API shape. URL is the streaming endpoint the
// player should load, derived from the stored file's base name.
func (v *Video) ToResponse(baseURL string) *VideoResponse {
	streamURL := ""
	if v.FilePath != "" {
		streamURL = baseURL + "/stream/video/" + url.PathEscape(filepath.Base(v.FilePath))
	}
	return &VideoResponse{
		ID:       v.ID,
		Title:    v.Title,
		Duration: v.Duration,
		Size:     v.Size,
		Status:   v.Status,
		URL:      streamURL,
	}
}
