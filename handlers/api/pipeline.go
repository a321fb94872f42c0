package api

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"vidlingo/models"
	"vidlingo/pipeline"
	"vidlingo/services/videos"
	"vidlingo/validation"
)

// PipelineHandler exposes the external-processing operations. Extraction
// runs in the background; the caller polls the task list for progress.
type PipelineHandler struct {
	bridge    *pipeline.Bridge
	videos    videos.Service
	validator *validation.Validator
	logger    *logrus.Logger
	timeout   time.Duration
}

func NewPipelineHandler(
	bridge *pipeline.Bridge,
	videoService videos.Service,
	validator *validation.Validator,
	logger *logrus.Logger,
	processTimeout time.Duration,
) *PipelineHandler {
	return &PipelineHandler{
		bridge:    bridge,
		videos:    videoService,
		validator: validator,
		logger:    logger,
		timeout:   processTimeout,
	}
}

// HandleStatus reports the bridge's processing flag and progress.
func (h *PipelineHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"processing": h.bridge.Processing(),
		"progress":   h.bridge.Progress(),
	})
}

// HandleExtract starts transcript extraction for a video. The response
// returns immediately; results land in the subtitle store when done.
func (h *PipelineHandler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID string `json:"videoId"`
	}
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	video, err := h.videos.Get(r.Context(), req.VideoID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validator.ValidateVideoPath(video.FilePath); err != nil {
		respondError(w, r, err)
		return
	}

	go h.runExtract(video)
	respondJSON(w, r, http.StatusAccepted, map[string]string{"status": "started"})
}

// runExtract owns the whole background flow: extraction, then marking the
// video ready. A request-scoped context would be canceled on return, so a
// fresh one is derived here.
func (h *PipelineHandler) runExtract(video *models.Video) {
	ctx, cancel := contextWithTimeout(h.timeout)
	defer cancel()

	status := models.VideoStatusProcessing
	if _, err := h.videos.Update(ctx, video.ID, videos.UpdatePayload{Status: &status}); err != nil {
		h.logger.WithError(err).Warn("Failed to mark video processing")
	}

	if _, err := h.bridge.Extract(ctx, video.ID, video.FilePath); err != nil {
		h.logger.WithError(err).WithField("video_id", video.ID).Error("Extraction failed")
		status = models.VideoStatusIdle
		h.videos.Update(ctx, video.ID, videos.UpdatePayload{Status: &status})
		return
	}

	status = models.VideoStatusReady
	if _, err := h.videos.Update(ctx, video.ID, videos.UpdatePayload{Status: &status}); err != nil {
		h.logger.WithError(err).Warn("Failed to mark video ready")
	}
}

func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}

func (h *PipelineHandler) HandleLabel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID string `json:"videoId"`
		SrtPath string `json:"srtPath"`
	}
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validator.ValidateSubtitlePath(req.SrtPath); err != nil {
		respondError(w, r, err)
		return
	}

	words, doc, err := h.bridge.Label(r.Context(), req.VideoID, req.SrtPath)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"words":    words,
		"word_map": doc.WordMap,
	})
}

func (h *PipelineHandler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID string `json:"videoId"`
		SrtPath string `json:"srtPath"`
	}
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validator.ValidateSubtitlePath(req.SrtPath); err != nil {
		respondError(w, r, err)
		return
	}

	lines, err := h.bridge.Translate(r.Context(), req.VideoID, req.SrtPath)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, lines)
}

func (h *PipelineHandler) HandleEmbed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID string `json:"videoId"`
		SrtPath string `json:"srtPath"`
	}
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	video, err := h.videos.Get(r.Context(), req.VideoID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validator.ValidateSubtitlePath(req.SrtPath); err != nil {
		respondError(w, r, err)
		return
	}

	outPath, err := h.bridge.Embed(r.Context(), video.ID, video.FilePath, req.SrtPath)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"out_path": outPath})
}
