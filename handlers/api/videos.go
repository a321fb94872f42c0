package api

import (
	"net/http"

	"vidlingo/models"
	"vidlingo/services/subtitles"
	"vidlingo/services/videos"
)

type VideosHandler struct {
	service   videos.Service
	subtitles subtitles.Service
	baseURL   string
}

func NewVideosHandler(service videos.Service, subtitleService subtitles.Service, baseURL string) *VideosHandler {
	return &VideosHandler{service: service, subtitles: subtitleService, baseURL: baseURL}
}

func (h *VideosHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]*models.VideoResponse, 0, len(list))
	for i := range list {
		out = append(out, list[i].ToResponse(h.baseURL))
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (h *VideosHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	video, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, video.ToResponse(h.baseURL))
}

// HandleImport copies a local file into the store and registers it.
func (h *VideosHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	video, err := h.service.Import(r.Context(), req.Path)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, video.ToResponse(h.baseURL))
}

// HandleAdd registers a video in place, without copying the file.
func (h *VideosHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var payload videos.AddPayload
	if err := readJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}

	video, err := h.service.Add(r.Context(), payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, video.ToResponse(h.baseURL))
}

func (h *VideosHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload videos.UpdatePayload
	if err := readJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}

	video, err := h.service.Update(r.Context(), r.PathValue("id"), payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, video.ToResponse(h.baseURL))
}

func (h *VideosHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "removed"})
}

// HandleSubtitles returns the stored subtitle lines for a video.
func (h *VideosHandler) HandleSubtitles(w http.ResponseWriter, r *http.Request) {
	lines := h.subtitles.Get(r.PathValue("id"))
	if lines == nil {
		lines = []models.SubtitleLine{}
	}
	respondJSON(w, r, http.StatusOK, lines)
}

// HandleSetSubtitles replaces all subtitle lines for a video.
func (h *VideosHandler) HandleSetSubtitles(w http.ResponseWriter, r *http.Request) {
	var lines []models.SubtitleLine
	if err := readJSON(r, &lines); err != nil {
		respondError(w, r, err)
		return
	}

	h.subtitles.SetSubtitles(r.PathValue("id"), lines)
	respondJSON(w, r, http.StatusOK, map[string]int{"lines": len(lines)})
}
