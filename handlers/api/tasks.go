package api

import (
	"net/http"

	"vidlingo/errors"
	"vidlingo/services/tasks"
)

type TasksHandler struct {
	store tasks.Store
}

func NewTasksHandler(store tasks.Store) *TasksHandler {
	return &TasksHandler{store: store}
}

func (h *TasksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("active") == "true" {
		respondJSON(w, r, http.StatusOK, h.store.Active())
		return
	}
	if videoID := r.URL.Query().Get("video_id"); videoID != "" {
		respondJSON(w, r, http.StatusOK, h.store.ByVideo(videoID))
		return
	}
	respondJSON(w, r, http.StatusOK, h.store.All())
}

func (h *TasksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	task, ok := h.store.Get(r.PathValue("id"))
	if !ok {
		respondError(w, r, errors.NotFound("TasksHandler.HandleGet", nil, "Task not found"))
		return
	}
	respondJSON(w, r, http.StatusOK, task)
}

func (h *TasksHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.store.Cancel(id) {
		respondError(w, r, errors.NotFound("TasksHandler.HandleCancel", nil, "Task not found"))
		return
	}
	task, _ := h.store.Get(id)
	respondJSON(w, r, http.StatusOK, task)
}
