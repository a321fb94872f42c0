package api

import (
	"encoding/json"
	"io"
	"net/http"

	"vidlingo/errors"
	"vidlingo/models"
	"vidlingo/services/deck"
	"vidlingo/storage"
	"vidlingo/validation"
)

// maxImportBytes bounds the import request bodies.
const maxImportBytes = 10 * 1024 * 1024 // 10MB

type DeckHandler struct {
	service   deck.Service
	validator *validation.Validator
	backup    *storage.SpacesClient
}

// NewDeckHandler wires the deck endpoints. backup may be nil when remote
// backups are disabled.
func NewDeckHandler(service deck.Service, validator *validation.Validator, backup *storage.SpacesClient) *DeckHandler {
	return &DeckHandler{service: service, validator: validator, backup: backup}
}

// HandleState returns the review session snapshot.
func (h *DeckHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.service.State())
}

func (h *DeckHandler) HandleCards(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.service.Cards())
}

func (h *DeckHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	card := h.service.Current()
	if card == nil {
		respondError(w, r, errors.NotFound("DeckHandler.HandleCurrent", nil, "No card to review"))
		return
	}
	respondJSON(w, r, http.StatusOK, card)
}

func (h *DeckHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ease models.Ease `json:"ease"`
	}
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.AnswerCurrent(r.Context(), req.Ease); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.service.State())
}

func (h *DeckHandler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	h.service.RestartToday()
	respondJSON(w, r, http.StatusOK, h.service.State())
}

func (h *DeckHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var payload deck.AddPayload
	if err := readJSON(r, &payload); err != nil {
		respondError(w, r, err)
		return
	}

	card, err := h.service.AddFromVideo(r.Context(), payload)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, card)
}

func (h *DeckHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.RemoveByID(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.service.State())
}

// HandleImportVocab accepts an annotation document and imports its word map.
func (h *DeckHandler) HandleImportVocab(w http.ResponseWriter, r *http.Request) {
	if err := h.validator.ValidateRequest(r, validation.RequestValidationOpts{
		MaxContentLength: maxImportBytes,
		RequireJSON:      true,
	}); err != nil {
		respondError(w, r, err)
		return
	}

	var doc models.VocabDocument
	if err := readJSON(r, &doc); err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.service.ImportVocab(r.Context(), doc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// HandleExport returns the backup JSON document directly, not wrapped in
// the standard envelope, so the file can be saved as-is.
func (h *DeckHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportJSON(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="deck-backup.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *DeckHandler) HandleImportBackup(w http.ResponseWriter, r *http.Request) {
	if err := h.validator.ValidateRequest(r, validation.RequestValidationOpts{
		MaxContentLength: maxImportBytes,
		RequireJSON:      true,
	}); err != nil {
		respondError(w, r, err)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, r, errors.InvalidInput("DeckHandler.HandleImportBackup", err, "Failed to read request body"))
		return
	}

	result, err := h.service.ImportBackup(r.Context(), data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

// HandleRemoteBackup uploads the current deck export to the configured
// bucket under the given name.
func (h *DeckHandler) HandleRemoteBackup(w http.ResponseWriter, r *http.Request) {
	const op = "DeckHandler.HandleRemoteBackup"

	if h.backup == nil {
		respondError(w, r, errors.InvalidInput(op, nil, "Remote backups are not configured"))
		return
	}

	data, err := h.service.ExportJSON(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	var export models.DeckExport
	if err := json.Unmarshal(data, &export); err != nil {
		respondError(w, r, errors.Internal(op, err, "Failed to decode export"))
		return
	}

	name := r.PathValue("name")
	if err := h.backup.SaveDeckBackup(r.Context(), name, &export); err != nil {
		respondError(w, r, errors.Unavailable(op, err, "Failed to upload backup"))
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"name":       name,
		"totalCards": export.TotalCards,
	})
}

// HandleRemoteRestore imports a previously uploaded backup, with the same
// dedup rules as a file import.
func (h *DeckHandler) HandleRemoteRestore(w http.ResponseWriter, r *http.Request) {
	const op = "DeckHandler.HandleRemoteRestore"

	if h.backup == nil {
		respondError(w, r, errors.InvalidInput(op, nil, "Remote backups are not configured"))
		return
	}

	export, err := h.backup.LoadDeckBackup(r.Context(), r.PathValue("name"))
	if err != nil {
		respondError(w, r, errors.Unavailable(op, err, "Failed to fetch backup"))
		return
	}

	data, err := json.Marshal(export)
	if err != nil {
		respondError(w, r, errors.Internal(op, err, "Failed to encode backup"))
		return
	}
	result, err := h.service.ImportBackup(r.Context(), data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, result)
}

func (h *DeckHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.service.State())
}
