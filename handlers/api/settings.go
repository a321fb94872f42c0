package api

import (
	"net/http"

	"vidlingo/config"
	"vidlingo/errors"
)

// SettingsHandler reads and writes the persisted user config. The file is
// replaced wholesale on every write; last writer wins.
type SettingsHandler struct {
	config *config.Config
}

func NewSettingsHandler(cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{config: cfg}
}

func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uc, err := h.config.ReadUserConfig()
	if err != nil {
		respondError(w, r, errors.Internal("SettingsHandler.HandleGet", err, "Failed to read settings"))
		return
	}
	respondJSON(w, r, http.StatusOK, uc)
}

func (h *SettingsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var uc config.UserConfig
	if err := readJSON(r, &uc); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.config.WriteUserConfig(uc); err != nil {
		respondError(w, r, errors.Internal("SettingsHandler.HandlePut", err, "Failed to write settings"))
		return
	}
	respondJSON(w, r, http.StatusOK, uc)
}
