package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if a.FHE != nil {
		body["fheReady"] = a.FHE.Status().IsInitialized
	}
	body["contractConfigured"] = a.DefaultContract != ""
	a.json(w, http.StatusOK, body)
}
