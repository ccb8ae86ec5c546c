package handlers

import (
	"net/http"

	"climatefund/internal/fhe"
)

// FHEStatus reports the relayer session used for donations.
func (a *App) FHEStatus(w http.ResponseWriter, r *http.Request) {
	if a.FHE == nil {
		var none *fhe.Session
		a.json(w, http.StatusOK, none.Status())
		return
	}
	a.json(w, http.StatusOK, a.FHE.Status())
}
