package handlers

import (
	"net/http"
	"strings"

	"climatefund/internal/chain"
)

// PlatformStats proxies getPlatformStats. The deployment comes from
// ?contract= or the configured address.
func (a *App) PlatformStats(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("contract"))
	if raw == "" {
		raw = a.DefaultContract
	}
	if raw == "" {
		a.error(w, http.StatusInternalServerError, "Contract address not configured", nil)
		return
	}
	contract, err := chain.ParseAddress(raw)
	if err != nil {
		a.error(w, http.StatusBadRequest, "Missing parameters", err)
		return
	}
	stats, err := a.Chain.GetPlatformStats(r.Context(), contract)
	if err != nil {
		a.logger().Error().Err(err).Str("contract", contract.Hex()).Msg("platform stats read failed")
		a.error(w, http.StatusInternalServerError, "Failed to fetch platform statistics", err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{
		"totalProjects":        stats.TotalProjects.String(),
		"activeProjects":       stats.ActiveProjects.String(),
		"completedProjects":    stats.CompletedProjects.String(),
		"totalDonationsAmount": stats.TotalDonationsAmount.String(),
		"totalDonors":          stats.TotalDonors.String(),
	})
}
