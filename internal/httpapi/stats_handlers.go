package httpapi

import (
	"net/http"

	"urlfinder-engine/internal/store"
)

type StatsHandler struct {
	Store *store.Store
}

func (h StatsHandler) Regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.Store.ListRegions(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if regions == nil {
		regions = []string{}
	}
	writeJSON(w, map[string]any{"regions": regions})
}

func (h StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	missing, total, err := h.Store.CountMissing(r.Context(), region)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{
		"region":  region,
		"missing": missing,
		"total":   total,
	})
}
