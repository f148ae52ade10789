package catalog

import (
	"encoding/json"
	"net/http"
)

// EntriesRoute lists the modpack sources an installation can be created from.
type EntriesRoute struct {
	registryURL string
}

func NewEntriesRoute(registryURL string) *EntriesRoute {
	return &EntriesRoute{registryURL: registryURL}
}

func (h *EntriesRoute) Pattern() string {
	return "/packmule/v1/catalog"
}

func (h *EntriesRoute) Method() string {
	return http.MethodGet
}

func (h *EntriesRoute) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entries, err := Entries(h.registryURL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
