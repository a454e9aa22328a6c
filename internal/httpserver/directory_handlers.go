package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"elearning_go/internal/domain"
	"elearning_go/internal/service"
)

func handleSearchUsers(dir *service.DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		results, err := dir.Search(r.Context(), q.Get("q"), q.Get("role"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.SearchResponse{Results: results})
	}
}

// handleProfile serves the profile as JSON regardless of ?format.
func handleProfile(dir *service.DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := dir.Profile(r.Context(), chi.URLParam(r, "username"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleLegacyProfile(dir *service.DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathID(w, r, "userID")
		if !ok {
			return
		}
		p, err := dir.LegacyProfile(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
