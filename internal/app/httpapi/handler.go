// Package httpapi exposes the game over REST: the public play surface
// plus the JWT-guarded category administration API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	app "github.com/TylMus/tylmus-backend/internal/app"
	domain "github.com/TylMus/tylmus-backend/internal/app/domain/game"
	gamesvc "github.com/TylMus/tylmus-backend/internal/app/services/game"
	"github.com/TylMus/tylmus-backend/internal/middleware"
	"github.com/TylMus/tylmus-backend/pkg/logger"
)

const (
	serviceName    = "tylmus-backend"
	serviceVersion = "1.0.0"
)

// handler bundles HTTP endpoints for the game service.
type handler struct {
	app   *app.Application
	log   *logger.Logger
	admin AdminSettings
	audit *auditLog
}

// NewHandler returns the API router. Admin routes are mounted only when
// settings carry credentials and a signing secret.
func NewHandler(application *app.Application, admin AdminSettings, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}

	h := &handler{app: application, log: log, admin: admin}

	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware(application.Metrics))

	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", application.Metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/game", h.game).Methods(http.MethodGet)
	api.HandleFunc("/check_selection", h.checkSelection).Methods(http.MethodPost)
	api.HandleFunc("/game_status", h.gameStatus).Methods(http.MethodGet)
	api.HandleFunc("/daily_info", h.dailyInfo).Methods(http.MethodGet)

	if admin.Enabled() {
		h.mountAdmin(r)
	}

	return r
}

func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Connections Game API is running",
		"service": serviceName,
		"version": serviceVersion,
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   serviceName,
		"version":   serviceVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) game(w http.ResponseWriter, r *http.Request) {
	puzzle, _, err := h.app.Game.Daily(r.Context(), time.Now())
	if err != nil {
		h.log.WithError(err).Error("serve daily puzzle")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Words      []string                `json:"words"`
		Categories []domain.PuzzleCategory `json:"categories"`
		GameDate   string                  `json:"game_date"`
	}{
		Words:      puzzle.Words,
		Categories: puzzle.Categories,
		GameDate:   puzzle.GeneratedAt.Format(time.RFC3339),
	})
}

func (h *handler) checkSelection(w http.ResponseWriter, r *http.Request) {
	// The body is a bare JSON array of the selected words.
	var selected []string
	if err := decodeJSON(r.Body, &selected); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.app.Game.CheckSelection(r.Context(), time.Now(), selected)
	switch {
	case errors.Is(err, gamesvc.ErrNoGame):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": gamesvc.MsgGameNotFound})
		return
	case err != nil:
		h.log.WithError(err).Error("check selection")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if !result.Valid {
		writeJSON(w, http.StatusOK, struct {
			Valid   bool   `json:"valid"`
			Message string `json:"message"`
		}{false, result.Message})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Valid        bool   `json:"valid"`
		CategoryName string `json:"category_name"`
		Remaining    int    `json:"remaining"`
		GameComplete bool   `json:"game_complete"`
	}{true, result.CategoryName, result.Remaining, result.GameComplete})
}

func (h *handler) gameStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.app.Game.Status(r.Context(), time.Now())
	switch {
	case errors.Is(err, gamesvc.ErrNoGame):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": gamesvc.MsgGameNotFound})
		return
	case err != nil:
		h.log.WithError(err).Error("game status")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	found := status.Found
	if found == nil {
		found = []domain.FoundCategory{}
	}
	writeJSON(w, http.StatusOK, struct {
		FoundCategories []domain.FoundCategory `json:"found_categories"`
		TotalCategories int                    `json:"total_categories"`
		Remaining       int                    `json:"remaining"`
		GameDate        string                 `json:"game_date"`
	}{found, status.Total, status.Remaining, status.GameDate.Format(time.RFC3339)})
}

func (h *handler) dailyInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.app.Game.Info(r.Context(), time.Now())
	if err != nil {
		h.log.WithError(err).Error("daily info")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var current *string
	if info.CurrentGameDate != "" {
		current = &info.CurrentGameDate
	}
	writeJSON(w, http.StatusOK, struct {
		Today           string  `json:"today"`
		CurrentGameDate *string `json:"current_game_date"`
		IsNewDay        bool    `json:"is_new_day"`
		GameComplete    bool    `json:"game_complete"`
		FoundCount      int     `json:"found_count"`
	}{info.Today, current, info.IsNewDay, info.GameComplete, info.FoundCount})
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
