package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	domain "github.com/TylMus/tylmus-backend/internal/app/domain/game"
	gamesvc "github.com/TylMus/tylmus-backend/internal/app/services/game"
	"github.com/TylMus/tylmus-backend/internal/app/storage"
	"github.com/TylMus/tylmus-backend/internal/logging"
	"github.com/TylMus/tylmus-backend/internal/middleware"
)

// AdminSettings carries what the admin surface needs from configuration.
type AdminSettings struct {
	Username     string
	PasswordHash string // bcrypt
	JWTSecret    string
	TokenTTL     time.Duration
	AuditLimit   int
	AuditFile    string
}

// Enabled reports whether the admin API should be mounted.
func (s AdminSettings) Enabled() bool {
	return s.Username != "" && s.PasswordHash != "" && s.JWTSecret != ""
}

// adminCategory decorates a category with its playable flag.
type adminCategory struct {
	domain.Category
	Playable bool `json:"playable"`
}

func (h *handler) mountAdmin(r *mux.Router) {
	var sink auditSink
	if h.admin.AuditFile != "" {
		fs, err := newFileAuditSink(h.admin.AuditFile)
		if err != nil {
			h.log.WithError(err).Warn("audit file unavailable, keeping audit in memory only")
		} else {
			sink = fs
		}
	}
	h.audit = newAuditLog(h.admin.AuditLimit, sink)

	auth := middleware.NewAuthMiddleware(
		[]byte(h.admin.JWTSecret),
		logging.New(serviceName, "info", "json"),
		[]string{"/api/admin/login"},
	)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(auth.Handler)
	admin.HandleFunc("/login", h.adminLogin).Methods(http.MethodPost)
	admin.HandleFunc("/categories", h.adminListCategories).Methods(http.MethodGet)
	admin.HandleFunc("/categories", h.adminCreateCategory).Methods(http.MethodPost)
	admin.HandleFunc("/categories/{id}/words", h.adminAddWords).Methods(http.MethodPost)
	admin.HandleFunc("/categories/{id}", h.adminDeleteCategory).Methods(http.MethodDelete)
	admin.HandleFunc("/regenerate", h.adminRegenerate).Methods(http.MethodPost)
	admin.HandleFunc("/audit", h.adminAudit).Methods(http.MethodGet)
}

func (h *handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if payload.Username != h.admin.Username ||
		bcrypt.CompareHashAndPassword([]byte(h.admin.PasswordHash), []byte(payload.Password)) != nil {
		h.recordAudit(r, "login_failed", http.StatusUnauthorized)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	ttl := h.admin.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, err := middleware.GenerateToken([]byte(h.admin.JWTSecret), payload.Username, ttl)
	if err != nil {
		h.log.WithError(err).Error("sign admin token")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.recordAudit(r, "login", http.StatusOK)
	writeJSON(w, http.StatusOK, struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}{token, int(ttl.Seconds())})
}

func (h *handler) adminListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.app.Game.ListCategories(r.Context())
	if err != nil {
		h.log.WithError(err).Error("list categories")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]adminCategory, 0, len(cats))
	for _, c := range cats {
		out = append(out, adminCategory{Category: c, Playable: gamesvc.Playable(c)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) adminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name  string   `json:"name"`
		Words []string `json:"words"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Game.CreateCategory(r.Context(), payload.Name, payload.Words)
	switch {
	case errors.Is(err, gamesvc.ErrNameRequired):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, fmt.Errorf("category %q already exists", strings.TrimSpace(payload.Name)))
		return
	case err != nil:
		h.log.WithError(err).Error("create category")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.recordAudit(r, "category_created", http.StatusCreated)
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) adminAddWords(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var payload struct {
		Words []string `json:"words"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.Game.AddWords(r.Context(), id, payload.Words)
	switch {
	case errors.Is(err, gamesvc.ErrWordsRequired):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Errorf("category %s not found", id))
		return
	case err != nil:
		h.log.WithError(err).Error("add words")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.recordAudit(r, "words_added", http.StatusOK)
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) adminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := h.app.Game.DeleteCategory(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Errorf("category %s not found", id))
		return
	case err != nil:
		h.log.WithError(err).Error("delete category")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.recordAudit(r, "category_deleted", http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) adminRegenerate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	when := time.Now()
	if trimmed := strings.TrimSpace(payload.Date); trimmed != "" {
		parsed, err := time.Parse("2006-01-02", trimmed)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("date must be YYYY-MM-DD"))
			return
		}
		when = parsed
	}

	puzzle, err := h.app.Game.Regenerate(r.Context(), when)
	if err != nil {
		h.log.WithError(err).Error("regenerate puzzle")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.recordAudit(r, "puzzle_regenerated", http.StatusOK)
	writeJSON(w, http.StatusOK, puzzle)
}

func (h *handler) adminAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	entries := h.audit.listLimit(limit)
	if entries == nil {
		entries = []auditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) recordAudit(r *http.Request, action string, status int) {
	if h.audit == nil {
		return
	}
	h.audit.add(auditEntry{
		Time:       time.Now().UTC(),
		User:       middleware.GetUserID(r.Context()),
		Action:     action,
		Path:       r.URL.Path,
		Method:     r.Method,
		Status:     status,
		RemoteAddr: r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	})
}
