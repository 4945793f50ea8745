package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testAdminSettings(t *testing.T) AdminSettings {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("swordfish"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return AdminSettings{
		Username:     "admin",
		PasswordHash: string(hash),
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		AuditLimit:   10,
	}
}

func login(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()
	body := marshal(t, map[string]string{"username": username, "password": password})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/login", body))
	if resp.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	decode(t, resp.Body.Bytes(), &out)
	if out.Token == "" {
		t.Fatal("login returned empty token")
	}
	if out.ExpiresIn != 3600 {
		t.Errorf("expires_in = %d, want 3600", out.ExpiresIn)
	}
	return out.Token
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	handler := newTestHandler(t, testAdminSettings(t))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/login",
		marshal(t, map[string]string{"username": "admin", "password": "wrong"})))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/login",
		marshal(t, map[string]string{"username": "someone", "password": "swordfish"})))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	handler := newTestHandler(t, testAdminSettings(t))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/categories", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestAdminCategoryCRUD(t *testing.T) {
	handler := newTestHandler(t, testAdminSettings(t))
	token := login(t, handler, "admin", "swordfish")

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	resp := get("/api/admin/categories")
	if resp.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.Code)
	}
	var cats []adminCategory
	decode(t, resp.Body.Bytes(), &cats)
	if len(cats) != 0 {
		t.Fatalf("fresh store has %d categories", len(cats))
	}

	create := httptest.NewRequest(http.MethodPost, "/api/admin/categories",
		marshal(t, map[string]any{"name": "Напитки", "words": []string{"Чай", "Кофе", "Сок"}}))
	create.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, create)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID    string   `json:"id"`
		Name  string   `json:"name"`
		Words []string `json:"words"`
	}
	decode(t, resp.Body.Bytes(), &created)
	if created.ID == "" || created.Name != "Напитки" || len(created.Words) != 3 {
		t.Fatalf("created = %+v", created)
	}

	dup := httptest.NewRequest(http.MethodPost, "/api/admin/categories",
		marshal(t, map[string]any{"name": "напитки", "words": []string{"Вода"}}))
	dup.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, dup)
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", resp.Code)
	}

	addWords := httptest.NewRequest(http.MethodPost, "/api/admin/categories/"+created.ID+"/words",
		marshal(t, map[string]any{"words": []string{"Вода"}}))
	addWords.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, addWords)
	if resp.Code != http.StatusOK {
		t.Fatalf("add words status = %d: %s", resp.Code, resp.Body.String())
	}
	var updated struct {
		Words []string `json:"words"`
	}
	decode(t, resp.Body.Bytes(), &updated)
	if len(updated.Words) != 4 {
		t.Fatalf("category has %d words after append, want 4", len(updated.Words))
	}

	// Four words make the category playable.
	resp = get("/api/admin/categories")
	decode(t, resp.Body.Bytes(), &cats)
	if len(cats) != 1 {
		t.Fatalf("list has %d categories, want 1", len(cats))
	}
	if !cats[0].Playable {
		t.Error("four-word category not marked playable")
	}

	del := httptest.NewRequest(http.MethodDelete, "/api/admin/categories/"+created.ID, nil)
	del.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, del)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.Code)
	}

	del = httptest.NewRequest(http.MethodDelete, "/api/admin/categories/"+created.ID, nil)
	del.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, del)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("delete missing status = %d, want 404", resp.Code)
	}
}

func TestAdminRegenerate(t *testing.T) {
	handler := newTestHandler(t, testAdminSettings(t))
	token := login(t, handler, "admin", "swordfish")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/regenerate",
		marshal(t, map[string]string{"date": "2024-06-01"}))
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("regenerate status = %d: %s", resp.Code, resp.Body.String())
	}
	var puzzle struct {
		Date   string `json:"date"`
		Source string `json:"source"`
	}
	decode(t, resp.Body.Bytes(), &puzzle)
	if puzzle.Date != "2024-06-01" {
		t.Errorf("puzzle date = %q, want 2024-06-01", puzzle.Date)
	}
	if puzzle.Source != "fallback" {
		t.Errorf("puzzle source = %q, want fallback on empty store", puzzle.Source)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/admin/regenerate",
		marshal(t, map[string]string{"date": "June 1st"}))
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", resp.Code)
	}

	// An empty body regenerates today.
	req = httptest.NewRequest(http.MethodPost, "/api/admin/regenerate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("empty body status = %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminAuditTrail(t *testing.T) {
	handler := newTestHandler(t, testAdminSettings(t))
	token := login(t, handler, "admin", "swordfish")

	create := httptest.NewRequest(http.MethodPost, "/api/admin/categories",
		marshal(t, map[string]any{"name": "Цвета", "words": []string{"Белый"}}))
	create.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, create)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create status = %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("audit status = %d: %s", resp.Code, resp.Body.String())
	}
	var entries []struct {
		User   string `json:"user"`
		Action string `json:"action"`
		Status int    `json:"status"`
	}
	decode(t, resp.Body.Bytes(), &entries)
	if len(entries) != 2 {
		t.Fatalf("audit has %d entries, want login + create", len(entries))
	}
	if entries[0].Action != "login" || entries[1].Action != "category_created" {
		t.Errorf("audit actions = %v", entries)
	}
	if entries[1].User != "admin" {
		t.Errorf("audit user = %q, want admin", entries[1].User)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/audit?limit=1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	decode(t, resp.Body.Bytes(), &entries)
	if len(entries) != 1 || entries[0].Action != "category_created" {
		t.Errorf("limited audit = %v, want just the latest entry", entries)
	}
}

func TestAdminNotMountedWithoutSettings(t *testing.T) {
	handler := newTestHandler(t, AdminSettings{})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/admin/login",
		marshal(t, map[string]string{"username": "admin", "password": "swordfish"})))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when admin is not configured", resp.Code)
	}
}
