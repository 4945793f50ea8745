package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/TylMus/tylmus-backend/internal/app"
)

func newTestHandler(t *testing.T, admin AdminSettings) http.Handler {
	t.Helper()
	application, err := app.New(app.Stores{}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	return NewHandler(application, admin, nil)
}

func marshal(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

func decode(t *testing.T, body []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("unmarshal response %s: %v", body, err)
	}
}

type gameResponse struct {
	Words      []string `json:"words"`
	Categories []struct {
		Name  string   `json:"name"`
		Words []string `json:"words"`
	} `json:"categories"`
	GameDate string `json:"game_date"`
}

func TestGameFlow(t *testing.T) {
	application, err := app.New(app.Stores{}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	if err := application.Start(context.Background()); err != nil {
		t.Fatalf("start application: %v", err)
	}
	defer application.Stop(context.Background())

	handler := NewHandler(application, AdminSettings{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("banner status = %d, want 200", resp.Code)
	}
	var banner map[string]string
	decode(t, resp.Body.Bytes(), &banner)
	if banner["message"] != "Connections Game API is running" {
		t.Errorf("banner message = %q", banner["message"])
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.Code)
	}
	var health map[string]string
	decode(t, resp.Body.Bytes(), &health)
	if health["status"] != "healthy" {
		t.Errorf("health status field = %q, want healthy", health["status"])
	}
	if health["timestamp"] == "" {
		t.Error("health timestamp missing")
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/game", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("game status = %d, want 200: %s", resp.Code, resp.Body.String())
	}
	var game gameResponse
	decode(t, resp.Body.Bytes(), &game)
	if len(game.Words) != 16 {
		t.Fatalf("board has %d words, want 16", len(game.Words))
	}
	if len(game.Categories) != 4 {
		t.Fatalf("board has %d categories, want 4", len(game.Categories))
	}
	if game.GameDate == "" {
		t.Error("game_date missing")
	}

	// A wrong guess keeps the session untouched.
	wrong := []string{game.Categories[0].Words[0], game.Categories[1].Words[0], game.Categories[2].Words[0], game.Categories[3].Words[0]}
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/check_selection", marshal(t, wrong)))
	if resp.Code != http.StatusOK {
		t.Fatalf("wrong guess status = %d, want 200", resp.Code)
	}
	var miss struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	decode(t, resp.Body.Bytes(), &miss)
	if miss.Valid {
		t.Error("mixed selection reported valid")
	}
	if miss.Message != "Эти слова не образуют категорию" {
		t.Errorf("miss message = %q", miss.Message)
	}

	// Solve all four groups.
	for i, cat := range game.Categories {
		resp = httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/check_selection", marshal(t, cat.Words)))
		if resp.Code != http.StatusOK {
			t.Fatalf("guess %d status = %d, want 200", i, resp.Code)
		}
		var hit struct {
			Valid        bool   `json:"valid"`
			CategoryName string `json:"category_name"`
			Remaining    int    `json:"remaining"`
			GameComplete bool   `json:"game_complete"`
		}
		decode(t, resp.Body.Bytes(), &hit)
		if !hit.Valid {
			t.Fatalf("guess %d rejected: %s", i, resp.Body.String())
		}
		if hit.CategoryName != cat.Name {
			t.Errorf("guess %d category = %q, want %q", i, hit.CategoryName, cat.Name)
		}
		if hit.Remaining != 3-i {
			t.Errorf("guess %d remaining = %d, want %d", i, hit.Remaining, 3-i)
		}
		if hit.GameComplete != (i == 3) {
			t.Errorf("guess %d game_complete = %v", i, hit.GameComplete)
		}
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/game_status", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("game_status status = %d, want 200", resp.Code)
	}
	var status struct {
		FoundCategories []struct {
			Name string `json:"name"`
		} `json:"found_categories"`
		TotalCategories int    `json:"total_categories"`
		Remaining       int    `json:"remaining"`
		GameDate        string `json:"game_date"`
	}
	decode(t, resp.Body.Bytes(), &status)
	if len(status.FoundCategories) != 4 || status.TotalCategories != 4 || status.Remaining != 0 {
		t.Errorf("status = %+v, want 4 found / 0 remaining", status)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/daily_info", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("daily_info status = %d, want 200", resp.Code)
	}
	var info struct {
		Today           string  `json:"today"`
		CurrentGameDate *string `json:"current_game_date"`
		IsNewDay        bool    `json:"is_new_day"`
		GameComplete    bool    `json:"game_complete"`
		FoundCount      int     `json:"found_count"`
	}
	decode(t, resp.Body.Bytes(), &info)
	if info.CurrentGameDate == nil || *info.CurrentGameDate != info.Today {
		t.Errorf("current_game_date = %v, want today %q", info.CurrentGameDate, info.Today)
	}
	if info.IsNewDay {
		t.Error("is_new_day true with a live session")
	}
	if !info.GameComplete || info.FoundCount != 4 {
		t.Errorf("daily info = %+v, want complete with 4 found", info)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", resp.Code)
	}
	if resp.Body.Len() == 0 {
		t.Error("metrics output empty")
	}
}

func TestCheckSelectionWithoutGame(t *testing.T) {
	handler := newTestHandler(t, AdminSettings{})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/check_selection", marshal(t, []string{"а", "б", "в", "г"})))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
	var body map[string]string
	decode(t, resp.Body.Bytes(), &body)
	if body["error"] != "Игра не найдена" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestCheckSelectionWrongSize(t *testing.T) {
	handler := newTestHandler(t, AdminSettings{})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/game", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("game status = %d, want 200", resp.Code)
	}
	var game gameResponse
	decode(t, resp.Body.Bytes(), &game)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/check_selection", marshal(t, game.Words[:2])))
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var body struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	decode(t, resp.Body.Bytes(), &body)
	if body.Valid {
		t.Error("two-word selection reported valid")
	}
	if body.Message != "Выберите ровно 4 слова" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestCheckSelectionMalformedJSON(t *testing.T) {
	handler := newTestHandler(t, AdminSettings{})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/check_selection", bytes.NewReader([]byte("{not json"))))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestGameStatusWithoutSession(t *testing.T) {
	handler := newTestHandler(t, AdminSettings{})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/game_status", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
	var body map[string]string
	decode(t, resp.Body.Bytes(), &body)
	if body["error"] != "Игра не найдена" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestDailyInfoFreshDay(t *testing.T) {
	handler := newTestHandler(t, AdminSettings{})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/daily_info", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var info struct {
		Today           string  `json:"today"`
		CurrentGameDate *string `json:"current_game_date"`
		IsNewDay        bool    `json:"is_new_day"`
		FoundCount      int     `json:"found_count"`
	}
	decode(t, resp.Body.Bytes(), &info)
	if info.Today == "" {
		t.Error("today missing")
	}
	if info.CurrentGameDate != nil {
		t.Errorf("current_game_date = %v, want null", *info.CurrentGameDate)
	}
	if !info.IsNewDay {
		t.Error("is_new_day false without a session")
	}
	if info.FoundCount != 0 {
		t.Errorf("found_count = %d, want 0", info.FoundCount)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, AdminSettings{})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/check_selection", nil))
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.Code)
	}
}

func TestUnknownPathReturns404(t *testing.T) {
	handler := newTestHandler(t, AdminSettings{})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}
