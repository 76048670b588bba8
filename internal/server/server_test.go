package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type jsonDecoder struct{}

func (jsonDecoder) HandleUpdate(r *http.Request) (*tgbotapi.Update, error) {
	if r.Method != http.MethodPost {
		return nil, errors.New("wrong HTTP method required POST")
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		return nil, err
	}
	return &update, nil
}

type staticStats map[string]any

func (s staticStats) Stats() map[string]any { return s }

func TestHealth(t *testing.T) {
	s := New(Config{Addr: ":0"}, nil, staticStats{"runs": 2}, zerolog.New(io.Discard))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("unexpected status field %v", body["status"])
	}
	if body["runs"] != float64(2) {
		t.Errorf("stats are missing from health: %v", body)
	}
}

func TestWebhookPushesUpdates(t *testing.T) {
	s := New(Config{Addr: ":0", WebhookPath: "/webhook"}, jsonDecoder{}, nil, zerolog.New(io.Discard))

	payload := `{"update_id": 7, "message": {"message_id": 1, "text": "/news_easy", "chat": {"id": 42, "type": "private"}}}`

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	select {
	case update := <-s.Updates():
		if update.UpdateID != 7 || update.Message == nil || update.Message.Chat.ID != 42 {
			t.Errorf("unexpected update %+v", update)
		}
	default:
		t.Fatalf("update was not queued")
	}
}

func TestWebhookRejectsGarbage(t *testing.T) {
	s := New(Config{Addr: ":0", WebhookPath: "/webhook"}, jsonDecoder{}, nil, zerolog.New(io.Discard))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("not json")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if len(s.Updates()) != 0 {
		t.Errorf("nothing should be queued")
	}
}

func TestWebhookDisabledInPollingMode(t *testing.T) {
	s := New(Config{Addr: ":0"}, nil, nil, zerolog.New(io.Discard))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}")))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
