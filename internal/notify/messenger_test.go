package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/JianyueLab/JianyueBOT/internal/config"
	"github.com/JianyueLab/JianyueBOT/internal/models"
)

func testReport() *models.Report {
	return &models.Report{
		Title: "⚠️ Domain Expiry Reminder",
		Body:  "The following domains are about to expire:",
		Fields: []models.ReportField{
			{Name: "🔴 a.com", Value: "Remaining time: 3 days\nRegistrar: Example"},
		},
		Footer: "Check time: 2026-09-02 12:00:00",
	}
}

func TestBotMessengerSendDirect(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewBotMessenger(&config.NotifyConfig{APIBase: srv.URL, BotToken: "secret"}, zerolog.Nop())
	if err := m.SendDirect(context.Background(), "42", testReport()); err != nil {
		t.Fatalf("SendDirect: %v", err)
	}

	if gotPath != "/botsecret/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["chat_id"] != "42" {
		t.Errorf("chat_id = %v, want 42", gotBody["chat_id"])
	}
	text, _ := gotBody["text"].(string)
	if !strings.Contains(text, "a.com") || !strings.Contains(text, "Remaining time: 3 days") {
		t.Errorf("rendered text missing report content: %q", text)
	}
}

func TestBotMessengerBlockedRecipient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	m := NewBotMessenger(&config.NotifyConfig{APIBase: srv.URL, BotToken: "secret"}, zerolog.Nop())
	err := m.SendDirect(context.Background(), "42", testReport())
	if !errors.Is(err, ErrRecipientBlocked) {
		t.Errorf("err = %v, want ErrRecipientBlocked", err)
	}
}

func TestRenderReportChannelPrefix(t *testing.T) {
	text := renderReport(testReport(), "@42")
	if !strings.Contains(text, "@42: The following domains") {
		t.Errorf("channel rendering should lead with the user reference: %q", text)
	}
	if !strings.HasPrefix(text, "⚠️ Domain Expiry Reminder") {
		t.Errorf("title should come first: %q", text)
	}
	if !strings.HasSuffix(text, "Check time: 2026-09-02 12:00:00") {
		t.Errorf("footer should come last: %q", text)
	}
}
