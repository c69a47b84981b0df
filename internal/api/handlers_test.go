package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/JianyueLab/JianyueBOT/internal/config"
	"github.com/JianyueLab/JianyueBOT/internal/models"
	"github.com/JianyueLab/JianyueBOT/internal/monitor"
	"github.com/JianyueLab/JianyueBOT/internal/services"
	"github.com/JianyueLab/JianyueBOT/internal/store"
)

type discardNotifier struct{}

func (discardNotifier) Notify(_ context.Context, _ string, _ []models.ExpiringDomain) error {
	return nil
}

// newTestRouter wires a full gateway against a fake WHOIS provider. The
// provider serves the envelope format and can be switched to failure
// mode through the returned flags.
func newTestRouter(t *testing.T) (*gin.Engine, *providerState) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	state := &providerState{
		expiration: time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339),
	}
	whoisSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if state.fail {
			json.NewEncoder(w).Encode(map[string]interface{}{"code": 1, "msg": "not found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"msg":  "",
			"data": map[string]interface{}{
				"domain":         r.URL.Query().Get("domain"),
				"registrar":      "Example Registrar",
				"expirationDate": state.expiration,
			},
		})
	}))
	t.Cleanup(whoisSrv.Close)

	log := zerolog.Nop()
	whoisService := services.NewWhoisService(&config.WhoisConfig{
		APIURL:        whoisSrv.URL,
		RatePerMinute: 6000,
	}, log)

	st := store.New(filepath.Join(t.TempDir(), "watch.json"), whoisService, log)
	monitorService := monitor.NewService(st, discardNotifier{}, &config.MonitorConfig{
		AlertWindowDays: 7,
		StaleAfter:      "24h",
	}, log)
	authService, err := services.NewAuthService(&config.AuthConfig{
		Username:  "bot",
		Password:  "hunter2",
		JWTSecret: "test-secret",
	})
	if err != nil {
		t.Fatal(err)
	}

	commands := &config.CommandsConfig{}
	handler := NewHandler(
		st,
		whoisService,
		monitorService,
		authService,
		services.NewPricingService(commands, log),
		services.NewIPInfoService(commands, log),
		services.NewZipcodeService(commands, log),
		services.NewMinecraftService(commands, log),
		services.NewBinCheckService(commands, log),
		log,
	)

	r := gin.New()
	SetupRoutes(r, handler)
	return r, state
}

type providerState struct {
	fail       bool
	expiration string
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := request(r, http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"username": "bot", "password": "hunter2"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login response %s: %v", w.Body, err)
	}
	return resp.Token
}

func request(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, _ := newTestRouter(t)

	w := request(r, http.MethodPost, "/api/v1/auth/login", "",
		gin.H{"username": "bot", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	if w := request(r, http.MethodGet, "/api/v1/monitors/42", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", w.Code)
	}
	if w := request(r, http.MethodGet, "/api/v1/monitors/42", "not-a-jwt", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", w.Code)
	}
}

func TestMonitorLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)
	token := login(t, r)

	// Add normalizes the submitted form before storing.
	w := request(r, http.MethodPost, "/api/v1/monitors", token,
		gin.H{"user_id": "42", "domain": "https://WWW.Example.COM/"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %s", w.Code, w.Body)
	}
	var added struct {
		Domain          string `json:"domain"`
		ExpirationDate  string `json:"expirationDate"`
		DaysUntilExpiry *int   `json:"daysUntilExpiry"`
	}
	json.Unmarshal(w.Body.Bytes(), &added)
	if added.Domain != "example.com" {
		t.Errorf("stored domain = %q, want example.com", added.Domain)
	}
	if added.DaysUntilExpiry == nil || *added.DaysUntilExpiry != 2 {
		t.Errorf("daysUntilExpiry = %v, want 2", added.DaysUntilExpiry)
	}

	// Re-adding any case variant conflicts.
	w = request(r, http.MethodPost, "/api/v1/monitors", token,
		gin.H{"user_id": "42", "domain": "Example.com"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate add status = %d, want 409", w.Code)
	}

	// The list shows the stored entry.
	w = request(r, http.MethodGet, "/api/v1/monitors/42", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var listed struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &listed)
	if listed.Count != 1 {
		t.Errorf("count = %d, want 1", listed.Count)
	}

	// An on-demand check sees the domain inside the alert window.
	w = request(r, http.MethodPost, "/api/v1/monitors/42/check", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("check status = %d", w.Code)
	}
	var checked struct {
		Expiring []struct {
			Domain   string `json:"domain"`
			DaysLeft int    `json:"daysLeft"`
		} `json:"expiring"`
	}
	json.Unmarshal(w.Body.Bytes(), &checked)
	if len(checked.Expiring) != 1 || checked.Expiring[0].Domain != "example.com" {
		t.Fatalf("expiring = %+v, want example.com", checked.Expiring)
	}

	// Removal accepts the original un-normalized form.
	w = request(r, http.MethodDelete, "/api/v1/monitors/42/WWW.example.com", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove status = %d, body %s", w.Code, w.Body)
	}
	w = request(r, http.MethodGet, "/api/v1/monitors/42", token, nil)
	json.Unmarshal(w.Body.Bytes(), &listed)
	if listed.Count != 0 {
		t.Errorf("count after remove = %d, want 0", listed.Count)
	}
}

func TestAddMonitorRejectsInvalidDomain(t *testing.T) {
	r, _ := newTestRouter(t)
	token := login(t, r)

	w := request(r, http.MethodPost, "/api/v1/monitors", token,
		gin.H{"user_id": "42", "domain": "not a domain"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAddMonitorLookupFailureStoresNothing(t *testing.T) {
	r, state := newTestRouter(t)
	token := login(t, r)
	state.fail = true

	w := request(r, http.MethodPost, "/api/v1/monitors", token,
		gin.H{"user_id": "42", "domain": "example.com"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	w = request(r, http.MethodGet, "/api/v1/monitors/42", token, nil)
	var listed struct {
		Count int `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &listed)
	if listed.Count != 0 {
		t.Errorf("count = %d, want 0 after failed lookup", listed.Count)
	}
}

func TestRemoveMonitorUnknownDomain(t *testing.T) {
	r, _ := newTestRouter(t)
	token := login(t, r)

	w := request(r, http.MethodDelete, "/api/v1/monitors/42/nosuch.com", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestWhoisEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	token := login(t, r)

	w := request(r, http.MethodGet, "/api/v1/whois/example.com", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		Info struct {
			Domain    string `json:"domain"`
			Registrar string `json:"registrar"`
		} `json:"info"`
		DaysUntilExpiry *int `json:"daysUntilExpiry"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Info.Registrar != "Example Registrar" {
		t.Errorf("registrar = %q", resp.Info.Registrar)
	}
	if resp.DaysUntilExpiry == nil {
		t.Error("daysUntilExpiry missing")
	}

	if w := request(r, http.MethodGet, "/api/v1/whois/빈.example", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("non-ASCII domain status = %d, want 400", w.Code)
	}
}
