package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nerrad567/voice-gateway/internal/auth"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/config"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/voice-gateway/internal/infrastructure/mqtt"
	"github.com/nerrad567/voice-gateway/internal/orchestrator"
)

const testJWTSecret = "test-secret-key-at-least-32-bytes-long"

// stubBus is a no-op orchestrator.Bus: every publish/subscribe succeeds and
// no response ever arrives, so action/query calls resolve once their
// collection window elapses.
type stubBus struct{}

func (stubBus) Publish(string, []byte, byte, bool) error                       { return nil }
func (stubBus) Subscribe(string, byte, mqtt.MessageHandler) error              { return nil }
func (stubBus) Unsubscribe(string) error                                      { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "json", Output: "stdout"}, "test")
	bus := stubBus{}
	srv, err := New(Deps{
		Config:       config.APIConfig{Host: "127.0.0.1", Port: 0, Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5}},
		JWTSecret:    testJWTSecret,
		Logger:       logger,
		ActionRunner: orchestrator.NewActionRunner(bus, logger),
		QueryRunner:  orchestrator.NewQueryRunner(bus, logger),
		Version:      "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func signTestToken(t *testing.T, subject string) string {
	t.Helper()
	claims := auth.Claims{jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestHandleDevices_RequiresAuth(t *testing.T) {
	srv := newTestServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1.0/user/devices", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate challenge header")
	}
}

func TestHandleDevices_ReturnsCatalog(t *testing.T) {
	srv := newTestServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1.0/user/devices", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Payload struct {
			Devices []catalogDevice `json:"devices"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Payload.Devices) == 0 {
		t.Error("expected a non-empty device catalog")
	}
}

func TestHandleAction_UnsupportedCapabilityIsBadRequest(t *testing.T) {
	srv := newTestServer(t)
	router := srv.buildRouter()

	reqBody := `{"payload":{"devices":[{"id":"light/corridor","capabilities":[{"type":"devices.capabilities.color_setting","state":{"instance":"rgb","value":20}}]}]}}`
	req := httptest.NewRequest(http.MethodPost, "/v1.0/user/devices/action", strings.NewReader(reqBody))
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleQuery_TimesOutWithNoResponders(t *testing.T) {
	srv := newTestServer(t)
	router := srv.buildRouter()

	reqBody := `{"devices":[{"id":"light/corridor"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1.0/user/devices/query", strings.NewReader(reqBody))
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-1"))
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("query request did not return within its own collection window")
	}

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
