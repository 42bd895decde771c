package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sosbeacon/server/internal/app"
	"github.com/sosbeacon/server/internal/config"
	"github.com/sosbeacon/server/internal/http/handlers"
)

// testServer holds the wired app behind an httptest server
type testServer struct {
	Server *httptest.Server
	App    *app.App
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	a, err := app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err, "app must build")
	t.Cleanup(func() { _ = a.Close() })

	server := httptest.NewServer(a.Handler)
	t.Cleanup(server.Close)

	return &testServer{Server: server, App: a}
}

func (s *testServer) post(t *testing.T, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	resp, err := s.Server.Client().Post(s.Server.URL+path, "application/json", reader)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out), "response must be JSON")
	return resp.StatusCode, out
}

func TestEmergencyE2E_Memory(t *testing.T) {
	runEmergencyE2E(t, newTestServer(t, TestConfig(config.StoreMemory, "")))
}

func TestEmergencyE2E_Postgres(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres E2E test")
	}
	require.NoError(t, ResetDatabase(context.Background(), databaseURL))

	runEmergencyE2E(t, newTestServer(t, TestConfig(config.StorePostgres, databaseURL)))
}

// runEmergencyE2E expects a fresh store
func runEmergencyE2E(t *testing.T, ts *testServer) {
	t.Run("A_Health", func(t *testing.T) {
		resp, err := ts.Server.Client().Get(ts.Server.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body["ok"])
	})

	t.Run("B_SaveContact", func(t *testing.T) {
		code, out := ts.post(t, "/api/phone", map[string]string{"countryCode": "+1", "phoneNumber": "5551234567"})
		require.Equal(t, http.StatusOK, code, "body: %v", out)
		assert.Equal(t, handlers.ContactSavedMessage, out["message"])

		contact := out["contact"].(map[string]interface{})
		assert.Equal(t, float64(1), contact["id"])
		assert.Equal(t, "+1", contact["countryCode"])
		assert.Nil(t, contact["userId"])

		code, out = ts.post(t, "/api/phone", map[string]string{"countryCode": "+44", "phoneNumber": "555-123-4567"})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(2), out["contact"].(map[string]interface{})["id"])
	})

	t.Run("C_InvalidContact", func(t *testing.T) {
		code, out := ts.post(t, "/api/phone", map[string]string{"countryCode": "", "phoneNumber": "123"})
		require.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, out["message"], "10 digits")
	})

	t.Run("D_SOSAlwaysFails", func(t *testing.T) {
		start := time.Now()
		code, out := ts.post(t, "/api/sos", map[string]string{"latitude": "37.0", "longitude": "-122.0"})
		elapsed := time.Since(start)

		require.Equal(t, http.StatusInternalServerError, code)
		assert.GreaterOrEqual(t, elapsed, time.Second, "dispatch latency must be simulated")
		assert.Equal(t, handlers.SOSFailedMessage, out["message"])

		alert := out["alert"].(map[string]interface{})
		assert.Equal(t, float64(1), alert["id"])
		assert.Equal(t, "failed", alert["status"])
		assert.Equal(t, "37.0", alert["latitude"])
		assert.Equal(t, "-122.0", alert["longitude"])
		assert.Nil(t, alert["contactId"])
	})

	t.Run("E_SOSMissingFields", func(t *testing.T) {
		code, out := ts.post(t, "/api/sos", `{}`)
		require.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, out["message"], `at "latitude"`)
		assert.Contains(t, out["message"], `at "longitude"`)
	})

	t.Run("F_VideoUploadAlwaysFails", func(t *testing.T) {
		start := time.Now()
		code, out := ts.post(t, "/api/video/upload", map[string]string{
			"fileName": "emergency_recording.webm",
			"mimeType": "video/webm",
		})
		elapsed := time.Since(start)

		require.Equal(t, http.StatusInternalServerError, code)
		assert.GreaterOrEqual(t, elapsed, 1500*time.Millisecond, "upload latency must be simulated")
		assert.Equal(t, handlers.VideoFailedMessage, out["message"])

		rec := out["recording"].(map[string]interface{})
		assert.Equal(t, float64(1), rec["id"])
		assert.Equal(t, false, rec["uploadStatus"])
	})

	t.Run("G_VideoMalformedJSON", func(t *testing.T) {
		code, out := ts.post(t, "/api/video/upload", `{"fileName":`)
		require.Equal(t, http.StatusBadRequest, code)
		assert.NotEmpty(t, out["message"])
	})

	t.Run("H_UnknownRouteIsJSON", func(t *testing.T) {
		code, out := ts.post(t, "/api/unknown", `{}`)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "Not Found", out["message"])
	})

	t.Run("I_WrongMethodIsJSON", func(t *testing.T) {
		resp, err := ts.Server.Client().Get(ts.Server.URL + "/api/phone")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("J_Metrics", func(t *testing.T) {
		resp, err := ts.Server.Client().Get(ts.Server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "sos_contacts_saved_total 2")
		assert.Contains(t, string(body), `sos_alerts_total{status="failed"} 1`)
		assert.Contains(t, string(body), `sos_video_uploads_total{status="failed"} 1`)
	})
}

func TestEmergencyE2E_RateLimit(t *testing.T) {
	cfg := TestConfig(config.StoreMemory, "")
	cfg.RateLimitRequests = 2
	ts := newTestServer(t, cfg)

	payload := map[string]string{"countryCode": "+1", "phoneNumber": "5551234567"}
	for i := 0; i < 2; i++ {
		code, _ := ts.post(t, "/api/phone", payload)
		require.Equal(t, http.StatusOK, code)
	}

	code, out := ts.post(t, "/api/phone", payload)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.NotEmpty(t, out["message"])

	resp, err := ts.Server.Client().Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health is not rate limited")
}
