package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sirenlab/calltriage/internal/config"
	"github.com/sirenlab/calltriage/internal/policy"
	"github.com/sirenlab/calltriage/internal/publish"
	"github.com/sirenlab/calltriage/internal/testutil"
	"github.com/sirenlab/calltriage/internal/transcriber"
	"github.com/sirenlab/calltriage/internal/transport"
)

// newTestManager builds a config manager backed by a temp config dir. An
// empty content string means "no config file", so defaults apply.
func newTestManager(t *testing.T, content string) *config.Manager {
	t.Helper()

	configHome := testutil.ConfigHome(t)
	if content != "" {
		testutil.WriteConfig(t, configHome, content)
	}

	m, err := config.NewManager()
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(m.Stop)
	return m
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(newTestManager(t, ""), publish.Nop{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestAssessEndpoint(t *testing.T) {
	srv := NewServer(newTestManager(t, ""), publish.Nop{})

	body := `{"transcript":"Three people are hurt in a car accident"}`
	req := httptest.NewRequest("POST", "/v1/assess", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var report struct {
		Units          []policy.UnitKind `json:"units"`
		Severity       policy.Severity   `json:"severity"`
		Critical       bool              `json:"critical"`
		SuggestedCount int               `json:"suggestedCount"`
	}
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	wantUnits := []policy.UnitKind{policy.UnitPolice, policy.UnitFire, policy.UnitBLS}
	for _, want := range wantUnits {
		found := false
		for _, u := range report.Units {
			if u == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected unit %s in %v", want, report.Units)
		}
	}
	if report.Severity != policy.SeverityMedium {
		t.Errorf("expected severity medium, got %v", report.Severity)
	}
	if report.Critical {
		t.Error("expected critical false")
	}
	if report.SuggestedCount != 3 {
		t.Errorf("expected suggestedCount 3, got %d", report.SuggestedCount)
	}
}

func TestAssessEndpoint_EmptyTranscript(t *testing.T) {
	srv := NewServer(newTestManager(t, ""), publish.Nop{})

	req := httptest.NewRequest("POST", "/v1/assess", strings.NewReader(`{"transcript":""}`))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var report struct {
		Units    []policy.UnitKind `json:"units"`
		Severity policy.Severity   `json:"severity"`
	}
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(report.Units) != 0 {
		t.Errorf("expected no units, got %v", report.Units)
	}
	if report.Severity != policy.SeverityLow {
		t.Errorf("expected severity low, got %v", report.Severity)
	}
}

func TestAssessEndpoint_InvalidBody(t *testing.T) {
	srv := NewServer(newTestManager(t, ""), publish.Nop{})

	req := httptest.NewRequest("POST", "/v1/assess", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSessionEndpoint_RequiresWebsocket(t *testing.T) {
	srv := NewServer(newTestManager(t, ""), publish.Nop{})

	req := httptest.NewRequest("GET", "/v1/session", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for plain HTTP request, got %d", w.Code)
	}
}

func TestSessionEndpoint_EndToEnd(t *testing.T) {
	manager := newTestManager(t, `[session]
debounce = "100ms"

[transcription]
provider = "simulated"
flush_interval = "50ms"
min_flush_bytes = 1

[publish]
driver = "none"
`)
	srv := NewServer(manager, publish.Nop{})

	server := httptest.NewServer(srv.Router())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/session"
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	audio := make([]byte, 32)
	if err := client.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env transport.Envelope
	if err := client.ReadJSON(&env); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if env.Type != transport.TypeTranscriptFinal {
		t.Fatalf("Type = %q, want %q", env.Type, transport.TypeTranscriptFinal)
	}
	var final transport.TranscriptFinalPayload
	if err := json.Unmarshal(env.Payload, &final); err != nil {
		t.Fatalf("Unmarshal final payload failed: %v", err)
	}
	if final.Text != transcriber.PlaceholderText {
		t.Errorf("Text = %q, want placeholder %q", final.Text, transcriber.PlaceholderText)
	}

	if err := client.WriteMessage(websocket.TextMessage, []byte(`{"type":"end-of-session"}`)); err != nil {
		t.Fatalf("Failed to send end-of-session: %v", err)
	}

	// Server closes the connection once the session finishes.
	for {
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := client.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.Errorf("Expected normal closure, got %v", err)
			}
			break
		}
	}
}
