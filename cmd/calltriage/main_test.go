package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirenlab/calltriage/internal/api"
	"github.com/sirenlab/calltriage/internal/audio"
	"github.com/sirenlab/calltriage/internal/config"
	"github.com/sirenlab/calltriage/internal/publish"
	"github.com/sirenlab/calltriage/internal/testutil"
	"github.com/sirenlab/calltriage/internal/transcriber"
)

func TestSessionURL(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		addr     string
		want     string
	}{
		{
			name:     "explicit URL wins",
			explicit: "ws://example.org:9000/v1/session",
			addr:     ":8089",
			want:     "ws://example.org:9000/v1/session",
		},
		{
			name: "port only becomes loopback",
			addr: ":8089",
			want: "ws://127.0.0.1:8089/v1/session",
		},
		{
			name: "wildcard host becomes loopback",
			addr: "0.0.0.0:9000",
			want: "ws://127.0.0.1:9000/v1/session",
		},
		{
			name: "ipv6 wildcard becomes loopback",
			addr: "[::]:8089",
			want: "ws://127.0.0.1:8089/v1/session",
		},
		{
			name: "named host kept",
			addr: "dispatch.local:8089",
			want: "ws://dispatch.local:8089/v1/session",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sessionURL(tt.explicit, tt.addr)
			if got != tt.want {
				t.Errorf("sessionURL(%q, %q) = %q, want %q", tt.explicit, tt.addr, got, tt.want)
			}
		})
	}
}

func TestSynthesizeTone(t *testing.T) {
	tone := synthesizeTone(time.Second)

	wantLen := audio.SampleRate * 2 // 16-bit mono
	if len(tone) != wantLen {
		t.Errorf("1s tone is %d bytes, want %d", len(tone), wantLen)
	}

	// A sine wave is not silence.
	var peak int16
	for i := 0; i+1 < len(tone); i += 2 {
		s := int16(binary.LittleEndian.Uint16(tone[i : i+2]))
		if s > peak {
			peak = s
		}
	}
	if peak < 1000 {
		t.Errorf("tone peak %d, expected an audible signal", peak)
	}

	if got := synthesizeTone(0); len(got) != 0 {
		t.Errorf("zero duration produced %d bytes", len(got))
	}
}

func TestFfmpegArgs(t *testing.T) {
	args := strings.Join(ffmpegArgs("call.mp3"), " ")

	for _, want := range []string{"-i call.mp3", "-f s16le", "-ar 16000", "-ac 1"} {
		if !strings.Contains(args, want) {
			t.Errorf("ffmpeg args missing %q: %s", want, args)
		}
	}
	if !strings.HasSuffix(args, "pipe:1") {
		t.Errorf("ffmpeg args should end with pipe:1: %s", args)
	}
}

func TestIsRawFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"call.raw", true},
		{"call.pcm", true},
		{"CALL.RAW", true},
		{"call.wav", false},
		{"call.mp3", false},
		{"call", false},
	}

	for _, tt := range tests {
		if got := isRawFile(tt.path); got != tt.want {
			t.Errorf("isRawFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoadRulesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.toml")
	content := `
[[rule]]
id = "test-fire"
keywords = ["fire"]
units = ["fire"]
severity = "high"
rationale = "fire reported"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}

	rules, err := loadRules(path)
	if err != nil {
		t.Fatalf("loadRules(%q) failed: %v", path, err)
	}
	if len(rules) != 1 || rules[0].ID != "test-fire" {
		t.Errorf("unexpected rules: %+v", rules)
	}
}

// newFeedTestServer runs the real API handler on a local listener, with
// config isolated to a temp dir so the simulated provider is active.
func newFeedTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	configHome := testutil.ConfigHome(t)
	testutil.WriteConfig(t, configHome, `
[transcription]
provider = "simulated"

[publish]
driver = "none"
`)

	manager, err := config.NewManager()
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(manager.Stop)

	srv := httptest.NewServer(api.NewServer(manager, publish.Nop{}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedDemoEndToEnd(t *testing.T) {
	srv := newFeedTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var out bytes.Buffer
	opts := feedOptions{
		url:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/session",
		chunk:    4096,
		interval: 5 * time.Millisecond,
		demo:     500 * time.Millisecond,
	}
	if err := runFeed(ctx, "", opts, &out); err != nil {
		t.Fatalf("runFeed() error = %v\noutput:\n%s", err, out.String())
	}

	if !strings.Contains(out.String(), transcriber.PlaceholderText) {
		t.Errorf("output missing transcript %q:\n%s", transcriber.PlaceholderText, out.String())
	}
}

func TestFeedConnectionRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	opts := feedOptions{
		url:      "ws://127.0.0.1:1/v1/session",
		chunk:    4096,
		interval: time.Millisecond,
		demo:     50 * time.Millisecond,
	}
	err := runFeed(ctx, "", opts, &out)
	if err == nil {
		t.Fatal("expected a connection error")
	}
	if !strings.Contains(err.Error(), "failed to connect") {
		t.Errorf("unexpected error: %v", err)
	}
}
