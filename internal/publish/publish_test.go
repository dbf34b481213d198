package publish

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sirenlab/calltriage/internal/policy"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "log driver",
			cfg:  Config{Driver: "log"},
		},
		{
			name: "none driver",
			cfg:  Config{Driver: "none"},
		},
		{
			name: "empty driver defaults to nop",
			cfg:  Config{},
		},
		{
			name:    "unsupported driver",
			cfg:     Config{Driver: "kafka"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if p == nil {
				t.Fatal("New() returned nil publisher")
			}
			if err := p.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestLog_Publish(t *testing.T) {
	rec := Record{
		Kind:       KindRecommendation,
		SessionID:  "b2c7e9d4",
		Transcript: "there's a fire in the kitchen",
		Units: []policy.RationaleEntry{
			{Unit: policy.UnitFire, Rationale: "Caller reports an active fire", Severity: policy.SeverityCritical},
		},
		Rationales: []string{"Caller reports an active fire"},
		Severity:   policy.SeverityCritical,
		Timestamp:  time.Now(),
	}

	if err := (Log{}).Publish(rec); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(Record{SessionID: "x"}); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRecord_JSON(t *testing.T) {
	rec := Record{
		Kind:      KindRecommendation,
		SessionID: "b2c7e9d4",
		Severity:  policy.SeverityHigh,
		Units: []policy.RationaleEntry{
			{Unit: policy.UnitBLS, Rationale: "Caller reports an injury", Severity: policy.SeverityMedium},
		},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	out := string(data)
	if !strings.Contains(out, `"kind":"recommendation"`) {
		t.Errorf("Expected kind encoded, got %s", out)
	}
	if !strings.Contains(out, `"severity":"high"`) {
		t.Errorf("Expected severity encoded as name, got %s", out)
	}
	if strings.Contains(out, "suggestedCount") {
		t.Errorf("Expected suggestedCount omitted when zero, got %s", out)
	}

	rec.SuggestedCount = 3
	data, err = json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"suggestedCount":3`) {
		t.Errorf("Expected suggestedCount included, got %s", data)
	}
}

func TestRecord_JSONLifecycle(t *testing.T) {
	data, err := json.Marshal(Record{Kind: KindSessionStarted, SessionID: "b2c7e9d4"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	out := string(data)
	if !strings.Contains(out, `"kind":"session.started"`) {
		t.Errorf("Expected started kind, got %s", out)
	}
	if strings.Contains(out, "transcript") || strings.Contains(out, "units") {
		t.Errorf("Expected empty payload fields omitted on started record, got %s", out)
	}
}

func TestNATS_SubjectFor(t *testing.T) {
	n := &NATS{prefix: "calltriage"}

	tests := []struct {
		kind Kind
		want string
	}{
		{KindSessionStarted, "calltriage.session.started"},
		{KindRecommendation, "calltriage.recommendation"},
		{KindSessionEnded, "calltriage.session.ended"},
		{"", "calltriage.recommendation"},
	}

	for _, tt := range tests {
		if got := n.subjectFor(tt.kind); got != tt.want {
			t.Errorf("subjectFor(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
