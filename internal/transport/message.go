package transport

import (
	"encoding/json"

	"github.com/sirenlab/calltriage/internal/policy"
)

// Inbound message types.
const (
	TypeAudioChunk   = "audio-chunk"
	TypeEndOfSession = "end-of-session"
)

// Outbound message types.
const (
	TypeTranscriptDelta      = "transcript-delta"
	TypeTranscriptFinal      = "transcript-final"
	TypeRecommendationUpdate = "recommendation-update"
	TypeError                = "error"
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type AudioChunkPayload struct {
	Data string `json:"data"` // base64-encoded audio bytes
}

type TranscriptDeltaPayload struct {
	Text      string `json:"text"`
	IsPartial bool   `json:"isPartial"`
}

type TranscriptFinalPayload struct {
	Text string `json:"text"`
}

type RecommendationPayload struct {
	Units      []policy.RationaleEntry `json:"units"`
	Rationales []string                `json:"rationales"`
	Severity   policy.Severity         `json:"severity"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// InboundKind tags decoded inbound messages for the session loop.
type InboundKind int

const (
	InboundAudio InboundKind = iota
	InboundEnd
)

type Inbound struct {
	Kind  InboundKind
	Audio []byte
}
