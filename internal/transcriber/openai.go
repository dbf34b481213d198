package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/sirenlab/calltriage/internal/audio"
)

// OpenAIAdapter implements BatchAdapter against the Whisper API.
type OpenAIAdapter struct {
	client   *openai.Client
	model    string
	language string
}

func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	return &OpenAIAdapter{
		client:   openai.NewClient(cfg.APIKey),
		model:    cfg.Model,
		language: cfg.Language,
	}
}

func (a *OpenAIAdapter) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	if len(audioData) == 0 {
		return "", nil
	}

	req := openai.AudioRequest{
		Model:    a.model,
		Reader:   bytes.NewReader(audio.ToWAV(audioData)),
		FilePath: "audio.wav",
		Language: a.language,
	}

	start := time.Now()
	resp, err := a.client.CreateTranscription(ctx, req)
	duration := time.Since(start)

	if err != nil {
		log.Printf("openai-adapter: API call failed after %v: %v", duration, err)
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	log.Printf("openai-adapter: transcribed %d bytes in %v", len(audioData), duration)
	return resp.Text, nil
}
