package transcriber

import "context"

// PlaceholderText is the fixed segment the simulated provider returns,
// so the pipeline downstream of the speech-to-text boundary can run
// without credentials.
const PlaceholderText = "simulated caller audio segment"

// SimulatedAdapter is the credential-free BatchAdapter. It never calls
// out; every flush produces the same placeholder text on the normal
// cadence.
type SimulatedAdapter struct {
	text string
}

func NewSimulatedAdapter() *SimulatedAdapter {
	return &SimulatedAdapter{text: PlaceholderText}
}

// NewSimulatedAdapterWithText returns a simulated adapter that speaks
// the given text instead, which lets tests drive the rule engine with
// meaningful transcripts.
func NewSimulatedAdapterWithText(text string) *SimulatedAdapter {
	return &SimulatedAdapter{text: text}
}

func (a *SimulatedAdapter) Transcribe(ctx context.Context, audioData []byte) (string, error) {
	if len(audioData) == 0 {
		return "", nil
	}
	return a.text, nil
}
