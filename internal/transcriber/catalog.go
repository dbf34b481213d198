package transcriber

import "sort"

// ProviderInfo describes one speech-to-text backend for configuration
// validation and the configure picker.
type ProviderInfo struct {
	Name           string
	Description    string
	RequiresAPIKey bool
	Streaming      bool
	Models         []string // empty means the endpoint decides
	DefaultModel   string
}

var catalog = map[string]ProviderInfo{
	"openai": {
		Name:           "openai",
		Description:    "Batch transcription through the OpenAI audio API",
		RequiresAPIKey: true,
		Models:         []string{"whisper-1", "gpt-4o-transcribe", "gpt-4o-mini-transcribe"},
		DefaultModel:   DefaultModel,
	},
	"realtime": {
		Name:        "realtime",
		Description: "Streaming transcription over a websocket endpoint",
		Streaming:   true,
	},
	"simulated": {
		Name:        "simulated",
		Description: "Deterministic placeholder transcripts, no network",
	},
}

// Lookup returns the catalog entry for a provider name.
func Lookup(name string) (ProviderInfo, bool) {
	info, ok := catalog[name]
	return info, ok
}

// Providers returns all known provider names in a stable order.
func Providers() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportsModel reports whether the provider accepts the model name.
// Providers with an open model list accept anything.
func (p ProviderInfo) SupportsModel(model string) bool {
	if len(p.Models) == 0 {
		return true
	}
	for _, m := range p.Models {
		if m == model {
			return true
		}
	}
	return false
}
