package config

import (
	"os"

	"github.com/sirenlab/calltriage/internal/policy"
	"github.com/sirenlab/calltriage/internal/publish"
	"github.com/sirenlab/calltriage/internal/transcriber"
)

func (c *Config) ToTranscriberConfig() transcriber.Config {
	config := transcriber.Config{
		Provider:      c.Transcription.Provider,
		APIKey:        c.resolveAPIKey(),
		Model:         c.Transcription.Model,
		Language:      c.Transcription.Language,
		RealtimeURL:   c.Transcription.RealtimeURL,
		FlushInterval: c.Transcription.FlushInterval,
		MinFlushBytes: c.Transcription.MinFlushBytes,
	}

	return config
}

func (c *Config) ToPublishConfig() publish.Config {
	return publish.Config{
		Driver:  c.Publish.Driver,
		URL:     c.Publish.URL,
		Subject: c.Publish.Subject,
	}
}

// resolveAPIKey returns the transcription API key from the config file or,
// when unset, the OPENAI_API_KEY environment variable.
func (c *Config) resolveAPIKey() string {
	if c.Transcription.APIKey != "" {
		return c.Transcription.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// LoadRuleSet returns the triage rules the config points at, or the built-in
// rule set when no rule file is configured.
func (c *Config) LoadRuleSet() ([]policy.Rule, error) {
	if c.Rules.Path == "" {
		return policy.DefaultRules(), nil
	}
	return policy.LoadRules(c.Rules.Path)
}
