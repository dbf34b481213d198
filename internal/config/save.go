package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveDefault writes the commented default configuration. It refuses to
// overwrite an existing file.
func SaveDefault() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	configContent := `# Calltriage Configuration
# This file is generated with defaults.
# Edit values as needed - the daemon reloads changes without a restart.

# HTTP/WebSocket Server
[server]
  addr = ":8089"               # Listen address for the API and session endpoints
  read_timeout = "15s"         # HTTP read timeout
  write_timeout = "15s"        # HTTP write timeout
  shutdown_timeout = "10s"     # Grace period for in-flight sessions on shutdown

# Call Session Behavior
[session]
  debounce = "1s"              # Quiet window before a recommendation update is emitted
  inbound_buffer_size = 64     # Inbound message buffer per session

# Speech Transcription
[transcription]
  provider = "openai"          # Transcription service ("openai", "simulated", "realtime")
  api_key = ""                 # OpenAI API key (or set OPENAI_API_KEY environment variable)
  model = "whisper-1"          # Model name ("whisper-1" recommended)
  language = "en"              # Language code (empty for auto-detect)
  realtime_url = ""            # WebSocket URL for the "realtime" provider
  flush_interval = "2.5s"      # How often buffered audio is sent for transcription
  min_flush_bytes = 1000       # Buffers smaller than this are discarded at flush

# Triage Rules
[rules]
  path = ""                    # TOML rule file (empty uses the built-in rule set)

# Recommendation Publishing
[publish]
  driver = "log"               # Where session records go ("log", "nats", "none")
  url = ""                     # NATS server URL, e.g. "nats://127.0.0.1:4222"
  subject = "calltriage"       # Subject prefix, records publish to "<prefix>.<kind>"

# Providers:
# - "openai": buffered audio is sent to the Whisper API. Without an API key the
#   daemon still runs and emits placeholder transcripts.
# - "simulated": placeholder transcripts only, useful for demos and tests.
# - "realtime": streams audio to an external realtime STT service over WebSocket.
`

	if _, err := file.WriteString(configContent); err != nil {
		return fmt.Errorf("failed to write config content: %w", err)
	}

	return nil
}
