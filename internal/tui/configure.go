package tui

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/sirenlab/calltriage/internal/config"
	"github.com/sirenlab/calltriage/internal/language"
	"github.com/sirenlab/calltriage/internal/transcriber"
)

// ConfigureResult holds the outcome of the interactive configure flow.
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

type configSection string

const (
	sectionTranscription configSection = "transcription"
	sectionServer        configSection = "server"
	sectionSession       configSection = "session"
	sectionPublish       configSection = "publish"
	sectionRules         configSection = "rules"
	sectionSaveExit      configSection = "save_exit"
	sectionDiscardExit   configSection = "discard_exit"
)

// Run drives the configuration menu until the user saves or discards.
// The config is edited in place; Cancelled means nothing should be
// written.
func Run(cfg *config.Config) (*ConfigureResult, error) {
	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(cfg)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch section {
		case sectionSaveExit:
			return &ConfigureResult{Config: cfg}, nil

		case sectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil

		case sectionTranscription:
			if err := editTranscription(cfg); err != nil {
				continue
			}

		case sectionServer:
			if err := editServer(cfg); err != nil {
				continue
			}

		case sectionSession:
			if err := editSession(cfg); err != nil {
				continue
			}

		case sectionPublish:
			if err := editPublish(cfg); err != nil {
				continue
			}

		case sectionRules:
			if err := editRules(cfg); err != nil {
				continue
			}
		}
	}
}

func selectSection(cfg *config.Config) (configSection, error) {
	options := []huh.Option[configSection]{
		huh.NewOption(fmt.Sprintf("Transcription (%s/%s)", cfg.Transcription.Provider, cfg.Transcription.Model), sectionTranscription),
		huh.NewOption(fmt.Sprintf("Server (%s)", cfg.Server.Addr), sectionServer),
		huh.NewOption(fmt.Sprintf("Session (debounce %s)", cfg.Session.Debounce), sectionSession),
		huh.NewOption(fmt.Sprintf("Publish (%s)", cfg.Publish.Driver), sectionPublish),
		huh.NewOption(formatRulesLabel(cfg), sectionRules),
		huh.NewOption("Save & Exit", sectionSaveExit),
		huh.NewOption("Discard & Exit", sectionDiscardExit),
	}

	var selected configSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[configSection]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}

	return selected, nil
}

func formatRulesLabel(cfg *config.Config) string {
	if cfg.Rules.Path == "" {
		return "Rule Set (built-in)"
	}
	return fmt.Sprintf("Rule Set (%s)", cfg.Rules.Path)
}

func editTranscription(cfg *config.Config) error {
	providerOptions := make([]huh.Option[string], 0, len(transcriber.Providers()))
	for _, name := range transcriber.Providers() {
		info, _ := transcriber.Lookup(name)
		providerOptions = append(providerOptions, huh.NewOption(fmt.Sprintf("%s - %s", name, info.Description), name))
	}

	selectedProvider := cfg.Transcription.Provider
	providerForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription Provider").
				Description(fmt.Sprintf("Currently: %s", cfg.Transcription.Provider)).
				Options(providerOptions...).
				Value(&selectedProvider),
		),
	).WithTheme(getTheme())

	if err := providerForm.Run(); err != nil {
		return err
	}

	info, _ := transcriber.Lookup(selectedProvider)

	var fields []huh.Field

	apiKey := cfg.Transcription.APIKey
	if info.RequiresAPIKey {
		keyDesc := "Stored in the config file. Leave empty to use OPENAI_API_KEY or run without credentials."
		if cfg.Transcription.APIKey != "" {
			keyDesc = fmt.Sprintf("Currently: %s. %s", maskAPIKey(cfg.Transcription.APIKey), keyDesc)
		}
		fields = append(fields, huh.NewInput().
			Title("API Key").
			Description(keyDesc).
			EchoMode(huh.EchoModePassword).
			Value(&apiKey))
	}

	model := cfg.Transcription.Model
	if len(info.Models) > 0 {
		modelOptions := make([]huh.Option[string], 0, len(info.Models))
		for _, m := range info.Models {
			label := m
			if m == info.DefaultModel {
				label = m + " (default)"
			}
			modelOptions = append(modelOptions, huh.NewOption(label, m))
		}
		if !info.SupportsModel(model) {
			model = info.DefaultModel
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Model").
			Options(modelOptions...).
			Value(&model))
	} else {
		fields = append(fields, huh.NewInput().
			Title("Model").
			Description("Model name passed through to the endpoint").
			Value(&model))
	}

	realtimeURL := cfg.Transcription.RealtimeURL
	if info.Streaming {
		fields = append(fields, huh.NewInput().
			Title("Websocket URL").
			Description("Streaming transcription endpoint, e.g. wss://stt.example.com/v1").
			Placeholder("wss://").
			Value(&realtimeURL).
			Validate(func(s string) error {
				if s == "" {
					return fmt.Errorf("the realtime provider needs a websocket URL")
				}
				return nil
			}))
	}

	lang := cfg.Transcription.Language
	fields = append(fields, huh.NewSelect[string]().
		Title("Language").
		Description("Hint passed to the speech-to-text provider").
		Options(languageOptions()...).
		Value(&lang))

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Transcription.Provider = selectedProvider
	cfg.Transcription.APIKey = apiKey
	cfg.Transcription.Model = model
	cfg.Transcription.RealtimeURL = realtimeURL
	cfg.Transcription.Language = lang
	return nil
}

func editServer(cfg *config.Config) error {
	addr := cfg.Server.Addr
	readTimeout := cfg.Server.ReadTimeout.String()
	writeTimeout := cfg.Server.WriteTimeout.String()
	shutdownTimeout := cfg.Server.ShutdownTimeout.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen Address").
				Description("host:port the API binds to").
				Placeholder(":8089").
				Value(&addr).
				Validate(notEmpty("address")),
			huh.NewInput().
				Title("Read Timeout").
				Value(&readTimeout).
				Validate(validDuration),
			huh.NewInput().
				Title("Write Timeout").
				Value(&writeTimeout).
				Validate(validDuration),
			huh.NewInput().
				Title("Shutdown Timeout").
				Description("How long a stopping daemon waits for live calls").
				Value(&shutdownTimeout).
				Validate(validDuration),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Server.Addr = addr
	cfg.Server.ReadTimeout, _ = time.ParseDuration(readTimeout)
	cfg.Server.WriteTimeout, _ = time.ParseDuration(writeTimeout)
	cfg.Server.ShutdownTimeout, _ = time.ParseDuration(shutdownTimeout)
	return nil
}

func editSession(cfg *config.Config) error {
	debounce := cfg.Session.Debounce.String()
	bufferSize := strconv.Itoa(cfg.Session.InboundBufferSize)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Recommendation Debounce").
				Description("Minimum spacing between non-critical updates, e.g. 1s").
				Value(&debounce).
				Validate(validDuration),
			huh.NewInput().
				Title("Inbound Buffer Size").
				Description("Audio frames buffered per session before the reader blocks").
				Value(&bufferSize).
				Validate(positiveInt),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Session.Debounce, _ = time.ParseDuration(debounce)
	cfg.Session.InboundBufferSize, _ = strconv.Atoi(bufferSize)
	return nil
}

func editPublish(cfg *config.Config) error {
	driver := cfg.Publish.Driver
	driverForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Publish Driver").
				Description("Where finished recommendations go besides the live socket").
				Options(
					huh.NewOption("log - write each record to the daemon log", "log"),
					huh.NewOption("nats - publish records to a NATS subject", "nats"),
					huh.NewOption("none - discard records", "none"),
				).
				Value(&driver),
		),
	).WithTheme(getTheme())

	if err := driverForm.Run(); err != nil {
		return err
	}

	url := cfg.Publish.URL
	subject := cfg.Publish.Subject
	if driver == "nats" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("NATS URL").
					Placeholder("nats://127.0.0.1:4222").
					Value(&url).
					Validate(notEmpty("url")),
				huh.NewInput().
					Title("Subject prefix").
					Description("records publish to <prefix>.session.started, <prefix>.recommendation, <prefix>.session.ended").
					Placeholder("calltriage").
					Value(&subject).
					Validate(notEmpty("subject")),
			),
		).WithTheme(getTheme())

		if err := form.Run(); err != nil {
			return err
		}
	}

	cfg.Publish.Driver = driver
	cfg.Publish.URL = url
	cfg.Publish.Subject = subject
	return nil
}

func editRules(cfg *config.Config) error {
	path := cfg.Rules.Path

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Rule File").
				Description("Path to a TOML rule table. Empty uses the built-in rules.").
				Value(&path).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					if _, err := os.Stat(s); err != nil {
						return fmt.Errorf("cannot read %s", s)
					}
					return nil
				}),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Rules.Path = path
	return nil
}

func languageOptions() []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(language.List())+1)
	options = append(options, huh.NewOption("Auto-detect", ""))
	for _, lang := range language.List() {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", lang.Name, lang.Code), lang.Code))
	}
	return options
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s must not be empty", what)
		}
		return nil
	}
}

func validDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a duration like 750ms or 2s")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

// clearScreen clears the terminal between menu passes.
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
