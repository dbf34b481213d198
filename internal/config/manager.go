package config

import (
	"context"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/sirenlab/calltriage/internal/policy"
)

type Manager struct {
	mu      sync.RWMutex
	config  *Config
	rules   []policy.Rule
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

func NewManager() (*Manager, error) {
	log.Printf("Config manager: initializing configuration system...")

	config, err := LoadOrDefault()
	if err != nil {
		log.Printf("Config manager: failed to load initial configuration: %v", err)
		return nil, err
	}

	if err := config.Validate(); err != nil {
		log.Printf("Config manager: validation warning: %v", err)
	}

	rules, err := config.LoadRuleSet()
	if err != nil {
		log.Printf("Config manager: failed to load rule set: %v", err)
		return nil, err
	}

	m := &Manager{
		config: config,
		rules:  rules,
	}

	log.Printf("Config manager: initialization completed, %d rules active", len(rules))
	return m, nil
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	configCopy := *m.config
	return &configCopy
}

// GetRuleSet returns the active rule set. The slice is replaced, never
// mutated, on reload, so callers may hold it across evaluations.
func (m *Manager) GetRuleSet() []policy.Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rules
}

func (m *Manager) StartWatching(ctx context.Context) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	m.watcher = watcher

	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		watcher.Close()
		return err
	}

	watched := map[string]bool{filepath.Base(configPath): true}

	// The rules file may live outside the config directory. The watch set is
	// fixed at startup; changing rules.path takes effect on daemon restart.
	if rulesPath := m.GetConfig().Rules.Path; rulesPath != "" {
		if err := watcher.Add(filepath.Dir(rulesPath)); err != nil {
			watcher.Close()
			return err
		}
		watched[filepath.Base(rulesPath)] = true
	}

	m.wg.Add(1)
	go m.watchLoop(ctx, watched)

	log.Printf("Config manager: watching %s for changes", configPath)
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context, watched map[string]bool) {
	defer m.wg.Done()

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}

			if !watched[filepath.Base(event.Name)] {
				continue
			}

			// Only react to Write and Create events (ignore Chmod, Remove, etc.)
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				log.Printf("Config manager: file change detected: %s. Reloading...", event.Name)
				if err := m.Reload(); err != nil {
					log.Printf("Config manager: keeping previous configuration: %v", err)
				}
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Config watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}

// Reload re-reads the config file and rule set, swapping both in atomically.
// Sessions already running keep the snapshot they started with.
func (m *Manager) Reload() error {
	log.Printf("Config manager: starting configuration reload...")

	newConfig, err := LoadOrDefault()
	if err != nil {
		log.Printf("Config manager: failed to reload config: %v", err)
		return err
	}

	if err := newConfig.Validate(); err != nil {
		log.Printf("Config manager: invalid config after reload: %v", err)
		return err
	}

	newRules, err := newConfig.LoadRuleSet()
	if err != nil {
		log.Printf("Config manager: failed to reload rule set: %v", err)
		return err
	}

	m.mu.Lock()
	m.config = newConfig
	m.rules = newRules
	m.mu.Unlock()

	log.Printf("Config manager: configuration reloaded, %d rules active", len(newRules))
	return nil
}
