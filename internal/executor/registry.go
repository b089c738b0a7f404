package executor

import (
	"fmt"
	"sync"
)

// Registry manages the active database connections, keyed by target name.
// Targets are connected at startup from the config store and can be added or
// removed while the server runs.
type Registry struct {
	mu     sync.RWMutex
	active map[string]*Client
	langs  map[string]string // external-script language per target
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]*Client),
		langs:  make(map[string]string),
	}
}

// Connect opens a connection for the given target and registers it. An
// existing connection under the same name is closed first.
func (r *Registry) Connect(targetName string, cfg Config, language string) error {
	client, err := Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect target %q: %w", targetName, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.active[targetName]; ok {
		existing.Close()
	}
	r.active[targetName] = client
	if language == "" {
		language = "R"
	}
	r.langs[targetName] = language
	return nil
}

// Get returns the client for a target.
func (r *Registry) Get(targetName string) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.active[targetName]
	if !ok {
		return nil, fmt.Errorf("target %q not connected (available: %v)", targetName, r.targetNames())
	}
	return client, nil
}

// Language returns the external-script language configured for a target,
// defaulting to "R" for unknown targets.
func (r *Registry) Language(targetName string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if lang, ok := r.langs[targetName]; ok {
		return lang
	}
	return "R"
}

// Disconnect removes and closes a target connection.
func (r *Registry) Disconnect(targetName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.active[targetName]
	if !ok {
		return fmt.Errorf("target %q not connected", targetName)
	}

	err := client.Close()
	delete(r.active, targetName)
	delete(r.langs, targetName)
	return err
}

// CloseAll closes every target connection.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, client := range r.active {
		client.Close()
		delete(r.active, name)
		delete(r.langs, name)
	}
}

// ListTargets returns the names of all connected targets.
func (r *Registry) ListTargets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.targetNames()
}

func (r *Registry) targetNames() []string {
	names := make([]string, 0, len(r.active))
	for name := range r.active {
		names = append(names, name)
	}
	return names
}
