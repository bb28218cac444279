package team

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/troupelabs/troupe/internal/agent"
	"github.com/troupelabs/troupe/internal/providers"
)

// ConfigKeySentinel is written to team files in place of an API key when the
// agent inherits the process-wide config key. It deserializes back to empty,
// which makes the provider registry fall through to config. The literal is
// wire compatibility: existing team files carry it.
const ConfigKeySentinel = "__config__"

var safeNameRe = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SafeName folds a team name into a filesystem-safe file stem.
func SafeName(name string) string {
	return safeNameRe.ReplaceAllString(name, "_")
}

// Info is one row of a team listing.
type Info struct {
	Name       string    `json:"name"`
	AgentCount int       `json:"agentCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// teamFile is the on-disk shape of a team.
type teamFile struct {
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Agents    []agent.Config `json:"agents"`
}

// Manager persists teams as one JSON file per team and tracks the team the
// session is currently working with.
type Manager struct {
	dir string
	reg *providers.Registry

	mu      sync.Mutex
	current *Team
}

// NewManager creates a manager storing teams under dir.
func NewManager(dir string, reg *providers.Registry) *Manager {
	return &Manager{dir: dir, reg: reg}
}

// Current returns the team the session is working with, or nil.
func (m *Manager) Current() *Team {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Create makes a new empty team and selects it as current.
func (m *Manager) Create(name string) (*Team, error) {
	if name == "" {
		return nil, fmt.Errorf("team name is required")
	}
	t := NewTeam(name)
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
	return t, nil
}

// AddAgent binds a provider for cfg and appends the agent to the current
// team.
func (m *Manager) AddAgent(cfg agent.Config) (*agent.Agent, error) {
	m.mu.Lock()
	t := m.current
	m.mu.Unlock()
	if t == nil {
		return nil, fmt.Errorf("no team selected")
	}

	a, err := agent.New(cfg, m.reg)
	if err != nil {
		return nil, err
	}
	if err := t.AddAgent(a); err != nil {
		return nil, err
	}
	return a, nil
}

// RemoveAgent removes an agent from the current team by id.
func (m *Manager) RemoveAgent(id string) error {
	m.mu.Lock()
	t := m.current
	m.mu.Unlock()
	if t == nil {
		return fmt.Errorf("no team selected")
	}
	return t.RemoveAgent(id)
}

// Save persists the current team. A non-empty name renames the team first.
// Raw API keys sourced from config never land on disk: an empty per-agent
// key serializes as the sentinel.
func (m *Manager) Save(name string) error {
	m.mu.Lock()
	t := m.current
	m.mu.Unlock()
	if t == nil {
		return fmt.Errorf("no team selected")
	}
	if name != "" {
		t.Name = name
	}
	t.UpdatedAt = time.Now().UTC()

	f := teamFile{
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Agents:    make([]agent.Config, 0, len(t.Agents)),
	}
	for _, a := range t.Agents {
		cfg := a.Config
		if cfg.APIKey == "" {
			cfg.APIKey = ConfigKeySentinel
		}
		f.Agents = append(f.Agents, cfg)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return m.writeAtomic(SafeName(t.Name)+".json", data)
}

// writeAtomic writes data into the teams dir via temp file + rename.
func (m *Manager) writeAtomic(filename string, data []byte) error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(m.dir, "team-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	if err := os.Rename(tmpPath, filepath.Join(m.dir, filename)); err != nil {
		return err
	}
	cleanup = false
	return nil
}

// Load reads a team file, rebinds a provider for every agent, and selects
// the team as current. The sentinel key deserializes to empty so the
// registry falls through to the config key.
func (m *Manager) Load(name string) (*Team, error) {
	path := filepath.Join(m.dir, SafeName(name)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("team %q not found", name)
		}
		return nil, err
	}

	var f teamFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse team file %s: %w", path, err)
	}

	t := &Team{Name: f.Name, CreatedAt: f.CreatedAt, UpdatedAt: f.UpdatedAt}
	for _, cfg := range f.Agents {
		if cfg.APIKey == ConfigKeySentinel {
			cfg.APIKey = ""
		}
		a, err := agent.New(cfg, m.reg)
		if err != nil {
			return nil, fmt.Errorf("load team %s: %w", f.Name, err)
		}
		if err := t.AddAgent(a); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
	return t, nil
}

// Peek reads a team file without binding providers, for display. Keys come
// back as stored, sentinel included; use Load for runnable agents.
func (m *Manager) Peek(name string) (Info, []agent.Config, error) {
	path := filepath.Join(m.dir, SafeName(name)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, nil, fmt.Errorf("team %q not found", name)
		}
		return Info{}, nil, err
	}

	var f teamFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Info{}, nil, fmt.Errorf("parse team file %s: %w", path, err)
	}
	info := Info{
		Name:       f.Name,
		AgentCount: len(f.Agents),
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
	return info, f.Agents, nil
}

// List returns a row for every team file, sorted by name. Unreadable files
// are skipped.
func (m *Manager) List() ([]Info, error) {
	files, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var infos []Info
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.dir, f.Name()))
		if err != nil {
			slog.Warn("skipping unreadable team file", "file", f.Name(), "error", err)
			continue
		}
		var tf teamFile
		if err := json.Unmarshal(data, &tf); err != nil {
			slog.Warn("skipping malformed team file", "file", f.Name(), "error", err)
			continue
		}
		infos = append(infos, Info{
			Name:       tf.Name,
			AgentCount: len(tf.Agents),
			CreatedAt:  tf.CreatedAt,
			UpdatedAt:  tf.UpdatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes a team file and clears current if it matched.
func (m *Manager) Delete(name string) error {
	path := filepath.Join(m.dir, SafeName(name)+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("team %q not found", name)
		}
		return err
	}

	m.mu.Lock()
	if m.current != nil && SafeName(m.current.Name) == SafeName(name) {
		m.current = nil
	}
	m.mu.Unlock()
	return nil
}
