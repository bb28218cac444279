// Package team orchestrates multi-agent work: an ordered team of agents, the
// shared transcript of a session, the sequential broadcast channel, and the
// manager that persists teams under ~/.troupe/teams.
package team

import (
	"fmt"
	"time"

	"github.com/troupelabs/troupe/internal/agent"
)

// Team is an ordered collection of agents under one name. Order is the
// broadcast order. Teams are mutated only between turns, never during one.
type Team struct {
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Agents    []*agent.Agent
}

// NewTeam creates an empty team stamped with the current time.
func NewTeam(name string) *Team {
	now := time.Now().UTC()
	return &Team{Name: name, CreatedAt: now, UpdatedAt: now}
}

// AddAgent appends an agent, enforcing id uniqueness within the team.
func (t *Team) AddAgent(a *agent.Agent) error {
	for _, existing := range t.Agents {
		if existing.Config.ID == a.Config.ID {
			return fmt.Errorf("agent id %s already in team %s", a.Config.ID, t.Name)
		}
	}
	t.Agents = append(t.Agents, a)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveAgent removes the agent with the given id, preserving order.
func (t *Team) RemoveAgent(id string) error {
	for i, a := range t.Agents {
		if a.Config.ID == id {
			t.Agents = append(t.Agents[:i], t.Agents[i+1:]...)
			t.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("no agent with id %s in team %s", id, t.Name)
}

// AgentByID returns the agent with the given id, or nil.
func (t *Team) AgentByID(id string) *agent.Agent {
	for _, a := range t.Agents {
		if a.Config.ID == id {
			return a
		}
	}
	return nil
}
