package tools

import (
	"path/filepath"
	"time"

	"github.com/troupelabs/troupe/internal/config"
)

// Policy defaults. Bash and webfetch timeouts share the same hard cap.
const (
	DefaultMaxRounds            = 10
	DefaultMaxToolCallsPerRound = 5
	DefaultBashTimeout          = 10 * time.Second
	DefaultMaxResultBytes       = 10240
	MaxToolTimeout              = 120 * time.Second
)

// Synthetic results returned when an agent request exhausts its tool budget.
const (
	ToolCallLimitMessage = "[Tool limit reached: max tool calls exceeded]"
	RoundLimitMessage    = "[Tool limit: max rounds reached]"
)

// Policy bounds tool execution for every agent sharing a sandbox.
// AllowedPrefixes is the filesystem jail: a path must canonicalize inside one
// of the prefixes before any tool touches it.
type Policy struct {
	ProjectRoot          string
	SafeMode             bool
	MaxRounds            int
	MaxToolCallsPerRound int
	BashTimeout          time.Duration
	MaxResultBytes       int
	AllowedPrefixes      []string
}

// NewPolicy returns a policy rooted at projectRoot with default bounds.
// The project root is the only allowed prefix until AllowPaths is called.
func NewPolicy(projectRoot string) *Policy {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	return &Policy{
		ProjectRoot:          abs,
		MaxRounds:            DefaultMaxRounds,
		MaxToolCallsPerRound: DefaultMaxToolCallsPerRound,
		BashTimeout:          DefaultBashTimeout,
		MaxResultBytes:       DefaultMaxResultBytes,
		AllowedPrefixes:      []string{abs},
	}
}

// PolicyFromConfig builds a policy from the sandbox config block, falling
// back to defaults for zero values.
func PolicyFromConfig(projectRoot string, sc config.SandboxConfig) *Policy {
	p := NewPolicy(projectRoot)
	p.SafeMode = sc.SafeMode
	if sc.MaxRounds > 0 {
		p.MaxRounds = sc.MaxRounds
	}
	if sc.MaxToolCallsPerRound > 0 {
		p.MaxToolCallsPerRound = sc.MaxToolCallsPerRound
	}
	if sc.BashTimeoutSec > 0 {
		p.BashTimeout = time.Duration(sc.BashTimeoutSec) * time.Second
	}
	if p.BashTimeout > MaxToolTimeout {
		p.BashTimeout = MaxToolTimeout
	}
	if sc.MaxResultBytes > 0 {
		p.MaxResultBytes = sc.MaxResultBytes
	}
	return p
}

// AllowPaths adds extra path prefixes the filesystem tools may touch.
func (p *Policy) AllowPaths(prefixes ...string) {
	for _, prefix := range prefixes {
		abs, err := filepath.Abs(prefix)
		if err != nil {
			abs = prefix
		}
		p.AllowedPrefixes = append(p.AllowedPrefixes, abs)
	}
}

// Ceiling is the hard per-request tool invocation limit.
func (p *Policy) Ceiling() int {
	return p.MaxRounds * p.MaxToolCallsPerRound
}

// Counters tracks tool usage for a single agent request. Not safe for
// concurrent use: one request runs one tool at a time.
type Counters struct {
	Rounds    int
	ToolCalls int

	maxRounds int
	ceiling   int
}

func NewCounters(p *Policy) *Counters {
	return &Counters{maxRounds: p.MaxRounds, ceiling: p.Ceiling()}
}

// AllowCall reports whether another tool invocation fits under the ceiling
// and counts it when it does.
func (c *Counters) AllowCall() bool {
	if c.ToolCalls >= c.ceiling {
		return false
	}
	c.ToolCalls++
	return true
}

// EndRound records a completed tool round and reports whether the loop may
// run another one.
func (c *Counters) EndRound() bool {
	c.Rounds++
	return c.Rounds < c.maxRounds && c.ToolCalls < c.ceiling
}
