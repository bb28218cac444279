package store

import (
	"context"
	"fmt"
)

// ToolStat aggregates ledger rows for one tool.
type ToolStat struct {
	Tool     string
	Calls    int
	Failures int
}

// SuccessRate returns the fraction of calls that succeeded, 0..1.
func (t ToolStat) SuccessRate() float64 {
	if t.Calls == 0 {
		return 0
	}
	return float64(t.Calls-t.Failures) / float64(t.Calls)
}

// ToolStats returns per-tool call counts, most-called first.
func (s *Store) ToolStats(ctx context.Context) ([]ToolStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tool, COUNT(*) AS calls,
		        SUM(CASE WHEN success THEN 0 ELSE 1 END) AS failures
		 FROM tool_calls
		 GROUP BY tool
		 ORDER BY calls DESC, tool ASC`)
	if err != nil {
		return nil, fmt.Errorf("tool stats: %w", err)
	}
	defer rows.Close()

	var out []ToolStat
	for rows.Next() {
		var t ToolStat
		if err := rows.Scan(&t.Tool, &t.Calls, &t.Failures); err != nil {
			return nil, fmt.Errorf("scan tool stat: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tool stats: %w", err)
	}
	return out, nil
}

// AgentUsage aggregates runs, tokens, and spend for one agent.
type AgentUsage struct {
	Agent        string
	Runs         int
	InputTokens  int64
	OutputTokens int64
	Cost         float64
}

// UsageByAgent returns per-agent usage totals, highest spend first.
func (s *Store) UsageByAgent(ctx context.Context) ([]AgentUsage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT agent, COUNT(*) AS runs,
		        SUM(input_tokens), SUM(output_tokens), SUM(cost)
		 FROM usage
		 GROUP BY agent
		 ORDER BY SUM(cost) DESC, agent ASC`)
	if err != nil {
		return nil, fmt.Errorf("usage by agent: %w", err)
	}
	defer rows.Close()

	var out []AgentUsage
	for rows.Next() {
		var u AgentUsage
		if err := rows.Scan(&u.Agent, &u.Runs, &u.InputTokens, &u.OutputTokens, &u.Cost); err != nil {
			return nil, fmt.Errorf("scan agent usage: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agent usage: %w", err)
	}
	return out, nil
}
