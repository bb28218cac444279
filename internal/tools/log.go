package tools

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// maxLoggedChars caps argument values and result previews in the call log.
const maxLoggedChars = 200

// LogEntry records one tool invocation. The log is queryable for stats and
// never enters model context.
type LogEntry struct {
	Time    time.Time         `json:"time"`
	AgentID string            `json:"agentId"`
	Tool    string            `json:"tool"`
	Args    map[string]string `json:"args"`
	Preview string            `json:"preview"`
	Success bool              `json:"success"`
}

// Recorder receives every log entry as it is appended. Used to mirror the
// in-memory log into the sqlite ledger.
type Recorder interface {
	RecordToolCall(e LogEntry)
}

// sanitizeArgs renders argument values as strings capped at maxLoggedChars,
// so content-bearing fields (file bodies, commands) stay loggable.
func sanitizeArgs(args map[string]interface{}) map[string]string {
	out := make(map[string]string, len(args))
	for k, v := range args {
		out[k] = clipChars(fmt.Sprintf("%v", v), maxLoggedChars)
	}
	return out
}

// clipChars truncates s to at most n runes.
func clipChars(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
