package team

import (
	"sync"
	"time"
)

// PromptEntryCap bounds how many transcript entries feed one broadcast
// prompt. Older entries stay in the transcript but drop out of prompts.
const PromptEntryCap = 50

// Entry is one shared-transcript line. AuthorID nil means the user wrote it.
type Entry struct {
	AuthorID   *string   `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// Transcript is the append-only shared log of a team session. It grows
// monotonically during a session and is cleared only by explicit reset.
type Transcript struct {
	mu      sync.Mutex
	entries []Entry
}

func NewTranscript() *Transcript { return &Transcript{} }

// AppendUser records the user's message.
func (t *Transcript) AppendUser(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{
		Role:      "user",
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// AppendAgent records one agent's reply (or its error entry).
func (t *Transcript) AppendAgent(id, name, role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{
		AuthorID:   &id,
		AuthorName: name,
		Role:       role,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	})
}

// Entries returns a copy of the whole transcript.
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Last returns a copy of the most recent k entries.
func (t *Transcript) Last(k int) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if k > len(t.entries) {
		k = len(t.entries)
	}
	out := make([]Entry, k)
	copy(out, t.entries[len(t.entries)-k:])
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Reset clears the transcript.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}
