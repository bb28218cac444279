package bus

import "sync"

// Event names broadcast during a team turn. The REPL subscribes to render
// progress; core packages only publish and never depend on subscribers.
const (
	EventAgentThinking   = "agent-thinking"
	EventAgentToolCall   = "agent-tool-call"
	EventAgentToolResult = "agent-tool-result"
	EventAgentResponded  = "agent-responded"
	EventAgentError      = "agent-error"
)

// Event represents an in-process event broadcast to subscribers.
type Event struct {
	Name    string      `json:"name"`
	Payload interface{} `json:"payload,omitempty"`
}

// AgentActivityPayload accompanies agent-thinking and agent-responded events.
type AgentActivityPayload struct {
	Agent   string `json:"agent"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ToolCallPayload accompanies agent-tool-call events.
type ToolCallPayload struct {
	Agent string `json:"agent"`
	Tool  string `json:"tool"`
	Args  string `json:"args,omitempty"`
}

// ToolResultPayload accompanies agent-tool-result events.
type ToolResultPayload struct {
	Agent   string `json:"agent"`
	Tool    string `json:"tool"`
	OK      bool   `json:"ok"`
	Preview string `json:"preview,omitempty"`
}

// AgentErrorPayload accompanies agent-error events.
type AgentErrorPayload struct {
	Agent string `json:"agent"`
	Error string `json:"error"`
}

// EventHandler handles a broadcast event.
type EventHandler func(Event)

// EventPublisher abstracts event broadcast + subscription.
// Used by the team channel and agent runtime to decouple from the concrete Bus.
type EventPublisher interface {
	Subscribe(id string, handler EventHandler)
	Unsubscribe(id string)
	Broadcast(event Event)
}

// Bus is an in-memory event bus. Broadcast dispatches synchronously in
// subscriber registration order so a rendering subscriber observes events
// in the same order the team produced them.
type Bus struct {
	mu       sync.RWMutex
	order    []string
	handlers map[string]EventHandler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[string]EventHandler)}
}

// Subscribe registers a handler under the given id, replacing any previous
// handler with the same id.
func (b *Bus) Subscribe(id string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[id]; !exists {
		b.order = append(b.order, id)
	}
	b.handlers[id] = handler
}

// Unsubscribe removes the handler registered under id. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[id]; !exists {
		return
	}
	delete(b.handlers, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Broadcast delivers the event to every subscriber. Handlers run on the
// caller's goroutine; a handler may Subscribe or Unsubscribe without
// deadlocking because dispatch happens on a snapshot.
func (b *Bus) Broadcast(event Event) {
	b.mu.RLock()
	snapshot := make([]EventHandler, 0, len(b.order))
	for _, id := range b.order {
		snapshot = append(snapshot, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(event)
	}
}
