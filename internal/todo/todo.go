// Package todo persists the session task list at ~/.troupe/todos.json.
package todo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Item is one task.
type Item struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
}

// List is a persistent task list. Safe for concurrent use.
type List struct {
	path string

	mu     sync.Mutex
	items  []Item
	nextID int
}

// Load reads the list at path. A missing file is an empty list.
func Load(path string) (*List, error) {
	l := &List{path: path, nextID: 1}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("read todos: %w", err)
	}
	if err := json.Unmarshal(data, &l.items); err != nil {
		return nil, fmt.Errorf("parse todos %s: %w", path, err)
	}
	for _, it := range l.items {
		if it.ID >= l.nextID {
			l.nextID = it.ID + 1
		}
	}
	return l, nil
}

// Add appends a task and persists the list.
func (l *List) Add(text string) (Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	it := Item{ID: l.nextID, Text: text, CreatedAt: time.Now().UTC()}
	l.nextID++
	l.items = append(l.items, it)
	return it, l.save()
}

// Done marks a task complete and persists the list.
func (l *List) Done(id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].Done = true
			return l.save()
		}
	}
	return fmt.Errorf("no todo with id %d", id)
}

// Remove deletes a task and persists the list.
func (l *List) Remove(id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if l.items[i].ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return l.save()
		}
	}
	return fmt.Errorf("no todo with id %d", id)
}

// Items returns a copy of all tasks in insertion order.
func (l *List) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// save writes the list via temp file + rename. Callers hold l.mu.
func (l *List) save() error {
	data, err := json.MarshalIndent(l.items, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "todos-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	tmp.Close()

	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
