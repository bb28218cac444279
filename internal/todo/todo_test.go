package todo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "todos.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(l.Items()) != 0 {
		t.Fatalf("expected empty list, got %d items", len(l.Items()))
	}
}

func TestAddDonePersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	first, err := l.Add("write the release notes")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := l.Add("tag the release"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Done(first.ID); err != nil {
		t.Fatalf("Done: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	items := reloaded.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items after reload, got %d", len(items))
	}
	if !items[0].Done {
		t.Errorf("first item should be done")
	}
	if items[1].Done {
		t.Errorf("second item should be open")
	}

	// IDs keep increasing after a reload: no reuse of completed slots.
	third, err := reloaded.Add("announce it")
	if err != nil {
		t.Fatalf("Add after reload: %v", err)
	}
	if third.ID != 3 {
		t.Errorf("expected next id 3, got %d", third.ID)
	}
}

func TestDoneUnknownID(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "todos.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := l.Done(42); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	it, err := l.Add("temporary")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.Remove(it.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(l.Items()) != 0 {
		t.Fatalf("expected empty list after remove")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read persisted file: %v", err)
	}
	if string(data) == "" {
		t.Fatal("expected persisted JSON, got empty file")
	}
}
