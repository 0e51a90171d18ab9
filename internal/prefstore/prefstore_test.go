package prefstore

import (
	"os"
	"path/filepath"
	"testing"
)

type entry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestFile_SetGetRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir, "srules")
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	if err := s.Set("theme", "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var theme string
	if !s.Get("theme", &theme) || theme != "dark" {
		t.Errorf("Get = %q", theme)
	}

	if err := s.Remove("theme"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Get("theme", &theme) {
		t.Error("removed key should read as absent")
	}
	// Removing again is not an error.
	if err := s.Remove("theme"); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestFile_MalformedJSONReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFile(dir, "srules")

	path := filepath.Join(dir, "srules_broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if s.Get("broken", &out) {
		t.Error("malformed JSON must read as absent, not error or value")
	}
}

func TestFile_AllKeysScopedToNamespace(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFile(dir, "srules")
	other, _ := NewFile(dir, "other")

	_ = s.Set("favorites", []int{1})
	_ = s.Set("recent_views", []int{2})
	_ = other.Set("favorites", []int{3})

	keys, err := s.AllKeys()
	if err != nil {
		t.Fatalf("AllKeys: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("keys = %v, want 2 entries", keys)
	}
	for _, k := range keys {
		if k != "favorites" && k != "recent_views" {
			t.Errorf("unexpected key %q", k)
		}
	}
}

func TestMem_MalformedJSONReadsAsAbsent(t *testing.T) {
	s := NewMem("srules")
	s.Corrupt("bad", []byte("[[["))
	var out []entry
	if s.Get("bad", &out) {
		t.Error("malformed JSON must read as absent")
	}
}

func TestArrayStore_GetAllEmptyWhenAbsent(t *testing.T) {
	a := NewArrayStore[entry](NewMem("srules"), "items")
	got := a.GetAll()
	if got == nil || len(got) != 0 {
		t.Errorf("GetAll = %v, want empty non-nil slice", got)
	}
}

func TestArrayStore_AddAndExists(t *testing.T) {
	a := NewArrayStore[entry](NewMem("srules"), "items")
	_ = a.Add(entry{ID: 1, Name: "one"})
	_ = a.Add(entry{ID: 2, Name: "two"})

	if !a.Exists(func(e entry) bool { return e.ID == 2 }) {
		t.Error("expected id=2 to exist")
	}
	if a.Exists(func(e entry) bool { return e.ID == 9 }) {
		t.Error("id=9 should not exist")
	}
	if got := a.GetAll(); len(got) != 2 || got[0].Name != "one" {
		t.Errorf("GetAll = %v", got)
	}
}

func TestArrayStore_RemoveNoMatchLeavesStorageUntouched(t *testing.T) {
	a := NewArrayStore[entry](NewMem("srules"), "items")
	_ = a.Add(entry{ID: 1})

	removed, err := a.Remove(func(e entry) bool { return e.ID == 42 })
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed {
		t.Error("Remove should report false when nothing matches")
	}
	if got := a.GetAll(); len(got) != 1 {
		t.Errorf("storage modified on no-match remove: %v", got)
	}
}

func TestArrayStore_RemoveAllMatches(t *testing.T) {
	// Duplicate-key scenario: two items with id=1; removing id==1 removes both.
	a := NewArrayStore[entry](NewMem("srules"), "items")
	_ = a.Add(entry{ID: 1, Name: "first"})
	_ = a.Add(entry{ID: 2, Name: "keep"})
	_ = a.Add(entry{ID: 1, Name: "second"})

	removed, err := a.Remove(func(e entry) bool { return e.ID == 1 })
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !removed {
		t.Error("Remove should report true")
	}
	got := a.GetAll()
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("GetAll = %v, want only id=2", got)
	}
}

func TestArrayStore_SetAllAndClear(t *testing.T) {
	a := NewArrayStore[entry](NewMem("srules"), "items")
	_ = a.SetAll([]entry{{ID: 5}, {ID: 6}})
	if got := a.GetAll(); len(got) != 2 {
		t.Errorf("GetAll after SetAll = %v", got)
	}
	_ = a.Clear()
	if got := a.GetAll(); len(got) != 0 {
		t.Errorf("GetAll after Clear = %v", got)
	}
}

func TestArrayStore_FileBackend(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewFile(dir, "srules")
	a := NewArrayStore[entry](fs, "items")
	_ = a.Add(entry{ID: 7, Name: "persisted"})

	// A fresh store over the same dir sees the data.
	fs2, _ := NewFile(dir, "srules")
	b := NewArrayStore[entry](fs2, "items")
	got := b.GetAll()
	if len(got) != 1 || got[0].Name != "persisted" {
		t.Errorf("GetAll = %v", got)
	}
}
