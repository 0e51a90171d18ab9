package favorites

import (
	"testing"

	"github.com/depari/srules/internal/models"
	"github.com/depari/srules/internal/prefstore"
)

func item(slug string) models.FavoriteItem {
	return models.FavoriteItem{
		Slug:     slug,
		Title:    "Rule " + slug,
		Created:  "2024-01-15",
		Category: []string{"go"},
		Tags:     []string{"style"},
	}
}

func TestToggleTwiceRestoresState(t *testing.T) {
	svc := NewService(prefstore.NewMem("srules"), nil)

	before := len(svc.GetFavorites())

	if got := svc.ToggleFavorite(item("go/errors")); !got {
		t.Error("first toggle should return true (added)")
	}
	if got := svc.ToggleFavorite(item("go/errors")); got {
		t.Error("second toggle should return false (removed)")
	}
	if after := len(svc.GetFavorites()); after != before {
		t.Errorf("list size changed across toggle pair: %d -> %d", before, after)
	}
}

func TestToggleRemovesAllEntriesForSlug(t *testing.T) {
	mem := prefstore.NewMem("srules")
	svc := NewService(mem, nil)

	// Seed a duplicate directly through the array store.
	arr := prefstore.NewArrayStore[models.FavoriteItem](mem, StoreKey)
	_ = arr.Add(item("dup/rule"))
	_ = arr.Add(item("dup/rule"))

	if got := svc.ToggleFavorite(item("dup/rule")); got {
		t.Error("toggle on present slug should report removed")
	}
	if svc.IsFavorite("dup/rule") {
		t.Error("all duplicate entries must be removed")
	}
}

func TestIsFavorite(t *testing.T) {
	svc := NewService(prefstore.NewMem("srules"), nil)
	svc.ToggleFavorite(item("ts/strict"))

	if !svc.IsFavorite("ts/strict") {
		t.Error("expected ts/strict to be favorite")
	}
	if svc.IsFavorite("ts/loose") {
		t.Error("ts/loose should not be favorite")
	}
}

func TestInsertionOrderSurvivesOtherRemovals(t *testing.T) {
	svc := NewService(prefstore.NewMem("srules"), nil)
	svc.ToggleFavorite(item("a"))
	svc.ToggleFavorite(item("b"))
	svc.ToggleFavorite(item("c"))

	// Remove the middle entry.
	svc.ToggleFavorite(item("b"))

	got := svc.GetFavorites()
	if len(got) != 2 || got[0].Slug != "a" || got[1].Slug != "c" {
		t.Errorf("order not preserved: %v", got)
	}
}

func TestClearFavorites(t *testing.T) {
	svc := NewService(prefstore.NewMem("srules"), nil)
	svc.ToggleFavorite(item("a"))
	svc.ToggleFavorite(item("b"))

	svc.ClearFavorites()
	if got := svc.GetFavorites(); len(got) != 0 {
		t.Errorf("favorites after clear = %v", got)
	}
}

func TestNotifyCalledWithCount(t *testing.T) {
	var counts []int
	svc := NewService(prefstore.NewMem("srules"), func(n int) { counts = append(counts, n) })

	svc.ToggleFavorite(item("a"))
	svc.ToggleFavorite(item("b"))
	svc.ToggleFavorite(item("a"))
	svc.ClearFavorites()

	want := []int{1, 2, 1, 0}
	if len(counts) != len(want) {
		t.Fatalf("notify calls = %v, want %v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("notify[%d] = %d, want %d", i, counts[i], want[i])
		}
	}
}

func TestCorruptedStorageReadsAsEmpty(t *testing.T) {
	mem := prefstore.NewMem("srules")
	mem.Corrupt(StoreKey, []byte("{broken"))
	svc := NewService(mem, nil)

	if got := svc.GetFavorites(); len(got) != 0 {
		t.Errorf("corrupted storage should read as empty, got %v", got)
	}
	// And the service self-heals on the next write.
	if !svc.ToggleFavorite(item("fresh")) {
		t.Error("toggle after corruption should add")
	}
	if len(svc.GetFavorites()) != 1 {
		t.Error("expected one favorite after self-heal")
	}
}
