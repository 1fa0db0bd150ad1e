package commit

import (
	"path/filepath"
	"testing"

	"github.com/hackiado/eikyu/internal/cube"
)

// S6 — commit chain: second commit's parent equals the first commit's id,
// the first commit's parent is null.
func TestSealChainsParents(t *testing.T) {
	root := t.TempDir()
	cubePath := filepath.Join(root, "a.cube")

	w, err := cube.Open(cubePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	first, err := Seal(w, root, "alice", Options{Ty: "feat", Summary: "init"})
	if err != nil {
		t.Fatalf("Seal (first): %v", err)
	}
	if first.Parent != nil {
		t.Fatalf("first commit parent = %v, want nil", first.Parent)
	}

	second, err := Seal(w, root, "alice", Options{Ty: "feat", Summary: "next"})
	if err != nil {
		t.Fatalf("Seal (second): %v", err)
	}
	if second.Parent == nil || *second.Parent != first.ID {
		t.Fatalf("second commit parent = %v, want %d", second.Parent, first.ID)
	}

	log, err := Log(cubePath)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("got %d commit records, want 2 (pending reservations filtered out)", len(log))
	}
	if log[0].Summary != "init" || log[1].Summary != "next" {
		t.Fatalf("log order wrong: %+v", log)
	}
}

func TestSealAssignsMonotonicIDsAcrossPendingAndFinal(t *testing.T) {
	root := t.TempDir()
	cubePath := filepath.Join(root, "a.cube")

	w, err := cube.Open(cubePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	rec, err := Seal(w, root, "alice", Options{Ty: "feat", Summary: "init"})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	events, err := cube.ReadAll(cubePath)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (pending + final)", len(events))
	}
	if events[0].Phenomenon != "commit:pending" || events[1].Phenomenon != "commit" {
		t.Fatalf("unexpected phenomena: %+v", events)
	}
	if events[0].ID != rec.ID || events[1].ID != rec.ID+1 {
		t.Fatalf("pending id %d, final id %d; want commit id %d then %d", events[0].ID, events[1].ID, rec.ID, rec.ID+1)
	}
}
