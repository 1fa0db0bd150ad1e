package runid

import "testing"

func TestNewProducesDistinctVersion4IDs(t *testing.T) {
	a := New()
	b := New()
	if a == b {
		t.Fatal("two calls to New produced the same id")
	}
	if a.Version() != 4 {
		t.Fatalf("version = %d, want 4", a.Version())
	}
}
