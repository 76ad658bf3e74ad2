package agent

import (
	"path/filepath"
	"testing"
)

func TestJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "commands.db")
	j, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer j.Close()

	for _, cmd := range []string{"first", "second"} {
		if err := j.Record("A", cmd); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// newest first
	if entries[0].Command != "second" || entries[1].Command != "first" {
		t.Errorf("unexpected order: %v", entries)
	}
	if entries[0].NodeID != "A" || entries[0].Time.IsZero() {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}
