package contactsync

import (
	"fmt"
	"testing"
	"time"
)

func TestLogStore_EvictsOldestPastCap(t *testing.T) {
	s := NewLogStore(nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 1; i <= MaxLogEntries+1; i++ {
		s.Success(fmt.Sprintf("entry %d", i), i, "")
	}

	entries := s.Entries()
	if len(entries) != MaxLogEntries {
		t.Fatalf("expected %d entries, got %d", MaxLogEntries, len(entries))
	}
	if entries[0].Message != "entry 2" {
		t.Fatalf("expected oldest entry to be evicted, first is %q", entries[0].Message)
	}
	if entries[len(entries)-1].Message != fmt.Sprintf("entry %d", MaxLogEntries+1) {
		t.Fatalf("expected newest entry last, got %q", entries[len(entries)-1].Message)
	}
}

func TestLogStore_EntriesReturnsCopy(t *testing.T) {
	s := NewLogStore(nil)
	s.Error("boom", 5)

	entries := s.Entries()
	entries[0].Message = "mutated"

	if s.Entries()[0].Message != "boom" {
		t.Fatalf("store entry was mutated through the returned slice")
	}
}

func TestLogStore_Clear(t *testing.T) {
	s := NewLogStore(nil)
	s.Success("ok", 1, "abc")
	s.Clear()

	if len(s.Entries()) != 0 {
		t.Fatalf("expected empty store after clear")
	}
}
