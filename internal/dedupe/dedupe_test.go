package dedupe_test

import (
	"testing"
	"time"

	"rewind/internal/dedupe"
	"rewind/internal/viewing"
)

const window = 3 * 24 * time.Hour

func event(watched time.Time) viewing.Event {
	return viewing.Event{ShowTitle: "Breaking Bad", Season: 1, Episode: 1, WatchedAt: watched}
}

func day(offset int) time.Time {
	return time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestDedupeKeepsLatestOfBurstAndOutlier(t *testing.T) {
	events := []viewing.Event{event(day(0)), event(day(1)), event(day(5))}

	got := dedupe.Dedupe(events, window)
	if len(got) != 2 {
		t.Fatalf("expected 2 retained events, got %d", len(got))
	}
	if !got[0].WatchedAt.Equal(day(1)) {
		t.Fatalf("expected latest of burst first, got %v", got[0].WatchedAt)
	}
	if !got[1].WatchedAt.Equal(day(5)) {
		t.Fatalf("expected outlier retained, got %v", got[1].WatchedAt)
	}
}

func TestDedupeCollapsesConsecutiveDays(t *testing.T) {
	events := []viewing.Event{event(day(1)), event(day(0))}

	got := dedupe.Dedupe(events, window)
	if len(got) != 1 {
		t.Fatalf("expected 1 retained event, got %d", len(got))
	}
	if !got[0].WatchedAt.Equal(day(1)) {
		t.Fatalf("expected later viewing to win, got %v", got[0].WatchedAt)
	}
}

func TestDedupeGapAtWindowBoundaryStartsNewGroup(t *testing.T) {
	events := []viewing.Event{event(day(0)), event(day(0).Add(window))}

	got := dedupe.Dedupe(events, window)
	if len(got) != 2 {
		t.Fatalf("expected boundary gap to retain both, got %d", len(got))
	}
}

func TestDedupeRollingBurstCollapsesToLast(t *testing.T) {
	// Each neighbour is one day apart, so the whole chain is one burst even
	// though first and last are further apart than the window.
	events := []viewing.Event{event(day(0)), event(day(1)), event(day(2)), event(day(3))}

	got := dedupe.Dedupe(events, window)
	if len(got) != 1 {
		t.Fatalf("expected rolling burst to collapse, got %d events", len(got))
	}
	if !got[0].WatchedAt.Equal(day(3)) {
		t.Fatalf("expected last of chain, got %v", got[0].WatchedAt)
	}
}

func TestDedupePreservesChronologicalOrder(t *testing.T) {
	events := []viewing.Event{event(day(10)), event(day(0)), event(day(20))}

	got := dedupe.Dedupe(events, window)
	if len(got) != 3 {
		t.Fatalf("expected all spaced events retained, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].WatchedAt.Before(got[i-1].WatchedAt) {
			t.Fatalf("output out of order at %d: %v before %v", i, got[i].WatchedAt, got[i-1].WatchedAt)
		}
	}
}

func TestDedupeDatelessEventsAreSingletons(t *testing.T) {
	dateless := viewing.Event{ShowTitle: "Breaking Bad", Season: 1, Episode: 1}
	events := []viewing.Event{event(day(0)), dateless, event(day(1))}

	got := dedupe.Dedupe(events, window)
	if len(got) != 2 {
		t.Fatalf("expected burst collapse plus dateless singleton, got %d", len(got))
	}
	if !got[0].WatchedAt.Equal(day(1)) {
		t.Fatalf("expected dated survivor first, got %v", got[0].WatchedAt)
	}
	if got[1].HasDate() {
		t.Fatal("expected dateless event retained last")
	}
}

func TestDedupeDoesNotMutateInput(t *testing.T) {
	events := []viewing.Event{event(day(1)), event(day(0))}
	dedupe.Dedupe(events, window)
	if !events[0].WatchedAt.Equal(day(1)) || !events[1].WatchedAt.Equal(day(0)) {
		t.Fatal("input slice was reordered")
	}
}

func TestDedupeEmptyAndSingle(t *testing.T) {
	if got := dedupe.Dedupe(nil, window); len(got) != 0 {
		t.Fatalf("expected empty output, got %d", len(got))
	}
	single := []viewing.Event{event(day(0))}
	if got := dedupe.Dedupe(single, window); len(got) != 1 {
		t.Fatalf("expected single event retained, got %d", len(got))
	}
}

func TestPartitionReportsCollapsedDuplicates(t *testing.T) {
	events := []viewing.Event{event(day(0)), event(day(1)), event(day(5))}

	retained, duplicates := dedupe.Partition(events, window)
	if len(retained) != 2 {
		t.Fatalf("expected 2 retained events, got %d", len(retained))
	}
	if len(duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(duplicates))
	}
	if !duplicates[0].WatchedAt.Equal(day(0)) {
		t.Fatalf("expected the earlier burst member collapsed, got %v", duplicates[0].WatchedAt)
	}
}

func TestPartitionRollingBurstReportsAllButLast(t *testing.T) {
	events := []viewing.Event{event(day(0)), event(day(1)), event(day(2))}

	retained, duplicates := dedupe.Partition(events, window)
	if len(retained) != 1 || len(duplicates) != 2 {
		t.Fatalf("expected 1 retained and 2 duplicates, got %d and %d", len(retained), len(duplicates))
	}
}
