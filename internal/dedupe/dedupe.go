package dedupe

import (
	"sort"
	"time"

	"rewind/internal/viewing"
)

// Partition collapses near-duplicate viewings of a single canonical episode.
// Events are ordered by watch time; whenever two neighbours are closer than
// window, the earlier one is discarded and the later kept, so a burst of
// viewings collapses to its latest member. Gaps of window or more start a new
// retained group (a legitimate rewatch). Dateless events carry no position in
// time: each is retained as its own singleton, appended after the dated ones.
//
// retained preserves chronological order; duplicates holds the collapsed
// burst members so callers can account for them. The input is never mutated
// and no external state is consulted.
func Partition(events []viewing.Event, window time.Duration) (retained, duplicates []viewing.Event) {
	if len(events) == 0 {
		return nil, nil
	}

	dated := make([]viewing.Event, 0, len(events))
	dateless := make([]viewing.Event, 0)
	for _, event := range events {
		if event.HasDate() {
			dated = append(dated, event)
		} else {
			dateless = append(dateless, event)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].WatchedAt.Before(dated[j].WatchedAt)
	})

	retained = make([]viewing.Event, 0, len(dated)+len(dateless))
	for _, candidate := range dated {
		if len(retained) == 0 {
			retained = append(retained, candidate)
			continue
		}
		last := retained[len(retained)-1]
		if candidate.WatchedAt.Sub(last.WatchedAt) < window {
			duplicates = append(duplicates, last)
			retained[len(retained)-1] = candidate
			continue
		}
		retained = append(retained, candidate)
	}

	return append(retained, dateless...), duplicates
}

// Dedupe returns only the retained events from Partition.
func Dedupe(events []viewing.Event, window time.Duration) []viewing.Event {
	retained, _ := Partition(events, window)
	return retained
}
