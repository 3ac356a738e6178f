package merge

import (
	"fmt"
	"time"

	"rewind/internal/viewing"
)

// Action is the write decision for one deduplicated viewing event.
type Action string

const (
	// ActionCreate logs a new diary entry (optionally superseding a stub).
	ActionCreate Action = "create"
	// ActionMerge adds a second entry without disturbing existing ones.
	ActionMerge Action = "merge_alongside"
	// ActionSkip leaves the diary untouched; the viewing is already covered.
	ActionSkip Action = "skip"
	// ActionDrop discards the event entirely; it cannot be logged.
	ActionDrop Action = "drop"
)

// ExistingEntry is the pipeline's read-only view of one remote diary entry
// for a canonical episode. A zero WatchedAt means the entry carries no
// backdate.
type ExistingEntry struct {
	ID        int64
	WatchedAt time.Time
	HasReview bool
}

// Decision is the gate's verdict for one event.
type Decision struct {
	Action Action
	Reason string
	// ReplaceID names the existing entry a create supersedes, when nonzero.
	// The write deletes that entry before logging the new one.
	ReplaceID int64
	// AdoptedAt is the existing date a dateless event was satisfied by.
	AdoptedAt time.Time
}

// Policy decides whether a viewing event should be written given the remote
// diary's existing entries for the same canonical episode.
type Policy struct {
	// Authoritative marks the hand-authored CSV source: its events may carry
	// review text, its dateless events may adopt an existing entry's date,
	// and reviewless stubs it finds are replaced rather than duplicated.
	Authoritative bool
}

// Decide evaluates one event against the full existing set for its episode.
// It must be called per event, never cached: entries created earlier in a run
// belong in existing for later decisions on the same episode.
func (p Policy) Decide(event viewing.Event, existing []ExistingEntry) Decision {
	if !event.HasDate() {
		return p.decideDateless(existing)
	}

	for _, entry := range existing {
		if viewing.SameDay(entry.WatchedAt, event.WatchedAt) {
			return Decision{
				Action: ActionSkip,
				Reason: fmt.Sprintf("already logged on %s", viewing.FormatDate(event.WatchedAt)),
			}
		}
	}

	if p.Authoritative && len(existing) > 0 {
		for _, entry := range existing {
			if !entry.HasReview {
				return Decision{
					Action:    ActionCreate,
					Reason:    fmt.Sprintf("replaces reviewless entry %d", entry.ID),
					ReplaceID: entry.ID,
				}
			}
		}
		return Decision{Action: ActionMerge, Reason: "existing reviewed entry preserved"}
	}

	return Decision{Action: ActionCreate}
}

func (p Policy) decideDateless(existing []ExistingEntry) Decision {
	if len(existing) == 0 {
		return Decision{Action: ActionDrop, Reason: "no watch date and no existing entry"}
	}
	for _, entry := range existing {
		if !entry.WatchedAt.IsZero() {
			return Decision{
				Action:    ActionSkip,
				Reason:    fmt.Sprintf("adopted existing date %s", viewing.FormatDate(entry.WatchedAt)),
				AdoptedAt: entry.WatchedAt,
			}
		}
	}
	return Decision{Action: ActionSkip, Reason: "already logged"}
}
