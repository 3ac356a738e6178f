package importer

import (
	"time"

	"rewind/internal/sources"
	"rewind/internal/viewing"
)

// Outcome classifies what happened to one viewing event.
type Outcome string

const (
	OutcomeCreated           Outcome = "created"
	OutcomeMerged            Outcome = "merged"
	OutcomeSkippedDuplicate  Outcome = "skipped_duplicate"
	OutcomeSkippedExcluded   Outcome = "skipped_excluded"
	OutcomeSkippedProfile    Outcome = "skipped_profile"
	OutcomeSkippedUnresolved Outcome = "skipped_unresolved"
	OutcomeSkippedNoDate     Outcome = "skipped_no_date"
	OutcomeFailed            Outcome = "failed"
)

// Outcomes lists every outcome in report display order.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeCreated,
		OutcomeMerged,
		OutcomeSkippedDuplicate,
		OutcomeSkippedExcluded,
		OutcomeSkippedProfile,
		OutcomeSkippedUnresolved,
		OutcomeSkippedNoDate,
		OutcomeFailed,
	}
}

// EventResult is the recorded outcome for one input event.
type EventResult struct {
	Show      string    `json:"show"`
	Season    int       `json:"season"`
	Episode   int       `json:"episode"`
	Date      string    `json:"date,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	WatchedAt time.Time `json:"-"`
}

// Result is the full run report: one entry per input event, in processing
// order, plus the run's identity.
type Result struct {
	RunID  string        `json:"run_id"`
	Source sources.Kind  `json:"source"`
	DryRun bool          `json:"dry_run"`
	Events []EventResult `json:"events"`
}

func (r *Result) add(event viewing.Event, outcome Outcome, reason string) {
	entry := EventResult{
		Show:      event.ShowTitle,
		Season:    event.Season,
		Episode:   event.Episode,
		Outcome:   outcome,
		Reason:    reason,
		WatchedAt: event.WatchedAt,
	}
	if event.HasDate() {
		entry.Date = viewing.FormatDate(event.WatchedAt)
	}
	r.Events = append(r.Events, entry)
}

// Count returns how many events ended with the given outcome.
func (r *Result) Count(outcome Outcome) int {
	n := 0
	for _, event := range r.Events {
		if event.Outcome == outcome {
			n++
		}
	}
	return n
}

// Total is the number of recorded events.
func (r *Result) Total() int {
	return len(r.Events)
}

// Writes is the number of events that produced (or, in dry-run, would
// produce) a remote write.
func (r *Result) Writes() int {
	return r.Count(OutcomeCreated) + r.Count(OutcomeMerged)
}
