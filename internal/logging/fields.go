package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for import run identifiers.
	FieldRunID = "run_id"
	// FieldSource is the standardized structured logging key for source kinds (netflix, plex, csv).
	FieldSource = "source"
	// FieldShow is the standardized structured logging key for show titles.
	FieldShow = "show"
	// FieldShowID is the standardized structured logging key for resolved TMDB show identifiers.
	FieldShowID = "show_id"
	// FieldSeason is the standardized structured logging key for season numbers.
	FieldSeason = "season"
	// FieldEpisode is the standardized structured logging key for episode numbers.
	FieldEpisode = "episode"
	// FieldOutcome is the standardized structured logging key for per-event import outcomes.
	FieldOutcome = "outcome"
	// FieldReason is the standardized structured logging key for outcome detail.
	FieldReason = "reason"
	// FieldPath is the standardized structured logging key for input file paths.
	FieldPath = "path"
	// FieldEventCount is the standardized structured logging key for event totals.
	FieldEventCount = "event_count"
)
