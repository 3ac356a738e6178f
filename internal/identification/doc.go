// Package identification resolves show display titles to TMDB series
// identifiers for the import pipeline.
//
// The Resolver consults explicit overrides (a built-in table plus an optional
// user mapping file) before querying TMDB, ranks search candidates
// deterministically, and memoizes every outcome for the lifetime of a run so
// thousands of events for the same show cost one lookup.
//
// Centralize new resolution heuristics here so sources and the importer stay
// free of metadata concerns.
package identification
