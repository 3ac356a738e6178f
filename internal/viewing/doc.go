// Package viewing defines the normalized viewing-history model shared by the
// source parsers, the deduplication engine, and the import pipeline: one Event
// per watched episode, and the canonical Key that identifies an episode after
// show-title resolution.
package viewing
