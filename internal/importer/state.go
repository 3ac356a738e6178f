package importer

import (
	"context"
	"fmt"

	"rewind/internal/merge"
	"rewind/internal/services/serializd"
	"rewind/internal/viewing"
)

// runState holds the run-scoped caches: the diary index fetched once per
// run, show season lists, and the existing entries per canonical episode.
// Entries written during the run are appended locally so later gate
// decisions observe them without refetching.
type runState struct {
	diary   Diary
	reviews []serializd.Review
	loaded  bool
	shows   map[int64]*showEntry
	entries map[viewing.Key][]merge.ExistingEntry
}

type showEntry struct {
	show *serializd.Show
	err  error
}

func newRunState(diary Diary) *runState {
	return &runState{
		diary:   diary,
		shows:   make(map[int64]*showEntry),
		entries: make(map[viewing.Key][]merge.ExistingEntry),
	}
}

// ensureReviews fetches the user's diary once. Every gate decision derives
// its existing set from this snapshot plus local appends.
func (s *runState) ensureReviews(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	reviews, err := s.diary.UserReviews(ctx)
	if err != nil {
		return err
	}
	s.reviews = reviews
	s.loaded = true
	return nil
}

// seasonID resolves the season identifier for a canonical episode. Show
// lookups are cached per show, including failures.
func (s *runState) seasonID(ctx context.Context, key viewing.Key) (int64, error) {
	entry, ok := s.shows[key.ShowID]
	if !ok {
		show, err := s.diary.GetShow(ctx, key.ShowID)
		entry = &showEntry{show: show, err: err}
		s.shows[key.ShowID] = entry
	}
	if entry.err != nil {
		return 0, entry.err
	}
	id, ok := entry.show.SeasonID(key.Season)
	if !ok {
		return 0, fmt.Errorf("season %d not found for show %d", key.Season, key.ShowID)
	}
	return id, nil
}

// entriesFor returns the existing diary entries for a canonical episode,
// computed once per episode per run.
func (s *runState) entriesFor(ctx context.Context, key viewing.Key) ([]merge.ExistingEntry, error) {
	if cached, ok := s.entries[key]; ok {
		return cached, nil
	}
	seasonID, err := s.seasonID(ctx, key)
	if err != nil {
		return nil, err
	}

	var matched []merge.ExistingEntry
	for _, review := range s.reviews {
		if review.ShowID != key.ShowID || review.SeasonID != seasonID || review.EpisodeNumber != key.Episode {
			continue
		}
		entry := merge.ExistingEntry{ID: review.ID, HasReview: review.HasText()}
		if ts, ok := review.BackdateTime(); ok {
			entry.WatchedAt = ts
		}
		matched = append(matched, entry)
	}
	s.entries[key] = matched
	return matched, nil
}

// appendEntry records a successful write so later decisions on the same
// episode see it.
func (s *runState) appendEntry(key viewing.Key, entry merge.ExistingEntry) {
	s.entries[key] = append(s.entries[key], entry)
}

// removeEntry drops a replaced entry from the cache.
func (s *runState) removeEntry(key viewing.Key, id int64) {
	cached := s.entries[key]
	for i, entry := range cached {
		if entry.ID == id {
			s.entries[key] = append(cached[:i], cached[i+1:]...)
			return
		}
	}
}
