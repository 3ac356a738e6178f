package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"rewind/internal/dedupe"
	"rewind/internal/identification"
	"rewind/internal/logging"
	"rewind/internal/merge"
	"rewind/internal/services"
	"rewind/internal/services/serializd"
	"rewind/internal/sources"
	"rewind/internal/viewing"
)

const (
	OrderOldest = "oldest"
	OrderNewest = "newest"

	// DefaultWindowDays is the dedup window applied when the caller does not
	// override it.
	DefaultWindowDays = 3
)

// ShowResolver maps show titles to TMDB identifiers.
type ShowResolver interface {
	Resolve(ctx context.Context, title string) (int64, error)
}

// Diary is the remote tracking service the pipeline reads and writes.
type Diary interface {
	Login(ctx context.Context) error
	GetShow(ctx context.Context, showID int64) (*serializd.Show, error)
	UserReviews(ctx context.Context) ([]serializd.Review, error)
	LogEpisode(ctx context.Context, req serializd.LogRequest) (int64, error)
	DeleteReview(ctx context.Context, reviewID int64) error
}

// Options configure one import run.
type Options struct {
	RunID         string
	InputPath     string
	DryRun        bool
	Profile       string
	ExcludedShows []string
	WindowDays    int
	Order         string
	Tag           string
}

// Importer drives one source's events through identity resolution,
// deduplication, the idempotency gate, and the remote writes. Events are
// processed strictly sequentially so every gate decision observes the
// entries created earlier in the same run.
type Importer struct {
	parser   sources.Parser
	resolver ShowResolver
	diary    Diary
	logger   *slog.Logger
}

// New constructs an importer over the supplied collaborators.
func New(parser sources.Parser, resolver ShowResolver, diary Diary, logger *slog.Logger) *Importer {
	return &Importer{
		parser:   parser,
		resolver: resolver,
		diary:    diary,
		logger:   logging.NewComponentLogger(logger, "importer"),
	}
}

// Run executes the import and returns the per-event report. Source format
// problems, configuration problems, and a failed diary index fetch abort the
// run; anything that affects a single event is recorded in the report and
// the run continues.
func (imp *Importer) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	order := strings.ToLower(strings.TrimSpace(opts.Order))
	if order == "" {
		order = OrderOldest
	}
	if order != OrderOldest && order != OrderNewest {
		return nil, services.Wrap(services.ErrConfiguration, "importer", "run",
			fmt.Sprintf("order must be %q or %q, got %q", OrderOldest, OrderNewest, opts.Order), nil)
	}
	windowDays := opts.WindowDays
	if windowDays == 0 {
		windowDays = DefaultWindowDays
	}
	if windowDays < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "importer", "run", "dedup window must not be negative", nil)
	}

	kind := imp.parser.Kind()
	tag := strings.TrimSpace(opts.Tag)
	if tag == "" {
		tag = kind.DefaultTag()
	}

	logger := imp.logger.With(
		logging.String(logging.FieldRunID, opts.RunID),
		logging.String(logging.FieldSource, string(kind)))

	if err := imp.diary.Login(ctx); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "importer", "run", "serializd login", err)
	}

	events, err := imp.parser.Read(ctx, opts.InputPath)
	if err != nil {
		return nil, err
	}
	logger.Info("parsed source",
		logging.String(logging.FieldPath, opts.InputPath),
		logging.Int(logging.FieldEventCount, len(events)))

	r := &run{
		imp:           imp,
		state:         newRunState(imp.diary),
		result:        &Result{RunID: opts.RunID, Source: kind, DryRun: opts.DryRun},
		logger:        logger,
		tag:           tag,
		authoritative: kind.Authoritative(),
		dryRun:        opts.DryRun,
	}

	candidates := r.filter(events, opts.Profile, opts.ExcludedShows, kind)
	queue := r.resolveAndDedupe(ctx, candidates, time.Duration(windowDays)*24*time.Hour)
	sortQueue(queue, order == OrderNewest)

	if len(queue) > 0 {
		if err := r.state.ensureReviews(ctx); err != nil {
			return nil, services.Wrap(services.ErrRemoteWrite, "importer", "run", "fetch existing diary entries", err)
		}
	}

	for _, item := range queue {
		if err := ctx.Err(); err != nil {
			return r.result, err
		}
		r.process(ctx, item)
	}

	logger.Info("run complete",
		logging.Int(logging.FieldEventCount, r.result.Total()),
		logging.Int("writes", r.result.Writes()),
		logging.Int("failed", r.result.Count(OutcomeFailed)),
		logging.Bool("dry_run", opts.DryRun))
	return r.result, nil
}

// queuedEvent pairs a retained event with its canonical episode.
type queuedEvent struct {
	event viewing.Event
	key   viewing.Key
}

// run carries the per-run collaborators and accounting through the pipeline
// stages.
type run struct {
	imp           *Importer
	state         *runState
	result        *Result
	logger        *slog.Logger
	tag           string
	authoritative bool
	dryRun        bool
}

// filter applies the profile and exclusion filters. Filtered events are
// recorded, never silently dropped, and never reach the resolver.
func (r *run) filter(events []viewing.Event, profile string, excludedShows []string, kind sources.Kind) []viewing.Event {
	profile = strings.TrimSpace(profile)
	if profile != "" && !kind.SupportsProfiles() {
		r.logger.Warn("source does not record profiles, ignoring filter",
			logging.String("profile", profile))
		profile = ""
	}

	excluded := make(map[string]struct{}, len(excludedShows))
	for _, show := range excludedShows {
		if key := identification.TitleKey(show); key != "" {
			excluded[key] = struct{}{}
		}
	}

	kept := make([]viewing.Event, 0, len(events))
	for _, event := range events {
		if profile != "" && strings.TrimSpace(event.Profile) != profile {
			r.result.add(event, OutcomeSkippedProfile, fmt.Sprintf("profile %q", event.Profile))
			continue
		}
		if _, ok := excluded[identification.TitleKey(event.ShowTitle)]; ok {
			r.result.add(event, OutcomeSkippedExcluded, "excluded show")
			continue
		}
		kept = append(kept, event)
	}
	return kept
}

// resolveAndDedupe resolves each event's show, groups by canonical episode,
// and collapses viewing bursts per group. Unresolved shows and collapsed
// duplicates are recorded.
func (r *run) resolveAndDedupe(ctx context.Context, events []viewing.Event, window time.Duration) []queuedEvent {
	groups := make(map[viewing.Key][]viewing.Event)
	var keys []viewing.Key
	for _, event := range events {
		showID, err := r.imp.resolver.Resolve(ctx, event.ShowTitle)
		if err != nil {
			r.result.add(event, OutcomeSkippedUnresolved, err.Error())
			continue
		}
		key := viewing.Key{ShowID: showID, Season: event.Season, Episode: event.Episode}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], event)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ShowID != keys[j].ShowID {
			return keys[i].ShowID < keys[j].ShowID
		}
		if keys[i].Season != keys[j].Season {
			return keys[i].Season < keys[j].Season
		}
		return keys[i].Episode < keys[j].Episode
	})

	var queue []queuedEvent
	for _, key := range keys {
		retained, duplicates := dedupe.Partition(groups[key], window)
		for _, duplicate := range duplicates {
			r.result.add(duplicate, OutcomeSkippedDuplicate, "collapsed into a later viewing")
		}
		for _, event := range retained {
			queue = append(queue, queuedEvent{event: event, key: key})
		}
	}
	return queue
}

// sortQueue orders the full cross-show queue by watch time. Dateless events
// sort last regardless of direction.
func sortQueue(queue []queuedEvent, newest bool) {
	sort.SliceStable(queue, func(i, j int) bool {
		a, b := queue[i].event, queue[j].event
		if !a.HasDate() {
			return false
		}
		if !b.HasDate() {
			return true
		}
		if newest {
			return a.WatchedAt.After(b.WatchedAt)
		}
		return a.WatchedAt.Before(b.WatchedAt)
	})
}

// process runs one event through the idempotency gate and performs the
// resulting write.
func (r *run) process(ctx context.Context, item queuedEvent) {
	event := item.event
	entries, err := r.state.entriesFor(ctx, item.key)
	if err != nil {
		r.result.add(event, OutcomeFailed, err.Error())
		r.logger.Warn("cannot prepare episode", append(eventAttrs(event), logging.Error(err))...)
		return
	}

	decision := merge.Policy{Authoritative: r.authoritative}.Decide(event, entries)
	switch decision.Action {
	case merge.ActionSkip:
		r.result.add(event, OutcomeSkippedDuplicate, decision.Reason)
		r.logger.Debug("skipping event",
			append(eventAttrs(event), logging.String(logging.FieldReason, decision.Reason))...)
	case merge.ActionDrop:
		r.result.add(event, OutcomeSkippedNoDate, decision.Reason)
		r.logger.Debug("dropping event",
			append(eventAttrs(event), logging.String(logging.FieldReason, decision.Reason))...)
	case merge.ActionCreate, merge.ActionMerge:
		outcome := OutcomeCreated
		if decision.Action == merge.ActionMerge {
			outcome = OutcomeMerged
		}
		if r.dryRun {
			r.result.add(event, outcome, decision.Reason)
			r.logger.Info("would write entry",
				append(eventAttrs(event), logging.String(logging.FieldOutcome, string(outcome)))...)
			return
		}
		if err := r.write(ctx, item, decision); err != nil {
			r.result.add(event, OutcomeFailed, err.Error())
			r.logger.Warn("write failed", append(eventAttrs(event), logging.Error(err))...)
			return
		}
		r.result.add(event, outcome, decision.Reason)
		r.logger.Info("wrote entry",
			append(eventAttrs(event), logging.String(logging.FieldOutcome, string(outcome)))...)
	}
}

// write performs the remote calls for a create or merge decision and updates
// the run's entry cache.
func (r *run) write(ctx context.Context, item queuedEvent, decision merge.Decision) error {
	seasonID, err := r.state.seasonID(ctx, item.key)
	if err != nil {
		return err
	}
	if decision.ReplaceID != 0 {
		if err := r.imp.diary.DeleteReview(ctx, decision.ReplaceID); err != nil {
			return err
		}
		r.state.removeEntry(item.key, decision.ReplaceID)
	}

	event := item.event
	id, err := r.imp.diary.LogEpisode(ctx, serializd.LogRequest{
		ShowID:      item.key.ShowID,
		SeasonID:    seasonID,
		Episode:     item.key.Episode,
		WatchedAt:   event.WatchedAt,
		ReviewText:  event.Review,
		Tags:        buildTags(r.tag, event.Tags),
		MarkWatched: decision.Action == merge.ActionCreate,
	})
	if err != nil {
		return err
	}
	r.state.appendEntry(item.key, merge.ExistingEntry{
		ID:        id,
		WatchedAt: event.WatchedAt,
		HasReview: strings.TrimSpace(event.Review) != "",
	})
	return nil
}

// buildTags prepends the run tag to the event's own tags, deduplicating
// case-insensitively while preserving order.
func buildTags(runTag string, extra []string) []string {
	tags := make([]string, 0, len(extra)+1)
	seen := make(map[string]struct{}, len(extra)+1)
	for _, tag := range append([]string{runTag}, extra...) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func eventAttrs(event viewing.Event) []any {
	return []any{
		logging.String(logging.FieldShow, event.ShowTitle),
		logging.Int(logging.FieldSeason, event.Season),
		logging.Int(logging.FieldEpisode, event.Episode),
	}
}
