package identification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"rewind/internal/identification/tmdb"
	"rewind/internal/logging"
	"rewind/internal/services"
)

var foldCaser = cases.Fold()

// TitleKey normalizes a show title for map lookups and case-insensitive
// comparison: Unicode case folding plus whitespace collapsing. The same raw
// string always produces the same key.
func TitleKey(title string) string {
	folded := foldCaser.String(strings.TrimSpace(title))
	return strings.Join(strings.Fields(folded), " ")
}

type resolution struct {
	id  int64
	err error
}

// Resolver maps show titles to TMDB show identifiers. Lookups are memoized
// per normalized title for the resolver's lifetime, so construct one per
// import run.
type Resolver struct {
	searcher  tmdb.Searcher
	overrides map[string]int64
	cache     map[string]resolution
	logger    *slog.Logger
}

// NewResolver builds a resolver over the supplied searcher. Entries in extra
// take precedence over the built-in override table; both are consulted before
// any TMDB query.
func NewResolver(searcher tmdb.Searcher, extra map[string]int64, logger *slog.Logger) *Resolver {
	overrides := DefaultOverrides()
	for title, id := range extra {
		overrides[TitleKey(title)] = id
	}
	return &Resolver{
		searcher:  searcher,
		overrides: overrides,
		cache:     make(map[string]resolution),
		logger:    logging.NewComponentLogger(logger, "identification"),
	}
}

// Resolve returns the TMDB show id for a display title. Failures are memoized
// alongside successes so a title that cannot be resolved is queried once per
// run, not once per event.
func (r *Resolver) Resolve(ctx context.Context, title string) (int64, error) {
	key := TitleKey(title)
	if key == "" {
		return 0, services.Wrap(services.ErrUnresolvedShow, "identification", "resolve", "empty show title", nil)
	}

	if cached, ok := r.cache[key]; ok {
		return cached.id, cached.err
	}

	if id, ok := r.overrides[key]; ok {
		r.logger.Debug("using show override", logging.String(logging.FieldShow, title), logging.Int64(logging.FieldShowID, id))
		r.cache[key] = resolution{id: id}
		return id, nil
	}

	id, err := r.search(ctx, title)
	r.cache[key] = resolution{id: id, err: err}
	return id, err
}

func (r *Resolver) search(ctx context.Context, title string) (int64, error) {
	resp, err := r.searcher.SearchTV(ctx, title)
	if err != nil {
		return 0, services.Wrap(services.ErrUnresolvedShow, "identification", "resolve", fmt.Sprintf("search %q", title), err)
	}
	best, ok := pickBest(resp.Results)
	if !ok {
		return 0, services.Wrap(services.ErrUnresolvedShow, "identification", "resolve", fmt.Sprintf("no TMDB results for %q", title), nil)
	}
	r.logger.Debug("resolved show",
		logging.String(logging.FieldShow, title),
		logging.Int64(logging.FieldShowID, best.ID),
		logging.String("matched_name", best.Name))
	return best.ID, nil
}

// pickBest orders candidates by popularity, ties broken by lowest id, so the
// choice is reproducible for identical candidate lists.
func pickBest(results []tmdb.Result) (tmdb.Result, bool) {
	if len(results) == 0 {
		return tmdb.Result{}, false
	}
	ranked := make([]tmdb.Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Popularity != ranked[j].Popularity {
			return ranked[i].Popularity > ranked[j].Popularity
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked[0], true
}
