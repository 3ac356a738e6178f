package viewing

import (
	"fmt"
	"time"
)

// DateLayout is the day-precision format used for diary backdates and
// exact-day comparisons.
const DateLayout = "2006-01-02"

// Event is one normalized viewing of one episode, as emitted by a source
// parser. Immutable once created. A zero WatchedAt means the source carried
// no date for the viewing, which only the free-form CSV source permits.
type Event struct {
	ShowTitle string
	Season    int
	Episode   int
	WatchedAt time.Time
	Profile   string
	Review    string
	Tags      []string
}

// HasDate reports whether the event carries a watch date.
func (e Event) HasDate() bool {
	return !e.WatchedAt.IsZero()
}

// Label formats the event's episode coordinates for logs and reports.
func (e Event) Label() string {
	return fmt.Sprintf("%s %s", e.ShowTitle, EpisodeLabel(e.Season, e.Episode))
}

// Key identifies a canonical episode once the show title has been resolved to
// its TMDB identifier. It is the deduplication and merge key.
type Key struct {
	ShowID  int64
	Season  int
	Episode int
}

// String formats a deterministic key for maps and logs.
func (k Key) String() string {
	return fmt.Sprintf("%d/%s", k.ShowID, EpisodeKey(k.Season, k.Episode))
}

// EpisodeKey formats a deterministic lowercase key for an episode.
func EpisodeKey(season, episode int) string {
	return fmt.Sprintf("s%02de%02d", season, episode)
}

// EpisodeLabel formats a user-facing episode label.
func EpisodeLabel(season, episode int) string {
	return fmt.Sprintf("S%02dE%02d", season, episode)
}

// FormatDate renders a timestamp as a diary backdate.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// SameDay reports whether two timestamps fall on the same UTC calendar day.
// A zero timestamp never matches anything, including another zero.
func SameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return FormatDate(a) == FormatDate(b)
}
