package sources

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"rewind/internal/logging"
	"rewind/internal/services"
	"rewind/internal/viewing"
)

// metadata_type 4 is an episode; movies are type 1 and never selected.
const plexEpisodeType = 4

// metadata_item_views denormalizes the watch history: grandparent_title is
// the show, parent_index the season, `index` the episode.
const plexViewsQuery = `
SELECT views.grandparent_title,
       views.parent_index,
       views.` + "`index`" + `,
       views.viewed_at,
       accounts.name
FROM metadata_item_views views
JOIN accounts ON views.account_id = accounts.id
WHERE views.metadata_type = ?`

// PlexParser reads viewing history from a Plex server database.
type PlexParser struct {
	logger *slog.Logger
}

// NewPlexParser constructs a parser for Plex library databases.
func NewPlexParser(logger *slog.Logger) *PlexParser {
	return &PlexParser{logger: logging.NewComponentLogger(logger, "sources")}
}

// Kind identifies the source.
func (p *PlexParser) Kind() Kind { return KindPlex }

// Read queries the database at path for episode views. The database is
// opened read-only; it may be a copy of a live server's library.
func (p *PlexParser) Read(ctx context.Context, path string) ([]viewing.Event, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, services.Wrap(services.ErrSourceFormat, "sources", "plex", "open database", err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, services.Wrap(services.ErrSourceFormat, "sources", "plex", "open database", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, plexViewsQuery, plexEpisodeType)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceFormat, "sources", "plex", "query viewing history", err)
	}
	defer rows.Close()

	var events []viewing.Event
	incomplete := 0
	for rows.Next() {
		var (
			show     sql.NullString
			season   sql.NullInt64
			episode  sql.NullInt64
			viewedAt sql.NullInt64
			profile  sql.NullString
		)
		if err := rows.Scan(&show, &season, &episode, &viewedAt, &profile); err != nil {
			return nil, services.Wrap(services.ErrSourceFormat, "sources", "plex", "scan view row", err)
		}
		title := strings.TrimSpace(show.String)
		if title == "" || !season.Valid || !episode.Valid || !viewedAt.Valid {
			incomplete++
			continue
		}
		events = append(events, viewing.Event{
			ShowTitle: title,
			Season:    int(season.Int64),
			Episode:   int(episode.Int64),
			WatchedAt: time.Unix(viewedAt.Int64, 0).UTC(),
			Profile:   strings.TrimSpace(profile.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrSourceFormat, "sources", "plex", "read view rows", err)
	}

	if incomplete > 0 {
		p.logger.Warn("skipped view rows with missing metadata", logging.Int("rows", incomplete))
	}
	p.logger.Debug("parsed plex history",
		logging.String(logging.FieldPath, path),
		logging.Int(logging.FieldEventCount, len(events)))
	return events, nil
}
