package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rewind/internal/logging"
	"rewind/internal/services"
	"rewind/internal/viewing"
)

// Netflix encodes the episode structure in the title itself:
//
//	"Seinfeld: Season 4: The Bubble Boy (Episode 6)"
//	"Outnumbered: Series 1: The City Farm (Episode 3)"
//	"Adolescence: Limited Series: Episode 4 (Episode 4)"
//
// Titles that match neither pattern are movies and are dropped.
var (
	netflixEpisodePattern = regexp.MustCompile(`(?i)^(.+?):\s+(?:Season|Series)\s+(\d+):\s+(.+?)\s+\(Episode\s+(\d+)\)$`)
	netflixLimitedPattern = regexp.MustCompile(`(?i)^(.+?):\s+Limited Series:\s+(.+?)\s+\(Episode\s+(\d+)\)$`)
)

// localeQualifiers rewrites Netflix's verbose locale suffixes into the short
// form the override table keys on.
var localeQualifiers = strings.NewReplacer("(U.S.)", "(US)", "(U.K.)", "(UK)")

var netflixDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/06",
}

// NetflixParser reads Netflix ViewingActivity.csv exports.
type NetflixParser struct {
	logger *slog.Logger
}

// NewNetflixParser constructs a parser for Netflix viewing activity exports.
func NewNetflixParser(logger *slog.Logger) *NetflixParser {
	return &NetflixParser{logger: logging.NewComponentLogger(logger, "sources")}
}

// Kind identifies the source.
func (p *NetflixParser) Kind() Kind { return KindNetflix }

// Read parses the export at path. Movies are filtered out; rows with
// unparseable dates are logged and skipped.
func (p *NetflixParser) Read(ctx context.Context, path string) ([]viewing.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceFormat, "sources", "netflix", "open export", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, services.Wrap(services.ErrSourceFormat, "sources", "netflix", "read header", err)
	}
	columns := headerIndex(header)
	titleCol, ok := columns["title"]
	if !ok {
		return nil, services.Wrap(services.ErrSourceFormat, "sources", "netflix", "export has no Title column", nil)
	}
	dateCol, ok := columns["start time"]
	if !ok {
		dateCol, ok = columns["date"]
	}
	if !ok {
		return nil, services.Wrap(services.ErrSourceFormat, "sources", "netflix", "export has no Start Time or Date column", nil)
	}
	profileCol, hasProfile := columns["profile name"]

	var events []viewing.Event
	malformed := 0
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrSourceFormat, "sources", "netflix", fmt.Sprintf("read row %d", row+1), err)
		}
		row++

		title := strings.TrimSpace(field(record, titleCol))
		if title == "" {
			continue
		}
		parsed, episodic := parseNetflixTitle(title)
		if !episodic {
			continue
		}

		watchedAt, err := parseNetflixDate(field(record, dateCol))
		if err != nil {
			malformed++
			p.logger.Warn("skipping row with unparseable date",
				logging.Int("row", row),
				logging.String(logging.FieldShow, parsed.Show),
				logging.Error(err))
			continue
		}

		event := viewing.Event{
			ShowTitle: parsed.Show,
			Season:    parsed.Season,
			Episode:   parsed.Episode,
			WatchedAt: watchedAt,
		}
		if hasProfile {
			event.Profile = strings.TrimSpace(field(record, profileCol))
		}
		events = append(events, event)
	}

	if malformed > 0 {
		p.logger.Warn("skipped malformed rows", logging.Int("rows", malformed))
	}
	p.logger.Debug("parsed netflix export",
		logging.String(logging.FieldPath, path),
		logging.Int(logging.FieldEventCount, len(events)))
	return events, nil
}

type parsedTitle struct {
	Show    string
	Season  int
	Episode int
}

// parseNetflixTitle splits an episodic title into show, season, and episode.
// episodic is false for titles without episode structure (movies, specials).
func parseNetflixTitle(title string) (parsedTitle, bool) {
	if m := netflixEpisodePattern.FindStringSubmatch(title); m != nil {
		season, _ := strconv.Atoi(m[2])
		episode, _ := strconv.Atoi(m[4])
		return parsedTitle{Show: normalizeShowTitle(m[1]), Season: season, Episode: episode}, true
	}
	if m := netflixLimitedPattern.FindStringSubmatch(title); m != nil {
		// Limited series are season 1 on TMDB.
		episode, _ := strconv.Atoi(m[3])
		return parsedTitle{Show: normalizeShowTitle(m[1]), Season: 1, Episode: episode}, true
	}
	return parsedTitle{}, false
}

func normalizeShowTitle(show string) string {
	return strings.TrimSpace(localeQualifiers.Replace(show))
}

func parseNetflixDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range netflixDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
