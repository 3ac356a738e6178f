package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"rewind/internal/logging"
	"rewind/internal/services"
	"rewind/internal/viewing"
)

// csvDateLayouts are tried in order; day-first formats win over month-first
// for ambiguous values.
var csvDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"January 2, 2006",
	"January 2 2006",
	"02/01/2006",
	"01/02/2006",
}

// CSVParser reads hand-authored episode CSVs with columns show, season, and
// episode, plus optional date, review, and tags columns.
type CSVParser struct {
	logger *slog.Logger
}

// NewCSVParser constructs a parser for the free-form episode CSV.
func NewCSVParser(logger *slog.Logger) *CSVParser {
	return &CSVParser{logger: logging.NewComponentLogger(logger, "sources")}
}

// Kind identifies the source.
func (p *CSVParser) Kind() Kind { return KindCSV }

// Read parses the CSV at path. A missing or unparseable date yields an event
// without a date rather than an error; rows without a valid show, season, and
// episode are logged and skipped.
func (p *CSVParser) Read(ctx context.Context, path string) ([]viewing.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrSourceFormat, "sources", "csv", "open file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, services.Wrap(services.ErrSourceFormat, "sources", "csv", "read header", err)
	}
	columns := headerIndex(header)
	var missing []string
	for _, required := range []string{"show", "season", "episode"} {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, services.Wrap(services.ErrSourceFormat, "sources", "csv",
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}

	showCol := columns["show"]
	seasonCol := columns["season"]
	episodeCol := columns["episode"]
	dateCol, hasDate := columns["date"]
	reviewCol, hasReview := columns["review"]
	tagsCol, hasTags := columns["tags"]

	var events []viewing.Event
	malformed := 0
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrSourceFormat, "sources", "csv", fmt.Sprintf("read row %d", row+1), err)
		}
		row++

		show := strings.TrimSpace(field(record, showCol))
		season, seasonErr := strconv.Atoi(strings.TrimSpace(field(record, seasonCol)))
		episode, episodeErr := strconv.Atoi(strings.TrimSpace(field(record, episodeCol)))
		if show == "" || seasonErr != nil || episodeErr != nil || season <= 0 || episode <= 0 {
			malformed++
			p.logger.Warn("skipping row without valid show, season, and episode",
				logging.Int("row", row))
			continue
		}

		event := viewing.Event{
			ShowTitle: show,
			Season:    season,
			Episode:   episode,
		}
		if hasDate {
			raw := strings.TrimSpace(field(record, dateCol))
			if ts, ok := parseCSVDate(raw); ok {
				event.WatchedAt = ts
			} else if raw != "" {
				p.logger.Debug("treating unparseable date as absent",
					logging.Int("row", row),
					logging.String("date", raw))
			}
		}
		if hasReview {
			event.Review = strings.TrimSpace(field(record, reviewCol))
		}
		if hasTags {
			event.Tags = splitTags(field(record, tagsCol))
		}
		events = append(events, event)
	}

	if malformed > 0 {
		p.logger.Warn("skipped malformed rows", logging.Int("rows", malformed))
	}
	p.logger.Debug("parsed episode csv",
		logging.String(logging.FieldPath, path),
		logging.Int(logging.FieldEventCount, len(events)))
	return events, nil
}

func parseCSVDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range csvDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func splitTags(value string) []string {
	var tags []string
	for _, tag := range strings.Split(value, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
