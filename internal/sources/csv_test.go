package sources

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"rewind/internal/logging"
	"rewind/internal/services"
)

func TestCSVReadParsesRows(t *testing.T) {
	path := writeFixture(t, "episodes.csv",
		"show,season,episode,date,review,tags\n"+
			"Severance,1,1,2024-04-15,\"Loved it, unsettling.\",\"rewatch, favorite\"\n"+
			"Severance,1,2,,,\n"+
			"Severance,1,3,someday,,\n")

	parser := NewCSVParser(logging.NewNop())
	events, err := parser.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	first := events[0]
	if first.ShowTitle != "Severance" || first.Season != 1 || first.Episode != 1 {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if !first.WatchedAt.Equal(time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("watched at = %s", first.WatchedAt)
	}
	if first.Review != "Loved it, unsettling." {
		t.Fatalf("review = %q", first.Review)
	}
	if !reflect.DeepEqual(first.Tags, []string{"rewatch", "favorite"}) {
		t.Fatalf("tags = %v", first.Tags)
	}

	if events[1].HasDate() {
		t.Fatal("expected second event to be dateless")
	}
	if events[2].HasDate() {
		t.Fatal("expected unparseable date to yield a dateless event")
	}
}

func TestCSVReadSkipsInvalidRows(t *testing.T) {
	path := writeFixture(t, "episodes.csv",
		"show,season,episode\n"+
			"Severance,one,1\n"+
			"Severance,1,0\n"+
			",1,1\n"+
			"Severance,2,1\n")

	parser := NewCSVParser(logging.NewNop())
	events, err := parser.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 valid event, got %d", len(events))
	}
	if events[0].Season != 2 {
		t.Fatalf("unexpected surviving event: %+v", events[0])
	}
}

func TestCSVReadRejectsMissingColumns(t *testing.T) {
	path := writeFixture(t, "episodes.csv", "show,date\nSeverance,2024-01-01\n")

	parser := NewCSVParser(logging.NewNop())
	_, err := parser.Read(context.Background(), path)
	if !errors.Is(err, services.ErrSourceFormat) {
		t.Fatalf("expected source format error, got %v", err)
	}
	for _, column := range []string{"episode", "season"} {
		if !strings.Contains(err.Error(), column) {
			t.Errorf("error should name missing column %q: %v", column, err)
		}
	}
}

func TestParseCSVDate(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
		ok    bool
	}{
		{"2024-04-15", time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC), true},
		{"2024-04-15T12:30:00", time.Date(2024, time.April, 15, 12, 30, 0, 0, time.UTC), true},
		{"April 15, 2024", time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC), true},
		{"April 15 2024", time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC), true},
		// Day-first wins for ambiguous slash dates.
		{"05/04/2024", time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC), true},
		{"04/15/2024", time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"someday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := parseCSVDate(tt.value)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Fatalf("parsed %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSplitTags(t *testing.T) {
	if tags := splitTags(" rewatch , , favorite "); !reflect.DeepEqual(tags, []string{"rewatch", "favorite"}) {
		t.Fatalf("unexpected tags %v", tags)
	}
	if tags := splitTags(""); tags != nil {
		t.Fatalf("expected nil tags for empty input, got %v", tags)
	}
}
