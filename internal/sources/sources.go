package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rewind/internal/viewing"
)

// Kind identifies one supported viewing-history source.
type Kind string

const (
	KindNetflix Kind = "netflix"
	KindPlex    Kind = "plex"
	KindCSV     Kind = "csv"
)

// ParseKind maps a user-supplied source name to a Kind.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindNetflix:
		return KindNetflix, nil
	case KindPlex:
		return KindPlex, nil
	case KindCSV:
		return KindCSV, nil
	default:
		return "", fmt.Errorf("unknown source kind %q (expected netflix, plex, or csv)", value)
	}
}

// DefaultTag is the tag stamped on entries imported from this source unless
// the caller supplies an override.
func (k Kind) DefaultTag() string {
	switch k {
	case KindNetflix:
		return "#netfliximport"
	case KindPlex:
		return "#pleximport"
	case KindCSV:
		return "#csvimport"
	default:
		return "#import"
	}
}

// Authoritative reports whether the source is the hand-authored CSV, whose
// events may carry review text and replace reviewless diary entries.
func (k Kind) Authoritative() bool {
	return k == KindCSV
}

// SupportsProfiles reports whether the source records which household
// profile watched each episode.
func (k Kind) SupportsProfiles() bool {
	return k == KindNetflix || k == KindPlex
}

// Parser reads one source's raw storage into normalized viewing events.
// Non-episodic entries (movies) are dropped during parsing; malformed rows
// are logged and skipped without failing the read.
type Parser interface {
	Kind() Kind
	Read(ctx context.Context, path string) ([]viewing.Event, error)
}

// New returns the parser for a source kind.
func New(kind Kind, logger *slog.Logger) (Parser, error) {
	switch kind {
	case KindNetflix:
		return NewNetflixParser(logger), nil
	case KindPlex:
		return NewPlexParser(logger), nil
	case KindCSV:
		return NewCSVParser(logger), nil
	default:
		return nil, fmt.Errorf("unsupported source kind %q", kind)
	}
}

// headerIndex maps lowercased column names to their positions.
func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

// field returns the record value at index i, tolerating short rows.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
