package identification

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// DefaultOverrides returns the built-in title mappings for shows whose TMDB
// search ranking routinely picks the wrong series. Keys are normalized with
// TitleKey.
func DefaultOverrides() map[string]int64 {
	return map[string]int64{
		TitleKey("The Office (UK)"): 2996,
		TitleKey("The Office (US)"): 2316,
	}
}

// LoadOverrides reads a user mapping file of one "Title:id" entry per line.
// Blank lines and lines starting with '#' are ignored, as are lines whose id
// portion does not parse. The title may itself contain colons; the id is
// taken after the last one. A missing file yields an empty map.
func LoadOverrides(path string) (map[string]int64, error) {
	if strings.TrimSpace(path) == "" {
		return map[string]int64{}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]int64{}, nil
		}
		return nil, fmt.Errorf("open overrides file: %w", err)
	}
	defer file.Close()

	overrides := make(map[string]int64)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.LastIndex(line, ":")
		if idx <= 0 {
			continue
		}
		title := strings.TrimSpace(line[:idx])
		id, err := strconv.ParseInt(strings.TrimSpace(line[idx+1:]), 10, 64)
		if err != nil || title == "" || id <= 0 {
			continue
		}
		overrides[title] = id
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read overrides file: %w", err)
	}
	return overrides, nil
}
