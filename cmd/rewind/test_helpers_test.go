package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"rewind/internal/services/serializd"
)

// fakeRemote backs both fake HTTP services an import run talks to: the TMDB
// search API and the Serializd API. State is shared so entries written
// through the diary endpoint are visible to later review fetches.
type fakeRemote struct {
	mu      sync.Mutex
	tmdbIDs map[string]int64
	shows   map[int64]serializd.Show
	reviews []serializd.Review
	tags    map[int64][]string
	nextID  int64
	logged  []map[string]any
	deleted []int64
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		tmdbIDs: map[string]int64{
			"breaking bad": 1396,
			"severance":    95396,
		},
		shows: map[int64]serializd.Show{
			1396: {ID: 1396, Name: "Breaking Bad", Seasons: []serializd.Season{{ID: 3572, SeasonNumber: 1}}},
			95396: {ID: 95396, Name: "Severance", Seasons: []serializd.Season{
				{ID: 95397, SeasonNumber: 1},
				{ID: 216464, SeasonNumber: 2},
			}},
		},
		tags:   make(map[int64][]string),
		nextID: 100,
	}
}

func (f *fakeRemote) tmdbHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()

		query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
		results := []map[string]any{}
		if id, ok := f.tmdbIDs[query]; ok {
			results = append(results, map[string]any{"id": id, "name": query, "popularity": 10.0})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"page": 1, "results": results})
	})
}

func (f *fakeRemote) serializdHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		path := r.URL.Path
		switch {
		case path == "/login" && r.Method == http.MethodPost:
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "test-token"})
		case path == "/user/reviews":
			_ = json.NewEncoder(w).Encode(map[string]any{"reviews": f.reviews})
		case strings.HasPrefix(path, "/show/"):
			id, _ := strconv.ParseInt(strings.TrimPrefix(path, "/show/"), 10, 64)
			show, ok := f.shows[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(show)
		case path == "/diary" && r.Method == http.MethodPost:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			f.logged = append(f.logged, body)
			f.nextID++
			f.reviews = append(f.reviews, reviewFromDiaryBody(f.nextID, body))
			if tags, ok := body["tags"].([]any); ok {
				for _, tag := range tags {
					if s, ok := tag.(string); ok {
						f.tags[f.nextID] = append(f.tags[f.nextID], s)
					}
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]int64{"id": f.nextID})
		case strings.HasPrefix(path, "/diary/") && r.Method == http.MethodDelete:
			id, _ := strconv.ParseInt(strings.TrimPrefix(path, "/diary/"), 10, 64)
			f.deleted = append(f.deleted, id)
			for i, review := range f.reviews {
				if review.ID == id {
					f.reviews = append(f.reviews[:i], f.reviews[i+1:]...)
					break
				}
			}
			w.WriteHeader(http.StatusOK)
		case strings.HasPrefix(path, "/review/") && strings.HasSuffix(path, "/tags"):
			raw := strings.TrimSuffix(strings.TrimPrefix(path, "/review/"), "/tags")
			id, _ := strconv.ParseInt(raw, 10, 64)
			tags := f.tags[id]
			if tags == nil {
				tags = []string{}
			}
			_ = json.NewEncoder(w).Encode(map[string][]string{"tags": tags})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func reviewFromDiaryBody(id int64, body map[string]any) serializd.Review {
	review := serializd.Review{ID: id}
	if v, ok := body["showId"].(float64); ok {
		review.ShowID = int64(v)
	}
	if v, ok := body["seasonId"].(float64); ok {
		review.SeasonID = int64(v)
	}
	if v, ok := body["episodeNumber"].(float64); ok {
		review.EpisodeNumber = int(v)
	}
	if v, ok := body["backdate"].(string); ok {
		review.Backdate = v
	}
	if v, ok := body["reviewText"].(string); ok {
		review.ReviewText = v
	}
	return review
}

func (f *fakeRemote) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logged)
}

func (f *fakeRemote) deletedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.deleted...)
}

func (f *fakeRemote) seedReview(review serializd.Review, tags ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, review)
	if len(tags) > 0 {
		f.tags[review.ID] = tags
	}
}

type cliTestEnv struct {
	remote     *fakeRemote
	configPath string
	baseDir    string
	stateDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	remote := newFakeRemote()

	tmdbSrv := httptest.NewServer(remote.tmdbHandler())
	t.Cleanup(tmdbSrv.Close)
	serializdSrv := httptest.NewServer(remote.serializdHandler())
	t.Cleanup(serializdSrv.Close)

	stateDir := filepath.Join(base, "state")
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, stateDir, filepath.Join(base, "logs"), tmdbSrv.URL, serializdSrv.URL)

	return &cliTestEnv{
		remote:     remote,
		configPath: configPath,
		baseDir:    base,
		stateDir:   stateDir,
	}
}

func writeTestConfig(t *testing.T, path, stateDir, logDir, tmdbURL, serializdURL string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q

[tmdb]
api_key = "test-key"
base_url = %q

[serializd]
email = "user@example.com"
password = "hunter2"
base_url = %q

[import]
write_delay_ms = 0

[logging]
level = "error"
`, stateDir, logDir, tmdbURL, serializdURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
