// internal/results/results.go
//
// Result Log: bounded, append-only history of finished games.
// Responsibilities:
//   - Load history from a JSON array file (missing/corrupt → empty, never an error).
//   - Record results, dropping the oldest once the retention limit is exceeded.
//   - Save atomically (temp file + rename) so a failed write keeps the old file.
//
// Notes:
//   - Log is safe for concurrent use; HTTP handlers share one instance.
//   - The on-disk keys match the files the desktop game has always written
//     ("time" holds elapsed seconds). Dates are written as RFC 3339; zoneless
//     local timestamps from older files are still read.
package results

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danielnylander/minnet/internal/jsonfile"
)

// DefaultLimit is how many results are kept when no limit is configured.
const DefaultLimit = 500

// Result is one finished game.
type Result struct {
	Date           time.Time `json:"date"`
	Pairs          int       `json:"pairs"`
	Moves          int       `json:"moves"`
	ElapsedSeconds int       `json:"time"`
	Won            bool      `json:"won"`
}

// dateLayouts are accepted when reading; older files carry local
// timestamps with microseconds and no zone.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON accepts every date form the results file has held.
func (r *Result) UnmarshalJSON(b []byte) error {
	type plain Result
	aux := struct {
		*plain
		Date string `json:"date"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Date == "" {
		r.Date = time.Time{}
		return nil
	}
	d, err := parseDate(aux.Date)
	if err != nil {
		return err
	}
	r.Date = d
	return nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// Load returns the results stored at path. A missing or malformed file
// yields an empty slice.
func Load(path string) []Result {
	var rs []Result
	if err := jsonfile.Read(path, &rs); err != nil {
		if !jsonfile.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("results file unreadable, starting empty")
		}
		return []Result{}
	}
	if rs == nil {
		rs = []Result{}
	}
	return rs
}

// Save overwrites path with rs.
func Save(path string, rs []Result) error {
	if rs == nil {
		rs = []Result{}
	}
	return jsonfile.Write(path, rs)
}

// Log is an in-memory view of a results file with a retention limit.
type Log struct {
	mu      sync.Mutex // guards entries and file writes
	path    string
	limit   int
	entries []Result
}

// Open loads path and trims it to limit. limit <= 0 means DefaultLimit.
func Open(path string, limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	l := &Log{path: path, limit: limit, entries: Load(path)}
	l.trim()
	return l
}

// Path reports the backing file.
func (l *Log) Path() string { return l.path }

// Limit reports the retention limit.
func (l *Log) Limit() int { return l.limit }

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Result, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of retained results.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Record appends r and saves in one step, so concurrent callers never
// overwrite each other's results.
func (l *Log) Record(r Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, r)
	l.trim()
	return Save(l.path, l.entries)
}

// trim drops the oldest entries beyond the limit. Caller holds mu (or owns l).
func (l *Log) trim() {
	if over := len(l.entries) - l.limit; over > 0 {
		kept := make([]Result, l.limit)
		copy(kept, l.entries[over:])
		l.entries = kept
	}
}
