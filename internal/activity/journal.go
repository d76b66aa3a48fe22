// Package activity keeps a JSONL journal of what the graph view reported:
// freezes, restarts, fits, arrangements and exports.
package activity

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/msalah0e/mentorgraph/internal/config"
)

// Entry is one journal line.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Event     string         `json:"event"`
	Message   string         `json:"message"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// Journal appends entries to a JSONL file. It is safe for concurrent use.
type Journal struct {
	mu   sync.Mutex
	path string
}

// DefaultPath is the journal in the user config directory.
func DefaultPath() string {
	return filepath.Join(config.ConfigDir(), "activity.jsonl")
}

// Open returns a journal writing to path. Nothing is created until the
// first Append.
func Open(path string) *Journal {
	return &Journal{path: path}
}

// Path is the journal file.
func (j *Journal) Path() string { return j.path }

// Append writes e, stamping it when Timestamp is zero.
func (j *Journal) Append(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("activity: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s\n", data)
	return err
}

// Read returns the last count entries, newest first. Zero means all.
// Lines that do not parse are skipped.
func (j *Journal) Read(count int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if json.Unmarshal([]byte(line), &e) == nil {
			entries = append(entries, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Timestamp.After(entries[b].Timestamp)
	})
	if count > 0 && len(entries) > count {
		entries = entries[:count]
	}
	return entries, nil
}

// Search finds entries whose event or message contains query,
// case-insensitive, newest first.
func (j *Journal) Search(query string, count int) ([]Entry, error) {
	all, err := j.Read(0)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var results []Entry
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Event), q) || strings.Contains(strings.ToLower(e.Message), q) {
			results = append(results, e)
			if count > 0 && len(results) >= count {
				break
			}
		}
	}
	return results, nil
}

// Clear removes the journal.
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	err := os.Remove(j.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
