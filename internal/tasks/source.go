// Package tasks provides the live task list: a JSONL-backed loader plus an
// fsnotify watch loop that republishes the list whenever the file changes.
// The module only consumes tasks, it never mutates them.
package tasks

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"

	"github.com/hmiyake/taskprefs/internal/events"
	"github.com/hmiyake/taskprefs/internal/logging"
	"github.com/hmiyake/taskprefs/internal/model"
)

const maxLineBytes = 1 << 20

type Source struct {
	path     string
	debounce time.Duration
	logger   *logging.Logger
	feed     *events.Feed[[]model.Task]
}

func NewSource(path string, debounce time.Duration, logger *logging.Logger) *Source {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &Source{
		path:     path,
		debounce: debounce,
		logger:   logger,
		feed:     events.NewFeed[[]model.Task](),
	}
}

// Load reads the task file, one JSON task per line. A missing file is an
// empty list. Malformed lines are skipped with a warning so one bad entry
// cannot take down the whole list.
func (s *Source) Load() ([]model.Task, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open task file: %w", err)
	}
	defer f.Close()

	var tasks []model.Task
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var task model.Task
		if err := json.Unmarshal(line, &task); err != nil {
			s.logger.Warnf("skipping malformed task at %s:%d: %v", s.path, lineNo, err)
			continue
		}
		tasks = append(tasks, task)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	return tasks, nil
}

// Subscribe returns a stream carrying the current task list immediately and
// a fresh list after every detected change.
func (s *Source) Subscribe() (<-chan []model.Task, func()) {
	if _, ok := s.feed.Latest(); !ok {
		tasks, err := s.Load()
		if err != nil {
			s.logger.Warnf("initial task load failed, starting empty: %v", err)
			tasks = nil
		}
		s.feed.Prime(tasks)
	}
	return s.feed.Subscribe()
}

// Close tears down the stream.
func (s *Source) Close() {
	s.feed.Close()
}

// Run watches the task file's directory and republishes the list on changes,
// debounced so editors that write in bursts trigger one reload. Blocks until
// the context is cancelled.
func (s *Source) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ensure task dir %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Publish the state as of watch start so subscribers never act on a list
	// that predates the watch.
	s.reload()

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				s.logger.Debugf("fsnotify event=%s file=%s", event.Op, event.Name)
				if debounce == nil {
					debounce = time.NewTimer(s.debounce)
					fire = debounce.C
				} else {
					if !debounce.Stop() {
						<-fire
					}
					debounce.Reset(s.debounce)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Errorf("fsnotify error=%v", err)
		case <-fire:
			debounce = nil
			fire = nil
			s.reload()
		}
	}
}

func (s *Source) reload() {
	tasks, err := s.Load()
	if err != nil {
		s.logger.Warnf("task reload failed, keeping last list: %v", err)
		return
	}
	s.feed.Publish(tasks)
}
