package accesslog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// ServerName identifies the product in the file header.
const ServerName = "File System API"

// MaxRetentionDays is the longest retention PruneOlderThan computes a
// cutoff for. Longer periods keep every record.
const MaxRetentionDays = 1 << 20

// ErrMalformedRecord is reported for records that would not parse back
// to the same fields.
var ErrMalformedRecord = errors.New("malformed record")

// Engine owns one access log file.
//
// Thread-safety model:
//   - Append, PruneOlderThan: exclusive (write lock)
//   - ReadAll, Statistics, Filter, Search, Export: shared (read lock)
type Engine struct {
	mu        sync.RWMutex
	fs        afero.Fs
	path      string
	clock     Clock
	observers []Observer
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFs sets the filesystem holding the log file.
//
// Default: the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(e *Engine) {
		e.fs = fsys
	}
}

// WithClock sets the clock used for record timestamps and pruning cutoffs.
//
// Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithObserver registers an observer for append outcomes. May be repeated.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// WithLogger sets the process logger.
//
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New opens the log file at path, creating it with a header when absent.
// An existing file is left untouched.
func New(path string, opts ...Option) (*Engine, error) {
	e := &Engine{
		fs:     afero.NewOsFs(),
		path:   filepath.Clean(path),
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.initialize(); err != nil {
		return nil, err
	}
	return e, nil
}

// initialize probes for the file and writes the header if it is missing.
func (e *Engine) initialize() error {
	info, err := e.fs.Stat(e.path)
	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("log path %s is a directory", e.path)
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("probe log file: %w", err)
	}

	if err := e.fs.MkdirAll(filepath.Dir(e.path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := e.fs.OpenFile(e.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, fs.ErrExist) {
		// Created concurrently by another process; theirs has the header.
		return nil
	}
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	if _, err := f.WriteString(e.header()); err != nil {
		f.Close()
		return fmt.Errorf("write log header: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write log header: %w", err)
	}
	e.logger.Info("access log created", "path", e.path)
	return nil
}

func (e *Engine) header() string {
	return "=== SISTEMA DE LOGS ===\n" +
		"= Fecha de inicio: " + FormatTimestamp(e.clock.Now()) + "\n" +
		"= Servidor: " + ServerName + "\n" +
		"========================================\n" +
		"\n"
}

// Path returns the log file path.
func (e *Engine) Path() string {
	return e.path
}

// Append records one request. Failures are reported to observers and the
// process logger, never to the caller.
func (e *Engine) Append(method, url, extra string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := Record{
		Timestamp: FormatTimestamp(e.clock.Now()),
		Method:    method,
		URL:       url,
		Extra:     extra,
	}
	var err error
	if !r.WellFormed() {
		err = fmt.Errorf("%w: method %q url %q", ErrMalformedRecord, method, url)
	} else {
		err = e.appendLine(FormatLine(r))
	}
	if err != nil {
		err = fmt.Errorf("append log entry: %w", err)
		e.logger.Error("access log append failed", "method", method, "url", url, "error", err)
		for _, o := range e.observers {
			o.Failed(err)
		}
		return
	}

	e.logger.Debug("access log entry recorded", "method", method, "url", url)
	for _, o := range e.observers {
		o.Recorded(r)
	}
}

func (e *Engine) appendLine(line string) error {
	f, err := e.fs.OpenFile(e.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Snapshot is the verbatim content of the log file.
type Snapshot struct {
	File    string `json:"file"`
	Content string `json:"content"`
	ReadAt  string `json:"readAt"`
}

// ReadAll returns the full current file content.
func (e *Engine) ReadAll() (*Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	content, err := e.read()
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		File:    filepath.Base(e.path),
		Content: content,
		ReadAt:  FormatTimestamp(e.clock.Now()),
	}, nil
}

// PruneOlderThan removes data lines whose timestamp is older than days
// before now and returns how many were removed. Header lines, blank lines
// and lines without a parseable leading timestamp are kept.
//
// The file is rewritten through a temporary file and a rename: either the
// new content replaces the file entirely or the old file is left as it was.
//
// days must not be negative. Beyond MaxRetentionDays nothing is removed.
func (e *Engine) PruneOlderThan(days int) (int, error) {
	if days < 0 {
		return 0, fmt.Errorf("retention days must not be negative, got %d", days)
	}
	if days > MaxRetentionDays {
		return 0, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	content, err := e.read()
	if err != nil {
		return 0, err
	}
	cutoff := e.clock.Now().AddDate(0, 0, -days)

	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	removed := 0
	for _, line := range lines {
		if !IsDataLine(line) {
			kept = append(kept, line)
			continue
		}
		ts, _, ok := splitTimestamp(line)
		if ok {
			if t, err := ParseTime(ts); err == nil && t.Before(cutoff) {
				removed++
				continue
			}
		}
		kept = append(kept, line)
	}

	if removed == 0 {
		return 0, nil
	}
	if err := e.replace(strings.Join(kept, "\n")); err != nil {
		return 0, err
	}
	e.logger.Info("access log pruned", "days", days, "removed", removed)
	return removed, nil
}

// read returns the whole file. Callers hold e.mu.
func (e *Engine) read() (string, error) {
	data, err := afero.ReadFile(e.fs, e.path)
	if err != nil {
		return "", fmt.Errorf("read log file: %w", err)
	}
	return string(data), nil
}

// dataLines returns the data lines of the file in order. Callers hold e.mu.
func (e *Engine) dataLines() ([]string, error) {
	content, err := e.read()
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if IsDataLine(line) {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// replace atomically swaps the file content. Callers hold e.mu.
func (e *Engine) replace(content string) error {
	tmp, err := afero.TempFile(e.fs, filepath.Dir(e.path), "."+filepath.Base(e.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp log file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		e.fs.Remove(tmpName)
		return fmt.Errorf("write temp log file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		e.fs.Remove(tmpName)
		return fmt.Errorf("write temp log file: %w", err)
	}
	if err := e.fs.Rename(tmpName, e.path); err != nil {
		e.fs.Remove(tmpName)
		return fmt.Errorf("replace log file: %w", err)
	}
	return nil
}
