package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	filePrefix = "monitor-"
	// DefaultMaxFileSize caps one log file before a numbered sibling is opened.
	DefaultMaxFileSize int64 = 100 << 20
	// DefaultRetentionWeeks is how long old log files are kept.
	DefaultRetentionWeeks = 4

	cleanupInterval = 24 * time.Hour
)

var numberedFile = regexp.MustCompile(`^monitor-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingWriter writes to monitor-YYYY-Www.log, switching file every ISO
// week and whenever the size cap is reached (monitor-YYYY-Www_NN.log).
// Files older than the retention period are removed daily.
type RotatingWriter struct {
	dir       string
	retention time.Duration
	maxSize   int64
	now       func() time.Time

	mu   sync.Mutex
	file *os.File
	week string
	size int64

	stop chan struct{}
	done chan struct{}
}

// NewRotatingWriter opens the current week's file in dir.
func NewRotatingWriter(dir string, retentionWeeks int, maxSize int64) (*RotatingWriter, error) {
	if retentionWeeks <= 0 {
		retentionWeeks = DefaultRetentionWeeks
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	w.mu.Lock()
	err := w.rotate(weekKey(w.now()), false)
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go w.cleanupLoop()
	return w, nil
}

// weekKey formats t as YYYY-Www (ISO week).
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write appends p, rotating first when the week changed or p would not fit.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	week := weekKey(w.now())
	switch {
	case week != w.week:
		if err := w.rotate(week, false); err != nil {
			return 0, err
		}
	case w.size+int64(len(p)) > w.maxSize:
		if err := w.rotate(week, true); err != nil {
			return 0, err
		}
	}
	if w.file == nil {
		return 0, fmt.Errorf("no log file open")
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// rotate opens the file for week; full forces a new numbered file.
// Callers hold w.mu.
func (w *RotatingWriter) rotate(week string, full bool) error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
		}
		w.file = nil
	}

	name := w.pickFile(week, full)
	path := filepath.Join(w.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	w.file, w.week, w.size = f, week, 0
	if info, err := f.Stat(); err == nil {
		w.size = info.Size()
	}
	return nil
}

// pickFile returns the base file of the week while it has room, else the
// last numbered file with room, else the next numbered file.
func (w *RotatingWriter) pickFile(week string, full bool) string {
	base := filePrefix + week + ".log"
	if !full {
		info, err := os.Stat(filepath.Join(w.dir, base))
		if err != nil || info.Size() < w.maxSize {
			return base
		}
	}

	highest, lastSize := w.lastNumbered(week)
	if highest > 0 && lastSize < w.maxSize && !full {
		return fmt.Sprintf("%s%s_%02d.log", filePrefix, week, highest)
	}
	return fmt.Sprintf("%s%s_%02d.log", filePrefix, week, highest+1)
}

func (w *RotatingWriter) lastNumbered(week string) (int, int64) {
	matches, _ := filepath.Glob(filepath.Join(w.dir, filePrefix+week+"_??.log"))
	highest, size := 0, int64(0)
	for _, m := range matches {
		sub := numberedFile.FindStringSubmatch(filepath.Base(m))
		if sub == nil {
			continue
		}
		n, _ := strconv.Atoi(sub[1])
		if n <= highest {
			continue
		}
		highest = n
		if info, err := os.Stat(m); err == nil {
			size = info.Size()
		}
	}
	return highest, size
}

func (w *RotatingWriter) cleanupLoop() {
	defer close(w.done)
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			if _, err := w.Cleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "log cleanup: %v\n", err)
			}
		}
	}
}

// Cleanup removes log files last modified before the retention period and
// returns how many were deleted.
func (w *RotatingWriter) Cleanup() (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("reading log directory: %w", err)
	}

	cutoff := w.now().Add(-w.retention)
	deleted := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, name)); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

// Close stops the cleanup loop and closes the current file.
func (w *RotatingWriter) Close() error {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
