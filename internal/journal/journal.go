// Package journal appends console surface updates to date-partitioned JSONL
// files so an operator can replay what the console reported.
package journal

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgnsrekt/kite_console/internal/console"
)

const (
	defaultBuffer    = 256
	defaultMaxSizeMB = 25
	fileName         = "surfaces.jsonl"
)

var errClosed = errors.New("journal is closed")

// Writer is a console.Sink. Publish never blocks; updates that arrive while
// the buffer is full are dropped with a warning.
type Writer struct {
	dir       string
	maxSizeMB int
	now       func() time.Time

	updates chan console.Update
	done    chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	date   string
	out    *lumberjack.Logger
	closed bool
}

func New(dir string) *Writer {
	w := &Writer{
		dir:       dir,
		maxSizeMB: defaultMaxSizeMB,
		now:       time.Now,
		updates:   make(chan console.Update, defaultBuffer),
		done:      make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *Writer) Publish(u console.Update) {
	if err := w.enqueue(u); err != nil {
		slog.Warn("journal dropped surface update", "name", u.Name, "error", err)
	}
}

func (w *Writer) enqueue(u console.Update) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return errClosed
	}
	select {
	case w.updates <- u:
		return nil
	default:
		return errors.New("journal buffer full")
	}
}

// Close drains queued updates and closes the current file.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.out != nil {
		return w.out.Close()
	}
	return nil
}

func (w *Writer) loop() {
	defer w.wg.Done()
	for {
		select {
		case u := <-w.updates:
			w.write(u)
		case <-w.done:
			for {
				select {
				case u := <-w.updates:
					w.write(u)
				default:
					return
				}
			}
		}
	}
}

func (w *Writer) write(u console.Update) {
	data, err := json.Marshal(u)
	if err != nil {
		slog.Error("journal encode failed", "error", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	date := w.now().UTC().Format("2006-01-02")
	if w.out == nil || date != w.date {
		if err := w.open(date); err != nil {
			slog.Error("journal open failed", "dir", w.dir, "error", err)
			return
		}
	}
	if _, err := w.out.Write(append(data, '\n')); err != nil {
		slog.Error("journal write failed", "error", err)
	}
}

// open switches to <dir>/<date>/surfaces.jsonl. Caller holds mu.
func (w *Writer) open(date string) error {
	if w.out != nil {
		_ = w.out.Close()
		w.out = nil
	}
	dir := filepath.Join(w.dir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	w.out = &lumberjack.Logger{
		Filename:   filepath.Join(dir, fileName),
		MaxSize:    w.maxSizeMB,
		MaxBackups: 30,
		MaxAge:     30,
	}
	w.date = date
	slog.Debug("journal file opened", "file", w.out.Filename)
	return nil
}
