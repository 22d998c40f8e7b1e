package app

import (
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2/data/binding"
)

const logDebounceInterval = 150 * time.Millisecond

// logCapture keeps the last lines written by the logger and pushes them to a
// binding at most once per debounce interval.
type logCapture struct {
	mu      sync.Mutex
	lines   []string
	limit   int
	binding binding.String

	updateCh chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newLogCapture(b binding.String, limit int) *logCapture {
	return &logCapture{
		binding:  b,
		limit:    limit,
		updateCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

func (l *logCapture) Write(p []byte) (int, error) {
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	l.mu.Lock()
	for _, part := range strings.Split(text, "\n") {
		if part == "" {
			continue
		}
		l.lines = append(l.lines, part)
	}
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
	l.mu.Unlock()

	select {
	case l.updateCh <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Sync flushes pending lines to the binding.
func (l *logCapture) Sync() error {
	l.flush()
	return nil
}

func (l *logCapture) start() {
	go l.loop()
}

func (l *logCapture) stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *logCapture) loop() {
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-l.stopCh:
			timer.Stop()
			l.flush()
			return
		case <-l.updateCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			l.flush()
		}
	}
}

func (l *logCapture) flush() {
	l.mu.Lock()
	text := strings.Join(l.lines, "\n")
	l.mu.Unlock()
	_ = l.binding.Set(text)
}

func (l *logCapture) text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}
