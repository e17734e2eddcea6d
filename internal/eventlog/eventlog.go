package eventlog

import (
	"sync"
	"time"

	"github.com/zrougamed/cerberus-watch/internal/logger"
	"github.com/zrougamed/cerberus-watch/internal/models"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DEFAULT_CAPACITY = 50

// Log is safe for concurrent use. Entries are keyed by an increasing
// sequence number and never read through Get, so the LRU's eviction order
// is insertion order.
type Log struct {
	mu       sync.Mutex
	entries  *lru.Cache[uint64, models.LogEntry]
	capacity int
	seq      uint64
	now      func() time.Time
	logger   *logger.Logger
}

func New(capacity int) (*Log, error) {
	if capacity < 1 {
		capacity = DEFAULT_CAPACITY
	}

	entries, err := lru.New[uint64, models.LogEntry](capacity)
	if err != nil {
		return nil, err
	}

	return &Log{
		entries:  entries,
		capacity: capacity,
		now:      time.Now,
		logger:   logger.NewLogger("EventLog"),
	}, nil
}

// SetClock replaces the timestamp source.
func (l *Log) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Append records message at the head of the log. An empty severity means info.
func (l *Log) Append(message string, severity models.Severity) models.LogEntry {
	if severity == "" {
		severity = models.SeverityInfo
	}

	l.mu.Lock()
	l.seq++
	entry := models.LogEntry{
		Seq:       l.seq,
		Timestamp: l.now(),
		Message:   message,
		Severity:  severity,
	}
	l.entries.Add(entry.Seq, entry)
	l.mu.Unlock()

	switch severity {
	case models.SeverityError:
		l.logger.Errorf("%s", message)
	case models.SeverityWarning:
		l.logger.Warnf("%s", message)
	default:
		l.logger.Infof("%s", message)
	}

	return entry
}

// Entries returns a copy of the log, most recent first.
func (l *Log) Entries() []models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys := l.entries.Keys()
	out := make([]models.LogEntry, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if entry, ok := l.entries.Peek(keys[i]); ok {
			out = append(out, entry)
		}
	}
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries.Len()
}

// Capacity returns the maximum number of retained entries.
func (l *Log) Capacity() int {
	return l.capacity
}
