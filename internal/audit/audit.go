// Package audit records executed vector queries without ever slowing down
// or failing the search that produced them.
package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/recipesearch/internal/storage"
)

// DefaultBufferSize is the number of pending entries a Recorder holds.
const DefaultBufferSize = 256

// Entry describes one vector query.
type Entry struct {
	QueryText      string
	QueryEmbedding []float32
	Mode           string
	Scores         []float64 // vector scores of the returned items
	ExecutionTime  time.Duration
}

// Writer persists audit rows. storage.Storage satisfies it.
type Writer interface {
	RecordVectorSearch(ctx context.Context, entry *storage.VectorSearchLog) error
}

// Recorder queues entries on a buffered channel and writes them from a
// single background goroutine. Record never blocks: when the buffer is
// full the entry is dropped.
type Recorder struct {
	writer  Writer
	logger  *zap.Logger
	timeout time.Duration

	entries chan Entry
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	dropped atomic.Int64
	failed  atomic.Int64
	written atomic.Int64
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger used for write failures.
func WithLogger(l *zap.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithBufferSize sets the queue capacity.
func WithBufferSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.entries = make(chan Entry, n)
		}
	}
}

// WithWriteTimeout bounds each row write.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRecorder starts the background writer. Call Close to flush and stop it.
func NewRecorder(w Writer, opts ...Option) *Recorder {
	r := &Recorder{
		writer:  w,
		logger:  zap.NewNop(),
		timeout: 5 * time.Second,
		entries: make(chan Entry, DefaultBufferSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

// Record queues e for writing.
func (r *Recorder) Record(e Entry) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.entries <- e:
	default:
		r.dropped.Add(1)
	}
}

// Close stops accepting entries and waits for queued ones to be written.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.entries)
	r.mu.Unlock()

	<-r.done
	return nil
}

// Stats reports how many entries were written, failed and dropped.
func (r *Recorder) Stats() (written, failed, dropped int64) {
	return r.written.Load(), r.failed.Load(), r.dropped.Load()
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.entries {
		r.write(e)
	}
}

func (r *Recorder) write(e Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	row := NewLog(e)
	if err := r.writer.RecordVectorSearch(ctx, row); err != nil {
		r.failed.Add(1)
		r.logger.Debug("audit write failed",
			zap.String("mode", e.Mode),
			zap.Error(err))
		return
	}
	r.written.Add(1)
}

// NewLog converts e into a storage row with a fresh id and score summary.
func NewLog(e Entry) *storage.VectorSearchLog {
	row := &storage.VectorSearchLog{
		ID:             uuid.NewString(),
		QueryText:      e.QueryText,
		QueryEmbedding: e.QueryEmbedding,
		Mode:           e.Mode,
		ResultCount:    len(e.Scores),
		ExecutionTime:  e.ExecutionTime,
		CreatedAt:      time.Now(),
	}
	if len(e.Scores) == 0 {
		return row
	}

	row.MaxSimilarity, row.MinSimilarity = e.Scores[0], e.Scores[0]
	var sum float64
	for _, s := range e.Scores {
		if s > row.MaxSimilarity {
			row.MaxSimilarity = s
		}
		if s < row.MinSimilarity {
			row.MinSimilarity = s
		}
		sum += s
	}
	row.AvgSimilarity = sum / float64(len(e.Scores))
	return row
}
