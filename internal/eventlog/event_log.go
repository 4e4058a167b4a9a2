package eventlog

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	EventBufferSize      = 1024                   // Ring buffer size
	DefaultMaxPerSec     = 10000                  // Global rate limit
	DefaultMaxPerPlayer  = 100                    // Per-player rate limit per second
	BatchFlushSize       = 64                     // Events per batch write
	BatchFlushInterval   = 100 * time.Millisecond // How often to flush
	PlayerLimiterCleanup = 5 * time.Minute        // Cleanup interval for player limiters
	SinkTimeout          = 2 * time.Second        // Per-batch sink deadline
)

// Emitter accepts events. Implementations must not block.
type Emitter interface {
	Emit(event Event) bool
}

// Sink receives every flushed batch, in sequence order
type Sink interface {
	Publish(ctx context.Context, batch []Event) error
}

// Options configures an EventLog
type Options struct {
	Path               string // Empty disables the file output
	MaxEventsPerSec    int
	MaxEventsPerPlayer int
	Sinks              []Sink
}

// EventLog provides bounded, rate-limited event logging with backpressure
type EventLog struct {
	// Ring buffer; oldest events are overwritten when full
	mu        sync.Mutex
	buffer    [EventBufferSize]Event
	writeHead uint64 // next sequence to assign
	readHead  uint64 // next sequence to flush

	globalLimiter  *rate.Limiter
	playerLimit    int
	playerLimiters sync.Map // map[engine.PlayerID]*playerLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex
	sinks    []Sink

	log *zap.SugaredLogger

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
	sinkErrors   uint64 // atomic
}

type playerLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nano
}

// New creates a new bounded event log
func New(opts Options, logger *zap.Logger) *EventLog {
	if opts.MaxEventsPerSec <= 0 {
		opts.MaxEventsPerSec = DefaultMaxPerSec
	}
	if opts.MaxEventsPerPlayer <= 0 {
		opts.MaxEventsPerPlayer = DefaultMaxPerPlayer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EventLog{
		globalLimiter: rate.NewLimiter(rate.Limit(opts.MaxEventsPerSec), burst(opts.MaxEventsPerSec)),
		playerLimit:   opts.MaxEventsPerPlayer,
		stopChan:      make(chan struct{}),
		filePath:      opts.Path,
		sinks:         opts.Sinks,
		log:           logger.Sugar().Named("eventlog"),
	}
}

func burst(perSec int) int {
	if b := perSec / 10; b > 0 {
		return b
	}
	return 1
}

// Start opens the output file and begins the async writer goroutines
func (el *EventLog) Start() error {
	if el.running.Load() {
		return nil
	}

	if el.filePath != "" {
		file, err := os.OpenFile(el.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()

	el.log.Infow("Event log started", "path", el.filePath, "sinks", len(el.sinks))
	return nil
}

// Stop flushes pending events and closes the output file
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			if err := el.file.Close(); err != nil {
				el.log.Warnw("Closing event log file failed", "error", err)
			}
			el.file = nil
		}
		el.fileMu.Unlock()
	})
}

// Emit adds an event with rate limiting.
// Returns false if the log is stopped or the event was rate limited.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	if event.PlayerID != 0 {
		if !el.playerLimiter(event).Allow() {
			atomic.AddUint64(&el.droppedCount, 1)
			return false
		}
	}

	el.mu.Lock()
	el.writeHead++
	event.Sequence = el.writeHead
	if el.writeHead-el.readHead > EventBufferSize {
		// Overwrite the oldest unflushed event
		el.readHead++
		atomic.AddUint64(&el.droppedCount, 1)
	}
	el.buffer[event.Sequence%EventBufferSize] = event
	el.mu.Unlock()

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

func (el *EventLog) playerLimiter(event Event) *rate.Limiter {
	now := time.Now().UnixNano()
	if entry, ok := el.playerLimiters.Load(event.PlayerID); ok {
		e := entry.(*playerLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &playerLimiterEntry{
		limiter: rate.NewLimiter(rate.Limit(el.playerLimit), burst(el.playerLimit)),
	}
	entry.lastUsed.Store(now)
	actual, _ := el.playerLimiters.LoadOrStore(event.PlayerID, entry)
	return actual.(*playerLimiterEntry).limiter
}

// writerLoop batches and writes events asynchronously
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)

	for {
		select {
		case <-el.stopChan:
			// Drain everything still buffered
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}

		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// cleanupLoop removes stale player limiters to prevent memory leak
func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(PlayerLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupPlayerLimiters(time.Now().Add(-PlayerLimiterCleanup))
		}
	}
}

func (el *EventLog) cleanupPlayerLimiters(cutoff time.Time) {
	el.playerLimiters.Range(func(key, value interface{}) bool {
		entry := value.(*playerLimiterEntry)
		if entry.lastUsed.Load() < cutoff.UnixNano() {
			el.playerLimiters.Delete(key)
		}
		return true
	})
}

// collectBatch reads available events from the ring buffer
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	for el.readHead < el.writeHead && len(batch) < BatchFlushSize {
		el.readHead++
		batch = append(batch, el.buffer[el.readHead%EventBufferSize])
	}
	return batch
}

// flushBatch appends newline-delimited JSON and hands the batch to sinks
func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	if el.file != nil {
		for _, event := range batch {
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			data = append(data, '\n')
			if _, err := el.file.Write(data); err != nil {
				el.log.Warnw("Event log write failed", "error", err)
				break
			}
		}
	}
	el.fileMu.Unlock()

	for _, sink := range el.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), SinkTimeout)
		if err := sink.Publish(ctx, batch); err != nil {
			atomic.AddUint64(&el.sinkErrors, 1)
			el.log.Warnw("Event sink publish failed", "error", err, "events", len(batch))
		}
		cancel()
	}
}

// Stats is a point-in-time view of the event log counters
type Stats struct {
	Total      uint64 `json:"total"`
	Dropped    uint64 `json:"dropped"`
	Pending    uint64 `json:"pending"`
	SinkErrors uint64 `json:"sinkErrors"`
	Running    bool   `json:"running"`
}

// GetStats returns counters for monitoring
func (el *EventLog) GetStats() Stats {
	el.mu.Lock()
	pending := el.writeHead - el.readHead
	el.mu.Unlock()

	return Stats{
		Total:      atomic.LoadUint64(&el.totalCount),
		Dropped:    atomic.LoadUint64(&el.droppedCount),
		Pending:    pending,
		SinkErrors: atomic.LoadUint64(&el.sinkErrors),
		Running:    el.running.Load(),
	}
}
