// Package worker provides an asynchronous worker pool that records answered
// prompts into conversational memory and publishes answer events.
//
// The pool decouples memory writes from the request path so a slow or
// failing memory backend never delays or fails an answer.
package worker

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/gridiron/pkg/eventstream"
	"github.com/papercomputeco/gridiron/pkg/memory"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 30 * time.Second
)

// Job is one answered prompt to record.
type Job struct {
	ActorID   string
	SessionID string
	Prompt    string
	Answer    string

	Provider   string
	Model      string
	StopReason string
	ToolsUsed  []string
	Streaming  bool

	StartedAt   time.Time
	CompletedAt time.Time
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Memory receives the USER and ASSISTANT turns.
	Memory *memory.Client

	// Publisher is the optional answer event publisher.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the total job capacity across workers (defaults to 256).
	QueueSize uint

	// JobTimeout bounds the memory write and publish of a single job.
	JobTimeout time.Duration

	Logger *slog.Logger
}

// Pool processes recording jobs asynchronously. Each worker owns a queue and
// every job of a session goes to the same worker, so a session's turns are
// appended in the order its answers were enqueued.
type Pool struct {
	config *Config
	queues []chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queues: make([]chan Job, c.NumWorkers),
		logger: c.Logger,
	}

	laneSize := max(1, (c.QueueSize+c.NumWorkers-1)/c.NumWorkers)
	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		wp.queues[i] = make(chan Job, laneSize)
		go wp.worker(i, wp.queues[i])
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is
// closed, resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Warn("job not queued, pool closed",
			"actor_id", job.ActorID,
			"session_id", job.SessionID,
		)
		return false
	}

	select {
	case p.lane(job) <- job:
		p.logger.Debug("job queued",
			"actor_id", job.ActorID,
			"session_id", job.SessionID,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"actor_id", job.ActorID,
			"session_id", job.SessionID,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// lane picks the queue owned by the worker for job's session.
func (p *Pool) lane(job Job) chan Job {
	h := fnv.New32a()
	_, _ = h.Write([]byte(job.ActorID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(job.SessionID))
	return p.queues[h.Sum32()%uint32(len(p.queues))]
}

// worker is the inner worker thread that continuously pulls jobs off its queue
func (p *Pool) worker(id uint, queue <-chan Job) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob appends the turn pair to memory, then publishes an answer
// event describing the outcome.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	turns := []memory.Turn{
		{Role: memory.RoleUser, Content: job.Prompt, ActorID: job.ActorID, SessionID: job.SessionID, CreatedAt: job.StartedAt},
		{Role: memory.RoleAssistant, Content: job.Answer, ActorID: job.ActorID, SessionID: job.SessionID, CreatedAt: job.CompletedAt},
	}

	eventID, recorded := p.config.Memory.AppendTurns(ctx, job.ActorID, job.SessionID, turns)
	if recorded {
		p.logger.Info("stored conversation in memory",
			"actor_id", job.ActorID,
			"session_id", job.SessionID,
			"event_id", eventID,
		)
	}

	if p.config.Publisher == nil {
		return
	}

	event := eventstream.NewAnswerRecordedEvent(time.Now())
	event.Source = eventstream.EventSource{
		ActorID:   job.ActorID,
		SessionID: job.SessionID,
		Provider:  job.Provider,
		Model:     job.Model,
	}
	event.RequestMeta = eventstream.AnswerMeta{
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		DurationMs:  job.CompletedAt.Sub(job.StartedAt).Milliseconds(),
		Streaming:   job.Streaming,
		StopReason:  job.StopReason,
		ToolsUsed:   job.ToolsUsed,
	}
	event.Memory = eventstream.MemoryMeta{Recorded: recorded, EventID: eventID}
	event.Answer = eventstream.AnswerPayload{Prompt: job.Prompt, Response: job.Answer}

	if err := p.config.Publisher.PublishAnswer(ctx, event); err != nil {
		p.logger.Warn("failed to publish answer event",
			"actor_id", job.ActorID,
			"event_id", event.EventID,
			"error", err,
		)
	}
}
