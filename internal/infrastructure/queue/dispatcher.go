package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
	"github.com/mechanicapp/tracking-system/internal/metrics"
)

const (
	defaultWorkers = 8
	defaultBuffer  = 256
)

// Processor applies a single location event.
type Processor interface {
	Process(ctx context.Context, ev ports.LocationEvent) error
}

// Dispatcher routes location events to a fixed set of workers using consistent
// hashing on the job id, guaranteeing per-job event ordering.
type Dispatcher struct {
	workers   []chan ports.LocationEvent
	processor Processor
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers, each with a
// buffer of bufferSize events. Non-positive values fall back to the defaults.
func NewDispatcher(numWorkers, bufferSize int, processor Processor, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if bufferSize <= 0 {
		bufferSize = defaultBuffer
	}
	d := &Dispatcher{
		workers:   make([]chan ports.LocationEvent, numWorkers),
		processor: processor,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.LocationEvent, bufferSize)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue sends an event to the worker responsible for its job.
// The call blocks once that worker's buffer is full.
func (d *Dispatcher) Enqueue(ev ports.LocationEvent) {
	idx := d.shardIndex(ev.JobID)
	d.workers[idx] <- ev
	metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// EnqueueBatch enqueues multiple events preserving per-job ordering.
func (d *Dispatcher) EnqueueBatch(events []ports.LocationEvent) {
	for _, e := range events {
		d.Enqueue(e)
	}
}

// shardIndex maps a job id deterministically to a worker index.
func (d *Dispatcher) shardIndex(jobID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(jobID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.LocationEvent) {
	defer d.wg.Done()
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			d.handle(ctx, id, ev)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, id int, ev ports.LocationEvent) {
	start := time.Now()
	err := d.processor.Process(ctx, ev)

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStreamError):
		outcome = "stream_error"
		d.log.Warn().Err(err).Str("job_id", ev.JobID).Int("worker_id", id).Msg("tracking stream ended")
	default:
		outcome = "error"
		d.log.Error().Err(err).
			Str("job_id", ev.JobID).
			Str("source", ev.Source).
			Int("worker_id", id).
			Msg("location event processing failed")
	}
	metrics.EventProcessingDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
