package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/geobot/core/logger"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the lane is saturated and an unkeyed job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	errNilRun = errors.New("telegram sender: nil run function")
)

const component = "tg.sender"

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

func (j job) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("op", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}

// Dispatcher executes outbound Telegram calls on worker goroutines with retries.
// Every worker owns a lane; jobs sharing a key always land on the same lane
// and therefore run in submission order.
type Dispatcher struct {
	opts  Options
	lanes []chan job
	next  atomic.Uint64
	errs  atomic.Uint64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts the workers. Zero options fall back to defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	opts.MaxRetries = max(opts.MaxRetries, 0)
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{opts: opts, lanes: make([]chan job, opts.Workers)}
	depth := max(opts.QueueSize/opts.Workers, 1)
	d.wg.Add(opts.Workers)
	for i := range d.lanes {
		d.lanes[i] = make(chan job, depth)
		go d.work(d.lanes[i])
	}
	return d
}

// Enqueue schedules run on the next lane in rotation.
// run must be idempotent if retries are desired.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	n := d.next.Add(1)
	return d.push(int(n%uint64(len(d.lanes))), job{ctx: ctx, action: action, endpoint: endpoint, run: run}, false)
}

// EnqueueKeyed schedules run behind every earlier job with the same key.
// When the lane is full it waits for room until ctx is done.
func (d *Dispatcher) EnqueueKeyed(ctx context.Context, key int64, action, endpoint string, run func() error) error {
	return d.push(int(uint64(key)%uint64(len(d.lanes))), job{ctx: ctx, action: action, endpoint: endpoint, run: run}, true)
}

// push holds the read lock while waiting, so Close cannot close the lane
// under a blocked sender. The workers keep draining meanwhile.
func (d *Dispatcher) push(lane int, j job, wait bool) error {
	if j.run == nil {
		return errNilRun
	}
	if j.ctx == nil {
		j.ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	if !wait {
		select {
		case d.lanes[lane] <- j:
			return nil
		default:
			return ErrQueueFull
		}
	}
	select {
	case d.lanes[lane] <- j:
		return nil
	case <-j.ctx.Done():
		return j.ctx.Err()
	}
}

// ErrorCount returns the number of jobs that finally failed.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close rejects new jobs, drains the lanes and waits for the workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, lane := range d.lanes {
		close(lane)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) work(lane <-chan job) {
	defer d.wg.Done()
	for j := range lane {
		d.execute(j)
	}
}

func (d *Dispatcher) execute(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts, err := d.attempt(ctx, j)
	took := logger.RoundMS(time.Since(start))

	attrs := append(j.attrs(), slog.Int("attempts", attempts), slog.Duration("duration", took))
	if err == nil {
		if attempts > 1 {
			logger.Info(j.ctx, component, "send.retry.success", attrs...)
		} else {
			logger.Debug(j.ctx, component, "send.success", attrs...)
		}
		return
	}
	d.errs.Add(1)
	logger.Error(j.ctx, component, "send.fail", append(attrs,
		slog.String("status", "fail"),
		slog.String("err", redact(err)),
		slog.String("err_code", classify(err)),
	)...)
}

// attempt runs j until it succeeds, fails permanently, runs out of
// retries or ctx expires. It returns the number of calls made.
func (d *Dispatcher) attempt(ctx context.Context, j job) (int, error) {
	limit := d.opts.MaxRetries + 1
	for n := 1; ; n++ {
		err := j.run()
		if err == nil {
			return n, nil
		}
		wait, retry := retryDelay(err, d.opts.RetryBackoff*time.Duration(n))
		if !retry || n == limit {
			return n, err
		}
		logger.Debug(j.ctx, component, "send.retry.backoff", append(j.attrs(),
			slog.Int("attempts", n),
			slog.Duration("backoff", wait),
			slog.String("err_code", classify(err)),
		)...)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return n, errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}
