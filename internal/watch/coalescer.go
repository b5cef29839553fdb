package watch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/build"
	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// BuildFunc runs one full build.
type BuildFunc func(ctx context.Context, trigger build.Trigger)

// Request is one rebuild trigger.
type Request struct {
	Trigger build.Trigger
	Path    string
	At      time.Time
	// Immediate skips the quiet window when no build is running.
	Immediate bool
}

// CoalescerConfig tunes debouncing.
type CoalescerConfig struct {
	QuietWindow time.Duration
	MaxDelay    time.Duration
}

// Coalescer folds rebuild requests into serialized builds. Run owns all
// scheduling state; Request may be called from any goroutine.
type Coalescer struct {
	cfg    CoalescerConfig
	runner *Runner
	logger *slog.Logger

	reqCh     chan Request
	doneCh    chan struct{}
	readyOnce sync.Once
	ready     chan struct{}

	// loop-owned state
	pending      bool
	firstAt      time.Time
	requestCount int
	trigger      build.Trigger
	lastPath     string
}

// NewCoalescer validates cfg and returns a Coalescer that runs builds through runner.
func NewCoalescer(cfg CoalescerConfig, runner *Runner, logger *slog.Logger) (*Coalescer, error) {
	if runner == nil {
		return nil, ferrors.ValidationError("runner is required").Build()
	}
	if cfg.QuietWindow <= 0 {
		return nil, ferrors.ValidationError("quiet window must be > 0").Build()
	}
	if cfg.MaxDelay <= 0 {
		return nil, ferrors.ValidationError("max delay must be > 0").Build()
	}
	if cfg.MaxDelay < cfg.QuietWindow {
		cfg.MaxDelay = cfg.QuietWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coalescer{
		cfg:    cfg,
		runner: runner,
		logger: logger,
		reqCh:  make(chan Request, 64),
		doneCh: make(chan struct{}),
		ready:  make(chan struct{}),
	}, nil
}

// Ready is closed once Run is accepting requests.
func (c *Coalescer) Ready() <-chan struct{} {
	return c.ready
}

// Request asks for a rebuild. It never blocks; a full queue already
// guarantees a pending build.
func (c *Coalescer) Request(trigger build.Trigger, path string) {
	select {
	case c.reqCh <- Request{Trigger: trigger, Path: path, At: time.Now()}:
	default:
	}
}

// RequestNow asks for a build that starts without debouncing. A request that
// arrives while a build runs still becomes the single follow-up.
func (c *Coalescer) RequestNow(trigger build.Trigger) {
	select {
	case c.reqCh <- Request{Trigger: trigger, At: time.Now(), Immediate: true}:
	default:
	}
}

// Run processes requests until ctx is done, then waits for an in-flight
// build to finish. Pending requests that never started are dropped.
func (c *Coalescer) Run(ctx context.Context) error {
	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()
	var (
		quietC  <-chan time.Time
		maxC    <-chan time.Time
		running bool
	)

	c.readyOnce.Do(func() { close(c.ready) })

	start := func(cause string) {
		quietC, maxC = nil, nil
		stopTimer(quietTimer)
		stopTimer(maxTimer)
		if !c.pending {
			return
		}
		trigger, count, path, waited := c.trigger, c.requestCount, c.lastPath, time.Since(c.firstAt)
		c.pending = false
		c.requestCount = 0
		c.trigger = ""
		running = true

		c.logger.Info("Rebuilding",
			logfields.Trigger(string(trigger)),
			logfields.Count(count),
			logfields.Path(path),
			"cause", cause,
			"waited", waited.Round(time.Millisecond))

		// in-flight builds finish even when the loop is shutting down
		bctx := context.WithoutCancel(ctx)
		go func() {
			defer func() { c.doneCh <- struct{}{} }()
			c.runner.Run(bctx, trigger)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			if running {
				c.logger.Info("Waiting for running build to finish")
				<-c.doneCh
			}
			return nil

		case req := <-c.reqCh:
			first := c.onRequest(req)
			if running {
				// collapsed into one follow-up, started when the build ends
				continue
			}
			if req.Immediate {
				start("immediate")
				continue
			}
			resetTimer(quietTimer, c.cfg.QuietWindow)
			quietC = quietTimer.C
			if first {
				resetTimer(maxTimer, c.cfg.MaxDelay)
				maxC = maxTimer.C
			}

		case <-quietC:
			start("quiet")

		case <-maxC:
			start("max_delay")

		case <-c.doneCh:
			running = false
			if c.pending {
				start("after_running")
			}
		}
	}
}

// onRequest records req and reports whether it opened a new burst.
func (c *Coalescer) onRequest(req Request) bool {
	first := !c.pending
	if first {
		c.pending = true
		c.firstAt = req.At
		c.requestCount = 0
		c.trigger = req.Trigger
	}
	// a file change outranks a scheduled tick
	if req.Trigger == build.TriggerChange {
		c.trigger = build.TriggerChange
	}
	c.requestCount++
	c.lastPath = req.Path
	return first
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	stopTimer(t)
	return t
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, after time.Duration) {
	stopTimer(t)
	t.Reset(after)
}

// Runner runs builds one at a time.
type Runner struct {
	mu      sync.Mutex
	running atomic.Bool
	builds  atomic.Int64
	fn      BuildFunc
}

// NewRunner wraps fn.
func NewRunner(fn BuildFunc) *Runner {
	return &Runner{fn: fn}
}

// Run executes one build, waiting for any build already running.
func (r *Runner) Run(ctx context.Context, trigger build.Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running.Store(true)
	defer r.running.Store(false)
	r.builds.Add(1)
	r.fn(ctx, trigger)
}

// Running reports whether a build is in progress.
func (r *Runner) Running() bool { return r.running.Load() }

// Builds returns how many builds have started.
func (r *Runner) Builds() int64 { return r.builds.Load() }
