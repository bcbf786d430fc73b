package document

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// PoolConfig configures the headless-browser pool.
type PoolConfig struct {
	Size          int           // max browsers alive at once
	IdleTimeout   time.Duration // recycle browsers idle longer than this
	HealthTimeout time.Duration // deadline for the per-acquire health probe
	ExecPath      string        // optional chrome binary path
}

// DefaultPoolConfig returns pool defaults sized for a single back-office
// instance.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Size:          2,
		IdleTimeout:   5 * time.Minute,
		HealthTimeout: 5 * time.Second,
	}
}

// Lease is an exclusive claim on one browser. A lease is used by one render
// at a time and must be handed back with Release.
type Lease struct {
	browserCtx  context.Context
	cancelOwner context.CancelFunc // cancels allocator and browser together
	lastUsed    time.Time
}

// Ctx returns the browser tab context render actions run against.
func (l *Lease) Ctx() context.Context {
	return l.browserCtx
}

func (l *Lease) close() {
	l.cancelOwner()
}

// Pool hands out exclusive browser leases. Browser startup cost dominates
// render latency, so instances are reused across requests; they are
// recycled when idle too long, when the health probe fails, or when a
// render times out on them.
type Pool struct {
	cfg    PoolConfig
	logger *zap.Logger

	slots chan struct{} // counting semaphore, capacity = cfg.Size
	mu    sync.Mutex
	idle  []*Lease
	done  bool
}

// NewPool creates the pool. Browsers are launched lazily on first acquire.
func NewPool(cfg PoolConfig, logger *zap.Logger) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	slots := make(chan struct{}, cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		slots <- struct{}{}
	}
	return &Pool{cfg: cfg, logger: logger, slots: slots}
}

// Acquire returns an exclusive lease, reusing a healthy idle browser or
// launching a fresh one. Failure to obtain a working browser is reported as
// ErrRenderBackendUnavailable.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case <-p.slots:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrRenderBackendUnavailable, ctx.Err())
	}

	for {
		lease := p.popIdle()
		if lease == nil {
			break
		}
		if time.Since(lease.lastUsed) > p.cfg.IdleTimeout {
			p.logger.Debug("Recycling idle browser")
			lease.close()
			continue
		}
		if err := p.healthCheck(lease); err != nil {
			p.logger.Warn("Discarding unhealthy browser", zap.Error(err))
			lease.close()
			continue
		}
		return lease, nil
	}

	lease, err := p.launch()
	if err != nil {
		p.slots <- struct{}{}
		return nil, err
	}
	return lease, nil
}

// Release returns the lease to the pool. A damaged lease (timed-out or
// otherwise suspect render) is closed instead of being reused.
func (p *Pool) Release(lease *Lease, damaged bool) {
	defer func() { p.slots <- struct{}{} }()

	p.mu.Lock()
	closed := p.done
	p.mu.Unlock()

	if damaged || closed {
		lease.close()
		return
	}
	lease.lastUsed = time.Now()
	p.mu.Lock()
	p.idle = append(p.idle, lease)
	p.mu.Unlock()
}

// Ping verifies a browser can be acquired and responds; used by the health
// endpoint.
func (p *Pool) Ping(ctx context.Context) error {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	err = p.healthCheck(lease)
	p.Release(lease, err != nil)
	return err
}

// Close shuts down every idle browser. In-flight leases close on release.
func (p *Pool) Close() {
	p.mu.Lock()
	p.done = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, lease := range idle {
		lease.close()
	}
}

func (p *Pool) popIdle() *Lease {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle) == 0 {
		return nil
	}
	lease := p.idle[len(p.idle)-1]
	p.idle = p.idle[:len(p.idle)-1]
	return lease
}

func (p *Pool) launch() (*Lease, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if p.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.cfg.ExecPath))
	}

	parent, cancelOwner := context.WithCancel(context.Background())
	allocCtx, _ := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, _ := chromedp.NewContext(allocCtx)

	// Force the browser process to actually start before handing the
	// lease out.
	startCtx, cancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		cancelOwner()
		p.logger.Error("Failed to launch headless browser", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrRenderBackendUnavailable, err)
	}

	p.logger.Info("Headless browser launched")
	return &Lease{
		browserCtx:  browserCtx,
		cancelOwner: cancelOwner,
		lastUsed:    time.Now(),
	}, nil
}

func (p *Pool) healthCheck(lease *Lease) error {
	ctx, cancel := context.WithTimeout(lease.browserCtx, p.cfg.HealthTimeout)
	defer cancel()
	var ready bool
	if err := chromedp.Run(ctx, chromedp.Evaluate("true", &ready)); err != nil {
		return fmt.Errorf("browser health check failed: %w", err)
	}
	return nil
}
