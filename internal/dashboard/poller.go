package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Poller keeps a cached AdminData fresh by re-running the reconciler on an
// interval. Each refresh carries a sequence number; a slow fetch that
// completes after a newer one started is discarded instead of overwriting
// fresher data.
type Poller struct {
	reconciler *Reconciler
	interval   time.Duration
	logger     *zap.Logger

	mu       sync.RWMutex
	latest   *AdminData
	sequence uint64
	applied  uint64

	stop chan struct{}
	once sync.Once
}

// NewPoller creates a poller; call Start to begin refreshing.
func NewPoller(reconciler *Reconciler, interval time.Duration, logger *zap.Logger) *Poller {
	if interval == 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger,
		stop:       make(chan struct{}),
	}
}

// Start runs an immediate refresh and then refreshes on the interval until
// Stop is called.
func (p *Poller) Start() {
	go func() {
		p.refresh()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.refresh()
			case <-p.stop:
				return
			}
		}
	}()
}

// Stop halts the refresh loop.
func (p *Poller) Stop() {
	p.once.Do(func() { close(p.stop) })
}

// Latest returns the most recent reconciled data, or nil before the first
// refresh completes.
func (p *Poller) Latest() *AdminData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

func (p *Poller) refresh() {
	p.mu.Lock()
	p.sequence++
	seq := p.sequence
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	data := p.reconciler.FetchAdminData(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq < p.applied {
		p.logger.Debug("Discarding stale dashboard refresh", zap.Uint64("sequence", seq))
		return
	}
	p.applied = seq
	p.latest = data
}
