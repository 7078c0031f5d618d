// Package poller refreshes squads and backend health over REST,
// independently of the websocket.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Shinox-lab/dashboard/internal/common/logger"
	v1 "github.com/Shinox-lab/dashboard/pkg/api/v1"
)

// Initial-load errors shown until the first successful refresh.
const (
	ErrMsgUnreachable  = "Cannot connect to API Gateway. Please ensure it is running."
	ErrMsgSquadsFailed = "Failed to load squads. Is the API gateway running?"
)

// API is the part of the REST client the poller uses.
type API interface {
	IsHealthy(ctx context.Context) bool
	ListSquads(ctx context.Context, status string) ([]v1.Squad, error)
}

// Store is the part of *state.Store the poller writes to.
type Store interface {
	SetAPIConnected(connected bool)
	ReplaceSquads(squads []v1.Squad)
	SetLoadError(msg string)
}

// Options configures a Poller.
type Options struct {
	SquadInterval  time.Duration
	HealthInterval time.Duration
	StatusFilter   string
}

// Poller runs a full refresh (health, then squads) at start and every
// SquadInterval, and a health-only check every HealthInterval.
type Poller struct {
	api    API
	store  Store
	opts   Options
	logger *logger.Logger

	intervalCh chan struct{}

	mu              sync.Mutex
	initialDone     bool
	onSnapshot      func(squads []v1.Squad)
	pendingInterval time.Duration
}

// New creates a Poller.
func New(api API, store Store, opts Options, log *logger.Logger) *Poller {
	if opts.SquadInterval <= 0 {
		opts.SquadInterval = 30 * time.Second
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = 10 * time.Second
	}
	return &Poller{
		api:        api,
		store:      store,
		opts:       opts,
		logger:     log.WithFields(zap.String("component", "poller")),
		intervalCh: make(chan struct{}, 1),
	}
}

// OnSnapshot registers a callback run after every successful squad refresh.
func (p *Poller) OnSnapshot(fn func(squads []v1.Squad)) {
	p.mu.Lock()
	p.onSnapshot = fn
	p.mu.Unlock()
}

// SetRefreshInterval changes the squad refresh period. It never blocks and
// may be called before Run; the latest value wins.
func (p *Poller) SetRefreshInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.pendingInterval = d
	p.mu.Unlock()

	// a wake-up already queued will pick up the latest value
	select {
	case p.intervalCh <- struct{}{}:
	default:
	}
}

func (p *Poller) takeInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.pendingInterval
	p.pendingInterval = 0
	return d
}

// Run polls until ctx is done. Both timers are stopped on return.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started",
		zap.Duration("squad_interval", p.opts.SquadInterval),
		zap.Duration("health_interval", p.opts.HealthInterval))

	_ = p.Refresh(ctx)

	squadTicker := time.NewTicker(p.opts.SquadInterval)
	defer squadTicker.Stop()
	healthTicker := time.NewTicker(p.opts.HealthInterval)
	defer healthTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-p.intervalCh:
			if d := p.takeInterval(); d > 0 {
				squadTicker.Reset(d)
				p.logger.Info("squad refresh interval changed", zap.Duration("interval", d))
			}
		case <-squadTicker.C:
			_ = p.Refresh(ctx)
		case <-healthTicker.C:
			p.CheckHealth(ctx)
		}
	}
}

// CheckHealth updates the API indicator and returns it.
func (p *Poller) CheckHealth(ctx context.Context) bool {
	healthy := p.api.IsHealthy(ctx)
	p.store.SetAPIConnected(healthy)
	return healthy
}

// Refresh performs one full cycle. Errors are recorded in the store on the
// first cycle only; later failures are logged and keep the previous squads.
func (p *Poller) Refresh(ctx context.Context) error {
	p.mu.Lock()
	initial := !p.initialDone
	p.initialDone = true
	onSnapshot := p.onSnapshot
	p.mu.Unlock()

	if !p.CheckHealth(ctx) {
		p.logger.Warn("backend unhealthy, skipping squad refresh")
		if initial {
			p.store.SetLoadError(ErrMsgUnreachable)
		}
		return nil
	}

	squads, err := p.api.ListSquads(ctx, p.opts.StatusFilter)
	if err != nil {
		p.logger.Error("failed to fetch squads", zap.Error(err))
		if initial {
			p.store.SetLoadError(ErrMsgSquadsFailed)
		}
		return err
	}

	p.store.ReplaceSquads(squads)
	p.store.SetLoadError("")
	p.logger.Debug("squads refreshed", zap.Int("count", len(squads)))

	if onSnapshot != nil {
		onSnapshot(squads)
	}
	return nil
}
