package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Sanaki/go-threading/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// RuntimeSnapshotProvider provides current runtime stats snapshots.
// *core.Runtime satisfies it.
type RuntimeSnapshotProvider interface {
	Stats() core.RuntimeStats
}

// SnapshotPoller periodically exports Runtime Stats() snapshots into
// Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	runtimesMu sync.RWMutex
	runtimes   map[string]RuntimeSnapshotProvider

	liveThreads      *prom.GaugeVec
	pendingDeletions *prom.GaugeVec
	guiGateHeld      *prom.GaugeVec
	shutdownStarted  *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	liveThreads := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "threading",
		Name:      "live_threads",
		Help:      "Registered managed threads per runtime.",
	}, []string{"runtime"})
	pendingDeletions := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "threading",
		Name:      "pending_deletions_snapshot",
		Help:      "Detached threads in teardown per runtime.",
	}, []string{"runtime"})
	guiGateHeld := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "threading",
		Name:      "gui_gate_held",
		Help:      "GUI gate state (1=held, 0=free).",
	}, []string{"runtime"})
	shutdownStarted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "threading",
		Name:      "shutdown_started",
		Help:      "Shutdown barrier state (1=started, 0=not started).",
	}, []string{"runtime"})

	var err error
	if liveThreads, err = registerCollector(reg, liveThreads); err != nil {
		return nil, err
	}
	if pendingDeletions, err = registerCollector(reg, pendingDeletions); err != nil {
		return nil, err
	}
	if guiGateHeld, err = registerCollector(reg, guiGateHeld); err != nil {
		return nil, err
	}
	if shutdownStarted, err = registerCollector(reg, shutdownStarted); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:         interval,
		runtimes:         make(map[string]RuntimeSnapshotProvider),
		liveThreads:      liveThreads,
		pendingDeletions: pendingDeletions,
		guiGateHeld:      guiGateHeld,
		shutdownStarted:  shutdownStarted,
	}, nil
}

// AddRuntime adds or replaces a runtime snapshot provider by name.
func (p *SnapshotPoller) AddRuntime(name string, provider RuntimeSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "runtime")
	p.runtimesMu.Lock()
	p.runtimes[name] = provider
	p.runtimesMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.runtimesMu.RLock()
	for name, provider := range p.runtimes {
		stats := provider.Stats()
		p.liveThreads.WithLabelValues(name).Set(float64(stats.LiveThreads))
		p.pendingDeletions.WithLabelValues(name).Set(float64(stats.PendingDeletions))
		p.guiGateHeld.WithLabelValues(name).Set(gaugeBool(stats.GuiGateHeld))
		p.shutdownStarted.WithLabelValues(name).Set(gaugeBool(stats.ShutdownStarted))
	}
	p.runtimesMu.RUnlock()
}

func gaugeBool(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
