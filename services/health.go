package services

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"hippocampus/utils"

	"go.uber.org/zap"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusUp       = "up"
	StatusDown     = "down"
)

type CheckFunc func(ctx context.Context) error

type dependency struct {
	name    string
	check   CheckFunc
	healthy atomic.Bool
}

type DependencyHealth struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

type HealthReport struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Uptime       string                      `json:"uptime"`
	Dependencies map[string]DependencyHealth `json:"dependencies"`
	System       utils.SystemStats           `json:"system"`
	Mongo        utils.MongoMetrics          `json:"mongo_pool"`
}

// HealthMonitor probes registered dependencies and keeps the last outcome of
// each in an atomic flag.
type HealthMonitor struct {
	deps      []*dependency
	timeout   time.Duration
	startedAt time.Time
}

func NewHealthMonitor(timeout time.Duration) *HealthMonitor {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HealthMonitor{
		timeout:   timeout,
		startedAt: time.Now(),
	}
}

// Register adds a dependency. Not safe to call concurrently with Check.
func (h *HealthMonitor) Register(name string, check CheckFunc) {
	d := &dependency{name: name, check: check}
	d.healthy.Store(true)
	h.deps = append(h.deps, d)
}

// Names lists registered dependencies in registration order.
func (h *HealthMonitor) Names() []string {
	names := make([]string, len(h.deps))
	for i, d := range h.deps {
		names[i] = d.name
	}
	return names
}

// Healthy returns the last known state of a dependency; unknown names report false.
func (h *HealthMonitor) Healthy(name string) bool {
	for _, d := range h.deps {
		if d.name == name {
			return d.healthy.Load()
		}
	}
	return false
}

// Check probes every dependency concurrently and samples process stats.
func (h *HealthMonitor) Check(ctx context.Context) HealthReport {
	results := make([]DependencyHealth, len(h.deps))

	var wg sync.WaitGroup
	for i, d := range h.deps {
		wg.Add(1)
		go func(i int, d *dependency) {
			defer wg.Done()
			results[i] = h.probe(ctx, d)
		}(i, d)
	}
	wg.Wait()

	report := HealthReport{
		Status:       StatusHealthy,
		Timestamp:    time.Now().UTC(),
		Uptime:       time.Since(h.startedAt).Round(time.Second).String(),
		Dependencies: make(map[string]DependencyHealth, len(h.deps)),
		System:       utils.GetSystemStats(ctx, runtime.NumGoroutine()),
		Mongo:        utils.GetMongoMetrics(),
	}
	for i, d := range h.deps {
		report.Dependencies[d.name] = results[i]
		if results[i].Status != StatusUp {
			report.Status = StatusDegraded
		}
	}
	return report
}

func (h *HealthMonitor) probe(ctx context.Context, d *dependency) DependencyHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := d.check(ctx)
	latency := float64(time.Since(start).Microseconds()) / 1000

	wasHealthy := d.healthy.Swap(err == nil)
	if err != nil {
		if wasHealthy {
			utils.Logger.Warn("dependency became unhealthy", zap.String("dependency", d.name), zap.Error(err))
		}
		return DependencyHealth{Status: StatusDown, LatencyMS: latency, Error: err.Error()}
	}
	if !wasHealthy {
		utils.Logger.Info("dependency recovered", zap.String("dependency", d.name))
	}
	return DependencyHealth{Status: StatusUp, LatencyMS: latency}
}
