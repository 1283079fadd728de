package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/voisilab/voisimap/internal/ppn"
	"github.com/voisilab/voisimap/internal/routing"
	"github.com/voisilab/voisimap/pkg/geo"
)

// RouteSource fetches routes. Satisfied by *routing.Service.
type RouteSource interface {
	GetRoute(ctx context.Context, req routing.RouteRequest) (*routing.RouteResponse, error)
}

// PPNLister lists the fablab catalog. Satisfied by *ppn.Service.
type PPNLister interface {
	List(ctx context.Context) ([]*ppn.PPN, error)
}

// WarmJob pre-fetches driving routes between hubs and active fablabs so the
// routing cache is already populated when a visitor asks for directions.
type WarmJob struct {
	config WarmConfig
	logger zerolog.Logger

	routes RouteSource
	ppns   PPNLister

	metrics *WarmMetrics
}

// WarmMetrics tracks warm job statistics.
type WarmMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns    int64
	WarmedRoutes int64
	FailedRoutes int64
	NoRoutePairs int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// WarmJobConfig holds configuration for creating a WarmJob.
type WarmJobConfig struct {
	Config WarmConfig
	Logger zerolog.Logger
	Routes RouteSource
	PPNs   PPNLister
}

// NewWarmJob creates a new warm job processor.
func NewWarmJob(cfg WarmJobConfig) *WarmJob {
	config := cfg.Config
	if len(config.Hubs) == 0 {
		config = DefaultWarmConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &WarmJob{
		config:  config,
		logger:  cfg.Logger,
		routes:  cfg.Routes,
		ppns:    cfg.PPNs,
		metrics: &WarmMetrics{},
	}
}

// WarmResult contains the result of a warm run.
type WarmResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalPairs int
	Warmed     int
	Failed     int
	NoRoute    int
	Errors     []WarmError
}

// WarmError represents a failed warm pair.
type WarmError struct {
	Hub   string
	PPNID string
	Error string
}

type warmPair struct {
	hub WarmHub
	ppn *ppn.PPN
}

// Run warms routes from every configured hub to every active fablab.
func (j *WarmJob) Run(ctx context.Context) (*WarmResult, error) {
	startTime := time.Now()

	labs, err := j.ppns.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing fablabs: %w", err)
	}

	pairs := j.buildPairs(labs)
	result := &WarmResult{
		StartTime:  startTime,
		TotalPairs: len(pairs),
	}

	j.logger.Info().
		Int("total_pairs", result.TotalPairs).
		Int("concurrency", j.config.Concurrency).
		Msg("starting route warm job")

	pairsChan := make(chan warmPair, len(pairs))
	resultsChan := make(chan pairResult, len(pairs))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, pairsChan, resultsChan)
		}()
	}

	for _, p := range pairs {
		pairsChan <- p
	}
	close(pairsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		switch {
		case pr.noRoute:
			result.NoRoute++
		case pr.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, WarmError{
				Hub:   pr.pair.hub.Name,
				PPNID: pr.pair.ppn.ID,
				Error: pr.err.Error(),
			})
		default:
			result.Warmed++
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("warmed", result.Warmed).
		Int("failed", result.Failed).
		Int("no_route", result.NoRoute).
		Msg("route warm job completed")

	return result, nil
}

// buildPairs crosses hubs with active fablabs, ordered by hub priority.
func (j *WarmJob) buildPairs(labs []*ppn.PPN) []warmPair {
	hubs := make([]WarmHub, len(j.config.Hubs))
	copy(hubs, j.config.Hubs)
	sort.SliceStable(hubs, func(a, b int) bool {
		return hubs[a].Priority < hubs[b].Priority
	})

	var pairs []warmPair
	for _, hub := range hubs {
		for _, lab := range labs {
			if lab.Status != ppn.StatusActive {
				continue
			}
			pairs = append(pairs, warmPair{hub: hub, ppn: lab})
		}
	}
	return pairs
}

type pairResult struct {
	pair    warmPair
	noRoute bool
	err     error
}

func (j *WarmJob) warmWorker(ctx context.Context, pairs <-chan warmPair, results chan<- pairResult) {
	for pair := range pairs {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.warmOne(ctx, pair)
		}
	}
}

func (j *WarmJob) warmOne(ctx context.Context, pair warmPair) pairResult {
	pairCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.routes.GetRoute(pairCtx, routing.RouteRequest{
		Start: pair.hub.Coordinate,
		End:   pair.ppn.Coordinate,
	})
	if err != nil {
		// Some hub/fablab pairs are legitimately unroutable (islands,
		// unmapped tracks); those are not provider failures.
		if errors.Is(err, routing.ErrNoRouteFound) {
			return pairResult{pair: pair, noRoute: true}
		}
		j.logger.Warn().
			Err(err).
			Str("hub", pair.hub.Name).
			Str("ppn_id", pair.ppn.ID).
			Msg("route warm failed")
		return pairResult{pair: pair, err: err}
	}

	return pairResult{pair: pair}
}

// HealthCheck fetches a single route between two hubs to verify provider
// connectivity without touching the catalog.
func (j *WarmJob) HealthCheck(ctx context.Context) error {
	hubs := j.config.Hubs
	if len(hubs) < 2 {
		hubs = DefaultWarmHubs()
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := j.routes.GetRoute(checkCtx, routing.RouteRequest{
		Start: hubs[0].Coordinate,
		End:   hubs[1].Coordinate,
	})
	if err != nil {
		return fmt.Errorf("health check route fetch: %w", err)
	}
	return nil
}

// Hubs returns the configured hubs as coordinates, in configuration order.
func (j *WarmJob) Hubs() []geo.Coordinate {
	coords := make([]geo.Coordinate, 0, len(j.config.Hubs))
	for _, hub := range j.config.Hubs {
		coords = append(coords, hub.Coordinate)
	}
	return coords
}

func (j *WarmJob) updateMetrics(result *WarmResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.WarmedRoutes += int64(result.Warmed)
	j.metrics.FailedRoutes += int64(result.Failed)
	j.metrics.NoRoutePairs += int64(result.NoRoute)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmJob) GetMetrics() WarmMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return WarmMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		WarmedRoutes:    j.metrics.WarmedRoutes,
		FailedRoutes:    j.metrics.FailedRoutes,
		NoRoutePairs:    j.metrics.NoRoutePairs,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *WarmJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"warmed_routes":     m.WarmedRoutes,
		"failed_routes":     m.FailedRoutes,
		"no_route_pairs":    m.NoRoutePairs,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
