package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"relaydesk/internal/config"
	"relaydesk/internal/repository"
	"relaydesk/pkg/logger"
)

// DispatchSweeper re-attempts messages stuck in PENDING, typically left
// there by a crash between persist and provider call. Messages held back
// on purpose (opted-out contact, internal-only channel) also show up in
// the scan; Redispatch re-checks eligibility and leaves them untouched.
type DispatchSweeper struct {
	messages   repository.MessageRepository
	dispatch   *DispatchService
	interval   time.Duration
	stuckAfter time.Duration
	batchSize  int
	log        *logger.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewDispatchSweeper(cfg config.SweeperConfig, messages repository.MessageRepository, dispatch *DispatchService, log *logger.Logger) *DispatchSweeper {
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	stuckAfter := time.Duration(cfg.StuckAfterSecs) * time.Second
	if stuckAfter <= 0 {
		stuckAfter = 5 * time.Minute
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	return &DispatchSweeper{
		messages:   messages,
		dispatch:   dispatch,
		interval:   interval,
		stuckAfter: stuckAfter,
		batchSize:  batchSize,
		log:        log,
		stopChan:   make(chan struct{}),
	}
}

// Start launches the background loop. Call Stop to drain it.
func (s *DispatchSweeper) Start() {
	s.wg.Add(1)
	go s.run()
	s.log.Infof("dispatch sweeper started (interval=%s stuck_after=%s)", s.interval, s.stuckAfter)
}

// Stop signals the loop and waits for the in-flight sweep to finish.
func (s *DispatchSweeper) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	s.log.Infof("dispatch sweeper stopped")
}

func (s *DispatchSweeper) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep(context.Background())
		}
	}
}

// Sweep runs one pass over stuck PENDING messages.
func (s *DispatchSweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.stuckAfter)
	stuck, err := s.messages.ListStuckPending(ctx, cutoff, s.batchSize)
	if err != nil {
		s.log.ErrorCtx(ctx, "sweep: failed to list stuck messages", zap.Error(err))
		return
	}
	if len(stuck) == 0 {
		return
	}

	s.log.InfoCtx(ctx, "sweeping stuck pending messages", zap.Int("count", len(stuck)))
	for _, message := range stuck {
		select {
		case <-s.stopChan:
			return
		default:
		}
		s.dispatch.Redispatch(ctx, message)
	}
}
