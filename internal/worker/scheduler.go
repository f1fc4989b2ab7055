package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerkit/invoicing/internal/reminder"
	"go.uber.org/zap"
)

// ReminderScheduler runs the reminder engine on a fixed interval. It is
// the scheduled counterpart of the manual HTTP trigger; both go through
// the same engine, which serializes overlapping runs itself.
type ReminderScheduler struct {
	engine   *reminder.Engine
	interval time.Duration
	opts     reminder.MessageOptions
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewReminderScheduler creates a new reminder scheduler
func NewReminderScheduler(engine *reminder.Engine, interval time.Duration, opts reminder.MessageOptions, logger *zap.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		engine:   engine,
		interval: interval,
		opts:     opts,
		logger:   logger,
	}
}

// Name returns the worker name
func (s *ReminderScheduler) Name() string {
	return "reminder-scheduler"
}

// Start starts the scheduling loop
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("reminder scheduler is already running")
	}
	if s.interval <= 0 {
		return fmt.Errorf("reminder scheduler interval must be positive")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.isRunning = true

	s.logger.Info("ReminderScheduler started",
		zap.Duration("interval", s.interval))

	go s.loop(runCtx)

	return nil
}

// Stop stops the scheduling loop and waits for it to exit
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done

	s.logger.Info("ReminderScheduler stopped")
}

func (s *ReminderScheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *ReminderScheduler) runOnce(ctx context.Context) {
	result, err := s.engine.Run(ctx, time.Now().UTC(), s.opts)
	if err != nil {
		s.logger.Error("Scheduled reminder run failed", zap.Error(err))
		return
	}

	s.logger.Info("Scheduled reminder run completed",
		zap.Int("processed", result.Processed),
		zap.Int("reminders_sent", result.Sent))
}
