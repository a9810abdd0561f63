package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"GapSentinel/internal/dashboard"
	"GapSentinel/internal/model"
	"GapSentinel/internal/notifier"
	"GapSentinel/internal/recorder"
	"GapSentinel/internal/runner"
)

// ErrBusy is returned when a replay is requested while another is running.
var ErrBusy = errors.New("replay already in progress")

// Scheduler runs replays on a cron schedule and on demand.
type Scheduler struct {
	Cron      *cron.Cron
	Runner    *runner.Runner
	Recorder  recorder.Recorder
	Notifier  *notifier.TelegramNotifier // optional
	Dashboard *dashboard.Server          // optional
	Ctx       context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, r *runner.Runner, rec recorder.Recorder, tn *notifier.TelegramNotifier, dash *dashboard.Server) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Runner:    r,
		Recorder:  rec,
		Notifier:  tn,
		Dashboard: dash,
		Ctx:       ctx,
	}
}

// RegisterAll registers the replay task.
func (s *Scheduler) RegisterAll(replayCron string) error {
	if _, err := s.Cron.AddFunc(replayCron, s.replayTask); err != nil {
		return fmt.Errorf("register replay task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running replay to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes one replay immediately and returns its report.
func (s *Scheduler) RunNow() (*model.Report, error) {
	if !s.running.TryLock() {
		return nil, ErrBusy
	}
	defer s.running.Unlock()
	return s.replay()
}

// replay runs one replay; the caller holds s.running.
func (s *Scheduler) replay() (*model.Report, error) {
	report, err := s.Runner.Run(s.Ctx)
	if err != nil {
		s.trySend(fmt.Sprintf("❌ replay failed: %v", err))
		return nil, err
	}

	if err := s.Recorder.RecordRun(report); err != nil {
		log.Printf("[ERROR] record run %s: %v", report.RunID, err)
	}
	if s.Dashboard != nil {
		s.Dashboard.Publish(report)
	}
	s.trySend(notifier.FormatReport(report))
	return report, nil
}

func (s *Scheduler) replayTask() {
	log.Println("[INFO] running replay task")
	if _, err := s.RunNow(); err != nil {
		if errors.Is(err, ErrBusy) {
			log.Println("[WARN] previous replay still running, skipping")
			return
		}
		log.Printf("[ERROR] replay: %v", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/report":
		r := s.latest()
		if r == nil {
			return "No replay has completed yet. Send /run to start one."
		}
		return notifier.FormatReport(r)
	case "/run":
		if !s.running.TryLock() {
			return "A replay is already running, try again shortly."
		}
		go func() {
			defer s.running.Unlock()
			log.Println("[INFO] running replay on command")
			if _, err := s.replay(); err != nil {
				log.Printf("[ERROR] replay: %v", err)
			}
		}()
		return "Replay started."
	case "/symbols":
		r := s.latest()
		if r == nil {
			return "No replay has completed yet."
		}
		return notifier.FormatSymbols(r)
	default:
		return "Available commands:\n• /report - last replay\n• /run - replay now\n• /symbols - watched pairs"
	}
}

func (s *Scheduler) latest() *model.Report {
	if s.Dashboard == nil {
		return nil
	}
	return s.Dashboard.Latest()
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil || !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
