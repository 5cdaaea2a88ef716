package refresh

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dwizi/ops-console/internal/health"
)

const componentName = "refresh"

var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func normalizeCronExpr(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}

// ParseSchedule accepts five-field cron expressions and descriptors such as
// "@every 30s". An empty expression yields a nil schedule, meaning refresh is off.
func ParseSchedule(expr string) (cron.Schedule, error) {
	expr = normalizeCronExpr(expr)
	if expr == "" {
		return nil, nil
	}
	schedule, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule: %w", err)
	}
	return schedule, nil
}

// Service fires a background state refresh on a cron schedule. It only asks for a
// refresh; the caller decides whether one can be dispatched.
type Service struct {
	schedule cron.Schedule
	command  string
	logger   *slog.Logger
	onTick   func(context.Context, string)
	now      func() time.Time
	reporter health.Reporter
}

func New(expr, command string, logger *slog.Logger, onTick func(context.Context, string)) (*Service, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	command = strings.TrimSpace(command)
	if schedule != nil && command == "" {
		return nil, fmt.Errorf("refresh command is required when a schedule is set")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		schedule: schedule,
		command:  command,
		logger:   logger.With("component", "refresh"),
		onTick:   onTick,
		now:      time.Now,
		reporter: health.Nop{},
	}, nil
}

func (s *Service) SetReporter(reporter health.Reporter) {
	if reporter == nil {
		reporter = health.Nop{}
	}
	s.reporter = reporter
}

func (s *Service) Enabled() bool {
	return s.schedule != nil
}

// NextRun returns the next fire time after from, or zero when disabled.
func (s *Service) NextRun(from time.Time) time.Time {
	if s.schedule == nil {
		return time.Time{}
	}
	return s.schedule.Next(from)
}

func (s *Service) Start(ctx context.Context) error {
	if s.schedule == nil {
		<-ctx.Done()
		return nil
	}
	s.logger.Info("refresh scheduler started", "command", s.command)
	s.reporter.Starting(componentName, "scheduled")
	for {
		next := s.schedule.Next(s.now())
		if next.IsZero() {
			s.logger.Warn("refresh schedule has no future runs")
			s.reporter.Degrade(componentName, "schedule exhausted", fmt.Errorf("no future runs"))
			<-ctx.Done()
			return nil
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("refresh scheduler stopped")
			s.reporter.Stopped(componentName, "stopped")
			return nil
		case <-timer.C:
		}
		s.logger.Debug("refresh tick", "command", s.command)
		if s.onTick != nil {
			s.onTick(ctx, s.command)
		}
		s.reporter.Beat(componentName, "next "+s.schedule.Next(s.now()).Format(time.RFC3339))
	}
}
