package credwatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dwizi/ops-console/internal/health"
)

const componentName = "credwatch"

// Service watches the credential file written by an external sign-in helper and
// reports each new value once.
type Service struct {
	path         string
	logger       *slog.Logger
	onCredential func(context.Context, string)
	watcher      *fsnotify.Watcher
	reporter     health.Reporter

	mu   sync.Mutex
	last string
}

func New(path string, logger *slog.Logger, onCredential func(context.Context, string)) (*Service, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("credential file path is required")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve credential file path: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	fileWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Service{
		path:         absPath,
		logger:       logger.With("component", "credwatch"),
		onCredential: onCredential,
		watcher:      fileWatcher,
		reporter:     health.Nop{},
	}, nil
}

func (s *Service) SetReporter(reporter health.Reporter) {
	if reporter == nil {
		reporter = health.Nop{}
	}
	s.reporter = reporter
}

// Start blocks until ctx is done. The parent directory is watched so helpers that
// replace the file by rename are still seen.
func (s *Service) Start(ctx context.Context) error {
	defer s.watcher.Close()
	s.reporter.Starting(componentName, "watching "+s.path)

	dir := filepath.Dir(s.path)
	if err := s.watcher.Add(dir); err != nil {
		err = fmt.Errorf("watch path %s: %w", dir, err)
		s.reporter.Degrade(componentName, "watch failed", err)
		return err
	}
	s.logger.Info("credential watcher started", "path", s.path)
	s.reporter.Beat(componentName, "watching")
	s.load(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("credential watcher stopped")
			s.reporter.Stopped(componentName, "stopped")
			return nil
		case event, ok := <-s.watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				s.logger.Error("file watcher error", "error", err)
				s.reporter.Degrade(componentName, "file watcher error", err)
			}
		}
	}
}

func (s *Service) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != s.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	s.logger.Debug("credential file changed", "op", event.Op.String())
	s.load(ctx)
}

func (s *Service) load(ctx context.Context) {
	value, err := ReadCredential(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read credential file failed", "error", err)
			s.reporter.Degrade(componentName, "read failed", err)
		}
		return
	}
	if value == "" {
		return
	}
	s.mu.Lock()
	if value == s.last {
		s.mu.Unlock()
		return
	}
	s.last = value
	s.mu.Unlock()

	s.logger.Info("credential picked up from file")
	s.reporter.Beat(componentName, "credential loaded")
	if s.onCredential != nil {
		s.onCredential(ctx, value)
	}
}

// ReadCredential returns the first non-empty line of the file at path.
func ReadCredential(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
	return "", nil
}
