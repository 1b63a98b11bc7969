package notifier

import "log/slog"

type Notifier interface {
	Notify(content string) error
}

// SlogNotifier surfaces notices through the logger. It is the default sink
// for the transient, non-blocking notices the orchestrator emits.
type SlogNotifier struct {
	Logger *slog.Logger
}

func (s *SlogNotifier) Notify(content string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("notice", "msg", content)

	return nil
}
