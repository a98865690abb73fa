// Package notify decides whether a finished run is worth telling the user
// about and hands the delivery to a Sender.
package notify

import (
	"context"
	"log/slog"
)

// Sender delivers user-facing notifications. The log implementation stands in
// where no platform notification bridge is wired.
type Sender interface {
	SendSuccess(ctx context.Context, itemCount int) error
	SendFailure(ctx context.Context) error
}

// ProgressVisible reports whether a progress UI is currently presenting the
// run, in which case a completion notification would be redundant.
type ProgressVisible func() bool

type Service struct {
	sender  Sender
	visible ProgressVisible
	log     *slog.Logger
}

func New(sender Sender, visible ProgressVisible, log *slog.Logger) *Service {
	return &Service{
		sender:  sender,
		visible: visible,
		log:     log.With(slog.String("item", "NotifyService")),
	}
}

// Send reports the outcome of a normally completed run. Runs over an empty
// selection and runs the user is already watching stay silent.
func (s *Service) Send(ctx context.Context, itemCount int, hasError bool) error {
	if itemCount == 0 {
		return nil
	}

	if s.visible != nil && s.visible() {
		s.log.Debug("Notification suppressed, progress view is visible")

		return nil
	}

	if hasError {
		return s.sender.SendFailure(ctx)
	}

	return s.sender.SendSuccess(ctx, itemCount)
}

// SendFailureNow bypasses suppression. Used on the interrupt path, where the
// user must learn about the failure regardless of what is on screen.
func (s *Service) SendFailureNow(ctx context.Context) error {
	return s.sender.SendFailure(ctx)
}

// LogSender writes notifications to the log.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log.With(slog.String("item", "LogSender"))}
}

func (s *LogSender) SendSuccess(ctx context.Context, itemCount int) error {
	s.log.Info("Offline content sync finished", slog.Int("item_count", itemCount))

	return nil
}

func (s *LogSender) SendFailure(ctx context.Context) error {
	s.log.Warn("Offline content sync failed")

	return nil
}
