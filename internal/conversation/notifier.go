package conversation

import (
	"context"

	"github.com/fatih/color"

	"github.com/hammamikhairi/minarelay/internal/domain"
	"github.com/hammamikhairi/minarelay/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*ConsoleNotifier)(nil)

// ConsoleNotifier mirrors conversation progress to stdout. The relay is a
// headless daemon; this is the only place it talks to a terminal.
type ConsoleNotifier struct {
	log    *logger.Logger
	normal *color.Color
	urgent *color.Color
}

// NewConsoleNotifier creates a stdout-based notifier.
func NewConsoleNotifier(log *logger.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{
		log:    log,
		normal: color.New(color.FgGreen, color.Bold),
		urgent: color.New(color.FgRed, color.Bold),
	}
}

// Notify prints a normal progress line.
func (n *ConsoleNotifier) Notify(ctx context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.normal.Println(message)
	return nil
}

// NotifyUrgent prints an error-grade line.
func (n *ConsoleNotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.urgent.Println(message)
	return nil
}
