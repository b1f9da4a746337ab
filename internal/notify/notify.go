// Package notify fans schedule events out to interested parties. Delivery is
// fire-and-forget: a failed or slow notifier must never block or fail the
// operation that triggered it.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// EventKind classifies schedule notifications.
type EventKind string

const (
	SchedulePublished EventKind = "SCHEDULE_PUBLISHED"
	GameRescheduled   EventKind = "GAME_RESCHEDULED"
	GameCancelled     EventKind = "GAME_CANCELLED"
	HeatCancellation  EventKind = "HEAT_CANCELLATION"
)

// Event is one notification payload.
type Event struct {
	Kind           EventKind      `json:"kind"`
	OrganizationID string         `json:"organization_id"`
	SeasonID       string         `json:"season_id,omitempty"`
	GameID         string         `json:"game_id,omitempty"`
	Detail         map[string]any `json:"detail,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// Notifier receives events. Implementations own their own retry and
// durability story.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// LogNotifier writes events to the structured log. The default sink when no
// delivery channel is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, ev Event) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("schedule event",
		"kind", ev.Kind,
		"org", ev.OrganizationID,
		"season", ev.SeasonID,
		"game", ev.GameID)
}

// Dispatcher fans one event out to every registered notifier on its own
// goroutine with a bounded deadline.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
}

func NewDispatcher(timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if len(notifiers) == 0 {
		notifiers = []Notifier{&LogNotifier{}}
	}
	return &Dispatcher{notifiers: notifiers, timeout: timeout}
}

// Dispatch returns immediately; delivery detaches from the caller's context.
func (d *Dispatcher) Dispatch(ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	for _, n := range d.notifiers {
		go func(n Notifier) {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			n.Notify(ctx, ev)
		}(n)
	}
}
