package auth

import (
	"context"
	"log/slog"
	"sync"
)

// NotificationKind selects the message template the sender renders.
type NotificationKind string

const (
	NotifyWelcome         NotificationKind = "welcome"
	NotifyPendingApproval NotificationKind = "pending-approval"
	NotifyApprovalResult  NotificationKind = "approval-result"
	NotifyOTPCode         NotificationKind = "otp-code"
)

type Notification struct {
	To   string
	Kind NotificationKind
	Data map[string]string
}

// Notifier delivers a notification out of band (email in production).
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Dispatcher sends notifications whose failure must not fail the caller.
// Sends run on their own goroutines; Wait blocks until all of them finished.
type Dispatcher struct {
	notifier Notifier
	log      *slog.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{notifier: n, log: log}
}

// Go sends n in the background. The request context's cancellation is not inherited.
func (d *Dispatcher) Go(ctx context.Context, n Notification) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.notifier.Send(ctx, n); err != nil {
			notificationsFailed.WithLabelValues(string(n.Kind)).Inc()
			d.log.WarnContext(ctx, "notification failed", "kind", n.Kind, "to", n.To, "err", err)
		}
	}()
}

// Send delivers n synchronously through the same notifier.
func (d *Dispatcher) Send(ctx context.Context, n Notification) error {
	err := d.notifier.Send(ctx, n)
	if err != nil {
		notificationsFailed.WithLabelValues(string(n.Kind)).Inc()
	}
	return err
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
