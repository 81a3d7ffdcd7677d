package services

import (
	"context"
	"fmt"
	"time"

	"milkpukki/internal/domain"
	applog "milkpukki/internal/log"
	"milkpukki/internal/repos"
)

// PaymentWindow is how long a PENDING order may wait for payment before it
// is expired and its reserved stock returned.
const PaymentWindow = 1440 * time.Minute

// ExpiryWatcher detects PENDING orders past their payment deadline and
// cancels them through the same CancelAndReverse path as explicit
// cancellation. It runs in two modes: an opportunistic per-user sweep on
// every order-listing request, and a periodic server-side sweep that keeps
// reversal correct even when no client ever revisits the page.
type ExpiryWatcher struct {
	Orders *repos.OrderRepo
	Life   *OrderService
}

func NewExpiryWatcher(orders *repos.OrderRepo, life *OrderService) *ExpiryWatcher {
	return &ExpiryWatcher{Orders: orders, Life: life}
}

func Deadline(createdAt time.Time) time.Time {
	return createdAt.Add(PaymentWindow)
}

func Expired(o domain.Order, now time.Time) bool {
	if o.Status != domain.StatusPending {
		return false
	}
	created, err := time.Parse(time.RFC3339, o.CreatedAt)
	if err != nil {
		return false
	}
	return now.After(Deadline(created))
}

// Remaining returns time left before the deadline, zero if already past.
func Remaining(o domain.Order, now time.Time) time.Duration {
	created, err := time.Parse(time.RFC3339, o.CreatedAt)
	if err != nil {
		return 0
	}
	d := Deadline(created).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Countdown renders a remaining duration as "Hh Mm Ss" for the order list.
func Countdown(d time.Duration) string {
	if d <= 0 {
		return "0h 0m 0s"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, sec)
}

// SweepUser expires a single user's overdue PENDING orders and reports how
// many were removed, so the listing view can surface a summary notification.
func (w *ExpiryWatcher) SweepUser(userID string, now time.Time) (int, error) {
	orders, err := w.Orders.ListByUser(userID)
	if err != nil {
		return 0, err
	}
	return w.sweep(orders, now)
}

// SweepAll expires overdue PENDING orders regardless of owner.
func (w *ExpiryWatcher) SweepAll(now time.Time) (int, error) {
	orders, err := w.Orders.ListPending()
	if err != nil {
		return 0, err
	}
	return w.sweep(orders, now)
}

func (w *ExpiryWatcher) sweep(orders []domain.Order, now time.Time) (int, error) {
	expired := 0
	for _, o := range orders {
		if !Expired(o, now) {
			continue
		}
		if err := w.Life.CancelAndReverse(o.ID); err != nil {
			// A concurrent sweep may have deleted it first; that is fine.
			if err == ErrOrderNotFound {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func (w *ExpiryWatcher) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := w.SweepAll(now)
			if err != nil {
				applog.Error(nil, "expiry.sweep.fail", err, nil)
				continue
			}
			if n > 0 {
				applog.Audit(nil, "expiry.sweep", map[string]any{"expired": n})
			}
		}
	}
}
