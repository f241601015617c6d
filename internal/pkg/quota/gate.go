package quota

import (
	"context"
	"time"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"github.com/a47williams/back-in-stock-app-sub000/app/repository"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/plans"
)

// Decision is the gate's verdict on an outbound send attempt.
type Decision int

const (
	// DecisionProceed allows the send; the dispatcher increments usage
	// after the send is confirmed.
	DecisionProceed Decision = iota
	// DecisionSuppressed means the account is over limit. The caller must
	// not send and must answer its originating request with a neutral
	// outcome; being over quota is steady state, not a fault.
	DecisionSuppressed
)

// LimitNotifier delivers the one-time "plan limit reached" notice to the
// shop owner. Best effort: a failed notice never changes the gate decision.
type LimitNotifier interface {
	NotifyLimitReached(ctx context.Context, shop *models.Shop)
}

// Gate evaluates the per-shop monthly quota before any outbound send.
type Gate struct {
	shops    repository.ShopRepository
	notifier LimitNotifier

	now func() time.Time
}

// NewGate wires the gate to the shop store and the limit notifier.
func NewGate(shops repository.ShopRepository, notifier LimitNotifier) *Gate {
	return &Gate{
		shops:    shops,
		notifier: notifier,
		now:      time.Now,
	}
}

// Authorize decides whether the shop may send one more notification. The
// sticky flag write happens before the notice is attempted, and the notice
// fires only for the caller that owns the false→true transition.
func (g *Gate) Authorize(ctx context.Context, shop *models.Shop) (Decision, error) {
	if shop.LimitReached {
		return DecisionSuppressed, nil
	}

	overLimit := shop.TrialExpired(g.now())
	if !overLimit {
		if ceiling := plans.MonthlyCeiling(shop.Plan); ceiling != plans.Unlimited && shop.MonthlyUsage >= ceiling {
			overLimit = true
		}
	}
	if !overLimit {
		return DecisionProceed, nil
	}

	first, err := g.shops.MarkLimitReached(shop.ID)
	if err != nil {
		return DecisionSuppressed, err
	}
	if first && g.notifier != nil {
		g.notifier.NotifyLimitReached(ctx, shop)
	}
	return DecisionSuppressed, nil
}

// RecordSend bumps the monthly usage counter after a confirmed send. The
// dispatcher calls this, never the gate itself.
func (g *Gate) RecordSend(ctx context.Context, shopID uint) error {
	_ = ctx
	return g.shops.IncrementUsage(shopID)
}
