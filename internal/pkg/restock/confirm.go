package restock

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/a47williams/back-in-stock-app-sub000/app/repository"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/quota"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/whatsapp"
)

// affirmatives is the opt-in intent set. Inbound text is trimmed and
// case-folded before matching; anything else is acknowledged but ignored.
var affirmatives = map[string]struct{}{
	"yes":  {},
	"y":    {},
	"yeah": {},
	"send": {},
	"link": {},
	"ok":   {},
	"okay": {},
	"sure": {},
	"go":   {},
}

// IsAffirmative reports whether an inbound message expresses opt-in intent.
func IsAffirmative(body string) bool {
	_, ok := affirmatives[strings.ToLower(strings.TrimSpace(body))]
	return ok
}

// ConfirmFlow advances the two-step conversation: a restock ping asked the
// subscriber to opt in, and their affirmative reply triggers the deep link.
type ConfirmFlow struct {
	subs   repository.SubscriptionRepository
	shops  repository.ShopRepository
	gate   *quota.Gate
	sender whatsapp.Sender

	now func() time.Time
}

// NewConfirmFlow wires the confirmation flow to its stores, the quota gate
// and the outbound channel.
func NewConfirmFlow(
	subs repository.SubscriptionRepository,
	shops repository.ShopRepository,
	gate *quota.Gate,
	sender whatsapp.Sender,
) *ConfirmFlow {
	return &ConfirmFlow{
		subs:   subs,
		shops:  shops,
		gate:   gate,
		sender: sender,
		now:    time.Now,
	}
}

// HandleInboundReply processes one inbound message from a contact. Every
// inbound text updates session liveness for all of the contact's
// subscriptions; only a recognized affirmative advances state, and only
// when an awaiting-reply subscription exists. Out-of-context replies are
// silently acknowledged.
func (f *ConfirmFlow) HandleInboundReply(ctx context.Context, from, body string) error {
	phone := strings.TrimSpace(from)
	if phone == "" {
		return nil
	}

	if _, err := f.subs.RecordInboundReply(phone, f.now()); err != nil {
		return err
	}

	if !IsAffirmative(body) {
		return nil
	}

	sub, err := f.subs.LatestAwaitingReply(phone)
	if err != nil {
		return err
	}
	if sub == nil {
		// Reply without a pending ping, e.g. after already being fulfilled.
		return nil
	}

	shop, err := f.shops.GetByID(sub.ShopID)
	if err != nil {
		return err
	}

	// The link is an outbound send like any other, so it passes the gate.
	// A shop can hit its ceiling between the ping and the reply; in that
	// case the record stays awaiting and a later reply after an upgrade
	// still delivers.
	decision, err := f.gate.Authorize(ctx, shop)
	if err != nil {
		return err
	}
	if decision == quota.DecisionSuppressed {
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	link := DeepLink(shop.Domain, sub.ProductURL, sub.ProductID, sub.VariantID)
	if _, err := f.sender.SendText(sendCtx, phone, RestockMessage(shop.Domain, sub.ProductTitle, link)); err != nil {
		// Leave the record awaiting; the subscriber can reply again.
		log.Printf("restock: link delivery failed for subscription %d: %v", sub.ID, err)
		return nil
	}

	if _, err := f.subs.DeleteFulfilled(sub.ID); err != nil {
		log.Printf("restock: fulfilled delete failed for subscription %d: %v", sub.ID, err)
	}
	return nil
}
