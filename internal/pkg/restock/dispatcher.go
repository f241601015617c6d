package restock

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"github.com/a47williams/back-in-stock-app-sub000/app/repository"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/catalog"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/quota"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/whatsapp"
)

const defaultPingTemplate = "restock_optin"

// sendTimeout bounds every outbound WhatsApp call made by the dispatcher.
const sendTimeout = 20 * time.Second

// resolveTimeout bounds each catalog lookup retried at dispatch time.
const resolveTimeout = 5 * time.Second

// resolveBatch caps how many unresolved subscriptions one inventory event
// re-resolves.
const resolveBatch = 25

// InventoryLevelPayload is the relevant slice of an inventory_levels/update
// webhook body.
type InventoryLevelPayload struct {
	InventoryItemID int64 `json:"inventory_item_id"`
	Available       int64 `json:"available"`
}

// Dispatcher matches verified restock events to pending subscriptions and
// sends at most one notification per event.
//
// Policy: a restock event notifies the single oldest pending subscription
// for the item. Providers redeliver inventory updates on every stock tick,
// so repeated events drain the backlog oldest-first without one delivery
// burst exhausting the shop's quota.
type Dispatcher struct {
	subs          repository.SubscriptionRepository
	notifications repository.NotificationRepository
	gate          *quota.Gate
	sender        whatsapp.Sender
	resolver      catalog.Resolver

	// PingTemplate is the pre-approved template used to open a session
	// window on channels that require one before free-form text.
	PingTemplate string

	now func() time.Time
}

// NewDispatcher wires the dispatcher to its stores, the quota gate, the
// outbound channel and the catalog resolver used to retry failed lookups.
// The resolver may be nil; then unresolved subscriptions wait for their
// next subscribe request to fill in identifiers.
func NewDispatcher(
	subs repository.SubscriptionRepository,
	notifications repository.NotificationRepository,
	gate *quota.Gate,
	sender whatsapp.Sender,
	resolver catalog.Resolver,
) *Dispatcher {
	return &Dispatcher{
		subs:          subs,
		notifications: notifications,
		gate:          gate,
		sender:        sender,
		resolver:      resolver,
		PingTemplate:  defaultPingTemplate,
		now:           time.Now,
	}
}

// HandleInventoryLevelUpdate processes a verified inventory webhook for a
// shop. Send failures are logged and leave all state untouched so the next
// event for the same item retries; they are never surfaced to the webhook
// response.
func (d *Dispatcher) HandleInventoryLevelUpdate(ctx context.Context, shop *models.Shop, payload []byte) error {
	var event InventoryLevelPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("restock: unparseable inventory payload for %s: %v", shop.Domain, err)
		return nil
	}
	if event.InventoryItemID == 0 {
		log.Printf("restock: inventory payload without item id for %s", shop.Domain)
		return nil
	}
	if event.Available <= 0 {
		// Stock going to zero is not a restock.
		return nil
	}

	itemID := fmt.Sprintf("%d", event.InventoryItemID)
	pending, err := d.subs.FindPendingByInventoryItem(shop.ID, itemID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		// A subscription whose catalog lookup failed at subscribe time has
		// no inventory item id yet and cannot match. Retry the resolution
		// now before deciding the event has no takers.
		pending = d.resolveBacklog(ctx, shop, itemID)
		if len(pending) == 0 {
			return nil
		}
	}

	// Oldest requester first.
	sub := pending[0]
	decision, err := d.gate.Authorize(ctx, shop)
	if err != nil {
		return err
	}
	if decision == quota.DecisionSuppressed {
		return nil
	}

	return d.dispatch(ctx, shop, &sub)
}

// resolveBacklog retries the catalog lookup for the shop's unresolved
// subscriptions, persists whatever identifiers come back and returns the
// ones that turn out to match the restocked item, oldest first.
func (d *Dispatcher) resolveBacklog(ctx context.Context, shop *models.Shop, itemID string) []models.Subscription {
	if d.resolver == nil {
		return nil
	}
	unresolved, err := d.subs.FindUnresolvedByShop(shop.ID, resolveBatch)
	if err != nil {
		log.Printf("restock: unresolved lookup failed for %s: %v", shop.Domain, err)
		return nil
	}

	var matched []models.Subscription
	for i := range unresolved {
		sub := &unresolved[i]

		lookupCtx, cancel := context.WithTimeout(ctx, resolveTimeout)
		info, err := d.resolver.ResolveVariant(lookupCtx, shop.Domain, shop.AccessToken, sub.VariantID)
		cancel()
		if err != nil {
			log.Printf("restock: retry lookup degraded for variant %s on %s: %v", sub.VariantID, shop.Domain, err)
			continue
		}
		if info.InventoryItemID == "" {
			continue
		}

		if err := d.subs.StoreResolvedIdentifiers(sub.ID, info.ProductID, info.InventoryItemID, info.ProductTitle, info.ProductURL); err != nil {
			log.Printf("restock: identifier backfill failed for subscription %d: %v", sub.ID, err)
			continue
		}
		sub.InventoryItemID = info.InventoryItemID
		if info.ProductID != "" {
			sub.ProductID = info.ProductID
		}
		sub.ProductTitle = info.ProductTitle
		sub.ProductURL = info.ProductURL

		if sub.InventoryItemID == itemID {
			matched = append(matched, *sub)
		}
	}
	return matched
}

// dispatch claims the subscription, sends the configured message kind and
// finalizes state. The claim is a compare-and-swap on template_sent_at, so
// of two racing webhook deliveries only one reaches the send.
func (d *Dispatcher) dispatch(ctx context.Context, shop *models.Shop, sub *models.Subscription) error {
	prev := sub.TemplateSentAt
	claimed, err := d.subs.ClaimPing(sub.ID, prev, d.now())
	if err != nil {
		return err
	}
	if !claimed {
		// Another dispatch got here first.
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if shop.UseConfirmationFlow {
		return d.sendPing(sendCtx, shop, sub, prev)
	}
	return d.sendDirect(sendCtx, shop, sub, prev)
}

func (d *Dispatcher) sendPing(ctx context.Context, shop *models.Shop, sub *models.Subscription, prev *time.Time) error {
	_, err := d.sender.SendTemplate(ctx, sub.Phone, d.PingTemplate, PingParams(shop.Domain, sub.ProductTitle))
	if err != nil {
		log.Printf("restock: ping send failed for subscription %d on %s: %v", sub.ID, shop.Domain, err)
		if relErr := d.subs.ReleasePing(sub.ID, prev); relErr != nil {
			log.Printf("restock: claim release failed for subscription %d: %v", sub.ID, relErr)
		}
		return nil
	}

	if err := d.gate.RecordSend(ctx, shop.ID); err != nil {
		log.Printf("restock: usage increment failed for shop %s: %v", shop.Domain, err)
	}
	return nil
}

func (d *Dispatcher) sendDirect(ctx context.Context, shop *models.Shop, sub *models.Subscription, prev *time.Time) error {
	link := DeepLink(shop.Domain, sub.ProductURL, sub.ProductID, sub.VariantID)
	_, err := d.sender.SendText(ctx, sub.Phone, RestockMessage(shop.Domain, sub.ProductTitle, link))
	if err != nil {
		log.Printf("restock: direct send failed for subscription %d on %s: %v", sub.ID, shop.Domain, err)
		if relErr := d.subs.ReleasePing(sub.ID, prev); relErr != nil {
			log.Printf("restock: claim release failed for subscription %d: %v", sub.ID, relErr)
		}
		return nil
	}

	if _, err := d.subs.DeleteFulfilled(sub.ID); err != nil {
		log.Printf("restock: fulfilled delete failed for subscription %d: %v", sub.ID, err)
	}
	d.markLegacySent(shop, sub)
	if err := d.gate.RecordSend(ctx, shop.ID); err != nil {
		log.Printf("restock: usage increment failed for shop %s: %v", shop.Domain, err)
	}
	return nil
}

// markLegacySent keeps the legacy alert table honest for shops that still
// have rows in it: the contact's own oldest unsent record for the same
// product flips to sent alongside the new-style delivery. Other contacts'
// alerts stay pending; sent only ever records an actual delivery.
func (d *Dispatcher) markLegacySent(shop *models.Shop, sub *models.Subscription) {
	legacy, err := d.notifications.OldestUnsent(shop.ID, sub.Phone, sub.ProductID, sub.VariantID)
	if err != nil {
		log.Printf("restock: legacy lookup failed for shop %s: %v", shop.Domain, err)
		return
	}
	if legacy == nil {
		return
	}
	if _, err := d.notifications.MarkSent(legacy.ID); err != nil {
		log.Printf("restock: legacy mark-sent failed for notification %d: %v", legacy.ID, err)
	}
}
