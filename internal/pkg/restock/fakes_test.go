package restock

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/catalog"
)

type fakeSubscriptionRepo struct {
	mu     sync.Mutex
	subs   map[uint]*models.Subscription
	nextID uint
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: map[uint]*models.Subscription{}}
}

func (f *fakeSubscriptionRepo) add(sub models.Subscription) *models.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sub.ID = f.nextID
	stored := sub
	f.subs[sub.ID] = &stored
	return &sub
}

func (f *fakeSubscriptionRepo) get(id uint) *models.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.subs[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

func (f *fakeSubscriptionRepo) Upsert(sub *models.Subscription) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.SubscriptionMatchKey(sub.ShopID, sub.Phone, sub.ProductID, sub.VariantID)
	for _, existing := range f.subs {
		if existing.MatchKey == key {
			existing.ProductID = sub.ProductID
			existing.VariantID = sub.VariantID
			existing.InventoryItemID = sub.InventoryItemID
			existing.UpdatedAt = time.Now()
			*sub = *existing
			return false, nil
		}
	}
	f.nextID++
	sub.ID = f.nextID
	sub.MatchKey = key
	sub.CreatedAt = time.Now()
	cp := *sub
	f.subs[sub.ID] = &cp
	return true, nil
}

func (f *fakeSubscriptionRepo) GetByID(id uint) (*models.Subscription, error) {
	return f.get(id), nil
}

func (f *fakeSubscriptionRepo) FindPendingByInventoryItem(shopID uint, inventoryItemID string) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Subscription
	for _, s := range f.subs {
		if s.ShopID == shopID && s.InventoryItemID == inventoryItemID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSubscriptionRepo) FindUnresolvedByShop(shopID uint, limit int) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Subscription
	for _, s := range f.subs {
		if s.ShopID == shopID && s.InventoryItemID == "" && s.VariantID != "" {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSubscriptionRepo) StoreResolvedIdentifiers(id uint, productID, inventoryItemID, productTitle, productURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil
	}
	s.InventoryItemID = inventoryItemID
	if productID != "" {
		s.ProductID = productID
	}
	if productTitle != "" {
		s.ProductTitle = productTitle
	}
	if productURL != "" {
		s.ProductURL = productURL
	}
	return nil
}

func (f *fakeSubscriptionRepo) ClaimPing(id uint, prev *time.Time, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return false, nil
	}
	if (s.TemplateSentAt == nil) != (prev == nil) {
		return false, nil
	}
	if s.TemplateSentAt != nil && prev != nil && !s.TemplateSentAt.Equal(*prev) {
		return false, nil
	}
	s.AwaitingReply = true
	t := now
	s.TemplateSentAt = &t
	return true, nil
}

func (f *fakeSubscriptionRepo) ReleasePing(id uint, prev *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.subs[id]; ok {
		s.AwaitingReply = prev != nil
		s.TemplateSentAt = prev
	}
	return nil
}

func (f *fakeSubscriptionRepo) RecordInboundReply(phone string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.subs {
		if s.Phone == phone {
			t := at
			s.LastInboundAt = &t
			n++
		}
	}
	return n, nil
}

func (f *fakeSubscriptionRepo) LatestAwaitingReply(phone string) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.Subscription
	for _, s := range f.subs {
		if s.Phone != phone || !s.AwaitingReply || s.TemplateSentAt == nil {
			continue
		}
		if best == nil || s.TemplateSentAt.After(*best.TemplateSentAt) {
			best = s
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (f *fakeSubscriptionRepo) DeleteFulfilled(id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok || !s.AwaitingReply {
		return false, nil
	}
	delete(f.subs, id)
	return true, nil
}

func (f *fakeSubscriptionRepo) ListRecentByShop(shopID uint, limit int) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Subscription
	for _, s := range f.subs {
		if s.ShopID == shopID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeShopRepo struct {
	mu    sync.Mutex
	shops map[uint]*models.Shop
}

func newFakeShopRepo(shops ...*models.Shop) *fakeShopRepo {
	f := &fakeShopRepo{shops: map[uint]*models.Shop{}}
	for _, s := range shops {
		f.shops[s.ID] = s
	}
	return f
}

func (f *fakeShopRepo) Create(shop *models.Shop) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shops[shop.ID] = shop
	return nil
}

func (f *fakeShopRepo) GetByID(id uint) (*models.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.shops[id]
	return &cp, nil
}

func (f *fakeShopRepo) GetByDomain(domain string) (*models.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shops {
		if s.Domain == domain {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeShopRepo) GetByBillingCustomerRef(ref string) (*models.Shop, error) {
	return nil, nil
}

func (f *fakeShopRepo) GetByAPIKeyHash(hash string) (*models.Shop, error) {
	return nil, nil
}

func (f *fakeShopRepo) MarkLimitReached(id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.shops[id]
	if s.LimitReached {
		return false, nil
	}
	s.LimitReached = true
	return true, nil
}

func (f *fakeShopRepo) IncrementUsage(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shops[id].MonthlyUsage++
	return nil
}

func (f *fakeShopRepo) ApplyPlanChange(id uint, plan, billingCustomerRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.shops[id]
	s.Plan = plan
	s.MonthlyUsage = 0
	s.LimitReached = false
	s.TrialEndsAt = nil
	if billingCustomerRef != "" {
		s.BillingCustomerRef = billingCustomerRef
	}
	return nil
}

func (f *fakeShopRepo) SetUninstalled(domain string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.shops {
		if s.Domain == domain {
			t := at
			s.UninstalledAt = &t
		}
	}
	return nil
}

type fakeNotificationRepo struct {
	mu    sync.Mutex
	notes map[uint]*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notes: map[uint]*models.Notification{}}
}

func (f *fakeNotificationRepo) Create(n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.ID == 0 {
		n.ID = uint(len(f.notes) + 1)
	}
	cp := *n
	f.notes[n.ID] = &cp
	return nil
}

func (f *fakeNotificationRepo) OldestUnsent(shopID uint, contact, productID, variantID string) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.Notification
	for _, n := range f.notes {
		if n.ShopID != shopID || n.Contact != contact || n.Sent {
			continue
		}
		if variantID != "" && n.VariantID != variantID {
			continue
		}
		if variantID == "" && n.ProductID != productID {
			continue
		}
		if best == nil || n.CreatedAt.Before(best.CreatedAt) {
			best = n
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (f *fakeNotificationRepo) MarkSent(id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	if !ok || n.Sent {
		return false, nil
	}
	n.Sent = true
	return true, nil
}

func (f *fakeNotificationRepo) ListRecentByShop(shopID uint, limit int) ([]models.Notification, error) {
	return nil, nil
}

type fakeResolver struct {
	mu       sync.Mutex
	variants map[string]*catalog.VariantInfo
	calls    int
}

func (f *fakeResolver) ResolveVariant(ctx context.Context, shopDomain, accessToken, variantID string) (*catalog.VariantInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if info, ok := f.variants[variantID]; ok {
		cp := *info
		return &cp, nil
	}
	return nil, &catalog.LookupError{Shop: shopDomain, VariantID: variantID, Err: errors.New("not found")}
}

type sentMessage struct {
	To       string
	Body     string
	Template string
	Params   []string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendText(ctx context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Body: body})
	return "wamid.test", nil
}

func (f *fakeSender) SendTemplate(ctx context.Context, to, template string, params []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Template: template, Params: params})
	return "wamid.test", nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
