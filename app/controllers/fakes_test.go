package controllers

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/catalog"
)

type memSubscriptionRepo struct {
	mu      sync.Mutex
	subs    map[uint]*models.Subscription
	nextID  uint
	fail    error
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{subs: map[uint]*models.Subscription{}}
}

func (m *memSubscriptionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *memSubscriptionRepo) Upsert(sub *models.Subscription) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, m.fail
	}
	key := models.SubscriptionMatchKey(sub.ShopID, sub.Phone, sub.ProductID, sub.VariantID)
	for _, existing := range m.subs {
		if existing.MatchKey == key {
			existing.ProductID = sub.ProductID
			existing.VariantID = sub.VariantID
			existing.InventoryItemID = sub.InventoryItemID
			*sub = *existing
			return false, nil
		}
	}
	m.nextID++
	sub.ID = m.nextID
	sub.MatchKey = key
	sub.CreatedAt = time.Now()
	cp := *sub
	m.subs[sub.ID] = &cp
	return true, nil
}

func (m *memSubscriptionRepo) GetByID(id uint) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memSubscriptionRepo) FindPendingByInventoryItem(shopID uint, inventoryItemID string) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Subscription
	for _, s := range m.subs {
		if s.ShopID == shopID && s.InventoryItemID == inventoryItemID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memSubscriptionRepo) FindUnresolvedByShop(shopID uint, limit int) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Subscription
	for _, s := range m.subs {
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

func (m *memSubscriptionRepo) StoreResolvedIdentifiers(id uint, productID, inventoryItemID, productTitle, productURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
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

func (m *memSubscriptionRepo) ClaimPing(id uint, prev *time.Time, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return false, nil
	}
	s.AwaitingReply = true
	t := now
	s.TemplateSentAt = &t
	return true, nil
}

func (m *memSubscriptionRepo) ReleasePing(id uint, prev *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[id]; ok {
		s.AwaitingReply = prev != nil
		s.TemplateSentAt = prev
	}
	return nil
}

func (m *memSubscriptionRepo) RecordInboundReply(phone string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.subs {
		if s.Phone == phone {
			t := at
			s.LastInboundAt = &t
			n++
		}
	}
	return n, nil
}

func (m *memSubscriptionRepo) LatestAwaitingReply(phone string) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *models.Subscription
	for _, s := range m.subs {
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

func (m *memSubscriptionRepo) DeleteFulfilled(id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[id]; ok && s.AwaitingReply {
		delete(m.subs, id)
		return true, nil
	}
	return false, nil
}

func (m *memSubscriptionRepo) ListRecentByShop(shopID uint, limit int) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Subscription
	for _, s := range m.subs {
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

type memShopRepo struct {
	mu    sync.Mutex
	shops map[string]*models.Shop
}

func newMemShopRepo(shops ...*models.Shop) *memShopRepo {
	m := &memShopRepo{shops: map[string]*models.Shop{}}
	for _, s := range shops {
		m.shops[s.Domain] = s
	}
	return m
}

func (m *memShopRepo) Create(shop *models.Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shops[shop.Domain] = shop
	return nil
}

func (m *memShopRepo) GetByID(id uint) (*models.Shop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shops {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memShopRepo) GetByDomain(domain string) (*models.Shop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.shops[domain]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memShopRepo) GetByAPIKeyHash(hash string) (*models.Shop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shops {
		if s.APIKeyHash != "" && s.APIKeyHash == hash {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memShopRepo) GetByBillingCustomerRef(ref string) (*models.Shop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shops {
		if s.BillingCustomerRef == ref {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memShopRepo) MarkLimitReached(id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shops {
		if s.ID == id && !s.LimitReached {
			s.LimitReached = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memShopRepo) IncrementUsage(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shops {
		if s.ID == id {
			s.MonthlyUsage++
		}
	}
	return nil
}

func (m *memShopRepo) ApplyPlanChange(id uint, plan, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shops {
		if s.ID == id {
			s.Plan = plan
			s.MonthlyUsage = 0
			s.LimitReached = false
			s.TrialEndsAt = nil
			if ref != "" {
				s.BillingCustomerRef = ref
			}
		}
	}
	return nil
}

func (m *memShopRepo) SetUninstalled(domain string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.shops[domain]; ok {
		t := at
		s.UninstalledAt = &t
	}
	return nil
}

type memReceiptRepo struct {
	mu   sync.Mutex
	seen map[string]string
	err  error
}

func newMemReceiptRepo() *memReceiptRepo {
	return &memReceiptRepo{seen: map[string]string{}}
}

func (m *memReceiptRepo) FirstSeen(ctx context.Context, deliveryID, topic string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.seen[deliveryID]; ok {
		return false, nil
	}
	m.seen[deliveryID] = topic
	return true, nil
}

type stubResolver struct {
	info *catalog.VariantInfo
	err  error
}

func (s *stubResolver) ResolveVariant(ctx context.Context, shopDomain, accessToken, variantID string) (*catalog.VariantInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingSender) SendText(ctx context.Context, to, body string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.sent = append(r.sent, body)
	return "wamid.test", nil
}

func (r *recordingSender) SendTemplate(ctx context.Context, to, template string, params []string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.sent = append(r.sent, template)
	return "wamid.test", nil
}

func (r *recordingSender) sentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}
