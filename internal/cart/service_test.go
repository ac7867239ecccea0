package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-cart/internal/buyer"
	"github.com/noah-isme/backend-cart/internal/catalog"
	"github.com/noah-isme/backend-cart/internal/pricing"
)

type stubProducts struct {
	products map[string]*catalog.Product
}

func (s *stubProducts) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, catalog.ErrNotFound
}

type stubTiers struct {
	tiers map[string][]pricing.Tier
	err   error
}

func (s *stubTiers) GetTiers(_ context.Context, companyID, productID string) ([]pricing.Tier, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tiers[companyID+"/"+productID], nil
}

type memStore struct {
	lines    map[string][]LineItem
	coupons  map[string]*AppliedCoupon
	loadErr  error
	saveErr  error
	saveCnt  int
	clearCnt int
}

func newMemStore() *memStore {
	return &memStore{lines: map[string][]LineItem{}, coupons: map[string]*AppliedCoupon{}}
}

func (m *memStore) LoadLines(_ context.Context, key string) ([]LineItem, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.lines[key], nil
}

func (m *memStore) SaveLines(_ context.Context, key string, lines []LineItem) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saveCnt++
	m.lines[key] = lines
	return nil
}

func (m *memStore) LoadCoupon(_ context.Context, key string) (*AppliedCoupon, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.coupons[key], nil
}

func (m *memStore) SaveCoupon(_ context.Context, key string, c AppliedCoupon) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.coupons[key] = &c
	return nil
}

func (m *memStore) DeleteCoupon(_ context.Context, key string) error {
	delete(m.coupons, key)
	return nil
}

func (m *memStore) Clear(_ context.Context, key string) error {
	m.clearCnt++
	delete(m.lines, key)
	delete(m.coupons, key)
	return nil
}

func newTestService(store Store, tiers catalog.TierStore) *Service {
	return &Service{
		Products: &stubProducts{products: map[string]*catalog.Product{
			"p1": {ID: "p1", SKU: "SKU-1", Name: "Widget", Price: dec("100"), MinimumOrder: 1},
			"p2": {ID: "p2", SKU: "SKU-2", Name: "Gadget", Price: dec("50"), MinimumOrder: 2},
		}},
		Tiers: tiers,
		Store: store,
		Now:   func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestAddRetailBuyer(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)
	b := buyer.Identity{UserID: "u1"}

	lines, err := svc.Add(context.Background(), b, "p1", 2, nil)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].UnitPrice.Equal(dec("100")))
	assert.True(t, lines[0].TotalPrice.Equal(dec("200")))
	assert.True(t, lines[0].SavingsTotal.IsZero())
}

func TestAddCompanyBuyerUsesTierPrice(t *testing.T) {
	store := newMemStore()
	tiers := &stubTiers{tiers: map[string][]pricing.Tier{
		"c1/p1": {{QuantityThreshold: 1, Price: dec("80")}},
	}}
	svc := newTestService(store, tiers)
	b := buyer.Identity{UserID: "u1", CompanyID: "c1"}

	lines, err := svc.Add(context.Background(), b, "p1", 1, nil)
	require.NoError(t, err)
	assert.True(t, lines[0].UnitPrice.Equal(dec("80")))
	assert.True(t, lines[0].SavingsTotal.Equal(dec("20")))
	assert.True(t, lines[0].AdditionalSavingsTotal.IsZero())
}

func TestAddTierLookupFailureFallsBackToRetail(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &stubTiers{err: errors.New("db down")})
	b := buyer.Identity{UserID: "u1", CompanyID: "c1"}

	lines, err := svc.Add(context.Background(), b, "p1", 1, nil)
	require.NoError(t, err)
	assert.True(t, lines[0].UnitPrice.Equal(dec("100")))
}

func TestAddOfferStampsLine(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)
	b := buyer.Identity{UserID: "u1"}
	offer := &OfferContext{
		ID:       "offer-1",
		Discount: pricing.Discount{Kind: pricing.DiscountFixedAmount, Value: dec("10")},
	}

	lines, err := svc.Add(context.Background(), b, "p2", 1, offer)
	require.NoError(t, err)
	assert.True(t, lines[0].UnitPrice.Equal(dec("40")))
	assert.Equal(t, "offer-1", lines[0].AppliedOfferID)
	require.NotNil(t, lines[0].AppliedOfferDiscount)
}

func TestAddIneffectiveOfferNotStamped(t *testing.T) {
	store := newMemStore()
	tiers := &stubTiers{tiers: map[string][]pricing.Tier{
		"c1/p1": {{QuantityThreshold: 1, Price: dec("80")}},
	}}
	svc := newTestService(store, tiers)
	b := buyer.Identity{UserID: "u1", CompanyID: "c1"}
	offer := &OfferContext{
		ID:       "offer-1",
		Discount: pricing.Discount{Kind: pricing.DiscountPercentage, Value: dec("15")},
	}

	lines, err := svc.Add(context.Background(), b, "p1", 1, offer)
	require.NoError(t, err)
	// 85 after the offer loses to the standing company rate 80.
	assert.True(t, lines[0].UnitPrice.Equal(dec("80")))
	assert.Empty(t, lines[0].AppliedOfferID)
}

func TestAddMergesSameProduct(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)
	b := buyer.Identity{UserID: "u1"}

	_, err := svc.Add(context.Background(), b, "p1", 2, nil)
	require.NoError(t, err)
	lines, err := svc.Add(context.Background(), b, "p1", 3, nil)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestAddRejectsInvalidQuantity(t *testing.T) {
	svc := newTestService(newMemStore(), nil)
	_, err := svc.Add(context.Background(), buyer.Identity{UserID: "u1"}, "p1", 0, nil)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddUnknownProduct(t *testing.T) {
	svc := newTestService(newMemStore(), nil)
	_, err := svc.Add(context.Background(), buyer.Identity{UserID: "u1"}, "nope", 1, nil)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateQuantityKeepsAgreedUnitPrice(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)
	b := buyer.Identity{UserID: "u1"}
	offer := &OfferContext{
		ID:       "offer-1",
		Discount: pricing.Discount{Kind: pricing.DiscountFixedAmount, Value: dec("10")},
	}
	lines, err := svc.Add(context.Background(), b, "p2", 1, offer)
	require.NoError(t, err)

	lines, err = svc.UpdateQuantity(context.Background(), b, lines[0].ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, lines[0].Quantity)
	assert.True(t, lines[0].UnitPrice.Equal(dec("40")))
	assert.True(t, lines[0].TotalPrice.Equal(dec("160")))
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)
	b := buyer.Identity{UserID: "u1"}
	lines, err := svc.Add(context.Background(), b, "p1", 1, nil)
	require.NoError(t, err)

	lines, err = svc.UpdateQuantity(context.Background(), b, lines[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestUpdateQuantityUnknownLine(t *testing.T) {
	svc := newTestService(newMemStore(), nil)
	_, err := svc.UpdateQuantity(context.Background(), buyer.Identity{UserID: "u1"}, "missing", 2)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)
	b := buyer.Identity{UserID: "u1"}
	lines, err := svc.Add(context.Background(), b, "p1", 1, nil)
	require.NoError(t, err)
	saves := store.saveCnt

	lines, err = svc.Remove(context.Background(), b, lines[0].ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Equal(t, saves+1, store.saveCnt)

	lines, err = svc.Remove(context.Background(), b, "already-gone")
	require.NoError(t, err)
	assert.Empty(t, lines)
	// Removing an absent line must not rewrite the cart.
	assert.Equal(t, saves+1, store.saveCnt)
}

func TestLoadDegradesToEmptyOnReadFailure(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("redis down")
	svc := newTestService(store, nil)

	lines := svc.Load(context.Background(), buyer.Identity{UserID: "u1"})
	assert.Empty(t, lines)
}

func TestAddPropagatesWriteFailure(t *testing.T) {
	store := newMemStore()
	store.saveErr = ErrPersistenceUnavailable
	svc := newTestService(store, nil)

	_, err := svc.Add(context.Background(), buyer.Identity{UserID: "u1"}, "p1", 1, nil)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
}

func TestClearDropsLinesAndCoupon(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)
	b := buyer.Identity{UserID: "u1"}
	_, err := svc.Add(context.Background(), b, "p1", 1, nil)
	require.NoError(t, err)
	store.coupons[b.Key()] = &AppliedCoupon{ID: "c1", DiscountAmount: decimal.Zero}

	require.NoError(t, svc.Clear(context.Background(), b))
	assert.Empty(t, store.lines[b.Key()])
	assert.Nil(t, store.coupons[b.Key()])
}
