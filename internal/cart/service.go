package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-cart/internal/buyer"
	"github.com/noah-isme/backend-cart/internal/catalog"
	"github.com/noah-isme/backend-cart/internal/obs"
	"github.com/noah-isme/backend-cart/internal/pricing"
)

// Service owns the authoritative list of cart line items for a buyer. All
// mutations reprice through the resolver and persist the full line list.
type Service struct {
	Products catalog.ProductStore
	Tiers    catalog.TierStore
	Store    Store
	Logger   *zerolog.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) log() *zerolog.Logger {
	if s != nil && s.Logger != nil {
		return s.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// Add resolves pricing for the product and inserts a new line, or merges into
// the existing line for the same product. The merged unit price never
// increases and the retail price never decreases.
func (s *Service) Add(ctx context.Context, b buyer.Identity, productID string, qty int, offer *OfferContext) ([]LineItem, error) {
	if s == nil || s.Store == nil || s.Products == nil {
		return nil, errors.New("cart service not configured")
	}
	if qty < 1 {
		return nil, fmt.Errorf("qty %d: %w", qty, ErrInvalidQuantity)
	}

	product, err := s.Products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
		}
		return nil, fmt.Errorf("lookup product: %w", err)
	}

	var tiers []pricing.Tier
	if b.IsCompany() && s.Tiers != nil {
		tiers, err = s.Tiers.GetTiers(ctx, b.CompanyID, productID)
		if err != nil {
			// Missing company pricing degrades to retail, it never fails the add.
			s.log().Warn().Err(err).Str("company_id", b.CompanyID).Str("product_id", productID).
				Msg("company tier lookup failed, using retail price")
			tiers = nil
		}
	}

	var offerDiscount *pricing.Discount
	if offer != nil {
		offerDiscount = &offer.Discount
	}
	res := pricing.Resolve(product.Price, tiers, offerDiscount, nil)

	line := LineItem{
		ID:           uuid.NewString(),
		ProductID:    product.ID,
		Name:         product.Name,
		SKU:          product.SKU,
		ImageURL:     product.ImageURL,
		Quantity:     qty,
		UnitPrice:    res.UnitPrice,
		RetailPrice:  res.RetailPrice,
		MinimumOrder: product.MinimumOrder,
		AddedAt:      s.now(),
	}
	if offer != nil && res.OfferSavingsPerUnit.IsPositive() {
		line.AppliedOfferID = offer.ID
		discount := offer.Discount
		line.AppliedOfferDiscount = &discount
		line.AppliedOfferValidUntil = offer.ValidUntil
	}
	line.RecomputeTotals(res.TierSavingsPerUnit)

	lines := s.loadLines(ctx, b)
	merged := false
	for i := range lines {
		if lines[i].ProductID == product.ID {
			lines[i] = MergeLines(lines[i], line)
			merged = true
			break
		}
	}
	if !merged {
		lines = append(lines, line)
	}

	if err := s.Store.SaveLines(ctx, b.Key(), lines); err != nil {
		obs.IncCartPersistenceError()
		obs.IncCartMutation("add", "error")
		return nil, err
	}
	obs.IncCartMutation("add", "ok")
	return lines, nil
}

// UpdateQuantity changes the quantity on an existing line. A quantity of zero
// removes the line. The agreed unit price never changes on a quantity update.
func (s *Service) UpdateQuantity(ctx context.Context, b buyer.Identity, lineID string, qty int) ([]LineItem, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	if qty < 0 {
		return nil, fmt.Errorf("qty %d: %w", qty, ErrInvalidQuantity)
	}
	if qty == 0 {
		return s.Remove(ctx, b, lineID)
	}

	lines := s.loadLines(ctx, b)
	found := false
	for i := range lines {
		if lines[i].ID != lineID {
			continue
		}
		tierPerUnit := lines[i].TierSavingsPerUnit()
		lines[i].Quantity = qty
		lines[i].RecomputeTotals(tierPerUnit)
		found = true
		break
	}
	if !found {
		return nil, fmt.Errorf("line %s: %w", lineID, ErrLineNotFound)
	}
	if err := s.Store.SaveLines(ctx, b.Key(), lines); err != nil {
		obs.IncCartPersistenceError()
		obs.IncCartMutation("update", "error")
		return nil, err
	}
	obs.IncCartMutation("update", "ok")
	return lines, nil
}

// Remove deletes a line. Removing an absent line is a no-op so the operation
// is idempotent.
func (s *Service) Remove(ctx context.Context, b buyer.Identity, lineID string) ([]LineItem, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	lines := s.loadLines(ctx, b)
	kept := lines[:0]
	removed := false
	for _, li := range lines {
		if li.ID == lineID {
			removed = true
			continue
		}
		kept = append(kept, li)
	}
	if !removed {
		return lines, nil
	}
	if err := s.Store.SaveLines(ctx, b.Key(), kept); err != nil {
		obs.IncCartPersistenceError()
		obs.IncCartMutation("remove", "error")
		return nil, err
	}
	obs.IncCartMutation("remove", "ok")
	return kept, nil
}

// Clear empties the cart and drops any applied coupon.
func (s *Service) Clear(ctx context.Context, b buyer.Identity) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	if err := s.Store.Clear(ctx, b.Key()); err != nil {
		obs.IncCartPersistenceError()
		obs.IncCartMutation("clear", "error")
		return err
	}
	obs.IncCartMutation("clear", "ok")
	return nil
}

// Load returns the persisted lines for the buyer, rehydrated defensively.
// Persistence failures on read degrade to an empty cart.
func (s *Service) Load(ctx context.Context, b buyer.Identity) []LineItem {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.loadLines(ctx, b)
}

// Coupon returns the applied coupon for the buyer, if any. Read failures
// degrade to no coupon.
func (s *Service) Coupon(ctx context.Context, b buyer.Identity) *AppliedCoupon {
	if s == nil || s.Store == nil {
		return nil
	}
	coupon, err := s.Store.LoadCoupon(ctx, b.Key())
	if err != nil {
		s.log().Warn().Err(err).Str("buyer", b.Key()).Msg("coupon read failed, treating as absent")
		return nil
	}
	return coupon
}

func (s *Service) loadLines(ctx context.Context, b buyer.Identity) []LineItem {
	raw, err := s.Store.LoadLines(ctx, b.Key())
	if err != nil {
		s.log().Warn().Err(err).Str("buyer", b.Key()).Msg("cart read failed, starting empty")
		return nil
	}
	now := s.now()
	lines := raw[:0]
	for _, li := range raw {
		if li.normalize(now) {
			lines = append(lines, li)
		}
	}
	return lines
}
