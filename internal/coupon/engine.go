package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/buyer"
	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/obs"
	"github.com/noah-isme/backend-cart/internal/pricing"
)

// ErrInvalid is returned when the validation collaborator rejects the code.
var ErrInvalid = errors.New("coupon invalid")

// ErrAlreadyApplied enforces the single active coupon per cart.
var ErrAlreadyApplied = errors.New("a coupon is already applied, remove it first")

// ErrNotFound indicates no matching applied coupon exists for the buyer.
var ErrNotFound = errors.New("coupon not found")

// ApplyResult is the outcome of a successful coupon application.
type ApplyResult struct {
	Coupon cart.AppliedCoupon
	Lines  []cart.LineItem
	// DiscountAmount is the effective reduction: the validated cart-wide
	// amount, or the aggregate line-level price drop for per-product coupons.
	DiscountAmount decimal.Decimal
}

// Engine validates and applies coupons on top of the cart's current lines,
// and reverses the re-pricing on removal.
type Engine struct {
	Validator Validator
	Store     cart.Store
	Usage     UsageReporter
	Logger    *zerolog.Logger
	Now       func() time.Time
}

func (e *Engine) now() time.Time {
	if e != nil && e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) log() *zerolog.Logger {
	if e != nil && e.Logger != nil {
		return e.Logger
	}
	nop := zerolog.Nop()
	return &nop
}

// Apply validates the code, enforces the single-coupon invariant, re-prices
// lines covered by per-product overrides, and persists the coupon and lines.
// The usage counter increment is fire-and-forget.
func (e *Engine) Apply(ctx context.Context, b buyer.Identity, code string, lines []cart.LineItem) (ApplyResult, error) {
	if e == nil || e.Validator == nil || e.Store == nil {
		return ApplyResult{}, errors.New("coupon engine not configured")
	}

	vr, err := e.Validator.Validate(ctx, code, lines, b.UserID)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("validate coupon: %w", err)
	}
	if !vr.Valid || vr.Coupon == nil {
		msg := vr.ErrorMessage
		if msg == "" {
			msg = "coupon code is not valid"
		}
		obs.IncCouponApply("invalid")
		return ApplyResult{}, fmt.Errorf("%s: %w", msg, ErrInvalid)
	}

	existing, err := e.Store.LoadCoupon(ctx, b.Key())
	if err != nil {
		e.log().Warn().Err(err).Str("buyer", b.Key()).Msg("coupon read failed, treating as absent")
		existing = nil
	}
	if existing != nil {
		obs.IncCouponApply("conflict")
		return ApplyResult{}, fmt.Errorf("coupon %s: %w", existing.Code, ErrAlreadyApplied)
	}

	applied := cart.AppliedCoupon{
		ID:            vr.Coupon.ID,
		Code:          vr.Coupon.Code,
		Discount:      vr.Coupon.Discount,
		AppliedAt:     e.now(),
		LinkedOfferID: vr.Coupon.LinkedOfferID,
	}
	if applied.ID == "" {
		applied.ID = uuid.NewString()
	}

	effective := vr.DiscountAmount
	if effective.IsNegative() {
		effective = decimal.Zero
	}

	if len(vr.Coupon.Overrides) > 0 {
		lines, effective = e.repriceOverrides(&applied, vr.Coupon, lines)
		// Line prices already carry the reduction; a cart-wide amount on top
		// would double count in the summary.
		applied.DiscountAmount = decimal.Zero
	} else {
		applied.DiscountAmount = effective
	}

	// The coupon record carries the restore snapshot and goes first: a failed
	// line write leaves the pre-apply cart intact behind a removable coupon.
	if err := e.Store.SaveCoupon(ctx, b.Key(), applied); err != nil {
		obs.IncCouponApply("error")
		return ApplyResult{}, err
	}
	if err := e.Store.SaveLines(ctx, b.Key(), lines); err != nil {
		obs.IncCouponApply("error")
		return ApplyResult{}, err
	}

	if e.Usage != nil {
		if err := e.Usage.ReportUsage(ctx, applied.ID); err != nil {
			e.log().Error().Err(err).Str("coupon_id", applied.ID).Msg("usage increment failed")
		}
	}

	obs.IncCouponApply("ok")
	return ApplyResult{Coupon: applied, Lines: lines, DiscountAmount: effective}, nil
}

// Remove reverses the coupon's re-pricing: every line it touched is restored
// to its exact pre-apply pricing state, and the coupon record is deleted.
func (e *Engine) Remove(ctx context.Context, b buyer.Identity, couponID string, lines []cart.LineItem) ([]cart.LineItem, error) {
	if e == nil || e.Store == nil {
		return nil, errors.New("coupon engine not configured")
	}
	applied, err := e.Store.LoadCoupon(ctx, b.Key())
	if err != nil {
		e.log().Warn().Err(err).Str("buyer", b.Key()).Msg("coupon read failed, treating as absent")
		applied = nil
	}
	if applied == nil || applied.ID != couponID {
		obs.IncCouponRemove("not_found")
		return nil, fmt.Errorf("coupon %s: %w", couponID, ErrNotFound)
	}

	for i := range lines {
		if snap, ok := applied.PriorPricing[lines[i].ID]; ok {
			lines[i].Restore(snap)
			continue
		}
		// A line stamped by this coupon but missing from the snapshot falls
		// back to its retail price with the offer state cleared.
		if applied.LinkedOfferID != "" && lines[i].AppliedOfferID == applied.LinkedOfferID {
			lines[i].UnitPrice = lines[i].RetailPrice
			lines[i].AppliedOfferID = ""
			lines[i].AppliedOfferDiscount = nil
			lines[i].AppliedOfferValidUntil = nil
			lines[i].RecomputeTotals(decimal.Zero)
		}
	}

	// The record is deleted last: its snapshot stays available for a retried
	// removal if either write fails.
	if err := e.Store.SaveLines(ctx, b.Key(), lines); err != nil {
		obs.IncCouponRemove("error")
		return nil, err
	}
	if err := e.Store.DeleteCoupon(ctx, b.Key()); err != nil {
		obs.IncCouponRemove("error")
		return nil, err
	}
	obs.IncCouponRemove("ok")
	return lines, nil
}

// repriceOverrides resets each covered line to its retail price, applies the
// override discount plus the coupon's own discount through the resolver, and
// records a snapshot so removal can restore the prior state. Lines without an
// override keep their pre-coupon price.
func (e *Engine) repriceOverrides(applied *cart.AppliedCoupon, vc *ValidatedCoupon, lines []cart.LineItem) ([]cart.LineItem, decimal.Decimal) {
	overrides := make(map[string]pricing.Discount, len(vc.Overrides))
	for _, ov := range vc.Overrides {
		overrides[ov.ProductID] = ov.Discount
	}

	applied.PriorPricing = make(map[string]cart.LineSnapshot)
	saved := decimal.Zero
	for i := range lines {
		discount, ok := overrides[lines[i].ProductID]
		if !ok {
			continue
		}
		applied.PriorPricing[lines[i].ID] = lines[i].Snapshot()
		before := lines[i].TotalPrice

		res := pricing.Resolve(lines[i].RetailPrice, nil, &discount, &vc.Discount)
		lines[i].UnitPrice = res.UnitPrice
		lines[i].AppliedOfferID = vc.LinkedOfferID
		stamped := discount
		lines[i].AppliedOfferDiscount = &stamped
		lines[i].AppliedOfferValidUntil = vc.ValidUntil
		lines[i].RecomputeTotals(decimal.Zero)

		delta := before.Sub(lines[i].TotalPrice)
		if delta.IsPositive() {
			saved = saved.Add(delta)
		}
	}
	return lines, saved
}
