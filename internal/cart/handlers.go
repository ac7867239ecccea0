package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-cart/internal/buyer"
	"github.com/noah-isme/backend-cart/internal/common"
	"github.com/noah-isme/backend-cart/internal/pricing"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
	Summary  pricing.SummaryConfig
	Currency string
}

type addItemPayload struct {
	ProductID string        `json:"productId" validate:"required"`
	Qty       int           `json:"qty" validate:"required,min=1"`
	Offer     *offerPayload `json:"offer,omitempty"`
}

type offerPayload struct {
	ID         string     `json:"id" validate:"required"`
	Kind       string     `json:"kind" validate:"required"`
	Value      string     `json:"value" validate:"required"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

type updateItemPayload struct {
	Qty int `json:"qty" validate:"min=0"`
}

// View builds the canonical cart response body from the current lines and
// applied coupon.
func View(lines []LineItem, coupon *AppliedCoupon, cfg pricing.SummaryConfig, currency string) map[string]any {
	items := make([]pricing.Item, 0, len(lines))
	for _, li := range lines {
		items = append(items, pricing.Item{Quantity: li.Quantity, TotalPrice: li.TotalPrice})
	}
	discount := decimal.Zero
	var coupons []AppliedCoupon
	if coupon != nil {
		discount = coupon.DiscountAmount
		view := *coupon
		view.PriorPricing = nil
		coupons = append(coupons, view)
	}
	summary := pricing.Summarize(items, discount, cfg)
	if lines == nil {
		lines = []LineItem{}
	}
	return map[string]any{
		"items":    lines,
		"coupons":  coupons,
		"pricing":  summary,
		"currency": currency,
	}
}

// Get returns the cart contents and summary for the current buyer.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}
	h.render(w, r, b, http.StatusOK)
}

// AddItem adds or merges a line item.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}
	var payload addItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
	}
	offer, err := payload.offerContext()
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if _, err := h.Svc.Add(r.Context(), b, strings.TrimSpace(payload.ProductID), payload.Qty, offer); err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, r, b, http.StatusOK)
}

// UpdateItem changes a line's quantity. Quantity zero removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemId")
	var payload updateItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
	}
	if _, err := h.Svc.UpdateQuantity(r.Context(), b, itemID, payload.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, r, b, http.StatusOK)
}

// RemoveItem deletes a line item. Removing an absent line succeeds.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemId")
	if _, err := h.Svc.Remove(r.Context(), b, itemID); err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, r, b, http.StatusOK)
}

// Clear empties the cart and drops any applied coupon.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Clear(r.Context(), b); err != nil {
		h.writeError(w, err)
		return
	}
	h.render(w, r, b, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, b buyer.Identity, status int) {
	lines := h.Svc.Load(r.Context(), b)
	coupon := h.Svc.Coupon(r.Context(), b)
	common.JSON(w, status, map[string]any{"data": View(lines, coupon, h.Summary, h.Currency)})
}

func (h *Handler) requireBuyer(w http.ResponseWriter, r *http.Request) (buyer.Identity, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return buyer.Identity{}, false
	}
	b, ok := buyer.FromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "buyer identity missing", nil)
		return buyer.Identity{}, false
	}
	return b, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrProductNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrLineNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrPersistenceUnavailable):
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "cart storage unavailable", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}

func (p addItemPayload) offerContext() (*OfferContext, error) {
	if p.Offer == nil {
		return nil, nil
	}
	kind, err := pricing.ParseDiscountKind(p.Offer.Kind)
	if err != nil {
		return nil, err
	}
	value, err := decimal.NewFromString(p.Offer.Value)
	if err != nil {
		return nil, errors.New("invalid offer value")
	}
	return &OfferContext{
		ID:         p.Offer.ID,
		Discount:   pricing.Discount{Kind: kind, Value: value},
		ValidUntil: p.Offer.ValidUntil,
	}, nil
}
