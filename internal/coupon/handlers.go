package coupon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-cart/internal/buyer"
	"github.com/noah-isme/backend-cart/internal/cart"
	"github.com/noah-isme/backend-cart/internal/common"
	"github.com/noah-isme/backend-cart/internal/pricing"
)

// Handler wires the coupon engine to HTTP.
type Handler struct {
	Engine   *Engine
	CartSvc  *cart.Service
	Validate *validator.Validate
	Summary  pricing.SummaryConfig
	Currency string
}

type applyPayload struct {
	Code string `json:"code" validate:"required"`
}

// Apply validates and applies a coupon code to the current cart.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}
	var payload applyPayload
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
	lines := h.CartSvc.Load(r.Context(), b)
	result, err := h.Engine.Apply(r.Context(), b, strings.TrimSpace(payload.Code), lines)
	if err != nil {
		h.writeError(w, err)
		return
	}
	coupon := result.Coupon
	coupon.PriorPricing = nil
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"coupon":   coupon,
		"discount": result.DiscountAmount,
		"cart":     cart.View(result.Lines, &result.Coupon, h.Summary, h.Currency),
	}})
}

// Remove reverses a coupon application.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBuyer(w, r)
	if !ok {
		return
	}
	couponID := chi.URLParam(r, "couponId")
	lines := h.CartSvc.Load(r.Context(), b)
	updated, err := h.Engine.Remove(r.Context(), b, couponID, lines)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"coupon": nil,
		"cart":   cart.View(updated, nil, h.Summary, h.Currency),
	}})
}

func (h *Handler) requireBuyer(w http.ResponseWriter, r *http.Request) (buyer.Identity, bool) {
	if h.Engine == nil || h.CartSvc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon engine not configured", nil)
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
	switch {
	case errors.Is(err, ErrInvalid):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_INVALID", err.Error(), nil)
	case errors.Is(err, ErrAlreadyApplied):
		common.JSONError(w, http.StatusConflict, "COUPON_ALREADY_APPLIED", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "COUPON_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, cart.ErrPersistenceUnavailable):
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "cart storage unavailable", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
