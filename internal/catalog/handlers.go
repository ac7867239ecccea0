package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-cart/internal/common"
)

// Handler exposes read-only catalog endpoints.
type Handler struct {
	Products ProductStore
}

// Get returns a single product.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Products == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "product id is required", nil)
		return
	}
	product, err := h.Products.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load product", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}
