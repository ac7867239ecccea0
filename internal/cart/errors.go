package cart

import "errors"

// ErrProductNotFound indicates the product lookup returned nothing.
var ErrProductNotFound = errors.New("product not found")

// ErrInvalidQuantity is returned when a quantity below one is requested.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// ErrLineNotFound indicates no cart line matches the given id.
var ErrLineNotFound = errors.New("cart line not found")

// ErrPersistenceUnavailable wraps failures talking to the cart store.
var ErrPersistenceUnavailable = errors.New("cart persistence unavailable")
