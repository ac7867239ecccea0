package cart

import "context"

// Store is the durable cart persistence collaborator, keyed by buyer
// identity. Writes are full-replace: every mutation rewrites the entire line
// list, which sidesteps partial-update races at the cost of last-write-wins
// between concurrent sessions.
type Store interface {
	LoadLines(ctx context.Context, buyerKey string) ([]LineItem, error)
	SaveLines(ctx context.Context, buyerKey string, lines []LineItem) error
	LoadCoupon(ctx context.Context, buyerKey string) (*AppliedCoupon, error)
	SaveCoupon(ctx context.Context, buyerKey string, coupon AppliedCoupon) error
	DeleteCoupon(ctx context.Context, buyerKey string) error
	Clear(ctx context.Context, buyerKey string) error
}
