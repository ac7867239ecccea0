package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TypeCouponIncrementUsage identifies the usage counter increment task.
const TypeCouponIncrementUsage = "coupon:increment_usage"

// IncrementUsagePayload is the task payload for a usage increment.
type IncrementUsagePayload struct {
	CouponID string `json:"couponId"`
}

// NewIncrementUsageTask builds the asynq task for a coupon usage increment.
func NewIncrementUsageTask(couponID string) (*asynq.Task, error) {
	payload, err := json.Marshal(IncrementUsagePayload{CouponID: couponID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCouponIncrementUsage, payload, asynq.MaxRetry(5)), nil
}

// Enqueuer schedules background tasks. It satisfies the coupon engine's
// usage reporter so the increment never blocks or fails an apply.
type Enqueuer struct {
	Client *asynq.Client
}

// ReportUsage enqueues the increment task.
func (e Enqueuer) ReportUsage(ctx context.Context, couponID string) error {
	if e.Client == nil {
		return errors.New("jobs: asynq client not configured")
	}
	task, err := NewIncrementUsageTask(couponID)
	if err != nil {
		return err
	}
	if _, err := e.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeCouponIncrementUsage, err)
	}
	return nil
}

// UsageCounter applies the increment against the coupon store.
type UsageCounter interface {
	IncrementUsage(ctx context.Context, couponID string) error
}

// Handler processes background tasks in the worker.
type Handler struct {
	Usage  UsageCounter
	Logger *zerolog.Logger
}

// HandleIncrementUsage applies a usage increment task.
func (h Handler) HandleIncrementUsage(ctx context.Context, t *asynq.Task) error {
	if h.Usage == nil {
		return errors.New("jobs: usage counter not configured")
	}
	var payload IncrementUsagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", TypeCouponIncrementUsage, err)
	}
	if payload.CouponID == "" {
		return errors.New("jobs: coupon id is required")
	}
	if err := h.Usage.IncrementUsage(ctx, payload.CouponID); err != nil {
		if h.Logger != nil {
			h.Logger.Error().Err(err).Str("coupon_id", payload.CouponID).Msg("increment usage")
		}
		return err
	}
	return nil
}
