package services

import (
	"context"

	"booking-service/domain"
)

// CouponService validates a code against the session's eligibility and
// returns a discount amount computed for the given pre-discount subtotal.
// It holds no per-session state: callers must re-invoke it (or re-run the
// session reducer) whenever the subtotal changes.
type CouponService interface {
	Evaluate(ctx context.Context, code string, eligibility domain.CouponEligibility, subtotal float64) (*domain.AppliedCoupon, error)
}
