package services

import (
	"context"

	"booking-service/domain"
)

// RetryResolution is a checkout session rebuilt from a previously abandoned
// or failed booking, re-priced against current rates. PricingChanged is set
// when the new grand total drifts from the frozen one by more than the
// configured threshold, so the caller can warn the guest before they pay.
type RetryResolution struct {
	Session        *domain.CheckoutSession `json:"session"`
	Booking        *domain.Booking         `json:"booking"`
	PricingChanged bool                    `json:"pricing_changed"`
	OriginalTotal  float64                 `json:"original_total"`
	NewTotal       float64                 `json:"new_total"`
}

type RetryService interface {
	Resolve(ctx context.Context, bookingID string) (*RetryResolution, error)
}
