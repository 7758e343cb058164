package services

import (
	"context"
	"time"

	"booking-service/domain"
)

// RateService looks up the nightly rates for a room over a date range and
// produces the StayPricing the checkout works with. Dates without a rate
// document fall back to the room's base rate.
type RateService interface {
	GetPricing(ctx context.Context, room *domain.Room, checkIn, checkOut time.Time) (*domain.StayPricing, error)
}
