package services

import (
	"context"
	"time"

	"booking-service/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStore keeps checkout sessions for the duration of checkout only.
type SessionStore interface {
	Get(id string) (*domain.CheckoutSession, error)
	Save(session *domain.CheckoutSession) error
	Delete(id string) error
}

// CheckoutService drives the step progression and keeps the session's
// derived totals consistent with every input change. All mutation goes
// through the domain reducer, so a caller can never observe a total that
// predates the inputs it was shown with.
type CheckoutService interface {
	StartSession(ctx context.Context) (*domain.CheckoutSession, error)
	GetSession(ctx context.Context, id string) (*domain.CheckoutSession, error)
	SetDates(ctx context.Context, id string, checkIn, checkOut time.Time) (*domain.CheckoutSession, error)
	AddRoom(ctx context.Context, id string, roomID primitive.ObjectID, adults int, childAges []int) (*domain.CheckoutSession, error)
	RemoveRoom(ctx context.Context, id string, roomID primitive.ObjectID) (*domain.CheckoutSession, error)
	UpdateGuests(ctx context.Context, id string, roomID primitive.ObjectID, adults int, childAges []int) (*domain.CheckoutSession, error)
	SetAddon(ctx context.Context, id string, addonID primitive.ObjectID, quantity int) (*domain.CheckoutSession, error)
	SetGuestDetails(ctx context.Context, id string, guest domain.GuestDetails) (*domain.CheckoutSession, error)
	ApplyCoupon(ctx context.Context, id string, code string) (*domain.CheckoutSession, error)
	RemoveCoupon(ctx context.Context, id string) (*domain.CheckoutSession, error)
	ReloadPricing(ctx context.Context, id string) (*domain.CheckoutSession, error)
	Advance(ctx context.Context, id string) (*domain.CheckoutSession, error)
	Back(ctx context.Context, id string) (*domain.CheckoutSession, error)
}
