package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"booking-service/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type RetryServiceImpl struct {
	store          BookingStore
	sessions       SessionStore
	rooms          RoomService
	rates          RateService
	availability   AvailabilityService
	coupons        CouponService
	maxRetries     int
	driftThreshold float64
	logger         *logrus.Logger
	Tracer         trace.Tracer
}

func NewRetryServiceImpl(
	store BookingStore,
	sessions SessionStore,
	rooms RoomService,
	rates RateService,
	availability AvailabilityService,
	coupons CouponService,
	maxRetries int,
	driftThreshold float64,
	logger *logrus.Logger,
	tracer trace.Tracer,
) RetryService {
	return &RetryServiceImpl{
		store:          store,
		sessions:       sessions,
		rooms:          rooms,
		rates:          rates,
		availability:   availability,
		coupons:        coupons,
		maxRetries:     maxRetries,
		driftThreshold: driftThreshold,
		logger:         logger,
		Tracer:         tracer,
	}
}

// Resolve rebuilds a checkout session from a booking's frozen line items,
// re-priced against current rates and add-on prices, and resets the booking
// for another payment attempt under the same reference.
func (s *RetryServiceImpl) Resolve(ctx context.Context, bookingID string) (*RetryResolution, error) {
	ctx, span := s.Tracer.Start(ctx, "RetryService.Resolve")
	defer span.End()

	booking, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if booking.CheckIn.Before(today) {
		return nil, domain.ErrBookingExpired
	}

	if booking.Status == domain.StatusPaid {
		return nil, domain.ErrAlreadyCompleted
	}

	if booking.RetryCount >= s.maxRetries {
		return nil, domain.ErrTooManyRetries
	}

	if err := s.checkRooms(ctx, booking); err != nil {
		span.SetStatus(codes.Error, "rooms unavailable")

		return nil, err
	}

	session, err := s.rebuildSession(ctx, booking)
	if err != nil {
		return nil, err
	}

	newTotal := session.GrandTotal
	drift := math.Abs(newTotal - booking.TotalAmount)

	resolution := &RetryResolution{
		Session:        session,
		PricingChanged: drift > s.driftThreshold,
		OriginalTotal:  booking.TotalAmount,
		NewTotal:       newTotal,
	}

	updated := domain.FreezeSession(session, booking.ID, booking.Reference)
	updated.CreatedAt = booking.CreatedAt
	updated.RetryCount = booking.RetryCount + 1
	updated.StatusHistory = append(append([]domain.StatusChange(nil), booking.StatusHistory...), domain.StatusChange{
		Status: domain.StatusPending,
		At:     time.Now().UTC(),
		Reason: fmt.Sprintf("retry %d", updated.RetryCount),
	})

	applied, current, err := s.store.ResetForRetry(ctx, updated, booking.Status)
	if err != nil {
		return nil, err
	}

	if !applied {
		if current == domain.StatusPaid {
			return nil, domain.ErrAlreadyCompleted
		}

		return nil, domain.ErrInvalidTransition
	}

	if err := s.sessions.Save(session); err != nil {
		return nil, fmt.Errorf("save rebuilt session: %w", err)
	}

	resolution.Booking = updated

	if resolution.PricingChanged {
		s.logger.WithFields(logrus.Fields{"path": "services/retry", "reference": booking.Reference}).Infof("Re-priced booking drifted from %.2f to %.2f", booking.TotalAmount, newTotal)
	}

	return resolution, nil
}

func (s *RetryServiceImpl) checkRooms(ctx context.Context, booking *domain.Booking) error {
	var unavailable []string

	for _, item := range booking.RoomItems {
		roomID, err := primitive.ObjectIDFromHex(item.RoomID)
		if err != nil {
			unavailable = append(unavailable, item.RoomName)

			continue
		}

		result, err := s.availability.Check(ctx, roomID, booking.CheckIn, booking.CheckOut)
		if err != nil {
			return fmt.Errorf("check availability for %s: %w", item.RoomName, err)
		}

		if !result.Available || !result.MeetsMinStay {
			unavailable = append(unavailable, item.RoomName)
		}
	}

	if len(unavailable) > 0 {
		return &domain.RoomsUnavailableError{RoomNames: unavailable}
	}

	return nil
}

// rebuildSession reconstructs the checkout from frozen line items but prices
// everything at today's rates. The reducer recomputes all totals and
// re-validates the coupon, so a coupon that no longer applies drops out
// with a notice instead of being honoured at a stale amount.
func (s *RetryServiceImpl) rebuildSession(ctx context.Context, booking *domain.Booking) (*domain.CheckoutSession, error) {
	now := time.Now().UTC()

	session := domain.CheckoutSession{
		ID:        uuid.NewString(),
		Step:      domain.SelectingPayment,
		CheckIn:   booking.CheckIn,
		CheckOut:  booking.CheckOut,
		Currency:  booking.Currency,
		Guest: domain.GuestDetails{
			Name:  booking.GuestName,
			Email: booking.GuestEmail,
			Phone: booking.GuestPhone,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, item := range booking.RoomItems {
		roomID, err := primitive.ObjectIDFromHex(item.RoomID)
		if err != nil {
			return nil, fmt.Errorf("parse room id %q: %w", item.RoomID, err)
		}

		room, err := s.rooms.GetRoom(ctx, roomID)
		if err != nil {
			return nil, fmt.Errorf("load room %s: %w", item.RoomName, err)
		}

		pricing, err := s.rates.GetPricing(ctx, room, booking.CheckIn, booking.CheckOut)
		if err != nil {
			return nil, fmt.Errorf("re-price room %s: %w", item.RoomName, err)
		}

		session = domain.Apply(session, domain.RoomAdded{
			Room:      *room,
			Pricing:   pricing,
			Adults:    item.Adults,
			ChildAges: item.ChildAges,
		})
	}

	for _, item := range booking.AddonItems {
		addonID, err := primitive.ObjectIDFromHex(item.AddonID)
		if err != nil {
			return nil, fmt.Errorf("parse addon id %q: %w", item.AddonID, err)
		}

		addon, err := s.rooms.GetAddon(ctx, addonID)
		if err != nil {
			session = domain.Apply(session, domain.NoticeAdded{Notice: item.Name + " is no longer offered and was removed."})

			continue
		}

		session = domain.Apply(session, domain.AddonSet{Addon: *addon, Quantity: item.Quantity})
	}

	if booking.Coupon != nil {
		applied, err := s.coupons.Evaluate(ctx, booking.Coupon.Code, domain.CouponEligibility{
			RoomIDs:       session.RoomIDs(),
			StayNights:    session.Nights(),
			CheckIn:       session.CheckIn,
			CheckOut:      session.CheckOut,
			CustomerEmail: session.Guest.Email,
		}, session.RoomTotal+session.AddonsTotal)
		if err != nil {
			session = domain.Apply(session, domain.NoticeAdded{Notice: "Coupon " + booking.Coupon.Code + " could not be re-applied."})
		} else {
			session = domain.Apply(session, domain.CouponApplied{Coupon: applied.Coupon})
		}
	}

	return &session, nil
}
