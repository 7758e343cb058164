package services

import (
	"context"
	"fmt"
	"time"

	"booking-service/domain"
	"booking-service/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type CheckoutServiceImpl struct {
	sessions     SessionStore
	rooms        RoomService
	rates        RateService
	availability AvailabilityService
	coupons      CouponService
	currency     string
	logger       *logrus.Logger
	Tracer       trace.Tracer
}

func NewCheckoutServiceImpl(
	sessions SessionStore,
	rooms RoomService,
	rates RateService,
	availability AvailabilityService,
	coupons CouponService,
	currency string,
	logger *logrus.Logger,
	tracer trace.Tracer,
) CheckoutService {
	return &CheckoutServiceImpl{
		sessions:     sessions,
		rooms:        rooms,
		rates:        rates,
		availability: availability,
		coupons:      coupons,
		currency:     currency,
		logger:       logger,
		Tracer:       tracer,
	}
}

func (s *CheckoutServiceImpl) StartSession(ctx context.Context) (*domain.CheckoutSession, error) {
	_, span := s.Tracer.Start(ctx, "CheckoutService.StartSession")
	defer span.End()

	now := time.Now().UTC()
	session := &domain.CheckoutSession{
		ID:        uuid.NewString(),
		Step:      domain.SelectingRoom,
		Currency:  s.currency,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Save(session); err != nil {
		span.SetStatus(codes.Error, "failed to save session")

		return nil, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}

func (s *CheckoutServiceImpl) GetSession(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	return s.sessions.Get(id)
}

// SetDates reloads pricing for every selected room and silently drops
// selections that no longer meet their minimum stay or are fully booked on
// the new dates. The drop is a correction with a visible notice, not an
// error.
func (s *CheckoutServiceImpl) SetDates(ctx context.Context, id string, checkIn, checkOut time.Time) (*domain.CheckoutSession, error) {
	ctx, span := s.Tracer.Start(ctx, "CheckoutService.SetDates")
	defer span.End()

	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	if !checkOut.After(checkIn) {
		verr := domain.NewValidationError()
		verr.Add("dates", "check-out must be after check-in")

		return nil, verr
	}

	next := domain.Apply(*session, domain.DatesChanged{CheckIn: checkIn, CheckOut: checkOut})

	for _, sel := range append([]domain.RoomSelection(nil), next.Rooms...) {
		room := sel.Room

		result, err := s.availability.Check(ctx, room.ID, checkIn, checkOut)
		if err != nil {
			s.logger.WithFields(logrus.Fields{"path": "services/checkout", "room": room.Name}).Error("Availability check failed: ", err)
			next = domain.Apply(next, domain.RoomDropped{RoomID: room.ID, Notice: room.Name + " was removed: availability could not be confirmed for the new dates."})

			continue
		}

		if !result.Available {
			next = domain.Apply(next, domain.RoomDropped{RoomID: room.ID, Notice: room.Name + " was removed: it is fully booked for the new dates."})

			continue
		}

		if !result.MeetsMinStay {
			next = domain.Apply(next, domain.RoomDropped{RoomID: room.ID, Notice: fmt.Sprintf("%s was removed: it requires a stay of at least %d nights.", room.Name, result.MinStayNights)})

			continue
		}

		next = s.loadPricing(ctx, next, &room)
	}

	return s.store(&next)
}

func (s *CheckoutServiceImpl) AddRoom(ctx context.Context, id string, roomID primitive.ObjectID, adults int, childAges []int) (*domain.CheckoutSession, error) {
	ctx, span := s.Tracer.Start(ctx, "CheckoutService.AddRoom")
	defer span.End()

	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if adults+len(childAges) > room.MaxGuests {
		verr := domain.NewValidationError()
		verr.Add("guests", fmt.Sprintf("%s sleeps at most %d guests", room.Name, room.MaxGuests))

		return nil, verr
	}

	result, err := s.availability.Check(ctx, roomID, session.CheckIn, session.CheckOut)
	if err != nil {
		span.SetStatus(codes.Error, "availability check failed")

		return nil, fmt.Errorf("check availability: %w", err)
	}

	if !result.Available {
		return nil, domain.ErrRoomUnavailable
	}

	if !result.MeetsMinStay {
		return nil, domain.ErrMinStayNotMet
	}

	next := domain.Apply(*session, domain.RoomAdded{Room: *room, Adults: adults, ChildAges: childAges})
	next = s.loadPricing(ctx, next, room)

	return s.store(&next)
}

func (s *CheckoutServiceImpl) RemoveRoom(ctx context.Context, id string, roomID primitive.ObjectID) (*domain.CheckoutSession, error) {
	return s.apply(ctx, id, domain.RoomRemoved{RoomID: roomID})
}

func (s *CheckoutServiceImpl) UpdateGuests(ctx context.Context, id string, roomID primitive.ObjectID, adults int, childAges []int) (*domain.CheckoutSession, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	for i := range session.Rooms {
		sel := &session.Rooms[i]
		if sel.Room.ID == roomID && adults+len(childAges) > sel.Room.MaxGuests {
			verr := domain.NewValidationError()
			verr.Add("guests", fmt.Sprintf("%s sleeps at most %d guests", sel.Room.Name, sel.Room.MaxGuests))

			return nil, verr
		}
	}

	next := domain.Apply(*session, domain.GuestsChanged{RoomID: roomID, Adults: adults, ChildAges: childAges})

	return s.store(&next)
}

func (s *CheckoutServiceImpl) SetAddon(ctx context.Context, id string, addonID primitive.ObjectID, quantity int) (*domain.CheckoutSession, error) {
	ctx, span := s.Tracer.Start(ctx, "CheckoutService.SetAddon")
	defer span.End()

	addon, err := s.rooms.GetAddon(ctx, addonID)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, id, domain.AddonSet{Addon: *addon, Quantity: quantity})
}

func (s *CheckoutServiceImpl) SetGuestDetails(ctx context.Context, id string, guest domain.GuestDetails) (*domain.CheckoutSession, error) {
	if err := utils.ValidateGuestDetails(guest); err != nil {
		return nil, err
	}

	return s.apply(ctx, id, domain.GuestDetailsEntered{Guest: guest})
}

func (s *CheckoutServiceImpl) ApplyCoupon(ctx context.Context, id string, code string) (*domain.CheckoutSession, error) {
	ctx, span := s.Tracer.Start(ctx, "CheckoutService.ApplyCoupon")
	defer span.End()

	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	applied, err := s.coupons.Evaluate(ctx, code, domain.CouponEligibility{
		RoomIDs:       session.RoomIDs(),
		StayNights:    session.Nights(),
		CheckIn:       session.CheckIn,
		CheckOut:      session.CheckOut,
		CustomerEmail: session.Guest.Email,
	}, session.RoomTotal+session.AddonsTotal)
	if err != nil {
		span.SetStatus(codes.Error, "coupon rejected")

		return nil, err
	}

	next := domain.Apply(*session, domain.CouponApplied{Coupon: applied.Coupon})

	return s.store(&next)
}

func (s *CheckoutServiceImpl) RemoveCoupon(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	return s.apply(ctx, id, domain.CouponRemoved{})
}

// ReloadPricing retries the rate lookup for rooms whose pricing fetch
// previously failed. Forward progression stays blocked until every room has
// pricing.
func (s *CheckoutServiceImpl) ReloadPricing(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	ctx, span := s.Tracer.Start(ctx, "CheckoutService.ReloadPricing")
	defer span.End()

	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	next := *session

	for _, sel := range session.Rooms {
		if sel.Pricing == nil {
			room := sel.Room
			next = s.loadPricing(ctx, next, &room)
		}
	}

	return s.store(&next)
}

func (s *CheckoutServiceImpl) Advance(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	if err := session.CanAdvance(); err != nil {
		return nil, err
	}

	next := domain.Apply(*session, domain.StepAdvanced{})

	return s.store(&next)
}

func (s *CheckoutServiceImpl) Back(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	return s.apply(ctx, id, domain.StepReverted{})
}

// loadPricing fetches the stay pricing for one room. On failure the room
// keeps a nil pricing, which blocks forward progression; the notice shows a
// best-effort estimate from the base rate so the guest still sees a figure.
func (s *CheckoutServiceImpl) loadPricing(ctx context.Context, session domain.CheckoutSession, room *domain.Room) domain.CheckoutSession {
	pricing, err := s.rates.GetPricing(ctx, room, session.CheckIn, session.CheckOut)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"path": "services/checkout", "room": room.Name}).Error("Rate lookup failed: ", err)

		estimate := room.BaseRate * float64(session.Nights())

		return domain.Apply(session, domain.RoomPricingLoaded{RoomID: room.ID, Pricing: nil, Notice: fmt.Sprintf("Rates for %s could not be loaded; estimated total %.2f %s. Retry before payment.", room.Name, estimate, session.Currency)})
	}

	return domain.Apply(session, domain.RoomPricingLoaded{RoomID: room.ID, Pricing: pricing})
}

func (s *CheckoutServiceImpl) apply(ctx context.Context, id string, event domain.SessionEvent) (*domain.CheckoutSession, error) {
	session, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}

	next := domain.Apply(*session, event)

	return s.store(&next)
}

func (s *CheckoutServiceImpl) store(session *domain.CheckoutSession) (*domain.CheckoutSession, error) {
	if err := s.sessions.Save(session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}
