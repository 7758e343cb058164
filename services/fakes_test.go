package services

import (
	"context"
	"io"
	"time"

	"booking-service/domain"
	"booking-service/payment"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logger
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

type fakeBookingStore struct {
	bookings map[string]*domain.Booking
	inserts  int
	applied  int
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[string]*domain.Booking)}
}

func (s *fakeBookingStore) Insert(ctx context.Context, booking *domain.Booking) error {
	copied := *booking
	s.bookings[booking.ID] = &copied
	s.inserts++

	return nil
}

func (s *fakeBookingStore) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}

	copied := *booking

	return &copied, nil
}

func (s *fakeBookingStore) CASStatus(ctx context.Context, id string, from, to domain.BookingStatus, reason string) (bool, domain.BookingStatus, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return false, "", domain.ErrBookingNotFound
	}

	if booking.Status != from {
		return false, booking.Status, nil
	}

	booking.Status = to
	if to == domain.StatusPaymentFailed {
		booking.FailureReason = reason
	}
	booking.StatusHistory = append(booking.StatusHistory, domain.StatusChange{Status: to, At: time.Now().UTC(), Reason: reason})
	s.applied++

	return true, to, nil
}

func (s *fakeBookingStore) SetPaymentInitiated(ctx context.Context, id string, method domain.PaymentMethod, providerReference string, from, to domain.BookingStatus) (bool, domain.BookingStatus, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return false, "", domain.ErrBookingNotFound
	}

	if booking.Status != from {
		return false, booking.Status, nil
	}

	booking.Status = to
	booking.PaymentMethod = method
	booking.ProviderReference = providerReference
	s.applied++

	return true, to, nil
}

func (s *fakeBookingStore) ResetForRetry(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) (bool, domain.BookingStatus, error) {
	existing, ok := s.bookings[booking.ID]
	if !ok {
		return false, "", domain.ErrBookingNotFound
	}

	if existing.Status != from {
		return false, existing.Status, nil
	}

	copied := *booking
	s.bookings[booking.ID] = &copied
	s.applied++

	return true, booking.Status, nil
}

type fakeGateway struct {
	chargeResult *payment.ChargeResult
	chargeErr    error
	verifyResult *payment.VerifyResult
	verifyErr    error
	chargeCalls  int
	verifyCalls  int
	lastCharge   payment.ChargeInput
}

func (g *fakeGateway) Charge(ctx context.Context, input payment.ChargeInput) (*payment.ChargeResult, error) {
	g.chargeCalls++
	g.lastCharge = input
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}

	return g.chargeResult, nil
}

func (g *fakeGateway) Verify(ctx context.Context, providerReference string) (*payment.VerifyResult, error) {
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}

	return g.verifyResult, nil
}

type fakeSessionStore struct {
	sessions map[string]*domain.CheckoutSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*domain.CheckoutSession)}
}

func (s *fakeSessionStore) Get(id string) (*domain.CheckoutSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	return session, nil
}

func (s *fakeSessionStore) Save(session *domain.CheckoutSession) error {
	s.sessions[session.ID] = session

	return nil
}

func (s *fakeSessionStore) Delete(id string) error {
	delete(s.sessions, id)

	return nil
}

type fakeRoomService struct {
	rooms  map[primitive.ObjectID]*domain.Room
	addons map[primitive.ObjectID]*domain.Addon
}

func newFakeRoomService() *fakeRoomService {
	return &fakeRoomService{
		rooms:  make(map[primitive.ObjectID]*domain.Room),
		addons: make(map[primitive.ObjectID]*domain.Addon),
	}
}

func (s *fakeRoomService) GetRoom(ctx context.Context, id primitive.ObjectID) (*domain.Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}

	return room, nil
}

func (s *fakeRoomService) GetRooms(ctx context.Context) ([]*domain.Room, error) {
	rooms := make([]*domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}

	return rooms, nil
}

func (s *fakeRoomService) GetAddon(ctx context.Context, id primitive.ObjectID) (*domain.Addon, error) {
	addon, ok := s.addons[id]
	if !ok {
		return nil, domain.ErrAddonNotFound
	}

	return addon, nil
}

func (s *fakeRoomService) GetAddons(ctx context.Context) ([]*domain.Addon, error) {
	addons := make([]*domain.Addon, 0, len(s.addons))
	for _, addon := range s.addons {
		addons = append(addons, addon)
	}

	return addons, nil
}

type fakeRateService struct {
	rates map[primitive.ObjectID]float64
	err   error
}

func (s *fakeRateService) GetPricing(ctx context.Context, room *domain.Room, checkIn, checkOut time.Time) (*domain.StayPricing, error) {
	if s.err != nil {
		return nil, s.err
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)

	rate := room.BaseRate
	if override, ok := s.rates[room.ID]; ok {
		rate = override
	}

	pricing := &domain.StayPricing{Nights: nights, Subtotal: rate * float64(nights)}
	for night := 0; night < nights; night++ {
		pricing.Rates = append(pricing.Rates, domain.NightRate{Date: checkIn.AddDate(0, 0, night), Rate: rate})
	}

	return pricing, nil
}

type fakeAvailabilityService struct {
	results map[primitive.ObjectID]*AvailabilityResult
	err     error
}

func (s *fakeAvailabilityService) Check(ctx context.Context, roomID primitive.ObjectID, checkIn, checkOut time.Time) (*AvailabilityResult, error) {
	if s.err != nil {
		return nil, s.err
	}

	if result, ok := s.results[roomID]; ok {
		return result, nil
	}

	return &AvailabilityResult{Available: true, AvailableUnits: 1, MeetsMinStay: true}, nil
}

type fakeCouponService struct {
	coupons map[string]domain.Coupon
}

func (s *fakeCouponService) Evaluate(ctx context.Context, code string, eligibility domain.CouponEligibility, subtotal float64) (*domain.AppliedCoupon, error) {
	coupon, ok := s.coupons[code]
	if !ok {
		return nil, &domain.CouponError{Code: code, Reason: "unknown coupon code"}
	}

	if err := domain.ValidateCoupon(&coupon, eligibility); err != nil {
		return nil, err
	}

	discount := domain.CouponDiscount(&coupon, subtotal, eligibility.StayNights)

	return &domain.AppliedCoupon{Coupon: coupon, DiscountAmount: discount, Subtotal: subtotal}, nil
}
