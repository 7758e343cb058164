package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"booking-service/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type checkoutFixture struct {
	sessions     *fakeSessionStore
	rooms        *fakeRoomService
	rates        *fakeRateService
	availability *fakeAvailabilityService
	coupons      *fakeCouponService
	service      CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		sessions:     newFakeSessionStore(),
		rooms:        newFakeRoomService(),
		rates:        &fakeRateService{rates: make(map[primitive.ObjectID]float64)},
		availability: &fakeAvailabilityService{results: make(map[primitive.ObjectID]*AvailabilityResult)},
		coupons:      &fakeCouponService{coupons: make(map[string]domain.Coupon)},
	}

	f.service = NewCheckoutServiceImpl(f.sessions, f.rooms, f.rates, f.availability, f.coupons, "ZAR", testLogger(), testTracer())

	return f
}

func (f *checkoutFixture) addRoom(rate float64) *domain.Room {
	room := &domain.Room{
		ID:        primitive.NewObjectID(),
		Name:      "Standard",
		BaseRate:  rate,
		MaxGuests: 4,
	}
	f.rooms.rooms[room.ID] = room

	return room
}

func stayDates() (time.Time, time.Time) {
	checkIn := time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour)

	return checkIn, checkIn.AddDate(0, 0, 3)
}

func TestStartSessionBeginsAtRoomSelection(t *testing.T) {
	f := newCheckoutFixture()

	session, err := f.service.StartSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.Step != domain.SelectingRoom {
		t.Errorf("expected selecting_room, got %v", session.Step)
	}
	if session.Currency != "ZAR" {
		t.Errorf("expected currency ZAR, got %v", session.Currency)
	}
	if _, err := f.sessions.Get(session.ID); err != nil {
		t.Errorf("expected session persisted, got %v", err)
	}
}

func TestSetDatesRejectsInvertedRange(t *testing.T) {
	f := newCheckoutFixture()
	session, _ := f.service.StartSession(context.Background())

	checkIn, checkOut := stayDates()

	_, err := f.service.SetDates(context.Background(), session.ID, checkOut, checkIn)
	if err == nil {
		t.Fatal("expected error for inverted date range")
	}
	if _, ok := err.(*domain.ValidationError); !ok {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestAddRoomPricesTheStay(t *testing.T) {
	f := newCheckoutFixture()
	room := f.addRoom(1000)
	session, _ := f.service.StartSession(context.Background())

	checkIn, checkOut := stayDates()
	f.service.SetDates(context.Background(), session.ID, checkIn, checkOut)

	updated, err := f.service.AddRoom(context.Background(), session.ID, room.ID, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.RoomTotal != 3000 {
		t.Errorf("expected room total 3000, got %v", updated.RoomTotal)
	}
	if updated.Rooms[0].Pricing == nil {
		t.Error("expected pricing loaded")
	}
}

func TestAddRoomRejectsTooManyGuests(t *testing.T) {
	f := newCheckoutFixture()
	room := f.addRoom(1000)
	session, _ := f.service.StartSession(context.Background())

	checkIn, checkOut := stayDates()
	f.service.SetDates(context.Background(), session.ID, checkIn, checkOut)

	_, err := f.service.AddRoom(context.Background(), session.ID, room.ID, 3, []int{4, 7})
	if err == nil {
		t.Fatal("expected error for too many guests")
	}
	if _, ok := err.(*domain.ValidationError); !ok {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestAddRoomUnavailable(t *testing.T) {
	f := newCheckoutFixture()
	room := f.addRoom(1000)
	f.availability.results[room.ID] = &AvailabilityResult{Available: false}
	session, _ := f.service.StartSession(context.Background())

	checkIn, checkOut := stayDates()
	f.service.SetDates(context.Background(), session.ID, checkIn, checkOut)

	_, err := f.service.AddRoom(context.Background(), session.ID, room.ID, 2, nil)
	if !errors.Is(err, domain.ErrRoomUnavailable) {
		t.Errorf("expected ErrRoomUnavailable, got %v", err)
	}
}

func TestAddRoomBelowMinStay(t *testing.T) {
	f := newCheckoutFixture()
	room := f.addRoom(1000)
	f.availability.results[room.ID] = &AvailabilityResult{Available: true, MinStayNights: 5, MeetsMinStay: false}
	session, _ := f.service.StartSession(context.Background())

	checkIn, checkOut := stayDates()
	f.service.SetDates(context.Background(), session.ID, checkIn, checkOut)

	_, err := f.service.AddRoom(context.Background(), session.ID, room.ID, 2, nil)
	if !errors.Is(err, domain.ErrMinStayNotMet) {
		t.Errorf("expected ErrMinStayNotMet, got %v", err)
	}
}

func TestSetDatesDropsRoomBelowMinStay(t *testing.T) {
	f := newCheckoutFixture()
	room := f.addRoom(1000)
	session, _ := f.service.StartSession(context.Background())

	checkIn, checkOut := stayDates()
	f.service.SetDates(context.Background(), session.ID, checkIn, checkOut)
	f.service.AddRoom(context.Background(), session.ID, room.ID, 2, nil)

	// The shorter stay no longer meets the room's minimum.
	f.availability.results[room.ID] = &AvailabilityResult{Available: true, MinStayNights: 3, MeetsMinStay: false}

	updated, err := f.service.SetDates(context.Background(), session.ID, checkIn, checkIn.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(updated.Rooms) != 0 {
		t.Errorf("expected room dropped, got %d rooms", len(updated.Rooms))
	}

	found := false
	for _, notice := range updated.Notices {
		if strings.Contains(notice, "Standard") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a notice naming the dropped room, got %v", updated.Notices)
	}
	if updated.RoomTotal != 0 {
		t.Errorf("expected room total 0, got %v", updated.RoomTotal)
	}
}

func TestRateFailureBlocksAdvance(t *testing.T) {
	f := newCheckoutFixture()
	room := f.addRoom(1000)
	f.rates.err = errors.New("rates store down")
	session, _ := f.service.StartSession(context.Background())

	checkIn, checkOut := stayDates()
	f.service.SetDates(context.Background(), session.ID, checkIn, checkOut)

	updated, err := f.service.AddRoom(context.Background(), session.ID, room.ID, 2, nil)
	if err != nil {
		t.Fatalf("expected room added despite rate failure, got %v", err)
	}

	if updated.Rooms[0].Pricing != nil {
		t.Error("expected pricing to stay nil after rate failure")
	}
	if len(updated.Notices) == 0 {
		t.Error("expected an estimate notice")
	}

	if _, err := f.service.Advance(context.Background(), session.ID); err == nil {
		t.Error("expected advance blocked while pricing is missing")
	}

	// Rates recover; reload fills the gap and unblocks the step.
	f.rates.err = nil

	reloaded, err := f.service.ReloadPricing(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Rooms[0].Pricing == nil {
		t.Error("expected pricing loaded after reload")
	}

	if _, err := f.service.Advance(context.Background(), session.ID); err != nil {
		t.Errorf("expected advance allowed after reload, got %v", err)
	}
}

func TestApplyCouponComputesDiscount(t *testing.T) {
	f := newCheckoutFixture()
	room := f.addRoom(1000)
	f.coupons.coupons["SAVE10"] = domain.Coupon{Code: "SAVE10", DiscountType: domain.Percentage, DiscountValue: 10}
	session, _ := f.service.StartSession(context.Background())

	checkIn, checkOut := stayDates()
	f.service.SetDates(context.Background(), session.ID, checkIn, checkOut)
	f.service.AddRoom(context.Background(), session.ID, room.ID, 2, nil)

	updated, err := f.service.ApplyCoupon(context.Background(), session.ID, "SAVE10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.DiscountAmount != 300 {
		t.Errorf("expected discount 300, got %v", updated.DiscountAmount)
	}
	if updated.GrandTotal != 2700 {
		t.Errorf("expected grand total 2700, got %v", updated.GrandTotal)
	}
}

func TestApplyCouponRejectsUnknownCode(t *testing.T) {
	f := newCheckoutFixture()
	session, _ := f.service.StartSession(context.Background())

	_, err := f.service.ApplyCoupon(context.Background(), session.ID, "NOPE")

	var couponErr *domain.CouponError
	if !errors.As(err, &couponErr) {
		t.Fatalf("expected *CouponError, got %v", err)
	}
}

func TestSetGuestDetailsValidates(t *testing.T) {
	f := newCheckoutFixture()
	session, _ := f.service.StartSession(context.Background())

	_, err := f.service.SetGuestDetails(context.Background(), session.ID, domain.GuestDetails{
		Name:     "T",
		Email:    "not-an-email",
		DialCode: "+27",
		Phone:    "12",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}

	verr, ok := err.(*domain.ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	for _, field := range []string{"name", "email", "phone"} {
		if _, present := verr.Fields[field]; !present {
			t.Errorf("expected %s field error", field)
		}
	}
}
