package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"booking-service/domain"
	"booking-service/payment"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func pricedSession(rate float64, nights int) *domain.CheckoutSession {
	checkIn := time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour)

	session := domain.CheckoutSession{
		ID:       "session-1",
		Step:     domain.SelectingRoom,
		CheckIn:  checkIn,
		CheckOut: checkIn.AddDate(0, 0, nights),
		Currency: "ZAR",
		Guest: domain.GuestDetails{
			Name:     "Thandi Nkosi",
			Email:    "thandi@example.com",
			DialCode: "+27",
			Phone:    "821234567",
		},
	}

	room := domain.Room{
		ID:        primitive.NewObjectID(),
		Name:      "Standard",
		BaseRate:  rate,
		MaxGuests: 4,
	}

	session = domain.Apply(session, domain.RoomAdded{
		Room:    room,
		Pricing: &domain.StayPricing{Nights: nights, Subtotal: rate * float64(nights)},
		Adults:  2,
	})
	session.Step = domain.SelectingPayment

	return &session
}

func newBookingService(store *fakeBookingStore, gateway *fakeGateway, sessions *fakeSessionStore) BookingService {
	eft := EFTDetails{
		BankName:      "Standard Bank",
		AccountName:   "Lodge Holdings",
		AccountNumber: "123456789",
		BranchCode:    "051001",
	}

	return NewBookingServiceImpl(store, gateway, sessions, eft, testLogger(), testTracer())
}

func TestCreateBookingFreezesSession(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	service := newBookingService(store, &fakeGateway{}, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)

	booking, err := service.CreateBooking(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != domain.StatusPending {
		t.Errorf("expected status pending, got %v", booking.Status)
	}
	if booking.TotalAmount != 3000 {
		t.Errorf("expected total 3000, got %v", booking.TotalAmount)
	}
	if !strings.HasPrefix(booking.Reference, "BK-") {
		t.Errorf("expected BK- reference, got %v", booking.Reference)
	}
	if len(booking.RoomItems) != 1 {
		t.Fatalf("expected one room item, got %d", len(booking.RoomItems))
	}
	if store.inserts != 1 {
		t.Errorf("expected one insert, got %d", store.inserts)
	}
}

func TestCreateBookingRequiresPaymentStep(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	service := newBookingService(store, &fakeGateway{}, sessions)

	session := pricedSession(1000, 3)
	session.Step = domain.SelectingAddons
	sessions.Save(session)

	_, err := service.CreateBooking(context.Background(), session.ID)
	if err == nil {
		t.Fatal("expected error before reaching the payment step")
	}

	if _, ok := err.(*domain.ValidationError); !ok {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestCreateBookingRequiresPricing(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	service := newBookingService(store, &fakeGateway{}, sessions)

	session := pricedSession(1000, 3)
	session.Rooms[0].Pricing = nil
	sessions.Save(session)

	_, err := service.CreateBooking(context.Background(), session.ID)
	if !errors.Is(err, domain.ErrPricingUnavailable) {
		t.Errorf("expected ErrPricingUnavailable, got %v", err)
	}
}

func TestInitiatePaymentPaystack(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	gateway := &fakeGateway{chargeResult: &payment.ChargeResult{
		ProviderReference: "ps-ref-1",
		AuthorizationURL:  "https://checkout.paystack.com/ps-ref-1",
	}}
	service := newBookingService(store, gateway, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)

	instruction, err := service.InitiatePayment(context.Background(), booking.ID, domain.MethodPaystack)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if instruction.AuthorizationURL != "https://checkout.paystack.com/ps-ref-1" {
		t.Errorf("unexpected authorization url %v", instruction.AuthorizationURL)
	}

	stored, _ := store.GetByID(context.Background(), booking.ID)
	if stored.Status != domain.StatusSending {
		t.Errorf("expected status sending, got %v", stored.Status)
	}
	if stored.ProviderReference != "ps-ref-1" {
		t.Errorf("expected provider reference recorded, got %v", stored.ProviderReference)
	}

	// The booking id must ride along as charge metadata so webhook
	// deliveries can locate the booking on their own.
	if gateway.lastCharge.BookingID != booking.ID {
		t.Errorf("expected booking id %v in charge input, got %v", booking.ID, gateway.lastCharge.BookingID)
	}
}

func TestInitiatePaymentEFTStaysPending(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	service := newBookingService(store, &fakeGateway{}, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)

	instruction, err := service.InitiatePayment(context.Background(), booking.ID, domain.MethodEFT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if instruction.EFT == nil {
		t.Fatal("expected EFT details")
	}
	if instruction.EFT.Reference != booking.Reference {
		t.Errorf("expected EFT reference %v, got %v", booking.Reference, instruction.EFT.Reference)
	}

	stored, _ := store.GetByID(context.Background(), booking.ID)
	if stored.Status != domain.StatusPending {
		t.Errorf("expected booking to stay pending, got %v", stored.Status)
	}
}

func TestInitiatePaymentRejectsSettledBooking(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	service := newBookingService(store, &fakeGateway{}, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)
	store.bookings[booking.ID].Status = domain.StatusPaid

	_, err := service.InitiatePayment(context.Background(), booking.ID, domain.MethodPaystack)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestVerifyPaymentSuccess(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	gateway := &fakeGateway{
		chargeResult: &payment.ChargeResult{ProviderReference: "ps-ref-1"},
		verifyResult: &payment.VerifyResult{Success: true},
	}
	service := newBookingService(store, gateway, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)
	service.InitiatePayment(context.Background(), booking.ID, domain.MethodPaystack)

	verified, err := service.VerifyPayment(context.Background(), booking.ID, "ps-ref-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if verified.Status != domain.StatusPaid {
		t.Errorf("expected status paid, got %v", verified.Status)
	}
}

func TestVerifyPaymentIdempotent(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	gateway := &fakeGateway{
		chargeResult: &payment.ChargeResult{ProviderReference: "ps-ref-1"},
		verifyResult: &payment.VerifyResult{Success: true},
	}
	service := newBookingService(store, gateway, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)
	service.InitiatePayment(context.Background(), booking.ID, domain.MethodPaystack)

	first, err := service.VerifyPayment(context.Background(), booking.ID, "ps-ref-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	appliedAfterFirst := store.applied

	// Duplicate delivery: webhook racing the guest's return page.
	second, err := service.VerifyPayment(context.Background(), booking.ID, "ps-ref-1")
	if err != nil {
		t.Fatalf("unexpected error on duplicate verify: %v", err)
	}

	if first.Status != domain.StatusPaid || second.Status != domain.StatusPaid {
		t.Errorf("expected both results paid, got %v and %v", first.Status, second.Status)
	}
	if gateway.verifyCalls != 1 {
		t.Errorf("expected a single gateway verify call, got %d", gateway.verifyCalls)
	}
	if store.applied != appliedAfterFirst {
		t.Errorf("expected no further status writes, got %d extra", store.applied-appliedAfterFirst)
	}
}

func TestVerifyPaymentDeclined(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	gateway := &fakeGateway{
		chargeResult: &payment.ChargeResult{ProviderReference: "ps-ref-1"},
		verifyResult: &payment.VerifyResult{Success: false, FailureReason: "Insufficient funds"},
	}
	service := newBookingService(store, gateway, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)
	service.InitiatePayment(context.Background(), booking.ID, domain.MethodPaystack)

	verified, err := service.VerifyPayment(context.Background(), booking.ID, "ps-ref-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if verified.Status != domain.StatusPaymentFailed {
		t.Errorf("expected status payment_failed, got %v", verified.Status)
	}
	if verified.FailureReason != "Insufficient funds" {
		t.Errorf("expected failure reason recorded, got %v", verified.FailureReason)
	}
}

func TestVerifyPaymentGatewayErrorFailsBooking(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	gateway := &fakeGateway{
		chargeResult: &payment.ChargeResult{ProviderReference: "ps-ref-1"},
		verifyErr:    errors.New("connection refused"),
	}
	service := newBookingService(store, gateway, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)
	service.InitiatePayment(context.Background(), booking.ID, domain.MethodPaystack)

	verified, err := service.VerifyPayment(context.Background(), booking.ID, "ps-ref-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if verified.Status != domain.StatusPaymentFailed {
		t.Errorf("expected status payment_failed, got %v", verified.Status)
	}
}

func TestVerifyPaymentOnAbandonedBookingFlagsReconciliation(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	gateway := &fakeGateway{
		chargeResult: &payment.ChargeResult{ProviderReference: "ps-ref-1"},
		verifyResult: &payment.VerifyResult{Success: true},
	}

	logger, hook := logrustest.NewNullLogger()
	service := NewBookingServiceImpl(store, gateway, sessions, EFTDetails{}, logger, testTracer())

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)
	service.InitiatePayment(context.Background(), booking.ID, domain.MethodPaystack)

	// The abandon signal lands before the payment callback does.
	store.bookings[booking.ID].Status = domain.StatusCartAbandoned

	verified, err := service.VerifyPayment(context.Background(), booking.ID, "ps-ref-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if verified.Status != domain.StatusCartAbandoned {
		t.Errorf("expected booking left cart_abandoned, got %v", verified.Status)
	}

	flagged := false
	for _, entry := range hook.Entries {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "reconciliation") {
			flagged = true
		}
	}
	if !flagged {
		t.Error("expected a reconciliation warning for a verified charge on a settled booking")
	}
}

func TestAbandonPendingBooking(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	service := newBookingService(store, &fakeGateway{}, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)

	if err := service.Abandon(context.Background(), booking.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := store.GetByID(context.Background(), booking.ID)
	if stored.Status != domain.StatusCartAbandoned {
		t.Errorf("expected cart_abandoned, got %v", stored.Status)
	}
}

func TestAbandonIgnoresSettledBooking(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	service := newBookingService(store, &fakeGateway{}, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)
	store.bookings[booking.ID].Status = domain.StatusPaid

	if err := service.Abandon(context.Background(), booking.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := store.GetByID(context.Background(), booking.ID)
	if stored.Status != domain.StatusPaid {
		t.Errorf("expected paid booking untouched, got %v", stored.Status)
	}
}

func TestMarkPaymentFailed(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	service := newBookingService(store, &fakeGateway{}, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)

	if err := service.MarkPaymentFailed(context.Background(), booking.ID, "card declined"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := store.GetByID(context.Background(), booking.ID)
	if stored.Status != domain.StatusPaymentFailed {
		t.Errorf("expected payment_failed, got %v", stored.Status)
	}
	if stored.FailureReason != "card declined" {
		t.Errorf("expected reason recorded, got %v", stored.FailureReason)
	}
}

func TestMarkPaymentFailedRejectsPaidBooking(t *testing.T) {
	store := newFakeBookingStore()
	sessions := newFakeSessionStore()
	service := newBookingService(store, &fakeGateway{}, sessions)

	session := pricedSession(1000, 3)
	sessions.Save(session)
	booking, _ := service.CreateBooking(context.Background(), session.ID)
	store.bookings[booking.ID].Status = domain.StatusPaid

	err := service.MarkPaymentFailed(context.Background(), booking.ID, "card declined")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}
