package services

import (
	"context"
	"fmt"
	"strings"

	"booking-service/domain"
	"booking-service/payment"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type BookingServiceImpl struct {
	store    BookingStore
	gateway  payment.Gateway
	sessions SessionStore
	eft      EFTDetails
	logger   *logrus.Logger
	Tracer   trace.Tracer
}

func NewBookingServiceImpl(store BookingStore, gateway payment.Gateway, sessions SessionStore, eft EFTDetails, logger *logrus.Logger, tracer trace.Tracer) BookingService {
	return &BookingServiceImpl{
		store:    store,
		gateway:  gateway,
		sessions: sessions,
		eft:      eft,
		logger:   logger,
		Tracer:   tracer,
	}
}

// CreateBooking freezes the session into a pending booking before any
// payment is attempted, so a durable record exists even if the guest
// abandons right after.
func (s *BookingServiceImpl) CreateBooking(ctx context.Context, sessionID string) (*domain.Booking, error) {
	ctx, span := s.Tracer.Start(ctx, "BookingService.CreateBooking")
	defer span.End()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if session.Step != domain.SelectingPayment {
		verr := domain.NewValidationError()
		verr.Add("step", "complete the checkout steps before creating a booking")

		return nil, verr
	}

	for i := range session.Rooms {
		if session.Rooms[i].Pricing == nil {
			return nil, domain.ErrPricingUnavailable
		}
	}

	id := uuid.NewString()
	reference := "BK-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:10])

	booking := domain.FreezeSession(session, id, reference)

	if err := s.store.Insert(ctx, booking); err != nil {
		span.SetStatus(codes.Error, "failed to insert booking")

		return nil, fmt.Errorf("insert booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"path": "services/booking", "reference": reference}).Info("Booking created with status pending")

	return booking, nil
}

func (s *BookingServiceImpl) InitiatePayment(ctx context.Context, bookingID string, method domain.PaymentMethod) (*PaymentInstruction, error) {
	ctx, span := s.Tracer.Start(ctx, "BookingService.InitiatePayment")
	defer span.End()

	booking, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != domain.StatusPending {
		return nil, domain.ErrInvalidTransition
	}

	switch method {
	case domain.MethodPaystack:
		result, err := s.gateway.Charge(ctx, payment.ChargeInput{
			Amount:    booking.TotalAmount,
			Currency:  booking.Currency,
			Email:     booking.GuestEmail,
			Reference: booking.Reference,
			BookingID: booking.ID,
		})
		if err != nil {
			span.SetStatus(codes.Error, "gateway charge failed")

			return nil, fmt.Errorf("initialize paystack transaction: %w", err)
		}

		applied, current, err := s.store.SetPaymentInitiated(ctx, bookingID, method, result.ProviderReference, domain.StatusPending, domain.StatusSending)
		if err != nil {
			return nil, err
		}

		if !applied && current != domain.StatusSending {
			return nil, domain.ErrInvalidTransition
		}

		return &PaymentInstruction{
			Method:            method,
			AuthorizationURL:  result.AuthorizationURL,
			ProviderReference: result.ProviderReference,
		}, nil
	case domain.MethodEFT:
		// No online step for a bank transfer: the booking stays pending
		// until the deposit is reconciled against the reference.
		_, _, err := s.store.SetPaymentInitiated(ctx, bookingID, method, "", domain.StatusPending, domain.StatusPending)
		if err != nil {
			return nil, err
		}

		details := s.eft
		details.Reference = booking.Reference

		return &PaymentInstruction{Method: method, EFT: &details}, nil
	default:
		verr := domain.NewValidationError()
		verr.Add("method", "unsupported payment method")

		return nil, verr
	}
}

// VerifyPayment confirms the transaction with the gateway and settles the
// booking status. It is idempotent per provider reference: a booking that
// is already paid is returned untouched, and the transition to paid is a
// conditional update, so a duplicate callback and a user-driven reload
// cannot double-process the same payment. Any verification error lands the
// booking in payment_failed rather than leaving it ambiguous.
func (s *BookingServiceImpl) VerifyPayment(ctx context.Context, bookingID string, providerReference string) (*domain.Booking, error) {
	ctx, span := s.Tracer.Start(ctx, "BookingService.VerifyPayment")
	defer span.End()

	booking, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == domain.StatusPaid {
		return booking, nil
	}

	result, err := s.gateway.Verify(ctx, providerReference)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"path": "services/booking", "reference": booking.Reference}).Error("Payment verification failed: ", err)
		span.SetStatus(codes.Error, "gateway verify failed")

		return s.settle(ctx, bookingID, domain.StatusPaymentFailed, "payment verification failed")
	}

	if !result.Success {
		return s.settle(ctx, bookingID, domain.StatusPaymentFailed, result.FailureReason)
	}

	return s.settle(ctx, bookingID, domain.StatusPaid, "")
}

// Abandon moves a still-unpaid booking to cart_abandoned. It is safe to
// fire without caring about the outcome: if the booking is already settled
// the conditional update simply does not apply.
func (s *BookingServiceImpl) Abandon(ctx context.Context, bookingID string) error {
	ctx, span := s.Tracer.Start(ctx, "BookingService.Abandon")
	defer span.End()

	_, _, err := s.casFrom(ctx, bookingID, []domain.BookingStatus{domain.StatusPending, domain.StatusSending}, domain.StatusCartAbandoned, "")

	return err
}

// MarkPaymentFailed is the explicit failure path, used when the gateway
// actively rejects a payment rather than the guest silently leaving.
func (s *BookingServiceImpl) MarkPaymentFailed(ctx context.Context, bookingID string, reason string) error {
	ctx, span := s.Tracer.Start(ctx, "BookingService.MarkPaymentFailed")
	defer span.End()

	if reason == "" {
		reason = "payment failed"
	}

	applied, current, err := s.casFrom(ctx, bookingID, []domain.BookingStatus{domain.StatusPending, domain.StatusSending}, domain.StatusPaymentFailed, reason)
	if err != nil {
		return err
	}

	if !applied && current != domain.StatusPaymentFailed {
		return domain.ErrInvalidTransition
	}

	return nil
}

func (s *BookingServiceImpl) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return s.store.GetByID(ctx, bookingID)
}

// settle drives the booking to the target status with a guarded update and
// returns the record as it stands afterwards. paid is terminal: settle
// never re-enters or overwrites it.
func (s *BookingServiceImpl) settle(ctx context.Context, bookingID string, to domain.BookingStatus, reason string) (*domain.Booking, error) {
	froms := []domain.BookingStatus{domain.StatusSending, domain.StatusPending, domain.StatusPaymentFailed}
	if to == domain.StatusPaymentFailed {
		froms = []domain.BookingStatus{domain.StatusSending, domain.StatusPending}
	}

	applied, current, err := s.casFrom(ctx, bookingID, froms, to, reason)
	if err != nil {
		return nil, err
	}

	if !applied && current != to {
		// A verified charge against a booking already settled elsewhere,
		// e.g. abandoned before the callback arrived. Needs reconciliation.
		s.logger.WithFields(logrus.Fields{"path": "services/booking", "booking": bookingID, "status": string(current)}).Warnf("Settlement to %s did not apply; booking needs reconciliation", to)
	}

	return s.store.GetByID(ctx, bookingID)
}

// casFrom tries the allowed source statuses in order until one applies.
// It stops early when the stored status is already the target.
func (s *BookingServiceImpl) casFrom(ctx context.Context, bookingID string, froms []domain.BookingStatus, to domain.BookingStatus, reason string) (bool, domain.BookingStatus, error) {
	var current domain.BookingStatus

	for _, from := range froms {
		applied, found, err := s.store.CASStatus(ctx, bookingID, from, to, reason)
		if err != nil {
			return false, "", err
		}

		if applied {
			return true, to, nil
		}

		current = found
		if current == to {
			return false, current, nil
		}
	}

	return false, current, nil
}
