package services

import (
	"context"

	"booking-service/domain"
)

// BookingStore is the persistence capability for durable bookings. Status
// transitions are conditional updates, never blind overwrites: CASStatus
// only applies when the stored status still equals from, and reports the
// status actually found either way.
type BookingStore interface {
	Insert(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	CASStatus(ctx context.Context, id string, from, to domain.BookingStatus, reason string) (bool, domain.BookingStatus, error)
	SetPaymentInitiated(ctx context.Context, id string, method domain.PaymentMethod, providerReference string, from, to domain.BookingStatus) (bool, domain.BookingStatus, error)
	ResetForRetry(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) (bool, domain.BookingStatus, error)
}

// EFTDetails are the bank-transfer instructions bound to a booking
// reference when the guest pays offline.
type EFTDetails struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BranchCode    string `json:"branch_code"`
	Reference     string `json:"reference"`
}

type PaymentInstruction struct {
	Method            domain.PaymentMethod `json:"method"`
	AuthorizationURL  string               `json:"authorization_url,omitempty"`
	ProviderReference string               `json:"provider_reference,omitempty"`
	EFT               *EFTDetails          `json:"eft,omitempty"`
}

// BookingService owns the booking lifecycle: snapshot-then-pay creation,
// payment dispatch, server-side verification, and the abandonment and
// failure paths. The pending record created before payment is deliberate:
// it survives the guest walking away and makes later reconciliation and
// retry possible.
type BookingService interface {
	CreateBooking(ctx context.Context, sessionID string) (*domain.Booking, error)
	InitiatePayment(ctx context.Context, bookingID string, method domain.PaymentMethod) (*PaymentInstruction, error)
	VerifyPayment(ctx context.Context, bookingID string, providerReference string) (*domain.Booking, error)
	Abandon(ctx context.Context, bookingID string) error
	MarkPaymentFailed(ctx context.Context, bookingID string, reason string) error
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
}
