package payment

import "context"

// ChargeInput carries everything the gateway needs to initialize a
// transaction. BookingID travels as provider metadata and comes back on
// webhook deliveries, which is what lets the webhook handler find the
// booking without any client involvement.
type ChargeInput struct {
	Amount    float64
	Currency  string
	Email     string
	Reference string
	BookingID string
}

type ChargeResult struct {
	ProviderReference string
	AuthorizationURL  string
}

type VerifyResult struct {
	Success       bool
	FailureReason string
}

// Gateway is the payment capability the booking orchestrator depends on.
// Verify confirms the transaction server-side; a client-supplied success
// flag is never trusted.
type Gateway interface {
	Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error)
	Verify(ctx context.Context, providerReference string) (*VerifyResult, error)
}
