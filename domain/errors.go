package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSessionNotFound    = errors.New("checkout session not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrAddonNotFound      = errors.New("addon not found")
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrPricingUnavailable = errors.New("pricing is not available for the selected dates")
	ErrRoomUnavailable    = errors.New("room is not available for the selected dates")
	ErrMinStayNotMet      = errors.New("stay does not meet the room minimum")
	ErrInvalidTransition  = errors.New("booking status transition not allowed")
	ErrBookingExpired     = errors.New("booking check-in date has passed")
	ErrAlreadyCompleted   = errors.New("booking has already been paid")
	ErrTooManyRetries     = errors.New("booking retry limit reached")
)

// CouponError is any evaluator rejection; the reason is user-facing.
type CouponError struct {
	Code   string
	Reason string
}

func (e *CouponError) Error() string {
	return fmt.Sprintf("coupon %q: %s", e.Code, e.Reason)
}

// ValidationError accumulates per-field problems; it blocks step
// progression and is shown inline.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = message
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, message := range e.Fields {
		parts = append(parts, field+": "+message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// RoomsUnavailableError names the rooms that can no longer be booked when
// resuming an abandoned or failed booking.
type RoomsUnavailableError struct {
	RoomNames []string
}

func (e *RoomsUnavailableError) Error() string {
	return "rooms no longer available: " + strings.Join(e.RoomNames, ", ")
}
