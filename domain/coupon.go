package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountType string

const (
	Percentage  DiscountType = "percentage"
	FixedAmount DiscountType = "fixed_amount"
	FreeNights  DiscountType = "free_nights"
)

type Coupon struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Code              string               `bson:"code" json:"code"`
	DiscountType      DiscountType         `bson:"discount_type" json:"discount_type"`
	DiscountValue     float64              `bson:"discount_value" json:"discount_value"`
	ApplicableRooms   []primitive.ObjectID `bson:"applicable_rooms,omitempty" json:"applicable_rooms,omitempty"`
	ValidFrom         *time.Time           `bson:"valid_from,omitempty" json:"valid_from,omitempty"`
	ValidTo           *time.Time           `bson:"valid_to,omitempty" json:"valid_to,omitempty"`
	MinStayNights     int                  `bson:"min_stay_nights,omitempty" json:"min_stay_nights,omitempty"`
	ExcludedCustomers []string             `bson:"excluded_customers,omitempty" json:"excluded_customers,omitempty"`
}

// AppliedCoupon carries a discount amount computed against a specific
// subtotal snapshot. It is only valid for that subtotal; the session reducer
// recomputes it whenever the subtotal changes.
type AppliedCoupon struct {
	Coupon         Coupon  `json:"coupon"`
	DiscountAmount float64 `json:"discount_amount"`
	Subtotal       float64 `json:"subtotal"`
}

// CouponEligibility is everything the evaluator checks a code against.
type CouponEligibility struct {
	RoomIDs       []primitive.ObjectID
	StayNights    int
	CheckIn       time.Time
	CheckOut      time.Time
	CustomerEmail string
}

// ValidateCoupon checks eligibility only; the discount amount is computed
// separately against the current subtotal.
func ValidateCoupon(c *Coupon, e CouponEligibility) error {
	now := time.Now().UTC()

	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return &CouponError{Code: c.Code, Reason: "coupon is not active yet"}
	}

	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return &CouponError{Code: c.Code, Reason: "coupon has expired"}
	}

	if len(c.ApplicableRooms) > 0 && !roomsIntersect(c.ApplicableRooms, e.RoomIDs) {
		return &CouponError{Code: c.Code, Reason: "coupon does not apply to the selected rooms"}
	}

	if c.MinStayNights > 0 && e.StayNights < c.MinStayNights {
		return &CouponError{Code: c.Code, Reason: "stay is shorter than the coupon minimum"}
	}

	for _, excluded := range c.ExcludedCustomers {
		if excluded == e.CustomerEmail {
			return &CouponError{Code: c.Code, Reason: "coupon is not available for this customer"}
		}
	}

	return nil
}

// CouponDiscount computes the discount for the given pre-discount subtotal.
// Only fixed_amount and free_nights are capped at the subtotal; a
// percentage discount reports its raw value and relies on the grand-total
// clamp.
func CouponDiscount(c *Coupon, subtotal float64, totalNights int) float64 {
	var discount float64

	switch c.DiscountType {
	case Percentage:
		return subtotal * (c.DiscountValue / 100)
	case FixedAmount:
		discount = c.DiscountValue
	case FreeNights:
		if totalNights > 0 {
			discount = c.DiscountValue * (subtotal / float64(totalNights))
		}
	}

	if discount > subtotal {
		discount = subtotal
	}

	return discount
}

func roomsIntersect(a, b []primitive.ObjectID) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}

	return false
}
