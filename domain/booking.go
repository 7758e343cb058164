package domain

import (
	"encoding/json"
	"io"
	"time"
)

type BookingStatus string

const (
	StatusDraft         BookingStatus = "draft"
	StatusPending       BookingStatus = "pending"
	StatusSending       BookingStatus = "sending"
	StatusPaid          BookingStatus = "paid"
	StatusPaymentFailed BookingStatus = "payment_failed"
	StatusCartAbandoned BookingStatus = "cart_abandoned"
)

type PaymentMethod string

const (
	MethodPaystack PaymentMethod = "paystack"
	MethodEFT      PaymentMethod = "eft"
)

// BookingRoomItem is a frozen copy of a room selection's pricing at booking
// time, not a live pointer into the session.
type BookingRoomItem struct {
	RoomID      string      `json:"room_id"`
	RoomName    string      `json:"room_name"`
	PricingMode PricingMode `json:"pricing_mode"`
	NightlyRate float64     `json:"nightly_rate"`
	Nights      int         `json:"nights"`
	Adults      int         `json:"adults"`
	ChildAges   []int       `json:"child_ages,omitempty"`
	Total       float64     `json:"total"`
}

type BookingAddonItem struct {
	AddonID     string           `json:"addon_id"`
	Name        string           `json:"name"`
	Price       float64          `json:"price"`
	PricingType AddonPricingType `json:"pricing_type"`
	Quantity    int              `json:"quantity"`
	Total       float64          `json:"total"`
}

type CouponSnapshot struct {
	Code           string       `json:"code"`
	DiscountType   DiscountType `json:"discount_type"`
	DiscountValue  float64      `json:"discount_value"`
	DiscountAmount float64      `json:"discount_amount"`
}

type StatusChange struct {
	Status BookingStatus `json:"status"`
	At     time.Time     `json:"at"`
	Reason string        `json:"reason,omitempty"`
}

// Booking is the durable record created from a checkout session snapshot.
// Totals are frozen at creation time and never re-derived afterwards.
type Booking struct {
	ID                string             `json:"id"`
	Reference         string             `json:"reference"`
	GuestName         string             `json:"guest_name"`
	GuestEmail        string             `json:"guest_email"`
	GuestPhone        string             `json:"guest_phone"`
	CheckIn           time.Time          `json:"check_in"`
	CheckOut          time.Time          `json:"check_out"`
	RoomItems         []BookingRoomItem  `json:"room_items"`
	AddonItems        []BookingAddonItem `json:"addon_items,omitempty"`
	Coupon            *CouponSnapshot    `json:"coupon,omitempty"`
	Currency          string             `json:"currency"`
	RoomTotal         float64            `json:"room_total"`
	AddonsTotal       float64            `json:"addons_total"`
	DiscountAmount    float64            `json:"discount_amount"`
	TotalAmount       float64            `json:"total_amount"`
	Status            BookingStatus      `json:"status"`
	StatusHistory     []StatusChange     `json:"status_history"`
	PaymentMethod     PaymentMethod      `json:"payment_method,omitempty"`
	ProviderReference string             `json:"provider_reference,omitempty"`
	FailureReason     string             `json:"failure_reason,omitempty"`
	RetryCount        int                `json:"retry_count"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Nights is the frozen stay length.
func (b *Booking) Nights() int {
	nights := int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
	if nights < 0 {
		return 0
	}

	return nights
}

func (b *Booking) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(b)
}

func (b *Booking) FromJSON(r io.Reader) error {
	d := json.NewDecoder(r)
	return d.Decode(b)
}

// FreezeSession snapshots a checkout session into booking line items. The
// session must already be fully priced; the caller gates on that.
func FreezeSession(s *CheckoutSession, id, reference string) *Booking {
	now := time.Now().UTC()
	nights := s.Nights()

	booking := &Booking{
		ID:             id,
		Reference:      reference,
		GuestName:      s.Guest.Name,
		GuestEmail:     s.Guest.Email,
		GuestPhone:     s.Guest.FullPhone(),
		CheckIn:        s.CheckIn,
		CheckOut:       s.CheckOut,
		Currency:       s.Currency,
		RoomTotal:      s.RoomTotal,
		AddonsTotal:    s.AddonsTotal,
		DiscountAmount: s.DiscountAmount,
		TotalAmount:    s.GrandTotal,
		Status:         StatusPending,
		StatusHistory:  []StatusChange{{Status: StatusPending, At: now}},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for i := range s.Rooms {
		sel := &s.Rooms[i]

		var total, rate float64
		if sel.AdjustedTotal != nil {
			total = *sel.AdjustedTotal
		}
		if sel.Pricing != nil {
			rate = sel.Pricing.AverageRate()
		}

		booking.RoomItems = append(booking.RoomItems, BookingRoomItem{
			RoomID:      sel.Room.ID.Hex(),
			RoomName:    sel.Room.Name,
			PricingMode: sel.Room.Mode(),
			NightlyRate: rate,
			Nights:      nights,
			Adults:      sel.Adults,
			ChildAges:   append([]int(nil), sel.ChildAges...),
			Total:       total,
		})
	}

	totalGuests := TotalGuests(s.Rooms)

	for i := range s.Addons {
		sel := &s.Addons[i]

		booking.AddonItems = append(booking.AddonItems, BookingAddonItem{
			AddonID:     sel.Addon.ID.Hex(),
			Name:        sel.Addon.Name,
			Price:       sel.Addon.Price,
			PricingType: sel.Addon.PricingType,
			Quantity:    sel.Quantity,
			Total:       AddonsTotal([]AddonSelection{*sel}, nights, totalGuests),
		})
	}

	if s.Coupon != nil {
		booking.Coupon = &CouponSnapshot{
			Code:           s.Coupon.Coupon.Code,
			DiscountType:   s.Coupon.Coupon.DiscountType,
			DiscountValue:  s.Coupon.Coupon.DiscountValue,
			DiscountAmount: s.Coupon.DiscountAmount,
		}
	}

	return booking
}
