package domain

import (
	"net/mail"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CheckoutStep string

const (
	SelectingRoom        CheckoutStep = "selecting_room"
	SelectingAddons      CheckoutStep = "selecting_addons"
	EnteringGuestDetails CheckoutStep = "entering_guest_details"
	SelectingPayment     CheckoutStep = "selecting_payment"
)

var stepOrder = []CheckoutStep{SelectingRoom, SelectingAddons, EnteringGuestDetails, SelectingPayment}

type GuestDetails struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	DialCode string `json:"dial_code" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

// FullPhone is the dial code plus the subscriber number.
func (g GuestDetails) FullPhone() string {
	return g.DialCode + g.Phone
}

// RoomSelection pairs a room with its stay pricing and guest composition.
// AdjustedTotal is nil until the pricing fetch has completed.
type RoomSelection struct {
	Room          Room         `json:"room"`
	Pricing       *StayPricing `json:"pricing,omitempty"`
	Adults        int          `json:"adults"`
	ChildAges     []int        `json:"child_ages,omitempty"`
	AdjustedTotal *float64     `json:"adjusted_total,omitempty"`
}

type AddonSelection struct {
	Addon    Addon `json:"addon"`
	Quantity int   `json:"quantity"`
}

// CheckoutSession is the whole checkout state as a value. It is only ever
// changed through Apply, which recomputes every derived total before
// returning, so a stale total can never be observed.
type CheckoutSession struct {
	ID             string           `json:"id"`
	Step           CheckoutStep     `json:"step"`
	CheckIn        time.Time        `json:"check_in"`
	CheckOut       time.Time        `json:"check_out"`
	Rooms          []RoomSelection  `json:"rooms"`
	Addons         []AddonSelection `json:"addons"`
	Guest          GuestDetails     `json:"guest"`
	Coupon         *AppliedCoupon   `json:"coupon,omitempty"`
	RoomTotal      float64          `json:"room_total"`
	AddonsTotal    float64          `json:"addons_total"`
	DiscountAmount float64          `json:"discount_amount"`
	GrandTotal     float64          `json:"grand_total"`
	Currency       string           `json:"currency"`
	Notices        []string         `json:"notices,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Nights is the stay length in whole nights.
func (s *CheckoutSession) Nights() int {
	if s.CheckIn.IsZero() || s.CheckOut.IsZero() {
		return 0
	}

	nights := int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
	if nights < 0 {
		return 0
	}

	return nights
}

// RoomIDs lists the ids of every selected room.
func (s *CheckoutSession) RoomIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(s.Rooms))
	for i := range s.Rooms {
		ids = append(ids, s.Rooms[i].Room.ID)
	}

	return ids
}

// SessionEvent is one user or collaborator input to the checkout reducer.
type SessionEvent interface {
	isSessionEvent()
}

type DatesChanged struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// RoomAdded carries the pricing already fetched by the caller so the
// reducer stays free of I/O. Pricing may be nil when the lookup failed;
// the room then blocks forward progression until pricing arrives.
type RoomAdded struct {
	Room      Room
	Pricing   *StayPricing
	Adults    int
	ChildAges []int
}

type RoomRemoved struct {
	RoomID primitive.ObjectID
}

// RoomDropped is the silent correction path: a previously selected room no
// longer meets its minimum stay or is fully booked after a date change.
type RoomDropped struct {
	RoomID primitive.ObjectID
	Notice string
}

// RoomPricingLoaded records the outcome of a rate lookup. A nil Pricing
// means the lookup failed; the Notice then carries the best-effort estimate
// shown in place of final pricing.
type RoomPricingLoaded struct {
	RoomID  primitive.ObjectID
	Pricing *StayPricing
	Notice  string
}

type GuestsChanged struct {
	RoomID    primitive.ObjectID
	Adults    int
	ChildAges []int
}

type AddonSet struct {
	Addon    Addon
	Quantity int
}

type GuestDetailsEntered struct {
	Guest GuestDetails
}

type CouponApplied struct {
	Coupon Coupon
}

type CouponRemoved struct{}

// NoticeAdded surfaces a silent correction to the guest.
type NoticeAdded struct {
	Notice string
}

type StepAdvanced struct{}

type StepReverted struct{}

func (DatesChanged) isSessionEvent()        {}
func (RoomAdded) isSessionEvent()           {}
func (RoomRemoved) isSessionEvent()         {}
func (RoomDropped) isSessionEvent()         {}
func (RoomPricingLoaded) isSessionEvent()   {}
func (GuestsChanged) isSessionEvent()       {}
func (AddonSet) isSessionEvent()            {}
func (GuestDetailsEntered) isSessionEvent() {}
func (CouponApplied) isSessionEvent()       {}
func (CouponRemoved) isSessionEvent()       {}
func (NoticeAdded) isSessionEvent()         {}
func (StepAdvanced) isSessionEvent()        {}
func (StepReverted) isSessionEvent()        {}

// Apply is a pure reducer: it returns a new session with the event folded
// in and every derived total recomputed. The input session is not modified.
func Apply(s CheckoutSession, event SessionEvent) CheckoutSession {
	next := s.clone()

	switch e := event.(type) {
	case DatesChanged:
		next.CheckIn = e.CheckIn
		next.CheckOut = e.CheckOut
		// Stay length changed, so every stay pricing is stale until the
		// caller reloads it.
		for i := range next.Rooms {
			next.Rooms[i].Pricing = nil
			next.Rooms[i].AdjustedTotal = nil
		}
	case RoomAdded:
		next.Rooms = append(next.Rooms, RoomSelection{
			Room:      e.Room,
			Pricing:   e.Pricing,
			Adults:    e.Adults,
			ChildAges: append([]int(nil), e.ChildAges...),
		})
	case RoomRemoved:
		next.Rooms = removeRoom(next.Rooms, e.RoomID)
	case RoomDropped:
		next.Rooms = removeRoom(next.Rooms, e.RoomID)
		if e.Notice != "" {
			next.Notices = append(next.Notices, e.Notice)
		}
	case RoomPricingLoaded:
		for i := range next.Rooms {
			if next.Rooms[i].Room.ID == e.RoomID {
				next.Rooms[i].Pricing = e.Pricing
			}
		}
		if e.Notice != "" {
			next.Notices = append(next.Notices, e.Notice)
		}
	case GuestsChanged:
		for i := range next.Rooms {
			if next.Rooms[i].Room.ID == e.RoomID {
				next.Rooms[i].Adults = e.Adults
				next.Rooms[i].ChildAges = append([]int(nil), e.ChildAges...)
			}
		}
	case AddonSet:
		next.Addons = setAddon(next.Addons, e.Addon, e.Quantity)
	case GuestDetailsEntered:
		next.Guest = e.Guest
	case CouponApplied:
		next.Coupon = &AppliedCoupon{Coupon: e.Coupon}
	case CouponRemoved:
		next.Coupon = nil
	case NoticeAdded:
		if e.Notice != "" {
			next.Notices = append(next.Notices, e.Notice)
		}
	case StepAdvanced:
		next.Step = nextStep(next.Step)
	case StepReverted:
		next.Step = prevStep(next.Step)
	}

	next.recompute()
	next.UpdatedAt = time.Now().UTC()

	return next
}

// recompute rebuilds every derived figure from the current inputs: per-room
// adjusted totals, the aggregates, and the coupon discount. An applied
// coupon that no longer passes eligibility is dropped with a notice rather
// than silently kept at a stale amount.
func (s *CheckoutSession) recompute() {
	nights := s.Nights()

	for i := range s.Rooms {
		sel := &s.Rooms[i]

		if sel.Pricing == nil {
			sel.AdjustedTotal = nil

			continue
		}

		total := RoomStayTotal(&sel.Room, sel.Pricing.AverageRate(), nights, sel.Adults, sel.ChildAges)
		sel.AdjustedTotal = &total
	}

	s.RoomTotal = RoomsTotal(s.Rooms)
	s.AddonsTotal = AddonsTotal(s.Addons, nights, TotalGuests(s.Rooms))

	subtotal := s.RoomTotal + s.AddonsTotal

	s.DiscountAmount = 0

	if s.Coupon != nil {
		err := ValidateCoupon(&s.Coupon.Coupon, CouponEligibility{
			RoomIDs:       s.RoomIDs(),
			StayNights:    nights,
			CheckIn:       s.CheckIn,
			CheckOut:      s.CheckOut,
			CustomerEmail: s.Guest.Email,
		})
		if err != nil {
			s.Notices = append(s.Notices, "Coupon "+s.Coupon.Coupon.Code+" was removed: it no longer applies to this booking.")
			s.Coupon = nil
		} else {
			s.Coupon.DiscountAmount = CouponDiscount(&s.Coupon.Coupon, subtotal, nights)
			s.Coupon.Subtotal = subtotal
			s.DiscountAmount = s.Coupon.DiscountAmount
		}
	}

	s.GrandTotal = GrandTotal(s.RoomTotal, s.AddonsTotal, s.DiscountAmount)
}

// CanAdvance gates forward progression out of the current step.
func (s *CheckoutSession) CanAdvance() error {
	switch s.Step {
	case SelectingRoom:
		verr := NewValidationError()

		if len(s.Rooms) == 0 {
			verr.Add("rooms", "select at least one room")
		}

		if s.CheckIn.IsZero() || s.CheckOut.IsZero() {
			verr.Add("dates", "select check-in and check-out dates")
		}

		for i := range s.Rooms {
			if s.Rooms[i].Pricing == nil {
				verr.Add("pricing", "pricing for "+s.Rooms[i].Room.Name+" has not loaded yet")
			}
		}

		if verr.HasErrors() {
			return verr
		}
	case SelectingAddons:
	case EnteringGuestDetails:
		return s.validateGuest()
	case SelectingPayment:
		return ErrInvalidTransition
	}

	return nil
}

func (s *CheckoutSession) validateGuest() error {
	verr := NewValidationError()

	if len(s.Guest.Name) < 2 {
		verr.Add("name", "provide the guest name")
	}

	if _, err := mail.ParseAddress(s.Guest.Email); err != nil {
		verr.Add("email", "provide a valid email address")
	}

	if digitCount(s.Guest.FullPhone()) < 10 {
		verr.Add("phone", "provide a phone number with at least 10 digits")
	}

	if verr.HasErrors() {
		return verr
	}

	return nil
}

func (s CheckoutSession) clone() CheckoutSession {
	s.Rooms = append([]RoomSelection(nil), s.Rooms...)
	for i := range s.Rooms {
		s.Rooms[i].ChildAges = append([]int(nil), s.Rooms[i].ChildAges...)
		if s.Rooms[i].Pricing != nil {
			pricing := *s.Rooms[i].Pricing
			pricing.Rates = append([]NightRate(nil), pricing.Rates...)
			s.Rooms[i].Pricing = &pricing
		}
		if s.Rooms[i].AdjustedTotal != nil {
			total := *s.Rooms[i].AdjustedTotal
			s.Rooms[i].AdjustedTotal = &total
		}
	}

	s.Addons = append([]AddonSelection(nil), s.Addons...)
	s.Notices = append([]string(nil), s.Notices...)

	if s.Coupon != nil {
		coupon := *s.Coupon
		s.Coupon = &coupon
	}

	return s
}

func removeRoom(selections []RoomSelection, roomID primitive.ObjectID) []RoomSelection {
	kept := selections[:0]
	for i := range selections {
		if selections[i].Room.ID != roomID {
			kept = append(kept, selections[i])
		}
	}

	return kept
}

func setAddon(selections []AddonSelection, addon Addon, quantity int) []AddonSelection {
	if quantity <= 0 {
		kept := selections[:0]
		for i := range selections {
			if selections[i].Addon.ID != addon.ID {
				kept = append(kept, selections[i])
			}
		}

		return kept
	}

	for i := range selections {
		if selections[i].Addon.ID == addon.ID {
			selections[i].Quantity = quantity

			return selections
		}
	}

	return append(selections, AddonSelection{Addon: addon, Quantity: quantity})
}

func nextStep(step CheckoutStep) CheckoutStep {
	for i, current := range stepOrder {
		if current == step && i < len(stepOrder)-1 {
			return stepOrder[i+1]
		}
	}

	return step
}

func prevStep(step CheckoutStep) CheckoutStep {
	for i, current := range stepOrder {
		if current == step && i > 0 {
			return stepOrder[i-1]
		}
	}

	return step
}

func digitCount(s string) int {
	var count int

	for _, r := range s {
		if r >= '0' && r <= '9' {
			count++
		}
	}

	return count
}
