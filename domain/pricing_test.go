package domain

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestRoomStayTotalPerUnitIgnoresGuests(t *testing.T) {
	room := &Room{Name: "Standard", BaseRate: 1000, MaxGuests: 4}

	base := RoomStayTotal(room, 1000, 3, 1, nil)
	if base != 3000 {
		t.Errorf("expected 3000, got %v", base)
	}

	withGuests := RoomStayTotal(room, 1000, 3, 4, []int{3, 9})
	if withGuests != base {
		t.Errorf("per_unit total changed with guests: expected %v, got %v", base, withGuests)
	}
}

func TestRoomStayTotalPerPersonChildBands(t *testing.T) {
	room := &Room{
		Name:              "Family",
		BaseRate:          500,
		PricingMode:       PerPerson,
		ChildFreeUntilAge: 2,
		ChildAgeLimit:     12,
		ChildRate:         floatPtr(250),
	}

	// 2 adults at 500, child aged 8 at 250, child aged 1 free, 2 nights.
	total := RoomStayTotal(room, 500, 2, 2, []int{1, 8})
	if total != 2500 {
		t.Errorf("expected 2500, got %v", total)
	}
}

func TestRoomStayTotalPerPersonMonotonicInAdults(t *testing.T) {
	room := &Room{Name: "Dorm", BaseRate: 300, PricingMode: PerPerson}

	prev := 0.0
	for adults := 1; adults <= 6; adults++ {
		total := RoomStayTotal(room, 300, 2, adults, nil)
		if total < prev {
			t.Errorf("total decreased from %v to %v at %d adults", prev, total, adults)
		}
		prev = total
	}
}

func TestRoomStayTotalChildThresholds(t *testing.T) {
	room := &Room{
		Name:              "Family",
		BaseRate:          500,
		PricingMode:       PerPerson,
		ChildFreeUntilAge: 2,
		ChildAgeLimit:     12,
		ChildRate:         floatPtr(250),
	}

	// Age exactly at the free threshold pays the child rate.
	atFreeLimit := RoomStayTotal(room, 500, 1, 1, []int{2})
	if atFreeLimit != 750 {
		t.Errorf("expected 750 for child at free threshold, got %v", atFreeLimit)
	}

	// Age exactly at the child limit pays the adult rate.
	atChildLimit := RoomStayTotal(room, 500, 1, 1, []int{12})
	if atChildLimit != 1000 {
		t.Errorf("expected 1000 for child at adult threshold, got %v", atChildLimit)
	}
}

func TestRoomStayTotalPerPersonSharing(t *testing.T) {
	room := &Room{
		Name:                 "Suite",
		BaseRate:             1200,
		PricingMode:          PerPersonSharing,
		AdditionalPersonRate: floatPtr(400),
	}

	for adults := 1; adults <= 4; adults++ {
		expected := float64(2) * (1200 + float64(adults-1)*400)
		total := RoomStayTotal(room, 1200, 2, adults, nil)
		if total != expected {
			t.Errorf("expected %v for %d adults, got %v", expected, adults, total)
		}
	}
}

func TestRoomStayTotalPerPersonSharingNoOccupants(t *testing.T) {
	room := &Room{
		Name:                 "Suite",
		BaseRate:             1200,
		PricingMode:          PerPersonSharing,
		AdditionalPersonRate: floatPtr(400),
	}

	total := RoomStayTotal(room, 1200, 2, 0, nil)
	if total != 0 {
		t.Errorf("expected 0 with no occupants, got %v", total)
	}
}

func TestRoomStayTotalZeroNights(t *testing.T) {
	room := &Room{Name: "Standard", BaseRate: 1000, PricingMode: PerPerson}

	if total := RoomStayTotal(room, 1000, 0, 2, nil); total != 0 {
		t.Errorf("expected 0 for zero nights, got %v", total)
	}
}

func TestAddonsTotalMultipliers(t *testing.T) {
	cases := []struct {
		name        string
		pricingType AddonPricingType
		expected    float64
	}{
		{"per booking", PerBooking, 100},
		{"per night", PerNight, 300},
		{"per guest", PerGuest, 400},
		{"per guest per night", PerGuestPerNight, 1200},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			addons := []AddonSelection{
				{Addon: Addon{ID: primitive.NewObjectID(), Name: "Breakfast", Price: 100, PricingType: tc.pricingType}, Quantity: 1},
			}

			total := AddonsTotal(addons, 3, 4)
			if total != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, total)
			}
		})
	}
}

func TestAddonsTotalQuantity(t *testing.T) {
	addons := []AddonSelection{
		{Addon: Addon{Name: "Airport shuttle", Price: 250, PricingType: PerBooking}, Quantity: 2},
	}

	if total := AddonsTotal(addons, 3, 2); total != 500 {
		t.Errorf("expected 500, got %v", total)
	}
}

func TestRoomsTotalFallsBackToSubtotal(t *testing.T) {
	selections := []RoomSelection{
		{Pricing: &StayPricing{Nights: 2, Subtotal: 2000}, AdjustedTotal: floatPtr(2400)},
		{Pricing: &StayPricing{Nights: 2, Subtotal: 1500}},
		{},
	}

	if total := RoomsTotal(selections); total != 3900 {
		t.Errorf("expected 3900, got %v", total)
	}
}

func TestGrandTotalClampedAtZero(t *testing.T) {
	if total := GrandTotal(1000, 200, 5000); total != 0 {
		t.Errorf("expected 0, got %v", total)
	}

	if total := GrandTotal(3000, 0, 0); total != 3000 {
		t.Errorf("expected 3000, got %v", total)
	}
}

func TestAverageRate(t *testing.T) {
	pricing := StayPricing{Nights: 3, Subtotal: 3300}
	if rate := pricing.AverageRate(); rate != 1100 {
		t.Errorf("expected 1100, got %v", rate)
	}

	empty := StayPricing{}
	if rate := empty.AverageRate(); rate != 0 {
		t.Errorf("expected 0 for empty pricing, got %v", rate)
	}
}
