package domain

import "time"

// NightRate is one night's rate for a room, possibly carrying a seasonal
// rate name from the rate table.
type NightRate struct {
	Date       time.Time `bson:"date" json:"date"`
	Rate       float64   `bson:"rate" json:"rate"`
	SeasonName string    `bson:"season_name,omitempty" json:"season_name,omitempty"`
}

// StayPricing is the per-night breakdown for a specific date range,
// independent of guest composition.
type StayPricing struct {
	Nights   int         `json:"nights"`
	Rates    []NightRate `json:"rates"`
	Subtotal float64     `json:"subtotal"`
}

// AverageRate is the mean nightly rate across the stay.
func (sp *StayPricing) AverageRate() float64 {
	if sp.Nights == 0 {
		return 0
	}

	return sp.Subtotal / float64(sp.Nights)
}

// childBands classifies child ages against the room's thresholds. Ages at a
// threshold fall into the higher band: age == ChildFreeUntilAge pays the
// child rate, age == ChildAgeLimit pays the adult rate.
func childBands(room *Room, childAges []int) (free, paying, asAdults int) {
	for _, age := range childAges {
		switch {
		case age >= room.ChildAgeLimit:
			asAdults++
		case age >= room.ChildFreeUntilAge:
			paying++
		default:
			free++
		}
	}

	return free, paying, asAdults
}

// RoomStayTotal computes the guest-adjusted total for one room's stay given
// the average nightly rate. Zero nights always yields zero.
func RoomStayTotal(room *Room, nightlyRate float64, nights int, adults int, childAges []int) float64 {
	if nights <= 0 {
		return 0
	}

	_, payingChildren, childrenAsAdults := childBands(room, childAges)

	switch room.Mode() {
	case PerPerson:
		childRate := nightlyRate
		if room.ChildRate != nil {
			childRate = *room.ChildRate
		}

		adultTotal := float64(adults+childrenAsAdults) * nightlyRate * float64(nights)
		childTotal := float64(payingChildren) * childRate * float64(nights)

		return adultTotal + childTotal
	case PerPersonSharing:
		additionalRate := nightlyRate
		if room.AdditionalPersonRate != nil {
			additionalRate = *room.AdditionalPersonRate
		}

		childRate := additionalRate
		if room.ChildRate != nil && *room.ChildRate < additionalRate {
			childRate = *room.ChildRate
		}

		occupants := adults + childrenAsAdults

		var perNight float64
		if occupants > 0 {
			perNight = nightlyRate + float64(occupants-1)*additionalRate
		}

		perNight += float64(payingChildren) * childRate

		return perNight * float64(nights)
	default:
		// per_unit: guest composition never alters price.
		return nightlyRate * float64(nights)
	}
}

// RoomsTotal sums the adjusted totals of all selections, falling back to the
// raw stay subtotal for rooms not yet guest-adjusted.
func RoomsTotal(selections []RoomSelection) float64 {
	var total float64

	for i := range selections {
		sel := &selections[i]

		if sel.AdjustedTotal != nil {
			total += *sel.AdjustedTotal

			continue
		}

		if sel.Pricing != nil {
			total += sel.Pricing.Subtotal
		}
	}

	return total
}

// TotalGuests counts adults plus children across all room selections.
func TotalGuests(selections []RoomSelection) int {
	var guests int

	for i := range selections {
		guests += selections[i].Adults + len(selections[i].ChildAges)
	}

	return guests
}

// AddonsTotal applies each add-on's pricing-type multiplier.
func AddonsTotal(addons []AddonSelection, nights int, totalGuests int) float64 {
	var total float64

	for i := range addons {
		sel := &addons[i]

		multiplier := 1
		switch sel.Addon.PricingType {
		case PerNight:
			multiplier = nights
		case PerGuest:
			multiplier = totalGuests
		case PerGuestPerNight:
			multiplier = totalGuests * nights
		case PerBooking:
		}

		total += sel.Addon.Price * float64(sel.Quantity) * float64(multiplier)
	}

	return total
}

// GrandTotal clamps at zero: a discount never drives the total negative.
func GrandTotal(roomTotal, addonsTotal, discount float64) float64 {
	total := roomTotal + addonsTotal - discount
	if total < 0 {
		return 0
	}

	return total
}
