package domain

import (
	"encoding/json"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PricingMode string

const (
	PerUnit          PricingMode = "per_unit"
	PerPerson        PricingMode = "per_person"
	PerPersonSharing PricingMode = "per_person_sharing"
)

type AddonPricingType string

const (
	PerBooking       AddonPricingType = "per_booking"
	PerNight         AddonPricingType = "per_night"
	PerGuest         AddonPricingType = "per_guest"
	PerGuestPerNight AddonPricingType = "per_guest_per_night"
)

// Room is immutable reference data within a checkout session.
type Room struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                 string             `bson:"name" json:"name"`
	BaseRate             float64            `bson:"base_rate" json:"base_rate"`
	PricingMode          PricingMode        `bson:"pricing_mode,omitempty" json:"pricing_mode,omitempty"`
	MaxGuests            int                `bson:"max_guests" json:"max_guests"`
	ChildFreeUntilAge    int                `bson:"child_free_until_age" json:"child_free_until_age"`
	ChildAgeLimit        int                `bson:"child_age_limit" json:"child_age_limit"`
	ChildRate            *float64           `bson:"child_rate,omitempty" json:"child_rate,omitempty"`
	AdditionalPersonRate *float64           `bson:"additional_person_rate,omitempty" json:"additional_person_rate,omitempty"`
}

// Mode normalizes an unset pricing mode to per_unit.
func (r *Room) Mode() PricingMode {
	switch r.PricingMode {
	case PerPerson, PerPersonSharing:
		return r.PricingMode
	default:
		return PerUnit
	}
}

type Addon struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	PricingType AddonPricingType   `bson:"pricing_type" json:"pricing_type"`
}

func (r *Room) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(r)
}

func (r *Room) FromJSON(rd io.Reader) error {
	d := json.NewDecoder(rd)
	return d.Decode(r)
}
