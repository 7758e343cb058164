package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AvailabilityResult struct {
	Available      bool `json:"available"`
	AvailableUnits int  `json:"available_units"`
	MinStayNights  int  `json:"min_stay_nights"`
	MeetsMinStay   bool `json:"meets_min_stay"`
}

type AvailabilityService interface {
	Check(ctx context.Context, roomID primitive.ObjectID, checkIn, checkOut time.Time) (*AvailabilityResult, error)
}
