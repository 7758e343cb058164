package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type availabilityDocument struct {
	RoomID        primitive.ObjectID `bson:"room_id"`
	Date          time.Time          `bson:"date"`
	Units         int                `bson:"units"`
	MinStayNights int                `bson:"min_stay_nights"`
}

type AvailabilityServiceImpl struct {
	collection *mongo.Collection
}

func NewAvailabilityServiceImpl(collection *mongo.Collection) AvailabilityService {
	return &AvailabilityServiceImpl{collection: collection}
}

// Check walks the per-date availability rows for the stay. A date with no
// row or zero units makes the whole range unavailable; the strictest
// min-stay across the range is the one that applies.
func (s *AvailabilityServiceImpl) Check(ctx context.Context, roomID primitive.ObjectID, checkIn, checkOut time.Time) (*AvailabilityResult, error) {
	checkIn = checkIn.Truncate(24 * time.Hour)
	checkOut = checkOut.Truncate(24 * time.Hour)

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights <= 0 {
		return &AvailabilityResult{}, nil
	}

	cursor, err := s.collection.Find(ctx, bson.M{
		"room_id": roomID,
		"date":    bson.M{"$gte": checkIn, "$lt": checkOut},
	})
	if err != nil {
		return nil, fmt.Errorf("find availability for room %s: %w", roomID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var docs []availabilityDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode availability for room %s: %w", roomID.Hex(), err)
	}

	byDate := make(map[string]availabilityDocument, len(docs))
	for _, doc := range docs {
		byDate[doc.Date.Format("2006-01-02")] = doc
	}

	result := &AvailabilityResult{Available: true}

	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		doc, ok := byDate[d.Format("2006-01-02")]
		if !ok || doc.Units <= 0 {
			return &AvailabilityResult{Available: false}, nil
		}

		if result.AvailableUnits == 0 || doc.Units < result.AvailableUnits {
			result.AvailableUnits = doc.Units
		}

		if doc.MinStayNights > result.MinStayNights {
			result.MinStayNights = doc.MinStayNights
		}
	}

	result.MeetsMinStay = nights >= result.MinStayNights

	return result, nil
}
