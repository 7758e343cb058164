package services

import (
	"context"
	"fmt"
	"time"

	"booking-service/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// rateDocument is one per-night rate row, optionally tagged with the
// seasonal rate it came from.
type rateDocument struct {
	RoomID     primitive.ObjectID `bson:"room_id"`
	Date       time.Time          `bson:"date"`
	Rate       float64            `bson:"rate"`
	SeasonName string             `bson:"season_name,omitempty"`
}

type RateServiceImpl struct {
	collection *mongo.Collection
}

func NewRateServiceImpl(collection *mongo.Collection) RateService {
	return &RateServiceImpl{collection: collection}
}

func (s *RateServiceImpl) GetPricing(ctx context.Context, room *domain.Room, checkIn, checkOut time.Time) (*domain.StayPricing, error) {
	checkIn = checkIn.Truncate(24 * time.Hour)
	checkOut = checkOut.Truncate(24 * time.Hour)

	if !checkOut.After(checkIn) {
		return &domain.StayPricing{}, nil
	}

	cursor, err := s.collection.Find(ctx, bson.M{
		"room_id": room.ID,
		"date":    bson.M{"$gte": checkIn, "$lt": checkOut},
	})
	if err != nil {
		return nil, fmt.Errorf("find rates for room %s: %w", room.ID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var docs []rateDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode rates for room %s: %w", room.ID.Hex(), err)
	}

	byDate := make(map[string]rateDocument, len(docs))
	for _, doc := range docs {
		byDate[doc.Date.Format("2006-01-02")] = doc
	}

	pricing := &domain.StayPricing{}

	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		night := domain.NightRate{Date: d, Rate: room.BaseRate}

		if doc, ok := byDate[d.Format("2006-01-02")]; ok {
			night.Rate = doc.Rate
			night.SeasonName = doc.SeasonName
		}

		pricing.Rates = append(pricing.Rates, night)
		pricing.Nights++
		pricing.Subtotal += night.Rate
	}

	return pricing, nil
}
