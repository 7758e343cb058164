package services

import (
	"context"

	"booking-service/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoomService interface {
	GetRoom(ctx context.Context, id primitive.ObjectID) (*domain.Room, error)
	GetRooms(ctx context.Context) ([]*domain.Room, error)
	GetAddon(ctx context.Context, id primitive.ObjectID) (*domain.Addon, error)
	GetAddons(ctx context.Context) ([]*domain.Addon, error)
}
