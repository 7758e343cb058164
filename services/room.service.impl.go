package services

import (
	"context"
	"errors"

	"booking-service/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type RoomServiceImpl struct {
	rooms  *mongo.Collection
	addons *mongo.Collection
}

func NewRoomServiceImpl(rooms, addons *mongo.Collection) RoomService {
	return &RoomServiceImpl{rooms: rooms, addons: addons}
}

func (s *RoomServiceImpl) GetRoom(ctx context.Context, id primitive.ObjectID) (*domain.Room, error) {
	var room domain.Room

	err := s.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoomNotFound
		}

		return nil, err
	}

	return &room, nil
}

func (s *RoomServiceImpl) GetRooms(ctx context.Context) ([]*domain.Room, error) {
	cursor, err := s.rooms.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rooms []*domain.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}

	return rooms, nil
}

func (s *RoomServiceImpl) GetAddon(ctx context.Context, id primitive.ObjectID) (*domain.Addon, error) {
	var addon domain.Addon

	err := s.addons.FindOne(ctx, bson.M{"_id": id}).Decode(&addon)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAddonNotFound
		}

		return nil, err
	}

	return &addon, nil
}

func (s *RoomServiceImpl) GetAddons(ctx context.Context) ([]*domain.Addon, error) {
	cursor, err := s.addons.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var addons []*domain.Addon
	if err := cursor.All(ctx, &addons); err != nil {
		return nil, err
	}

	return addons, nil
}
