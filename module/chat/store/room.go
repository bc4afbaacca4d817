package store

import (
	"context"
	"errors"

	"HelloChat/module/chat/model"
	errs "HelloChat/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RoomStore reads and mutates persisted room membership. Rooms are never
// physically deleted here; deactivation flips is_active.
type RoomStore struct {
	coll *mongo.Collection
}

func NewRoomStore(db *mongo.Database) *RoomStore {
	return &RoomStore{coll: db.Collection(model.RoomCollection)}
}

// ByID loads a room. Returns ErrInvalidID on a malformed id and
// ErrRoomNotFound when no document exists.
func (s *RoomStore) ByID(ctx context.Context, roomID string) (*model.Room, error) {
	oid, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return nil, errs.ErrInvalidID.WithDetail("room id " + roomID)
	}
	var room model.Room
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRoomNotFound
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find room")
	}
	return &room, nil
}

// ByMemberPair finds the room holding both users (friend-room lookup).
func (s *RoomStore) ByMemberPair(ctx context.Context, a, b int64) (*model.Room, error) {
	var room model.Room
	err := s.coll.FindOne(ctx, pairFilter(a, b)).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRoomNotFound
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find room by members")
	}
	return &room, nil
}

// CreateOrReactivate returns the active room for the pair, creating it on
// first friend-add and reactivating it on re-friend/unblock.
func (s *RoomStore) CreateOrReactivate(ctx context.Context, a, b int64, roomType string) (*model.Room, error) {
	if !model.ValidRoomType(roomType) {
		return nil, errs.New("invalid room type " + roomType)
	}
	room, err := s.ByMemberPair(ctx, a, b)
	if err != nil && !errs.ErrRoomNotFound.Is(err) {
		return nil, err
	}
	if room == nil {
		now := model.FormattedNow()
		room = &model.Room{
			Users: []model.RoomUser{
				{UserID: a, IsAdmin: true, JoinedAt: now},
				{UserID: b, IsAdmin: true, JoinedAt: now},
			},
			CreatedAt: now,
			Type:      roomType,
			CreatedBy: a,
			IsActive:  true,
		}
		res, err := s.coll.InsertOne(ctx, room)
		if err != nil {
			return nil, errs.WrapMsg(err, "insert room")
		}
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			room.ID = oid
		}
		return room, nil
	}
	if !room.IsActive {
		room.IsActive = true
		if _, err := s.coll.UpdateByID(ctx, room.ID, bson.M{"$set": bson.M{"is_active": true}}); err != nil {
			return nil, errs.WrapMsg(err, "reactivate room")
		}
	}
	return room, nil
}

// SetActiveByPair flips is_active for the pair's room. Returns the room, or
// nil without error when the pair never had one.
func (s *RoomStore) SetActiveByPair(ctx context.Context, a, b int64, active bool) (*model.Room, error) {
	var room model.Room
	err := s.coll.FindOneAndUpdate(ctx,
		pairFilter(a, b),
		bson.M{"$set": bson.M{"is_active": active}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "set room active")
	}
	return &room, nil
}

func pairFilter(a, b int64) bson.M {
	return bson.M{"users.user_id": bson.M{"$all": []int64{a, b}}}
}
