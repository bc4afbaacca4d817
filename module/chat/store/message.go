package store

import (
	"context"
	"errors"

	"HelloChat/module/chat/model"
	errs "HelloChat/tools/errs"
	"HelloChat/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageStore is the persistence gateway for chat messages.
type MessageStore struct {
	coll *mongo.Collection
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{coll: db.Collection(model.MessageCollection)}
}

// Create inserts a new text message with status "sent". The seq ordinal is
// assigned here; it is strictly increasing per node so history sorting and
// recent-N queries agree on one order.
func (s *MessageStore) Create(ctx context.Context, roomID string, senderID int64, text string) (*model.Message, error) {
	msg := &model.Message{
		RoomID:      roomID,
		SenderID:    senderID,
		MessageText: text,
		MessageType: model.TypeText,
		CreatedAt:   model.FormattedNow(),
		Status:      model.StatusSent,
		SeenBy:      []int64{},
		Seq:         ids.Generate(),
	}
	res, err := s.coll.InsertOne(ctx, msg)
	if err != nil {
		return nil, errs.WrapMsg(err, "insert message")
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}
	return msg, nil
}

// UpdateStatusBulk moves every message in ids to the target status, skipping
// messages sent by the requester (a user cannot change the status of their
// own message) and never regressing a status. "seen" also records the
// requester in seen_by. It returns the affected subset in seq order: every
// listed message not sent by the requester, whether or not this call moved it.
func (s *MessageStore) UpdateStatusBulk(ctx context.Context, msgIDs []string, status string, requesterID int64) ([]model.Message, error) {
	if !model.ValidTargetStatus(status) {
		return nil, errs.ErrMalformedFrame.WithDetail("status " + status)
	}
	oids := make([]primitive.ObjectID, 0, len(msgIDs))
	for _, id := range msgIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, errs.ErrInvalidID.WithDetail("message id " + id)
		}
		oids = append(oids, oid)
	}
	if len(oids) == 0 {
		return nil, nil
	}

	notOwn := bson.M{
		"_id":       bson.M{"$in": oids},
		"sender_id": bson.M{"$ne": requesterID},
	}

	// Monotonic transition: only documents below the target rank move.
	var fromStates []string
	switch status {
	case model.StatusDelivered:
		fromStates = []string{model.StatusSent}
	case model.StatusSeen:
		fromStates = []string{model.StatusSent, model.StatusDelivered}
	}
	transition := bson.M{
		"_id":       bson.M{"$in": oids},
		"sender_id": bson.M{"$ne": requesterID},
		"status":    bson.M{"$in": fromStates},
	}
	update := bson.M{"$set": bson.M{"status": status}}
	if status == model.StatusSeen {
		update["$addToSet"] = bson.M{"seen_by": requesterID}
	}
	if _, err := s.coll.UpdateMany(ctx, transition, update); err != nil {
		return nil, errs.WrapMsg(err, "bulk status update")
	}
	if status == model.StatusSeen {
		// Already-seen messages still record this reader.
		alreadySeen := bson.M{
			"_id":       bson.M{"$in": oids},
			"sender_id": bson.M{"$ne": requesterID},
			"status":    model.StatusSeen,
		}
		if _, err := s.coll.UpdateMany(ctx, alreadySeen, bson.M{"$addToSet": bson.M{"seen_by": requesterID}}); err != nil {
			return nil, errs.WrapMsg(err, "seen_by update")
		}
	}

	cur, err := s.coll.Find(ctx, notOwn, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, errs.WrapMsg(err, "load updated messages")
	}
	var out []model.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode updated messages")
	}
	return out, nil
}

// Recent returns up to limit messages of a room, skipping offset newest
// ones, in chronological order (newest-first query, then reversed).
func (s *MessageStore) Recent(ctx context.Context, roomID string, limit, offset int64) ([]model.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "seq", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)
	cur, err := s.coll.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, errs.WrapMsg(err, "recent messages")
	}
	var msgs []model.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, errs.WrapMsg(err, "decode recent messages")
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// IsNotFound reports whether err is the driver's no-documents sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
