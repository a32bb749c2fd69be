package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ScholarChen20/travel-agent/internal/dialog/domain"
)

const (
	sessionsCollection = "dialog_sessions"
	messagesCollection = "dialog_messages"
	toolLogsCollection = "tool_call_logs"
)

// MongoRepository implements Repository on a MongoDB database.
type MongoRepository struct {
	sessions *mongo.Collection
	messages *mongo.Collection
	toolLogs *mongo.Collection
}

// NewMongoRepository returns a MongoRepository over the given database.
func NewMongoRepository(database *mongo.Database) *MongoRepository {
	return &MongoRepository{
		sessions: database.Collection(sessionsCollection),
		messages: database.Collection(messagesCollection),
		toolLogs: database.Collection(toolLogsCollection),
	}
}

func (r *MongoRepository) InsertSession(ctx context.Context, s *domain.Session) error {
	_, err := r.sessions.InsertOne(ctx, s)
	return err
}

func (r *MongoRepository) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s domain.Session
	err := r.sessions.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepository) TouchSession(ctx context.Context, sessionID string) error {
	_, err := r.sessions.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$inc": bson.M{"message_count": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}

func (r *MongoRepository) UpdateTitle(ctx context.Context, sessionID, ownerID, title string) (bool, error) {
	res, err := r.sessions.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "user_id": ownerID},
		bson.M{"$set": bson.M{"title": title, "updated_at": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoRepository) DeleteSession(ctx context.Context, sessionID, ownerID string) (bool, error) {
	res, err := r.sessions.DeleteOne(ctx, bson.M{"session_id": sessionID, "user_id": ownerID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) ListSessions(ctx context.Context, ownerID string, f domain.ListFilter) ([]domain.SessionSummary, error) {
	filter := bson.M{"user_id": ownerID}
	if f.Active != nil {
		filter["is_active"] = *f.Active
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetSkip(int64(f.Skip)).
		SetLimit(int64(f.Limit))

	cur, err := r.sessions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	summaries := []domain.SessionSummary{}
	if err := cur.All(ctx, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *MongoRepository) InsertMessage(ctx context.Context, m *domain.Message) error {
	_, err := r.messages.InsertOne(ctx, m)
	return err
}

func (r *MongoRepository) RecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.messages.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	msgs := []domain.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	// Query order is newest-first; callers want chronological.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *MongoRepository) DeleteMessages(ctx context.Context, sessionID string) error {
	_, err := r.messages.DeleteMany(ctx, bson.M{"session_id": sessionID})
	return err
}

func (r *MongoRepository) InsertToolCall(ctx context.Context, l *domain.ToolCallLog) error {
	_, err := r.toolLogs.InsertOne(ctx, l)
	return err
}

func (r *MongoRepository) ToolCalls(ctx context.Context, sessionID string, limit int) ([]domain.ToolCallLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.toolLogs.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	logs := []domain.ToolCallLog{}
	if err := cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
