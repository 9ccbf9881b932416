package mongo

import (
	"context"
	"errors"
	"fithub/workout-service/internal/domain"
	"fithub/workout-service/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutLogCollectionName = "workout_logs"

// mongoWorkoutLogRepository implements repository.WorkoutLogRepository
type mongoWorkoutLogRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutLogRepository creates a new WorkoutLog repository backed by MongoDB.
func NewMongoWorkoutLogRepository(db *mongo.Database) repository.WorkoutLogRepository {
	return &mongoWorkoutLogRepository{
		collection: db.Collection(workoutLogCollectionName),
	}
}

// Create inserts a new log entry.
func (r *mongoWorkoutLogRepository) Create(ctx context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error) {
	log.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, log)
	if err != nil {
		return primitive.NilObjectID, mapStoreErr(err)
	}
	return log.ID, nil
}

// GetByID retrieves a log entry by its ID.
func (r *mongoWorkoutLogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	var log domain.WorkoutLog
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return &log, nil
}

// GetByMemberID retrieves a member's log entries, optionally bounded to a
// date range, newest first.
func (r *mongoWorkoutLogRepository) GetByMemberID(ctx context.Context, memberID primitive.ObjectID, from, to *time.Time) ([]domain.WorkoutLog, error) {
	filter := bson.M{"memberId": memberID}
	dateFilter := bson.M{}
	if from != nil {
		dateFilter["$gte"] = *from
	}
	if to != nil {
		dateFilter["$lte"] = *to
	}
	if len(dateFilter) > 0 {
		filter["logDate"] = dateFilter
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "logDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer cursor.Close(ctx)

	var logs []domain.WorkoutLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, mapStoreErr(err)
	}
	return logs, nil
}

// Delete removes a log entry.
func (r *mongoWorkoutLogRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapStoreErr(err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWorkoutLogIndexes creates necessary indexes for the logs collection.
func EnsureWorkoutLogIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "memberId", Value: 1}, {Key: "logDate", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
