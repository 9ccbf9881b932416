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

const planCollectionName = "workout_plans"

// mongoPlanRepository implements repository.PlanRepository.
//
// A plan is one document with its days (and their exercise rows) embedded.
// Every day/row mutation below is a single conditional write whose filter
// re-validates the uniqueness invariant it protects: if a concurrent writer
// got there first, the filter stops matching and the write is reported as a
// conflict instead of landing on stale state. Because each write touches one
// document, updateDay's replace-children is all-or-nothing by construction.
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new WorkoutPlan repository backed by MongoDB.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan document.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.Days == nil {
		plan.Days = []domain.WorkoutDay{}
	}

	_, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateName
		}
		return primitive.NilObjectID, mapStoreErr(err)
	}
	return plan.ID, nil
}

// GetByID retrieves a plan together with its embedded days.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return &plan, nil
}

// List retrieves every plan, newest first.
func (r *mongoPlanRepository) List(ctx context.Context) ([]domain.WorkoutPlan, error) {
	return r.find(ctx, bson.M{})
}

// GetByTrainerID retrieves the plans created by one trainer.
func (r *mongoPlanRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return r.find(ctx, bson.M{"createdByTrainerId": trainerID})
}

// GetByDifficulty retrieves the plans of one difficulty grade.
func (r *mongoPlanRepository) GetByDifficulty(ctx context.Context, difficulty domain.Difficulty) ([]domain.WorkoutPlan, error) {
	return r.find(ctx, bson.M{"difficulty": difficulty})
}

func (r *mongoPlanRepository) find(ctx context.Context, filter bson.M) ([]domain.WorkoutPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer cursor.Close(ctx)

	var plans []domain.WorkoutPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, mapStoreErr(err)
	}
	return plans, nil
}

// UpdateScalars overwrites only the plan's top-level scalar fields. The day
// collection is never touched here.
func (r *mongoPlanRepository) UpdateScalars(ctx context.Context, plan *domain.WorkoutPlan) error {
	update := bson.M{
		"$set": bson.M{
			"name":        plan.Name,
			"description": plan.Description,
			"difficulty":  plan.Difficulty,
			"isActive":    plan.IsActive,
			"updatedAt":   time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateName
		}
		return mapStoreErr(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete hard-deletes a plan document; embedded days go with it. Reference
// checks against assignments live in the service layer.
func (r *mongoPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapStoreErr(err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddDay appends a day if and only if no existing day holds its dayNumber.
func (r *mongoPlanRepository) AddDay(ctx context.Context, planID primitive.ObjectID, day domain.WorkoutDay) error {
	filter := bson.M{
		"_id":  planID,
		"days": bson.M{"$not": bson.M{"$elemMatch": bson.M{"dayNumber": day.DayNumber}}},
	}
	update := bson.M{
		"$push": bson.M{"days": day},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapStoreErr(err)
	}
	if result.MatchedCount == 0 {
		return r.diagnoseDayMiss(ctx, planID, primitive.NilObjectID, repository.ErrDuplicateDayNumber)
	}
	return nil
}

// ReplaceDay overwrites an embedded day wholesale: dayNumber, notes and the
// complete exercise set. The filter rejects the write when another day already
// holds the target dayNumber.
func (r *mongoPlanRepository) ReplaceDay(ctx context.Context, planID primitive.ObjectID, day domain.WorkoutDay) error {
	filter := bson.M{
		"_id":  planID,
		"days": bson.M{"$elemMatch": bson.M{"_id": day.ID}},
		"$nor": []bson.M{
			{"days": bson.M{"$elemMatch": bson.M{
				"_id":       bson.M{"$ne": day.ID},
				"dayNumber": day.DayNumber,
			}}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"days.$":    day,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapStoreErr(err)
	}
	if result.MatchedCount == 0 {
		return r.diagnoseDayMiss(ctx, planID, day.ID, repository.ErrDuplicateDayNumber)
	}
	return nil
}

// RemoveDay pulls a day (and its rows) out of the plan.
func (r *mongoPlanRepository) RemoveDay(ctx context.Context, planID, dayID primitive.ObjectID) error {
	filter := bson.M{
		"_id":  planID,
		"days": bson.M{"$elemMatch": bson.M{"_id": dayID}},
	}
	update := bson.M{
		"$pull": bson.M{"days": bson.M{"_id": dayID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapStoreErr(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddExerciseRow appends one row to a day if no sibling holds its orderInDay.
func (r *mongoPlanRepository) AddExerciseRow(ctx context.Context, planID, dayID primitive.ObjectID, row domain.WorkoutExercise) error {
	now := time.Now().UTC()
	filter := bson.M{
		"_id": planID,
		"days": bson.M{"$elemMatch": bson.M{
			"_id":       dayID,
			"exercises": bson.M{"$not": bson.M{"$elemMatch": bson.M{"orderInDay": row.OrderInDay}}},
		}},
	}
	update := bson.M{
		"$push": bson.M{"days.$.exercises": row},
		"$set": bson.M{
			"days.$.updatedAt": now,
			"updatedAt":        now,
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapStoreErr(err)
	}
	if result.MatchedCount == 0 {
		return r.diagnoseDayMiss(ctx, planID, dayID, repository.ErrDuplicateOrderInDay)
	}
	return nil
}

// UpdateExerciseRow overwrites one row in place.
func (r *mongoPlanRepository) UpdateExerciseRow(ctx context.Context, planID, dayID primitive.ObjectID, row domain.WorkoutExercise) error {
	now := time.Now().UTC()
	filter := bson.M{
		"_id": planID,
		"days": bson.M{"$elemMatch": bson.M{
			"_id":       dayID,
			"exercises": bson.M{"$elemMatch": bson.M{"_id": row.ID}},
		}},
		"$nor": []bson.M{
			{"days": bson.M{"$elemMatch": bson.M{
				"_id": dayID,
				"exercises": bson.M{"$elemMatch": bson.M{
					"_id":        bson.M{"$ne": row.ID},
					"orderInDay": row.OrderInDay,
				}},
			}}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"days.$[d].exercises.$[e]": row,
			"days.$[d].updatedAt":      now,
			"updatedAt":                now,
		},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"d._id": dayID},
			bson.M{"e._id": row.ID},
		},
	})
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return mapStoreErr(err)
	}
	if result.MatchedCount == 0 {
		return r.diagnoseRowMiss(ctx, planID, dayID, row.ID)
	}
	return nil
}

// RemoveExerciseRow pulls one row out of a day. Remaining rows keep their
// orderInDay values; the store never renumbers.
func (r *mongoPlanRepository) RemoveExerciseRow(ctx context.Context, planID, dayID, rowID primitive.ObjectID) error {
	now := time.Now().UTC()
	filter := bson.M{
		"_id": planID,
		"days": bson.M{"$elemMatch": bson.M{
			"_id":       dayID,
			"exercises": bson.M{"$elemMatch": bson.M{"_id": rowID}},
		}},
	}
	update := bson.M{
		"$pull": bson.M{"days.$.exercises": bson.M{"_id": rowID}},
		"$set": bson.M{
			"days.$.updatedAt": now,
			"updatedAt":        now,
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapStoreErr(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ExerciseReferenced reports whether any plan row references the catalog
// exercise.
func (r *mongoPlanRepository) ExerciseReferenced(ctx context.Context, exerciseID primitive.ObjectID) (bool, error) {
	opts := options.Count().SetLimit(1)
	count, err := r.collection.CountDocuments(ctx, bson.M{"days.exercises.exerciseId": exerciseID}, opts)
	if err != nil {
		return false, mapStoreErr(err)
	}
	return count > 0, nil
}

// diagnoseDayMiss explains a conditional write that matched nothing: the plan
// may be gone, the addressed day may be gone, or the uniqueness condition in
// the filter failed (in which case conflictErr is returned).
func (r *mongoPlanRepository) diagnoseDayMiss(ctx context.Context, planID, dayID primitive.ObjectID, conflictErr error) error {
	plan, err := r.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if dayID != primitive.NilObjectID {
		if _, ok := plan.Day(dayID); !ok {
			return repository.ErrNotFound
		}
	}
	return conflictErr
}

func (r *mongoPlanRepository) diagnoseRowMiss(ctx context.Context, planID, dayID, rowID primitive.ObjectID) error {
	plan, err := r.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	day, ok := plan.Day(dayID)
	if !ok {
		return repository.ErrNotFound
	}
	for i := range day.Exercises {
		if day.Exercises[i].ID == rowID {
			// Row exists, so the orderInDay exclusion was what failed.
			return repository.ErrDuplicateOrderInDay
		}
	}
	return repository.ErrNotFound
}

// EnsurePlanIndexes creates necessary indexes for the plans collection.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "createdByTrainerId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "days.exercises.exerciseId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
