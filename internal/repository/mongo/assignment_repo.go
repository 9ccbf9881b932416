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

const assignmentCollectionName = "assigned_workout_plans"

// mongoAssignmentRepository implements repository.AssignmentRepository.
//
// The at-most-one-ACTIVE-per-member invariant is enforced by a partial unique
// index on memberId filtered to status=ACTIVE: the insert itself is the
// existence check, so two concurrent assigns cannot both commit.
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new assignment row.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.AssignedWorkoutPlan) (primitive.ObjectID, error) {
	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	if assignment.Status == "" {
		assignment.Status = domain.StatusActive
	}

	_, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateActiveAssignment
		}
		return primitive.NilObjectID, mapStoreErr(err)
	}
	return assignment.ID, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AssignedWorkoutPlan, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByIdempotencyKey retrieves the row a previous create stored under the
// given key, if any.
func (r *mongoAssignmentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.AssignedWorkoutPlan, error) {
	return r.findOne(ctx, bson.M{"idempotencyKey": key})
}

// GetActiveByMemberID retrieves the member's single ACTIVE row.
func (r *mongoAssignmentRepository) GetActiveByMemberID(ctx context.Context, memberID primitive.ObjectID) (*domain.AssignedWorkoutPlan, error) {
	return r.findOne(ctx, bson.M{"memberId": memberID, "status": domain.StatusActive})
}

func (r *mongoAssignmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.AssignedWorkoutPlan, error) {
	var assignment domain.AssignedWorkoutPlan
	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, mapStoreErr(err)
	}
	return &assignment, nil
}

// GetByMemberID retrieves a member's full assignment history, newest first.
func (r *mongoAssignmentRepository) GetByMemberID(ctx context.Context, memberID primitive.ObjectID) ([]domain.AssignedWorkoutPlan, error) {
	return r.find(ctx, bson.M{"memberId": memberID})
}

// GetByTrainerID retrieves the assignments a trainer issued, newest first.
func (r *mongoAssignmentRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.AssignedWorkoutPlan, error) {
	return r.find(ctx, bson.M{"assignedByTrainerId": trainerID})
}

func (r *mongoAssignmentRepository) find(ctx context.Context, filter bson.M) ([]domain.AssignedWorkoutPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer cursor.Close(ctx)

	var assignments []domain.AssignedWorkoutPlan
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, mapStoreErr(err)
	}
	return assignments, nil
}

// Update overwrites an assignment's mutable fields. A transition into ACTIVE
// re-runs the uniqueness check through the partial index.
func (r *mongoAssignmentRepository) Update(ctx context.Context, assignment *domain.AssignedWorkoutPlan) error {
	update := bson.M{
		"$set": bson.M{
			"memberId":            assignment.MemberID,
			"planId":              assignment.PlanID,
			"assignedByTrainerId": assignment.AssignedByTrainerID,
			"startDate":           assignment.StartDate,
			"endDate":             assignment.EndDate,
			"status":              assignment.Status,
			"updatedAt":           time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": assignment.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateActiveAssignment
		}
		return mapStoreErr(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateStatus transitions a row from expect to next in one conditional
// write. ErrNotFound means the row is gone or no longer in the expected
// status; callers re-read to tell the two apart.
func (r *mongoAssignmentRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, expect, next domain.AssignmentStatus) error {
	filter := bson.M{"_id": id, "status": expect}
	update := bson.M{"$set": bson.M{"status": next, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapStoreErr(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountByPlanID counts the assignments referencing a plan. Guards plan
// hard-deletes.
func (r *mongoAssignmentRepository) CountByPlanID(ctx context.Context, planID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"planId": planID})
	if err != nil {
		return 0, mapStoreErr(err)
	}
	return count, nil
}

// Delete hard-deletes an assignment row.
func (r *mongoAssignmentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapStoreErr(err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CompleteExpired moves every ACTIVE row whose endDate has passed to
// COMPLETED.
func (r *mongoAssignmentRepository) CompleteExpired(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"status":  domain.StatusActive,
		"endDate": bson.M{"$ne": nil, "$lt": now},
	}
	update := bson.M{"$set": bson.M{"status": domain.StatusCompleted, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, mapStoreErr(err)
	}
	return result.ModifiedCount, nil
}

// EnsureAssignmentIndexes creates necessary indexes for the assignments
// collection, including the partial unique index behind the
// one-ACTIVE-per-member invariant.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "memberId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(domain.StatusActive)}).
				SetName("one_active_plan_per_member"),
		},
		{
			Keys:    bson.D{{Key: "memberId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "assignedByTrainerId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
