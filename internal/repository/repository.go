package repository

import (
	"context"
	"time"

	"fithub/workout-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer. Services map these onto the
// public error taxonomy.
var (
	ErrNotFound                  = RepositoryError("not found")
	ErrUnavailable               = RepositoryError("store unavailable")
	ErrDuplicateName             = RepositoryError("name already exists")
	ErrDuplicateDayNumber        = RepositoryError("day number already exists in plan")
	ErrDuplicateOrderInDay       = RepositoryError("order already taken in day")
	ErrDuplicateActiveAssignment = RepositoryError("member already has an active assignment")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ExerciseRepository defines the interface for the exercise catalog store.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	List(ctx context.Context) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PlanRepository owns the WorkoutPlan document and its embedded day/row
// hierarchy. Day and row mutations are conditional single-document writes:
// each filter re-validates the uniqueness invariant it protects, so a
// concurrent writer makes the write miss rather than corrupt the plan.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	List(ctx context.Context) ([]domain.WorkoutPlan, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	GetByDifficulty(ctx context.Context, difficulty domain.Difficulty) ([]domain.WorkoutPlan, error)
	UpdateScalars(ctx context.Context, plan *domain.WorkoutPlan) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	AddDay(ctx context.Context, planID primitive.ObjectID, day domain.WorkoutDay) error
	ReplaceDay(ctx context.Context, planID primitive.ObjectID, day domain.WorkoutDay) error
	RemoveDay(ctx context.Context, planID, dayID primitive.ObjectID) error

	AddExerciseRow(ctx context.Context, planID, dayID primitive.ObjectID, row domain.WorkoutExercise) error
	UpdateExerciseRow(ctx context.Context, planID, dayID primitive.ObjectID, row domain.WorkoutExercise) error
	RemoveExerciseRow(ctx context.Context, planID, dayID, rowID primitive.ObjectID) error

	// ExerciseReferenced reports whether any plan row references the catalog
	// exercise. Guards Exercise.Delete.
	ExerciseReferenced(ctx context.Context, exerciseID primitive.ObjectID) (bool, error)
}

// AssignmentRepository defines the interface for assigned-plan rows. Create
// and Update surface ErrDuplicateActiveAssignment when the store's
// one-ACTIVE-per-member constraint rejects the write.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.AssignedWorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AssignedWorkoutPlan, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.AssignedWorkoutPlan, error)
	GetActiveByMemberID(ctx context.Context, memberID primitive.ObjectID) (*domain.AssignedWorkoutPlan, error)
	GetByMemberID(ctx context.Context, memberID primitive.ObjectID) ([]domain.AssignedWorkoutPlan, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.AssignedWorkoutPlan, error)
	Update(ctx context.Context, assignment *domain.AssignedWorkoutPlan) error
	// UpdateStatus transitions id from expect to next; ErrNotFound when the row
	// is absent or no longer in the expected status.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, expect, next domain.AssignmentStatus) error
	CountByPlanID(ctx context.Context, planID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// CompleteExpired moves ACTIVE rows whose endDate passed to COMPLETED and
	// returns how many rows changed.
	CompleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// WorkoutLogRepository defines the interface for member workout logs.
type WorkoutLogRepository interface {
	Create(ctx context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error)
	GetByMemberID(ctx context.Context, memberID primitive.ObjectID, from, to *time.Time) ([]domain.WorkoutLog, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
