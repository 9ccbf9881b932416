package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fithub/workout-service/internal/domain"
	"fithub/workout-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreatePlanInput carries the fields for a new plan template.
type CreatePlanInput struct {
	Name               string
	Description        string
	Difficulty         domain.Difficulty
	CreatedByTrainerID *primitive.ObjectID
}

// UpdatePlanInput merges only top-level scalar fields; nil fields are left
// untouched and the day collection is never affected.
type UpdatePlanInput struct {
	Name        *string
	Description *string
	Difficulty  *domain.Difficulty
	IsActive    *bool
}

// ExerciseRowInput is one prescribed row inside a day.
type ExerciseRowInput struct {
	ExerciseID        primitive.ObjectID
	Sets              int
	Reps              string
	RestTimeInSeconds *int
	OrderInDay        int
}

// DayInput carries a day and its complete exercise set.
type DayInput struct {
	DayNumber int
	Notes     string
	Exercises []ExerciseRowInput
}

// PlanService owns the WorkoutPlan -> WorkoutDay -> WorkoutExercise hierarchy
// and its ordering/uniqueness invariants.
type PlanService interface {
	CreatePlan(ctx context.Context, in CreatePlanInput) (*domain.WorkoutPlan, error)
	UpdatePlan(ctx context.Context, id primitive.ObjectID, in UpdatePlanInput) (*domain.WorkoutPlan, error)
	DeletePlan(ctx context.Context, id primitive.ObjectID) error
	GetPlan(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	ListPlans(ctx context.Context) ([]domain.WorkoutPlan, error)
	ListPlansByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	ListPlansByDifficulty(ctx context.Context, difficulty domain.Difficulty) ([]domain.WorkoutPlan, error)
	GetDays(ctx context.Context, planID primitive.ObjectID) ([]domain.WorkoutDay, error)

	AddDay(ctx context.Context, planID primitive.ObjectID, in DayInput) (*domain.WorkoutDay, error)
	// UpdateDay has full-replace semantics: the supplied exercise set becomes
	// the day's complete set and any existing row not present in it is
	// deleted. Callers must resend the full set on every edit.
	UpdateDay(ctx context.Context, planID, dayID primitive.ObjectID, in DayInput) (*domain.WorkoutDay, error)
	DeleteDay(ctx context.Context, planID, dayID primitive.ObjectID) error

	AddExercise(ctx context.Context, planID, dayID primitive.ObjectID, in ExerciseRowInput) (*domain.WorkoutDay, error)
	UpdateExercise(ctx context.Context, planID, dayID, rowID primitive.ObjectID, in ExerciseRowInput) (*domain.WorkoutDay, error)
	RemoveExercise(ctx context.Context, planID, dayID, rowID primitive.ObjectID) (*domain.WorkoutDay, error)
}

type planService struct {
	planRepo       repository.PlanRepository
	exerciseRepo   repository.ExerciseRepository
	assignmentRepo repository.AssignmentRepository
	logger         *zap.Logger
}

// NewPlanService creates a new instance of planService.
func NewPlanService(planRepo repository.PlanRepository, exerciseRepo repository.ExerciseRepository, assignmentRepo repository.AssignmentRepository, logger *zap.Logger) PlanService {
	return &planService{
		planRepo:       planRepo,
		exerciseRepo:   exerciseRepo,
		assignmentRepo: assignmentRepo,
		logger:         logger,
	}
}

func (s *planService) CreatePlan(ctx context.Context, in CreatePlanInput) (*domain.WorkoutPlan, error) {
	if in.Name == "" {
		return nil, validationErr("plan name is required")
	}
	if !in.Difficulty.Valid() {
		return nil, validationErr("unrecognized difficulty %q", in.Difficulty)
	}

	plan := &domain.WorkoutPlan{
		Name:               in.Name,
		Description:        in.Description,
		Difficulty:         in.Difficulty,
		CreatedByTrainerID: in.CreatedByTrainerID,
		IsActive:           true,
		Days:               []domain.WorkoutDay{},
	}

	id, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, conflictErr("plan named %q already exists", in.Name)
		}
		return nil, mapRepoErr(err, "plan")
	}
	s.logger.Info("workout plan created", zap.String("planId", id.Hex()), zap.String("name", in.Name))
	return plan, nil
}

func (s *planService) UpdatePlan(ctx context.Context, id primitive.ObjectID, in UpdatePlanInput) (*domain.WorkoutPlan, error) {
	existing, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("plan %s", id.Hex()))
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, validationErr("plan name cannot be empty")
		}
		existing.Name = *in.Name
	}
	if in.Description != nil {
		existing.Description = *in.Description
	}
	if in.Difficulty != nil {
		if !in.Difficulty.Valid() {
			return nil, validationErr("unrecognized difficulty %q", *in.Difficulty)
		}
		existing.Difficulty = *in.Difficulty
	}
	if in.IsActive != nil {
		existing.IsActive = *in.IsActive
	}

	if err := s.planRepo.UpdateScalars(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, conflictErr("plan named %q already exists", existing.Name)
		}
		return nil, mapRepoErr(err, fmt.Sprintf("plan %s", id.Hex()))
	}
	existing.UpdatedAt = time.Now().UTC()
	return existing, nil
}

// DeletePlan hard-deletes a plan template. It is refused while any assignment
// references the plan; retire with isActive=false instead.
func (s *planService) DeletePlan(ctx context.Context, id primitive.ObjectID) error {
	count, err := s.assignmentRepo.CountByPlanID(ctx, id)
	if err != nil {
		return mapRepoErr(err, fmt.Sprintf("plan %s", id.Hex()))
	}
	if count > 0 {
		return conflictErr("plan %s is referenced by %d assignment(s)", id.Hex(), count)
	}

	if err := s.planRepo.Delete(ctx, id); err != nil {
		return mapRepoErr(err, fmt.Sprintf("plan %s", id.Hex()))
	}
	s.logger.Info("workout plan deleted", zap.String("planId", id.Hex()))
	return nil
}

func (s *planService) GetPlan(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("plan %s", id.Hex()))
	}
	plan.Days = plan.SortedDays()
	return plan, nil
}

func (s *planService) ListPlans(ctx context.Context) ([]domain.WorkoutPlan, error) {
	return s.listSorted(s.planRepo.List(ctx))
}

func (s *planService) ListPlansByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	return s.listSorted(s.planRepo.GetByTrainerID(ctx, trainerID))
}

func (s *planService) ListPlansByDifficulty(ctx context.Context, difficulty domain.Difficulty) ([]domain.WorkoutPlan, error) {
	if !difficulty.Valid() {
		return nil, validationErr("unrecognized difficulty %q", difficulty)
	}
	return s.listSorted(s.planRepo.GetByDifficulty(ctx, difficulty))
}

func (s *planService) listSorted(plans []domain.WorkoutPlan, err error) ([]domain.WorkoutPlan, error) {
	if err != nil {
		return nil, mapRepoErr(err, "plans")
	}
	for i := range plans {
		plans[i].Days = plans[i].SortedDays()
	}
	return plans, nil
}

func (s *planService) GetDays(ctx context.Context, planID primitive.ObjectID) ([]domain.WorkoutDay, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return plan.Days, nil
}

func (s *planService) AddDay(ctx context.Context, planID primitive.ObjectID, in DayInput) (*domain.WorkoutDay, error) {
	day, err := s.buildDay(ctx, in, primitive.NewObjectID(), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.planRepo.AddDay(ctx, planID, *day); err != nil {
		if errors.Is(err, repository.ErrDuplicateDayNumber) {
			return nil, conflictErr("day number %d already exists in plan %s", in.DayNumber, planID.Hex())
		}
		return nil, mapRepoErr(err, fmt.Sprintf("plan %s", planID.Hex()))
	}
	s.logger.Info("workout day added",
		zap.String("planId", planID.Hex()),
		zap.String("dayId", day.ID.Hex()),
		zap.Int("dayNumber", day.DayNumber))
	return s.readBack(ctx, planID, day.ID)
}

func (s *planService) UpdateDay(ctx context.Context, planID, dayID primitive.ObjectID, in DayInput) (*domain.WorkoutDay, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("plan %s", planID.Hex()))
	}
	existing, ok := plan.Day(dayID)
	if !ok {
		return nil, notFoundErr("day %s in plan %s", dayID.Hex(), planID.Hex())
	}

	day, err := s.buildDay(ctx, in, dayID, existing.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := s.planRepo.ReplaceDay(ctx, planID, *day); err != nil {
		if errors.Is(err, repository.ErrDuplicateDayNumber) {
			return nil, conflictErr("day number %d already exists in plan %s", in.DayNumber, planID.Hex())
		}
		return nil, mapRepoErr(err, fmt.Sprintf("day %s in plan %s", dayID.Hex(), planID.Hex()))
	}
	return s.readBack(ctx, planID, dayID)
}

func (s *planService) DeleteDay(ctx context.Context, planID, dayID primitive.ObjectID) error {
	if err := s.planRepo.RemoveDay(ctx, planID, dayID); err != nil {
		return mapRepoErr(err, fmt.Sprintf("day %s in plan %s", dayID.Hex(), planID.Hex()))
	}
	s.logger.Info("workout day deleted", zap.String("planId", planID.Hex()), zap.String("dayId", dayID.Hex()))
	return nil
}

func (s *planService) AddExercise(ctx context.Context, planID, dayID primitive.ObjectID, in ExerciseRowInput) (*domain.WorkoutDay, error) {
	row, err := s.buildRow(ctx, in, primitive.NewObjectID())
	if err != nil {
		return nil, err
	}

	if err := s.planRepo.AddExerciseRow(ctx, planID, dayID, *row); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrderInDay) {
			return nil, conflictErr("order %d already taken in day %s", in.OrderInDay, dayID.Hex())
		}
		return nil, mapRepoErr(err, fmt.Sprintf("day %s in plan %s", dayID.Hex(), planID.Hex()))
	}
	return s.readBack(ctx, planID, dayID)
}

func (s *planService) UpdateExercise(ctx context.Context, planID, dayID, rowID primitive.ObjectID, in ExerciseRowInput) (*domain.WorkoutDay, error) {
	row, err := s.buildRow(ctx, in, rowID)
	if err != nil {
		return nil, err
	}

	if err := s.planRepo.UpdateExerciseRow(ctx, planID, dayID, *row); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrderInDay) {
			return nil, conflictErr("order %d already taken in day %s", in.OrderInDay, dayID.Hex())
		}
		return nil, mapRepoErr(err, fmt.Sprintf("row %s in day %s", rowID.Hex(), dayID.Hex()))
	}
	return s.readBack(ctx, planID, dayID)
}

func (s *planService) RemoveExercise(ctx context.Context, planID, dayID, rowID primitive.ObjectID) (*domain.WorkoutDay, error) {
	if err := s.planRepo.RemoveExerciseRow(ctx, planID, dayID, rowID); err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("row %s in day %s", rowID.Hex(), dayID.Hex()))
	}
	return s.readBack(ctx, planID, dayID)
}

// buildDay validates a day submission and materializes it with row IDs
// assigned. Duplicate orderInDay values inside the one submitted batch are a
// validation error, not a conflict.
func (s *planService) buildDay(ctx context.Context, in DayInput, dayID primitive.ObjectID, createdAt time.Time) (*domain.WorkoutDay, error) {
	if in.DayNumber <= 0 {
		return nil, validationErr("day number must be positive, got %d", in.DayNumber)
	}

	seen := make(map[int]struct{}, len(in.Exercises))
	rows := make([]domain.WorkoutExercise, 0, len(in.Exercises))
	for _, rowIn := range in.Exercises {
		if _, dup := seen[rowIn.OrderInDay]; dup {
			return nil, validationErr("duplicate orderInDay %d in submitted exercises", rowIn.OrderInDay)
		}
		seen[rowIn.OrderInDay] = struct{}{}

		row, err := s.buildRow(ctx, rowIn, primitive.NewObjectID())
		if err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}

	return &domain.WorkoutDay{
		ID:        dayID,
		DayNumber: in.DayNumber,
		Notes:     in.Notes,
		Exercises: rows,
		CreatedAt: createdAt,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (s *planService) buildRow(ctx context.Context, in ExerciseRowInput, rowID primitive.ObjectID) (*domain.WorkoutExercise, error) {
	if in.Sets <= 0 {
		return nil, validationErr("sets must be positive, got %d", in.Sets)
	}
	if in.Reps == "" {
		return nil, validationErr("reps is required")
	}
	if _, err := s.exerciseRepo.GetByID(ctx, in.ExerciseID); err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("exercise %s", in.ExerciseID.Hex()))
	}

	return &domain.WorkoutExercise{
		ID:                rowID,
		ExerciseID:        in.ExerciseID,
		Sets:              in.Sets,
		Reps:              in.Reps,
		RestTimeInSeconds: in.RestTimeInSeconds,
		OrderInDay:        in.OrderInDay,
	}, nil
}

// readBack returns the authoritative stored day after a mutation, rows sorted
// for display.
func (s *planService) readBack(ctx context.Context, planID, dayID primitive.ObjectID) (*domain.WorkoutDay, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	day, ok := plan.Day(dayID)
	if !ok {
		return nil, notFoundErr("day %s in plan %s", dayID.Hex(), planID.Hex())
	}
	return day, nil
}
