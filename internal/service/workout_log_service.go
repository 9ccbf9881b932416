package service

import (
	"context"
	"fmt"
	"time"

	"fithub/workout-service/internal/domain"
	"fithub/workout-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// LogWorkoutInput carries one performed-work record.
type LogWorkoutInput struct {
	MemberID   primitive.ObjectID
	ExerciseID primitive.ObjectID
	LogDate    time.Time
	ActualSets *int
	ActualReps string
	Notes      string
}

// WorkoutLogService records and lists what members actually performed.
type WorkoutLogService interface {
	Log(ctx context.Context, in LogWorkoutInput) (*domain.WorkoutLog, error)
	ListByMember(ctx context.Context, memberID primitive.ObjectID, from, to *time.Time) ([]domain.WorkoutLog, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type workoutLogService struct {
	logRepo      repository.WorkoutLogRepository
	exerciseRepo repository.ExerciseRepository
	logger       *zap.Logger
}

// NewWorkoutLogService creates a new instance of workoutLogService.
func NewWorkoutLogService(logRepo repository.WorkoutLogRepository, exerciseRepo repository.ExerciseRepository, logger *zap.Logger) WorkoutLogService {
	return &workoutLogService{
		logRepo:      logRepo,
		exerciseRepo: exerciseRepo,
		logger:       logger,
	}
}

func (s *workoutLogService) Log(ctx context.Context, in LogWorkoutInput) (*domain.WorkoutLog, error) {
	if in.LogDate.IsZero() {
		return nil, validationErr("log date is required")
	}
	if in.ActualSets != nil && *in.ActualSets <= 0 {
		return nil, validationErr("actual sets must be positive, got %d", *in.ActualSets)
	}
	if _, err := s.exerciseRepo.GetByID(ctx, in.ExerciseID); err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("exercise %s", in.ExerciseID.Hex()))
	}

	log := &domain.WorkoutLog{
		MemberID:   in.MemberID,
		ExerciseID: in.ExerciseID,
		LogDate:    in.LogDate,
		ActualSets: in.ActualSets,
		ActualReps: in.ActualReps,
		Notes:      in.Notes,
	}
	id, err := s.logRepo.Create(ctx, log)
	if err != nil {
		return nil, mapRepoErr(err, "workout log")
	}
	s.logger.Info("workout logged",
		zap.String("logId", id.Hex()),
		zap.String("memberId", in.MemberID.Hex()),
		zap.String("exerciseId", in.ExerciseID.Hex()))
	return log, nil
}

func (s *workoutLogService) ListByMember(ctx context.Context, memberID primitive.ObjectID, from, to *time.Time) ([]domain.WorkoutLog, error) {
	logs, err := s.logRepo.GetByMemberID(ctx, memberID, from, to)
	if err != nil {
		return nil, mapRepoErr(err, "workout logs")
	}
	return logs, nil
}

func (s *workoutLogService) Get(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	log, err := s.logRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("workout log %s", id.Hex()))
	}
	return log, nil
}

func (s *workoutLogService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.logRepo.Delete(ctx, id); err != nil {
		return mapRepoErr(err, fmt.Sprintf("workout log %s", id.Hex()))
	}
	return nil
}
