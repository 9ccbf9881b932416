package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogWorkout(t *testing.T) {
	logRepo := newFakeWorkoutLogRepo()
	exerciseRepo := newFakeExerciseRepo()
	svc := NewWorkoutLogService(logRepo, exerciseRepo, zap.NewNop())
	ctx := context.Background()
	member := primitive.NewObjectID()
	exerciseID := exerciseRepo.mustCreateExercise("Lat Pulldown")

	sets := 4
	log, err := svc.Log(ctx, LogWorkoutInput{
		MemberID:   member,
		ExerciseID: exerciseID,
		LogDate:    time.Date(2026, 8, 20, 18, 0, 0, 0, time.UTC),
		ActualSets: &sets,
		ActualReps: "10,10,8,6",
	})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if log.ID.IsZero() {
		t.Error("log should have an assigned id")
	}

	logs, err := svc.ListByMember(ctx, member, nil, nil)
	if err != nil {
		t.Fatalf("ListByMember: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}

	// Date-range filter excludes the entry.
	from := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	logs, err = svc.ListByMember(ctx, member, &from, nil)
	if err != nil {
		t.Fatalf("ListByMember with range: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected 0 logs in range, got %d", len(logs))
	}
}

func TestLogWorkoutValidation(t *testing.T) {
	logRepo := newFakeWorkoutLogRepo()
	exerciseRepo := newFakeExerciseRepo()
	svc := NewWorkoutLogService(logRepo, exerciseRepo, zap.NewNop())
	ctx := context.Background()
	exerciseID := exerciseRepo.mustCreateExercise("Curl")

	if _, err := svc.Log(ctx, LogWorkoutInput{MemberID: primitive.NewObjectID(), ExerciseID: exerciseID}); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero logDate should be a validation error, got %v", err)
	}

	zero := 0
	if _, err := svc.Log(ctx, LogWorkoutInput{
		MemberID:   primitive.NewObjectID(),
		ExerciseID: exerciseID,
		LogDate:    time.Now(),
		ActualSets: &zero,
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("non-positive actualSets should be a validation error, got %v", err)
	}

	if _, err := svc.Log(ctx, LogWorkoutInput{
		MemberID:   primitive.NewObjectID(),
		ExerciseID: primitive.NewObjectID(),
		LogDate:    time.Now(),
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown exercise should be not-found, got %v", err)
	}
}
