package service

import (
	"context"
	"errors"
	"testing"

	"fithub/workout-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newPlanServiceForTest(t *testing.T) (PlanService, *fakePlanRepo, *fakeExerciseRepo, *fakeAssignmentRepo) {
	t.Helper()
	planRepo := newFakePlanRepo()
	exerciseRepo := newFakeExerciseRepo()
	assignmentRepo := newFakeAssignmentRepo()
	svc := NewPlanService(planRepo, exerciseRepo, assignmentRepo, zap.NewNop())
	return svc, planRepo, exerciseRepo, assignmentRepo
}

func TestCreatePlanValidation(t *testing.T) {
	svc, _, _, _ := newPlanServiceForTest(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreatePlanInput
	}{
		{"empty name", CreatePlanInput{Name: "", Difficulty: domain.DifficultyBeginner}},
		{"bad difficulty", CreatePlanInput{Name: "Strength A", Difficulty: "EXTREME"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreatePlan(ctx, tc.in); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreatePlanAndAddDay(t *testing.T) {
	svc, _, exerciseRepo, _ := newPlanServiceForTest(t)
	ctx := context.Background()
	e1 := exerciseRepo.mustCreateExercise("Bench Press")

	plan, err := svc.CreatePlan(ctx, CreatePlanInput{Name: "Strength A", Difficulty: domain.DifficultyIntermediate})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if !plan.IsActive {
		t.Error("new plan should be active")
	}
	if len(plan.Days) != 0 {
		t.Errorf("new plan should have no days, got %d", len(plan.Days))
	}

	day, err := svc.AddDay(ctx, plan.ID, DayInput{
		DayNumber: 1,
		Notes:     "Push day",
		Exercises: []ExerciseRowInput{{ExerciseID: e1, Sets: 3, Reps: "8-12", OrderInDay: 1}},
	})
	if err != nil {
		t.Fatalf("AddDay: %v", err)
	}
	if day.DayNumber != 1 || len(day.Exercises) != 1 {
		t.Fatalf("unexpected day: %+v", day)
	}
	if day.Exercises[0].ID.IsZero() {
		t.Error("exercise row should have an assigned id")
	}

	stored, err := svc.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if len(stored.Days) != 1 || stored.Days[0].ID != day.ID {
		t.Fatalf("plan should show the added day, got %+v", stored.Days)
	}
}

func TestAddDayDuplicateDayNumberConflict(t *testing.T) {
	svc, _, _, _ := newPlanServiceForTest(t)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, CreatePlanInput{Name: "Split", Difficulty: domain.DifficultyBeginner})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if _, err := svc.AddDay(ctx, plan.ID, DayInput{DayNumber: 1}); err != nil {
		t.Fatalf("first AddDay: %v", err)
	}
	if _, err := svc.AddDay(ctx, plan.ID, DayInput{DayNumber: 1}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate dayNumber, got %v", err)
	}
}

func TestAddDayDuplicateOrderInBatchIsValidation(t *testing.T) {
	svc, _, exerciseRepo, _ := newPlanServiceForTest(t)
	ctx := context.Background()
	e1 := exerciseRepo.mustCreateExercise("Squat")

	plan, err := svc.CreatePlan(ctx, CreatePlanInput{Name: "Legs", Difficulty: domain.DifficultyAdvanced})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	_, err = svc.AddDay(ctx, plan.ID, DayInput{
		DayNumber: 1,
		Exercises: []ExerciseRowInput{
			{ExerciseID: e1, Sets: 3, Reps: "5", OrderInDay: 1},
			{ExerciseID: e1, Sets: 5, Reps: "5", OrderInDay: 1},
		},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("duplicate orderInDay in one batch should be a validation error, got %v", err)
	}
}

func TestUpdateDayFullReplace(t *testing.T) {
	svc, _, exerciseRepo, _ := newPlanServiceForTest(t)
	ctx := context.Background()
	e1 := exerciseRepo.mustCreateExercise("Bench Press")
	e2 := exerciseRepo.mustCreateExercise("Overhead Press")
	e3 := exerciseRepo.mustCreateExercise("Dips")

	plan, err := svc.CreatePlan(ctx, CreatePlanInput{Name: "Push", Difficulty: domain.DifficultyIntermediate})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	day, err := svc.AddDay(ctx, plan.ID, DayInput{
		DayNumber: 1,
		Exercises: []ExerciseRowInput{
			{ExerciseID: e1, Sets: 3, Reps: "8-12", OrderInDay: 1},
			{ExerciseID: e2, Sets: 3, Reps: "8-12", OrderInDay: 2},
			{ExerciseID: e3, Sets: 3, Reps: "max", OrderInDay: 3},
		},
	})
	if err != nil {
		t.Fatalf("AddDay: %v", err)
	}
	if len(day.Exercises) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(day.Exercises))
	}

	// Resend only two rows; the omitted one must be deleted.
	updated, err := svc.UpdateDay(ctx, plan.ID, day.ID, DayInput{
		DayNumber: 1,
		Notes:     "Push v2",
		Exercises: []ExerciseRowInput{
			{ExerciseID: e1, Sets: 3, Reps: "8-12", OrderInDay: 1},
			{ExerciseID: e2, Sets: 3, Reps: "8-12", OrderInDay: 2},
		},
	})
	if err != nil {
		t.Fatalf("UpdateDay: %v", err)
	}
	if len(updated.Exercises) != 2 {
		t.Fatalf("expected 2 rows after full replace, got %d", len(updated.Exercises))
	}
	for _, row := range updated.Exercises {
		if row.ExerciseID == e3 {
			t.Error("omitted row should be gone after full replace")
		}
	}

	stored, err := svc.GetDays(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetDays: %v", err)
	}
	if len(stored) != 1 || len(stored[0].Exercises) != 2 {
		t.Fatalf("stored state after replace: %+v", stored)
	}
	if stored[0].Notes != "Push v2" {
		t.Errorf("notes = %q, want %q", stored[0].Notes, "Push v2")
	}
}

func TestUpdateDayEmptySetClearsRows(t *testing.T) {
	svc, _, exerciseRepo, _ := newPlanServiceForTest(t)
	ctx := context.Background()
	e1 := exerciseRepo.mustCreateExercise("Row")

	plan, err := svc.CreatePlan(ctx, CreatePlanInput{Name: "Pull", Difficulty: domain.DifficultyBeginner})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	day, err := svc.AddDay(ctx, plan.ID, DayInput{
		DayNumber: 1,
		Exercises: []ExerciseRowInput{{ExerciseID: e1, Sets: 3, Reps: "10", OrderInDay: 1}},
	})
	if err != nil {
		t.Fatalf("AddDay: %v", err)
	}

	updated, err := svc.UpdateDay(ctx, plan.ID, day.ID, DayInput{DayNumber: 1, Notes: "deload"})
	if err != nil {
		t.Fatalf("UpdateDay: %v", err)
	}
	if len(updated.Exercises) != 0 {
		t.Fatalf("expected empty exercise set, got %d rows", len(updated.Exercises))
	}
}

func TestFineGrainedRowOpsMatchFullReplace(t *testing.T) {
	svc, _, exerciseRepo, _ := newPlanServiceForTest(t)
	ctx := context.Background()
	e1 := exerciseRepo.mustCreateExercise("Deadlift")
	e2 := exerciseRepo.mustCreateExercise("Hip Thrust")

	plan, err := svc.CreatePlan(ctx, CreatePlanInput{Name: "Posterior", Difficulty: domain.DifficultyAdvanced})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	day, err := svc.AddDay(ctx, plan.ID, DayInput{DayNumber: 2})
	if err != nil {
		t.Fatalf("AddDay: %v", err)
	}

	day, err = svc.AddExercise(ctx, plan.ID, day.ID, ExerciseRowInput{ExerciseID: e1, Sets: 5, Reps: "3", OrderInDay: 1})
	if err != nil {
		t.Fatalf("AddExercise: %v", err)
	}
	day, err = svc.AddExercise(ctx, plan.ID, day.ID, ExerciseRowInput{ExerciseID: e2, Sets: 4, Reps: "8", OrderInDay: 2})
	if err != nil {
		t.Fatalf("AddExercise: %v", err)
	}

	// Duplicate orderInDay against a stored sibling is a conflict.
	if _, err := svc.AddExercise(ctx, plan.ID, day.ID, ExerciseRowInput{ExerciseID: e1, Sets: 3, Reps: "5", OrderInDay: 2}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate orderInDay, got %v", err)
	}

	rowID := day.Exercises[0].ID
	day, err = svc.UpdateExercise(ctx, plan.ID, day.ID, rowID, ExerciseRowInput{ExerciseID: e1, Sets: 3, Reps: "5", OrderInDay: 1})
	if err != nil {
		t.Fatalf("UpdateExercise: %v", err)
	}

	day, err = svc.RemoveExercise(ctx, plan.ID, day.ID, day.Exercises[1].ID)
	if err != nil {
		t.Fatalf("RemoveExercise: %v", err)
	}
	if len(day.Exercises) != 1 {
		t.Fatalf("expected 1 row after removal, got %d", len(day.Exercises))
	}
	// Remaining row keeps its caller-assigned order; nothing renumbers.
	if day.Exercises[0].OrderInDay != 1 || day.Exercises[0].Sets != 3 {
		t.Fatalf("unexpected surviving row: %+v", day.Exercises[0])
	}
}

func TestAddExerciseUnknownCatalogID(t *testing.T) {
	svc, _, _, _ := newPlanServiceForTest(t)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, CreatePlanInput{Name: "Misc", Difficulty: domain.DifficultyBeginner})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	day, err := svc.AddDay(ctx, plan.ID, DayInput{DayNumber: 1})
	if err != nil {
		t.Fatalf("AddDay: %v", err)
	}

	_, err = svc.AddExercise(ctx, plan.ID, day.ID, ExerciseRowInput{ExerciseID: primitive.NewObjectID(), Sets: 3, Reps: "10", OrderInDay: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not-found for unknown exercise, got %v", err)
	}
}

func TestDeletePlanReferencedByAssignment(t *testing.T) {
	svc, _, _, assignmentRepo := newPlanServiceForTest(t)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, CreatePlanInput{Name: "Assigned", Difficulty: domain.DifficultyBeginner})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if _, err := assignmentRepo.Create(ctx, &domain.AssignedWorkoutPlan{
		MemberID: primitive.NewObjectID(),
		PlanID:   plan.ID,
		Status:   domain.StatusActive,
	}); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	if err := svc.DeletePlan(ctx, plan.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict deleting referenced plan, got %v", err)
	}

	// Retirement stays available.
	inactive := false
	updated, err := svc.UpdatePlan(ctx, plan.ID, UpdatePlanInput{IsActive: &inactive})
	if err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}
	if updated.IsActive {
		t.Error("plan should be retired")
	}
}

func TestGetDaysSortedByDayNumber(t *testing.T) {
	svc, _, _, _ := newPlanServiceForTest(t)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, CreatePlanInput{Name: "Ordered", Difficulty: domain.DifficultyIntermediate})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	// Non-contiguous, out-of-order day numbers are allowed.
	for _, n := range []int{5, 1, 3} {
		if _, err := svc.AddDay(ctx, plan.ID, DayInput{DayNumber: n}); err != nil {
			t.Fatalf("AddDay %d: %v", n, err)
		}
	}

	days, err := svc.GetDays(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetDays: %v", err)
	}
	want := []int{1, 3, 5}
	if len(days) != len(want) {
		t.Fatalf("expected %d days, got %d", len(want), len(days))
	}
	for i, n := range want {
		if days[i].DayNumber != n {
			t.Errorf("days[%d].DayNumber = %d, want %d", i, days[i].DayNumber, n)
		}
	}
}
