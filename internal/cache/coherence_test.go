package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func containsKey(keys []string, want string) bool {
	for _, k := range keys {
		if k == want {
			return true
		}
	}
	return false
}

func TestInvalidationTable(t *testing.T) {
	scope := Scope{
		ExerciseID:   "e1",
		PlanID:       "p1",
		MemberID:     "m1",
		TrainerID:    "t1",
		AssignmentID: "a1",
	}

	tests := []struct {
		mutation Mutation
		want     []string
	}{
		{MutationExerciseWrite, []string{ExercisesKey(), ExerciseKey("e1")}},
		{MutationPlanWrite, []string{PlansKey(), PlanKey("p1"), DaysOfPlanKey("p1")}},
		{MutationDayWrite, []string{PlanKey("p1"), DaysOfPlanKey("p1")}},
		{MutationAssignmentWrite, []string{MemberAssignmentsKey("m1"), CurrentPlanKey("m1"), TrainerAssignmentsKey("t1"), AssignmentKey("a1")}},
		{MutationAssignmentDelete, []string{MemberAssignmentsKey("m1"), CurrentPlanKey("m1"), TrainerAssignmentsKey("t1"), AssignmentKey("a1")}},
		{MutationWorkoutLogWrite, []string{WorkoutLogsKey("m1")}},
	}
	for _, tc := range tests {
		keys := KeysFor(tc.mutation, scope)
		for _, want := range tc.want {
			if !containsKey(keys, want) {
				t.Errorf("%s: missing key %q in %v", tc.mutation, want, keys)
			}
		}
	}

	// Mutations never reach into unrelated key families.
	if containsKey(KeysFor(MutationDayWrite, scope), ExercisesKey()) {
		t.Error("day writes must not invalidate the exercise catalog")
	}
	if containsKey(KeysFor(MutationWorkoutLogWrite, scope), CurrentPlanKey("m1")) {
		t.Error("workout log writes must not invalidate the current plan")
	}
}

func TestGetOrFetchReadThrough(t *testing.T) {
	coherence := New(NewMemoryCache(), 0, zap.NewNop())
	ctx := context.Background()

	fetches := 0
	fetch := func(context.Context) (interface{}, error) {
		fetches++
		return []string{"a", "b"}, nil
	}

	var first []string
	if err := coherence.GetOrFetch(ctx, PlansKey(), &first, fetch); err != nil {
		t.Fatalf("first GetOrFetch: %v", err)
	}
	var second []string
	if err := coherence.GetOrFetch(ctx, PlansKey(), &second, fetch); err != nil {
		t.Fatalf("second GetOrFetch: %v", err)
	}

	if fetches != 1 {
		t.Fatalf("expected 1 fetch, got %d", fetches)
	}
	if len(second) != 2 || second[0] != "a" {
		t.Fatalf("cached value mismatch: %v", second)
	}
}

func TestInvalidateForcesRefetchOnDeclaredKeysOnly(t *testing.T) {
	coherence := New(NewMemoryCache(), 0, zap.NewNop())
	ctx := context.Background()

	planFetches, exerciseFetches := 0, 0
	readPlan := func() {
		var out string
		if err := coherence.GetOrFetch(ctx, PlanKey("p1"), &out, func(context.Context) (interface{}, error) {
			planFetches++
			return "plan", nil
		}); err != nil {
			t.Fatalf("plan read: %v", err)
		}
	}
	readExercises := func() {
		var out string
		if err := coherence.GetOrFetch(ctx, ExercisesKey(), &out, func(context.Context) (interface{}, error) {
			exerciseFetches++
			return "exercises", nil
		}); err != nil {
			t.Fatalf("exercise read: %v", err)
		}
	}

	readPlan()
	readExercises()
	coherence.Invalidate(ctx, MutationDayWrite, Scope{PlanID: "p1"})
	readPlan()
	readExercises()

	if planFetches != 2 {
		t.Errorf("plan key should have been refetched after invalidation, fetches = %d", planFetches)
	}
	if exerciseFetches != 1 {
		t.Errorf("unrelated key must stay cached, fetches = %d", exerciseFetches)
	}
}

func TestGetOrFetchPropagatesFetchError(t *testing.T) {
	coherence := New(NewMemoryCache(), 0, zap.NewNop())
	wantErr := errors.New("store down")

	var out string
	err := coherence.GetOrFetch(context.Background(), ExercisesKey(), &out, func(context.Context) (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error to propagate, got %v", err)
	}
}

func TestGetOrFetchDegradesOnBackendError(t *testing.T) {
	coherence := New(failingCache{}, 0, zap.NewNop())

	var out string
	err := coherence.GetOrFetch(context.Background(), ExercisesKey(), &out, func(context.Context) (interface{}, error) {
		return "fresh", nil
	})
	if err != nil {
		t.Fatalf("backend failure must degrade to a fetch, got %v", err)
	}
	if out != "fresh" {
		t.Fatalf("out = %q, want %q", out, "fresh")
	}
}

// failingCache simulates an unreachable backend.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("backend unreachable")
}
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("backend unreachable")
}
func (failingCache) Delete(context.Context, ...string) error {
	return errors.New("backend unreachable")
}

func TestMemoryCacheTTL(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := cache.Get(ctx, "k"); !hit {
		t.Fatal("expected hit before expiry")
	}
	time.Sleep(20 * time.Millisecond)
	if _, hit, _ := cache.Get(ctx, "k"); hit {
		t.Fatal("expected miss after expiry")
	}
}
