// Package cache is the query coherence layer: a read-through cache keyed by
// query identity, with a declared table mapping each mutation to the set of
// read-keys it invalidates. It never originates data; on a miss it fetches
// from the authoritative store and populates itself. Over-invalidation is a
// tolerated performance cost, under-invalidation is a correctness bug.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// ResultCache is the storage backend behind the coherence layer. The memory
// backend is in-process; the redis backend is shared across instances.
type ResultCache interface {
	// Get returns the cached bytes for key and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// --- Read-key constructors ---

func ExercisesKey() string                 { return "exercises" }
func ExerciseKey(id string) string         { return "exercise:" + id }
func PlansKey() string                     { return "plans" }
func PlanKey(planID string) string         { return "plan:" + planID }
func DaysOfPlanKey(planID string) string   { return "plan-days:" + planID }
func MemberAssignmentsKey(m string) string { return "assignments:member:" + m }
func CurrentPlanKey(m string) string       { return "current-plan:member:" + m }
func TrainerAssignmentsKey(t string) string {
	return "assignments:trainer:" + t
}
func AssignmentKey(id string) string     { return "assignment:" + id }
func WorkoutLogsKey(member string) string { return "workout-logs:member:" + member }

// Mutation identifies a class of write for invalidation purposes.
type Mutation string

const (
	MutationExerciseWrite    Mutation = "exercise.write"    // catalog create/update/delete
	MutationPlanWrite        Mutation = "plan.write"        // plan create/update/delete
	MutationDayWrite         Mutation = "day.write"         // day or row add/update/remove
	MutationAssignmentWrite  Mutation = "assignment.write"  // assign/update/cancel/complete
	MutationAssignmentDelete Mutation = "assignment.delete" //
	MutationWorkoutLogWrite  Mutation = "workoutlog.write"  //
)

// Scope names the entities a mutation touched. Empty fields simply contribute
// no keys.
type Scope struct {
	ExerciseID   string
	PlanID       string
	MemberID     string
	TrainerID    string
	AssignmentID string
}

// invalidationTable is the declared mutation -> read-key-set mapping. Adding
// a read path means adding its key here for every mutation that can change
// its result.
var invalidationTable = map[Mutation]func(Scope) []string{
	MutationExerciseWrite: func(s Scope) []string {
		keys := []string{ExercisesKey()}
		if s.ExerciseID != "" {
			keys = append(keys, ExerciseKey(s.ExerciseID))
		}
		return keys
	},
	MutationPlanWrite: func(s Scope) []string {
		keys := []string{PlansKey()}
		if s.PlanID != "" {
			keys = append(keys, PlanKey(s.PlanID), DaysOfPlanKey(s.PlanID))
		}
		return keys
	},
	MutationDayWrite: func(s Scope) []string {
		return []string{PlanKey(s.PlanID), DaysOfPlanKey(s.PlanID)}
	},
	MutationAssignmentWrite:  assignmentKeys,
	MutationAssignmentDelete: assignmentKeys,
	MutationWorkoutLogWrite: func(s Scope) []string {
		return []string{WorkoutLogsKey(s.MemberID)}
	},
}

func assignmentKeys(s Scope) []string {
	keys := []string{
		MemberAssignmentsKey(s.MemberID),
		CurrentPlanKey(s.MemberID),
	}
	if s.TrainerID != "" {
		keys = append(keys, TrainerAssignmentsKey(s.TrainerID))
	}
	if s.AssignmentID != "" {
		keys = append(keys, AssignmentKey(s.AssignmentID))
	}
	return keys
}

// KeysFor exposes the table for callers and tests.
func KeysFor(m Mutation, scope Scope) []string {
	build, ok := invalidationTable[m]
	if !ok {
		return nil
	}
	return build(scope)
}

// Coherence is the handle passed to every caller. It is explicitly
// constructed, never ambient global state.
type Coherence struct {
	store  ResultCache
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a coherence layer over the given backend. ttl bounds staleness
// for keys no mutation touches; 0 disables expiry.
func New(store ResultCache, ttl time.Duration, logger *zap.Logger) *Coherence {
	return &Coherence{store: store, ttl: ttl, logger: logger}
}

// Invalidate drops every read-key the mutation's table entry names. Backend
// failures are logged and swallowed: a failed invalidation only extends
// staleness for other readers, while the mutation's own caller already holds
// the authoritative entity from the mutation response.
func (c *Coherence) Invalidate(ctx context.Context, m Mutation, scope Scope) {
	keys := KeysFor(m, scope)
	if len(keys) == 0 {
		return
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.Warn("cache invalidation failed",
			zap.String("mutation", string(m)),
			zap.Strings("keys", keys),
			zap.Error(err))
	}
}

// GetOrFetch reads key through the cache: a hit decodes into dest, a miss
// runs fetch against the authoritative store, caches the result and decodes
// it into dest. Backend errors degrade to a fetch; fetch errors propagate.
func (c *Coherence) GetOrFetch(ctx context.Context, key string, dest interface{}, fetch func(context.Context) (interface{}, error)) error {
	raw, hit, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		if err := json.Unmarshal(raw, dest); err == nil {
			return nil
		}
		// Undecodable entry: treat as a miss and overwrite below.
		c.logger.Warn("cache entry undecodable", zap.String("key", key))
	}

	value, err := fetch(ctx)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, key, encoded, c.ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return json.Unmarshal(encoded, dest)
}
