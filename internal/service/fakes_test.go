package service

import (
	"context"
	"sync"
	"time"

	"fithub/workout-service/internal/domain"
	"fithub/workout-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. Each one guards its state with a mutex so the
// concurrency tests exercise the same atomic-check-and-insert contract the
// mongo implementations provide.

// --- Exercise repository ---

type fakeExerciseRepo struct {
	mu        sync.Mutex
	exercises map[primitive.ObjectID]domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: make(map[primitive.ObjectID]domain.Exercise)}
}

func (r *fakeExerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.exercises {
		if existing.Name == exercise.Name {
			return primitive.NilObjectID, repository.ErrDuplicateName
		}
	}
	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	r.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *fakeExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exercise, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &exercise, nil
}

func (r *fakeExerciseRepo) List(_ context.Context) ([]domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Exercise, 0, len(r.exercises))
	for _, exercise := range r.exercises {
		out = append(out, exercise)
	}
	return out, nil
}

func (r *fakeExerciseRepo) Update(_ context.Context, exercise *domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.exercises {
		if id != exercise.ID && existing.Name == exercise.Name {
			return repository.ErrDuplicateName
		}
	}
	r.exercises[exercise.ID] = *exercise
	return nil
}

func (r *fakeExerciseRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

// mustCreateExercise seeds the catalog for tests that only need a valid id.
func (r *fakeExerciseRepo) mustCreateExercise(name string) primitive.ObjectID {
	id, err := r.Create(context.Background(), &domain.Exercise{
		Name:       name,
		BodyPart:   domain.BodyPartChest,
		Equipment:  domain.EquipmentBarbell,
		Difficulty: domain.DifficultyIntermediate,
	})
	if err != nil {
		panic(err)
	}
	return id
}

// --- Plan repository ---

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]domain.WorkoutPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]domain.WorkoutPlan)}
}

func copyPlan(p domain.WorkoutPlan) domain.WorkoutPlan {
	days := make([]domain.WorkoutDay, len(p.Days))
	copy(days, p.Days)
	for i := range days {
		rows := make([]domain.WorkoutExercise, len(days[i].Exercises))
		copy(rows, days[i].Exercises)
		days[i].Exercises = rows
	}
	p.Days = days
	return p
}

func (r *fakePlanRepo) Create(_ context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.plans {
		if existing.Name == plan.Name {
			return primitive.NilObjectID, repository.ErrDuplicateName
		}
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	r.plans[plan.ID] = copyPlan(*plan)
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyPlan(plan)
	return &out, nil
}

func (r *fakePlanRepo) List(_ context.Context) ([]domain.WorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.WorkoutPlan, 0, len(r.plans))
	for _, plan := range r.plans {
		out = append(out, copyPlan(plan))
	}
	return out, nil
}

func (r *fakePlanRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WorkoutPlan
	for _, plan := range r.plans {
		if plan.CreatedByTrainerID != nil && *plan.CreatedByTrainerID == trainerID {
			out = append(out, copyPlan(plan))
		}
	}
	return out, nil
}

func (r *fakePlanRepo) GetByDifficulty(_ context.Context, difficulty domain.Difficulty) ([]domain.WorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WorkoutPlan
	for _, plan := range r.plans {
		if plan.Difficulty == difficulty {
			out = append(out, copyPlan(plan))
		}
	}
	return out, nil
}

func (r *fakePlanRepo) UpdateScalars(_ context.Context, plan *domain.WorkoutPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.plans[plan.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.plans {
		if id != plan.ID && existing.Name == plan.Name {
			return repository.ErrDuplicateName
		}
	}
	stored.Name = plan.Name
	stored.Description = plan.Description
	stored.Difficulty = plan.Difficulty
	stored.IsActive = plan.IsActive
	stored.UpdatedAt = time.Now().UTC()
	r.plans[plan.ID] = stored
	return nil
}

func (r *fakePlanRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *fakePlanRepo) AddDay(_ context.Context, planID primitive.ObjectID, day domain.WorkoutDay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, existing := range plan.Days {
		if existing.DayNumber == day.DayNumber {
			return repository.ErrDuplicateDayNumber
		}
	}
	plan.Days = append(plan.Days, day)
	r.plans[planID] = copyPlan(plan)
	return nil
}

func (r *fakePlanRepo) ReplaceDay(_ context.Context, planID primitive.ObjectID, day domain.WorkoutDay) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	idx := -1
	for i, existing := range plan.Days {
		if existing.ID == day.ID {
			idx = i
		} else if existing.DayNumber == day.DayNumber {
			return repository.ErrDuplicateDayNumber
		}
	}
	if idx < 0 {
		return repository.ErrNotFound
	}
	plan.Days[idx] = day
	r.plans[planID] = copyPlan(plan)
	return nil
}

func (r *fakePlanRepo) RemoveDay(_ context.Context, planID, dayID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, existing := range plan.Days {
		if existing.ID == dayID {
			plan.Days = append(plan.Days[:i], plan.Days[i+1:]...)
			r.plans[planID] = copyPlan(plan)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakePlanRepo) AddExerciseRow(_ context.Context, planID, dayID primitive.ObjectID, row domain.WorkoutExercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range plan.Days {
		if plan.Days[i].ID != dayID {
			continue
		}
		for _, existing := range plan.Days[i].Exercises {
			if existing.OrderInDay == row.OrderInDay {
				return repository.ErrDuplicateOrderInDay
			}
		}
		plan.Days[i].Exercises = append(plan.Days[i].Exercises, row)
		r.plans[planID] = copyPlan(plan)
		return nil
	}
	return repository.ErrNotFound
}

func (r *fakePlanRepo) UpdateExerciseRow(_ context.Context, planID, dayID primitive.ObjectID, row domain.WorkoutExercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range plan.Days {
		if plan.Days[i].ID != dayID {
			continue
		}
		idx := -1
		for j, existing := range plan.Days[i].Exercises {
			if existing.ID == row.ID {
				idx = j
			} else if existing.OrderInDay == row.OrderInDay {
				return repository.ErrDuplicateOrderInDay
			}
		}
		if idx < 0 {
			return repository.ErrNotFound
		}
		plan.Days[i].Exercises[idx] = row
		r.plans[planID] = copyPlan(plan)
		return nil
	}
	return repository.ErrNotFound
}

func (r *fakePlanRepo) RemoveExerciseRow(_ context.Context, planID, dayID, rowID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range plan.Days {
		if plan.Days[i].ID != dayID {
			continue
		}
		for j, existing := range plan.Days[i].Exercises {
			if existing.ID == rowID {
				plan.Days[i].Exercises = append(plan.Days[i].Exercises[:j], plan.Days[i].Exercises[j+1:]...)
				r.plans[planID] = copyPlan(plan)
				return nil
			}
		}
		return repository.ErrNotFound
	}
	return repository.ErrNotFound
}

func (r *fakePlanRepo) ExerciseReferenced(_ context.Context, exerciseID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, plan := range r.plans {
		for _, day := range plan.Days {
			for _, row := range day.Exercises {
				if row.ExerciseID == exerciseID {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// --- Assignment repository ---

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[primitive.ObjectID]domain.AssignedWorkoutPlan
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[primitive.ObjectID]domain.AssignedWorkoutPlan)}
}

func (r *fakeAssignmentRepo) activeExists(memberID primitive.ObjectID, exclude primitive.ObjectID) bool {
	for id, existing := range r.assignments {
		if id != exclude && existing.MemberID == memberID && existing.Status == domain.StatusActive {
			return true
		}
	}
	return false
}

func (r *fakeAssignmentRepo) Create(_ context.Context, assignment *domain.AssignedWorkoutPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if assignment.Status == domain.StatusActive && r.activeExists(assignment.MemberID, primitive.NilObjectID) {
		return primitive.NilObjectID, repository.ErrDuplicateActiveAssignment
	}
	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	r.assignments[assignment.ID] = *assignment
	return assignment.ID, nil
}

func (r *fakeAssignmentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.AssignedWorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &assignment, nil
}

func (r *fakeAssignmentRepo) GetByIdempotencyKey(_ context.Context, key string) (*domain.AssignedWorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, assignment := range r.assignments {
		if assignment.IdempotencyKey == key {
			out := assignment
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAssignmentRepo) GetActiveByMemberID(_ context.Context, memberID primitive.ObjectID) (*domain.AssignedWorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, assignment := range r.assignments {
		if assignment.MemberID == memberID && assignment.Status == domain.StatusActive {
			out := assignment
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAssignmentRepo) GetByMemberID(_ context.Context, memberID primitive.ObjectID) ([]domain.AssignedWorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AssignedWorkoutPlan
	for _, assignment := range r.assignments {
		if assignment.MemberID == memberID {
			out = append(out, assignment)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.AssignedWorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AssignedWorkoutPlan
	for _, assignment := range r.assignments {
		if assignment.AssignedByTrainerID != nil && *assignment.AssignedByTrainerID == trainerID {
			out = append(out, assignment)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) Update(_ context.Context, assignment *domain.AssignedWorkoutPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[assignment.ID]; !ok {
		return repository.ErrNotFound
	}
	if assignment.Status == domain.StatusActive && r.activeExists(assignment.MemberID, assignment.ID) {
		return repository.ErrDuplicateActiveAssignment
	}
	assignment.UpdatedAt = time.Now().UTC()
	r.assignments[assignment.ID] = *assignment
	return nil
}

func (r *fakeAssignmentRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, expect, next domain.AssignmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[id]
	if !ok || assignment.Status != expect {
		return repository.ErrNotFound
	}
	assignment.Status = next
	assignment.UpdatedAt = time.Now().UTC()
	r.assignments[id] = assignment
	return nil
}

func (r *fakeAssignmentRepo) CountByPlanID(_ context.Context, planID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, assignment := range r.assignments {
		if assignment.PlanID == planID {
			n++
		}
	}
	return n, nil
}

func (r *fakeAssignmentRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.assignments, id)
	return nil
}

func (r *fakeAssignmentRepo) CompleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, assignment := range r.assignments {
		if assignment.Status == domain.StatusActive && assignment.EndDate != nil && assignment.EndDate.Before(now) {
			assignment.Status = domain.StatusCompleted
			assignment.UpdatedAt = now
			r.assignments[id] = assignment
			n++
		}
	}
	return n, nil
}

// --- Workout log repository ---

type fakeWorkoutLogRepo struct {
	mu   sync.Mutex
	logs map[primitive.ObjectID]domain.WorkoutLog
}

func newFakeWorkoutLogRepo() *fakeWorkoutLogRepo {
	return &fakeWorkoutLogRepo{logs: make(map[primitive.ObjectID]domain.WorkoutLog)}
}

func (r *fakeWorkoutLogRepo) Create(_ context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now
	r.logs[log.ID] = *log
	return log.ID, nil
}

func (r *fakeWorkoutLogRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log, ok := r.logs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &log, nil
}

func (r *fakeWorkoutLogRepo) GetByMemberID(_ context.Context, memberID primitive.ObjectID, from, to *time.Time) ([]domain.WorkoutLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WorkoutLog
	for _, log := range r.logs {
		if log.MemberID != memberID {
			continue
		}
		if from != nil && log.LogDate.Before(*from) {
			continue
		}
		if to != nil && log.LogDate.After(*to) {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func (r *fakeWorkoutLogRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.logs, id)
	return nil
}

// --- FileStorage fake ---

type fakeFileStorage struct {
	uploads   []string
	downloads []string
}

func (s *fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	s.uploads = append(s.uploads, objectKey)
	return "https://storage.test/upload/" + objectKey, nil
}

func (s *fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	s.downloads = append(s.downloads, objectKey)
	return "https://storage.test/download/" + objectKey, nil
}

func (s *fakeFileStorage) DeleteObject(_ context.Context, _ string) error {
	return nil
}
