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

// AssignInput carries the fields for a new assignment. IdempotencyKey is
// optional; when set, retrying the same create after an ambiguous failure
// returns the already-created row instead of inserting a duplicate.
type AssignInput struct {
	MemberID            primitive.ObjectID
	PlanID              primitive.ObjectID
	AssignedByTrainerID *primitive.ObjectID
	StartDate           time.Time
	EndDate             *time.Time
	Status              domain.AssignmentStatus
	IdempotencyKey      string
}

// UpdateAssignmentInput is a partial update: nil fields are left untouched.
type UpdateAssignmentInput struct {
	AssignedByTrainerID *primitive.ObjectID
	StartDate           *time.Time
	EndDate             *time.Time
	Status              *domain.AssignmentStatus
}

// AssignmentService owns per-member assignment instances and their
// ACTIVE/COMPLETED/CANCELLED lifecycle.
type AssignmentService interface {
	Assign(ctx context.Context, in AssignInput) (*domain.AssignedWorkoutPlan, error)
	Update(ctx context.Context, id primitive.ObjectID, in UpdateAssignmentInput) (*domain.AssignedWorkoutPlan, error)
	Cancel(ctx context.Context, id primitive.ObjectID) (*domain.AssignedWorkoutPlan, error)
	Complete(ctx context.Context, id primitive.ObjectID) (*domain.AssignedWorkoutPlan, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.AssignedWorkoutPlan, error)
	// GetCurrent returns the member's single ACTIVE assignment, or nil when
	// there is none; no active plan is a normal outcome, not an error.
	GetCurrent(ctx context.Context, memberID primitive.ObjectID) (*domain.AssignedWorkoutPlan, error)
	ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.AssignedWorkoutPlan, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.AssignedWorkoutPlan, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// CompleteExpired transitions ACTIVE rows whose endDate passed to
	// COMPLETED. It never runs implicitly at read time.
	CompleteExpired(ctx context.Context) (int64, error)
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	planRepo       repository.PlanRepository
	logger         *zap.Logger
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, planRepo repository.PlanRepository, logger *zap.Logger) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		planRepo:       planRepo,
		logger:         logger,
	}
}

func (s *assignmentService) Assign(ctx context.Context, in AssignInput) (*domain.AssignedWorkoutPlan, error) {
	if in.StartDate.IsZero() {
		return nil, validationErr("start date is required")
	}
	if in.Status == "" {
		in.Status = domain.StatusActive
	}
	if !in.Status.Valid() {
		return nil, validationErr("unrecognized status %q", in.Status)
	}

	if _, err := s.planRepo.GetByID(ctx, in.PlanID); err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("plan %s", in.PlanID.Hex()))
	}

	// Replay detection: a retried create with the same key returns the row
	// the first attempt stored.
	if in.IdempotencyKey != "" {
		existing, err := s.assignmentRepo.GetByIdempotencyKey(ctx, in.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, mapRepoErr(err, "assignment")
		}
	}

	assignment := &domain.AssignedWorkoutPlan{
		MemberID:            in.MemberID,
		PlanID:              in.PlanID,
		AssignedByTrainerID: in.AssignedByTrainerID,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		Status:              in.Status,
		IdempotencyKey:      in.IdempotencyKey,
	}

	// The insert and the one-ACTIVE-per-member check are a single atomic unit
	// (the store's partial unique index); no separate existence check races
	// against a concurrent assign.
	id, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveAssignment) {
			return nil, s.activeConflict(ctx, in.MemberID)
		}
		return nil, mapRepoErr(err, "assignment")
	}
	s.logger.Info("workout plan assigned",
		zap.String("assignmentId", id.Hex()),
		zap.String("memberId", in.MemberID.Hex()),
		zap.String("planId", in.PlanID.Hex()))
	return assignment, nil
}

func (s *assignmentService) Update(ctx context.Context, id primitive.ObjectID, in UpdateAssignmentInput) (*domain.AssignedWorkoutPlan, error) {
	existing, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("assignment %s", id.Hex()))
	}

	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, validationErr("unrecognized status %q", *in.Status)
		}
		if !existing.Status.CanTransitionTo(*in.Status) {
			return nil, conflictErr("assignment %s is %s; %s is terminal and cannot become %s",
				id.Hex(), existing.Status, existing.Status, *in.Status)
		}
		existing.Status = *in.Status
	}
	if in.AssignedByTrainerID != nil {
		existing.AssignedByTrainerID = in.AssignedByTrainerID
	}
	if in.StartDate != nil {
		existing.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		existing.EndDate = in.EndDate
	}

	// A transition into ACTIVE re-runs the uniqueness check at the store.
	if err := s.assignmentRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveAssignment) {
			return nil, s.activeConflict(ctx, existing.MemberID)
		}
		return nil, mapRepoErr(err, fmt.Sprintf("assignment %s", id.Hex()))
	}
	existing.UpdatedAt = time.Now().UTC()
	return existing, nil
}

// Cancel moves an assignment to CANCELLED. Cancelling an already-CANCELLED
// row is a no-op success; a COMPLETED row is a conflict, terminal states are
// never revived.
func (s *assignmentService) Cancel(ctx context.Context, id primitive.ObjectID) (*domain.AssignedWorkoutPlan, error) {
	return s.terminate(ctx, id, domain.StatusCancelled)
}

// Complete moves an assignment to COMPLETED, with the mirrored idempotency
// and conflict rules of Cancel.
func (s *assignmentService) Complete(ctx context.Context, id primitive.ObjectID) (*domain.AssignedWorkoutPlan, error) {
	return s.terminate(ctx, id, domain.StatusCompleted)
}

func (s *assignmentService) terminate(ctx context.Context, id primitive.ObjectID, target domain.AssignmentStatus) (*domain.AssignedWorkoutPlan, error) {
	// CAS loop: read, decide, conditionally write. A missed write means a
	// concurrent transition happened; re-read and re-decide.
	for {
		existing, err := s.assignmentRepo.GetByID(ctx, id)
		if err != nil {
			return nil, mapRepoErr(err, fmt.Sprintf("assignment %s", id.Hex()))
		}
		if existing.Status == target {
			return existing, nil
		}
		if existing.Status.Terminal() {
			return nil, conflictErr("assignment %s is already %s and cannot become %s", id.Hex(), existing.Status, target)
		}

		err = s.assignmentRepo.UpdateStatus(ctx, id, existing.Status, target)
		if err == nil {
			existing.Status = target
			existing.UpdatedAt = time.Now().UTC()
			s.logger.Info("assignment transitioned",
				zap.String("assignmentId", id.Hex()),
				zap.String("status", string(target)))
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, mapRepoErr(err, fmt.Sprintf("assignment %s", id.Hex()))
		}
	}
}

func (s *assignmentService) Get(ctx context.Context, id primitive.ObjectID) (*domain.AssignedWorkoutPlan, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("assignment %s", id.Hex()))
	}
	return assignment, nil
}

func (s *assignmentService) GetCurrent(ctx context.Context, memberID primitive.ObjectID) (*domain.AssignedWorkoutPlan, error) {
	assignment, err := s.assignmentRepo.GetActiveByMemberID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, mapRepoErr(err, fmt.Sprintf("current plan for member %s", memberID.Hex()))
	}
	return assignment, nil
}

func (s *assignmentService) ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.AssignedWorkoutPlan, error) {
	assignments, err := s.assignmentRepo.GetByMemberID(ctx, memberID)
	if err != nil {
		return nil, mapRepoErr(err, "assignments")
	}
	return assignments, nil
}

func (s *assignmentService) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.AssignedWorkoutPlan, error) {
	assignments, err := s.assignmentRepo.GetByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, mapRepoErr(err, "assignments")
	}
	return assignments, nil
}

func (s *assignmentService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.assignmentRepo.Delete(ctx, id); err != nil {
		return mapRepoErr(err, fmt.Sprintf("assignment %s", id.Hex()))
	}
	s.logger.Info("assignment deleted", zap.String("assignmentId", id.Hex()))
	return nil
}

func (s *assignmentService) CompleteExpired(ctx context.Context) (int64, error) {
	n, err := s.assignmentRepo.CompleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, mapRepoErr(err, "assignments")
	}
	if n > 0 {
		s.logger.Info("expired assignments completed", zap.Int64("count", n))
	}
	return n, nil
}

// activeConflict names the blocking ACTIVE row in the conflict error so the
// caller can decide whether to cancel it first.
func (s *assignmentService) activeConflict(ctx context.Context, memberID primitive.ObjectID) error {
	current, err := s.assignmentRepo.GetActiveByMemberID(ctx, memberID)
	if err != nil {
		return conflictErr("member %s already has an active workout plan", memberID.Hex())
	}
	return conflictErr("member %s already has active assignment %s (plan %s); cancel it before assigning a new plan",
		memberID.Hex(), current.ID.Hex(), current.PlanID.Hex())
}
