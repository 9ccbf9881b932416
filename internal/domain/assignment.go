package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus type for the assigned-plan lifecycle.
type AssignmentStatus string

const (
	StatusActive    AssignmentStatus = "ACTIVE"
	StatusCompleted AssignmentStatus = "COMPLETED"
	StatusCancelled AssignmentStatus = "CANCELLED"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status can never be left again.
func (s AssignmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo encodes the lifecycle: ACTIVE may move to either terminal
// state; terminal states have no outgoing edges. Staying in place is allowed
// so that repeated cancels stay idempotent.
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	if s == next {
		return true
	}
	return s == StatusActive && next.Terminal()
}

// AssignedWorkoutPlan binds one member to one plan template over a date range.
// It references the plan by ID, not by snapshot: later edits to the template
// are visible through every assignment pointing at it.
type AssignedWorkoutPlan struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	MemberID            primitive.ObjectID  `bson:"memberId" json:"memberId"`
	PlanID              primitive.ObjectID  `bson:"planId" json:"planId"`
	AssignedByTrainerID *primitive.ObjectID `bson:"assignedByTrainerId,omitempty" json:"assignedByTrainerId,omitempty"`
	StartDate           time.Time           `bson:"startDate" json:"startDate"`
	EndDate             *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Status              AssignmentStatus    `bson:"status" json:"status"`
	IdempotencyKey      string              `bson:"idempotencyKey,omitempty" json:"-"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `bson:"updatedAt" json:"updatedAt"`
}
