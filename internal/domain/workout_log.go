package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutLog records work a member actually performed, as opposed to the
// prescription in a plan. Actual values are optional because members log
// partial sessions.
type WorkoutLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID   primitive.ObjectID `bson:"memberId" json:"memberId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	LogDate    time.Time          `bson:"logDate" json:"logDate"`
	ActualSets *int               `bson:"actualSets,omitempty" json:"actualSets,omitempty"`
	ActualReps string             `bson:"actualReps,omitempty" json:"actualReps,omitempty"` // Free-form, e.g. "8-12", "Max"
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
