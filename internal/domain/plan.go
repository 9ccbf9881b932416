// internal/domain/plan.go
package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutPlan is a reusable plan template, independent of any member. The day
// collection is embedded so that replacing a day's exercise set is a
// single-document write.
type WorkoutPlan struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name               string              `bson:"name" json:"name"`
	Description        string              `bson:"description,omitempty" json:"description,omitempty"`
	Difficulty         Difficulty          `bson:"difficulty" json:"difficulty"`
	CreatedByTrainerID *primitive.ObjectID `bson:"createdByTrainerId,omitempty" json:"createdByTrainerId,omitempty"`
	IsActive           bool                `bson:"isActive" json:"isActive"`
	Days               []WorkoutDay        `bson:"days" json:"days"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutDay is a numbered slot within a plan. DayNumber is caller-assigned,
// unique within the plan and not necessarily contiguous; it is never a
// calendar date.
type WorkoutDay struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DayNumber int                `bson:"dayNumber" json:"dayNumber"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Exercises []WorkoutExercise  `bson:"exercises" json:"exercises"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutExercise places one catalog exercise into a day with prescribed
// volume. OrderInDay is caller-assigned and unique within the day; the store
// never renumbers rows on deletion.
type WorkoutExercise struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExerciseID        primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Sets              int                `bson:"sets" json:"sets"`
	Reps              string             `bson:"reps" json:"reps"` // Free-form, e.g. "8-12" or "Max"
	RestTimeInSeconds *int               `bson:"restTimeInSeconds,omitempty" json:"restTimeInSeconds,omitempty"`
	OrderInDay        int                `bson:"orderInDay" json:"orderInDay"`
}

// SortedDays returns the plan's days ordered ascending by dayNumber, each with
// its rows ordered ascending by orderInDay. Display order is computed at read
// time; the stored arrays carry insertion order.
func (p *WorkoutPlan) SortedDays() []WorkoutDay {
	days := make([]WorkoutDay, len(p.Days))
	copy(days, p.Days)
	for i := range days {
		days[i].Exercises = sortedExercises(days[i].Exercises)
	}
	sortDays(days)
	return days
}

func sortDays(days []WorkoutDay) {
	sort.Slice(days, func(i, j int) bool { return days[i].DayNumber < days[j].DayNumber })
}

func sortedExercises(rows []WorkoutExercise) []WorkoutExercise {
	out := make([]WorkoutExercise, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return out[i].OrderInDay < out[j].OrderInDay })
	return out
}

// Day returns the embedded day with the given id.
func (p *WorkoutPlan) Day(dayID primitive.ObjectID) (*WorkoutDay, bool) {
	for i := range p.Days {
		if p.Days[i].ID == dayID {
			return &p.Days[i], true
		}
	}
	return nil, false
}
