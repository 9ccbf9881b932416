// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BodyPart classifies which part of the body an exercise targets.
type BodyPart string

const (
	BodyPartChest     BodyPart = "CHEST"
	BodyPartBack      BodyPart = "BACK"
	BodyPartLegs      BodyPart = "LEGS"
	BodyPartArms      BodyPart = "ARMS"
	BodyPartShoulders BodyPart = "SHOULDERS"
	BodyPartCore      BodyPart = "CORE"
	BodyPartFullBody  BodyPart = "FULL_BODY"
)

// Equipment is the equipment an exercise requires.
type Equipment string

const (
	EquipmentDumbbell       Equipment = "DUMBBELL"
	EquipmentMachine        Equipment = "MACHINE"
	EquipmentCable          Equipment = "CABLE"
	EquipmentBodyweight     Equipment = "BODYWEIGHT"
	EquipmentBarbell        Equipment = "BARBELL"
	EquipmentKettlebell     Equipment = "KETTLEBELL"
	EquipmentResistanceBand Equipment = "RESISTANCE_BAND"
	EquipmentOther          Equipment = "OTHER"
)

// Difficulty grades both catalog exercises and workout plans.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

func (b BodyPart) Valid() bool {
	switch b {
	case BodyPartChest, BodyPartBack, BodyPartLegs, BodyPartArms,
		BodyPartShoulders, BodyPartCore, BodyPartFullBody:
		return true
	}
	return false
}

func (e Equipment) Valid() bool {
	switch e {
	case EquipmentDumbbell, EquipmentMachine, EquipmentCable, EquipmentBodyweight,
		EquipmentBarbell, EquipmentKettlebell, EquipmentResistanceBand, EquipmentOther:
		return true
	}
	return false
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Exercise is a reusable definition in the exercise catalog. Plans never copy
// an exercise; they reference it by ID through WorkoutExercise rows.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"` // Unique within the catalog
	BodyPart    BodyPart           `bson:"bodyPart" json:"bodyPart"`
	Equipment   Equipment          `bson:"equipment" json:"equipment"`
	Difficulty  Difficulty         `bson:"difficulty" json:"difficulty"`
	VideoURL    string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
