package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fithub/workout-service/internal/domain"
	"fithub/workout-service/internal/repository"
	"fithub/workout-service/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CreateExerciseInput carries the fields for a new catalog exercise.
type CreateExerciseInput struct {
	Name        string
	BodyPart    domain.BodyPart
	Equipment   domain.Equipment
	Difficulty  domain.Difficulty
	VideoURL    string
	Description string
}

// UpdateExerciseInput is a partial update: nil fields are left untouched.
type UpdateExerciseInput struct {
	Name        *string
	BodyPart    *domain.BodyPart
	Equipment   *domain.Equipment
	Difficulty  *domain.Difficulty
	VideoURL    *string
	Description *string
}

// ExerciseService is the exercise catalog: flat CRUD over reusable exercise
// definitions plus demo-video media handling.
type ExerciseService interface {
	Create(ctx context.Context, in CreateExerciseInput) (*domain.Exercise, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	List(ctx context.Context) ([]domain.Exercise, error)
	Update(ctx context.Context, id primitive.ObjectID, in UpdateExerciseInput) (*domain.Exercise, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// VideoUploadURL issues a presigned PUT URL for the exercise's demo video
	// and records the resulting object key as the videoUrl.
	VideoUploadURL(ctx context.Context, id primitive.ObjectID, contentType string) (string, error)
	// VideoDownloadURL resolves the stored object key to a presigned GET URL.
	VideoDownloadURL(ctx context.Context, id primitive.ObjectID) (string, error)
}

type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	planRepo     repository.PlanRepository
	fileStorage  storage.FileStorage
	logger       *zap.Logger
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, planRepo repository.PlanRepository, fileStorage storage.FileStorage, logger *zap.Logger) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		planRepo:     planRepo,
		fileStorage:  fileStorage,
		logger:       logger,
	}
}

func (s *exerciseService) Create(ctx context.Context, in CreateExerciseInput) (*domain.Exercise, error) {
	if in.Name == "" {
		return nil, validationErr("exercise name is required")
	}
	if !in.BodyPart.Valid() {
		return nil, validationErr("unrecognized body part %q", in.BodyPart)
	}
	if !in.Equipment.Valid() {
		return nil, validationErr("unrecognized equipment %q", in.Equipment)
	}
	if !in.Difficulty.Valid() {
		return nil, validationErr("unrecognized difficulty %q", in.Difficulty)
	}

	exercise := &domain.Exercise{
		Name:        in.Name,
		BodyPart:    in.BodyPart,
		Equipment:   in.Equipment,
		Difficulty:  in.Difficulty,
		VideoURL:    in.VideoURL,
		Description: in.Description,
	}

	id, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, conflictErr("exercise named %q already exists", in.Name)
		}
		return nil, mapRepoErr(err, "exercise")
	}
	s.logger.Info("exercise created", zap.String("exerciseId", id.Hex()), zap.String("name", in.Name))
	return exercise, nil
}

func (s *exerciseService) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("exercise %s", id.Hex()))
	}
	return exercise, nil
}

func (s *exerciseService) List(ctx context.Context) ([]domain.Exercise, error) {
	exercises, err := s.exerciseRepo.List(ctx)
	if err != nil {
		return nil, mapRepoErr(err, "exercises")
	}
	return exercises, nil
}

func (s *exerciseService) Update(ctx context.Context, id primitive.ObjectID, in UpdateExerciseInput) (*domain.Exercise, error) {
	existing, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("exercise %s", id.Hex()))
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, validationErr("exercise name cannot be empty")
		}
		existing.Name = *in.Name
	}
	if in.BodyPart != nil {
		if !in.BodyPart.Valid() {
			return nil, validationErr("unrecognized body part %q", *in.BodyPart)
		}
		existing.BodyPart = *in.BodyPart
	}
	if in.Equipment != nil {
		if !in.Equipment.Valid() {
			return nil, validationErr("unrecognized equipment %q", *in.Equipment)
		}
		existing.Equipment = *in.Equipment
	}
	if in.Difficulty != nil {
		if !in.Difficulty.Valid() {
			return nil, validationErr("unrecognized difficulty %q", *in.Difficulty)
		}
		existing.Difficulty = *in.Difficulty
	}
	if in.VideoURL != nil {
		existing.VideoURL = *in.VideoURL
	}
	if in.Description != nil {
		existing.Description = *in.Description
	}

	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return nil, conflictErr("exercise named %q already exists", existing.Name)
		}
		return nil, mapRepoErr(err, fmt.Sprintf("exercise %s", id.Hex()))
	}
	existing.UpdatedAt = time.Now().UTC()
	return existing, nil
}

// Delete refuses to remove an exercise while any plan row references it.
func (s *exerciseService) Delete(ctx context.Context, id primitive.ObjectID) error {
	referenced, err := s.planRepo.ExerciseReferenced(ctx, id)
	if err != nil {
		return mapRepoErr(err, fmt.Sprintf("exercise %s", id.Hex()))
	}
	if referenced {
		return conflictErr("exercise %s is referenced by at least one workout plan", id.Hex())
	}

	if err := s.exerciseRepo.Delete(ctx, id); err != nil {
		return mapRepoErr(err, fmt.Sprintf("exercise %s", id.Hex()))
	}
	s.logger.Info("exercise deleted", zap.String("exerciseId", id.Hex()))
	return nil
}

func (s *exerciseService) VideoUploadURL(ctx context.Context, id primitive.ObjectID, contentType string) (string, error) {
	if contentType == "" {
		return "", validationErr("content type is required for video upload")
	}
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return "", mapRepoErr(err, fmt.Sprintf("exercise %s", id.Hex()))
	}

	objectKey := fmt.Sprintf("exercise-videos/%s", id.Hex())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign video upload: %w", err)
	}

	exercise.VideoURL = objectKey
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return "", mapRepoErr(err, fmt.Sprintf("exercise %s", id.Hex()))
	}
	return uploadURL, nil
}

func (s *exerciseService) VideoDownloadURL(ctx context.Context, id primitive.ObjectID) (string, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return "", mapRepoErr(err, fmt.Sprintf("exercise %s", id.Hex()))
	}
	if exercise.VideoURL == "" {
		return "", notFoundErr("exercise %s has no demo video", id.Hex())
	}
	downloadURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.VideoURL, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign video download: %w", err)
	}
	return downloadURL, nil
}
