package repository

import (
	"context"

	"muscledynamics/workout-planner/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrInsertFailed = RepositoryError("insert failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ExerciseRepository is the narrow query interface over the exercise catalog.
//
// Find must return records ordered by rating descending, then name
// (case-insensitive) ascending, then id, so identical queries page identically.
type ExerciseRepository interface {
	Find(ctx context.Context, criteria domain.SelectionCriteria, page domain.Pagination) ([]domain.Exercise, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	// DistinctMuscles returns every primary and secondary muscle tag, sorted.
	DistinctMuscles(ctx context.Context) ([]string, error)
	// DistinctEquipment returns every equipment tag in use, sorted.
	DistinctEquipment(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, exercises []domain.Exercise) (int, error)
	Ping(ctx context.Context) error
}
