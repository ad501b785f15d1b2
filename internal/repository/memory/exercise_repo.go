// Package memory holds an in-process catalog that applies the same filter and
// ordering rules as the database backends.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"muscledynamics/workout-planner/internal/domain"
	"muscledynamics/workout-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseRepository is a mutex-guarded in-memory catalog. It satisfies
// repository.ExerciseRepository.
type ExerciseRepository struct {
	mu        sync.RWMutex
	exercises []domain.Exercise
	// unavailable simulates an unreachable store.
	unavailable error
}

// NewExerciseRepository returns an empty in-memory catalog.
func NewExerciseRepository() *ExerciseRepository {
	return &ExerciseRepository{}
}

var _ repository.ExerciseRepository = (*ExerciseRepository)(nil)

// SetUnavailable makes every call fail with err until cleared with nil.
func (r *ExerciseRepository) SetUnavailable(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unavailable = err
}

func (r *ExerciseRepository) Find(ctx context.Context, criteria domain.SelectionCriteria, page domain.Pagination) ([]domain.Exercise, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, 0, err
	}

	matched := make([]domain.Exercise, 0)
	for i := range r.exercises {
		if criteria.Matches(&r.exercises[i]) {
			matched = append(matched, r.exercises[i])
		}
	}
	SortExercises(matched)

	total := int64(len(matched))
	start := page.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if page.Limit > 0 && start+page.Limit < end {
		end = start + page.Limit
	}
	return matched[start:end], total, nil
}

func (r *ExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}
	for i := range r.exercises {
		if r.exercises[i].ID == id {
			ex := r.exercises[i]
			return &ex, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ExerciseRepository) DistinctMuscles(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for i := range r.exercises {
		for _, m := range r.exercises[i].AllMuscles() {
			seen[m] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (r *ExerciseRepository) DistinctEquipment(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for i := range r.exercises {
		seen[string(r.exercises[i].Equipment)] = struct{}{}
	}
	return sortedKeys(seen), nil
}

func (r *ExerciseRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(ctx); err != nil {
		return 0, err
	}
	return int64(len(r.exercises)), nil
}

func (r *ExerciseRepository) InsertMany(ctx context.Context, exercises []domain.Exercise) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	for i := range exercises {
		if exercises[i].ID.IsZero() {
			exercises[i].ID = primitive.NewObjectID()
		}
		exercises[i].CreatedAt = now
		exercises[i].UpdatedAt = now
		r.exercises = append(r.exercises, exercises[i])
	}
	return len(exercises), nil
}

func (r *ExerciseRepository) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.check(ctx)
}

func (r *ExerciseRepository) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.unavailable
}

// SortExercises orders records by rating descending, lower-cased name
// ascending, then id.
func SortExercises(exercises []domain.Exercise) {
	sort.SliceStable(exercises, func(i, j int) bool {
		a, b := &exercises[i], &exercises[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.ID.Hex() < b.ID.Hex()
	})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
