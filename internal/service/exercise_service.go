package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"muscledynamics/workout-planner/internal/domain"
	"muscledynamics/workout-planner/internal/repository"
	"muscledynamics/workout-planner/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultQueryTimeout bounds a single catalog query.
const DefaultQueryTimeout = 10 * time.Second

// ExerciseService is the filter engine and reference-data source over the catalog.
type ExerciseService interface {
	// FilterExercises runs one read-only query. An empty page is a valid result;
	// deciding what to show for it is up to the caller.
	FilterExercises(ctx context.Context, criteria domain.SelectionCriteria, page domain.Pagination) (*domain.ExercisePage, error)
	GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	ListMuscles(ctx context.Context) ([]string, error)
	ListEquipment(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*domain.CatalogStats, error)
	ResolveImages(ctx context.Context, exercise *domain.Exercise) ([]string, error)
	ImportExercises(ctx context.Context, exercises []domain.Exercise) (*ImportResult, error)
	CatalogConnected(ctx context.Context) bool
}

// Options tune the filter engine. Zero values fall back to the domain defaults.
type Options struct {
	DefaultLimit int
	MaxLimit     int
	QueryTimeout time.Duration
}

// ImportResult reports what an import stored and what it rejected.
type ImportResult struct {
	Inserted int
	Skipped  []string
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	images       storage.ImageResolver
	defaultLimit int
	maxLimit     int
	queryTimeout time.Duration
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, images storage.ImageResolver, opts Options) ExerciseService {
	s := &exerciseService{
		exerciseRepo: exerciseRepo,
		images:       images,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		queryTimeout: opts.QueryTimeout,
	}
	if s.maxLimit <= 0 || s.maxLimit > domain.MaxLimit {
		s.maxLimit = domain.MaxLimit
	}
	if s.defaultLimit <= 0 || s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	if s.queryTimeout <= 0 {
		s.queryTimeout = DefaultQueryTimeout
	}
	if s.images == nil {
		s.images = storage.NewBaseURLResolver("")
	}
	return s
}

// FilterExercises validates criteria, bounds the page window and queries the store.
func (s *exerciseService) FilterExercises(ctx context.Context, criteria domain.SelectionCriteria, page domain.Pagination) (*domain.ExercisePage, error) {
	if err := criteria.Validate(); err != nil {
		return nil, domain.MalformedFilter(err)
	}
	page, err := s.normalizePage(page)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	items, total, err := s.exerciseRepo.Find(ctx, criteria, page)
	if err != nil {
		return nil, queryError("filter exercises", err)
	}
	return &domain.ExercisePage{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *exerciseService) normalizePage(page domain.Pagination) (domain.Pagination, error) {
	if page.Limit == 0 {
		page.Limit = s.defaultLimit
	}
	page, err := page.Normalize()
	if err != nil {
		return page, err
	}
	if page.Limit > s.maxLimit {
		page.Limit = s.maxLimit
	}
	return page, nil
}

// GetExerciseByID retrieves a single exercise.
func (s *exerciseService) GetExerciseByID(ctx context.Context, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	if exerciseID.IsZero() {
		return nil, domain.NotFound("exercise not found")
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("exercise not found")
		}
		return nil, queryError("get exercise", err)
	}
	return exercise, nil
}

func (s *exerciseService) ListMuscles(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tags, err := s.exerciseRepo.DistinctMuscles(ctx)
	if err != nil {
		return nil, queryError("list muscles", err)
	}
	return tags, nil
}

func (s *exerciseService) ListEquipment(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tags, err := s.exerciseRepo.DistinctEquipment(ctx)
	if err != nil {
		return nil, queryError("list equipment", err)
	}
	return tags, nil
}

// Stats gathers catalog totals and the tag lists.
func (s *exerciseService) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	total, err := s.exerciseRepo.Count(ctx)
	if err != nil {
		return nil, queryError("count exercises", err)
	}
	muscles, err := s.exerciseRepo.DistinctMuscles(ctx)
	if err != nil {
		return nil, queryError("list muscles", err)
	}
	equipment, err := s.exerciseRepo.DistinctEquipment(ctx)
	if err != nil {
		return nil, queryError("list equipment", err)
	}
	return &domain.CatalogStats{
		TotalExercises:  total,
		UniqueMuscles:   len(muscles),
		UniqueEquipment: len(equipment),
		Muscles:         muscles,
		Equipment:       equipment,
	}, nil
}

func (s *exerciseService) ResolveImages(ctx context.Context, exercise *domain.Exercise) ([]string, error) {
	if exercise == nil || len(exercise.Images) == 0 {
		return []string{}, nil
	}
	return s.images.ResolveImages(ctx, exercise.Images)
}

// ImportExercises normalises and validates records, then stores the valid ones.
// Invalid records are skipped and reported, not fatal.
func (s *exerciseService) ImportExercises(ctx context.Context, exercises []domain.Exercise) (*ImportResult, error) {
	result := &ImportResult{}
	valid := make([]domain.Exercise, 0, len(exercises))
	for i := range exercises {
		ex := exercises[i]
		ex.Normalize()
		if err := ex.Validate(); err != nil {
			result.Skipped = append(result.Skipped, domain.Message(err))
			continue
		}
		valid = append(valid, ex)
	}

	n, err := s.exerciseRepo.InsertMany(ctx, valid)
	result.Inserted = n
	if err != nil {
		return result, fmt.Errorf("import exercises: %w", err)
	}
	if len(result.Skipped) > 0 {
		log.Printf("WARN: Import skipped %d invalid exercise records", len(result.Skipped))
	}
	return result, nil
}

// CatalogConnected pings the store with a short deadline.
func (s *exerciseService) CatalogConnected(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.exerciseRepo.Ping(ctx); err != nil {
		log.Printf("WARN: Catalog ping failed: %v", err)
		return false
	}
	return true
}

func queryError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Query(op+": catalog query timed out", err)
	}
	return domain.Query(op+": catalog unavailable", err)
}
