package wizard

import (
	"context"

	"muscledynamics/workout-planner/internal/domain"
	"muscledynamics/workout-planner/internal/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// serviceCatalog runs the wizard in-process against the filter engine, with
// image references resolved the same way the API resolves them.
type serviceCatalog struct {
	svc service.ExerciseService
}

// NewServiceCatalog adapts an ExerciseService to the Catalog interface.
func NewServiceCatalog(svc service.ExerciseService) Catalog {
	return &serviceCatalog{svc: svc}
}

func (s *serviceCatalog) Exercises(ctx context.Context, criteria domain.SelectionCriteria, page domain.Pagination) (*domain.ExercisePage, error) {
	res, err := s.svc.FilterExercises(ctx, criteria, page)
	if err != nil {
		return nil, err
	}
	for i := range res.Items {
		s.resolve(ctx, &res.Items[i])
	}
	return res, nil
}

func (s *serviceCatalog) Exercise(ctx context.Context, id string) (*domain.Exercise, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.NotFound("exercise not found")
	}
	ex, err := s.svc.GetExerciseByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	s.resolve(ctx, ex)
	return ex, nil
}

func (s *serviceCatalog) Muscles(ctx context.Context) ([]string, error) {
	return s.svc.ListMuscles(ctx)
}

func (s *serviceCatalog) Equipment(ctx context.Context) ([]string, error) {
	return s.svc.ListEquipment(ctx)
}

// resolve swaps storage references for URLs, leaving them as-is on failure.
func (s *serviceCatalog) resolve(ctx context.Context, ex *domain.Exercise) {
	if urls, err := s.svc.ResolveImages(ctx, ex); err == nil {
		ex.Images = urls
	}
}
