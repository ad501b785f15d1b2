package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"sync"
	"testing"
	"time"

	"muscledynamics/workout-planner/internal/domain"
	"muscledynamics/workout-planner/internal/repository/memory"
	"muscledynamics/workout-planner/internal/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeCatalog lets each test script the catalog's answers.
type fakeCatalog struct {
	exercisesFunc func(ctx context.Context, criteria domain.SelectionCriteria, page domain.Pagination) (*domain.ExercisePage, error)
	exerciseFunc  func(ctx context.Context, id string) (*domain.Exercise, error)
	musclesFunc   func(ctx context.Context) ([]string, error)
	equipmentFunc func(ctx context.Context) ([]string, error)
}

func (f *fakeCatalog) Exercises(ctx context.Context, criteria domain.SelectionCriteria, page domain.Pagination) (*domain.ExercisePage, error) {
	return f.exercisesFunc(ctx, criteria, page)
}

func (f *fakeCatalog) Exercise(ctx context.Context, id string) (*domain.Exercise, error) {
	return f.exerciseFunc(ctx, id)
}

func (f *fakeCatalog) Muscles(ctx context.Context) ([]string, error) {
	return f.musclesFunc(ctx)
}

func (f *fakeCatalog) Equipment(ctx context.Context) ([]string, error) {
	return f.equipmentFunc(ctx)
}

func pageOf(items []domain.Exercise) *domain.ExercisePage {
	return &domain.ExercisePage{Items: items, Total: int64(len(items)), Limit: domain.MaxLimit}
}

func staticCatalog(items []domain.Exercise) *fakeCatalog {
	return &fakeCatalog{
		exercisesFunc: func(context.Context, domain.SelectionCriteria, domain.Pagination) (*domain.ExercisePage, error) {
			return pageOf(items), nil
		},
	}
}

// toExercises drives a controller from the start to the exercises step.
func toExercises(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.ToggleEquipment("dumbbell"); err != nil {
		t.Fatal(err)
	}
	if err := c.Advance(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.ToggleMuscle("Chest"); err != nil {
		t.Fatal(err)
	}
	if err := c.Advance(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Step() != StepExercises {
		t.Fatalf("step = %v, want exercises", c.Step())
	}
}

func TestAdvance_Guards(t *testing.T) {
	c := NewController(staticCatalog(makeExercises(3)), Options{})
	ctx := context.Background()

	err := c.Advance(ctx)
	if !errors.Is(err, domain.ErrValidation) || c.Step() != StepEquipment {
		t.Fatalf("advance with no equipment: err = %v step = %v", err, c.Step())
	}

	c.ToggleEquipment("Barbell")
	c.ToggleEquipment("barbell")
	if err := c.Advance(ctx); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("toggle twice should leave equipment empty, err = %v", err)
	}

	c.ToggleEquipment("Barbell")
	if err := c.Advance(ctx); err != nil || c.Step() != StepMuscles {
		t.Fatalf("err = %v step = %v", err, c.Step())
	}

	err = c.Advance(ctx)
	if !errors.Is(err, domain.ErrValidation) || c.Step() != StepMuscles {
		t.Fatalf("advance with no muscles: err = %v step = %v", err, c.Step())
	}

	if err := c.ToggleEquipment("hovercraft"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown equipment err = %v", err)
	}
	if err := c.ToggleMuscle("  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank muscle err = %v", err)
	}
}

func TestToggles_OnlyInSelectionSteps(t *testing.T) {
	var sent []domain.SelectionCriteria
	items := makeExercises(2)
	c := NewController(&fakeCatalog{
		exercisesFunc: func(_ context.Context, criteria domain.SelectionCriteria, _ domain.Pagination) (*domain.ExercisePage, error) {
			sent = append(sent, criteria)
			return pageOf(items), nil
		},
	}, Options{})
	ctx := context.Background()

	// muscles may be preselected alongside equipment
	if err := c.ToggleMuscle("chest"); err != nil {
		t.Fatal(err)
	}
	c.ToggleEquipment("Dumbbell")
	if err := c.Advance(ctx); err != nil {
		t.Fatal(err)
	}

	// equipment is locked once past its guard
	if err := c.ToggleEquipment("Dumbbell"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("untoggle equipment at muscles err = %v, want ErrValidation", err)
	}
	if err := c.Advance(ctx); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 || len(sent[0].Equipment) != 1 {
		t.Fatalf("criteria sent = %+v", sent)
	}

	if err := c.Advance(ctx); err != nil || c.Step() != StepSummary {
		t.Fatalf("advance to summary: step = %v err = %v", c.Step(), err)
	}
	if err := c.ToggleMuscle("legs"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("toggle muscle at summary err = %v, want ErrValidation", err)
	}
	st := c.State()
	if !reflect.DeepEqual(st.Muscles, c.Workout().Criteria.Muscles) {
		t.Fatalf("state muscles %v drifted from workout criteria %v", st.Muscles, c.Workout().Criteria.Muscles)
	}

	// back at muscles the tags are editable again
	c.Back()
	c.Back()
	if err := c.ToggleMuscle("legs"); err != nil {
		t.Fatal(err)
	}
}

func TestBeginQuery_RequiresEquipment(t *testing.T) {
	c := NewController(staticCatalog(makeExercises(1)), Options{})
	c.ToggleEquipment("Dumbbell")
	c.Advance(context.Background())
	c.ToggleMuscle("chest")

	// the query guard holds even when equipment is emptied without a toggle
	c.mu.Lock()
	c.equipment = map[domain.Equipment]struct{}{}
	c.mu.Unlock()

	if _, _, err := c.BeginQuery(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("BeginQuery err = %v, want ErrValidation", err)
	}
	if err := c.Advance(context.Background()); !errors.Is(err, domain.ErrValidation) || c.Step() != StepMuscles {
		t.Fatalf("advance: step = %v err = %v", c.Step(), err)
	}
}

func TestAdvance_EndToEnd(t *testing.T) {
	var catalog []domain.Exercise
	for i := 0; i < 12; i++ {
		muscle := "Chest"
		if i%2 == 1 {
			muscle = "Back"
		}
		catalog = append(catalog, domain.Exercise{
			Name: fmt.Sprintf("Match %02d", i), PrimaryMuscles: []string{muscle},
			Equipment: domain.EquipmentDumbbell, Instructions: []string{"Go."}, Rating: 3 + float64(i%3)*0.5,
		})
	}
	for i := 0; i < 8; i++ {
		eq := domain.EquipmentBarbell
		muscle := "Chest"
		if i%2 == 1 {
			eq = domain.EquipmentDumbbell
			muscle = "Quadriceps"
		}
		catalog = append(catalog, domain.Exercise{
			Name: fmt.Sprintf("Miss %02d", i), PrimaryMuscles: []string{muscle},
			Equipment: eq, Instructions: []string{"Go."},
		})
	}

	repo := memory.NewExerciseRepository()
	svc := service.NewExerciseService(repo, nil, service.Options{})
	if _, err := svc.ImportExercises(context.Background(), catalog); err != nil {
		t.Fatal(err)
	}

	c := NewController(NewServiceCatalog(svc), Options{})
	ctx := context.Background()
	c.ToggleEquipment("Dumbbell")
	if err := c.Advance(ctx); err != nil {
		t.Fatal(err)
	}
	c.ToggleMuscle("Chest")
	c.ToggleMuscle("Back")
	if err := c.Advance(ctx); err != nil {
		t.Fatal(err)
	}

	st := c.State()
	if st.Step != StepExercises {
		t.Fatalf("step = %v", st.Step)
	}
	if len(st.Items) != 12 || st.Total != 12 {
		t.Fatalf("items = %d total = %d, want 12", len(st.Items), st.Total)
	}
	for i := 1; i < len(st.Items); i++ {
		a, b := st.Items[i-1], st.Items[i]
		if a.Rating < b.Rating || (a.Rating == b.Rating && a.Name > b.Name) {
			t.Fatalf("items out of order at %d: %s(%.1f) before %s(%.1f)", i, a.Name, a.Rating, b.Name, b.Rating)
		}
	}
}

func TestAdvance_QueryFailureKeepsState(t *testing.T) {
	boom := domain.Query("catalog unavailable", errors.New("dial tcp: refused"))
	calls := 0
	cat := &fakeCatalog{exercisesFunc: func(context.Context, domain.SelectionCriteria, domain.Pagination) (*domain.ExercisePage, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return pageOf(makeExercises(2)), nil
	}}
	c := NewController(cat, Options{})
	c.ToggleEquipment("Dumbbell")
	c.Advance(context.Background())
	c.ToggleMuscle("chest")

	err := c.Advance(context.Background())
	if !errors.Is(err, domain.ErrQuery) {
		t.Fatalf("err = %v, want ErrQuery", err)
	}
	if c.Step() != StepMuscles || c.Loading() {
		t.Fatalf("step = %v loading = %v after failure", c.Step(), c.Loading())
	}
	if crit := c.Criteria(); len(crit.Muscles) != 1 || len(crit.Equipment) != 1 {
		t.Fatalf("criteria changed on failure: %+v", crit)
	}

	if err := c.Advance(context.Background()); err != nil {
		t.Fatalf("retry err = %v", err)
	}
	if c.Step() != StepExercises {
		t.Fatalf("step = %v after retry", c.Step())
	}
}

func TestAdvance_EmptyResult(t *testing.T) {
	c := NewController(staticCatalog(nil), Options{})
	c.ToggleEquipment("Dumbbell")
	c.Advance(context.Background())
	c.ToggleMuscle("neck")

	err := c.Advance(context.Background())
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("err = %v, want ErrNoResults", err)
	}
	if domain.Message(err) != "No exercises found for selected criteria. Try different selections." {
		t.Fatalf("message = %q", domain.Message(err))
	}
	if c.Step() != StepMuscles {
		t.Fatalf("step = %v, want muscles", c.Step())
	}
}

func TestAdvance_Timeout(t *testing.T) {
	cat := &fakeCatalog{exercisesFunc: func(ctx context.Context, _ domain.SelectionCriteria, _ domain.Pagination) (*domain.ExercisePage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c := NewController(cat, Options{Timeout: 20 * time.Millisecond})
	c.ToggleEquipment("Dumbbell")
	c.Advance(context.Background())
	c.ToggleMuscle("chest")

	err := c.Advance(context.Background())
	if !errors.Is(err, domain.ErrQuery) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want ErrQuery wrapping DeadlineExceeded", err)
	}
	if c.Step() != StepMuscles {
		t.Fatalf("step = %v", c.Step())
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	first := makeExercises(2)
	second := makeExercises(3)
	c := NewController(staticCatalog(nil), Options{})
	c.ToggleEquipment("Dumbbell")
	c.Advance(context.Background())
	c.ToggleMuscle("chest")

	seq1, _, err := c.BeginQuery()
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.BeginQuery(); !errors.Is(err, ErrQueryInFlight) {
		t.Fatalf("second concurrent query err = %v, want ErrQueryInFlight", err)
	}

	// back, then forward again before the first response arrives
	if c.Back() != StepEquipment {
		t.Fatal("back from muscles should reach equipment")
	}
	c.Advance(context.Background())
	seq2, _, err := c.BeginQuery()
	if err != nil {
		t.Fatal(err)
	}
	if seq2 <= seq1 {
		t.Fatalf("sequence not monotonic: %d then %d", seq1, seq2)
	}

	if err := c.CompleteQuery(seq2, pageOf(second), nil); err != nil {
		t.Fatal(err)
	}
	if err := c.CompleteQuery(seq1, pageOf(first), nil); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("late first response err = %v, want ErrStaleResponse", err)
	}
	if got := c.State().Items; len(got) != 3 || got[0].ID != second[0].ID {
		t.Fatalf("items = %v, want the second response", ids(got))
	}
}

func TestConcurrentAdvance_SingleQuery(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	var mu sync.Mutex
	calls := 0
	cat := &fakeCatalog{exercisesFunc: func(ctx context.Context, _ domain.SelectionCriteria, _ domain.Pagination) (*domain.ExercisePage, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		started <- struct{}{}
		<-release
		return pageOf(makeExercises(4)), nil
	}}
	c := NewController(cat, Options{})
	c.ToggleEquipment("Dumbbell")
	c.Advance(context.Background())
	c.ToggleMuscle("chest")

	firstDone := make(chan error, 1)
	go func() { firstDone <- c.Advance(context.Background()) }()
	<-started

	if !c.Loading() || !c.State().Loading {
		t.Fatal("controller not loading while query outstanding")
	}
	if err := c.Advance(context.Background()); !errors.Is(err, ErrQueryInFlight) {
		t.Fatalf("concurrent advance err = %v, want ErrQueryInFlight", err)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("catalog called %d times, want 1", calls)
	}
	if c.Step() != StepExercises {
		t.Fatalf("step = %v", c.Step())
	}
}

func TestBackDuringQueryDropsResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	cat := &fakeCatalog{exercisesFunc: func(context.Context, domain.SelectionCriteria, domain.Pagination) (*domain.ExercisePage, error) {
		close(started)
		<-release
		return pageOf(makeExercises(2)), nil
	}}
	c := NewController(cat, Options{})
	c.ToggleEquipment("Dumbbell")
	c.Advance(context.Background())
	c.ToggleMuscle("chest")

	done := make(chan error, 1)
	go func() { done <- c.Advance(context.Background()) }()
	<-started
	c.Back()
	close(release)

	if err := <-done; !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("err = %v, want ErrStaleResponse", err)
	}
	if c.Step() != StepEquipment || c.State().Items != nil {
		t.Fatalf("stale response applied: step = %v", c.Step())
	}
}

func TestExercisesStepOperations(t *testing.T) {
	items := makeExercises(4)
	c := NewController(staticCatalog(items), Options{Rand: rand.New(rand.NewPCG(9, 9))})

	if err := c.Shuffle(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("shuffle before exercises err = %v", err)
	}
	toExercises(t, c)

	if err := c.Shuffle(); err != nil {
		t.Fatal(err)
	}
	if removed, err := c.Remove(items[0].ID.Hex()); err != nil || !removed {
		t.Fatalf("remove = %v, %v", removed, err)
	}
	if removed, err := c.Remove(items[0].ID.Hex()); err != nil || removed {
		t.Fatalf("second remove = %v, %v", removed, err)
	}
	if len(c.State().Items) != 3 {
		t.Fatalf("items = %d, want 3", len(c.State().Items))
	}
	if ok, _ := c.ToggleSelect(items[0].ID.Hex()); ok {
		t.Fatal("selecting a removed item should be a no-op")
	}
}

func TestImplicitMode_WorkoutIsWholeList(t *testing.T) {
	items := makeExercises(3)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewController(staticCatalog(items), Options{Now: func() time.Time { return now }})
	toExercises(t, c)

	if err := c.Advance(context.Background()); err != nil {
		t.Fatal(err)
	}
	w := c.Workout()
	if c.Step() != StepSummary || w == nil {
		t.Fatalf("step = %v workout = %v", c.Step(), w)
	}
	if len(w.Exercises) != 3 || !w.CreatedAt.Equal(now) {
		t.Fatalf("workout = %+v", w)
	}
	if err := c.Advance(context.Background()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("advance from summary err = %v", err)
	}
}

func TestImplicitMode_EmptyListBlocksSummary(t *testing.T) {
	items := makeExercises(1)
	c := NewController(staticCatalog(items), Options{})
	toExercises(t, c)
	c.Remove(items[0].ID.Hex())

	if err := c.Advance(context.Background()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if c.Step() != StepExercises {
		t.Fatalf("step = %v", c.Step())
	}
}

func TestExplicitMode_RequiresSelection(t *testing.T) {
	items := makeExercises(4)
	c := NewController(staticCatalog(items), Options{Mode: ModeExplicit})
	toExercises(t, c)

	if err := c.Advance(context.Background()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	c.ToggleSelect(items[3].ID.Hex())
	c.ToggleSelect(items[1].ID.Hex())
	if err := c.Advance(context.Background()); err != nil {
		t.Fatal(err)
	}
	w := c.Workout()
	if len(w.Exercises) != 2 || w.Exercises[0].ID != items[1].ID.Hex() || w.Exercises[1].ID != items[3].ID.Hex() {
		t.Fatalf("workout exercises = %+v", w.Exercises)
	}
	if st := c.State(); st.Mode != ModeExplicit || len(st.Selected) != 2 {
		t.Fatalf("state = %+v", st)
	}
}

func TestBack_RetainsCriteriaAndPage(t *testing.T) {
	items := makeExercises(3)
	c := NewController(staticCatalog(items), Options{})
	toExercises(t, c)
	c.Advance(context.Background())

	if got := c.Back(); got != StepExercises || c.Workout() != nil {
		t.Fatalf("back from summary = %v", got)
	}
	if got := c.Back(); got != StepMuscles {
		t.Fatalf("back from exercises = %v", got)
	}
	st := c.State()
	if len(st.Items) != 3 || len(st.Muscles) != 1 || len(st.Equipment) != 1 {
		t.Fatalf("state after back = %+v", st)
	}
	if got := c.Back(); got != StepEquipment {
		t.Fatalf("back from muscles = %v", got)
	}
	if got := c.Back(); got != StepEquipment {
		t.Fatalf("back from equipment = %v", got)
	}
}

func TestReset_FromEveryStep(t *testing.T) {
	for _, target := range []Step{StepEquipment, StepMuscles, StepExercises, StepSummary} {
		t.Run(target.String(), func(t *testing.T) {
			c := NewController(staticCatalog(makeExercises(2)), Options{})
			c.ToggleEquipment("Dumbbell")
			for c.Step() < target {
				if c.Step() == StepMuscles {
					c.ToggleMuscle("chest")
				}
				if err := c.Advance(context.Background()); err != nil {
					t.Fatal(err)
				}
			}

			c.Reset()
			st := c.State()
			if st.Step != StepEquipment || len(st.Equipment) != 0 || len(st.Muscles) != 0 {
				t.Fatalf("state after reset = %+v", st)
			}
			if st.Items != nil || st.Selected != nil || st.Total != 0 || st.Workout != nil || st.Loading {
				t.Fatalf("residual result page after reset: %+v", st)
			}
		})
	}
}

func TestDetails_NotFoundDropsItem(t *testing.T) {
	items := makeExercises(3)
	cat := staticCatalog(items)
	cat.exerciseFunc = func(_ context.Context, id string) (*domain.Exercise, error) {
		if id == items[0].ID.Hex() {
			ex := items[0]
			return &ex, nil
		}
		return nil, domain.NotFound("exercise not found")
	}
	c := NewController(cat, Options{})
	toExercises(t, c)

	ex, err := c.Details(context.Background(), items[0].ID.Hex())
	if err != nil || ex.Name != items[0].Name {
		t.Fatalf("details = %v, %v", ex, err)
	}

	gone := items[1].ID.Hex()
	c.ToggleSelect(gone)
	_, err = c.Details(context.Background(), gone)
	if !errors.Is(err, domain.ErrNotFound) || domain.Message(err) != "Exercise no longer available." {
		t.Fatalf("err = %v", err)
	}
	st := c.State()
	if len(st.Items) != 2 || len(st.Selected) != 0 {
		t.Fatalf("missing item not dropped: items = %d selected = %v", len(st.Items), st.Selected)
	}
}

func TestLoadOptions_IndependentFailures(t *testing.T) {
	var mu sync.Mutex
	muscleCalls, equipmentCalls := 0, 0
	failEquipment := true
	cat := &fakeCatalog{
		musclesFunc: func(context.Context) ([]string, error) {
			mu.Lock()
			defer mu.Unlock()
			muscleCalls++
			return []string{"chest", "biceps"}, nil
		},
		equipmentFunc: func(context.Context) ([]string, error) {
			mu.Lock()
			defer mu.Unlock()
			equipmentCalls++
			if failEquipment {
				return nil, domain.Query("catalog unavailable", errors.New("503"))
			}
			return []string{"Dumbbell"}, nil
		},
	}
	c := NewController(cat, Options{})

	err := c.LoadOptions(context.Background())
	if !errors.Is(err, domain.ErrQuery) {
		t.Fatalf("err = %v, want ErrQuery", err)
	}
	st := c.State()
	if !st.OptionsLoaded.Muscles || st.OptionsLoaded.Equipment {
		t.Fatalf("loaded = %+v, want muscles only", st.OptionsLoaded)
	}
	if fmt.Sprint(st.MuscleOptions) != "[biceps chest]" {
		t.Fatalf("muscle options = %v", st.MuscleOptions)
	}

	mu.Lock()
	failEquipment = false
	mu.Unlock()
	if err := c.LoadOptions(context.Background()); err != nil {
		t.Fatal(err)
	}
	if muscleCalls != 1 || equipmentCalls != 2 {
		t.Fatalf("calls muscles = %d equipment = %d, want 1/2", muscleCalls, equipmentCalls)
	}
	if st := c.State(); !st.OptionsLoaded.Equipment || st.EquipmentOptions[0] != "Dumbbell" {
		t.Fatalf("equipment options = %v", st.EquipmentOptions)
	}

	c.Reset()
	if st := c.State(); !st.OptionsLoaded.Muscles || !st.OptionsLoaded.Equipment {
		t.Fatal("reset should keep loaded options")
	}
}

func TestState_JSON(t *testing.T) {
	items := makeExercises(2)
	c := NewController(staticCatalog(items), Options{Mode: ModeExplicit})
	toExercises(t, c)
	c.ToggleSelect(items[0].ID.Hex())

	data, err := json.Marshal(c.State())
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["step"] != "exercises" || decoded["mode"] != "explicit" {
		t.Fatalf("step/mode = %v/%v", decoded["step"], decoded["mode"])
	}
	if sel, ok := decoded["selected"].([]interface{}); !ok || len(sel) != 1 || sel[0] != items[0].ID.Hex() {
		t.Fatalf("selected = %v", decoded["selected"])
	}
}

func TestServiceCatalog_MalformedID(t *testing.T) {
	svc := service.NewExerciseService(memory.NewExerciseRepository(), nil, service.Options{})
	cat := NewServiceCatalog(svc)
	if _, err := cat.Exercise(context.Background(), "xyz"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := cat.Exercise(context.Background(), primitive.NewObjectID().Hex()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
