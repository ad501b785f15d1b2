package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"muscledynamics/workout-planner/internal/domain"
	"muscledynamics/workout-planner/internal/repository/memory"
	"muscledynamics/workout-planner/internal/service"
	"muscledynamics/workout-planner/internal/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	repo   *memory.ExerciseRepository
	ids    map[string]primitive.ObjectID
}

func newTestServer(t *testing.T, basePath string) *testServer {
	t.Helper()
	repo := memory.NewExerciseRepository()
	svc := service.NewExerciseService(repo, storage.NewBaseURLResolver("https://img.test/ex"), service.Options{})

	seed := []domain.Exercise{
		{Name: "Dumbbell Bench Press", PrimaryMuscles: []string{"chest"}, SecondaryMuscles: []string{"triceps"}, Equipment: domain.EquipmentDumbbell, Instructions: []string{"Press."}, Images: []string{"DB_Bench/0.jpg"}, Rating: 4.8},
		{Name: "One-Arm Dumbbell Row", PrimaryMuscles: []string{"lats"}, SecondaryMuscles: []string{"biceps"}, Equipment: domain.EquipmentDumbbell, Instructions: []string{"Row."}, Rating: 4.6},
		{Name: "Barbell Squat", PrimaryMuscles: []string{"quadriceps"}, Equipment: domain.EquipmentBarbell, Instructions: []string{"Squat."}, Rating: 4.9, Difficulty: domain.DifficultyAdvanced},
	}
	if _, err := svc.ImportExercises(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	router := gin.New()
	SetupRoutes(router, basePath, "http://localhost:3000", svc)

	ts := &testServer{router: router, repo: repo, ids: map[string]primitive.ObjectID{}}
	page, err := svc.FilterExercises(context.Background(), domain.SelectionCriteria{}, domain.Pagination{})
	if err != nil {
		t.Fatal(err)
	}
	for _, ex := range page.Items {
		ts.ids[ex.Name] = ex.ID
	}
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestListExercises(t *testing.T) {
	ts := newTestServer(t, "")

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantNames []string
	}{
		{name: "all", path: "/exercises", wantCode: http.StatusOK, wantNames: []string{"Barbell Squat", "Dumbbell Bench Press", "One-Arm Dumbbell Row"}},
		{name: "repeated muscles", path: "/exercises?muscles=chest&muscles=biceps", wantCode: http.StatusOK, wantNames: []string{"Dumbbell Bench Press", "One-Arm Dumbbell Row"}},
		{name: "comma muscles", path: "/exercises?muscles=chest,quadriceps", wantCode: http.StatusOK, wantNames: []string{"Barbell Squat", "Dumbbell Bench Press"}},
		{name: "equipment case-insensitive", path: "/exercises?equipment=barbell", wantCode: http.StatusOK, wantNames: []string{"Barbell Squat"}},
		{name: "equipment and muscles", path: "/exercises?equipment=Dumbbell&muscles=triceps", wantCode: http.StatusOK, wantNames: []string{"Dumbbell Bench Press"}},
		{name: "difficulty", path: "/exercises?difficulty=advanced", wantCode: http.StatusOK, wantNames: []string{"Barbell Squat"}},
		{name: "limit window", path: "/exercises?limit=1&offset=1", wantCode: http.StatusOK, wantNames: []string{"Dumbbell Bench Press"}},
		{name: "no match", path: "/exercises?muscles=calves", wantCode: http.StatusOK, wantNames: []string{}},
		{name: "unknown equipment", path: "/exercises?equipment=hovercraft", wantCode: http.StatusBadRequest},
		{name: "bad limit", path: "/exercises?limit=ten", wantCode: http.StatusBadRequest},
		{name: "negative offset", path: "/exercises?offset=-1", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, tt.path, nil)
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				body := decode[map[string]string](t, w)
				if body["error"] == "" {
					t.Fatalf("missing error message: %s", w.Body.String())
				}
				return
			}
			resp := decode[ExerciseListResponse](t, w)
			got := make([]string, len(resp.Items))
			for i, it := range resp.Items {
				got[i] = it.Name
			}
			if strings.Join(got, "|") != strings.Join(tt.wantNames, "|") {
				t.Fatalf("items = %v, want %v", got, tt.wantNames)
			}
			if resp.Count != len(resp.Items) {
				t.Fatalf("count = %d, len(items) = %d", resp.Count, len(resp.Items))
			}
		})
	}
}

func TestListExercises_TotalAndLimit(t *testing.T) {
	ts := newTestServer(t, "")
	resp := decode[ExerciseListResponse](t, ts.do(t, http.MethodGet, "/exercises?limit=500", nil))
	if resp.Limit != domain.MaxLimit || resp.Total != 3 || resp.Offset != 0 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSearchExercises(t *testing.T) {
	ts := newTestServer(t, "")
	body, _ := json.Marshal(SearchRequest{Muscles: []string{"lats"}, Equipment: []string{"dumbbell"}})

	w := ts.do(t, http.MethodPost, "/exercises/search", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[ExerciseListResponse](t, w)
	if len(resp.Items) != 1 || resp.Items[0].Name != "One-Arm Dumbbell Row" {
		t.Fatalf("items = %+v", resp.Items)
	}

	w = ts.do(t, http.MethodPost, "/exercises/search", []byte(`{"muscles": "chest"`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d, want 400", w.Code)
	}
}

func TestGetExercise(t *testing.T) {
	ts := newTestServer(t, "")
	id := ts.ids["Dumbbell Bench Press"]

	w := ts.do(t, http.MethodGet, "/exercises/"+id.Hex(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[ExerciseResponse](t, w)
	if resp.ID != id.Hex() || resp.Equipment != "Dumbbell" {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.ImageURL != "https://img.test/ex/DB_Bench/0.jpg" || len(resp.AllImages) != 1 {
		t.Fatalf("images = %q %v", resp.ImageURL, resp.AllImages)
	}

	for _, path := range []string{"/exercises/" + primitive.NewObjectID().Hex(), "/exercises/not-an-id"} {
		if w := ts.do(t, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
			t.Fatalf("GET %s status = %d, want 404", path, w.Code)
		}
	}
}

func TestTagEndpoints(t *testing.T) {
	ts := newTestServer(t, "/api/v1")

	muscles := decode[TagsResponse](t, ts.do(t, http.MethodGet, "/api/v1/exercises/muscles", nil))
	want := "biceps|chest|lats|quadriceps|triceps"
	if got := strings.Join(muscles.Tags, "|"); got != want {
		t.Fatalf("muscles = %s, want %s", got, want)
	}

	equipment := decode[TagsResponse](t, ts.do(t, http.MethodGet, "/api/v1/exercises/equipment", nil))
	if got := strings.Join(equipment.Tags, "|"); got != "Barbell|Dumbbell" {
		t.Fatalf("equipment = %s", got)
	}

	stats := decode[domain.CatalogStats](t, ts.do(t, http.MethodGet, "/api/v1/exercises/stats", nil))
	if stats.TotalExercises != 3 || stats.UniqueEquipment != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestStoreUnavailable(t *testing.T) {
	ts := newTestServer(t, "")
	ts.repo.SetUnavailable(errors.New("no reachable servers"))

	for _, path := range []string{"/exercises", "/exercises/muscles", "/exercises/equipment"} {
		w := ts.do(t, http.MethodGet, path, nil)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("GET %s status = %d, want 500", path, w.Code)
		}
		if strings.Contains(w.Body.String(), "no reachable servers") {
			t.Fatalf("GET %s leaked internal error: %s", path, w.Body.String())
		}
	}

	health := decode[HealthResponse](t, ts.do(t, http.MethodGet, "/health", nil))
	if health.StoreConnected || health.Status != "degraded" {
		t.Fatalf("health = %+v", health)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")
	w := ts.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	health := decode[HealthResponse](t, w)
	if !health.StoreConnected || health.Status != "ok" || health.Timestamp.IsZero() {
		t.Fatalf("health = %+v", health)
	}
}

func TestMiddleware(t *testing.T) {
	ts := newTestServer(t, "")

	w := ts.do(t, http.MethodGet, "/ping", nil)
	if w.Header().Get(HeaderRequestID) == "" {
		t.Fatal("missing generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	if got := w.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/exercises", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin allowed: %q", got)
	}
}

func TestMapExerciseToResponse(t *testing.T) {
	ex := &domain.Exercise{
		ID:         primitive.NewObjectID(),
		Name:       "Plank",
		Equipment:  domain.EquipmentBodyweight,
		Images:     []string{"Plank/0.jpg"},
		Rating:     4.2,
		UsageCount: 9,
	}
	resp := MapExerciseToResponse(ex, []string{"https://img/Plank/0.jpg"})

	if resp.ID != ex.ID.Hex() || resp.UsageCount != 9 || resp.ImageURL != "https://img/Plank/0.jpg" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.PrimaryMuscles == nil || resp.Instructions == nil {
		t.Fatal("nil lists must encode as []")
	}
}
