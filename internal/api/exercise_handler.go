package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"muscledynamics/workout-planner/internal/domain"
	"muscledynamics/workout-planner/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- DTOs for API (Data Transfer Objects) ---

// SearchRequest is the JSON body accepted by POST /exercises/search.
type SearchRequest struct {
	Muscles    []string `json:"muscles"`
	Equipment  []string `json:"equipment"`
	Difficulty string   `json:"difficulty"`
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
}

// ExerciseResponse is the DTO for returning exercise details.
type ExerciseResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	PrimaryMuscles   []string  `json:"primaryMuscles"`
	SecondaryMuscles []string  `json:"secondaryMuscles"`
	Equipment        string    `json:"equipment"`
	Category         string    `json:"category,omitempty"`
	Difficulty       string    `json:"difficulty,omitempty"`
	Force            string    `json:"force,omitempty"`
	Mechanic         string    `json:"mechanic,omitempty"`
	Instructions     []string  `json:"instructions"`
	Images           []string  `json:"images"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	AllImages        []string  `json:"allImages"`
	Aliases          []string  `json:"aliases,omitempty"`
	Reps             string    `json:"reps,omitempty"`
	Sets             string    `json:"sets,omitempty"`
	RestSeconds      int       `json:"restSeconds,omitempty"`
	Rating           float64   `json:"rating"`
	UsageCount       int64     `json:"usageCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ExerciseListResponse wraps one page of filter results.
type ExerciseListResponse struct {
	Items  []ExerciseResponse `json:"items"`
	Total  int64              `json:"total"`
	Count  int                `json:"count"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// TagsResponse carries a sorted list of distinct tags.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
// imageURLs are the resolved forms of ex.Images.
func MapExerciseToResponse(ex *domain.Exercise, imageURLs []string) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	if imageURLs == nil {
		imageURLs = []string{}
	}
	resp := ExerciseResponse{
		ID:               ex.ID.Hex(),
		Name:             ex.Name,
		Description:      ex.Description,
		PrimaryMuscles:   nonNil(ex.PrimaryMuscles),
		SecondaryMuscles: nonNil(ex.SecondaryMuscles),
		Equipment:        string(ex.Equipment),
		Category:         string(ex.Category),
		Difficulty:       string(ex.Difficulty),
		Force:            ex.Force,
		Mechanic:         ex.Mechanic,
		Instructions:     nonNil(ex.Instructions),
		Images:           nonNil(ex.Images),
		AllImages:        imageURLs,
		Aliases:          ex.Aliases,
		Reps:             ex.Reps,
		Sets:             ex.Sets,
		RestSeconds:      ex.RestSeconds,
		Rating:           ex.Rating,
		UsageCount:       ex.UsageCount,
		CreatedAt:        ex.CreatedAt,
		UpdatedAt:        ex.UpdatedAt,
	}
	if len(imageURLs) > 0 {
		resp.ImageURL = imageURLs[0]
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// mapExercises resolves images for each record. A record whose images cannot
// be resolved is still returned, without URLs.
func (h *ExerciseHandler) mapExercises(ctx context.Context, requestID string, exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i], h.resolveImages(ctx, requestID, &exercises[i]))
	}
	return responses
}

func (h *ExerciseHandler) resolveImages(ctx context.Context, requestID string, ex *domain.Exercise) []string {
	urls, err := h.exerciseService.ResolveImages(ctx, ex)
	if err != nil {
		log.Printf("WARN: [%s] Failed to resolve images for exercise %s: %v", requestID, ex.ID.Hex(), err)
		return nil
	}
	return urls
}

// --- Handler Methods ---

// ListExercises godoc
// @Summary Filter exercises
// @Description Filters the catalog by any-muscle overlap and equipment membership.
// @Tags Exercises
// @Produce json
// @Param muscles query []string false "Muscle tags (repeatable)"
// @Param equipment query []string false "Equipment tags (repeatable)"
// @Param limit query int false "Page size, at most 50"
// @Param offset query int false "Page offset"
// @Success 200 {object} ExerciseListResponse
// @Failure 400 {object} gin.H "Malformed filter"
// @Failure 500 {object} gin.H "Store error"
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid limit parameter.")
		return
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid offset parameter.")
		return
	}

	h.filter(c, SearchRequest{
		Muscles:    multiQuery(c, "muscles"),
		Equipment:  multiQuery(c, "equipment"),
		Difficulty: c.Query("difficulty"),
		Limit:      limit,
		Offset:     offset,
	})
}

// SearchExercises godoc
// @Summary Filter exercises (JSON body)
// @Tags Exercises
// @Accept json
// @Produce json
// @Param criteria body SearchRequest true "Selection criteria"
// @Success 200 {object} ExerciseListResponse
// @Failure 400 {object} gin.H "Malformed filter"
// @Failure 500 {object} gin.H "Store error"
// @Router /exercises/search [post]
func (h *ExerciseHandler) SearchExercises(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	h.filter(c, req)
}

func (h *ExerciseHandler) filter(c *gin.Context, req SearchRequest) {
	criteria, err := domain.ParseCriteria(req.Equipment, req.Muscles, req.Difficulty)
	if err != nil {
		abortWithServiceError(c, err, "filter exercises")
		return
	}

	page, err := h.exerciseService.FilterExercises(c.Request.Context(), criteria, domain.Pagination{Limit: req.Limit, Offset: req.Offset})
	if err != nil {
		abortWithServiceError(c, err, "filter exercises")
		return
	}

	items := h.mapExercises(c.Request.Context(), requestIDFromContext(c), page.Items)
	c.JSON(http.StatusOK, ExerciseListResponse{
		Items:  items,
		Total:  page.Total,
		Count:  len(items),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// GetExercise godoc
// @Summary Get one exercise
// @Tags Exercises
// @Produce json
// @Param id path string true "Exercise ID"
// @Success 200 {object} ExerciseResponse
// @Failure 404 {object} gin.H "Unknown or malformed id"
// @Router /exercises/{id} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusNotFound, "Exercise not found.")
		return
	}

	exercise, err := h.exerciseService.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		abortWithServiceError(c, err, "retrieve exercise")
		return
	}

	urls := h.resolveImages(c.Request.Context(), requestIDFromContext(c), exercise)
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise, urls))
}

// ListMuscles returns the distinct muscle tags, primary and secondary.
func (h *ExerciseHandler) ListMuscles(c *gin.Context) {
	tags, err := h.exerciseService.ListMuscles(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, err, "retrieve muscle groups")
		return
	}
	c.JSON(http.StatusOK, TagsResponse{Tags: nonNil(tags)})
}

// ListEquipment returns the distinct equipment tags.
func (h *ExerciseHandler) ListEquipment(c *gin.Context) {
	tags, err := h.exerciseService.ListEquipment(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, err, "retrieve equipment")
		return
	}
	c.JSON(http.StatusOK, TagsResponse{Tags: nonNil(tags)})
}

func (h *ExerciseHandler) GetStats(c *gin.Context) {
	stats, err := h.exerciseService.Stats(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, err, "retrieve catalog stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// multiQuery collects a repeatable query parameter, also splitting
// comma-separated values.
func multiQuery(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// intQuery parses an optional integer query parameter; absent means 0.
func intQuery(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
