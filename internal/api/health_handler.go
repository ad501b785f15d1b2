package api

import (
	"net/http"
	"time"

	"muscledynamics/workout-planner/internal/service"

	"github.com/gin-gonic/gin"
)

// HealthResponse reports liveness and catalog reachability.
type HealthResponse struct {
	Status         string    `json:"status"`
	StoreConnected bool      `json:"storeConnected"`
	Timestamp      time.Time `json:"timestamp"`
}

type HealthHandler struct {
	exerciseService service.ExerciseService
	now             func() time.Time
}

func NewHealthHandler(exerciseService service.ExerciseService) *HealthHandler {
	return &HealthHandler{exerciseService: exerciseService, now: time.Now}
}

// Health always answers 200; a store outage shows up as storeConnected=false.
func (h *HealthHandler) Health(c *gin.Context) {
	connected := h.exerciseService.CatalogConnected(c.Request.Context())
	status := "ok"
	if !connected {
		status = "degraded"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:         status,
		StoreConnected: connected,
		Timestamp:      h.now().UTC(),
	})
}
