package handler

import (
	"time"

	"github.com/diet-tracker/internal/middleware"
	"github.com/diet-tracker/internal/service"
	"github.com/diet-tracker/pkg/response"
	"github.com/gin-gonic/gin"
)

// MealHandler handles meal logging API requests
type MealHandler struct {
	metricsService *service.MetricsService
}

// NewMealHandler creates a new MealHandler
func NewMealHandler(metricsService *service.MetricsService) *MealHandler {
	return &MealHandler{
		metricsService: metricsService,
	}
}

// RecordMealRequest represents a meal to log. IsDiet is a pointer so that
// an explicit false passes the required check.
type RecordMealRequest struct {
	Name        string     `json:"name" binding:"required,max=100"`
	Description string     `json:"description" binding:"max=500"`
	EatenAt     *time.Time `json:"eaten_at"`
	IsDiet      *bool      `json:"is_diet" binding:"required"`
}

// RecordMeal logs a meal and returns the updated metrics
// POST /meals
func (h *MealHandler) RecordMeal(c *gin.Context) {
	var req RecordMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	in := service.MealInput{
		Name:        req.Name,
		Description: req.Description,
		IsDiet:      *req.IsDiet,
	}
	if req.EatenAt != nil {
		in.EatenAt = *req.EatenAt
	}

	snapshot, err := h.metricsService.RecordMeal(c.Request.Context(), middleware.GetSessionID(c), in)
	if err != nil {
		writeServiceError(c, err, "failed to record meal")
		return
	}

	response.Created(c, snapshot)
}

// RegisterRoutes registers meal routes
func (h *MealHandler) RegisterRoutes(rg *gin.RouterGroup, sessionMiddleware gin.HandlerFunc) {
	meals := rg.Group("/meals", sessionMiddleware)
	{
		meals.POST("", h.RecordMeal)
	}
}
