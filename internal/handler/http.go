package handler

import (
	"errors"
	"net/http"
	"strings"

	"storyquest-server/internal/middleware"
	"storyquest-server/internal/models"
	"storyquest-server/internal/service"
	"storyquest-server/internal/storyedit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler обрабатывает HTTP запросы игрока и админки.
type Handler struct {
	sessions service.SessionService
	stories  service.StoryService
	logger   *zap.Logger
}

// NewHandler создает новый Handler.
func NewHandler(sessions service.SessionService, stories service.StoryService, logger *zap.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		stories:  stories,
		logger:   logger.Named("HTTPHandler"),
	}
}

// RegisterRoutes регистрирует маршруты API. rateLimit (может быть nil) вешается
// на обе группы: и игровые, и админские запросы пишут в хранилище.
func (h *Handler) RegisterRoutes(r gin.IRouter, rateLimit gin.HandlerFunc) {
	api := r.Group("/api/v1")
	if rateLimit != nil {
		api.Use(rateLimit)
	}

	players := api.Group("/players/:player_id", h.requirePlayerID)
	{
		players.GET("/stories", h.listStories)
		players.GET("/session", h.currentSession)
		players.POST("/session", h.selectStory)
		players.POST("/session/choice", h.choose)
		players.POST("/session/restart", h.restart)
	}

	admin := api.Group("/admin/stories")
	{
		admin.GET("", h.adminListStories)
		admin.GET("/:id", h.adminGetStory)
		admin.POST("", h.adminCreateStory)
		admin.PUT("/:id", h.adminUpdateStory)
		admin.DELETE("/:id", h.adminDeleteStory)
	}
}

// requirePlayerID rejects player ids no storage backend can key progress by.
func (h *Handler) requirePlayerID(c *gin.Context) {
	if err := models.ValidatePlayerID(playerIDFrom(c)); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "Invalid player id"})
		return
	}
	c.Next()
}

func playerIDFrom(c *gin.Context) string {
	return strings.TrimSpace(c.Param("player_id"))
}

func (h *Handler) handleServiceError(c *gin.Context, err error) {
	var statusCode int
	apiErr := APIError{Message: err.Error()}

	var validationErr *storyedit.ValidationError
	switch {
	case errors.As(err, &validationErr):
		statusCode = http.StatusUnprocessableEntity
		apiErr = APIError{Message: models.ErrInvalidStoryGraph.Error(), Problems: validationErr.Problems}
	case errors.Is(err, models.ErrInvalidStoryGraph), errors.Is(err, models.ErrEmptyStory):
		statusCode = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNodeNotFound),
		errors.Is(err, models.ErrInvalidEditPayload),
		errors.Is(err, models.ErrInvalidMode),
		errors.Is(err, models.ErrInvalidPlayerID):
		statusCode = http.StatusBadRequest
	case errors.Is(err, models.ErrNoActiveStory):
		statusCode = http.StatusConflict
	case errors.Is(err, models.ErrStoryNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: models.ErrStoryNotFound.Error()}
	case errors.Is(err, models.ErrStorageUnavailable):
		h.logger.Error("Storage unavailable",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.RequestIDFromContext(c)),
			zap.Error(err),
		)
		statusCode = http.StatusServiceUnavailable
		apiErr = APIError{Message: "Storage is temporarily unavailable, please try again later"}
	default:
		h.logger.Error("Unhandled internal error",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.RequestIDFromContext(c)),
			zap.Error(err),
		)
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, apiErr)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: message})
}
