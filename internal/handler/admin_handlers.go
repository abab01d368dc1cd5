package handler

import (
	"net/http"

	"storyquest-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) adminListStories(c *gin.Context) {
	stories, err := h.stories.ListStories(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if stories == nil {
		stories = []models.Story{}
	}
	c.JSON(http.StatusOK, stories)
}

func (h *Handler) adminGetStory(c *gin.Context) {
	story, err := h.stories.GetStory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) adminCreateStory(c *gin.Context) {
	var draft models.StoryDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	id, err := h.stories.CreateStory(c.Request.Context(), draft)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.logger.Info("Story created via admin API", zap.String("storyID", id))
	c.JSON(http.StatusCreated, createStoryResponse{ID: id})
}

func (h *Handler) adminUpdateStory(c *gin.Context) {
	var draft models.StoryDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := h.stories.UpdateStory(c.Request.Context(), c.Param("id"), draft); err != nil {
		h.handleServiceError(c, err)
		return
	}
	story, err := h.stories.GetStory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) adminDeleteStory(c *gin.Context) {
	if err := h.stories.DeleteStory(c.Request.Context(), c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
