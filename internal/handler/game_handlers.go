package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listStories(c *gin.Context) {
	listing, err := h.sessions.ListStories(c.Request.Context(), playerIDFrom(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) currentSession(c *gin.Context) {
	view, err := h.sessions.CurrentView(c.Request.Context(), playerIDFrom(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) selectStory(c *gin.Context) {
	var req selectStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	view, err := h.sessions.SelectStory(c.Request.Context(), playerIDFrom(c), req.StoryID, req.Mode)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) choose(c *gin.Context) {
	var req chooseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	view, err := h.sessions.Choose(c.Request.Context(), playerIDFrom(c), req.Next)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) restart(c *gin.Context) {
	view, err := h.sessions.Restart(c.Request.Context(), playerIDFrom(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
