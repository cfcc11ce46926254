package controllers

import (
	"net/http"

	"studylog/internal/thumbnail"

	"github.com/gin-gonic/gin"
)

type observeThumbnailController struct{ pipeline *thumbnail.Pipeline }

func NewObserveThumbnailController(pipeline *thumbnail.Pipeline) *observeThumbnailController {
	return &observeThumbnailController{pipeline}
}

type observeReq struct {
	Date   string `json:"date" binding:"required"`
	TaskID string `json:"taskId" binding:"required"`
	Path   string `json:"path" binding:"required"`
}

// Handle is the visibility signal: a viewer scrolled a legacy video
// record without a thumbnail into view. Work is queued, not done inline.
func (h *observeThumbnailController) Handle(c *gin.Context) {
	var req observeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	queued := h.pipeline.Observe(thumbnail.Request{Date: req.Date, TaskID: req.TaskID, Path: req.Path})
	c.JSON(http.StatusAccepted, gin.H{"queued": queued})
}
