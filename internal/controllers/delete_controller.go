package controllers

import (
	"net/http"

	"studylog/internal/services"

	"github.com/gin-gonic/gin"
)

type deleteController struct{ svc services.DeleteService }

func NewDeleteController(svc services.DeleteService) *deleteController {
	return &deleteController{svc}
}

type deleteReq struct {
	Date   string `json:"date" binding:"required"`
	TaskID string `json:"taskId" binding:"required"`
	Path   string `json:"path" binding:"required"`
}

func (h *deleteController) Handle(c *gin.Context) {
	var req deleteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	rec, err := h.svc.Delete(c.Request.Context(), req.Date, req.TaskID, req.Path)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "data": rec})
}
