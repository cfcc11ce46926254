package controllers

import (
	"net/http"

	"studylog/internal/services"

	"github.com/gin-gonic/gin"
)

type getDataController struct{ svc services.RecordsService }

func NewGetDataController(svc services.RecordsService) *getDataController {
	return &getDataController{svc}
}

// Handle returns the full date → DailyRecord mapping for the calendar.
func (h *getDataController) Handle(c *gin.Context) {
	all, err := h.svc.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}
