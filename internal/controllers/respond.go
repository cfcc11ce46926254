package controllers

import (
	"net/http"

	"studylog/pkg/domain"

	"github.com/gin-gonic/gin"
)

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case domain.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.KindDependencyNotMet, domain.KindQuotaExceeded:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps a coordinator error to its HTTP status and a body
// callers can branch on by kind.
func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	c.JSON(statusFor(kind), gin.H{"kind": string(kind), "error": err.Error()})
}
