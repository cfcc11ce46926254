package controllers

import (
	"studylog/internal/storage"

	"github.com/gin-gonic/gin"
)

type fileController struct {
	resolve func(date, name string) (string, error)
}

// NewUploadFileController serves original upload bytes.
func NewUploadFileController(store storage.FileStore) *fileController {
	return &fileController{resolve: store.ResolveUpload}
}

// NewThumbnailFileController serves thumbnail bytes from their own
// namespace.
func NewThumbnailFileController(store storage.FileStore) *fileController {
	return &fileController{resolve: store.ResolveThumbnail}
}

func (h *fileController) Handle(c *gin.Context) {
	abs, err := h.resolve(c.Param("date"), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.File(abs)
}
