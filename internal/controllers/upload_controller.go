package controllers

import (
	"io"
	"mime/multipart"
	"net/http"

	"studylog/internal/services"
	"studylog/pkg/domain"

	"github.com/gin-gonic/gin"
)

type uploadController struct{ svc services.UploadService }

func NewUploadController(svc services.UploadService) *uploadController {
	return &uploadController{svc}
}

// Handle accepts a multipart form: fields "date" and "taskId", the files
// under the form part named by the task id, and an optional per-video
// companion part named "thumbnail:<original filename>".
func (h *uploadController) Handle(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	date := formValue(form, "date")
	taskID := formValue(form, "taskId")
	if date == "" || taskID == "" {
		respondError(c, domain.NewError(domain.KindInvalidRequest, "date and taskId are required"))
		return
	}

	files := make([]services.IncomingFile, 0, len(form.File[taskID]))
	for _, fh := range form.File[taskID] {
		in := services.IncomingFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		}
		if thumbs := form.File["thumbnail:"+fh.Filename]; len(thumbs) > 0 {
			data, err := readPart(thumbs[0])
			if err != nil {
				respondError(c, domain.StorageError("read thumbnail part", err))
				return
			}
			in.Thumbnail = data
		}
		files = append(files, in)
	}

	rec, err := h.svc.Upload(c.Request.Context(), date, taskID, files)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "upload accepted", "data": rec})
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
