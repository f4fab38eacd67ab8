package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// StoredFiles is the in-process file store, served back when no external storage is configured.
type StoredFiles interface {
	Open(key string) ([]byte, string, bool)
}

type FilesHandler struct {
	files StoredFiles
}

func NewFilesHandler(files StoredFiles) *FilesHandler {
	return &FilesHandler{files: files}
}

// Get serves GET /files/*key.
func (h *FilesHandler) Get(ctx *gin.Context) {
	key := strings.TrimPrefix(ctx.Param("key"), "/")

	data, contentType, ok := h.files.Open(key)
	if !ok {
		RespondError(ctx, http.StatusNotFound, "not_found", "file not found", nil)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Header("Cache-Control", "private, max-age=0")
	ctx.Data(http.StatusOK, contentType, data)
}
