package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/examgen/examgen/internal/pkg/errcode"
	"github.com/examgen/examgen/internal/pkg/response"
	"github.com/examgen/examgen/internal/service"
)

// maxUploadBytes caps material uploads. Course PDFs run large but a hard
// ceiling keeps a bad client from filling the disk.
const maxUploadBytes = 64 << 20

type MaterialHandler struct {
	indexing *service.IndexingService
}

func NewMaterialHandler(indexing *service.IndexingService) *MaterialHandler {
	return &MaterialHandler{indexing: indexing}
}

func (h *MaterialHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if file.Size > maxUploadBytes {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	title := c.PostForm("title")
	if title == "" {
		title = file.Filename
	}
	material, err := h.indexing.Upload(
		c.Request.Context(),
		c.Param("id"),
		c.PostForm("topic_id"),
		title,
		file.Filename,
		opened,
		file.Size,
	)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, material)
}

func (h *MaterialHandler) List(c *gin.Context) {
	materials, err := h.indexing.ListBySubject(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, materials)
}

func (h *MaterialHandler) Get(c *gin.Context) {
	material, err := h.indexing.Get(c.Request.Context(), c.Param("material_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, material)
}

// Index runs synchronously; extraction and embedding of a large PDF can take
// a while, so clients should treat this as a long call.
func (h *MaterialHandler) Index(c *gin.Context) {
	materialID := c.Param("material_id")
	if err := h.indexing.Index(c.Request.Context(), materialID); err != nil {
		handleError(c, err)
		return
	}
	material, err := h.indexing.Get(c.Request.Context(), materialID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, material)
}

func (h *MaterialHandler) Delete(c *gin.Context) {
	if err := h.indexing.Delete(c.Request.Context(), c.Param("material_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
