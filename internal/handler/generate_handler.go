package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/pkg/errcode"
	"github.com/examgen/examgen/internal/pkg/response"
	"github.com/examgen/examgen/internal/service"
)

type GenerateHandler struct {
	generation *service.GenerationService
}

func NewGenerateHandler(generation *service.GenerationService) *GenerateHandler {
	return &GenerateHandler{generation: generation}
}

type generateRequest struct {
	TopicID    string                     `json:"topic_id"`
	Targets    map[model.QuestionType]int `json:"targets"`
	Difficulty model.Difficulty           `json:"difficulty"`
}

// Start kicks off a batch and returns immediately with the batch id. The
// client polls the batch endpoint for progress; a 202-style contract over
// the shared success envelope.
func (h *GenerateHandler) Start(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	batch, err := h.generation.StartBatch(c.Request.Context(), &service.GenerateRequest{
		SubjectID:  c.Param("id"),
		TopicID:    req.TopicID,
		Targets:    req.Targets,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, batch)
}

func (h *GenerateHandler) GetBatch(c *gin.Context) {
	batch, err := h.generation.GetBatch(c.Request.Context(), c.Param("batch_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"batch":    batch,
		"progress": batch.Progress(),
	})
}

func (h *GenerateHandler) ListBatchQuestions(c *gin.Context) {
	questions, err := h.generation.ListBatchQuestions(c.Request.Context(), c.Param("batch_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, questions)
}
