package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/pkg/errcode"
	"github.com/examgen/examgen/internal/pkg/response"
	"github.com/examgen/examgen/internal/repo"
	"github.com/examgen/examgen/internal/service"
)

type QuestionHandler struct {
	questions *service.QuestionService
}

func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

func (h *QuestionHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.Query("offset"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	filter := repo.QuestionFilter{
		SubjectID:    c.Query("subject_id"),
		TopicID:      c.Query("topic_id"),
		Type:         model.QuestionType(c.Query("type")),
		ReviewStatus: c.Query("review_status"),
		Offset:       uint(offset),
		Limit:        uint(limit),
	}
	questions, err := h.questions.List(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, questions)
}

func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.questions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, question)
}

type reviewRequest struct {
	Status string `json:"status"`
}

func (h *QuestionHandler) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	question, err := h.questions.Review(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, question)
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
