package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/examgen/examgen/internal/model"
	"github.com/examgen/examgen/internal/pkg/errcode"
	"github.com/examgen/examgen/internal/pkg/response"
	"github.com/examgen/examgen/internal/service"
)

type SubjectHandler struct {
	subjects *service.SubjectService
}

func NewSubjectHandler(subjects *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects}
}

type subjectRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (h *SubjectHandler) Create(c *gin.Context) {
	var req subjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	subject, err := h.subjects.Create(c.Request.Context(), req.Name, req.Code, req.Description)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, subject)
}

func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.subjects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, subject)
}

func (h *SubjectHandler) List(c *gin.Context) {
	subjects, err := h.subjects.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, subjects)
}

func (h *SubjectHandler) Delete(c *gin.Context) {
	if err := h.subjects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

type topicRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *SubjectHandler) CreateTopic(c *gin.Context) {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	topic, err := h.subjects.CreateTopic(c.Request.Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, topic)
}

func (h *SubjectHandler) ListTopics(c *gin.Context) {
	topics, err := h.subjects.ListTopics(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, topics)
}

type outcomesRequest struct {
	Outcomes []*model.Outcome `json:"outcomes"`
}

func (h *SubjectHandler) ReplaceOutcomes(c *gin.Context) {
	var req outcomesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	outcomes, err := h.subjects.ReplaceOutcomes(c.Request.Context(), c.Param("id"), req.Outcomes)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, outcomes)
}

func (h *SubjectHandler) ListOutcomes(c *gin.Context) {
	outcomes, err := h.subjects.ListOutcomes(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, outcomes)
}

type sampleRequest struct {
	Type       model.QuestionType `json:"type"`
	Text       string             `json:"text"`
	Options    []string           `json:"options"`
	Answer     string             `json:"answer"`
	Difficulty model.Difficulty   `json:"difficulty"`
}

func (h *SubjectHandler) AddSample(c *gin.Context) {
	var req sampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	sample, err := h.subjects.AddSample(c.Request.Context(), &model.SampleQuestion{
		SubjectID:  c.Param("id"),
		Type:       req.Type,
		Text:       req.Text,
		Options:    req.Options,
		Answer:     req.Answer,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sample)
}

func (h *SubjectHandler) ListSamples(c *gin.Context) {
	samples, err := h.subjects.ListSamples(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, samples)
}

func (h *SubjectHandler) DeleteSample(c *gin.Context) {
	if err := h.subjects.DeleteSample(c.Request.Context(), c.Param("sample_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
