package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/examgen/examgen/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Subjects  *SubjectHandler
	Materials *MaterialHandler
	Generate  *GenerateHandler
	Questions *QuestionHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/subjects", deps.Subjects.Create)
	authGroup.GET("/subjects", deps.Subjects.List)
	authGroup.GET("/subjects/:id", deps.Subjects.Get)
	authGroup.DELETE("/subjects/:id", deps.Subjects.Delete)

	authGroup.POST("/subjects/:id/topics", deps.Subjects.CreateTopic)
	authGroup.GET("/subjects/:id/topics", deps.Subjects.ListTopics)
	authGroup.PUT("/subjects/:id/outcomes", deps.Subjects.ReplaceOutcomes)
	authGroup.GET("/subjects/:id/outcomes", deps.Subjects.ListOutcomes)
	authGroup.POST("/subjects/:id/samples", deps.Subjects.AddSample)
	authGroup.GET("/subjects/:id/samples", deps.Subjects.ListSamples)
	authGroup.DELETE("/subjects/:id/samples/:sample_id", deps.Subjects.DeleteSample)

	authGroup.POST("/subjects/:id/materials", deps.Materials.Upload)
	authGroup.GET("/subjects/:id/materials", deps.Materials.List)
	authGroup.GET("/materials/:material_id", deps.Materials.Get)
	authGroup.POST("/materials/:material_id/index", deps.Materials.Index)
	authGroup.DELETE("/materials/:material_id", deps.Materials.Delete)

	// Starting a batch is the expensive path; a short per-user window keeps
	// accidental double submits off the single generation slot.
	generateGroup := authGroup.Group("")
	generateGroup.Use(middleware.RateLimit(2 * time.Second))
	generateGroup.POST("/subjects/:id/generate", deps.Generate.Start)

	authGroup.GET("/batches/:batch_id", deps.Generate.GetBatch)
	authGroup.GET("/batches/:batch_id/questions", deps.Generate.ListBatchQuestions)

	authGroup.GET("/questions", deps.Questions.List)
	authGroup.GET("/questions/:id", deps.Questions.Get)
	authGroup.PUT("/questions/:id/review", deps.Questions.Review)
	authGroup.DELETE("/questions/:id", deps.Questions.Delete)
}
