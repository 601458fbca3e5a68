package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/services"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/utils"
)

type HandlerManager struct {
	authHandler  *AuthHandler
	examHandler  *ExamHandler
	adminHandler *AdminHandler

	rosterService services.RosterService
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authHandler:   NewAuthHandler(serviceManager.Roster(), validator, logger),
		examHandler:   NewExamHandler(serviceManager.Exam(), validator, logger),
		adminHandler:  NewAdminHandler(serviceManager.Admin(), serviceManager.Roster(), logger),
		rosterService: serviceManager.Roster(),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "exam-portal",
		})
	})

	api := router.Group("/api")
	{
		api.POST("/login", hm.authHandler.Login)
		// The login page renders the programme picker before any token
		// exists, so the structure stays public.
		api.GET("/structure", hm.examHandler.Structure)

		authenticated := api.Group("")
		authenticated.Use(AuthMiddleware(hm.rosterService))
		{
			authenticated.GET("/session", hm.authHandler.Session)
			authenticated.GET("/subjects", hm.examHandler.Subjects)

			exam := authenticated.Group("/exam")
			{
				exam.POST("/start", hm.examHandler.StartExam)
				exam.POST("/submit", hm.examHandler.SubmitExam)
			}

			admin := authenticated.Group("/admin")
			admin.Use(RequireAdmin())
			{
				admin.GET("/dashboard", hm.adminHandler.Dashboard)
				admin.GET("/students/:login", hm.adminHandler.StudentResults)
				admin.POST("/students/import", hm.adminHandler.ImportStudents)
				admin.GET("/results", hm.adminHandler.AllResults)
				admin.GET("/results/export", hm.adminHandler.ExportResults)
				admin.GET("/credentials", hm.adminHandler.Credentials)
			}
		}
	}
}
