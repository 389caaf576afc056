package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/markaz-dev/markaz-api/internal/middleware"
	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/internal/service"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth        *AuthHandler
	Learners    *LearnerHandler
	Groups      *GroupHandler
	Enrollments *EnrollmentHandler
	Sessions    *SessionHandler
	Attendance  *AttendanceHandler
	Assessments *AssessmentHandler
	Reports     *ReportHandler
	Imports     *ImportHandler
}

// RegisterRoutes mounts the API under prefix. Everything except login sits
// behind JWT; mutations additionally require staff or admin roles.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))
	protected.GET("/auth/me", h.Auth.Me)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)
	staffOrTeacher := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleTeacher)

	protected.GET("/learners", h.Learners.List)
	protected.GET("/learners/:id", h.Learners.Get)
	protected.POST("/learners", staff, h.Learners.Create)
	protected.PATCH("/learners/:id", staff, h.Learners.Update)
	protected.POST("/learners/:id/points", staffOrTeacher, h.Learners.AdjustPoints)

	protected.GET("/groups", h.Groups.List)
	protected.GET("/groups/:id", h.Groups.Get)
	protected.POST("/groups", staff, h.Groups.Create)

	protected.GET("/enrollments", h.Enrollments.List)
	protected.POST("/enrollments", staff, h.Enrollments.Enroll)
	protected.POST("/enrollments/unenroll", staff, h.Enrollments.Unenroll)

	protected.GET("/sessions", h.Sessions.List)
	protected.POST("/sessions", staff, h.Sessions.Schedule)

	protected.POST("/attendance", staffOrTeacher, h.Attendance.Record)

	protected.POST("/tests", staffOrTeacher, h.Assessments.CreateTest)
	protected.POST("/tests/:id/results", staffOrTeacher, h.Assessments.SubmitTestResult)
	protected.POST("/written-assessments", staffOrTeacher, h.Assessments.CreateWrittenAssessment)
	protected.POST("/written-assessments/:id/results", staffOrTeacher, h.Assessments.SubmitWrittenResult)
	protected.POST("/assignments", staffOrTeacher, h.Assessments.CreateAssignment)
	protected.POST("/assignments/:id/grade", staffOrTeacher, h.Assessments.GradeAssignment)

	protected.GET("/reports/groups/:groupId/matrix", h.Reports.Matrix)
	protected.GET("/reports/groups/:groupId/matrix/export", h.Reports.ExportMatrix)
	protected.GET("/reports/roster/:date", h.Reports.Roster)
	protected.GET("/reports/roster/:date/export", h.Reports.ExportRoster)

	protected.POST("/imports/learners", staff, h.Imports.ImportLearners)
	protected.POST("/imports/test-results", staff, h.Imports.ImportTestResults)
	protected.POST("/imports/written-results", staff, h.Imports.ImportWrittenResults)
}
