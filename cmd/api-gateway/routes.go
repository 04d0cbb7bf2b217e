package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/classquest-api/internal/middleware"
	"github.com/noah-isme/classquest-api/internal/models"
	"github.com/noah-isme/classquest-api/pkg/config"
)

func registerRoutes(r *gin.Engine, cfg *config.Config, a *app) {
	r.GET("/health", a.metricsHandler.Health)
	r.GET("/ready", a.metricsHandler.Ready)
	r.GET("/metrics", a.metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", a.authHandler.Register)
	auth.POST("/login", a.authHandler.Login)

	// Download tokens carry their own authorization.
	api.GET("/exports/download", a.exportHandler.Download)
	api.GET("/leaderboard", a.leaderboardHandler.Get)

	secured := api.Group("")
	secured.Use(middleware.JWT(a.auth))

	teacher := middleware.RequireRoles(a.guard, models.RoleTeacher)
	student := middleware.RequireRoles(a.guard, models.RoleStudent)
	member := middleware.RequireRoles(a.guard, models.RoleTeacher, models.RoleStudent)

	secured.GET("/profile", a.profileHandler.Me)
	secured.POST("/profile/role", a.profileHandler.SetupRole)
	secured.POST("/profile/extended", member, a.profileHandler.SetupExtendedProfile)

	secured.GET("/courses", member, a.courseHandler.List)
	secured.GET("/courses/:id", member, a.courseHandler.Get)
	secured.POST("/courses", teacher, a.courseHandler.Create)
	secured.PUT("/courses/:id", teacher, a.courseHandler.Update)
	secured.DELETE("/courses/:id", teacher, a.courseHandler.Delete)
	secured.GET("/courses/:id/chapters", member, a.chapterHandler.List)
	secured.POST("/courses/:id/chapters", teacher, a.chapterHandler.Create)
	secured.POST("/courses/:id/enroll", student, a.enrollmentHandler.Enroll)

	secured.PUT("/chapters/:id", teacher, a.chapterHandler.Update)
	secured.PUT("/chapters/:id/order", teacher, a.chapterHandler.SetOrder)
	secured.DELETE("/chapters/:id", teacher, a.chapterHandler.Delete)
	secured.POST("/chapters/:id/complete", student, a.chapterHandler.Complete)

	secured.GET("/tests", member, a.testHandler.List)
	secured.GET("/tests/:id", member, a.testHandler.Get)
	secured.POST("/tests", teacher, a.testHandler.Create)
	secured.PUT("/tests/:id", teacher, a.testHandler.Update)
	secured.DELETE("/tests/:id", teacher, a.testHandler.Delete)
	secured.PUT("/tests/:id/questions/:index", teacher, a.testHandler.UpdateQuestion)
	secured.DELETE("/tests/:id/questions/:index", teacher, a.testHandler.DeleteQuestion)
	secured.POST("/tests/:id/submit", student, a.testHandler.Submit)
	secured.POST("/tests/:id/exports", teacher, a.exportHandler.Create)
	secured.GET("/exports/:id", teacher, a.exportHandler.Status)

	secured.GET("/enrollments/me", student, a.enrollmentHandler.ListMine)

	secured.GET("/announcements", member, a.announcementHandler.List)
	secured.POST("/announcements", teacher, a.announcementHandler.Create)
	secured.PUT("/announcements/:id", teacher, a.announcementHandler.Update)
	secured.DELETE("/announcements/:id", teacher, a.announcementHandler.Delete)

	secured.GET("/students", teacher, a.studentHandler.List)
	secured.PATCH("/students/:id", teacher, a.studentHandler.Patch)
	secured.DELETE("/students/:id", teacher, a.studentHandler.Delete)

	secured.POST("/progress/credits", student, a.progressHandler.AddCredits)
}
