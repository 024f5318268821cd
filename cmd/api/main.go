package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/studyboost/tutor-market-api/api/swagger"
	"github.com/studyboost/tutor-market-api/internal/handler"
	"github.com/studyboost/tutor-market-api/internal/middleware"
	"github.com/studyboost/tutor-market-api/internal/models"
	"github.com/studyboost/tutor-market-api/internal/repository"
	"github.com/studyboost/tutor-market-api/internal/service"
	"github.com/studyboost/tutor-market-api/pkg/config"
	"github.com/studyboost/tutor-market-api/pkg/database"
	"github.com/studyboost/tutor-market-api/pkg/logger"
	corsmiddleware "github.com/studyboost/tutor-market-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studyboost/tutor-market-api/pkg/middleware/requestid"
)

// @title Tutor Market API
// @version 1.0.0
// @description Tutoring marketplace backend: accounts, bookings, reviews and learning analytics
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	scoreRepo := repository.NewScoreRepository(db)

	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.JWT, logr)
	authSvc := service.NewAuthService(userRepo, tokenSvc, metricsSvc, validate, logr, cfg.Auth)
	teacherSvc := service.NewTeacherService(userRepo, reviewRepo, appointmentRepo, scoreRepo, validate, logr)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, userRepo, validate, logr)
	scoreSvc := service.NewScoreService(scoreRepo, userRepo, validate, logr)
	analyticsSvc := service.NewAnalyticsService(scoreRepo, userRepo, reviewRepo, metricsSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	appointmentHandler := handler.NewAppointmentHandler(appointmentSvc)
	scoreHandler := handler.NewScoreHandler(scoreSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/logout", middleware.JWT(tokenSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(tokenSvc), authHandler.Me)
		auth.POST("/change-password", middleware.JWT(tokenSvc), authHandler.ChangePassword)
	}

	teachers := api.Group("/teachers")
	{
		teachers.GET("", teacherHandler.List)
		teachers.GET("/subjects", teacherHandler.Subjects)
		teachers.GET("/:id", teacherHandler.Get)
		teachers.GET("/:id/stats", teacherHandler.Stats)
		teachers.GET("/:id/reviews", teacherHandler.ListReviews)
		teachers.POST("/:id/reviews", middleware.JWT(tokenSvc), teacherHandler.CreateReview)
	}

	api.GET("/reviews/:id", teacherHandler.GetReview)

	appointments := api.Group("/appointments")
	{
		appointments.POST("", middleware.OptionalJWT(tokenSvc), appointmentHandler.Create)
		appointments.GET("", middleware.JWT(tokenSvc), appointmentHandler.List)
		appointments.GET("/:id", middleware.JWT(tokenSvc), appointmentHandler.Get)
		appointments.PATCH("/:id", middleware.JWT(tokenSvc), appointmentHandler.Update)
		appointments.DELETE("/:id", middleware.JWT(tokenSvc), appointmentHandler.Delete)
	}

	scores := api.Group("/scores", middleware.JWT(tokenSvc))
	{
		scores.POST("", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), scoreHandler.Create)
		scores.GET("/student/:id", middleware.SelfOrRoles(models.RoleTeacher, models.RoleAdmin), scoreHandler.ListByStudent)
	}

	analytics := api.Group("/analytics", middleware.JWT(tokenSvc))
	{
		analytics.GET("/my", analyticsHandler.My)
		analytics.GET("/student/:id", analyticsHandler.Student)
		analytics.GET("/teacher/:id", analyticsHandler.Teacher)
		analytics.GET("/subject/:subject", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), analyticsHandler.Subject)
		analytics.GET("/overview", middleware.RequireRoles(models.RoleAdmin), analyticsHandler.Overview)
		analytics.GET("/users/students", middleware.RequireRoles(models.RoleAdmin), analyticsHandler.Students)
		if cfg.Exports.Enabled {
			analytics.GET("/overview/export", middleware.RequireRoles(models.RoleAdmin), analyticsHandler.ExportOverview)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
