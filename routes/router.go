package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/controllers"
	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, db *gorm.DB, tokens *utils.TokenManager) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.RequestID())
	// Replace default console logger with file-based zap logger
	if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg); err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, true))
	} else {
		utils.Sugar.Warnf("access log disabled: %v", err)
		r.Use(utils.RecoveryWithZap(utils.Logger, true))
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDKey},
		ExposeHeaders:    []string{"Content-Length", "Location", utils.RequestIDKey},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	userController := controllers.NewUserController(db, tokens)
	postController := controllers.NewPostController(db)
	commentController := controllers.NewCommentController(db)

	// protected routes run the authentication gate before the handler
	protected := middleware.AuthRequired(db, tokens)

	api := r.Group("/api")

	users := api.Group("/users")
	users.POST("/registration", userController.Register)
	users.POST("/token", protected, userController.IssueToken)
	users.POST("/logout", protected, userController.Logout)
	users.DELETE("/me", protected, userController.DeleteMe)

	posts := api.Group("/posts")
	posts.GET("", postController.ListPosts)
	posts.POST("", protected, postController.CreatePost)
	posts.GET("/:post_id", postController.GetPost)
	posts.PUT("/:post_id", protected, postController.UpdatePost)
	posts.DELETE("/:post_id", protected, postController.DeletePost)

	comments := posts.Group("/:post_id/comments")
	comments.GET("", commentController.ListComments)
	comments.POST("", protected, commentController.CreateComment)
	comments.GET("/:comment_id", commentController.GetComment)
	comments.PUT("/:comment_id", protected, commentController.UpdateComment)
	comments.DELETE("/:comment_id", protected, commentController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40404, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
