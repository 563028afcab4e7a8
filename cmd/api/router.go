package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-backend/internal/shared/middleware"
	"catalog-backend/internal/shared/response"
	"catalog-backend/pkg/container"
	"catalog-backend/pkg/logger"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(logger.Component("recovery")),
		middleware.RequestID(),
		middleware.Logger(logger.Component("http")),
	)
	if c.Redis != nil {
		router.Use(middleware.RateLimit(c.Redis, c.Config.RateLimit.Requests, c.Config.RateLimit.Window, logger.Component("ratelimit")))
	}

	router.NoRoute(func(ctx *gin.Context) {
		response.ErrorResponse(ctx, http.StatusNotFound, response.CodePathNotFound, "path "+ctx.Request.URL.Path+" not found")
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthorRoutes(v1, c)
		setupBookRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTHOR ROUTES
// ========================================
func setupAuthorRoutes(v1 *gin.RouterGroup, c *container.Container) {
	authors := v1.Group("/authors")
	{
		authors.GET("", c.AuthorHandler.List)
		authors.POST("", c.AuthorHandler.Create)
		authors.GET("/:id", c.AuthorHandler.GetByID)
		authors.PUT("/:id", c.AuthorHandler.Replace)
		authors.PATCH("/:id", c.AuthorHandler.Update)
		authors.DELETE("/:id", c.AuthorHandler.Delete)
	}
}

// ========================================
// BOOK ROUTES
// ========================================
func setupBookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	books := v1.Group("/books")
	{
		books.GET("", c.BookHandler.List)
		books.POST("", c.BookHandler.Create)
		books.GET("/:id", c.BookHandler.GetByID)
		books.PUT("/:id", c.BookHandler.Replace)
		books.PATCH("/:id", c.BookHandler.Update)
		books.DELETE("/:id", c.BookHandler.Delete)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		health, healthy := appCtx.Health(ctx)
		if !healthy {
			response.ErrorWithDetails(c, http.StatusServiceUnavailable, response.CodeUnavailable, "storage is unavailable", health)
			return
		}
		response.Success(c, http.StatusOK, health)
	}
}
