// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"backoffice/internal/delivery/http/middleware"
	"backoffice/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	NotificationHandler *handler.NotificationHandler
	PushHandler         *handler.PushHandler
	RequestIDMiddleware *middleware.RequestIDMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	notificationHandler *handler.NotificationHandler
	pushHandler         *handler.PushHandler
	requestIDMiddleware *middleware.RequestIDMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		notificationHandler: params.NotificationHandler,
		pushHandler:         params.PushHandler,
		requestIDMiddleware: params.RequestIDMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	api := e.Group("/api")
	api.Use(r.requestIDMiddleware.Process)
	{
		notifications := api.Group("/notifications")
		notifications.POST("", r.notificationHandler.CreateNotification)
		notifications.GET("", r.notificationHandler.ListNotifications)
		notifications.GET("/:id", r.notificationHandler.GetNotification)
		notifications.PUT("/:id", r.notificationHandler.UpdateNotification)

		// Push pipeline endpoints
		notifications.POST("/send", r.pushHandler.SendPushNotification)
		notifications.POST("/process-scheduled", r.pushHandler.ProcessScheduled)
	}
}
