// Package router contains routing and server setup for the admin API.
package router

import (
	"attrschema/internal/delivery/api/router/handler"
	"attrschema/internal/delivery/middleware"
	"attrschema/internal/domain/constants"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	DefinitionHandler *handler.DefinitionHandler
	ValueHandler      *handler.ValueHandler
	TransferHandler   *handler.TransferHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	definitionHandler *handler.DefinitionHandler
	valueHandler      *handler.ValueHandler
	transferHandler   *handler.TransferHandler
	authMiddleware    *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		definitionHandler: params.DefinitionHandler,
		valueHandler:      params.ValueHandler,
		transferHandler:   params.TransferHandler,
		authMiddleware:    params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	// Every API route requires an actor; capability checks happen in the services.
	apiV1 := e.Group("/api/v1")
	apiV1.Use(r.authMiddleware.Authenticate)

	definitions := apiV1.Group("/definitions")
	{
		definitions.GET("", r.definitionHandler.List)
		definitions.POST("", r.definitionHandler.Create)
		definitions.POST("/status", r.definitionHandler.BulkChangeStatus)
		definitions.POST("/reorder", r.definitionHandler.Reorder)
		definitions.GET("/by-name/:name", r.definitionHandler.GetByName)
		definitions.GET("/:id", r.definitionHandler.Get)
		definitions.PUT("/:id", r.definitionHandler.Update)
		definitions.DELETE("/:id", r.definitionHandler.Delete)
		definitions.POST("/:id/status", r.definitionHandler.ChangeStatus)
		definitions.POST("/:id/duplicate", r.definitionHandler.Duplicate)
		definitions.GET("/:id/history", r.definitionHandler.History)
	}

	apiV1.GET("/groups", r.definitionHandler.ListGroups)
	apiV1.PUT("/groups/:key", r.definitionHandler.SaveGroup)
	apiV1.GET("/stats", r.definitionHandler.Stats)

	principals := apiV1.Group("/principals/:principalId")
	{
		principals.GET("/values", r.valueHandler.List)
		principals.PUT("/values", r.valueHandler.Submit)
		principals.PUT("/values/:definitionId", r.valueHandler.Save)
		principals.DELETE("/values/:definitionId", r.valueHandler.Delete)
		principals.GET("/forms/:group", r.valueHandler.RenderForm)
	}

	admin := apiV1.Group("/admin")
	admin.Use(r.authMiddleware.RequireCapability(constants.CapabilityManage))
	{
		admin.GET("/export", r.transferHandler.Export)
		admin.POST("/import", r.transferHandler.Import)
		admin.POST("/exports/:key", r.transferHandler.ExportToStore)
		admin.POST("/imports/:key", r.transferHandler.ImportFromStore)
		admin.POST("/purges/run", r.transferHandler.RunPurges)
	}
}
