package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/stats", handler.GetPropertyStats)

		api.GET("/properties", handler.ListProperties)
		api.POST("/properties", handler.CreateProperty)
		api.POST("/properties/onchange", handler.PropertyOnchange)
		api.GET("/properties/:id", handler.GetProperty)
		api.PATCH("/properties/:id", handler.UpdateProperty)
		api.DELETE("/properties/:id", handler.DeleteProperty)
		api.POST("/properties/:id/sold", handler.MarkPropertySold)
		api.POST("/properties/:id/cancel", handler.CancelProperty)
		api.GET("/properties/:id/offers", handler.ListPropertyOffers)
		api.POST("/properties/:id/offers", handler.CreateOffer)

		api.GET("/offers/:id", handler.GetOffer)
		api.PATCH("/offers/:id", handler.UpdateOffer)
		api.DELETE("/offers/:id", handler.DeleteOffer)
		api.POST("/offers/:id/accept", handler.AcceptOffer)
		api.POST("/offers/:id/refuse", handler.RefuseOffer)

		api.GET("/property-types", handler.ListPropertyTypes)
		api.POST("/property-types", handler.CreatePropertyType)
		api.GET("/property-types/:id", handler.GetPropertyType)
		api.DELETE("/property-types/:id", handler.DeletePropertyType)
		api.GET("/property-types/:id/properties", handler.ListTypeProperties)

		api.GET("/property-tags", handler.ListTags)
		api.POST("/property-tags", handler.CreateTag)
		api.DELETE("/property-tags/:id", handler.DeleteTag)

		api.GET("/partners", handler.ListPartners)
		api.POST("/partners", handler.CreatePartner)

		api.GET("/notifications/filters", handler.GetNotificationFilters)
		api.PUT("/notifications/filters", handler.UpdateNotificationFilters)
		api.POST("/notifications/test", handler.TestNotification)
	}
}

// NewRouter builds the gin engine with the middleware stack and all routes.
func NewRouter(handler *Handler, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(handler.logger))
	router.Use(CORSMiddleware(corsOrigins))

	SetupRoutes(router, handler)
	return router
}
